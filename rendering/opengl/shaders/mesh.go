package shaders

// Lit mesh: per-vertex normals, one key light plus a sky/ground hemisphere
// term and a little ambient.
const meshVertexShader = `
#version 410 core

layout (location = 0) in vec3 position;
layout (location = 1) in vec3 normal;

uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;

out vec3 worldPos;
out vec3 worldNormal;

void main() {
    vec4 p = model * vec4(position, 1.0);
    worldPos = p.xyz;
    worldNormal = mat3(transpose(inverse(model))) * normal;
    gl_Position = projection * view * p;
}
`

const meshFragmentShader = `
#version 410 core

in vec3 worldPos;
in vec3 worldNormal;

uniform vec3 baseColor;
uniform vec3 eye;
uniform vec3 lightDir;

out vec4 outColor;

void main() {
    vec3 n = normalize(worldNormal);
    if (!gl_FrontFacing) {
        n = -n;
    }
    vec3 l = normalize(-lightDir);
    vec3 v = normalize(eye - worldPos);
    vec3 h = normalize(l + v);

    float hemi = 0.5 + 0.5 * n.z;
    vec3 sky = vec3(1.0);
    vec3 ground = vec3(0.125, 0.125, 0.19);
    vec3 ambient = 0.2 * baseColor + 0.8 * mix(ground, sky, hemi) * baseColor * 0.5;

    float diffuse = max(dot(n, l), 0.0) * 0.9;
    float specular = pow(max(dot(n, h), 0.0), 48.0) * 0.25;

    outColor = vec4(ambient + diffuse * baseColor + vec3(specular), 1.0);
}
`

// Unlit lines for the ground grid and center marker
const lineVertexShader = `
#version 410 core

layout (location = 0) in vec3 position;

uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;

void main() {
    gl_Position = projection * view * model * vec4(position, 1.0);
}
`

const lineFragmentShader = `
#version 410 core

uniform vec4 color;
out vec4 outColor;

void main() {
    outColor = color;
}
`

// Screen space colored rectangles, positions in pixels from the top left
const overlayVertexShader = `
#version 410 core

layout (location = 0) in vec2 position;
layout (location = 1) in vec4 color;

uniform mat4 projection;

out vec4 fragColor;

void main() {
    gl_Position = projection * vec4(position, 0.0, 1.0);
    fragColor = color;
}
`

const overlayFragmentShader = `
#version 410 core

in vec4 fragColor;
out vec4 outColor;

void main() {
    outColor = fragColor;
}
`

func NewMeshProgram() (uint32, error) {
	return NewProgram(meshVertexShader, meshFragmentShader)
}

func NewLineProgram() (uint32, error) {
	return NewProgram(lineVertexShader, lineFragmentShader)
}

func NewOverlayProgram() (uint32, error) {
	return NewProgram(overlayVertexShader, overlayFragmentShader)
}
