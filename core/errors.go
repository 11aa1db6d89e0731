package core

import "errors"

var (
	// ErrNotLoaded is returned for parameter events while no mesh is loaded
	ErrNotLoaded = errors.New("no mesh loaded")

	// ErrSingularTransform means the object world transform cannot be
	// inverted, so the plane clamp was skipped
	ErrSingularTransform = errors.New("world transform is not invertible")

	// ErrSuperseded is returned when a load finishes after a newer load
	// was started
	ErrSuperseded = errors.New("load superseded by a newer load")

	// ErrInvalidParameter is returned for non-finite input; the session is
	// left as it was
	ErrInvalidParameter = errors.New("invalid parameter")
)
