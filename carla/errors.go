package carla

import "errors"

var (
	// ErrConfig marks a caller mistake: a bad configuration document or
	// a malformed call into a live environment.
	ErrConfig = errors.New("configuration error")

	// ErrNotReset is returned by Step before the first successful Reset.
	ErrNotReset = errors.New("step called before reset")

	// ErrUnknownAgent is returned by Step when the action map names an
	// agent id the environment was not configured with.
	ErrUnknownAgent = errors.New("unknown agent id")
)
