package mpm

import "errors"

// Errors returned by the solver. Callers match them with errors.Is; the
// returned values usually wrap one of these with extra context.
var (
	// ErrInvalidParams indicates a parameter set the solver cannot run with.
	ErrInvalidParams = errors.New("mpm: invalid parameters")

	// ErrNoParticles indicates an empty particle array.
	ErrNoParticles = errors.New("mpm: no particles")

	// ErrOutOfBounds indicates a particle outside the grid or with a
	// non-finite position at step entry.
	ErrOutOfBounds = errors.New("mpm: particle outside grid")

	// ErrUnstable indicates a sub-step produced a non-finite velocity or
	// position. The particle array is partially updated and should be
	// discarded in favour of the last good snapshot.
	ErrUnstable = errors.New("mpm: simulation unstable (non-finite state)")
)
