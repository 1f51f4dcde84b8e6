package shared

import (
	"errors"
	"fmt"
)

var (
	ErrNotImplemented = fmt.Errorf("not implemented")

	// Project errors
	ErrInitialization     = errors.New("initialization error")
	ErrNotAProject        = fmt.Errorf("%w: not a mist repository", ErrInitialization)
	ErrAlreadyInitialized = fmt.Errorf("%w: already initialized", ErrInitialization)

	// Remote errors
	ErrRemoteNotFound = errors.New("no such remote")
	ErrRemoteExists   = errors.New("remote already exists")
	ErrNoUpstream     = errors.New("no upstream remote")
	ErrNoDataFile     = errors.New("no data file, run fetch first")

	// Configuration errors
	ErrConfiguration = errors.New("invalid configuration")

	// Batch errors
	ErrItemFetch = errors.New("item fetch failed")
	ErrStopped   = errors.New("stopped")

	// Input validation errors
	ErrInvalidArgument = fmt.Errorf("invalid argument")
)

var expected = []error{
	ErrNotImplemented,
	ErrInitialization,
	ErrRemoteNotFound,
	ErrRemoteExists,
	ErrNoUpstream,
	ErrNoDataFile,
	ErrConfiguration,
	ErrItemFetch,
	ErrStopped,
	ErrInvalidArgument,
}

// IsExpected reports whether err belongs to the known error taxonomy.
//
// Anything else reaching the top level is a latent bug and is reported as such.
func IsExpected(err error) bool {
	for _, target := range expected {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
