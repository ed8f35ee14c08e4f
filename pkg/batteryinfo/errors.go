package batteryinfo

import (
	"errors"
	"fmt"
)

var (
	// ErrNoBatteriesFound is returned when the provider enumerates no batteries.
	ErrNoBatteriesFound = errors.New("no batteries found")

	// ErrIndexOutOfRange is returned when the requested battery index is not
	// below the number of batteries.
	ErrIndexOutOfRange = errors.New("battery index out of range")
)

// ProviderError wraps a failure of the hardware provider.
type ProviderError struct {
	// Op is what was being done, e.g. "enumerate batteries".
	Op  string
	Err error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("failed to %s: %v", e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
