package chain

import (
	"errors"
	"fmt"

	"github.com/cwbudde/algo-nmr/nmr/filter"
)

var (
	// ErrProtectedFilter is returned when deleting or disabling a record
	// that does not allow it.
	ErrProtectedFilter = errors.New("chain: protected filter")
	// ErrInvalidChainState is returned for unknown record ids and for
	// mutations attempted while a snapshot is active.
	ErrInvalidChainState = errors.New("chain: invalid chain state")
	// ErrDiverged is returned by Verify when derived data differs from a
	// fresh replay.
	ErrDiverged = errors.New("chain: derived data diverged from replay")
)

// KernelError reports a failing record. It matches filter.ErrKernelFailure
// with errors.Is and unwraps to the underlying cause.
type KernelError struct {
	RecordID string
	Kind     filter.Name
	Err      error
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("chain: record %s (%s): %v", e.RecordID, e.Kind, e.Err)
}

func (e *KernelError) Unwrap() error { return e.Err }

// Is makes every KernelError match filter.ErrKernelFailure.
func (e *KernelError) Is(target error) bool { return target == filter.ErrKernelFailure }
