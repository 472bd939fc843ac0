package filter

import "errors"

var (
	// ErrUnknownKind is returned for names missing from the registry. It is
	// always reported together with ErrNotApplicable.
	ErrUnknownKind = errors.New("filter: unknown kind")
	// ErrNotApplicable is returned when a kind rejects a state's shape.
	ErrNotApplicable = errors.New("filter: not applicable")
	// ErrOptionsMismatch is returned when an options payload has the wrong
	// type for the kind it is passed to.
	ErrOptionsMismatch = errors.New("filter: options type mismatch")
	// ErrInvalidOptions is returned when options fail validation.
	ErrInvalidOptions = errors.New("filter: invalid options")
	// ErrKernelFailure marks numeric failures inside a kernel, including
	// non-finite output.
	ErrKernelFailure = errors.New("filter: kernel failure")

	errDuplicateKind = errors.New("filter: duplicate kind")
)
