package pipeline

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrMissingActiveSpectrum is returned when a command names a spectrum
	// or group the pipeline does not hold.
	ErrMissingActiveSpectrum = errors.New("pipeline: missing active spectrum")
	// ErrDuplicateSpectrum is returned by Add for an id already in use.
	ErrDuplicateSpectrum = errors.New("pipeline: duplicate spectrum")
	// ErrNoTool is returned by tool commands when no tool is open.
	ErrNoTool = errors.New("pipeline: no tool open")
	// ErrToolOpen is returned by OpenTool while another tool is open.
	ErrToolOpen = errors.New("pipeline: a tool is already open")
)

// GroupError lists the spectra a group command failed on. Spectra not
// listed were updated.
type GroupError struct {
	Group    string
	Failures map[string]error
}

func (e *GroupError) Error() string {
	ids := make([]string, 0, len(e.Failures))
	for id := range e.Failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	fmt.Fprintf(&b, "pipeline: group %s: %d spectra failed", e.Group, len(ids))
	for _, id := range ids {
		fmt.Fprintf(&b, "; %s: %v", id, e.Failures[id])
	}
	return b.String()
}

// Unwrap exposes the per-spectrum errors to errors.Is and errors.As.
func (e *GroupError) Unwrap() []error {
	out := make([]error, 0, len(e.Failures))
	for _, err := range e.Failures {
		out = append(out, err)
	}
	return out
}
