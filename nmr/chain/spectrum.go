package chain

import (
	"fmt"
	"slices"
	"sync/atomic"

	"github.com/cwbudde/algo-nmr/nmr/datum"
	"github.com/cwbudde/algo-nmr/nmr/domain"
)

// SnapshotMode selects how far a snapshot replays.
type SnapshotMode int

const (
	// Inclusive replays through and including the target record.
	Inclusive SnapshotMode = iota
	// Rollback replays up to but excluding the target record.
	Rollback
)

func (m SnapshotMode) String() string {
	if m == Rollback {
		return "rollback"
	}
	return "inclusive"
}

// SnapshotPointer marks a paused replay point.
type SnapshotPointer struct {
	FilterID string       `json:"filterId"`
	Mode     SnapshotMode `json:"mode"`
}

var rawGeneration atomic.Uint64

// Spectrum is one dataset with its filter chain.
type Spectrum struct {
	ID    string
	Group string

	raw    datum.State
	rawGen uint64

	Derived  datum.State
	Records  []Record
	Domain   domain.Domain
	Mode     domain.Mode
	Snapshot *SnapshotPointer
	Version  uint64
}

// NewSpectrum creates a spectrum with an empty chain. raw is copied.
func NewSpectrum(id, group string, raw datum.State) (*Spectrum, error) {
	if err := raw.Validate(); err != nil {
		return nil, fmt.Errorf("chain: spectrum %s: %w", id, err)
	}
	s := &Spectrum{
		ID:     id,
		Group:  group,
		raw:    raw.Clone(),
		rawGen: rawGeneration.Add(1),
	}
	s.Derived = s.raw.Clone()
	s.Domain = domain.Compute(domain.Domain{}, &s.Derived, domain.AxisNone)
	s.Mode = domain.ModeOf(&s.Derived)
	return s, nil
}

// Raw returns a copy of the raw state.
func (s *Spectrum) Raw() datum.State { return s.raw.Clone() }

// Clone returns a deep copy. Record options are shared since they are
// immutable values.
func (s *Spectrum) Clone() *Spectrum {
	out := *s
	out.Derived = s.Derived.Clone()
	out.Records = slices.Clone(s.Records)
	if s.Snapshot != nil {
		p := *s.Snapshot
		out.Snapshot = &p
	}
	return &out
}

// IndexOf returns the position of the record with the given id, or -1.
func (s *Spectrum) IndexOf(id string) int {
	return slices.IndexFunc(s.Records, func(r Record) bool { return r.ID == id })
}

// Record returns the record with the given id.
func (s *Spectrum) Record(id string) (Record, bool) {
	i := s.IndexOf(id)
	if i < 0 {
		return Record{}, false
	}
	return s.Records[i], true
}

// ActiveLen returns the number of leading records the derived data
// reflects.
func (s *Spectrum) ActiveLen() int {
	if s.Snapshot == nil {
		return len(s.Records)
	}
	i := s.IndexOf(s.Snapshot.FilterID)
	if i < 0 {
		return len(s.Records)
	}
	if s.Snapshot.Mode == Inclusive {
		return i + 1
	}
	return i
}
