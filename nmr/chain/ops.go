package chain

import (
	"fmt"
	"slices"

	"github.com/cwbudde/algo-nmr/nmr/datum"
	"github.com/cwbudde/algo-nmr/nmr/domain"
	"github.com/cwbudde/algo-nmr/nmr/filter"
)

func guardSnapshot(s *Spectrum) error {
	if s.Snapshot != nil {
		return fmt.Errorf("%w: snapshot at %s is active on %s", ErrInvalidChainState, s.Snapshot.FilterID, s.ID)
	}
	return nil
}

func (e *Engine) resolve(name filter.Name, o filter.Options) (filter.Kind, filter.Options, error) {
	k, err := e.reg.Lookup(name)
	if err != nil {
		return nil, nil, err
	}
	if o == nil {
		o = k.Defaults()
	}
	if err := k.Validate(o); err != nil {
		return nil, nil, err
	}
	if o, err = k.Normalize(o); err != nil {
		return nil, nil, err
	}
	return k, o, nil
}

// commit installs st as the derived state of next and refreshes domain,
// mode and version.
func commit(next *Spectrum, st datum.State, freeze domain.Axis) *Spectrum {
	next.Derived = st
	next.Domain = domain.Compute(next.Domain, &next.Derived, freeze)
	next.Mode = domain.ModeOf(&next.Derived)
	next.Version++
	return next
}

// FreezeFor returns the domain axes a kind keeps from the previous state.
func FreezeFor(k filter.Kind) domain.Axis {
	freeze := domain.AxisNone
	if k == nil {
		return freeze
	}
	if k.Capabilities().PreserveXDomain {
		freeze |= domain.AxisX
	}
	if k.Capabilities().PreserveYDomain {
		freeze |= domain.AxisY
	}
	return freeze
}

// Append applies a filter to s. A request that DecideMerge folds into the
// last record replaces that record's options and re-runs it on the state
// before it; otherwise a new record is pushed and applied to the current
// derived state.
func (e *Engine) Append(s *Spectrum, name filter.Name, o filter.Options) (*Spectrum, error) {
	if err := guardSnapshot(s); err != nil {
		return nil, err
	}
	k, o, err := e.resolve(name, o)
	if err != nil {
		return nil, err
	}
	if !k.IsApplicable(&s.Derived) {
		return nil, fmt.Errorf("%w: %s on spectrum %s", filter.ErrNotApplicable, name, s.ID)
	}

	var last *Record
	if n := len(s.Records); n > 0 {
		last = &s.Records[n-1]
	}
	decision, merged := DecideMerge(last, Request{Name: name, Options: o}, k)

	next := s.Clone()
	switch decision {
	case MergeFold:
		tail := len(next.Records) - 1
		base, err := e.Replay(next, tail)
		if err != nil {
			return nil, err
		}
		next.Records[tail].Options = merged
		if err := e.applyRecord(&base, next.Records[tail]); err != nil {
			return nil, err
		}
		e.checkpoint(next, next.Records, base)
		return commit(next, base, FreezeFor(k)), nil

	default:
		rec := NewRecord(k, o)
		st := s.Derived.Clone()
		e.checkpoint(s, s.Records, s.Derived)
		if err := e.applyRecord(&st, rec); err != nil {
			return nil, err
		}
		next.Records = append(next.Records, rec)
		e.checkpoint(next, next.Records, st)
		return commit(next, st, FreezeFor(k)), nil
	}
}

// reapply replays the active prefix of next and commits it.
func (e *Engine) reapply(next *Spectrum, freeze domain.Axis) (*Spectrum, error) {
	st, err := e.Replay(next, next.ActiveLen())
	if err != nil {
		return nil, err
	}
	return commit(next, st, freeze), nil
}

func (e *Engine) find(s *Spectrum, id string) (int, error) {
	i := s.IndexOf(id)
	if i < 0 {
		return -1, fmt.Errorf("%w: no filter %s on spectrum %s", ErrInvalidChainState, id, s.ID)
	}
	return i, nil
}

// Enable sets the enabled flag of a record and replays the chain.
func (e *Engine) Enable(s *Spectrum, id string, enabled bool) (*Spectrum, error) {
	if err := guardSnapshot(s); err != nil {
		return nil, err
	}
	i, err := e.find(s, id)
	if err != nil {
		return nil, err
	}
	if !enabled && !s.Records[i].IsDeleteAllowed {
		return nil, fmt.Errorf("%w: cannot disable %s", ErrProtectedFilter, id)
	}

	next := s.Clone()
	next.Records[i].IsEnabled = enabled
	return e.reapply(next, domain.AxisNone)
}

// Delete removes a record and replays the chain.
func (e *Engine) Delete(s *Spectrum, id string) (*Spectrum, error) {
	if err := guardSnapshot(s); err != nil {
		return nil, err
	}
	i, err := e.find(s, id)
	if err != nil {
		return nil, err
	}
	if !s.Records[i].IsDeleteAllowed {
		return nil, fmt.Errorf("%w: cannot delete %s", ErrProtectedFilter, id)
	}

	next := s.Clone()
	next.Records = slices.Delete(next.Records, i, i+1)
	return e.reapply(next, domain.AxisNone)
}

// DeleteByKind removes every record of the given kind and replays the
// chain. It returns s itself when no record matches.
func (e *Engine) DeleteByKind(s *Spectrum, name filter.Name) (*Spectrum, error) {
	if err := guardSnapshot(s); err != nil {
		return nil, err
	}
	matches := false
	for _, r := range s.Records {
		if r.Name != name {
			continue
		}
		if !r.IsDeleteAllowed {
			return nil, fmt.Errorf("%w: cannot delete %s", ErrProtectedFilter, r.ID)
		}
		matches = true
	}
	if !matches {
		return s, nil
	}

	next := s.Clone()
	next.Records = slices.DeleteFunc(next.Records, func(r Record) bool { return r.Name == name })
	return e.reapply(next, domain.AxisNone)
}

// Replace swaps the options of an existing record and replays the chain.
// It bypasses merging and is used to commit interactive edits.
func (e *Engine) Replace(s *Spectrum, id string, o filter.Options) (*Spectrum, error) {
	if err := guardSnapshot(s); err != nil {
		return nil, err
	}
	i, err := e.find(s, id)
	if err != nil {
		return nil, err
	}
	k, o, err := e.resolve(s.Records[i].Name, o)
	if err != nil {
		return nil, err
	}

	next := s.Clone()
	next.Records[i].Options = o
	return e.reapply(next, FreezeFor(k))
}

// RemoveZone drops a zone from whichever record carries it. An exclusion
// zone record left without zones is deleted.
func (e *Engine) RemoveZone(s *Spectrum, zoneID string) (*Spectrum, error) {
	if err := guardSnapshot(s); err != nil {
		return nil, err
	}
	for i, r := range s.Records {
		o, found, empty := filter.RemoveZone(r.Options, zoneID)
		if !found {
			continue
		}
		next := s.Clone()
		if empty && r.Name == filter.ExclusionZones {
			if !r.IsDeleteAllowed {
				return nil, fmt.Errorf("%w: cannot delete %s", ErrProtectedFilter, r.ID)
			}
			next.Records = slices.Delete(next.Records, i, i+1)
		} else {
			next.Records[i].Options = o
		}
		return e.reapply(next, domain.AxisNone)
	}
	return nil, fmt.Errorf("%w: no zone %s on spectrum %s", ErrInvalidChainState, zoneID, s.ID)
}

// RemoveZonesInRange drops the exclusion zones matching [from, to] from
// every exclusion zones record. Records left without zones are deleted. It
// returns s itself when no zone matches.
func (e *Engine) RemoveZonesInRange(s *Spectrum, from, to float64) (*Spectrum, error) {
	var next *Spectrum
	for i := len(s.Records) - 1; i >= 0; i-- {
		r := s.Records[i]
		o, found, empty := filter.RemoveZonesInRange(r.Options, from, to)
		if !found {
			continue
		}
		if next == nil {
			next = s.Clone()
		}
		if empty {
			if !r.IsDeleteAllowed {
				return nil, fmt.Errorf("%w: cannot delete %s", ErrProtectedFilter, r.ID)
			}
			next.Records = slices.Delete(next.Records, i, i+1)
		} else {
			next.Records[i].Options = o
		}
	}
	if next == nil {
		return s, nil
	}
	if err := guardSnapshot(s); err != nil {
		return nil, err
	}
	return e.reapply(next, domain.AxisNone)
}

// Materialize recomputes the derived state of s for its current chain and
// snapshot pointer. It is the full reapplication used after rollbacks and
// cancelled previews.
func (e *Engine) Materialize(s *Spectrum) (*Spectrum, error) {
	return e.reapply(s.Clone(), domain.AxisNone)
}

// Verify replays s from the raw data, bypassing the prefix cache, and
// reports ErrDiverged when the result is not bit-identical to the stored
// derived state.
func (e *Engine) Verify(s *Spectrum) error {
	st, err := e.replay(s, s.ActiveLen(), false)
	if err != nil {
		return err
	}
	if !st.Equal(&s.Derived) {
		return fmt.Errorf("%w: spectrum %s", ErrDiverged, s.ID)
	}
	return nil
}
