package snapshot

import (
	"errors"
	"fmt"
	"sync"

	"github.com/cwbudde/algo-nmr/nmr/chain"
	"github.com/cwbudde/algo-nmr/nmr/datum"
	"github.com/cwbudde/algo-nmr/nmr/filter"
)

var (
	// ErrNoLivePreview is returned when opening a tool whose kind does not
	// support live preview.
	ErrNoLivePreview = errors.New("snapshot: kind has no live preview")
	// ErrSessionClosed is returned by a session after Commit or Cancel.
	ErrSessionClosed = errors.New("snapshot: session closed")
	// ErrWrongSpectrum is returned when a session is finished with a
	// spectrum other than its target.
	ErrWrongSpectrum = errors.New("snapshot: spectrum is not the session target")
)

// SnapshotTo moves the snapshot pointer of s to the given record and
// recomputes derived data for the selected prefix. Selecting the record the
// pointer is already on closes the snapshot and reapplies the full chain.
// The chain itself is not modified.
func SnapshotTo(e *chain.Engine, s *chain.Spectrum, filterID string, mode chain.SnapshotMode) (*chain.Spectrum, error) {
	if s.Snapshot != nil && s.Snapshot.FilterID == filterID {
		return Release(e, s)
	}
	return pointTo(e, s, filterID, mode)
}

func pointTo(e *chain.Engine, s *chain.Spectrum, filterID string, mode chain.SnapshotMode) (*chain.Spectrum, error) {
	if s.IndexOf(filterID) < 0 {
		return nil, fmt.Errorf("%w: no filter %s on spectrum %s", chain.ErrInvalidChainState, filterID, s.ID)
	}
	next := s.Clone()
	next.Snapshot = &chain.SnapshotPointer{FilterID: filterID, Mode: mode}
	return e.Materialize(next)
}

// Release clears the snapshot pointer of s and fully reapplies its chain.
func Release(e *chain.Engine, s *chain.Spectrum) (*chain.Spectrum, error) {
	next := s.Clone()
	next.Snapshot = nil
	return e.Materialize(next)
}

// Session is an open live preview tool on one spectrum.
type Session struct {
	mu sync.Mutex

	engine  *chain.Engine
	kind    filter.Kind
	target  string
	replace string
	base    datum.State
	options filter.Options
	buffer  map[string]datum.State
	closed  bool
}

// Open starts a preview session for tool on the spectrum with id target.
// spectra is every spectrum the temporary buffer should mirror and must
// include the target.
//
// When the target already carries a record of the tool's kind, the chain is
// rolled back to before that record, the record becomes the replace target
// of Commit and the preview is seeded with its options. The rollback
// replaces any snapshot pointer already set on the target. Otherwise the
// preview starts from the kind's defaults on the current derived data,
// which is the snapshot state when a pointer is set.
// Open returns the session and the possibly rolled back target spectrum.
func Open(e *chain.Engine, spectra []*chain.Spectrum, target string, tool filter.Name) (*Session, *chain.Spectrum, error) {
	k, err := e.Registry().Lookup(tool)
	if err != nil {
		return nil, nil, err
	}
	if !k.Capabilities().LivePreview {
		return nil, nil, fmt.Errorf("%w: %s", ErrNoLivePreview, tool)
	}

	var s *chain.Spectrum
	for _, sp := range spectra {
		if sp.ID == target {
			s = sp
			break
		}
	}
	if s == nil {
		return nil, nil, fmt.Errorf("%w: spectrum %s not in session set", chain.ErrInvalidChainState, target)
	}

	sess := &Session{
		engine:  e,
		kind:    k,
		target:  target,
		options: k.Defaults(),
		buffer:  make(map[string]datum.State, len(spectra)),
	}

	rolled := s
	for _, r := range s.Records {
		if r.Name != tool {
			continue
		}
		rolled, err = pointTo(e, s, r.ID, chain.Rollback)
		if err != nil {
			return nil, nil, err
		}
		sess.replace = r.ID
		sess.options = r.Options
		break
	}

	if !k.IsApplicable(&rolled.Derived) {
		return nil, nil, fmt.Errorf("%w: %s on spectrum %s", filter.ErrNotApplicable, tool, s.ID)
	}
	sess.base = rolled.Derived.Clone()

	for _, sp := range spectra {
		if sp.ID != target {
			sess.buffer[sp.ID] = sp.Derived.Clone()
		}
	}
	if sess.replace != "" {
		if err := sess.render(sess.options); err != nil {
			return nil, nil, err
		}
	} else {
		sess.buffer[target] = sess.base.Clone()
	}

	return sess, rolled, nil
}

// render applies o to a copy of the base state and stores it as the
// target's preview entry.
func (ss *Session) render(o filter.Options) error {
	st := ss.base.Clone()
	if err := ss.kind.Apply(&st, o); err != nil {
		return err
	}
	if nf, bad := st.FindNonFinite(); bad {
		return fmt.Errorf("%w: %s: non-finite value in %s[%d]", filter.ErrKernelFailure, ss.kind.Name(), nf.Channel, nf.Index)
	}
	ss.buffer[ss.target] = st
	ss.options = o
	return nil
}

// Preview recomputes the target's temporary entry from the rollback base
// with o. Records and derived data are never touched. A failing preview
// keeps the previous entry.
func (ss *Session) Preview(o filter.Options) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if ss.closed {
		return ErrSessionClosed
	}
	if err := ss.kind.Validate(o); err != nil {
		return err
	}
	o, err := ss.kind.Normalize(o)
	if err != nil {
		return err
	}
	return ss.render(o)
}

// Commit writes the previewed options into the chain of s, which must be
// the session target as returned by Open. An existing record of the tool's
// kind is replaced in place and enabled; otherwise a new record is appended
// to the full chain. The snapshot pointer and the temporary buffer are
// cleared.
func (ss *Session) Commit(s *chain.Spectrum) (*chain.Spectrum, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if err := ss.check(s); err != nil {
		return nil, err
	}

	var (
		next *chain.Spectrum
		err  error
	)
	if ss.replace != "" {
		cleared := s.Clone()
		cleared.Snapshot = nil
		if i := cleared.IndexOf(ss.replace); i >= 0 {
			cleared.Records[i].IsEnabled = true
		}
		next, err = ss.engine.Replace(cleared, ss.replace, ss.options)
	} else {
		full := s
		if s.Snapshot != nil {
			full, err = Release(ss.engine, s)
		}
		if err == nil {
			next, err = ss.engine.Append(full, ss.kind.Name(), ss.options)
		}
	}
	if err != nil {
		return nil, err
	}
	ss.close()
	return next, nil
}

// Cancel discards the preview, clears the snapshot pointer of s and fully
// reapplies its unchanged chain.
func (ss *Session) Cancel(s *chain.Spectrum) (*chain.Spectrum, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if err := ss.check(s); err != nil {
		return nil, err
	}
	next, err := Release(ss.engine, s)
	if err != nil {
		return nil, err
	}
	ss.close()
	return next, nil
}

func (ss *Session) check(s *chain.Spectrum) error {
	if ss.closed {
		return ErrSessionClosed
	}
	if s == nil || s.ID != ss.target {
		return ErrWrongSpectrum
	}
	return nil
}

func (ss *Session) close() {
	ss.closed = true
	ss.buffer = nil
}

// Target returns the id of the spectrum being edited.
func (ss *Session) Target() string { return ss.target }

// Tool returns the kind being previewed.
func (ss *Session) Tool() filter.Name { return ss.kind.Name() }

// ReplaceID returns the id of the record Commit will replace, or "".
func (ss *Session) ReplaceID() string { return ss.replace }

// Options returns the options of the last successful preview.
func (ss *Session) Options() filter.Options {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.options
}

// PreviewOf returns a copy of the temporary state of spectrum id.
func (ss *Session) PreviewOf(id string) (datum.State, bool) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	st, ok := ss.buffer[id]
	if !ok {
		return datum.State{}, false
	}
	return st.Clone(), true
}

// Closed reports whether Commit or Cancel has finished the session.
func (ss *Session) Closed() bool {
	ss.mu.Lock()
	defer ss.mu.Unlock()
	return ss.closed
}
