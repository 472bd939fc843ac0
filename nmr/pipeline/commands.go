package pipeline

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-nmr/nmr/chain"
	"github.com/cwbudde/algo-nmr/nmr/filter"
	"github.com/cwbudde/algo-nmr/nmr/snapshot"
)

// ApplyFilter appends a filter to a spectrum's chain, folding it into the
// last record when the kind merges.
func (p *Pipeline) ApplyFilter(ctx context.Context, id string, name filter.Name, o filter.Options) (View, error) {
	return p.mutate(ctx, "ApplyFilter", id, func(s *chain.Spectrum) (*chain.Spectrum, error) {
		return p.engine.Append(s, name, o)
	})
}

// EnableFilter toggles a record.
func (p *Pipeline) EnableFilter(ctx context.Context, id, filterID string, enabled bool) (View, error) {
	return p.mutate(ctx, "EnableFilter", id, func(s *chain.Spectrum) (*chain.Spectrum, error) {
		return p.engine.Enable(s, filterID, enabled)
	})
}

// DeleteFilter removes a record.
func (p *Pipeline) DeleteFilter(ctx context.Context, id, filterID string) (View, error) {
	return p.mutate(ctx, "DeleteFilter", id, func(s *chain.Spectrum) (*chain.Spectrum, error) {
		return p.engine.Delete(s, filterID)
	})
}

// ReplaceFilter swaps the options of a record.
func (p *Pipeline) ReplaceFilter(ctx context.Context, id, filterID string, o filter.Options) (View, error) {
	return p.mutate(ctx, "ReplaceFilter", id, func(s *chain.Spectrum) (*chain.Spectrum, error) {
		return p.engine.Replace(s, filterID, o)
	})
}

// AddExclusionZone appends a zone to the spectrum's exclusion zones.
func (p *Pipeline) AddExclusionZone(ctx context.Context, id string, from, to float64) (View, error) {
	zone := filter.Zone{From: from, To: to}
	return p.mutate(ctx, "AddExclusionZone", id, func(s *chain.Spectrum) (*chain.Spectrum, error) {
		return p.engine.Append(s, filter.ExclusionZones, filter.ExclusionZonesOptions{Zones: []filter.Zone{zone}})
	})
}

// DeleteExclusionZone removes a zone by id. A record left without zones is
// deleted.
func (p *Pipeline) DeleteExclusionZone(ctx context.Context, id, zoneID string) (View, error) {
	return p.mutate(ctx, "DeleteExclusionZone", id, func(s *chain.Spectrum) (*chain.Spectrum, error) {
		return p.engine.RemoveZone(s, zoneID)
	})
}

// ApplyAutoPhaseCorrection estimates phase angles on the current data and
// applies them as a regular phase correction.
func (p *Pipeline) ApplyAutoPhaseCorrection(ctx context.Context, id string) (View, error) {
	return p.mutate(ctx, "ApplyAutoPhaseCorrection", id, func(s *chain.Spectrum) (*chain.Spectrum, error) {
		k, err := p.engine.Registry().Lookup(filter.PhaseCorrection)
		if err != nil {
			return nil, err
		}
		if !k.IsApplicable(&s.Derived) {
			return nil, fmt.Errorf("%w: %s on spectrum %s", filter.ErrNotApplicable, filter.PhaseCorrection, s.ID)
		}
		o, err := filter.AutoPhase(&s.Derived)
		if err != nil {
			return nil, err
		}
		return p.engine.Append(s, filter.PhaseCorrection, o)
	})
}

// SnapshotTo pauses a spectrum's chain at a record.
func (p *Pipeline) SnapshotTo(ctx context.Context, id, filterID string, mode chain.SnapshotMode) (View, error) {
	return p.mutate(ctx, "SnapshotTo", id, func(s *chain.Spectrum) (*chain.Spectrum, error) {
		return snapshot.SnapshotTo(p.engine, s, filterID, mode)
	})
}

// Reapply recomputes derived data from the raw data. Concurrent calls for
// the same spectrum share one replay.
func (p *Pipeline) Reapply(ctx context.Context, id string) (View, error) {
	v, err, _ := p.reapply.Do(id, func() (any, error) {
		var v View
		err := p.run(ctx, "Reapply", id, func(context.Context) error {
			e, err := p.entry(id)
			if err != nil {
				return err
			}
			e.mu.Lock()
			defer e.mu.Unlock()

			next, err := p.engine.Materialize(e.spec)
			if err != nil {
				return err
			}
			e.spec = next
			v = newView(next)
			return nil
		})
		return v, err
	})
	if err != nil {
		return View{}, err
	}
	return v.(View), nil
}

// Verify checks that the derived data of a spectrum equals a fresh replay.
func (p *Pipeline) Verify(ctx context.Context, id string) error {
	return p.run(ctx, "Verify", id, func(context.Context) error {
		e, err := p.entry(id)
		if err != nil {
			return err
		}
		return p.engine.Verify(e.current())
	})
}
