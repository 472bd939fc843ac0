package pipeline

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cwbudde/algo-nmr/nmr/chain"
	"github.com/cwbudde/algo-nmr/nmr/filter"
)

// DeleteFilterByKind removes every record of a kind from all spectra of a
// group.
func (p *Pipeline) DeleteFilterByKind(ctx context.Context, group string, name filter.Name) error {
	return p.run(ctx, "DeleteFilterByKind", group, func(ctx context.Context) error {
		return p.eachInGroup(ctx, group, func(s *chain.Spectrum) (*chain.Spectrum, error) {
			return p.engine.DeleteByKind(s, name)
		})
	})
}

// ApplyGroup appends requests, in order, to every spectrum of a group. Each
// spectrum takes all requests or none. equallySpaced requests receive the
// exclusion zones of every spectrum in the group so the resampled grids
// stay aligned.
func (p *Pipeline) ApplyGroup(ctx context.Context, group string, reqs []chain.Request) error {
	return p.run(ctx, "ApplyGroup", group, func(ctx context.Context) error {
		reqs, err := p.broadcastExclusions(group, reqs)
		if err != nil {
			return err
		}
		return p.eachInGroup(ctx, group, func(s *chain.Spectrum) (*chain.Spectrum, error) {
			for _, r := range reqs {
				next, err := p.engine.Append(s, r.Name, r.Options)
				if err != nil {
					return nil, err
				}
				s = next
			}
			return s, nil
		})
	})
}

// AddExclusionZoneToGroup adds the zone [from, to] to every spectrum of a
// group. Each spectrum gets its own zone id.
func (p *Pipeline) AddExclusionZoneToGroup(ctx context.Context, group string, from, to float64) error {
	return p.run(ctx, "AddExclusionZoneToGroup", group, func(ctx context.Context) error {
		return p.eachInGroup(ctx, group, func(s *chain.Spectrum) (*chain.Spectrum, error) {
			zone := filter.Zone{From: from, To: to}
			return p.engine.Append(s, filter.ExclusionZones, filter.ExclusionZonesOptions{Zones: []filter.Zone{zone}})
		})
	})
}

// DeleteExclusionZoneByRange removes the exclusion zones spanning
// [from, to] from every spectrum of a group. Spectra without such a zone
// are left unchanged.
func (p *Pipeline) DeleteExclusionZoneByRange(ctx context.Context, group string, from, to float64) error {
	return p.run(ctx, "DeleteExclusionZoneByRange", group, func(ctx context.Context) error {
		return p.eachInGroup(ctx, group, func(s *chain.Spectrum) (*chain.Spectrum, error) {
			return p.engine.RemoveZonesInRange(s, from, to)
		})
	})
}

// broadcastExclusions adds the group's exclusion zones to equallySpaced
// requests.
func (p *Pipeline) broadcastExclusions(group string, reqs []chain.Request) ([]chain.Request, error) {
	if !slices.ContainsFunc(reqs, func(r chain.Request) bool { return r.Name == filter.EquallySpaced }) {
		return reqs, nil
	}

	var zones []filter.Zone
	for _, v := range p.Spectra(group) {
		for _, r := range v.Records {
			if r.Name != filter.ExclusionZones || !r.IsEnabled {
				continue
			}
			if o, ok := r.Options.(filter.ExclusionZonesOptions); ok {
				zones = append(zones, o.Zones...)
			}
		}
	}
	if len(zones) == 0 {
		return reqs, nil
	}

	k, err := p.engine.Registry().Lookup(filter.EquallySpaced)
	if err != nil {
		return nil, err
	}
	out := slices.Clone(reqs)
	for i, r := range out {
		if r.Name != filter.EquallySpaced {
			continue
		}
		var o filter.EquallySpacedOptions
		switch v := r.Options.(type) {
		case filter.EquallySpacedOptions:
			o = v
		case *filter.EquallySpacedOptions:
			if v != nil {
				o = *v
			}
		case nil:
			o, _ = k.Defaults().(filter.EquallySpacedOptions)
		default:
			return nil, fmt.Errorf("%w: %s got %T", filter.ErrOptionsMismatch, r.Name, r.Options)
		}
		o.Exclusions = append(slices.Clone(o.Exclusions), zones...)
		out[i].Options = o
	}
	return out, nil
}

// eachInGroup runs fn on every spectrum of group with bounded concurrency.
// Failures are collected into a GroupError; successful spectra keep their
// new state.
func (p *Pipeline) eachInGroup(ctx context.Context, group string, fn func(*chain.Spectrum) (*chain.Spectrum, error)) error {
	ids := p.group(group)
	if len(ids) == 0 {
		return fmt.Errorf("%w: group %s is empty", ErrMissingActiveSpectrum, group)
	}

	var (
		mu       sync.Mutex
		failures = make(map[string]error)
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.concurrency)
	for _, id := range ids {
		g.Go(func() error {
			if _, err := p.mutate(gctx, "group", id, fn); err != nil {
				mu.Lock()
				failures[id] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failures) > 0 {
		return &GroupError{Group: group, Failures: failures}
	}
	return nil
}
