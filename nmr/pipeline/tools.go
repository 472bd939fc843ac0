package pipeline

import (
	"context"
	"fmt"

	"github.com/cwbudde/algo-nmr/nmr/chain"
	"github.com/cwbudde/algo-nmr/nmr/datum"
	"github.com/cwbudde/algo-nmr/nmr/domain"
	"github.com/cwbudde/algo-nmr/nmr/filter"
	"github.com/cwbudde/algo-nmr/nmr/snapshot"
)

// OpenTool opens a live preview tool on a spectrum. Only one tool can be
// open at a time. The temporary buffer mirrors every spectrum of the
// pipeline.
func (p *Pipeline) OpenTool(ctx context.Context, id string, tool filter.Name) (View, error) {
	var v View
	err := p.run(ctx, "OpenTool", id, func(context.Context) error {
		p.toolMu.Lock()
		defer p.toolMu.Unlock()

		if p.session != nil {
			return fmt.Errorf("%w: %s on %s", ErrToolOpen, p.session.Tool(), p.session.Target())
		}
		target, err := p.entry(id)
		if err != nil {
			return err
		}
		others := p.all()

		target.mu.Lock()
		defer target.mu.Unlock()

		spectra := []*chain.Spectrum{target.spec}
		for _, e := range others {
			if e != target {
				spectra = append(spectra, e.current())
			}
		}

		sess, rolled, err := snapshot.Open(p.engine, spectra, id, tool)
		if err != nil {
			return err
		}
		target.spec = rolled
		target.tool = sess
		p.session = sess
		v = newView(rolled)
		return nil
	})
	return v, err
}

// Preview is the temporary state of one spectrum while a tool is open.
type Preview struct {
	ID     string
	Data   datum.State
	Domain domain.Domain
	Mode   domain.Mode
}

// PreviewTool recomputes the open tool's preview with o and returns the
// target's preview.
func (p *Pipeline) PreviewTool(ctx context.Context, o filter.Options) (Preview, error) {
	var pv Preview
	err := p.run(ctx, "PreviewTool", "", func(context.Context) error {
		p.toolMu.Lock()
		defer p.toolMu.Unlock()

		if p.session == nil {
			return ErrNoTool
		}
		if err := p.session.Preview(o); err != nil {
			return err
		}
		var err error
		pv, err = p.previewOf(p.session.Target())
		return err
	})
	return pv, err
}

// PreviewView returns the temporary state of a spectrum while a tool is
// open.
func (p *Pipeline) PreviewView(id string) (Preview, error) {
	p.toolMu.Lock()
	defer p.toolMu.Unlock()

	if p.session == nil {
		return Preview{}, ErrNoTool
	}
	return p.previewOf(id)
}

// previewOf reads the temporary state of id and recomputes its domain from
// the spectrum's current one. On the tool target the axes preserved by the
// tool's kind stay frozen. The caller holds toolMu.
func (p *Pipeline) previewOf(id string) (Preview, error) {
	st, ok := p.session.PreviewOf(id)
	if !ok {
		return Preview{}, fmt.Errorf("%w: %s", ErrMissingActiveSpectrum, id)
	}
	e, err := p.entry(id)
	if err != nil {
		return Preview{}, err
	}

	freeze := domain.AxisNone
	if id == p.session.Target() {
		if k, err := p.engine.Registry().Lookup(p.session.Tool()); err == nil {
			freeze = chain.FreezeFor(k)
		}
	}
	return Preview{
		ID:     id,
		Data:   st,
		Domain: domain.Compute(e.current().Domain, &st, freeze),
		Mode:   domain.ModeOf(&st),
	}, nil
}

// CommitSnapshot finishes the spectrum's snapshot. With an open tool the
// previewed options are written into the chain; otherwise the snapshot
// pointer is released and the full chain becomes active again.
func (p *Pipeline) CommitSnapshot(ctx context.Context, id string) (View, error) {
	return p.finish(ctx, "CommitSnapshot", id, (*snapshot.Session).Commit)
}

// CancelSnapshot discards the spectrum's preview, if any, and restores the
// full unchanged chain.
func (p *Pipeline) CancelSnapshot(ctx context.Context, id string) (View, error) {
	return p.finish(ctx, "CancelSnapshot", id, (*snapshot.Session).Cancel)
}

func (p *Pipeline) finish(ctx context.Context, command, id string,
	withTool func(*snapshot.Session, *chain.Spectrum) (*chain.Spectrum, error),
) (View, error) {
	var v View
	err := p.run(ctx, command, id, func(context.Context) error {
		p.toolMu.Lock()
		defer p.toolMu.Unlock()

		e, err := p.entry(id)
		if err != nil {
			return err
		}
		e.mu.Lock()
		defer e.mu.Unlock()

		var next *chain.Spectrum
		if e.tool != nil {
			next, err = withTool(e.tool, e.spec)
		} else {
			next, err = snapshot.Release(p.engine, e.spec)
		}
		if err != nil {
			return err
		}
		if e.tool != nil {
			e.tool = nil
			p.session = nil
		}
		e.spec = next
		v = newView(next)
		return nil
	})
	return v, err
}
