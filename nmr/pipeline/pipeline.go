package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"github.com/cwbudde/algo-nmr/nmr/chain"
	"github.com/cwbudde/algo-nmr/nmr/datum"
	"github.com/cwbudde/algo-nmr/nmr/domain"
	"github.com/cwbudde/algo-nmr/nmr/filter"
	"github.com/cwbudde/algo-nmr/nmr/persist"
	"github.com/cwbudde/algo-nmr/nmr/snapshot"
)

// View is a finished, deep-copied picture of one spectrum.
type View struct {
	ID       string
	Group    string
	Data     datum.State
	Records  []chain.Record
	Domain   domain.Domain
	Mode     domain.Mode
	Version  uint64
	Snapshot *chain.SnapshotPointer
}

func newView(s *chain.Spectrum) View {
	v := View{
		ID:      s.ID,
		Group:   s.Group,
		Data:    s.Derived.Clone(),
		Records: slices.Clone(s.Records),
		Domain:  s.Domain,
		Mode:    s.Mode,
		Version: s.Version,
	}
	if s.Snapshot != nil {
		p := *s.Snapshot
		v.Snapshot = &p
	}
	return v
}

// entry guards one spectrum. Installed spectra are never modified; a
// mutation swaps in a new value.
type entry struct {
	mu   sync.Mutex
	spec *chain.Spectrum
	// tool is set while a live preview session targets this spectrum.
	tool *snapshot.Session
}

func (e *entry) current() *chain.Spectrum {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.spec
}

// Pipeline owns spectra and serializes mutations per spectrum.
type Pipeline struct {
	engine      *chain.Engine
	logger      *slog.Logger
	tracer      trace.Tracer
	metrics     *metrics
	concurrency int

	mu      sync.RWMutex
	entries map[string]*entry
	order   []string

	// toolMu is taken before any entry lock.
	toolMu  sync.Mutex
	session *snapshot.Session

	reapply singleflight.Group
}

// New creates a pipeline resolving kinds in reg.
func New(reg *filter.Registry, opts ...Option) (*Pipeline, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	m := newMetrics(cfg.registerer)
	engine, err := chain.NewEngine(reg, chain.WithCacheSize(cfg.cacheSize), chain.WithObserver(m))
	if err != nil {
		return nil, err
	}

	return &Pipeline{
		engine:      engine,
		logger:      cfg.logger,
		tracer:      cfg.tracer,
		metrics:     m,
		concurrency: cfg.concurrency,
		entries:     make(map[string]*entry),
	}, nil
}

// Engine returns the replay engine.
func (p *Pipeline) Engine() *chain.Engine { return p.engine }

// Add takes ownership of s.
func (p *Pipeline) Add(s *chain.Spectrum) error {
	if s == nil || s.ID == "" {
		return fmt.Errorf("%w: spectrum without id", ErrMissingActiveSpectrum)
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, ok := p.entries[s.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateSpectrum, s.ID)
	}
	p.entries[s.ID] = &entry{spec: s}
	p.order = append(p.order, s.ID)
	return nil
}

// AddDocument replays a persisted document and adds the result.
func (p *Pipeline) AddDocument(ctx context.Context, doc persist.Document) (View, error) {
	var v View
	err := p.run(ctx, "AddDocument", doc.ID, func(context.Context) error {
		s, err := doc.Spectrum(p.engine)
		if err != nil {
			return err
		}
		if err := p.Add(s); err != nil {
			return err
		}
		v = newView(s)
		return nil
	})
	return v, err
}

// Remove drops a spectrum. It fails while a tool targets it.
func (p *Pipeline) Remove(id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	e, ok := p.entries[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMissingActiveSpectrum, id)
	}
	e.mu.Lock()
	busy := e.tool != nil
	e.mu.Unlock()
	if busy {
		return fmt.Errorf("%w: tool open on %s", chain.ErrInvalidChainState, id)
	}
	delete(p.entries, id)
	p.order = slices.DeleteFunc(p.order, func(s string) bool { return s == id })
	return nil
}

// Document returns the persisted form of a spectrum.
func (p *Pipeline) Document(id string) (persist.Document, error) {
	e, err := p.entry(id)
	if err != nil {
		return persist.Document{}, err
	}
	return persist.FromSpectrum(e.current())
}

func (p *Pipeline) entry(id string) (*entry, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	e, ok := p.entries[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingActiveSpectrum, id)
	}
	return e, nil
}

// all returns every entry in insertion order. Entry locks are never held
// while p.mu is acquired.
func (p *Pipeline) all() []*entry {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]*entry, 0, len(p.order))
	for _, id := range p.order {
		out = append(out, p.entries[id])
	}
	return out
}

// group returns the ids of a group in insertion order.
func (p *Pipeline) group(name string) []string {
	var ids []string
	for _, e := range p.all() {
		if s := e.current(); s.Group == name {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// run wraps a command in a span, a metrics sample and a log line.
func (p *Pipeline) run(ctx context.Context, command, target string, fn func(context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "pipeline."+command,
		trace.WithAttributes(attribute.String("nmr.target", target)))
	defer span.End()

	start := time.Now()
	err := ctx.Err()
	if err == nil {
		err = fn(ctx)
	}
	d := time.Since(start)
	p.metrics.command(command, d, err)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		level := slog.LevelDebug
		var ge *GroupError
		if errors.Is(err, filter.ErrKernelFailure) || errors.As(err, &ge) {
			level = slog.LevelWarn
		}
		p.logger.Log(ctx, level, "command failed",
			slog.String("command", command),
			slog.String("target", target),
			slog.Duration("duration", d),
			slog.String("error", err.Error()))
		return err
	}
	p.logger.Debug("command done",
		slog.String("command", command),
		slog.String("target", target),
		slog.Duration("duration", d))
	return nil
}

// mutate swaps the spectrum id for the result of fn under its lock. Chain
// edits are refused while a tool targets the spectrum.
func (p *Pipeline) mutate(ctx context.Context, command, id string, fn func(*chain.Spectrum) (*chain.Spectrum, error)) (View, error) {
	var v View
	err := p.run(ctx, command, id, func(context.Context) error {
		e, err := p.entry(id)
		if err != nil {
			return err
		}
		e.mu.Lock()
		defer e.mu.Unlock()

		if e.tool != nil {
			return fmt.Errorf("%w: %s tool open on %s", chain.ErrInvalidChainState, e.tool.Tool(), id)
		}
		next, err := fn(e.spec)
		if err != nil {
			return err
		}
		e.spec = next
		v = newView(next)
		return nil
	})
	return v, err
}

// View returns a copy of the current state of a spectrum.
func (p *Pipeline) View(id string) (View, error) {
	e, err := p.entry(id)
	if err != nil {
		return View{}, err
	}
	return newView(e.current()), nil
}

// Spectra returns views of every spectrum in group, in insertion order. An
// empty group name selects all spectra.
func (p *Pipeline) Spectra(group string) []View {
	var out []View
	for _, e := range p.all() {
		s := e.current()
		if group == "" || s.Group == group {
			out = append(out, newView(s))
		}
	}
	return out
}
