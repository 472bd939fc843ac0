package chain

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/cwbudde/algo-nmr/nmr/datum"
	"github.com/cwbudde/algo-nmr/nmr/filter"
)

// DefaultCacheSize is the number of replayed prefix states kept by default.
const DefaultCacheSize = 64

// Observer receives replay events. Implementations must be safe for
// concurrent use.
type Observer interface {
	// Replayed reports one replay: applied records were run, reused
	// records came from the prefix cache.
	Replayed(applied, reused int, d time.Duration)
	KernelFailed(kind filter.Name)
}

type engineConfig struct {
	cacheSize int
	observer  Observer
}

// EngineOption configures an Engine.
type EngineOption func(*engineConfig)

// WithCacheSize sets the prefix cache capacity. Zero disables caching.
func WithCacheSize(n int) EngineOption {
	return func(c *engineConfig) {
		if n >= 0 {
			c.cacheSize = n
		}
	}
}

// WithObserver installs a replay observer.
func WithObserver(o Observer) EngineOption {
	return func(c *engineConfig) { c.observer = o }
}

// Engine replays filter chains and implements the chain operations. It is
// safe for concurrent use on different spectra.
type Engine struct {
	reg      *filter.Registry
	cache    *lru.Cache[uint64, datum.State]
	observer Observer
}

// NewEngine creates an engine over reg.
func NewEngine(reg *filter.Registry, opts ...EngineOption) (*Engine, error) {
	if reg == nil {
		return nil, fmt.Errorf("chain: nil registry")
	}
	cfg := engineConfig{cacheSize: DefaultCacheSize}
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine{reg: reg, observer: cfg.observer}
	if cfg.cacheSize > 0 {
		c, err := lru.New[uint64, datum.State](cfg.cacheSize)
		if err != nil {
			return nil, fmt.Errorf("chain: prefix cache: %w", err)
		}
		e.cache = c
	}
	return e, nil
}

// Registry returns the registry the engine resolves kinds with.
func (e *Engine) Registry() *filter.Registry { return e.reg }

// prefixKeys returns one digest per enabled record of recs, each covering
// the raw data identity and every enabled record up to and including it.
// keys[0] covers the raw data alone.
func prefixKeys(s *Spectrum, recs []Record) ([]uint64, []int, error) {
	d := xxhash.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], s.rawGen)
	_, _ = d.Write(buf[:])
	_, _ = d.WriteString(s.ID)

	keys := []uint64{d.Sum64()}
	var idx []int
	for i, r := range recs {
		if !r.IsEnabled {
			continue
		}
		payload, err := json.Marshal(r.Options)
		if err != nil {
			return nil, nil, fmt.Errorf("chain: encode options of %s: %w", r.ID, err)
		}
		_, _ = d.WriteString("\x00")
		_, _ = d.WriteString(string(r.Name))
		_, _ = d.WriteString("\x00")
		_, _ = d.Write(payload)
		keys = append(keys, d.Sum64())
		idx = append(idx, i)
	}
	return keys, idx, nil
}

// Replay recomputes the state produced by the enabled records of
// s.Records[:upto] from the raw data. It resumes from the longest cached
// prefix when the cache is enabled.
func (e *Engine) Replay(s *Spectrum, upto int) (datum.State, error) {
	return e.replay(s, upto, true)
}

func (e *Engine) replay(s *Spectrum, upto int, useCache bool) (datum.State, error) {
	upto = max(0, min(upto, len(s.Records)))
	recs := s.Records[:upto]

	start := time.Now()
	keys, idx, err := prefixKeys(s, recs)
	if err != nil {
		return datum.State{}, err
	}

	// Find the longest cached prefix.
	from := 0
	var st datum.State
	found := false
	if useCache && e.cache != nil {
		for j := len(keys) - 1; j >= 1; j-- {
			if cached, ok := e.cache.Get(keys[j]); ok {
				st = cached.Clone()
				from = j
				found = true
				break
			}
		}
	}
	if !found {
		st = s.raw.Clone()
	}

	for j := from; j < len(idx); j++ {
		r := recs[idx[j]]
		if err := e.applyRecord(&st, r); err != nil {
			return datum.State{}, err
		}
		e.remember(keys[j+1], st)
	}

	if e.observer != nil {
		e.observer.Replayed(len(idx)-from, from, time.Since(start))
	}
	return st, nil
}

// applyRecord runs one record on st and rejects non-finite output.
func (e *Engine) applyRecord(st *datum.State, r Record) error {
	k, err := e.reg.Lookup(r.Name)
	if err != nil {
		return e.kernelError(r, err)
	}
	if err := k.Apply(st, r.Options); err != nil {
		return e.kernelError(r, err)
	}
	if nf, bad := st.FindNonFinite(); bad {
		return e.kernelError(r, fmt.Errorf("%w: non-finite value in %s[%d]", filter.ErrKernelFailure, nf.Channel, nf.Index))
	}
	return nil
}

func (e *Engine) kernelError(r Record, err error) error {
	if e.observer != nil {
		e.observer.KernelFailed(r.Name)
	}
	return &KernelError{RecordID: r.ID, Kind: r.Name, Err: err}
}

// remember stores a copy of st under key.
func (e *Engine) remember(key uint64, st datum.State) {
	if e.cache == nil {
		return
	}
	if !e.cache.Contains(key) {
		e.cache.Add(key, st.Clone())
	}
}

// checkpoint stores the state reached after recs.
func (e *Engine) checkpoint(s *Spectrum, recs []Record, st datum.State) {
	if e.cache == nil {
		return
	}
	keys, _, err := prefixKeys(s, recs)
	if err != nil {
		return
	}
	if len(keys) > 1 {
		e.remember(keys[len(keys)-1], st)
	}
}

// Purge drops every cached state.
func (e *Engine) Purge() {
	if e.cache != nil {
		e.cache.Purge()
	}
}
