package chain

import (
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/algo-nmr/internal/testutil"
	"github.com/cwbudde/algo-nmr/nmr/datum"
	"github.com/cwbudde/algo-nmr/nmr/filter"
)

func newEngine(t *testing.T, opts ...EngineOption) *Engine {
	t.Helper()
	e, err := NewEngine(filter.DefaultRegistry(filter.WithProtected(filter.DigitalFilter)), opts...)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

// rampSpectrum has x = re = [0, 1, ..., n-1].
func rampSpectrum(t *testing.T, n int) *Spectrum {
	t.Helper()
	raw, err := datum.New1D(datum.Info{}, testutil.Sequence(0, n), testutil.Sequence(0, n), nil)
	if err != nil {
		t.Fatalf("New1D: %v", err)
	}
	s, err := NewSpectrum("ramp", "1H", raw)
	if err != nil {
		t.Fatalf("NewSpectrum: %v", err)
	}
	return s
}

func fidSpectrum(t *testing.T, n int) *Spectrum {
	t.Helper()
	x, re, im := testutil.FID(n, 0.001,
		testutil.Resonance{FreqHz: 120, Amplitude: 1, DecayHz: 4, PhaseRad: 0.3},
		testutil.Resonance{FreqHz: -210, Amplitude: 0.6, DecayHz: 6},
	)
	raw, err := datum.New1D(datum.Info{IsFid: true, SpectrometerFrequency: 400, Offset: 4.7, GroupDelay: 3.5}, x, re, im)
	if err != nil {
		t.Fatalf("New1D: %v", err)
	}
	s, err := NewSpectrum("fid", "1H", raw)
	if err != nil {
		t.Fatalf("NewSpectrum: %v", err)
	}
	return s
}

func mustAppend(t *testing.T, e *Engine, s *Spectrum, name filter.Name, o filter.Options) *Spectrum {
	t.Helper()
	next, err := e.Append(s, name, o)
	if err != nil {
		t.Fatalf("Append(%s): %v", name, err)
	}
	return next
}

// processed runs a typical FID workflow.
func processed(t *testing.T, e *Engine) *Spectrum {
	t.Helper()
	s := fidSpectrum(t, 200)
	s = mustAppend(t, e, s, filter.DigitalFilter, filter.DigitalFilterOptions{})
	s = mustAppend(t, e, s, filter.Apodization, filter.ApodizationOptions{LineBroadening: 1})
	s = mustAppend(t, e, s, filter.ZeroFilling, filter.ZeroFillingOptions{Size: 512})
	s = mustAppend(t, e, s, filter.FFT, filter.FFTOptions{})
	s = mustAppend(t, e, s, filter.PhaseCorrection, filter.PhaseCorrectionOptions{Ph0: 12, Ph1: -30})
	s = mustAppend(t, e, s, filter.ExclusionZones, filter.ExclusionZonesOptions{Zones: []filter.Zone{{From: 4.6, To: 4.8}}})
	return s
}

type countingObserver struct {
	mu       sync.Mutex
	applied  int
	reused   int
	failures map[filter.Name]int
}

func (o *countingObserver) Replayed(applied, reused int, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.applied += applied
	o.reused += reused
}

func (o *countingObserver) KernelFailed(kind filter.Name) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.failures == nil {
		o.failures = map[filter.Name]int{}
	}
	o.failures[kind]++
}
