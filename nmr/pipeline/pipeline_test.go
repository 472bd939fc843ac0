package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cwbudde/algo-nmr/internal/testutil"
	"github.com/cwbudde/algo-nmr/nmr/chain"
	"github.com/cwbudde/algo-nmr/nmr/datum"
	"github.com/cwbudde/algo-nmr/nmr/domain"
	"github.com/cwbudde/algo-nmr/nmr/filter"
)

func newPipeline(t *testing.T, opts ...Option) *Pipeline {
	t.Helper()
	p, err := New(filter.DefaultRegistry(), opts...)
	require.NoError(t, err)
	return p
}

func addRamp(t *testing.T, p *Pipeline, id, group string, n int) {
	t.Helper()
	raw, err := datum.New1D(datum.Info{}, testutil.Sequence(0, n), testutil.Sequence(0, n), nil)
	require.NoError(t, err)
	s, err := chain.NewSpectrum(id, group, raw)
	require.NoError(t, err)
	require.NoError(t, p.Add(s))
}

func addFID(t *testing.T, p *Pipeline, id string, phase float64) {
	t.Helper()
	x, re, im := testutil.FID(512, 0.0005,
		testutil.Resonance{FreqHz: 200, Amplitude: 1, DecayHz: 6, PhaseRad: phase},
		testutil.Resonance{FreqHz: -350, Amplitude: 0.7, DecayHz: 6, PhaseRad: phase},
	)
	raw, err := datum.New1D(datum.Info{IsFid: true, SpectrometerFrequency: 400}, x, re, im)
	require.NoError(t, err)
	s, err := chain.NewSpectrum(id, "1H", raw)
	require.NoError(t, err)
	require.NoError(t, p.Add(s))
}

func TestApplyFilterScenario(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPipeline(t)
	addRamp(t, p, "s", "1H", 8)

	_, err := p.ApplyFilter(ctx, "s", filter.ShiftX, filter.ShiftXOptions{Shift: 2})
	require.NoError(t, err)
	v, err := p.ApplyFilter(ctx, "s", filter.ShiftX, filter.ShiftXOptions{Shift: 1})
	require.NoError(t, err)
	require.Len(t, v.Records, 1)
	assert.Equal(t, testutil.Sequence(3, 8), v.Data.Data.X)
	assert.Equal(t, filter.ShiftXOptions{Shift: 3}, v.Records[0].Options)

	v, err = p.EnableFilter(ctx, "s", v.Records[0].ID, false)
	require.NoError(t, err)
	assert.Equal(t, testutil.Sequence(0, 8), v.Data.Data.X)

	v.Data.Data.X[0] = 99
	again, err := p.View("s")
	require.NoError(t, err)
	assert.Equal(t, 0.0, again.Data.Data.X[0], "views must be copies")

	v, err = p.DeleteFilter(ctx, "s", v.Records[0].ID)
	require.NoError(t, err)
	assert.Empty(t, v.Records)
	require.NoError(t, p.Verify(ctx, "s"))
}

func TestMissingSpectrum(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPipeline(t)

	_, err := p.ApplyFilter(ctx, "nope", filter.ShiftX, nil)
	require.ErrorIs(t, err, ErrMissingActiveSpectrum)
	_, err = p.View("nope")
	require.ErrorIs(t, err, ErrMissingActiveSpectrum)
	require.ErrorIs(t, p.DeleteFilterByKind(ctx, "empty", filter.ShiftX), ErrMissingActiveSpectrum)
	require.ErrorIs(t, p.Remove("nope"), ErrMissingActiveSpectrum)
}

func TestDuplicateSpectrum(t *testing.T) {
	t.Parallel()

	p := newPipeline(t)
	addRamp(t, p, "s", "1H", 4)
	raw, err := datum.New1D(datum.Info{}, []float64{0}, []float64{0}, nil)
	require.NoError(t, err)
	s, err := chain.NewSpectrum("s", "1H", raw)
	require.NoError(t, err)
	require.ErrorIs(t, p.Add(s), ErrDuplicateSpectrum)
}

func TestKernelFailureMetricsAndLog(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	reg := prometheus.NewRegistry()
	var logs bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	p := newPipeline(t, WithRegisterer(reg), WithLogger(logger))

	raw, err := datum.New1D(datum.Info{}, []float64{0, 1, 2}, []float64{5, 5, 5}, nil)
	require.NoError(t, err)
	s, err := chain.NewSpectrum("flat", "1H", raw)
	require.NoError(t, err)
	require.NoError(t, p.Add(s))

	_, err = p.ApplyFilter(ctx, "flat", filter.StandardDeviation, nil)
	require.ErrorIs(t, err, filter.ErrKernelFailure)
	var ke *chain.KernelError
	require.ErrorAs(t, err, &ke)

	v, err := p.View("flat")
	require.NoError(t, err)
	assert.Empty(t, v.Records)
	assert.Equal(t, []float64{5, 5, 5}, v.Data.Data.Re)

	assert.Equal(t, 1.0, promtest.ToFloat64(p.metrics.kernelFailures.WithLabelValues(string(filter.StandardDeviation))))
	assert.Equal(t, 1.0, promtest.ToFloat64(p.metrics.commands.WithLabelValues("ApplyFilter", "error")))
	assert.Contains(t, logs.String(), `"level":"WARN"`)

	_, err = p.ApplyFilter(ctx, "flat", filter.CenterMean, nil)
	require.NoError(t, err)
	assert.Equal(t, 1.0, promtest.ToFloat64(p.metrics.commands.WithLabelValues("ApplyFilter", "ok")))

	n, err := promtest.GatherAndCount(reg, "nmr_pipeline_commands_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestToolLifecycle(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPipeline(t)
	addFID(t, p, "a", 0.3)
	addFID(t, p, "b", 0.1)

	for _, id := range []string{"a", "b"} {
		_, err := p.ApplyFilter(ctx, id, filter.FFT, nil)
		require.NoError(t, err)
	}
	committed, err := p.ApplyFilter(ctx, "a", filter.PhaseCorrection, filter.PhaseCorrectionOptions{Ph0: 10})
	require.NoError(t, err)
	other, err := p.View("b")
	require.NoError(t, err)

	_, err = p.PreviewTool(ctx, filter.PhaseCorrectionOptions{})
	require.ErrorIs(t, err, ErrNoTool)

	rolled, err := p.OpenTool(ctx, "a", filter.PhaseCorrection)
	require.NoError(t, err)
	require.NotNil(t, rolled.Snapshot)
	assert.Equal(t, chain.Rollback, rolled.Snapshot.Mode)

	_, err = p.OpenTool(ctx, "b", filter.PhaseCorrection)
	require.ErrorIs(t, err, ErrToolOpen)
	_, err = p.ApplyFilter(ctx, "a", filter.CenterMean, nil)
	require.ErrorIs(t, err, chain.ErrInvalidChainState)
	require.Error(t, p.Remove("a"))

	preview, err := p.PreviewTool(ctx, filter.PhaseCorrectionOptions{Ph0: 55})
	require.NoError(t, err)
	assert.False(t, preview.Data.Equal(&committed.Data))

	mirror, err := p.PreviewView("b")
	require.NoError(t, err)
	assert.True(t, mirror.Data.Equal(&other.Data))
	assert.Equal(t, other.Domain.X, mirror.Domain.X)

	v, err := p.View("a")
	require.NoError(t, err)
	assert.Equal(t, filter.PhaseCorrectionOptions{Ph0: 10}, v.Records[1].Options)

	restored, err := p.CancelSnapshot(ctx, "a")
	require.NoError(t, err)
	assert.Nil(t, restored.Snapshot)
	assert.True(t, restored.Data.Equal(&committed.Data))
	assert.Equal(t, committed.Records, restored.Records)

	_, err = p.OpenTool(ctx, "a", filter.PhaseCorrection)
	require.NoError(t, err)
	_, err = p.PreviewTool(ctx, filter.PhaseCorrectionOptions{Ph0: 25})
	require.NoError(t, err)
	final, err := p.CommitSnapshot(ctx, "a")
	require.NoError(t, err)
	require.Len(t, final.Records, 2)
	assert.Equal(t, committed.Records[1].ID, final.Records[1].ID)
	assert.Equal(t, filter.PhaseCorrectionOptions{Ph0: 25}, final.Records[1].Options)
	require.NoError(t, p.Verify(ctx, "a"))

	_, err = p.PreviewView("a")
	require.ErrorIs(t, err, ErrNoTool)
}

func TestToolOnActiveSnapshot(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPipeline(t)
	addFID(t, p, "s", 0.4)

	_, err := p.ApplyFilter(ctx, "s", filter.Apodization, filter.ApodizationOptions{LineBroadening: 1})
	require.NoError(t, err)
	_, err = p.ApplyFilter(ctx, "s", filter.FFT, nil)
	require.NoError(t, err)
	full, err := p.ApplyFilter(ctx, "s", filter.CenterMean, nil)
	require.NoError(t, err)
	fftID := full.Records[1].ID

	snap, err := p.SnapshotTo(ctx, "s", fftID, chain.Inclusive)
	require.NoError(t, err)
	opened, err := p.OpenTool(ctx, "s", filter.PhaseCorrection)
	require.NoError(t, err)
	require.NotNil(t, opened.Snapshot)
	assert.Equal(t, fftID, opened.Snapshot.FilterID)

	preview, err := p.PreviewTool(ctx, filter.PhaseCorrectionOptions{Ph0: 40})
	require.NoError(t, err)
	assert.False(t, preview.Data.Equal(&snap.Data))

	restored, err := p.CancelSnapshot(ctx, "s")
	require.NoError(t, err)
	assert.Nil(t, restored.Snapshot)
	assert.True(t, restored.Data.Equal(&full.Data))
	assert.Equal(t, full.Records, restored.Records)

	_, err = p.SnapshotTo(ctx, "s", fftID, chain.Inclusive)
	require.NoError(t, err)
	_, err = p.OpenTool(ctx, "s", filter.PhaseCorrection)
	require.NoError(t, err)
	_, err = p.PreviewTool(ctx, filter.PhaseCorrectionOptions{Ph0: 40})
	require.NoError(t, err)
	committed, err := p.CommitSnapshot(ctx, "s")
	require.NoError(t, err)
	assert.Nil(t, committed.Snapshot)
	require.Len(t, committed.Records, 4)
	assert.Equal(t, filter.PhaseCorrection, committed.Records[3].Name)
	require.NoError(t, p.Verify(ctx, "s"))
}

func TestZeroFillingPreviewDomain(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPipeline(t)
	addFID(t, p, "s", 0.2)
	before, err := p.View("s")
	require.NoError(t, err)

	_, err = p.OpenTool(ctx, "s", filter.ZeroFilling)
	require.NoError(t, err)
	preview, err := p.PreviewTool(ctx, filter.ZeroFillingOptions{Size: 2048})
	require.NoError(t, err)
	require.Len(t, preview.Data.Data.Re, 2048)
	assert.Greater(t, preview.Domain.X.Max, before.Domain.X.Max)
	assert.Equal(t, before.Domain.Y, preview.Domain.Y)
	assert.True(t, preview.Domain.Changed.Has(domain.AxisX))
	assert.False(t, preview.Domain.Changed.Has(domain.AxisY))

	_, err = p.CancelSnapshot(ctx, "s")
	require.NoError(t, err)
}

func TestSnapshotWithoutTool(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPipeline(t)
	addRamp(t, p, "s", "1H", 4)

	v, err := p.ApplyFilter(ctx, "s", filter.ShiftX, filter.ShiftXOptions{Shift: 1})
	require.NoError(t, err)
	v, err = p.ApplyFilter(ctx, "s", filter.CenterMean, nil)
	require.NoError(t, err)

	snap, err := p.SnapshotTo(ctx, "s", v.Records[0].ID, chain.Inclusive)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1, 2, 3}, snap.Data.Data.Re)
	assert.Equal(t, testutil.Sequence(1, 4), snap.Data.Data.X)

	_, err = p.DeleteFilter(ctx, "s", v.Records[1].ID)
	require.ErrorIs(t, err, chain.ErrInvalidChainState)

	back, err := p.CommitSnapshot(ctx, "s")
	require.NoError(t, err)
	assert.Nil(t, back.Snapshot)
	assert.Equal(t, v.Data.Data.Re, back.Data.Data.Re)

	_, err = p.SnapshotTo(ctx, "s", "missing", chain.Rollback)
	require.ErrorIs(t, err, chain.ErrInvalidChainState)
}

func TestGroupCommands(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPipeline(t, WithGroupConcurrency(2))
	addRamp(t, p, "h1", "1H", 10)
	addRamp(t, p, "h2", "1H", 10)
	addRamp(t, p, "c1", "13C", 10)

	_, err := p.AddExclusionZone(ctx, "h1", 2, 3)
	require.NoError(t, err)

	err = p.ApplyGroup(ctx, "1H", []chain.Request{
		{Name: filter.ShiftX, Options: filter.ShiftXOptions{Shift: 0.5}},
		{Name: filter.EquallySpaced, Options: filter.EquallySpacedOptions{From: 0, To: 9, NumberOfPoints: 10}},
	})
	require.NoError(t, err)

	h2, err := p.View("h2")
	require.NoError(t, err)
	require.Len(t, h2.Records, 2)
	es := h2.Records[1].Options.(filter.EquallySpacedOptions)
	require.Len(t, es.Exclusions, 1)
	assert.Equal(t, 2.0, es.Exclusions[0].From)
	assert.Equal(t, 0.0, h2.Data.Data.Re[2])
	assert.Equal(t, 0.0, h2.Data.Data.Re[3])

	c1, err := p.View("c1")
	require.NoError(t, err)
	assert.Empty(t, c1.Records)

	require.NoError(t, p.DeleteFilterByKind(ctx, "1H", filter.ShiftX))
	for _, v := range p.Spectra("1H") {
		for _, r := range v.Records {
			assert.NotEqual(t, filter.ShiftX, r.Name)
		}
	}
	assert.Len(t, p.Spectra(""), 3)
}

func TestGroupBestEffort(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPipeline(t)
	addRamp(t, p, "ok", "1H", 4)
	raw, err := datum.New1D(datum.Info{}, []float64{0, 1}, []float64{2, 2}, nil)
	require.NoError(t, err)
	flat, err := chain.NewSpectrum("flat", "1H", raw)
	require.NoError(t, err)
	require.NoError(t, p.Add(flat))

	err = p.ApplyGroup(ctx, "1H", []chain.Request{
		{Name: filter.ShiftX, Options: filter.ShiftXOptions{Shift: 1}},
		{Name: filter.StandardDeviation},
	})
	var ge *GroupError
	require.ErrorAs(t, err, &ge)
	require.Len(t, ge.Failures, 1)
	require.Contains(t, ge.Failures, "flat")
	require.ErrorIs(t, err, filter.ErrKernelFailure)

	okView, err := p.View("ok")
	require.NoError(t, err)
	assert.Len(t, okView.Records, 2)

	flatView, err := p.View("flat")
	require.NoError(t, err)
	assert.Empty(t, flatView.Records, "failing spectrum must keep its previous chain")
	assert.Equal(t, []float64{0, 1}, flatView.Data.Data.X)
}

func TestAutoPhaseCommand(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPipeline(t)
	addFID(t, p, "a", 0.6)

	_, err := p.ApplyAutoPhaseCorrection(ctx, "a")
	require.ErrorIs(t, err, filter.ErrNotApplicable)

	_, err = p.ApplyFilter(ctx, "a", filter.FFT, nil)
	require.NoError(t, err)
	v, err := p.ApplyAutoPhaseCorrection(ctx, "a")
	require.NoError(t, err)
	require.Len(t, v.Records, 2)
	assert.Equal(t, filter.PhaseCorrection, v.Records[1].Name)
}

func TestDeleteExclusionZone(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPipeline(t)
	addRamp(t, p, "s", "1H", 6)

	v, err := p.AddExclusionZone(ctx, "s", 1, 2)
	require.NoError(t, err)
	zone := v.Records[0].Options.(filter.ExclusionZonesOptions).Zones[0]
	assert.Equal(t, []float64{0, 0, 0, 3, 4, 5}, v.Data.Data.Re)

	v, err = p.DeleteExclusionZone(ctx, "s", zone.ID)
	require.NoError(t, err)
	assert.Empty(t, v.Records)
	assert.Equal(t, testutil.Sequence(0, 6), v.Data.Data.Re)
}

func TestGroupExclusionZones(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPipeline(t)
	addRamp(t, p, "h1", "1H", 6)
	addRamp(t, p, "h2", "1H", 6)
	addRamp(t, p, "c1", "13C", 6)

	_, err := p.AddExclusionZone(ctx, "h2", 4, 5)
	require.NoError(t, err)
	require.NoError(t, p.AddExclusionZoneToGroup(ctx, "1H", 1, 2))

	h1, err := p.View("h1")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 3, 4, 5}, h1.Data.Data.Re)
	h2, err := p.View("h2")
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 3, 0, 0}, h2.Data.Data.Re)
	c1, err := p.View("c1")
	require.NoError(t, err)
	assert.Empty(t, c1.Records)

	require.NoError(t, p.DeleteExclusionZoneByRange(ctx, "1H", 2, 1))

	h1, err = p.View("h1")
	require.NoError(t, err)
	assert.Empty(t, h1.Records)
	assert.Equal(t, testutil.Sequence(0, 6), h1.Data.Data.Re)
	h2, err = p.View("h2")
	require.NoError(t, err)
	require.Len(t, h2.Records, 1)
	assert.Equal(t, []float64{0, 1, 2, 3, 0, 0}, h2.Data.Data.Re)

	err = p.AddExclusionZoneToGroup(ctx, "19F", 1, 2)
	require.ErrorIs(t, err, ErrMissingActiveSpectrum)
}

func TestConcurrentCommands(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPipeline(t)
	addRamp(t, p, "s", "1H", 64)

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := p.ApplyFilter(ctx, "s", filter.ShiftX, filter.ShiftXOptions{Shift: float64(i)})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := p.Reapply(ctx, "s")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	v, err := p.View("s")
	require.NoError(t, err)
	require.Len(t, v.Records, 1)
	assert.Equal(t, filter.ShiftXOptions{Shift: 120}, v.Records[0].Options)
	require.NoError(t, p.Verify(ctx, "s"))
}

func TestDocumentRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	p := newPipeline(t)
	addRamp(t, p, "s", "1H", 5)
	_, err := p.ApplyFilter(ctx, "s", filter.ShiftX, filter.ShiftXOptions{Shift: 2})
	require.NoError(t, err)

	doc, err := p.Document("s")
	require.NoError(t, err)
	doc.ID = "copy"

	v, err := p.AddDocument(ctx, doc)
	require.NoError(t, err)
	orig, err := p.View("s")
	require.NoError(t, err)
	assert.True(t, orig.Data.Equal(&v.Data))

	require.NoError(t, p.Remove("copy"))
	_, err = p.View("copy")
	require.ErrorIs(t, err, ErrMissingActiveSpectrum)
}

func TestCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := newPipeline(t)
	addRamp(t, p, "s", "1H", 4)

	_, err := p.ApplyFilter(ctx, "s", filter.ShiftX, filter.ShiftXOptions{Shift: 1})
	require.ErrorIs(t, err, context.Canceled)
}

func TestGroupErrorMessage(t *testing.T) {
	t.Parallel()

	err := &GroupError{Group: "1H", Failures: map[string]error{
		"b": errors.New("boom"),
		"a": fmt.Errorf("wrapped: %w", chain.ErrProtectedFilter),
	}}
	assert.Equal(t, "pipeline: group 1H: 2 spectra failed; a: wrapped: chain: protected filter; b: boom", err.Error())
	assert.ErrorIs(t, err, chain.ErrProtectedFilter)
}
