package window

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Type identifies an apodization function.
type Type int

const (
	// TypeExponential is exp(-pi*lb*t) line broadening.
	TypeExponential Type = iota
	// TypeLorentzToGauss cancels a Lorentzian decay and replaces it with a
	// Gaussian centred at a fraction of the acquisition time.
	TypeLorentzToGauss
	// TypeSineBell is sin(pi*x) over the acquisition, optionally shifted.
	TypeSineBell
	// TypeSineSquare is the squared sine bell.
	TypeSineSquare
	// TypeHann is the raised cosine over the acquisition.
	TypeHann
)

var typeNames = map[Type]string{
	TypeExponential:    "Exponential",
	TypeLorentzToGauss: "Lorentz-to-Gauss",
	TypeSineBell:       "Sine bell",
	TypeSineSquare:     "Sine square",
	TypeHann:           "Hann",
}

func (t Type) String() string {
	if name, ok := typeNames[t]; ok {
		return name
	}
	return "Unknown"
}

// Option configures window generation.
type Option func(*config)

type config struct {
	lineBroadening  float64
	gaussBroadening float64
	center          float64
	shift           float64
}

func defaultConfig() config {
	return config{}
}

// WithLineBroadening sets the exponential line broadening in Hz. Negative
// values sharpen lines.
func WithLineBroadening(hz float64) Option {
	return func(c *config) {
		if !math.IsNaN(hz) && !math.IsInf(hz, 0) {
			c.lineBroadening = hz
		}
	}
}

// WithGaussBroadening sets the Gaussian broadening in Hz.
func WithGaussBroadening(hz float64) Option {
	return func(c *config) {
		if hz >= 0 && !math.IsInf(hz, 0) {
			c.gaussBroadening = hz
		}
	}
}

// WithCenter places the Gaussian maximum at center*acquisitionTime.
func WithCenter(center float64) Option {
	return func(c *config) {
		if center >= 0 && center <= 1 {
			c.center = center
		}
	}
}

// WithShift shifts sine-bell windows by shift*pi/2 (0 = sine, 1 = cosine).
func WithShift(shift float64) Option {
	return func(c *config) {
		if shift >= 0 && shift <= 1 {
			c.shift = shift
		}
	}
}

// Generate returns window coefficients for the given sample times. Times are
// taken relative to times[0].
func Generate(t Type, times []float64, opts ...Option) []float64 {
	if len(times) == 0 {
		return nil
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	t0 := times[0]
	acq := times[len(times)-1] - t0
	out := make([]float64, len(times))
	for i := range out {
		rel := times[i] - t0
		x := samplePosition(i, len(times))
		out[i] = evalWindow(t, rel, acq, x, cfg)
	}

	return out
}

// Apply multiplies each buffer in bufs in-place by the selected window.
// Buffers whose length differs from times are left untouched.
func Apply(t Type, times []float64, opts []Option, bufs ...[]float64) {
	coeffs := Generate(t, times, opts...)
	if len(coeffs) == 0 {
		return
	}

	for _, buf := range bufs {
		if len(buf) != len(coeffs) {
			continue
		}
		vecmath.MulBlockInPlace(buf, coeffs)
	}
}

// Exponential returns exp(-pi*lb*t) coefficients.
func Exponential(times []float64, lineBroadening float64) ([]float64, error) {
	if err := validateTimes(times); err != nil {
		return nil, err
	}
	if err := validateFinite("line broadening", lineBroadening); err != nil {
		return nil, err
	}

	return Generate(TypeExponential, times, WithLineBroadening(lineBroadening)), nil
}

// LorentzToGauss returns Lorentz-to-Gauss transformation coefficients.
func LorentzToGauss(times []float64, lineBroadening, gaussBroadening, center float64) ([]float64, error) {
	if err := validateTimes(times); err != nil {
		return nil, err
	}
	if err := validateFinite("line broadening", lineBroadening); err != nil {
		return nil, err
	}
	if err := validateFinite("gauss broadening", gaussBroadening); err != nil {
		return nil, err
	}
	if err := validateCenter(center); err != nil {
		return nil, err
	}

	return Generate(TypeLorentzToGauss, times,
		WithLineBroadening(lineBroadening),
		WithGaussBroadening(gaussBroadening),
		WithCenter(center),
	), nil
}

// ApplyCoefficientsInPlace multiplies samples with coefficients in place.
func ApplyCoefficientsInPlace(samples, coeffs []float64) error {
	if len(samples) != len(coeffs) {
		return errMismatchedLength
	}

	vecmath.MulBlockInPlace(samples, coeffs)

	return nil
}

func evalWindow(t Type, rel, acq, x float64, cfg config) float64 {
	switch t {
	case TypeExponential:
		return math.Exp(-math.Pi * cfg.lineBroadening * rel)
	case TypeLorentzToGauss:
		return lorentzToGaussAt(rel, acq, cfg)
	case TypeSineBell:
		return sineBellAt(x, cfg.shift)
	case TypeSineSquare:
		s := sineBellAt(x, cfg.shift)
		return s * s
	case TypeHann:
		return 0.5 - 0.5*math.Cos(2*math.Pi*x)
	default:
		return 1
	}
}

// lorentzToGaussAt follows the usual spectrometer convention: the Lorentzian
// term exp(+pi*lb*t) is multiplied with a Gaussian whose width in Hz is gb.
func lorentzToGaussAt(rel, acq float64, cfg config) float64 {
	lorentz := math.Exp(-math.Pi * cfg.lineBroadening * rel)
	if cfg.gaussBroadening == 0 {
		return lorentz
	}

	g := math.Pi * cfg.gaussBroadening / (2 * math.Sqrt(math.Ln2))
	d := rel - cfg.center*acq

	return lorentz * math.Exp(-(g*d)*(g*d))
}

func sineBellAt(x, shift float64) float64 {
	return math.Sin(math.Pi*x*(1-shift/2) + shift*math.Pi/2)
}

func samplePosition(n, size int) float64 {
	if size <= 1 {
		return 0
	}

	return float64(n) / float64(size-1)
}
