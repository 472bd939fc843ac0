package filter

type registryConfig struct {
	protected map[Name]bool
	extra     []Kind
}

// RegistryOption configures the default registry.
type RegistryOption func(*registryConfig)

// WithProtected marks the named kinds as protected: their records cannot be
// deleted or disabled.
func WithProtected(names ...Name) RegistryOption {
	return func(c *registryConfig) {
		for _, n := range names {
			c.protected[n] = true
		}
	}
}

// WithKind registers an additional kind next to the built-in catalog.
func WithKind(k Kind) RegistryOption {
	return func(c *registryConfig) { c.extra = append(c.extra, k) }
}

// DefaultRegistry returns a Registry pre-populated with all built-in kinds.
func DefaultRegistry(opts ...RegistryOption) *Registry {
	cfg := &registryConfig{protected: map[Name]bool{}}
	for _, opt := range opts {
		opt(cfg)
	}

	r := NewRegistry()

	builtins := []Kind{
		shiftXKind(),
		zeroFillingKind(),
		apodizationKind(),
		digitalFilterKind(),
		fftKind(),
		phaseCorrectionKind(),
		baselineCorrectionKind(),
		exclusionZonesKind(),
		centerMeanKind(),
		standardDeviationKind(),
		paretoKind(),
		fromToKind(),
		equallySpacedKind(),
		shift2DXKind(),
		shift2DYKind(),
	}
	for _, k := range append(builtins, cfg.extra...) {
		if cfg.protected[k.Name()] {
			k = protectedKind{k}
		}
		r.MustRegister(k)
	}

	return r
}

// protectedKind overrides the Protected capability of a wrapped kind.
type protectedKind struct {
	Kind
}

func (p protectedKind) Capabilities() Capabilities {
	c := p.Kind.Capabilities()
	c.Protected = true
	return c
}
