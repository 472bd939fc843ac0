package filter

import (
	"errors"
	"fmt"
	"sort"
)

// Registry maps kind names to kinds.
type Registry struct {
	kinds map[Name]Kind
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[Name]Kind)}
}

// Register adds a kind.
func (r *Registry) Register(k Kind) error {
	if k == nil {
		return errors.New("filter: nil kind")
	}

	name := k.Name()
	if name == "" {
		return errors.New("filter: empty kind name")
	}

	if _, exists := r.kinds[name]; exists {
		return fmt.Errorf("%w: %s", errDuplicateKind, name)
	}

	r.kinds[name] = k

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(k Kind) {
	err := r.Register(k)
	if err != nil {
		panic("filter registry: " + err.Error())
	}
}

// Lookup returns the kind registered under name. Unknown names are
// rejected with ErrNotApplicable wrapping ErrUnknownKind.
func (r *Registry) Lookup(name Name) (Kind, error) {
	k, ok := r.kinds[name]
	if !ok {
		return nil, fmt.Errorf("%w: %w: %q", ErrNotApplicable, ErrUnknownKind, name)
	}
	return k, nil
}

// Kinds returns all registered kinds sorted by name.
func (r *Registry) Kinds() []Kind {
	out := make([]Kind, 0, len(r.kinds))
	for _, k := range r.kinds {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// Decode resolves name and decodes a JSON options payload for it.
func (r *Registry) Decode(name Name, raw []byte) (Kind, Options, error) {
	k, err := r.Lookup(name)
	if err != nil {
		return nil, nil, err
	}
	o, err := k.Decode(raw)
	if err != nil {
		return nil, nil, err
	}
	return k, o, nil
}
