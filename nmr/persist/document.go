package persist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-nmr/nmr/chain"
	"github.com/cwbudde/algo-nmr/nmr/datum"
	"github.com/cwbudde/algo-nmr/nmr/filter"
)

// ErrInvalidDocument is returned for documents that cannot describe a
// spectrum.
var ErrInvalidDocument = errors.New("persist: invalid document")

// Format selects the document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" and "yml".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("persist: unknown format %q", s)
}

// Filter is one persisted chain record. Value holds the kind's options.
type Filter struct {
	ID              string          `json:"id,omitempty"`
	Name            filter.Name     `json:"name"`
	Value           json.RawMessage `json:"value,omitempty"`
	IsEnabled       *bool           `json:"isEnabled,omitempty"`
	IsDeleteAllowed *bool           `json:"isDeleteAllowed,omitempty"`
}

// Document is the persisted form of a spectrum.
type Document struct {
	ID      string     `json:"id"`
	Group   string     `json:"group,omitempty"`
	Info    datum.Info `json:"info"`
	Data    datum.Data `json:"data"`
	Filters []Filter   `json:"filters"`
}

// FromSpectrum captures the raw data and chain of s.
func FromSpectrum(s *chain.Spectrum) (Document, error) {
	raw := s.Raw()
	doc := Document{
		ID:      s.ID,
		Group:   s.Group,
		Info:    raw.Info,
		Data:    raw.Data,
		Filters: make([]Filter, 0, len(s.Records)),
	}
	for _, r := range s.Records {
		value, err := json.Marshal(r.Options)
		if err != nil {
			return Document{}, fmt.Errorf("persist: encode %s options: %w", r.Name, err)
		}
		enabled, deletable := r.IsEnabled, r.IsDeleteAllowed
		doc.Filters = append(doc.Filters, Filter{
			ID:              r.ID,
			Name:            r.Name,
			Value:           value,
			IsEnabled:       &enabled,
			IsDeleteAllowed: &deletable,
		})
	}
	return doc, nil
}

// Spectrum rebuilds the spectrum described by d and replays its chain with
// e. Missing record ids are generated, a missing isEnabled means enabled
// and a missing isDeleteAllowed follows the kind's protection.
func (d Document) Spectrum(e *chain.Engine) (*chain.Spectrum, error) {
	if d.ID == "" {
		return nil, fmt.Errorf("%w: missing id", ErrInvalidDocument)
	}
	raw := datum.State{Info: d.Info, Data: d.Data}
	s, err := chain.NewSpectrum(d.ID, d.Group, raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}

	seen := make(map[string]bool, len(d.Filters))
	for i, f := range d.Filters {
		k, o, err := e.Registry().Decode(f.Name, f.Value)
		if err != nil {
			return nil, fmt.Errorf("persist: filter %d: %w", i, err)
		}
		if o, err = k.Normalize(o); err != nil {
			return nil, fmt.Errorf("persist: filter %d: %w", i, err)
		}
		rec := chain.NewRecord(k, o)
		if f.ID != "" {
			rec.ID = f.ID
		}
		if seen[rec.ID] {
			return nil, fmt.Errorf("%w: duplicate filter id %s", ErrInvalidDocument, rec.ID)
		}
		seen[rec.ID] = true
		if f.IsEnabled != nil {
			rec.IsEnabled = *f.IsEnabled
		}
		if f.IsDeleteAllowed != nil && !k.Capabilities().Protected {
			rec.IsDeleteAllowed = *f.IsDeleteAllowed
		}
		s.Records = append(s.Records, rec)
	}

	return e.Materialize(s)
}

// Marshal encodes d in the given format.
func Marshal(d Document, f Format) ([]byte, error) {
	js, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("persist: encode: %w", err)
	}
	switch f {
	case FormatJSON:
		return append(js, '\n'), nil
	case FormatYAML:
		// Go through a generic tree so filter values keep their JSON
		// field names.
		var tree any
		if err := json.Unmarshal(js, &tree); err != nil {
			return nil, fmt.Errorf("persist: encode: %w", err)
		}
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(tree); err != nil {
			return nil, fmt.Errorf("persist: encode yaml: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, fmt.Errorf("persist: encode yaml: %w", err)
		}
		return buf.Bytes(), nil
	}
	return nil, fmt.Errorf("persist: unknown format %q", f)
}

// Unmarshal decodes a document in the given format.
func Unmarshal(b []byte, f Format) (Document, error) {
	var doc Document
	switch f {
	case FormatJSON:
	case FormatYAML:
		var tree any
		if err := yaml.Unmarshal(b, &tree); err != nil {
			return Document{}, fmt.Errorf("%w: yaml: %w", ErrInvalidDocument, err)
		}
		js, err := json.Marshal(tree)
		if err != nil {
			return Document{}, fmt.Errorf("%w: yaml: %w", ErrInvalidDocument, err)
		}
		b = js
	default:
		return Document{}, fmt.Errorf("persist: unknown format %q", f)
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrInvalidDocument, err)
	}
	return doc, nil
}

// Read decodes a document from r.
func Read(r io.Reader, f Format) (Document, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return Document{}, fmt.Errorf("persist: read: %w", err)
	}
	return Unmarshal(b, f)
}

// Write encodes d to w.
func Write(w io.Writer, d Document, f Format) error {
	b, err := Marshal(d, f)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}
