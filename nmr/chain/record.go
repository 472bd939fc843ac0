package chain

import (
	"github.com/google/uuid"

	"github.com/cwbudde/algo-nmr/nmr/filter"
)

// Record is one entry of a filter chain. Options are treated as immutable
// values: operations replace them, never edit them in place.
type Record struct {
	ID              string         `json:"id"`
	Name            filter.Name    `json:"name"`
	Options         filter.Options `json:"value"`
	IsEnabled       bool           `json:"isEnabled"`
	IsDeleteAllowed bool           `json:"isDeleteAllowed"`
}

// NewRecord returns an enabled record with a fresh id.
func NewRecord(k filter.Kind, o filter.Options) Record {
	return Record{
		ID:              uuid.NewString(),
		Name:            k.Name(),
		Options:         o,
		IsEnabled:       true,
		IsDeleteAllowed: !k.Capabilities().Protected,
	}
}

// Request is an append request.
type Request struct {
	Name    filter.Name
	Options filter.Options
}

// MergeDecision is the outcome of DecideMerge.
type MergeDecision int

const (
	// MergeAppend pushes a new record.
	MergeAppend MergeDecision = iota
	// MergeFold replaces the options of the last record with the merged
	// options.
	MergeFold
)

func (d MergeDecision) String() string {
	if d == MergeFold {
		return "fold"
	}
	return "append"
}

// DecideMerge decides whether req folds into last. It folds only when last
// is an enabled record of the same kind, the kind has Once semantics and
// its Reduce accepts the pair. merged is set for MergeFold.
func DecideMerge(last *Record, req Request, k filter.Kind) (d MergeDecision, merged filter.Options) {
	if last == nil || k == nil {
		return MergeAppend, nil
	}
	if last.Name != req.Name || req.Name != k.Name() || !last.IsEnabled {
		return MergeAppend, nil
	}
	if !k.Capabilities().Once {
		return MergeAppend, nil
	}
	merged, ok := k.Reduce(last.Options, req.Options)
	if !ok {
		return MergeAppend, nil
	}
	return MergeFold, merged
}
