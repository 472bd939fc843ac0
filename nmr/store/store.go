// Package store persists chain documents. Three backends share the Store
// interface: an in-process map, BadgerDB and SQLite.
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cwbudde/algo-nmr/nmr/persist"
)

var (
	// ErrNotFound is returned when no document has the requested id.
	ErrNotFound = errors.New("store: document not found")
	// ErrInvalidID is returned for empty document ids.
	ErrInvalidID = errors.New("store: empty document id")
)

// Store is a keyed collection of documents. Implementations are safe for
// concurrent use.
type Store interface {
	Put(ctx context.Context, doc persist.Document) error
	Get(ctx context.Context, id string) (persist.Document, error)
	// List returns all ids in ascending order.
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

// Driver names a backend.
type Driver string

const (
	DriverMemory Driver = "memory"
	DriverBadger Driver = "badger"
	DriverSQLite Driver = "sqlite"
)

// Config selects and configures a backend.
type Config struct {
	Driver Driver
	// Path is the database directory (badger) or file (sqlite).
	Path   string
	Logger *slog.Logger
}

// Open creates the configured backend.
func Open(cfg Config) (Store, error) {
	switch cfg.Driver {
	case DriverMemory, "":
		return NewMemory(), nil
	case DriverBadger:
		bc := DefaultBadgerConfig()
		bc.Path = cfg.Path
		bc.InMemory = cfg.Path == ""
		bc.Logger = cfg.Logger
		return OpenBadger(bc)
	case DriverSQLite:
		return OpenSQLite(cfg.Path)
	}
	return nil, fmt.Errorf("store: unknown driver %q", cfg.Driver)
}

func encode(doc persist.Document) ([]byte, error) {
	if doc.ID == "" {
		return nil, ErrInvalidID
	}
	return persist.Marshal(doc, persist.FormatJSON)
}

func decode(b []byte) (persist.Document, error) {
	return persist.Unmarshal(b, persist.FormatJSON)
}
