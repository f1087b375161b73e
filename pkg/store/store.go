// Package store persists label documents by name.
//
// Two backends are provided:
//   - file: one JSON file per document, for the CLI
//   - mongo: a MongoDB collection, for shared server deployments
//
// Names are validated with errors.ValidateName before they reach a backend,
// so they are safe to use as file names.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/matzehuels/zplkit/pkg/errors"
	"github.com/matzehuels/zplkit/pkg/label"
)

// ErrNotFound is returned when no document has the requested name.
var ErrNotFound = errors.New(errors.ErrCodeDocumentNotFound, "document not found")

// Summary describes a stored document without its elements.
type Summary struct {
	Name      string        `json:"name" bson:"_id"`
	Profile   label.Profile `json:"profile" bson:"profile"`
	Elements  int           `json:"elements" bson:"element_count"`
	UpdatedAt time.Time     `json:"updated_at" bson:"updated_at"`
}

// Store persists documents.
type Store interface {
	// Save creates or replaces the document named doc.Name.
	Save(ctx context.Context, doc *label.Document) error
	// Load returns the named document or ErrNotFound.
	Load(ctx context.Context, name string) (*label.Document, error)
	// List returns every stored document sorted by name.
	List(ctx context.Context) ([]Summary, error)
	// Delete removes the named document or returns ErrNotFound.
	Delete(ctx context.Context, name string) error
	// Close releases backend resources.
	Close() error
}

func notFound(name string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, name)
}

// =============================================================================
// Backend selection
// =============================================================================

// Backend names a store implementation.
type Backend string

// Supported backends.
const (
	BackendFile  Backend = "file"
	BackendMongo Backend = "mongo"
)

// Options selects and configures a backend.
type Options struct {
	Backend  Backend
	Dir      string // file backend; empty uses DefaultDir
	MongoURI string
	Database string // mongo backend; empty uses DefaultDatabase
}

// Open returns the configured store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Backend {
	case BackendFile, "":
		s, err := NewFileStore(opts.Dir)
		if err != nil {
			return nil, err
		}
		return s, nil
	case BackendMongo:
		if opts.MongoURI == "" {
			return nil, errors.New(errors.ErrCodeInvalidInput, "mongo store requires a URI")
		}
		s, err := NewMongoStore(ctx, opts.MongoURI, opts.Database)
		if err != nil {
			return nil, err
		}
		return s, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidInput,
		"invalid store backend: %q (must be one of: file, mongo)", opts.Backend)
}
