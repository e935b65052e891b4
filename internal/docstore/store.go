package docstore

import (
	"context"
	"errors"
	"strings"
)

// FieldID is the reserved field name that addresses a document's identifier
// in filters, orderings and decoded entities.
const FieldID = "id"

// MaxBatchWrites is the largest write set a single Batch call accepts.
const MaxBatchWrites = 500

var (
	ErrNotFound      = errors.New("document not found")
	ErrAlreadyExists = errors.New("document already exists")
	ErrInvalidQuery  = errors.New("invalid query")
	ErrBatchTooLarge = errors.New("batch exceeds maximum write count")
)

// Fields is the schemaless payload of a document.
type Fields map[string]interface{}

// Document is a stored document together with its identifier.
type Document struct {
	ID   string
	Data Fields
}

// WriteKind selects the operation of a batched write.
type WriteKind int

const (
	WriteCreate WriteKind = iota
	WriteUpdate
	WriteDelete
)

// Write is one element of a batch. A WriteCreate with an empty ID gets a
// store-assigned identifier.
type Write struct {
	Kind WriteKind
	ID   string
	Data Fields
}

// Unsubscribe releases a live subscription.
type Unsubscribe func()

// Store is the document database the repositories run on. Collections are
// slash separated paths, so "users/42/followers" names the followers
// sub-collection of user 42.
//
// Get returns (nil, nil) for a missing document, Update returns ErrNotFound
// and Delete treats a missing document as success. Transport failures are
// returned as they come from the driver.
type Store interface {
	Create(ctx context.Context, collection string, data Fields) (string, error)
	CreateWithID(ctx context.Context, collection, id string, data Fields) error
	Get(ctx context.Context, collection, id string) (*Document, error)
	Update(ctx context.Context, collection, id string, data Fields) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Batch(ctx context.Context, collection string, writes []Write) ([]string, error)
	Watch(ctx context.Context, collection string, q Query, fn func([]Document, error)) (Unsubscribe, error)
	WatchDocument(ctx context.Context, collection, id string, fn func(*Document, error)) (Unsubscribe, error)
	Close() error
}

// Path joins collection and document segments, e.g. Path("users", id, "followers").
func Path(segments ...string) string {
	return strings.Join(segments, "/")
}

func validateWrites(writes []Write) error {
	if len(writes) > MaxBatchWrites {
		return ErrBatchTooLarge
	}
	for _, w := range writes {
		if w.Kind != WriteCreate && w.ID == "" {
			return errors.New("batch update and delete need a document id")
		}
	}
	return nil
}

func copyFields(f Fields) Fields {
	out := make(Fields, len(f))
	for k, v := range f {
		if k == FieldID {
			continue
		}
		out[k] = deepCopy(v)
	}
	return out
}

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*FirestoreStore)(nil)
	_ Store = (*MongoStore)(nil)
	_ Store = (*PostgresStore)(nil)
)
