package repositories

import (
	"context"
	"time"

	"github.com/anonto42/mockup-social/backend/internal/docstore"
	"golang.org/x/sync/errgroup"
)

const (
	fieldCreatedAt = "createdAt"
	fieldUpdatedAt = "updatedAt"

	// maxInValues matches the store's limit on "in" filters.
	maxInValues = docstore.MaxDisjunction
)

// Page is one page of a cursor-paginated read.
type Page[T any] struct {
	Items   []*T
	Next    *docstore.Cursor
	HasMore bool
}

// Patch is one element of UpdateBatch.
type Patch struct {
	ID     string
	Fields docstore.Fields
}

// Repository is a collection-scoped view of a docstore.Store that converts
// documents to T. T must be a struct carrying `doc` tags, with the id field
// tagged `doc:"id"`.
type Repository[T any] struct {
	store      docstore.Store
	collection string
	now        func() time.Time
}

// NewRepository creates a Repository over collection.
func NewRepository[T any](store docstore.Store, collection string) *Repository[T] {
	return &Repository[T]{store: store, collection: collection, now: now}
}

// now truncates to milliseconds, the coarsest timestamp precision among the
// supported backends.
func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

func (r *Repository[T]) Collection() string { return r.collection }

// Create stores entity under a store-assigned id and returns the stored
// entity. createdAt and updatedAt are always stamped.
func (r *Repository[T]) Create(ctx context.Context, entity *T) (*T, error) {
	fields, err := r.stamped(entity)
	if err != nil {
		return nil, err
	}
	id, err := r.store.Create(ctx, r.collection, fields)
	if err != nil {
		return nil, err
	}
	return r.decode(docstore.Document{ID: id, Data: fields})
}

// CreateWithID stores entity under id. It returns docstore.ErrAlreadyExists
// if the id is taken.
func (r *Repository[T]) CreateWithID(ctx context.Context, id string, entity *T) (*T, error) {
	fields, err := r.stamped(entity)
	if err != nil {
		return nil, err
	}
	if err := r.store.CreateWithID(ctx, r.collection, id, fields); err != nil {
		return nil, err
	}
	return r.decode(docstore.Document{ID: id, Data: fields})
}

// GetByID returns nil, nil when the document does not exist.
func (r *Repository[T]) GetByID(ctx context.Context, id string) (*T, error) {
	doc, err := r.store.Get(ctx, r.collection, id)
	if err != nil || doc == nil {
		return nil, err
	}
	return r.decode(*doc)
}

// Update merges fields into the document and stamps updatedAt.
func (r *Repository[T]) Update(ctx context.Context, id string, fields docstore.Fields) error {
	return r.store.Update(ctx, r.collection, id, r.touch(fields))
}

func (r *Repository[T]) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, r.collection, id)
}

func (r *Repository[T]) Find(ctx context.Context, q docstore.Query) ([]*T, error) {
	docs, err := r.store.Query(ctx, r.collection, q)
	if err != nil {
		return nil, err
	}
	return r.decodeAll(docs)
}

// FindOne returns the first match or nil.
func (r *Repository[T]) FindOne(ctx context.Context, q docstore.Query) (*T, error) {
	q.Limit = 1
	items, err := r.Find(ctx, q)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}

// FindPage reads up to limit items after q.StartAfter. It asks the store for
// one extra document to learn whether another page exists.
func (r *Repository[T]) FindPage(ctx context.Context, q docstore.Query, limit int) (*Page[T], error) {
	if limit <= 0 {
		limit = 20
	}
	q.Limit = limit + 1
	docs, err := r.store.Query(ctx, r.collection, q)
	if err != nil {
		return nil, err
	}
	page := &Page[T]{}
	if len(docs) > limit {
		page.HasMore = true
		docs = docs[:limit]
	}
	if page.HasMore && len(docs) > 0 {
		page.Next = docstore.CursorAt(q, docs[len(docs)-1])
	}
	page.Items, err = r.decodeAll(docs)
	if err != nil {
		return nil, err
	}
	return page, nil
}

// Count returns the number of documents matching q.
func (r *Repository[T]) Count(ctx context.Context, q docstore.Query) (int, error) {
	docs, err := r.store.Query(ctx, r.collection, q)
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// GetByIDs fetches many documents with "id in" queries of at most 30 ids,
// issued concurrently. The result follows the order of ids; duplicates and
// missing documents are dropped.
func (r *Repository[T]) GetByIDs(ctx context.Context, ids []string) ([]*T, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return nil, nil
	}
	chunks := chunk(unique, maxInValues)
	results := make([][]docstore.Document, len(chunks))

	g, gctx := errgroup.WithContext(ctx)
	for i, c := range chunks {
		g.Go(func() error {
			docs, err := r.store.Query(gctx, r.collection, docstore.Query{
				Where: []docstore.Filter{docstore.Where(docstore.FieldID, docstore.OpIn, c)},
			})
			results[i] = docs
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	byID := make(map[string]docstore.Document, len(unique))
	for _, docs := range results {
		for _, d := range docs {
			byID[d.ID] = d
		}
	}
	out := make([]*T, 0, len(byID))
	for _, id := range unique {
		d, ok := byID[id]
		if !ok {
			continue
		}
		item, err := r.decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// CreateBatch stores entities under store-assigned ids, committing at most
// docstore.MaxBatchWrites per batch.
func (r *Repository[T]) CreateBatch(ctx context.Context, entities []*T) ([]string, error) {
	writes := make([]docstore.Write, 0, len(entities))
	for _, e := range entities {
		fields, err := r.stamped(e)
		if err != nil {
			return nil, err
		}
		writes = append(writes, docstore.Write{Kind: docstore.WriteCreate, Data: fields})
	}
	return r.batch(ctx, writes)
}

func (r *Repository[T]) UpdateBatch(ctx context.Context, patches []Patch) error {
	writes := make([]docstore.Write, 0, len(patches))
	for _, p := range patches {
		writes = append(writes, docstore.Write{Kind: docstore.WriteUpdate, ID: p.ID, Data: r.touch(p.Fields)})
	}
	_, err := r.batch(ctx, writes)
	return err
}

func (r *Repository[T]) DeleteBatch(ctx context.Context, ids []string) error {
	writes := make([]docstore.Write, 0, len(ids))
	for _, id := range ids {
		writes = append(writes, docstore.Write{Kind: docstore.WriteDelete, ID: id})
	}
	_, err := r.batch(ctx, writes)
	return err
}

func (r *Repository[T]) batch(ctx context.Context, writes []docstore.Write) ([]string, error) {
	ids := make([]string, 0, len(writes))
	for start := 0; start < len(writes); start += docstore.MaxBatchWrites {
		end := min(start+docstore.MaxBatchWrites, len(writes))
		created, err := r.store.Batch(ctx, r.collection, writes[start:end])
		if err != nil {
			return nil, err
		}
		ids = append(ids, created...)
	}
	return ids, nil
}

// Subscribe calls fn with the decoded result of q now and after every
// change. The caller must release the subscription.
func (r *Repository[T]) Subscribe(ctx context.Context, q docstore.Query, fn func([]*T, error)) (docstore.Unsubscribe, error) {
	return r.store.Watch(ctx, r.collection, q, func(docs []docstore.Document, err error) {
		if err != nil {
			fn(nil, err)
			return
		}
		fn(r.decodeAll(docs))
	})
}

func (r *Repository[T]) SubscribeByID(ctx context.Context, id string, fn func(*T, error)) (docstore.Unsubscribe, error) {
	return r.store.WatchDocument(ctx, r.collection, id, func(doc *docstore.Document, err error) {
		if err != nil || doc == nil {
			fn(nil, err)
			return
		}
		fn(r.decode(*doc))
	})
}

// AdjustCounter adds delta to an integer field, flooring the result at
// zero. It is a plain read followed by a write: concurrent adjustments of
// the same counter can lose updates. A missing document is left alone.
func (r *Repository[T]) AdjustCounter(ctx context.Context, id, field string, delta int) error {
	doc, err := r.store.Get(ctx, r.collection, id)
	if err != nil || doc == nil {
		return err
	}
	next := max(toInt64(doc.Data[field])+int64(delta), 0)
	return r.Update(ctx, id, docstore.Fields{field: next})
}

func (r *Repository[T]) stamped(entity *T) (docstore.Fields, error) {
	fields, err := docstore.Encode(entity)
	if err != nil {
		return nil, err
	}
	ts := r.now()
	fields[fieldCreatedAt] = ts
	fields[fieldUpdatedAt] = ts
	return fields, nil
}

func (r *Repository[T]) touch(fields docstore.Fields) docstore.Fields {
	out := make(docstore.Fields, len(fields)+1)
	for k, v := range fields {
		out[k] = v
	}
	out[fieldUpdatedAt] = r.now()
	return out
}

func (r *Repository[T]) decode(doc docstore.Document) (*T, error) {
	out := new(T)
	if err := docstore.Decode(doc, out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository[T]) decodeAll(docs []docstore.Document) ([]*T, error) {
	out := make([]*T, 0, len(docs))
	for _, d := range docs {
		item, err := r.decode(d)
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

func toInt64(v interface{}) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case int:
		return int64(n)
	}
	return 0
}

func dedupe(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func chunk(ids []string, size int) [][]string {
	var out [][]string
	for start := 0; start < len(ids); start += size {
		out = append(out, ids[start:min(start+size, len(ids))])
	}
	return out
}
