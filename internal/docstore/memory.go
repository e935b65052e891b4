package docstore

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store. It evaluates queries with the same
// semantics as the remote backends and is what tests and the "memory"
// driver run on.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string]map[string]Fields

	watchMu   sync.Mutex
	watchers  map[int]*memoryWatcher
	nextWatch int
}

type memoryWatcher struct {
	collection string
	docID      string
	query      Query
	onQuery    func([]Document, error)
	onDoc      func(*Document, error)
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[string]map[string]Fields),
		watchers:    make(map[int]*memoryWatcher),
	}
}

func (s *MemoryStore) Create(ctx context.Context, collection string, data Fields) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	id := uuid.NewString()
	s.mu.Lock()
	s.put(collection, id, data)
	s.mu.Unlock()
	s.notify(collection)
	return id, nil
}

func (s *MemoryStore) CreateWithID(ctx context.Context, collection, id string, data Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	if _, ok := s.collections[collection][id]; ok {
		s.mu.Unlock()
		return ErrAlreadyExists
	}
	s.put(collection, id, data)
	s.mu.Unlock()
	s.notify(collection)
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.collections[collection][id]
	if !ok {
		return nil, nil
	}
	return &Document{ID: id, Data: copyFields(data)}, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, data Fields) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	existing, ok := s.collections[collection][id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range data {
		if k == FieldID {
			continue
		}
		existing[k] = Normalize(v)
	}
	s.mu.Unlock()
	s.notify(collection)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.collections[collection], id)
	s.mu.Unlock()
	s.notify(collection)
	return nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.run(collection, q), nil
}

// Batch applies all writes or none: preconditions are checked for the whole
// set before anything is written.
func (s *MemoryStore) Batch(ctx context.Context, collection string, writes []Write) ([]string, error) {
	if err := validateWrites(writes); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	docs := s.collections[collection]
	ids := make([]string, len(writes))
	for i, w := range writes {
		ids[i] = w.ID
		switch w.Kind {
		case WriteCreate:
			if w.ID == "" {
				ids[i] = uuid.NewString()
			} else if _, ok := docs[w.ID]; ok {
				s.mu.Unlock()
				return nil, ErrAlreadyExists
			}
		case WriteUpdate:
			if _, ok := docs[w.ID]; !ok {
				s.mu.Unlock()
				return nil, ErrNotFound
			}
		}
	}
	for i, w := range writes {
		switch w.Kind {
		case WriteCreate:
			s.put(collection, ids[i], w.Data)
		case WriteUpdate:
			existing := s.collections[collection][w.ID]
			if existing == nil {
				// deleted earlier in the same batch
				continue
			}
			for k, v := range w.Data {
				if k != FieldID {
					existing[k] = Normalize(v)
				}
			}
		case WriteDelete:
			delete(s.collections[collection], w.ID)
		}
	}
	s.mu.Unlock()
	s.notify(collection)
	return ids, nil
}

// Watch delivers the current result synchronously, then again after every
// write to collection, until the returned function is called or ctx ends.
func (s *MemoryStore) Watch(ctx context.Context, collection string, q Query, fn func([]Document, error)) (Unsubscribe, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	w := &memoryWatcher{collection: collection, query: q, onQuery: fn}
	unsub := s.register(ctx, w)
	fn(s.run(collection, q), nil)
	return unsub, nil
}

func (s *MemoryStore) WatchDocument(ctx context.Context, collection, id string, fn func(*Document, error)) (Unsubscribe, error) {
	w := &memoryWatcher{collection: collection, docID: id, onDoc: fn}
	unsub := s.register(ctx, w)
	doc, err := s.Get(context.Background(), collection, id)
	fn(doc, err)
	return unsub, nil
}

func (s *MemoryStore) Close() error {
	s.watchMu.Lock()
	s.watchers = make(map[int]*memoryWatcher)
	s.watchMu.Unlock()
	return nil
}

func (s *MemoryStore) put(collection, id string, data Fields) {
	docs, ok := s.collections[collection]
	if !ok {
		docs = make(map[string]Fields)
		s.collections[collection] = docs
	}
	stored := NormalizeFields(data)
	delete(stored, FieldID)
	docs[id] = stored
}

func (s *MemoryStore) run(collection string, q Query) []Document {
	s.mu.RLock()
	docs := make([]Document, 0, len(s.collections[collection]))
	for id, data := range s.collections[collection] {
		docs = append(docs, Document{ID: id, Data: data})
	}
	result := evaluate(docs, q)
	for i := range result {
		result[i].Data = copyFields(result[i].Data)
	}
	s.mu.RUnlock()
	return result
}

func (s *MemoryStore) register(ctx context.Context, w *memoryWatcher) Unsubscribe {
	s.watchMu.Lock()
	key := s.nextWatch
	s.nextWatch++
	s.watchers[key] = w
	s.watchMu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			s.watchMu.Lock()
			delete(s.watchers, key)
			s.watchMu.Unlock()
		})
	}
	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			unsub()
		}()
	}
	return unsub
}

// notify runs outside s.mu so listeners may call back into the store.
func (s *MemoryStore) notify(collection string) {
	s.watchMu.Lock()
	var targets []*memoryWatcher
	for _, w := range s.watchers {
		if w.collection == collection {
			targets = append(targets, w)
		}
	}
	s.watchMu.Unlock()

	for _, w := range targets {
		if w.onDoc != nil {
			doc, err := s.Get(context.Background(), collection, w.docID)
			w.onDoc(doc, err)
			continue
		}
		w.onQuery(s.run(collection, w.query), nil)
	}
}
