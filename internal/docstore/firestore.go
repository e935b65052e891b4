package docstore

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements Store on Cloud Firestore.
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps an initialized Firestore client.
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) collection(path string) (*firestore.CollectionRef, error) {
	col := s.client.Collection(path)
	if col == nil {
		return nil, invalidf("bad collection path %q", path)
	}
	return col, nil
}

func (s *FirestoreStore) Create(ctx context.Context, collection string, data Fields) (string, error) {
	col, err := s.collection(collection)
	if err != nil {
		return "", err
	}
	ref := col.NewDoc()
	if _, err := ref.Create(ctx, payload(data)); err != nil {
		return "", err
	}
	return ref.ID, nil
}

func (s *FirestoreStore) CreateWithID(ctx context.Context, collection, id string, data Fields) error {
	col, err := s.collection(collection)
	if err != nil {
		return err
	}
	_, err = col.Doc(id).Create(ctx, payload(data))
	return translateStatus(err)
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	col, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	snap, err := col.Doc(id).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	doc := fromSnapshot(snap)
	return &doc, nil
}

func (s *FirestoreStore) Update(ctx context.Context, collection, id string, data Fields) error {
	col, err := s.collection(collection)
	if err != nil {
		return err
	}
	updates := toUpdates(data)
	if len(updates) == 0 {
		return nil
	}
	_, err = col.Doc(id).Update(ctx, updates)
	return translateStatus(err)
}

func (s *FirestoreStore) Delete(ctx context.Context, collection, id string) error {
	col, err := s.collection(collection)
	if err != nil {
		return err
	}
	_, err = col.Doc(id).Delete(ctx)
	return err
}

func (s *FirestoreStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	col, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	snaps, err := s.build(col, q).Documents(ctx).GetAll()
	if err != nil {
		return nil, err
	}
	docs := make([]Document, len(snaps))
	for i, snap := range snaps {
		docs[i] = fromSnapshot(snap)
	}
	return docs, nil
}

// Batch commits the writes inside one transaction so they land as a set.
func (s *FirestoreStore) Batch(ctx context.Context, collection string, writes []Write) ([]string, error) {
	if err := validateWrites(writes); err != nil {
		return nil, err
	}
	col, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(writes))
	for i, w := range writes {
		ids[i] = w.ID
		if w.Kind == WriteCreate && w.ID == "" {
			ids[i] = col.NewDoc().ID
		}
	}
	err = s.client.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		for i, w := range writes {
			ref := col.Doc(ids[i])
			var err error
			switch w.Kind {
			case WriteCreate:
				err = tx.Create(ref, payload(w.Data))
			case WriteUpdate:
				err = tx.Update(ref, toUpdates(w.Data))
			case WriteDelete:
				err = tx.Delete(ref)
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, translateStatus(err)
	}
	return ids, nil
}

func (s *FirestoreStore) Watch(ctx context.Context, collection string, q Query, fn func([]Document, error)) (Unsubscribe, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	col, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	it := s.build(col, q).Snapshots(ctx)
	go func() {
		defer it.Stop()
		for {
			qs, err := it.Next()
			if err != nil {
				if ctx.Err() == nil && status.Code(err) != codes.Canceled {
					fn(nil, err)
				}
				return
			}
			snaps, err := qs.Documents.GetAll()
			if err != nil {
				fn(nil, err)
				continue
			}
			docs := make([]Document, len(snaps))
			for i, snap := range snaps {
				docs[i] = fromSnapshot(snap)
			}
			fn(docs, nil)
		}
	}()
	return Unsubscribe(cancel), nil
}

func (s *FirestoreStore) WatchDocument(ctx context.Context, collection, id string, fn func(*Document, error)) (Unsubscribe, error) {
	col, err := s.collection(collection)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(ctx)
	it := col.Doc(id).Snapshots(ctx)
	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() == nil && status.Code(err) != codes.Canceled {
					fn(nil, err)
				}
				return
			}
			if !snap.Exists() {
				fn(nil, nil)
				continue
			}
			doc := fromSnapshot(snap)
			fn(&doc, nil)
		}
	}()
	return Unsubscribe(cancel), nil
}

func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

func (s *FirestoreStore) build(col *firestore.CollectionRef, q Query) firestore.Query {
	fq := col.Query
	for _, f := range q.Where {
		if f.Field == FieldID {
			fq = fq.Where(firestore.DocumentID, string(f.Op), docRefs(col, Normalize(f.Value)))
			continue
		}
		fq = fq.Where(f.Field, string(f.Op), Normalize(f.Value))
	}
	orders := q.SortOrders()
	for _, o := range orders {
		field := o.Field
		if field == FieldID {
			field = firestore.DocumentID
		}
		dir := firestore.Asc
		if o.Dir == Descending {
			dir = firestore.Desc
		}
		fq = fq.OrderBy(field, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	if c := q.StartAfter; c != nil {
		values := make([]interface{}, 0, len(orders))
		for _, v := range c.Values {
			values = append(values, Normalize(v))
		}
		if len(orders) > len(c.Values) {
			values = append(values, c.ID)
		}
		fq = fq.StartAfter(values...)
	}
	return fq
}

// docRefs converts id values into document references, which is what
// Firestore expects when filtering on the document id.
func docRefs(col *firestore.CollectionRef, v interface{}) interface{} {
	switch t := v.(type) {
	case string:
		return col.Doc(t)
	case []interface{}:
		refs := make([]interface{}, len(t))
		for i, e := range t {
			if id, ok := e.(string); ok {
				refs[i] = col.Doc(id)
			} else {
				refs[i] = e
			}
		}
		return refs
	}
	return v
}

func payload(data Fields) map[string]interface{} {
	out := make(map[string]interface{}, len(data))
	for k, v := range data {
		if k == FieldID {
			continue
		}
		out[k] = Normalize(v)
	}
	return out
}

func toUpdates(data Fields) []firestore.Update {
	updates := make([]firestore.Update, 0, len(data))
	for k, v := range data {
		if k == FieldID {
			continue
		}
		updates = append(updates, firestore.Update{FieldPath: firestore.FieldPath{k}, Value: Normalize(v)})
	}
	return updates
}

func fromSnapshot(snap *firestore.DocumentSnapshot) Document {
	return Document{ID: snap.Ref.ID, Data: NormalizeFields(snap.Data())}
}

func translateStatus(err error) error {
	switch status.Code(err) {
	case codes.OK:
		return err
	case codes.AlreadyExists:
		return ErrAlreadyExists
	case codes.NotFound:
		return ErrNotFound
	}
	return err
}
