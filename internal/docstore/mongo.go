package docstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Bookkeeping fields of MongoStore documents. A collection path
// "users/42/followers" is stored in the Mongo collection "followers" with
// _parent "users/42"; _id is the full path so ids only need to be unique
// within their parent.
const (
	mongoParent = "_parent"
	mongoDocID  = "_docId"
)

// MongoStore implements Store on MongoDB.
type MongoStore struct {
	db           *mongo.Database
	transactions bool
}

type MongoOption func(*MongoStore)

// WithTransactions makes Batch run inside a multi-document transaction,
// which needs a replica set.
func WithTransactions() MongoOption {
	return func(s *MongoStore) { s.transactions = true }
}

func NewMongoStore(db *mongo.Database, opts ...MongoOption) *MongoStore {
	s := &MongoStore{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureIndexes creates the (_parent, _docId) index on each named Mongo
// collection.
func (s *MongoStore) EnsureIndexes(ctx context.Context, collections ...string) error {
	for _, name := range collections {
		_, err := s.db.Collection(name).Indexes().CreateOne(ctx, mongo.IndexModel{
			Keys: bson.D{{Key: mongoParent, Value: 1}, {Key: mongoDocID, Value: 1}},
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func splitPath(path string) (parent, name string) {
	i := strings.LastIndex(path, "/")
	if i < 0 {
		return "", path
	}
	return path[:i], path[i+1:]
}

func (s *MongoStore) coll(path string) (*mongo.Collection, string) {
	parent, name := splitPath(path)
	return s.db.Collection(name), parent
}

func mongoKey(parent, id string) string {
	if parent == "" {
		return id
	}
	return parent + "/" + id
}

func mongoDoc(parent, id string, data Fields) bson.M {
	doc := bson.M{}
	for k, v := range data {
		if k == FieldID {
			continue
		}
		doc[k] = Normalize(v)
	}
	doc["_id"] = mongoKey(parent, id)
	doc[mongoParent] = parent
	doc[mongoDocID] = id
	return doc
}

func (s *MongoStore) Create(ctx context.Context, collection string, data Fields) (string, error) {
	id := primitive.NewObjectID().Hex()
	if err := s.CreateWithID(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *MongoStore) CreateWithID(ctx context.Context, collection, id string, data Fields) error {
	c, parent := s.coll(collection)
	_, err := c.InsertOne(ctx, mongoDoc(parent, id, data))
	if mongo.IsDuplicateKeyError(err) {
		return ErrAlreadyExists
	}
	return err
}

func (s *MongoStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	c, parent := s.coll(collection)
	var raw bson.M
	err := c.FindOne(ctx, bson.M{"_id": mongoKey(parent, id)}).Decode(&raw)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	doc := fromMongo(raw)
	return &doc, nil
}

func (s *MongoStore) Update(ctx context.Context, collection, id string, data Fields) error {
	c, parent := s.coll(collection)
	res, err := c.UpdateOne(ctx, bson.M{"_id": mongoKey(parent, id)}, bson.M{"$set": setFields(data)})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, collection, id string) error {
	c, parent := s.coll(collection)
	_, err := c.DeleteOne(ctx, bson.M{"_id": mongoKey(parent, id)})
	return err
}

func (s *MongoStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	c, parent := s.coll(collection)
	orders := q.SortOrders()

	sort := bson.D{}
	for _, o := range orders {
		dir := 1
		if o.Dir == Descending {
			dir = -1
		}
		sort = append(sort, bson.E{Key: mongoField(o.Field), Value: dir})
	}
	opts := options.Find().SetSort(sort)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cur, err := c.Find(ctx, mongoFilter(parent, q, orders), opts)
	if err != nil {
		return nil, err
	}
	var raw []bson.M
	if err := cur.All(ctx, &raw); err != nil {
		return nil, err
	}
	docs := make([]Document, len(raw))
	for i, m := range raw {
		docs[i] = fromMongo(m)
	}
	return docs, nil
}

func (s *MongoStore) Batch(ctx context.Context, collection string, writes []Write) ([]string, error) {
	if err := validateWrites(writes); err != nil {
		return nil, err
	}
	c, parent := s.coll(collection)
	ids := make([]string, len(writes))
	models := make([]mongo.WriteModel, 0, len(writes))
	updates := 0
	for i, w := range writes {
		ids[i] = w.ID
		switch w.Kind {
		case WriteCreate:
			if ids[i] == "" {
				ids[i] = primitive.NewObjectID().Hex()
			}
			models = append(models, mongo.NewInsertOneModel().SetDocument(mongoDoc(parent, ids[i], w.Data)))
		case WriteUpdate:
			updates++
			models = append(models, mongo.NewUpdateOneModel().
				SetFilter(bson.M{"_id": mongoKey(parent, w.ID)}).
				SetUpdate(bson.M{"$set": setFields(w.Data)}))
		case WriteDelete:
			models = append(models, mongo.NewDeleteOneModel().SetFilter(bson.M{"_id": mongoKey(parent, w.ID)}))
		}
	}
	if len(models) == 0 {
		return ids, nil
	}

	apply := func(ctx context.Context) error {
		res, err := c.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true))
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyExists
		}
		if err != nil {
			return err
		}
		if res.MatchedCount < int64(updates) {
			return ErrNotFound
		}
		return nil
	}

	if !s.transactions {
		if err := apply(ctx); err != nil {
			return nil, err
		}
		return ids, nil
	}
	sess, err := s.db.Client().StartSession()
	if err != nil {
		return nil, err
	}
	defer sess.EndSession(ctx)
	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, apply(sc)
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Watch re-runs q whenever the backing Mongo collection reports a change.
func (s *MongoStore) Watch(ctx context.Context, collection string, q Query, fn func([]Document, error)) (Unsubscribe, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	c, _ := s.coll(collection)
	ctx, cancel := context.WithCancel(ctx)
	stream, err := c.Watch(ctx, mongo.Pipeline{})
	if err != nil {
		cancel()
		return nil, err
	}
	go func() {
		defer stream.Close(context.Background())
		fn(s.Query(ctx, collection, q))
		for stream.Next(ctx) {
			docs, err := s.Query(ctx, collection, q)
			if ctx.Err() != nil {
				return
			}
			fn(docs, err)
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			fn(nil, err)
		}
	}()
	return Unsubscribe(cancel), nil
}

func (s *MongoStore) WatchDocument(ctx context.Context, collection, id string, fn func(*Document, error)) (Unsubscribe, error) {
	c, parent := s.coll(collection)
	ctx, cancel := context.WithCancel(ctx)
	match := bson.D{{Key: "$match", Value: bson.D{{Key: "documentKey._id", Value: mongoKey(parent, id)}}}}
	stream, err := c.Watch(ctx, mongo.Pipeline{match})
	if err != nil {
		cancel()
		return nil, err
	}
	go func() {
		defer stream.Close(context.Background())
		fn(s.Get(ctx, collection, id))
		for stream.Next(ctx) {
			doc, err := s.Get(ctx, collection, id)
			if ctx.Err() != nil {
				return
			}
			fn(doc, err)
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			fn(nil, err)
		}
	}()
	return Unsubscribe(cancel), nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.db.Client().Disconnect(ctx)
}

func mongoField(field string) string {
	if field == FieldID {
		return mongoDocID
	}
	return field
}

func setFields(data Fields) bson.M {
	set := bson.M{}
	for k, v := range data {
		if k == FieldID {
			continue
		}
		set[k] = Normalize(v)
	}
	return set
}

func mongoFilter(parent string, q Query, orders []Order) bson.D {
	and := bson.A{bson.D{{Key: mongoParent, Value: parent}}}
	for _, f := range q.Where {
		field := mongoField(f.Field)
		v := Normalize(f.Value)
		var cond interface{}
		switch f.Op {
		case OpEqual:
			cond = bson.D{{Key: "$eq", Value: v}, {Key: "$exists", Value: true}}
		case OpNotEqual:
			cond = bson.D{{Key: "$nin", Value: bson.A{v, nil}}, {Key: "$exists", Value: true}}
		case OpLess:
			cond = bson.D{{Key: "$lt", Value: v}}
		case OpLessOrEqual:
			cond = bson.D{{Key: "$lte", Value: v}}
		case OpGreater:
			cond = bson.D{{Key: "$gt", Value: v}}
		case OpGreaterOrEqual:
			cond = bson.D{{Key: "$gte", Value: v}}
		case OpArrayContains:
			cond = bson.D{{Key: "$elemMatch", Value: bson.D{{Key: "$eq", Value: v}}}}
		case OpArrayContainsAny:
			cond = bson.D{{Key: "$elemMatch", Value: bson.D{{Key: "$in", Value: v}}}}
		case OpIn:
			cond = bson.D{{Key: "$in", Value: v}}
		case OpNotIn:
			list := append(asList(v), nil)
			cond = bson.D{{Key: "$nin", Value: list}, {Key: "$exists", Value: true}}
		}
		and = append(and, bson.D{{Key: field, Value: cond}})
	}
	for _, o := range orders {
		if o.Field != FieldID {
			and = append(and, bson.D{{Key: o.Field, Value: bson.D{{Key: "$exists", Value: true}}}})
		}
	}
	if c := q.StartAfter; c != nil {
		and = append(and, mongoCursor(c, orders))
	}
	return bson.D{{Key: "$and", Value: and}}
}

// mongoCursor expresses "sorts after c" as an $or of prefix-equal terms.
func mongoCursor(c *Cursor, orders []Order) bson.D {
	values := make([]interface{}, len(orders))
	for i := range orders {
		if i < len(c.Values) {
			values[i] = Normalize(c.Values[i])
		} else {
			values[i] = c.ID
		}
	}
	or := bson.A{}
	for i, o := range orders {
		term := bson.D{}
		for j := 0; j < i; j++ {
			term = append(term, bson.E{Key: mongoField(orders[j].Field), Value: values[j]})
		}
		op := "$gt"
		if o.Dir == Descending {
			op = "$lt"
		}
		term = append(term, bson.E{Key: mongoField(o.Field), Value: bson.D{{Key: op, Value: values[i]}}})
		or = append(or, term)
	}
	return bson.D{{Key: "$or", Value: or}}
}

func fromMongo(raw bson.M) Document {
	doc := Document{Data: Fields{}}
	if id, ok := raw[mongoDocID].(string); ok {
		doc.ID = id
	}
	for k, v := range raw {
		switch k {
		case "_id", mongoParent, mongoDocID:
			continue
		}
		doc.Data[k] = fromBSON(v)
	}
	return doc
}

func fromBSON(v interface{}) interface{} {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UTC()
	case primitive.A:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = fromBSON(e)
		}
		return out
	case primitive.M:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = fromBSON(e)
		}
		return out
	case primitive.D:
		out := make(map[string]interface{}, len(t))
		for _, e := range t {
			out[e.Key] = fromBSON(e.Value)
		}
		return out
	case int32:
		return int64(t)
	}
	return Normalize(v)
}
