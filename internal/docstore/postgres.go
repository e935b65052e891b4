package docstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// documentRow is the single table PostgresStore keeps every collection in.
type documentRow struct {
	Collection string `gorm:"primaryKey;size:512"`
	ID         string `gorm:"primaryKey;size:255"`
	Data       string `gorm:"type:jsonb;not null"`
	UpdatedAt  time.Time
}

func (documentRow) TableName() string { return "documents" }

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// timestamps are stored as {"$ts": "<fixed width UTC>"} so that jsonb
// equality and ordering agree with time ordering.
const (
	tsKey    = "$ts"
	tsLayout = "2006-01-02T15:04:05.000000000Z"
)

// PostgresStore implements Store on a JSONB table through gorm. The *gorm.DB
// must be opened with TranslateError so unique violations surface as
// gorm.ErrDuplicatedKey.
type PostgresStore struct {
	db           *gorm.DB
	pollInterval time.Duration
}

func NewPostgresStore(db *gorm.DB, pollInterval time.Duration) *PostgresStore {
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	return &PostgresStore{db: db, pollInterval: pollInterval}
}

// Migrate creates the documents table and its jsonb index.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.AutoMigrate(&documentRow{}); err != nil {
		return err
	}
	return db.Exec("CREATE INDEX IF NOT EXISTS documents_data_gin ON documents USING gin (data jsonb_path_ops)").Error
}

func (s *PostgresStore) Create(ctx context.Context, collection string, data Fields) (string, error) {
	id := uuid.NewString()
	if err := s.CreateWithID(ctx, collection, id, data); err != nil {
		return "", err
	}
	return id, nil
}

func (s *PostgresStore) CreateWithID(ctx context.Context, collection, id string, data Fields) error {
	return createRow(s.db.WithContext(ctx), collection, id, data)
}

func createRow(db *gorm.DB, collection, id string, data Fields) error {
	body, err := encodeJSON(data)
	if err != nil {
		return err
	}
	err = db.Create(&documentRow{Collection: collection, ID: id, Data: body}).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrAlreadyExists
	}
	return err
}

func (s *PostgresStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).Where("collection = ? AND id = ?", collection, id).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	doc, err := fromRow(row)
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *PostgresStore) Update(ctx context.Context, collection, id string, data Fields) error {
	return updateRow(s.db.WithContext(ctx), collection, id, data)
}

func updateRow(db *gorm.DB, collection, id string, data Fields) error {
	patch, err := encodeJSON(data)
	if err != nil {
		return err
	}
	res := db.Model(&documentRow{}).
		Where("collection = ? AND id = ?", collection, id).
		Update("data", gorm.Expr("data || ?::jsonb", patch))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, collection, id string) error {
	return s.db.WithContext(ctx).Where("collection = ? AND id = ?", collection, id).Delete(&documentRow{}).Error
}

func (s *PostgresStore) Query(ctx context.Context, collection string, q Query) ([]Document, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	tx := s.db.WithContext(ctx).Where("collection = ?", collection)
	orders := q.SortOrders()

	for _, f := range q.Where {
		sql, args, err := pgFilter(f)
		if err != nil {
			return nil, err
		}
		tx = tx.Where(sql, args...)
	}
	for _, o := range orders {
		expr, err := pgField(o.Field)
		if err != nil {
			return nil, err
		}
		if o.Field != FieldID {
			tx = tx.Where(expr + " IS NOT NULL")
		}
		dir := "ASC"
		if o.Dir == Descending {
			dir = "DESC"
		}
		tx = tx.Order(expr + " " + dir)
	}
	if q.StartAfter != nil {
		sql, args, err := pgCursor(q.StartAfter, orders)
		if err != nil {
			return nil, err
		}
		tx = tx.Where(sql, args...)
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}

	var rows []documentRow
	if err := tx.Find(&rows).Error; err != nil {
		return nil, err
	}
	docs := make([]Document, len(rows))
	for i, row := range rows {
		doc, err := fromRow(row)
		if err != nil {
			return nil, err
		}
		docs[i] = doc
	}
	return docs, nil
}

func (s *PostgresStore) Batch(ctx context.Context, collection string, writes []Write) ([]string, error) {
	if err := validateWrites(writes); err != nil {
		return nil, err
	}
	ids := make([]string, len(writes))
	for i, w := range writes {
		ids[i] = w.ID
		if w.Kind == WriteCreate && w.ID == "" {
			ids[i] = uuid.NewString()
		}
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i, w := range writes {
			var err error
			switch w.Kind {
			case WriteCreate:
				err = createRow(tx, collection, ids[i], w.Data)
			case WriteUpdate:
				err = updateRow(tx, collection, ids[i], w.Data)
			case WriteDelete:
				err = tx.Where("collection = ? AND id = ?", collection, ids[i]).Delete(&documentRow{}).Error
			}
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}

// Watch polls q and calls fn whenever the result differs from the last one
// delivered.
func (s *PostgresStore) Watch(ctx context.Context, collection string, q Query, fn func([]Document, error)) (Unsubscribe, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return s.poll(ctx, func(ctx context.Context) (interface{}, error) {
		return s.Query(ctx, collection, q)
	}, func(v interface{}, err error) {
		docs, _ := v.([]Document)
		fn(docs, err)
	}), nil
}

func (s *PostgresStore) WatchDocument(ctx context.Context, collection, id string, fn func(*Document, error)) (Unsubscribe, error) {
	return s.poll(ctx, func(ctx context.Context) (interface{}, error) {
		return s.Get(ctx, collection, id)
	}, func(v interface{}, err error) {
		doc, _ := v.(*Document)
		fn(doc, err)
	}), nil
}

func (s *PostgresStore) poll(ctx context.Context, load func(context.Context) (interface{}, error), deliver func(interface{}, error)) Unsubscribe {
	ctx, cancel := context.WithCancel(ctx)
	var once sync.Once
	go func() {
		ticker := time.NewTicker(s.pollInterval)
		defer ticker.Stop()
		var last []byte
		first := true
		for {
			v, err := load(ctx)
			if ctx.Err() != nil {
				return
			}
			if err != nil {
				deliver(nil, err)
			} else if fp, ferr := json.Marshal(fingerprint(v)); ferr == nil && (first || !bytes.Equal(fp, last)) {
				last, first = fp, false
				deliver(v, nil)
			}
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}
	}()
	return func() { once.Do(cancel) }
}

func fingerprint(v interface{}) interface{} {
	switch t := v.(type) {
	case []Document:
		out := make([]interface{}, len(t))
		for i, d := range t {
			out[i] = []interface{}{d.ID, toJSONValue(map[string]interface{}(d.Data))}
		}
		return out
	case *Document:
		if t == nil {
			return nil
		}
		return []interface{}{t.ID, toJSONValue(map[string]interface{}(t.Data))}
	}
	return nil
}

func (s *PostgresStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func pgField(field string) (string, error) {
	if field == FieldID {
		return "id", nil
	}
	if !fieldName.MatchString(field) {
		return "", invalidf("field name %q not supported by the postgres backend", field)
	}
	return "data -> '" + field + "'", nil
}

func pgFilter(f Filter) (string, []interface{}, error) {
	expr, err := pgField(f.Field)
	if err != nil {
		return "", nil, err
	}
	v := Normalize(f.Value)

	if f.Field == FieldID {
		switch f.Op {
		case OpEqual, OpNotEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
			op := string(f.Op)
			if f.Op == OpNotEqual {
				op = "<>"
			}
			return "id " + op + " ?", []interface{}{v}, nil
		case OpIn:
			return "id IN ?", []interface{}{asList(v)}, nil
		case OpNotIn:
			return "id NOT IN ?", []interface{}{asList(v)}, nil
		}
		return "", nil, invalidf("operator %s not supported on the document id", f.Op)
	}

	switch f.Op {
	case OpEqual:
		j, err := jsonText(v)
		return expr + " = ?::jsonb", []interface{}{j}, err
	case OpNotEqual:
		j, err := jsonText(v)
		return expr + " <> ?::jsonb AND " + expr + " <> 'null'::jsonb", []interface{}{j}, err
	case OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual:
		j, err := jsonText(v)
		return fmt.Sprintf("%s %s ?::jsonb AND jsonb_typeof(%s) = jsonb_typeof(?::jsonb)", expr, f.Op, expr),
			[]interface{}{j, j}, err
	case OpArrayContains:
		j, err := jsonText([]interface{}{v})
		return "jsonb_typeof(" + expr + ") = 'array' AND " + expr + " @> ?::jsonb", []interface{}{j}, err
	case OpArrayContainsAny:
		terms := make([]string, 0)
		args := make([]interface{}, 0)
		for _, e := range asList(v) {
			j, err := jsonText([]interface{}{e})
			if err != nil {
				return "", nil, err
			}
			terms = append(terms, expr+" @> ?::jsonb")
			args = append(args, j)
		}
		return "jsonb_typeof(" + expr + ") = 'array' AND (" + strings.Join(terms, " OR ") + ")", args, nil
	case OpIn, OpNotIn:
		marks := make([]string, 0)
		args := make([]interface{}, 0)
		for _, e := range asList(v) {
			j, err := jsonText(e)
			if err != nil {
				return "", nil, err
			}
			marks = append(marks, "?::jsonb")
			args = append(args, j)
		}
		if f.Op == OpIn {
			return expr + " IN (" + strings.Join(marks, ", ") + ")", args, nil
		}
		return expr + " NOT IN (" + strings.Join(marks, ", ") + ") AND " + expr + " <> 'null'::jsonb", args, nil
	}
	return "", nil, invalidf("unsupported operator %q", f.Op)
}

func pgCursor(c *Cursor, orders []Order) (string, []interface{}, error) {
	var terms []string
	var args []interface{}
	for i, o := range orders {
		var parts []string
		for j := 0; j <= i; j++ {
			expr, err := pgField(orders[j].Field)
			if err != nil {
				return "", nil, err
			}
			var v interface{} = c.ID
			if j < len(c.Values) {
				v = Normalize(c.Values[j])
			}
			op := "="
			if j == i {
				op = ">"
				if o.Dir == Descending {
					op = "<"
				}
			}
			if orders[j].Field == FieldID {
				parts = append(parts, "id "+op+" ?")
				args = append(args, v)
				continue
			}
			jv, err := jsonText(v)
			if err != nil {
				return "", nil, err
			}
			parts = append(parts, expr+" "+op+" ?::jsonb")
			args = append(args, jv)
		}
		terms = append(terms, "("+strings.Join(parts, " AND ")+")")
	}
	return "(" + strings.Join(terms, " OR ") + ")", args, nil
}

func encodeJSON(data Fields) (string, error) {
	m := make(map[string]interface{}, len(data))
	for k, v := range data {
		if k == FieldID {
			continue
		}
		m[k] = toJSONValue(Normalize(v))
	}
	return jsonText(m)
}

func jsonText(v interface{}) (string, error) {
	b, err := json.Marshal(toJSONValue(v))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func toJSONValue(v interface{}) interface{} {
	switch t := v.(type) {
	case time.Time:
		return map[string]interface{}{tsKey: t.UTC().Format(tsLayout)}
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = toJSONValue(e)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = toJSONValue(e)
		}
		return out
	}
	return v
}

func fromRow(row documentRow) (Document, error) {
	dec := json.NewDecoder(strings.NewReader(row.Data))
	dec.UseNumber()
	var raw map[string]interface{}
	if err := dec.Decode(&raw); err != nil {
		return Document{}, fmt.Errorf("decode %s/%s: %w", row.Collection, row.ID, err)
	}
	data := make(Fields, len(raw))
	for k, v := range raw {
		data[k] = fromJSONValue(v)
	}
	return Document{ID: row.ID, Data: data}, nil
}

func fromJSONValue(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		f, _ := t.Float64()
		return f
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, e := range t {
			out[i] = fromJSONValue(e)
		}
		return out
	case map[string]interface{}:
		if s, ok := t[tsKey].(string); ok && len(t) == 1 {
			if ts, err := time.Parse(tsLayout, s); err == nil {
				return ts
			}
		}
		out := make(map[string]interface{}, len(t))
		for k, e := range t {
			out[k] = fromJSONValue(e)
		}
		return out
	}
	return v
}
