package docstore

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"reflect"
	"strconv"
	"time"
)

// Op is a filter operator. The set mirrors what Firestore accepts.
type Op string

const (
	OpEqual            Op = "=="
	OpNotEqual         Op = "!="
	OpLess             Op = "<"
	OpLessOrEqual      Op = "<="
	OpGreater          Op = ">"
	OpGreaterOrEqual   Op = ">="
	OpArrayContains    Op = "array-contains"
	OpArrayContainsAny Op = "array-contains-any"
	OpIn               Op = "in"
	OpNotIn            Op = "not-in"
)

// MaxDisjunction bounds the value list of in, not-in and array-contains-any.
const MaxDisjunction = 30

func (o Op) inequality() bool {
	switch o {
	case OpNotEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual, OpNotIn:
		return true
	}
	return false
}

func (o Op) takesList() bool {
	return o == OpIn || o == OpNotIn || o == OpArrayContainsAny
}

type Direction int

const (
	Ascending Direction = iota
	Descending
)

type Filter struct {
	Field string
	Op    Op
	Value interface{}
}

// Where builds a Filter.
func Where(field string, op Op, value interface{}) Filter {
	return Filter{Field: field, Op: op, Value: value}
}

type Order struct {
	Field string
	Dir   Direction
}

func Asc(field string) Order  { return Order{Field: field, Dir: Ascending} }
func Desc(field string) Order { return Order{Field: field, Dir: Descending} }

// Cursor marks the position to resume after: the values of the ordered
// fields of the last item plus its document id.
type Cursor struct {
	Values []interface{}
	ID     string
}

// Query describes a filtered, ordered and limited read. Filters are ANDed.
// A zero Limit means no limit.
type Query struct {
	Where      []Filter
	OrderBy    []Order
	Limit      int
	StartAfter *Cursor
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidQuery, fmt.Sprintf(format, args...))
}

// Validate reports query-construction errors. Every backend calls it before
// touching the database so that all of them reject the same queries.
func (q Query) Validate() error {
	var inequalityField string
	arrayFilters, notIn, notEqual := 0, 0, 0
	for _, f := range q.Where {
		if f.Field == "" {
			return invalidf("filter without a field")
		}
		switch f.Op {
		case OpEqual, OpNotEqual, OpLess, OpLessOrEqual, OpGreater, OpGreaterOrEqual,
			OpArrayContains, OpArrayContainsAny, OpIn, OpNotIn:
		default:
			return invalidf("unsupported operator %q", f.Op)
		}
		if f.Op.takesList() {
			n, ok := listLen(f.Value)
			if !ok {
				return invalidf("operator %s on %q needs a list value", f.Op, f.Field)
			}
			if n == 0 || n > MaxDisjunction {
				return invalidf("operator %s on %q takes 1 to %d values, got %d", f.Op, f.Field, MaxDisjunction, n)
			}
		}
		if f.Op.inequality() {
			if inequalityField != "" && inequalityField != f.Field {
				return invalidf("range filters on %q and %q need a composite index", inequalityField, f.Field)
			}
			inequalityField = f.Field
		}
		switch f.Op {
		case OpArrayContains, OpArrayContainsAny:
			arrayFilters++
		case OpNotIn:
			notIn++
		case OpNotEqual:
			notEqual++
		}
	}
	if arrayFilters > 1 {
		return invalidf("at most one array-contains or array-contains-any filter")
	}
	if notIn > 1 || (notIn > 0 && notEqual > 0) {
		return invalidf("not-in cannot be combined with another not-in or != filter")
	}
	for _, o := range q.OrderBy {
		if o.Field == "" {
			return invalidf("order without a field")
		}
		if o.Dir != Ascending && o.Dir != Descending {
			return invalidf("unknown direction on %q", o.Field)
		}
	}
	if inequalityField != "" && len(q.OrderBy) > 0 && q.OrderBy[0].Field != inequalityField {
		return invalidf("first order must be on range field %q", inequalityField)
	}
	if q.Limit < 0 {
		return invalidf("negative limit %d", q.Limit)
	}
	if c := q.StartAfter; c != nil {
		if len(c.Values) != len(q.Orders()) {
			return invalidf("cursor has %d values for %d orders", len(c.Values), len(q.Orders()))
		}
		if c.ID == "" {
			return invalidf("cursor without a document id")
		}
	}
	return nil
}

func (q Query) inequalityField() string {
	for _, f := range q.Where {
		if f.Op.inequality() {
			return f.Field
		}
	}
	return ""
}

// Orders returns the ordering the query runs with, excluding the implicit
// document id tiebreak. A range filter without an explicit order sorts
// ascending on the range field.
func (q Query) Orders() []Order {
	if len(q.OrderBy) > 0 {
		return q.OrderBy
	}
	if f := q.inequalityField(); f != "" {
		return []Order{Asc(f)}
	}
	return nil
}

// SortOrders is Orders followed by the document id tiebreak, which takes the
// direction of the last order.
func (q Query) SortOrders() []Order {
	orders := q.Orders()
	out := make([]Order, 0, len(orders)+1)
	out = append(out, orders...)
	if len(orders) > 0 && orders[len(orders)-1].Field == FieldID {
		return out
	}
	dir := Ascending
	if len(orders) > 0 {
		dir = orders[len(orders)-1].Dir
	}
	return append(out, Order{Field: FieldID, Dir: dir})
}

// CursorAt returns the cursor that resumes q right after doc.
func CursorAt(q Query, doc Document) *Cursor {
	orders := q.Orders()
	c := &Cursor{Values: make([]interface{}, len(orders)), ID: doc.ID}
	for i, o := range orders {
		c.Values[i] = fieldValue(doc, o.Field)
	}
	return c
}

func fieldValue(doc Document, field string) interface{} {
	if field == FieldID {
		return doc.ID
	}
	return doc.Data[field]
}

func listLen(v interface{}) (int, bool) {
	if v == nil {
		return 0, false
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return 0, false
	}
	return rv.Len(), true
}

type cursorToken struct {
	Values []cursorValue `json:"v"`
	ID     string        `json:"id"`
}

type cursorValue struct {
	Kind  string `json:"k"`
	Value string `json:"v,omitempty"`
}

// EncodeCursor turns a cursor into an opaque URL-safe token that keeps the
// value types, so a timestamp comes back as a timestamp.
func EncodeCursor(c *Cursor) (string, error) {
	if c == nil {
		return "", nil
	}
	tok := cursorToken{ID: c.ID, Values: make([]cursorValue, len(c.Values))}
	for i, raw := range c.Values {
		switch v := Normalize(raw).(type) {
		case nil:
			tok.Values[i] = cursorValue{Kind: "null"}
		case bool:
			tok.Values[i] = cursorValue{Kind: "bool", Value: strconv.FormatBool(v)}
		case int64:
			tok.Values[i] = cursorValue{Kind: "int", Value: strconv.FormatInt(v, 10)}
		case float64:
			tok.Values[i] = cursorValue{Kind: "float", Value: strconv.FormatFloat(v, 'g', -1, 64)}
		case string:
			tok.Values[i] = cursorValue{Kind: "string", Value: v}
		case time.Time:
			tok.Values[i] = cursorValue{Kind: "time", Value: v.Format(time.RFC3339Nano)}
		default:
			return "", fmt.Errorf("cursor value of type %T cannot be encoded", raw)
		}
	}
	b, err := json.Marshal(tok)
	if err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// DecodeCursor parses a token produced by EncodeCursor. An empty token
// decodes to a nil cursor.
func DecodeCursor(token string) (*Cursor, error) {
	if token == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, invalidf("malformed cursor")
	}
	var tok cursorToken
	if err := json.Unmarshal(b, &tok); err != nil {
		return nil, invalidf("malformed cursor")
	}
	c := &Cursor{ID: tok.ID, Values: make([]interface{}, len(tok.Values))}
	for i, cv := range tok.Values {
		var v interface{}
		switch cv.Kind {
		case "null":
		case "bool":
			v, err = strconv.ParseBool(cv.Value)
		case "int":
			v, err = strconv.ParseInt(cv.Value, 10, 64)
		case "float":
			v, err = strconv.ParseFloat(cv.Value, 64)
		case "string":
			v = cv.Value
		case "time":
			v, err = time.Parse(time.RFC3339Nano, cv.Value)
		default:
			return nil, invalidf("unknown cursor value kind %q", cv.Kind)
		}
		if err != nil {
			return nil, invalidf("malformed cursor value")
		}
		c.Values[i] = v
	}
	return c, nil
}
