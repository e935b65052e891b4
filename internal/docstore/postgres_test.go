package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostgresJSONRoundTrip(t *testing.T) {
	ts := time.Date(2024, 6, 1, 8, 0, 0, 500, time.UTC)
	body, err := encodeJSON(Fields{
		"id":        "ignored",
		"username":  "ana",
		"count":     3,
		"ratio":     0.5,
		"grams":     []string{"an", "na"},
		"createdAt": ts,
		"parent":    nil,
	})
	require.NoError(t, err)
	assert.NotContains(t, body, "ignored")

	doc, err := fromRow(documentRow{Collection: "users", ID: "u1", Data: body})
	require.NoError(t, err)
	assert.Equal(t, "u1", doc.ID)
	assert.Equal(t, Fields{
		"username":  "ana",
		"count":     int64(3),
		"ratio":     0.5,
		"grams":     []interface{}{"an", "na"},
		"createdAt": ts,
		"parent":    nil,
	}, doc.Data)
}

func TestPostgresTimestampsSortAsText(t *testing.T) {
	a, err := jsonText(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	b, err := jsonText(time.Date(2024, 1, 1, 0, 0, 0, 1, time.UTC))
	require.NoError(t, err)
	assert.Less(t, a, b)
}

func TestPgFilter(t *testing.T) {
	sql, args, err := pgFilter(Where("userId", OpEqual, "u1"))
	require.NoError(t, err)
	assert.Equal(t, "data -> 'userId' = ?::jsonb", sql)
	assert.Equal(t, []interface{}{`"u1"`}, args)

	sql, args, err = pgFilter(Where("searchGrams2", OpArrayContainsAny, []string{"an", "na"}))
	require.NoError(t, err)
	assert.Equal(t, "jsonb_typeof(data -> 'searchGrams2') = 'array' AND (data -> 'searchGrams2' @> ?::jsonb OR data -> 'searchGrams2' @> ?::jsonb)", sql)
	assert.Equal(t, []interface{}{`["an"]`, `["na"]`}, args)

	sql, args, err = pgFilter(Where(FieldID, OpIn, []string{"a", "b"}))
	require.NoError(t, err)
	assert.Equal(t, "id IN ?", sql)
	assert.Equal(t, []interface{}{[]interface{}{"a", "b"}}, args)

	_, _, err = pgFilter(Where("bad field", OpEqual, 1))
	assert.ErrorIs(t, err, ErrInvalidQuery)

	_, _, err = pgFilter(Where(FieldID, OpArrayContains, "x"))
	assert.ErrorIs(t, err, ErrInvalidQuery)
}

func TestPgCursor(t *testing.T) {
	orders := []Order{Desc("createdAt"), Desc(FieldID)}
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	sql, args, err := pgCursor(&Cursor{Values: []interface{}{ts}, ID: "c3"}, orders)
	require.NoError(t, err)
	assert.Equal(t, "((data -> 'createdAt' < ?::jsonb) OR (data -> 'createdAt' = ?::jsonb AND id < ?))", sql)
	require.Len(t, args, 3)
	assert.Equal(t, "c3", args[2])
}
