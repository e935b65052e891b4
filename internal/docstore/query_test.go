package docstore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueryValidate(t *testing.T) {
	tests := []struct {
		name    string
		query   Query
		wantErr bool
	}{
		{"empty", Query{}, false},
		{"equality and order", Query{
			Where:   []Filter{Where("userId", OpEqual, "u1")},
			OrderBy: []Order{Desc("createdAt")},
		}, false},
		{"unknown operator", Query{Where: []Filter{Where("a", Op("like"), "x")}}, true},
		{"missing field", Query{Where: []Filter{Where("", OpEqual, 1)}}, true},
		{"in with scalar", Query{Where: []Filter{Where("a", OpIn, "x")}}, true},
		{"in with empty list", Query{Where: []Filter{Where("a", OpIn, []string{})}}, true},
		{"in with 31 values", Query{Where: []Filter{Where("a", OpIn, make([]string, 31))}}, true},
		{"in with 30 values", Query{Where: []Filter{Where("a", OpIn, make([]string, 30))}}, false},
		{"two array filters", Query{Where: []Filter{
			Where("tags", OpArrayContains, "a"),
			Where("grams", OpArrayContainsAny, []string{"b"}),
		}}, true},
		{"range on two fields", Query{Where: []Filter{
			Where("a", OpGreater, 1),
			Where("b", OpLess, 2),
		}}, true},
		{"range on one field twice", Query{Where: []Filter{
			Where("a", OpGreaterOrEqual, 1),
			Where("a", OpLess, 5),
		}}, false},
		{"range with foreign first order", Query{
			Where:   []Filter{Where("a", OpGreater, 1)},
			OrderBy: []Order{Asc("b")},
		}, true},
		{"not-in with not-equal", Query{Where: []Filter{
			Where("a", OpNotIn, []int{1}),
			Where("a", OpNotEqual, 2),
		}}, true},
		{"negative limit", Query{Limit: -1}, true},
		{"cursor length mismatch", Query{
			OrderBy:    []Order{Desc("createdAt")},
			StartAfter: &Cursor{ID: "x"},
		}, true},
		{"cursor without id", Query{
			OrderBy:    []Order{Desc("createdAt")},
			StartAfter: &Cursor{Values: []interface{}{time.Now()}},
		}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.query.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidQuery))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestSortOrders(t *testing.T) {
	q := Query{Where: []Filter{Where("username", OpGreaterOrEqual, "an")}}
	assert.Equal(t, []Order{Asc("username"), Asc(FieldID)}, q.SortOrders())

	q = Query{OrderBy: []Order{Desc("createdAt")}}
	assert.Equal(t, []Order{Desc("createdAt"), Desc(FieldID)}, q.SortOrders())

	q = Query{OrderBy: []Order{Asc(FieldID)}}
	assert.Equal(t, []Order{Asc(FieldID)}, q.SortOrders())
}

func TestCursorTokenKeepsTypes(t *testing.T) {
	ts := time.Date(2024, 5, 1, 12, 30, 0, 123456000, time.UTC)
	in := &Cursor{Values: []interface{}{ts, 42, 1.5, "ana", true, nil}, ID: "doc-1"}

	token, err := EncodeCursor(in)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	out, err := DecodeCursor(token)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", out.ID)
	assert.Equal(t, []interface{}{ts, int64(42), 1.5, "ana", true, nil}, out.Values)
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	c, err := DecodeCursor("")
	require.NoError(t, err)
	assert.Nil(t, c)

	_, err = DecodeCursor("!!not-base64!!")
	assert.ErrorIs(t, err, ErrInvalidQuery)
}
