package docstore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type kind string

type sample struct {
	ID        string    `doc:"id"`
	Name      string    `doc:"name"`
	Count     int       `doc:"count"`
	Tags      []string  `doc:"tags"`
	Kind      kind      `doc:"kind"`
	Parent    *string   `doc:"parent"`
	Note      string    `doc:"note,omitempty"`
	Secret    string    `doc:"-"`
	CreatedAt time.Time `doc:"createdAt"`
}

func TestEncode(t *testing.T) {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.FixedZone("BRT", -3*3600))
	fields, err := Encode(&sample{ID: "s1", Name: "ana", Count: 2, Kind: "post", Secret: "x", CreatedAt: ts})
	require.NoError(t, err)

	assert.Equal(t, Fields{
		"name":      "ana",
		"count":     int64(2),
		"tags":      []interface{}{},
		"kind":      "post",
		"parent":    nil,
		"createdAt": ts.UTC(),
	}, fields)
}

func TestEncodeRejectsNonStruct(t *testing.T) {
	_, err := Encode(42)
	assert.Error(t, err)
	var s *sample
	_, err = Encode(s)
	assert.Error(t, err)
}

func TestDecode(t *testing.T) {
	ts := time.Date(2024, 3, 1, 13, 0, 0, 0, time.UTC)
	parent := "c0"
	var out sample
	err := Decode(Document{ID: "s1", Data: Fields{
		"name":      "ana",
		"count":     int64(7),
		"tags":      []interface{}{"a", "b"},
		"kind":      "comment",
		"parent":    parent,
		"createdAt": ts,
		"unknown":   true,
	}}, &out)
	require.NoError(t, err)

	assert.Equal(t, "s1", out.ID)
	assert.Equal(t, "ana", out.Name)
	assert.Equal(t, 7, out.Count)
	assert.Equal(t, []string{"a", "b"}, out.Tags)
	assert.Equal(t, kind("comment"), out.Kind)
	require.NotNil(t, out.Parent)
	assert.Equal(t, "c0", *out.Parent)
	assert.True(t, ts.Equal(out.CreatedAt))
}

func TestDecodeNullPointer(t *testing.T) {
	var out sample
	require.NoError(t, Decode(Document{ID: "s2", Data: Fields{"parent": nil}}, &out))
	assert.Nil(t, out.Parent)
}
