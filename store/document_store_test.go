package store

import (
	"bytes"
	"encoding/gob"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/go-position-search/model"
)

func TestDocumentStore_AssignAndRemove(t *testing.T) {
	ds := NewDocumentStore()

	id, existed := ds.AssignUnsafe("a")
	assert.False(t, existed)
	assert.Equal(t, uint32(0), id)
	ds.PutUnsafe(id, model.Document{"documentID": "a"})

	id, existed = ds.AssignUnsafe("b")
	assert.False(t, existed)
	assert.Equal(t, uint32(1), id)
	ds.PutUnsafe(id, model.Document{"documentID": "b"})

	id, existed = ds.AssignUnsafe("a")
	assert.True(t, existed)
	assert.Equal(t, uint32(0), id)

	ds.RemoveUnsafe("a", 0)
	_, ok := ds.LookupUnsafe("a")
	assert.False(t, ok)
	assert.Equal(t, 1, ds.Len())

	id, _ = ds.AssignUnsafe("c")
	assert.Equal(t, uint32(2), id, "internal IDs are not reused")
}

func TestDocumentStore_GetReturnsCopy(t *testing.T) {
	ds := NewDocumentStore()
	id, _ := ds.AssignUnsafe("a")
	ds.PutUnsafe(id, model.Document{"documentID": "a", "title": "fox"})

	doc, ok := ds.Get("a")
	require.True(t, ok)
	doc["title"] = "changed"

	stored, _ := ds.DocUnsafe(id)
	assert.Equal(t, "fox", stored["title"])

	_, ok = ds.Get("missing")
	assert.False(t, ok)
}

func TestDocumentStore_InOrder(t *testing.T) {
	ds := NewDocumentStore()
	for _, ext := range []string{"x", "y", "z"} {
		id, _ := ds.AssignUnsafe(ext)
		ds.PutUnsafe(id, model.Document{"documentID": ext})
	}
	ds.RemoveUnsafe("y", 1)

	var ids []string
	for _, doc := range ds.InOrderUnsafe() {
		id, _ := doc.GetDocumentID()
		ids = append(ids, id)
	}
	assert.Equal(t, []string{"x", "z"}, ids)

	ds.ResetUnsafe()
	assert.Zero(t, ds.Len())
	assert.Zero(t, ds.NextID)
}

func TestDocumentStore_Gob(t *testing.T) {
	ds := NewDocumentStore()
	id, _ := ds.AssignUnsafe("a")
	ds.PutUnsafe(id, model.Document{
		"documentID": "a",
		"tags":       []interface{}{"news", "tech"},
		"mixed":      []interface{}{"one", 2.0},
		"year":       2020.0,
	})

	var buf bytes.Buffer
	require.NoError(t, gob.NewEncoder(&buf).Encode(ds))

	loaded := &DocumentStore{}
	require.NoError(t, gob.NewDecoder(&buf).Decode(loaded))

	doc, ok := loaded.Get("a")
	require.True(t, ok)
	assert.Equal(t, []string{"news", "tech"}, doc["tags"], "string arrays are narrowed")
	assert.Equal(t, []interface{}{"one", 2.0}, doc["mixed"])
	assert.Equal(t, 2020.0, doc["year"])
	assert.Equal(t, uint32(1), loaded.NextID)
}
