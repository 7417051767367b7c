// Package store keeps the original documents of an index and the mapping between the
// caller's document IDs and the dense internal IDs used by postings and term vectors.
package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sync"

	"github.com/gcbaptista/go-position-search/model"
)

func init() {
	// Documents decoded from JSON hold these dynamic types.
	gob.Register([]interface{}{})
	gob.Register(map[string]interface{}{})
	gob.Register([]string{})
	gob.Register(float64(0))
	gob.Register(false)
}

// DocumentStore maps internal IDs to documents. Internal IDs are assigned densely from NextID
// and never reused while the store lives, so they order documents by first insertion.
// Callers hold Mu around every method suffixed with Unsafe.
type DocumentStore struct {
	Mu                     sync.RWMutex
	Docs                   map[uint32]model.Document
	ExternalIDtoInternalID map[string]uint32
	NextID                 uint32
}

type gobDocumentStoreData struct {
	Docs                   map[uint32]model.Document
	ExternalIDtoInternalID map[string]uint32
	NextID                 uint32
}

// NewDocumentStore creates an empty store.
func NewDocumentStore() *DocumentStore {
	ds := &DocumentStore{}
	ds.ensureMaps()
	return ds
}

func (ds *DocumentStore) ensureMaps() {
	if ds.Docs == nil {
		ds.Docs = make(map[uint32]model.Document)
	}
	if ds.ExternalIDtoInternalID == nil {
		ds.ExternalIDtoInternalID = make(map[string]uint32)
	}
}

// Len returns the number of stored documents.
func (ds *DocumentStore) Len() int {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()
	return len(ds.Docs)
}

// Get returns a shallow copy of the document stored under externalID.
func (ds *DocumentStore) Get(externalID string) (model.Document, bool) {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	internalID, ok := ds.ExternalIDtoInternalID[externalID]
	if !ok {
		return nil, false
	}
	doc, ok := ds.Docs[internalID]
	if !ok {
		return nil, false
	}

	out := make(model.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out, true
}

// LookupUnsafe resolves an external ID to its internal ID.
func (ds *DocumentStore) LookupUnsafe(externalID string) (uint32, bool) {
	id, ok := ds.ExternalIDtoInternalID[externalID]
	return id, ok
}

// DocUnsafe returns the stored document of an internal ID.
func (ds *DocumentStore) DocUnsafe(internalID uint32) (model.Document, bool) {
	doc, ok := ds.Docs[internalID]
	return doc, ok
}

// AssignUnsafe returns the internal ID of externalID, allocating the next one for a new
// document. existed reports whether the ID was already mapped.
func (ds *DocumentStore) AssignUnsafe(externalID string) (internalID uint32, existed bool) {
	if id, ok := ds.ExternalIDtoInternalID[externalID]; ok {
		return id, true
	}
	id := ds.NextID
	ds.ExternalIDtoInternalID[externalID] = id
	ds.NextID++
	return id, false
}

// PutUnsafe stores doc under an already assigned internal ID.
func (ds *DocumentStore) PutUnsafe(internalID uint32, doc model.Document) {
	ds.Docs[internalID] = doc
}

// RemoveUnsafe drops the document and the mapping of externalID.
func (ds *DocumentStore) RemoveUnsafe(externalID string, internalID uint32) {
	delete(ds.Docs, internalID)
	delete(ds.ExternalIDtoInternalID, externalID)
}

// ResetUnsafe drops every document and restarts ID allocation at 0.
func (ds *DocumentStore) ResetUnsafe() {
	ds.Docs = make(map[uint32]model.Document)
	ds.ExternalIDtoInternalID = make(map[string]uint32)
	ds.NextID = 0
}

// InOrderUnsafe returns the stored documents in internal ID order.
func (ds *DocumentStore) InOrderUnsafe() []model.Document {
	docs := make([]model.Document, 0, len(ds.Docs))
	for id := uint32(0); id < ds.NextID; id++ {
		if doc, ok := ds.Docs[id]; ok {
			docs = append(docs, doc)
		}
	}
	return docs
}

// storable narrows JSON arrays of strings to []string so gob can encode them without
// registering every element type.
func storable(doc model.Document) model.Document {
	out := make(model.Document, len(doc))
	for k, val := range doc {
		items, ok := val.([]interface{})
		if !ok {
			out[k] = val
			continue
		}
		strs := make([]string, 0, len(items))
		for _, item := range items {
			s, isString := item.(string)
			if !isString {
				break
			}
			strs = append(strs, s)
		}
		if len(strs) == len(items) {
			out[k] = strs
		} else {
			out[k] = val
		}
	}
	return out
}

// GobEncode implements the gob.GobEncoder interface for DocumentStore.
func (ds *DocumentStore) GobEncode() ([]byte, error) {
	ds.Mu.RLock()
	defer ds.Mu.RUnlock()

	docs := make(map[uint32]model.Document, len(ds.Docs))
	for id, doc := range ds.Docs {
		docs[id] = storable(doc)
	}

	var buf bytes.Buffer
	data := gobDocumentStoreData{Docs: docs, ExternalIDtoInternalID: ds.ExternalIDtoInternalID, NextID: ds.NextID}
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return nil, fmt.Errorf("failed to gob encode document store: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for DocumentStore.
func (ds *DocumentStore) GobDecode(data []byte) error {
	decoded := gobDocumentStoreData{}
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&decoded); err != nil {
		return fmt.Errorf("failed to gob decode document store: %w", err)
	}

	ds.Mu.Lock()
	defer ds.Mu.Unlock()

	ds.Docs = decoded.Docs
	ds.ExternalIDtoInternalID = decoded.ExternalIDtoInternalID
	ds.NextID = decoded.NextID
	ds.ensureMaps()
	return nil
}
