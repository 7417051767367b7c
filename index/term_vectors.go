package index

import (
	"bytes"
	"encoding/gob"
	"sync"
)

// FieldTermVector holds, for one document and one field, the field length in tokens and the
// payload of every distinct term. Payloads carry the term's first-occurrence position (see
// EncodePosition) and are only written for position fields; other fields keep them nil.
type FieldTermVector struct {
	Length   int
	Payloads map[string][]byte
}

// TermVectors stores per-document term vectors for every searchable field.
// Generation increases on every mutation so readers can tell stale derived data apart.
type TermVectors struct {
	Mu         sync.RWMutex
	Docs       map[uint32]map[string]FieldTermVector // DocID -> field -> vector
	Generation uint64
}

type gobTermVectorsData struct {
	Docs       map[uint32]map[string]FieldTermVector
	Generation uint64
}

// NewTermVectors creates an empty term vector store.
func NewTermVectors() *TermVectors {
	return &TermVectors{Docs: make(map[uint32]map[string]FieldTermVector)}
}

// PutUnsafe stores the vector of (docID, field). The caller must hold the write lock.
func (tv *TermVectors) PutUnsafe(docID uint32, field string, vector FieldTermVector) {
	fields, ok := tv.Docs[docID]
	if !ok {
		fields = make(map[string]FieldTermVector)
		tv.Docs[docID] = fields
	}
	fields[field] = vector
	tv.Generation++
}

// RemoveDocUnsafe drops every vector of docID. The caller must hold the write lock.
func (tv *TermVectors) RemoveDocUnsafe(docID uint32) {
	delete(tv.Docs, docID)
	tv.Generation++
}

// ResetUnsafe drops all vectors. The caller must hold the write lock.
func (tv *TermVectors) ResetUnsafe() {
	tv.Docs = make(map[uint32]map[string]FieldTermVector)
	tv.Generation++
}

// GobEncode implements the gob.GobEncoder interface for TermVectors.
func (tv *TermVectors) GobEncode() ([]byte, error) {
	tv.Mu.RLock()
	defer tv.Mu.RUnlock()

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(gobTermVectorsData{Docs: tv.Docs, Generation: tv.Generation}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for TermVectors.
func (tv *TermVectors) GobDecode(data []byte) error {
	decoded := gobTermVectorsData{}
	if err := gob.NewDecoder(bytes.NewBuffer(data)).Decode(&decoded); err != nil {
		return err
	}

	tv.Mu.Lock()
	defer tv.Mu.Unlock()

	tv.Docs = decoded.Docs
	tv.Generation = decoded.Generation
	if tv.Docs == nil {
		tv.Docs = make(map[uint32]map[string]FieldTermVector)
	}
	return nil
}
