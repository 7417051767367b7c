package index

import (
	"bytes"
	"encoding/gob"
	"sort"
	"sync"

	"github.com/gcbaptista/go-position-search/config"
)

// InvertedIndex maps a term (token) to the postings of the documents containing it.
// Callers hold Mu while reading or mutating Index.
type InvertedIndex struct {
	Mu       sync.RWMutex
	Index    map[string]PostingList
	Settings *config.IndexSettings // Reference to settings for this index
}

// gobInvertedIndexData is a helper struct for Gob encoding/decoding InvertedIndex data.
// It excludes the mutex.
type gobInvertedIndexData struct {
	Index    map[string]PostingList
	Settings *config.IndexSettings
}

// NewInvertedIndex creates an empty inverted index bound to settings.
func NewInvertedIndex(settings *config.IndexSettings) *InvertedIndex {
	return &InvertedIndex{
		Index:    make(map[string]PostingList),
		Settings: settings,
	}
}

// PutUnsafe inserts or replaces the posting of (entry.DocID, entry.FieldName) for token,
// keeping the list sorted by DocID then FieldName. The caller must hold the write lock.
func (ii *InvertedIndex) PutUnsafe(token string, entry PostingEntry) {
	list := ii.Index[token]

	i := sort.Search(len(list), func(i int) bool {
		if list[i].DocID != entry.DocID {
			return list[i].DocID > entry.DocID
		}
		return list[i].FieldName >= entry.FieldName
	})

	if i < len(list) && list[i].DocID == entry.DocID && list[i].FieldName == entry.FieldName {
		list[i] = entry
		return
	}

	list = append(list, PostingEntry{})
	copy(list[i+1:], list[i:])
	list[i] = entry
	ii.Index[token] = list
}

// RemoveUnsafe drops the posting of (docID, field) for token and deletes the token when its
// list becomes empty. The caller must hold the write lock.
func (ii *InvertedIndex) RemoveUnsafe(token string, docID uint32, field string) {
	list, ok := ii.Index[token]
	if !ok {
		return
	}

	newList := make(PostingList, 0, len(list))
	for _, entry := range list {
		if entry.DocID != docID || entry.FieldName != field {
			newList = append(newList, entry)
		}
	}
	if len(newList) == 0 {
		delete(ii.Index, token)
		return
	}
	ii.Index[token] = newList
}

// GobEncode implements the gob.GobEncoder interface for InvertedIndex.
func (ii *InvertedIndex) GobEncode() ([]byte, error) {
	ii.Mu.RLock() // Ensure consistent data during encoding
	defer ii.Mu.RUnlock()

	dataToEncode := gobInvertedIndexData{
		Index:    ii.Index,
		Settings: ii.Settings,
	}

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(dataToEncode); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for InvertedIndex.
func (ii *InvertedIndex) GobDecode(data []byte) error {
	decodedData := gobInvertedIndexData{}

	buf := bytes.NewBuffer(data)
	decoder := gob.NewDecoder(buf)
	if err := decoder.Decode(&decodedData); err != nil {
		return err
	}

	ii.Mu.Lock() // Ensure exclusive access during decoding
	defer ii.Mu.Unlock()

	ii.Index = decodedData.Index
	// Settings are owned by the engine once loaded; keep the linked pointer if one was set.
	if ii.Settings == nil {
		ii.Settings = decodedData.Settings
	}

	if ii.Index == nil {
		ii.Index = make(map[string]PostingList)
	}
	return nil
}
