package engine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-position-search/config"
	"github.com/gcbaptista/go-position-search/index"
	apperrors "github.com/gcbaptista/go-position-search/internal/errors"
	"github.com/gcbaptista/go-position-search/internal/persistence"
	"github.com/gcbaptista/go-position-search/store"
)

const (
	dataDirPerm       = 0755
	settingsFile      = "settings.gob"
	invertedIndexFile = "inverted_index.gob"
	documentStoreFile = "document_store.gob"
	termVectorsFile   = "term_vectors.gob"
)

// loadIndexesFromDisk loads all indexes from the data directory.
func (e *Engine) loadIndexesFromDisk() {
	e.logger.Info("loading indexes from disk", zap.String("data_dir", e.dataDir))

	if err := os.MkdirAll(e.dataDir, dataDirPerm); err != nil {
		e.logger.Warn("could not create data directory", zap.String("data_dir", e.dataDir), zap.Error(err))
	}

	items, err := os.ReadDir(e.dataDir)
	if err != nil {
		e.logger.Warn("failed to read data directory, no indexes loaded", zap.String("data_dir", e.dataDir), zap.Error(err))
		return
	}

	for _, item := range items {
		if !item.IsDir() {
			continue
		}
		instance, err := e.loadIndex(item.Name())
		if err != nil {
			e.logger.Warn("skipping index", zap.String("index", item.Name()), zap.Error(err))
			continue
		}
		e.indexes[item.Name()] = instance
		e.logger.Info("index loaded",
			zap.String("index", item.Name()),
			zap.Int("documents", instance.DocumentStore.Len()))
	}
}

// loadIndex reads one index directory. Missing data files start empty; a missing term vector
// file on a non-empty index is rebuilt from the stored documents.
func (e *Engine) loadIndex(indexName string) (*IndexInstance, error) {
	indexPath := filepath.Join(e.dataDir, indexName)
	logger := e.logger.With(zap.String("index", indexName))

	settings := &config.IndexSettings{}
	if err := persistence.LoadGob(filepath.Join(indexPath, settingsFile), settings); err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if settings.Name != indexName {
		return nil, fmt.Errorf("index name in settings ('%s') does not match directory name", settings.Name)
	}
	settings.ApplyDefaults()

	docStore := store.NewDocumentStore()
	if err := loadOrEmpty(filepath.Join(indexPath, documentStoreFile), docStore, logger); err != nil {
		docStore.ResetUnsafe()
	}

	invIndex := &index.InvertedIndex{Settings: settings}
	if err := loadOrEmpty(filepath.Join(indexPath, invertedIndexFile), invIndex, logger); err != nil {
		invIndex.Index = make(map[string]index.PostingList)
	}

	vectors := index.NewTermVectors()
	vectorsErr := loadOrEmpty(filepath.Join(indexPath, termVectorsFile), vectors, logger)

	instance, err := newIndexInstance(settings, invIndex, docStore, vectors, e.logger, e.metrics)
	if err != nil {
		return nil, err
	}

	if docs := docStore.Len(); vectorsErr != nil && docs > 0 {
		logger.Info("term vectors unavailable, reindexing stored documents", zap.Int("documents", docs))
		if err := instance.reindex(); err != nil {
			return nil, fmt.Errorf("failed to rebuild term vectors: %w", err)
		}
	}
	return instance, nil
}

// loadOrEmpty decodes path into target. It returns a non-nil error when the caller must start
// from an empty structure: the file is missing or unreadable.
func loadOrEmpty(path string, target interface{}, logger *zap.Logger) error {
	err := persistence.LoadGob(path, target)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, os.ErrNotExist):
		logger.Info("data file not found, starting empty", zap.String("path", path))
	default:
		logger.Warn("failed to load data file, starting empty", zap.String("path", path), zap.Error(err))
	}
	return err
}

// PersistIndexData persists the data for a specific index to disk.
func (e *Engine) PersistIndexData(indexName string) error {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.indexes[indexName]
	if !exists {
		return fmt.Errorf("cannot persist: %w", apperrors.NewIndexNotFoundError(indexName))
	}
	return e.persistIndexUnsafe(indexName, instance)
}

// persistIndexUnsafe writes every file of an index. The caller holds e.mu.
// The stores take their own read locks while encoding.
func (e *Engine) persistIndexUnsafe(name string, instance *IndexInstance) error {
	indexPath := filepath.Join(e.dataDir, name)
	if err := os.MkdirAll(indexPath, dataDirPerm); err != nil {
		return fmt.Errorf("failed to create directory for index %s: %w", name, err)
	}

	err := persistence.SaveAll(indexPath,
		persistence.File{Name: settingsFile, Object: *instance.settings},
		persistence.File{Name: invertedIndexFile, Object: instance.InvertedIndex},
		persistence.File{Name: documentStoreFile, Object: instance.DocumentStore},
		persistence.File{Name: termVectorsFile, Object: instance.TermVectors},
	)
	if err != nil {
		return fmt.Errorf("failed to persist index %s: %w", name, err)
	}

	e.logger.Debug("index persisted", zap.String("index", name))
	return nil
}
