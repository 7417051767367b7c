package engine

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-position-search/config"
	"github.com/gcbaptista/go-position-search/internal/errors"
	"github.com/gcbaptista/go-position-search/internal/metrics"
	"github.com/gcbaptista/go-position-search/services"
)

// Engine manages multiple search indexes.
// It implements the services.IndexManager interface.
type Engine struct {
	mu      sync.RWMutex
	indexes map[string]*IndexInstance
	dataDir string
	logger  *zap.Logger
	metrics *metrics.Collector
}

// NewEngine creates a new search engine orchestrator and loads the indexes found in dataDir.
// logger and collector may be nil.
func NewEngine(dataDir string, logger *zap.Logger, collector *metrics.Collector) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	eng := &Engine{
		indexes: make(map[string]*IndexInstance),
		dataDir: dataDir,
		logger:  logger,
		metrics: collector,
	}
	eng.loadIndexesFromDisk()
	return eng
}

// GetIndex retrieves an index by its name.
func (e *Engine) GetIndex(name string) (services.IndexAccessor, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.indexes[name]
	if !exists {
		return nil, errors.NewIndexNotFoundError(name)
	}
	return instance, nil
}

// GetIndexSettings retrieves the settings for a specific index.
func (e *Engine) GetIndexSettings(name string) (config.IndexSettings, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	instance, exists := e.indexes[name]
	if !exists {
		return config.IndexSettings{}, errors.NewIndexNotFoundError(name)
	}
	return *instance.settings, nil // Return a copy
}

// ListIndexes returns the names of all loaded indexes in lexical order.
func (e *Engine) ListIndexes() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	names := make([]string, 0, len(e.indexes))
	for name := range e.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
