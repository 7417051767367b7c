package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/gcbaptista/go-position-search/config"
	"github.com/gcbaptista/go-position-search/internal/errors"
)

// CreateIndex validates the settings, creates a new empty index and persists it.
func (e *Engine) CreateIndex(settings config.IndexSettings) error {
	if strings.TrimSpace(settings.Name) == "" {
		return errors.NewValidationError("name", "index name cannot be empty")
	}
	if strings.ContainsAny(settings.Name, `/\`) || settings.Name == "." || settings.Name == ".." {
		return errors.NewValidationError("name", "index name cannot contain path separators")
	}
	settings.ApplyDefaults()
	if conflicts := settings.ValidateFieldNames(); len(conflicts) > 0 {
		return errors.NewValidationError("settings", strings.Join(conflicts, "; "))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.indexes[settings.Name]; exists {
		return errors.NewIndexAlreadyExistsError(settings.Name)
	}

	instance, err := NewIndexInstance(settings, e.logger, e.metrics)
	if err != nil {
		return fmt.Errorf("failed to create new index instance for '%s': %w", settings.Name, err)
	}

	if err := e.persistIndexUnsafe(settings.Name, instance); err != nil {
		return fmt.Errorf("failed to persist new index '%s': %w", settings.Name, err)
	}

	e.indexes[settings.Name] = instance
	e.logger.Info("index created",
		zap.String("index", settings.Name),
		zap.String("similarity", settings.Similarity),
		zap.Strings("position_fields", settings.PositionFields))
	return nil
}

// DeleteIndex deletes an index and its data from disk.
func (e *Engine) DeleteIndex(name string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.indexes[name]; !exists {
		return errors.NewIndexNotFoundError(name)
	}

	delete(e.indexes, name)

	indexPath := filepath.Join(e.dataDir, name)
	if err := os.RemoveAll(indexPath); err != nil {
		return fmt.Errorf("failed to remove index directory %s: %w", indexPath, err)
	}

	e.logger.Info("index deleted", zap.String("index", name))
	return nil
}
