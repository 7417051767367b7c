// Package config provides configuration structures for the search engine.
// It defines index settings, scoring options and the server configuration file.
package config

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"strconv"
	"strings"

	"github.com/gcbaptista/go-position-search/internal/scoring"
)

// Similarity names accepted in IndexSettings.Similarity.
const (
	// SimilarityClassic scores a term by its frequency in the field.
	SimilarityClassic = "classic"
	// SimilarityPosition scores a term by how early it first occurs in the field.
	SimilarityPosition = "position-similarity"
)

// DefaultMissPosition is substituted for the position of a term whose positional data cannot be
// read when the position similarity is active and no default_position is configured.
const DefaultMissPosition = scoring.DefaultMissPosition

// IndexSettings contains all configuration options for a search index.
//
// PositionFields lists the searchable fields whose term vectors carry a first-occurrence position
// payload. Only those fields can be scored by position; lookups on any other field report an
// unsupported capability.
type IndexSettings struct {
	Name             string   `json:"name" toml:"name"`                           // Unique name for the index
	SearchableFields []string `json:"searchable_fields" toml:"searchable_fields"` // Fields that are tokenized and indexed
	PositionFields   []string `json:"position_fields" toml:"position_fields"`     // Fields storing first-position payloads. Must be in SearchableFields.
	Similarity       string   `json:"similarity" toml:"similarity"`               // "classic" or "position-similarity"; applies to PositionFields

	// DefaultPosition is substituted on lookup failure by the position similarity. nil means not
	// configured; ApplyDefaults then sets DefaultMissPosition. An explicit 0 is a valid setting.
	DefaultPosition *int `json:"default_position,omitempty" toml:"default_position,omitempty"`

	// Options holds opaque key/value scoring options (see ParseScoringOptions). Recognized keys
	// override the typed fields above when defaults are applied.
	Options map[string]string `json:"options,omitempty" toml:"options"`
}

// ValidateFieldNames validates field names for basic requirements.
func (settings *IndexSettings) ValidateFieldNames() []string {
	var conflicts []string

	conflicts = append(conflicts, checkDuplicates("searchable_fields", settings.SearchableFields)...)
	conflicts = append(conflicts, checkDuplicates("position_fields", settings.PositionFields)...)

	conflicts = append(conflicts, settings.validateFieldReferences()...)

	allFields := make([]string, 0, len(settings.SearchableFields)+len(settings.PositionFields))
	allFields = append(allFields, settings.SearchableFields...)
	allFields = append(allFields, settings.PositionFields...)
	for _, field := range allFields {
		if strings.TrimSpace(field) == "" {
			conflicts = append(conflicts, "Field name cannot be empty or whitespace-only")
		}
	}

	return conflicts
}

// checkDuplicates checks for duplicate values in a slice and returns error messages
func checkDuplicates(fieldName string, fields []string) []string {
	var errors []string
	seen := make(map[string]bool)

	for _, field := range fields {
		if seen[field] {
			errors = append(errors, "Duplicate field '"+field+"' found in "+fieldName)
		}
		seen[field] = true
	}

	return errors
}

// validateFieldReferences validates that field references across configurations are valid
func (settings *IndexSettings) validateFieldReferences() []string {
	var errors []string

	searchableFieldsSet := make(map[string]bool)
	for _, field := range settings.SearchableFields {
		searchableFieldsSet[field] = true
	}

	for _, field := range settings.PositionFields {
		if !searchableFieldsSet[field] {
			errors = append(errors, "Field '"+field+"' in position_fields is not in searchable_fields")
		}
	}

	switch settings.Similarity {
	case "", SimilarityClassic, SimilarityPosition:
	default:
		errors = append(errors, "Invalid similarity '"+settings.Similarity+"' (must be '"+SimilarityClassic+"' or '"+SimilarityPosition+"')")
	}

	if settings.DefaultPosition != nil && *settings.DefaultPosition < 0 {
		errors = append(errors, "default_position must be >= 0, got "+strconv.Itoa(*settings.DefaultPosition))
	}

	return errors
}

// ApplyDefaults applies default values to the index settings
func (settings *IndexSettings) ApplyDefaults() {
	if len(settings.Options) > 0 {
		ParseScoringOptions(settings.Options).ApplyTo(settings)
	}

	if settings.Similarity == "" {
		settings.Similarity = SimilarityClassic
	}
	if settings.DefaultPosition == nil {
		settings.DefaultPosition = Position(DefaultMissPosition)
	}

	// Initialize empty slices if nil to prevent nil pointer issues
	if settings.SearchableFields == nil {
		settings.SearchableFields = []string{}
	}
	if settings.PositionFields == nil {
		settings.PositionFields = []string{}
	}
}

// MissPosition returns the configured default_position, or DefaultMissPosition when none is set.
// An explicit 0 is kept.
func (settings *IndexSettings) MissPosition() int {
	if settings.DefaultPosition == nil {
		return DefaultMissPosition
	}
	return *settings.DefaultPosition
}

// Position returns a pointer to p, for setting IndexSettings.DefaultPosition.
func Position(p int) *int {
	return &p
}

// IsPositionField reports whether positional payloads are stored for the field.
func (settings *IndexSettings) IsPositionField(field string) bool {
	for _, f := range settings.PositionFields {
		if f == field {
			return true
		}
	}
	return false
}

// SimilarityFor returns the similarity name that scores the given field.
// Fields without positional payloads are always scored classically.
func (settings *IndexSettings) SimilarityFor(field string) string {
	if settings.Similarity == SimilarityPosition && settings.IsPositionField(field) {
		return SimilarityPosition
	}
	return SimilarityClassic
}

// gobIndexSettingsData is a helper struct for Gob encoding/decoding IndexSettings. gob drops zero
// values even behind pointers, so whether DefaultPosition was set travels separately.
type gobIndexSettingsData struct {
	Name               string
	SearchableFields   []string
	PositionFields     []string
	Similarity         string
	DefaultPosition    int
	DefaultPositionSet bool
	Options            map[string]string
}

// GobEncode implements the gob.GobEncoder interface for IndexSettings.
func (settings IndexSettings) GobEncode() ([]byte, error) {
	data := gobIndexSettingsData{
		Name:             settings.Name,
		SearchableFields: settings.SearchableFields,
		PositionFields:   settings.PositionFields,
		Similarity:       settings.Similarity,
		Options:          settings.Options,
	}
	if settings.DefaultPosition != nil {
		data.DefaultPosition = *settings.DefaultPosition
		data.DefaultPositionSet = true
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(data); err != nil {
		return nil, fmt.Errorf("failed to gob encode index settings: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for IndexSettings.
func (settings *IndexSettings) GobDecode(raw []byte) error {
	data := gobIndexSettingsData{}
	if err := gob.NewDecoder(bytes.NewBuffer(raw)).Decode(&data); err != nil {
		return fmt.Errorf("failed to gob decode index settings: %w", err)
	}

	settings.Name = data.Name
	settings.SearchableFields = data.SearchableFields
	settings.PositionFields = data.PositionFields
	settings.Similarity = data.Similarity
	settings.Options = data.Options
	settings.DefaultPosition = nil
	if data.DefaultPositionSet {
		settings.DefaultPosition = Position(data.DefaultPosition)
	}
	return nil
}
