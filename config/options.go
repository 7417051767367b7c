package config

import (
	"strconv"
	"strings"
)

// Recognized scoring option keys. Any other key is ignored.
const (
	OptionPositionFields  = "position_fields"
	OptionSimilarity      = "similarity"
	OptionDefaultPosition = "default_position"
)

// ScoringOptions is the subset of index configuration the position scoring consumes.
type ScoringOptions struct {
	PositionFields  []string
	Similarity      string
	DefaultPosition *int // nil when the option is absent or not an integer
}

// ParseScoringOptions reads scoring options from opaque key/value settings as handed over by a
// host. Values are taken as-is; validation is left to IndexSettings.ValidateFieldNames.
// A default_position that is not an integer is ignored.
func ParseScoringOptions(opts map[string]string) ScoringOptions {
	var parsed ScoringOptions

	if raw, ok := opts[OptionPositionFields]; ok {
		for _, field := range strings.Split(raw, ",") {
			if field = strings.TrimSpace(field); field != "" {
				parsed.PositionFields = append(parsed.PositionFields, field)
			}
		}
	}
	if raw, ok := opts[OptionSimilarity]; ok {
		parsed.Similarity = strings.TrimSpace(raw)
	}
	if raw, ok := opts[OptionDefaultPosition]; ok {
		if v, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
			parsed.DefaultPosition = &v
		}
	}

	return parsed
}

// ApplyTo copies the parsed options onto settings. Options that were not supplied leave the
// corresponding setting untouched.
func (o ScoringOptions) ApplyTo(settings *IndexSettings) {
	if o.PositionFields != nil {
		settings.PositionFields = o.PositionFields
	}
	if o.Similarity != "" {
		settings.Similarity = o.Similarity
	}
	if o.DefaultPosition != nil {
		settings.DefaultPosition = Position(*o.DefaultPosition)
	}
}
