package model

import (
	"fmt"
	"strings"
)

// Explanation is a human-readable breakdown of how a score was computed.
// Details are ordered; a parent's Value is derived from its Details by the producer.
type Explanation struct {
	Match       bool          `json:"match"`
	Value       float64       `json:"value"`
	Description string        `json:"description"`
	Error       string        `json:"error,omitempty"` // Set when the value was computed from a degraded input
	Details     []Explanation `json:"details,omitempty"`
}

// Match creates a matching explanation.
func Match(value float64, description string, details ...Explanation) Explanation {
	return Explanation{Match: true, Value: value, Description: description, Details: details}
}

// NoMatch creates a non-matching explanation; its value is always 0.
func NoMatch(description string, details ...Explanation) Explanation {
	return Explanation{Match: false, Value: 0, Description: description, Details: details}
}

// String renders the explanation tree with one node per line, indented by depth.
func (e Explanation) String() string {
	var sb strings.Builder
	e.write(&sb, 0)
	return sb.String()
}

func (e Explanation) write(sb *strings.Builder, depth int) {
	sb.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(sb, "%g = %s", e.Value, e.Description)
	if e.Error != "" {
		fmt.Fprintf(sb, " [%s]", e.Error)
	}
	sb.WriteString("\n")
	for _, d := range e.Details {
		d.write(sb, depth+1)
	}
}
