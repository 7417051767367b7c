package scoring

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	apperrors "github.com/gcbaptista/go-position-search/internal/errors"
)

// PositionSource returns the first-occurrence position of a term in a field of a document.
// It is the only dependency the scoring core has on index storage and is never written to.
type PositionSource interface {
	FirstPosition(docID uint32, field string, term []byte) (int, error)
}

// Position is a resolved first-occurrence position, or NotFound.
type Position struct {
	value int
	found bool
}

// NotFound is the position of a term whose position could not be resolved.
var NotFound = Position{}

// At returns the found position p.
func At(p int) Position {
	return Position{value: p, found: true}
}

// Value returns the position and whether it was found.
func (p Position) Value() (int, bool) {
	return p.value, p.found
}

func (p Position) String() string {
	if !p.found {
		return "no match"
	}
	return fmt.Sprintf("%d", p.value)
}

// LookupKind classifies the outcome of a position lookup.
type LookupKind int

const (
	LookupFound LookupKind = iota
	LookupMissingPositionalData
	LookupTermNotPresent
	LookupUnsupportedCapability
	LookupMalformedPositionalData
	// LookupFailed covers errors the source did not classify, including panics.
	LookupFailed
)

var lookupKindNames = map[LookupKind]string{
	LookupFound:                   "found",
	LookupMissingPositionalData:   "missing positional data",
	LookupTermNotPresent:          "term not present",
	LookupUnsupportedCapability:   "unsupported capability",
	LookupMalformedPositionalData: "malformed positional data",
	LookupFailed:                  "lookup failed",
}

var lookupKindLabels = map[LookupKind]string{
	LookupFound:                   "found",
	LookupMissingPositionalData:   "missing_positional_data",
	LookupTermNotPresent:          "term_not_present",
	LookupUnsupportedCapability:   "unsupported_capability",
	LookupMalformedPositionalData: "malformed_positional_data",
	LookupFailed:                  "lookup_failed",
}

func (k LookupKind) String() string {
	if name, ok := lookupKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("LookupKind(%d)", int(k))
}

// Label returns the kind as a metric label value.
func (k LookupKind) Label() string {
	if label, ok := lookupKindLabels[k]; ok {
		return label
	}
	return "unknown"
}

// Resolution is the typed result of a lookup. Err is nil when Kind is LookupFound.
type Resolution struct {
	Position Position
	Kind     LookupKind
	Err      error
}

// LookupObserver is notified of every lookup outcome.
type LookupObserver interface {
	ObserveLookup(kind LookupKind)
}

// Resolver resolves term positions from a PositionSource. It never fails: every error, and any
// panic raised by the source, becomes a NotFound resolution so one term's storage anomaly cannot
// fail the ranking of a whole document.
type Resolver struct {
	source   PositionSource
	logger   *zap.Logger
	observer LookupObserver
}

// NewResolver creates a resolver over source. logger and observer may be nil.
func NewResolver(source PositionSource, logger *zap.Logger, observer LookupObserver) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{source: source, logger: logger, observer: observer}
}

// Resolve returns the first-occurrence position of term in docID.
func (r *Resolver) Resolve(docID uint32, term TermRef) (res Resolution) {
	defer func() {
		if rec := recover(); rec != nil {
			res = Resolution{Position: NotFound, Kind: LookupFailed, Err: fmt.Errorf("position source panicked: %v", rec)}
			r.report(docID, term, res)
		}
	}()

	position, err := r.source.FirstPosition(docID, term.Field, term.Bytes())
	switch {
	case err == nil && position >= 0:
		res = Resolution{Position: At(position), Kind: LookupFound}
	case err == nil:
		res = Resolution{
			Position: NotFound,
			Kind:     LookupMalformedPositionalData,
			Err:      apperrors.NewPositionalDataError(apperrors.ErrMalformedPositionalData, docID, term.Field, term.Text, fmt.Errorf("negative position %d", position)),
		}
	default:
		res = Resolution{Position: NotFound, Kind: classify(err), Err: err}
	}

	r.report(docID, term, res)
	return res
}

func classify(err error) LookupKind {
	switch {
	case errors.Is(err, apperrors.ErrMissingPositionalData):
		return LookupMissingPositionalData
	case errors.Is(err, apperrors.ErrTermNotPresent):
		return LookupTermNotPresent
	case errors.Is(err, apperrors.ErrUnsupportedCapability):
		return LookupUnsupportedCapability
	case errors.Is(err, apperrors.ErrMalformedPositionalData):
		return LookupMalformedPositionalData
	default:
		return LookupFailed
	}
}

func (r *Resolver) report(docID uint32, term TermRef, res Resolution) {
	if r.observer != nil {
		r.observer.ObserveLookup(res.Kind)
	}

	fields := []zap.Field{
		zap.Uint32("doc", docID),
		zap.String("field", term.Field),
		zap.String("term", term.Text),
		zap.Stringer("outcome", res.Kind),
	}
	switch res.Kind {
	case LookupFound:
	case LookupMissingPositionalData, LookupTermNotPresent:
		r.logger.Debug("position not found", fields...)
	case LookupUnsupportedCapability:
		r.logger.Warn("positional payloads not supported for field", fields...)
	default:
		r.logger.Error("position lookup failed", append(fields, zap.Error(res.Err))...)
	}
}
