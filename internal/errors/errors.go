package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common error conditions
var (
	// ErrIndexNotFound is returned when an index is not found
	ErrIndexNotFound = errors.New("index not found")

	// ErrIndexAlreadyExists is returned when trying to create an index that already exists
	ErrIndexAlreadyExists = errors.New("index already exists")

	// ErrDocumentNotFound is returned when a document is not found
	ErrDocumentNotFound = errors.New("document not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidQuery is returned when a query definition cannot be parsed
	ErrInvalidQuery = errors.New("invalid query")

	// ErrConfiguration is returned when a component is constructed with missing or invalid configuration.
	// It is the only error class allowed to abort a search before scoring starts.
	ErrConfiguration = errors.New("configuration error")

	// ErrWeightNotNormalized is returned when a scorer is requested before the weight was normalized
	ErrWeightNotNormalized = errors.New("weight not normalized")
)

// Positional data lookup outcomes. None of these ever abort scoring; they degrade a single
// term's contribution.
var (
	// ErrMissingPositionalData is returned when a document has no positional data for a field
	ErrMissingPositionalData = errors.New("missing positional data")

	// ErrTermNotPresent is returned when a term is absent from a document's positional data
	ErrTermNotPresent = errors.New("term not present")

	// ErrUnsupportedCapability is returned when storage cannot provide positional payloads for a field
	ErrUnsupportedCapability = errors.New("unsupported capability")

	// ErrMalformedPositionalData is returned when a positional payload is present but undecodable
	ErrMalformedPositionalData = errors.New("malformed positional data")
)

// IndexNotFoundError represents an index not found error with context
type IndexNotFoundError struct {
	IndexName string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("index named '%s' not found", e.IndexName)
}

func (e *IndexNotFoundError) Is(target error) bool {
	return target == ErrIndexNotFound
}

// NewIndexNotFoundError creates a new IndexNotFoundError
func NewIndexNotFoundError(indexName string) *IndexNotFoundError {
	return &IndexNotFoundError{IndexName: indexName}
}

// IndexAlreadyExistsError represents an index already exists error with context
type IndexAlreadyExistsError struct {
	IndexName string
}

func (e *IndexAlreadyExistsError) Error() string {
	return fmt.Sprintf("index named '%s' already exists", e.IndexName)
}

func (e *IndexAlreadyExistsError) Is(target error) bool {
	return target == ErrIndexAlreadyExists
}

// NewIndexAlreadyExistsError creates a new IndexAlreadyExistsError
func NewIndexAlreadyExistsError(indexName string) *IndexAlreadyExistsError {
	return &IndexAlreadyExistsError{IndexName: indexName}
}

// DocumentNotFoundError represents a document not found error with context
type DocumentNotFoundError struct {
	DocumentID string
	IndexName  string
}

func (e *DocumentNotFoundError) Error() string {
	if e.IndexName != "" {
		return fmt.Sprintf("document with ID '%s' not found in index '%s'", e.DocumentID, e.IndexName)
	}
	return fmt.Sprintf("document with ID '%s' not found", e.DocumentID)
}

func (e *DocumentNotFoundError) Is(target error) bool {
	return target == ErrDocumentNotFound
}

// NewDocumentNotFoundError creates a new DocumentNotFoundError
func NewDocumentNotFoundError(documentID string, indexName ...string) *DocumentNotFoundError {
	err := &DocumentNotFoundError{DocumentID: documentID}
	if len(indexName) > 0 {
		err.IndexName = indexName[0]
	}
	return err
}

// ValidationError represents an input validation error with context
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for field '%s': %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// QueryParseError represents a query definition that could not be parsed
type QueryParseError struct {
	Path    string
	Message string
}

func (e *QueryParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("invalid query at '%s': %s", e.Path, e.Message)
	}
	return fmt.Sprintf("invalid query: %s", e.Message)
}

func (e *QueryParseError) Is(target error) bool {
	return target == ErrInvalidQuery
}

// NewQueryParseError creates a new QueryParseError
func NewQueryParseError(path, message string) *QueryParseError {
	return &QueryParseError{Path: path, Message: message}
}

// ConfigurationError reports a construction-time failure such as a wrapper query built without
// the sub-query it decorates.
type ConfigurationError struct {
	Component string
	Message   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s in [%s]", e.Message, e.Component)
}

func (e *ConfigurationError) Is(target error) bool {
	return target == ErrConfiguration
}

// NewConfigurationError creates a new ConfigurationError
func NewConfigurationError(component, message string) *ConfigurationError {
	return &ConfigurationError{Component: component, Message: message}
}

// PositionalDataError carries the lookup context (document, field, term) of a failed
// positional data lookup. Kind is one of the positional sentinel errors above.
type PositionalDataError struct {
	DocID uint32
	Field string
	Term  string
	Kind  error
	Cause error
}

func (e *PositionalDataError) Error() string {
	msg := fmt.Sprintf("%v for doc=%d, field=%s, term=%s", e.Kind, e.DocID, e.Field, e.Term)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *PositionalDataError) Is(target error) bool {
	return target == e.Kind
}

func (e *PositionalDataError) Unwrap() error {
	return e.Cause
}

// NewPositionalDataError creates a new PositionalDataError
func NewPositionalDataError(kind error, docID uint32, field, term string, cause error) *PositionalDataError {
	return &PositionalDataError{DocID: docID, Field: field, Term: term, Kind: kind, Cause: cause}
}
