package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tidwall/gjson"

	"github.com/gcbaptista/go-position-search/config"
	"github.com/gcbaptista/go-position-search/model"
	"github.com/gcbaptista/go-position-search/services"
)

// maxPageSize mirrors the cap applied by the search service.
const maxPageSize = 1000

// ValidationError represents a validation error with field context
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult collects every problem found in a request.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

func newValidationResult() *ValidationResult {
	return &ValidationResult{Valid: true}
}

// AddError records a problem with field and marks the result invalid.
func (vr *ValidationResult) AddError(field, message string) {
	vr.Valid = false
	vr.Errors = append(vr.Errors, ValidationError{Field: field, Message: message})
}

// Merge appends the errors of other.
func (vr *ValidationResult) Merge(other *ValidationResult) {
	for _, e := range other.Errors {
		vr.AddError(e.Field, e.Message)
	}
}

// HasErrors returns true if there are validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// validateIdentifier checks a caller supplied name used as a map key or path segment.
func validateIdentifier(result *ValidationResult, field, label, value string) {
	switch {
	case value == "":
		result.AddError(field, label+" is required")
	case strings.TrimSpace(value) != value:
		result.AddError(field, label+" cannot have leading or trailing whitespace")
	}
}

// ValidateIndexName validates an index name. Names become directory names on disk.
func ValidateIndexName(indexName string) *ValidationResult {
	result := newValidationResult()
	validateIdentifier(result, "indexName", "Index name", indexName)
	if result.Valid && (strings.ContainsAny(indexName, `/\`) || indexName == "." || indexName == "..") {
		result.AddError("indexName", "Index name cannot contain path separators")
	}
	return result
}

// ValidateDocumentID validates a document ID taken from the URL.
func ValidateDocumentID(documentID string) *ValidationResult {
	result := newValidationResult()
	validateIdentifier(result, "documentID", "Document ID", documentID)
	return result
}

// ValidateIndexSettings applies defaults to settings and validates the result.
func ValidateIndexSettings(settings *config.IndexSettings) *ValidationResult {
	result := newValidationResult()
	if settings == nil {
		result.AddError("settings", "Index settings are required")
		return result
	}

	result.Merge(ValidateIndexName(settings.Name))

	settings.ApplyDefaults()
	for _, conflict := range settings.ValidateFieldNames() {
		result.AddError("field_validation", conflict)
	}
	return result
}

// ValidateDocuments checks that every document carries a usable string documentID.
func ValidateDocuments(docs []model.Document) *ValidationResult {
	result := newValidationResult()
	if len(docs) == 0 {
		result.AddError("documents", "No documents provided")
		return result
	}

	for i, doc := range docs {
		field := fmt.Sprintf("documents[%d].documentID", i)
		raw, exists := doc["documentID"]
		if !exists {
			result.AddError(field, "Document must have a 'documentID' field")
			continue
		}
		id, ok := raw.(string)
		switch {
		case !ok:
			result.AddError(field, "Document ID must be a string")
		case strings.TrimSpace(id) == "":
			result.AddError(field, "Document ID cannot be empty or whitespace-only")
		}
	}
	return result
}

// ValidatePagination validates pagination parameters. Zero values select the defaults.
func ValidatePagination(page, pageSize int) *ValidationResult {
	result := newValidationResult()
	if page < 0 {
		result.AddError("page", "Page number cannot be negative")
	}
	if pageSize < 0 {
		result.AddError("page_size", "Page size cannot be negative")
	}
	if pageSize > maxPageSize {
		result.AddError("page_size", fmt.Sprintf("Page size cannot exceed %d", maxPageSize))
	}
	return result
}

// validateQueryObject checks the shape of a query before it reaches the parser, which reports
// unknown clauses and bad field values.
func validateQueryObject(result *ValidationResult, field string, query json.RawMessage) {
	parsed := gjson.ParseBytes(query)
	switch {
	case !parsed.Exists() || parsed.Type == gjson.Null:
		result.AddError(field, "Query is required")
	case !parsed.IsObject():
		result.AddError(field, "Query must be a JSON object")
	}
}

// ValidateSearchQuery checks pagination and that a query object is present.
func ValidateSearchQuery(query json.RawMessage, page, pageSize int) *ValidationResult {
	result := ValidatePagination(page, pageSize)
	validateQueryObject(result, "query", query)
	return result
}

// ValidateMultiSearchQuery checks pagination and every named query.
// Name uniqueness is enforced by the search service.
func ValidateMultiSearchQuery(req services.MultiSearchQuery) *ValidationResult {
	result := ValidatePagination(req.Page, req.PageSize)
	if len(req.Queries) == 0 {
		result.AddError("queries", "At least one query is required")
	}
	for i, nq := range req.Queries {
		validateQueryObject(result, fmt.Sprintf("queries[%d].query", i), nq.Query)
	}
	return result
}

// SendValidationError sends a standardized validation error response
func SendValidationError(c *gin.Context, result *ValidationResult) {
	SendStructuredValidationError(c, result)
}

// ValidateJSONBinding binds the JSON body into target.
func ValidateJSONBinding(c *gin.Context, target interface{}) *ValidationResult {
	result := newValidationResult()
	if err := c.ShouldBindJSON(target); err != nil {
		result.AddError("request_body", "Invalid request body: "+err.Error())
	}
	return result
}
