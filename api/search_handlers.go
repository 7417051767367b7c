package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-position-search/services"
)

// ExplainRequest is the body of an explain request.
type ExplainRequest struct {
	Query json.RawMessage `json:"query"`
}

// SearchHandler handles search requests to an index.
// Request Body: services.SearchQuery
func (api *API) SearchHandler(c *gin.Context) {
	indexAccessor, indexName, ok := api.getIndex(c)
	if !ok {
		return
	}

	var req services.SearchQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}
	if result := ValidateSearchQuery(req.Query, req.Page, req.PageSize); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	results, err := indexAccessor.Search(req)
	if err != nil {
		SendServiceError(c, indexName, "search", err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// MultiSearchHandler handles multi-query search requests to an index.
// Request Body: services.MultiSearchQuery
func (api *API) MultiSearchHandler(c *gin.Context) {
	indexAccessor, indexName, ok := api.getIndex(c)
	if !ok {
		return
	}

	var req services.MultiSearchQuery
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}
	if result := ValidateMultiSearchQuery(req); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	results, err := indexAccessor.MultiSearch(c.Request.Context(), req)
	if err != nil {
		SendServiceError(c, indexName, "multi-search", err)
		return
	}

	c.JSON(http.StatusOK, results)
}

// ExplainHandler explains how one document scores against a query.
// Request Body: ExplainRequest
func (api *API) ExplainHandler(c *gin.Context) {
	indexAccessor, indexName, ok := api.getIndex(c)
	if !ok {
		return
	}
	documentID := c.Param("documentId")
	if result := ValidateDocumentID(documentID); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	var req ExplainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidQuery, "Invalid request body: "+err.Error())
		return
	}
	if result := ValidateSearchQuery(req.Query, 0, 0); result.HasErrors() {
		SendValidationError(c, result)
		return
	}

	result, err := indexAccessor.Explain(req.Query, documentID)
	if err != nil {
		SendServiceError(c, indexName, "explain", err)
		return
	}

	c.JSON(http.StatusOK, result)
}
