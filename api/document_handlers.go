package api

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/go-position-search/model"
)

// AddDocumentsHandler handles adding/updating documents in an index.
// Request Body: a document object or an array of documents
func (api *API) AddDocumentsHandler(c *gin.Context) {
	indexAccessor, indexName, ok := api.getIndex(c)
	if !ok {
		return
	}

	// Read the raw JSON data first
	var rawData interface{}
	if err := c.ShouldBindJSON(&rawData); err != nil {
		SendInvalidJSONError(c, err)
		return
	}

	var docs []model.Document

	// Check if the raw data is a slice (array) or a single object
	if dataSlice, isSlice := rawData.([]interface{}); isSlice {
		docs = make([]model.Document, len(dataSlice))
		for i, item := range dataSlice {
			docMap, isMap := item.(map[string]interface{})
			if !isMap {
				SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, fmt.Sprintf("Document at index %d is not a valid object", i))
				return
			}
			docs[i] = docMap
		}
	} else if docMap, isMap := rawData.(map[string]interface{}); isMap {
		docs = []model.Document{docMap}
	} else {
		SendError(c, http.StatusBadRequest, ErrorCodeInvalidRequest, "Invalid request body. Expecting a document object or an array of documents")
		return
	}

	if result := ValidateDocuments(docs); result.HasErrors() {
		SendValidationError(c, result)
		return
	}
	for _, doc := range docs {
		doc["documentID"] = strings.TrimSpace(doc["documentID"].(string))
	}

	if err := indexAccessor.AddDocuments(docs); err != nil {
		SendServiceError(c, indexName, "add documents", err)
		return
	}
	if !api.persist(c, indexName) {
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":        fmt.Sprintf("%d document(s) added/updated in index '%s'", len(docs), indexName),
		"document_count": len(docs),
	})
}

// DeleteAllDocumentsHandler handles the request to delete all documents from an index.
func (api *API) DeleteAllDocumentsHandler(c *gin.Context) {
	indexAccessor, indexName, ok := api.getIndex(c)
	if !ok {
		return
	}

	if err := indexAccessor.DeleteAllDocuments(); err != nil {
		SendServiceError(c, indexName, "delete all documents", err)
		return
	}
	if !api.persist(c, indexName) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "All documents deleted from index '" + indexName + "'"})
}

// GetDocumentHandler retrieves a specific document by ID
func (api *API) GetDocumentHandler(c *gin.Context) {
	indexAccessor, indexName, ok := api.getIndex(c)
	if !ok {
		return
	}
	documentID := c.Param("documentId")

	document, err := indexAccessor.GetDocument(documentID)
	if err != nil {
		SendServiceError(c, indexName, "get document", err)
		return
	}

	c.JSON(http.StatusOK, document)
}

// DeleteDocumentHandler deletes a specific document by ID
func (api *API) DeleteDocumentHandler(c *gin.Context) {
	indexAccessor, indexName, ok := api.getIndex(c)
	if !ok {
		return
	}
	documentID := c.Param("documentId")

	if err := indexAccessor.DeleteDocument(documentID); err != nil {
		SendServiceError(c, indexName, "delete document", err)
		return
	}
	if !api.persist(c, indexName) {
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Document '" + documentID + "' deleted from index '" + indexName + "'"})
}
