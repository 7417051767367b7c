package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/gcbaptista/go-position-search/config"
	"github.com/gcbaptista/go-position-search/internal/metrics"
	"github.com/gcbaptista/go-position-search/services"
)

// API holds dependencies for API handlers, primarily the search engine manager.
type API struct {
	engine  services.IndexManager
	logger  *zap.Logger
	metrics *metrics.Collector
	started time.Time
}

// Options configure the router. Zero values disable the corresponding middleware.
type Options struct {
	Logger          *zap.Logger
	Metrics         *metrics.Collector
	MaxRequestBytes int64
	RateLimit       config.RateLimitConfig
}

// NewAPI creates a new API handler structure.
func NewAPI(engine services.IndexManager, logger *zap.Logger, collector *metrics.Collector) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &API{
		engine:  engine,
		logger:  logger,
		metrics: collector,
		started: time.Now(),
	}
}

// SetupRoutes defines all the API routes for the search engine.
func SetupRoutes(router *gin.Engine, engine services.IndexManager, opts Options) {
	apiHandler := NewAPI(engine, opts.Logger, opts.Metrics)

	router.Use(RequestIDMiddleware())
	router.Use(LoggingMiddleware(apiHandler.logger, opts.Metrics))
	router.Use(CORSMiddleware())
	if opts.RateLimit.RequestsPerSecond > 0 {
		router.Use(RateLimitMiddleware(opts.RateLimit.RequestsPerSecond, opts.RateLimit.Burst))
	}
	if opts.MaxRequestBytes > 0 {
		router.Use(RequestSizeLimitMiddleware(opts.MaxRequestBytes))
	}

	// Health check route
	router.GET("/health", apiHandler.HealthCheckHandler)
	if opts.Metrics != nil {
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	// Index management routes
	indexRoutes := router.Group("/indexes")
	{
		indexRoutes.POST("", apiHandler.CreateIndexHandler)              // Create a new index
		indexRoutes.GET("", apiHandler.ListIndexesHandler)               // List all indexes
		indexRoutes.GET("/:indexName", apiHandler.GetIndexHandler)       // Get index settings
		indexRoutes.DELETE("/:indexName", apiHandler.DeleteIndexHandler) // Delete an index

		// Document management routes per index
		docRoutes := indexRoutes.Group("/:indexName/documents")
		{
			docRoutes.PUT("", apiHandler.AddDocumentsHandler)                  // Add/Update documents
			docRoutes.DELETE("", apiHandler.DeleteAllDocumentsHandler)         // Delete all documents
			docRoutes.GET("/:documentId", apiHandler.GetDocumentHandler)       // Get specific document
			docRoutes.DELETE("/:documentId", apiHandler.DeleteDocumentHandler) // Delete specific document
		}

		// Search routes per index
		indexRoutes.POST("/:indexName/_search", apiHandler.SearchHandler)
		indexRoutes.POST("/:indexName/_multi_search", apiHandler.MultiSearchHandler)
		indexRoutes.POST("/:indexName/_explain/:documentId", apiHandler.ExplainHandler)
	}
}

// HealthCheckHandler reports liveness and the number of loaded indexes.
func (api *API) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"indexes": len(api.engine.ListIndexes()),
		"uptime":  time.Since(api.started).Round(time.Second).String(),
	})
}

// getIndex resolves the :indexName parameter, sending the error response itself when it fails.
func (api *API) getIndex(c *gin.Context) (services.IndexAccessor, string, bool) {
	indexName := c.Param("indexName")
	if result := ValidateIndexName(indexName); result.HasErrors() {
		SendValidationError(c, result)
		return nil, indexName, false
	}

	indexAccessor, err := api.engine.GetIndex(indexName)
	if err != nil {
		SendServiceError(c, indexName, "get index", err)
		return nil, indexName, false
	}
	return indexAccessor, indexName, true
}

// persist saves an index after a write. The write itself already succeeded, so a failure is
// reported but the in-memory state is kept.
func (api *API) persist(c *gin.Context, indexName string) bool {
	if err := api.engine.PersistIndexData(indexName); err != nil {
		api.logger.Error("failed to persist index", zap.String("index", indexName), zap.Error(err))
		SendError(c, http.StatusInternalServerError, ErrorCodePersistenceFailed,
			"Changes applied but could not be persisted for index '"+indexName+"': "+err.Error())
		return false
	}
	return true
}
