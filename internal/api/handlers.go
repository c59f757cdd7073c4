// Package api exposes the aisearch operations over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	infragin "github.com/jonesrussell/north-cloud/aisearch/infrastructure/gin"
	infralogger "github.com/jonesrussell/north-cloud/aisearch/infrastructure/logger"
	"github.com/jonesrussell/north-cloud/aisearch/internal/searchapi"
	"github.com/jonesrussell/north-cloud/aisearch/internal/service"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

// Handler handles HTTP requests for the aisearch API
type Handler struct {
	indexers    *service.IndexerService
	datasources *service.DataSourceService
	indexes     *service.IndexService
	diagnostics *service.DiagnosticsService
	logger      infralogger.Logger
}

// Services groups the handler's dependencies.
type Services struct {
	Indexers    *service.IndexerService
	DataSources *service.DataSourceService
	Indexes     *service.IndexService
	Diagnostics *service.DiagnosticsService
}

// NewHandler creates a new API handler
func NewHandler(svcs Services, log infralogger.Logger) *Handler {
	return &Handler{
		indexers:    svcs.Indexers,
		datasources: svcs.DataSources,
		indexes:     svcs.Indexes,
		diagnostics: svcs.Diagnostics,
		logger:      log,
	}
}

// requestContext carries the request ID into journal entries.
func requestContext(c *gin.Context) context.Context {
	return service.WithRequestID(c.Request.Context(), infragin.RequestID(c))
}

// writeError maps service and client errors onto HTTP statuses.
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	body := gin.H{"error": err.Error()}

	var (
		connErr *searchapi.ConnectionError
		apiErr  *searchapi.APIError
	)
	switch {
	case errors.Is(err, service.ErrInvalidRequest), errors.Is(err, searchapi.ErrInvalidName):
		status = http.StatusBadRequest
	case errors.Is(err, searchapi.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrAlreadyExists):
		status = http.StatusConflict
	case errors.Is(err, service.ErrPreflightFailed):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, searchapi.ErrCircuitOpen):
		status = http.StatusServiceUnavailable
	case errors.As(err, &connErr):
		status = http.StatusBadGateway
		body["reachability"] = connErr.Reachability
	case errors.As(err, &apiErr):
		status = http.StatusBadGateway
		body["upstream_status"] = apiErr.StatusCode
		body["upstream_code"] = apiErr.Code
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("Request failed",
			infralogger.String("path", c.FullPath()),
			infralogger.Int("status", status),
			infralogger.Error(err),
		)
	}
	c.JSON(status, body)
}

// ListIndexers handles GET /api/v1/indexers
func (h *Handler) ListIndexers(c *gin.Context) {
	list, err := h.indexers.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"indexers": list, "count": len(list)})
}

// CreateIndexer handles POST /api/v1/indexers
func (h *Handler) CreateIndexer(c *gin.Context) {
	var req service.CreateIndexerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.indexers.Create(requestContext(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}

	status := http.StatusCreated
	if res.Replaced {
		status = http.StatusOK
	}
	c.JSON(status, res)
}

// GetIndexer handles GET /api/v1/indexers/:name
func (h *Handler) GetIndexer(c *gin.Context) {
	ix, err := h.indexers.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ix)
}

// DeleteIndexer handles DELETE /api/v1/indexers/:name
func (h *Handler) DeleteIndexer(c *gin.Context) {
	if err := h.indexers.Delete(requestContext(c), c.Param("name")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RunIndexer handles POST /api/v1/indexers/:name/run
func (h *Handler) RunIndexer(c *gin.Context) {
	if err := h.indexers.Run(requestContext(c), c.Param("name")); err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "started"})
}

// ResetIndexer handles POST /api/v1/indexers/:name/reset
func (h *Handler) ResetIndexer(c *gin.Context) {
	if err := h.indexers.Reset(requestContext(c), c.Param("name")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// IndexerStatus handles GET /api/v1/indexers/:name/status
func (h *Handler) IndexerStatus(c *gin.Context) {
	st, err := h.indexers.Status(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// DiagnoseIndexer handles GET /api/v1/indexers/:name/diagnosis
func (h *Handler) DiagnoseIndexer(c *gin.Context) {
	diag, err := h.diagnostics.DiagnoseIndexer(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, diag)
}

// ListDataSources handles GET /api/v1/datasources
func (h *Handler) ListDataSources(c *gin.Context) {
	list, err := h.datasources.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"datasources": list, "count": len(list)})
}

// CreateDataSource handles POST /api/v1/datasources
func (h *Handler) CreateDataSource(c *gin.Context) {
	var req service.CreateBlobDataSourceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ds, err := h.datasources.CreateBlob(requestContext(c), req)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ds)
}

// GetDataSource handles GET /api/v1/datasources/:name
func (h *Handler) GetDataSource(c *gin.Context) {
	ds, err := h.datasources.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

// DeleteDataSource handles DELETE /api/v1/datasources/:name
func (h *Handler) DeleteDataSource(c *gin.Context) {
	if err := h.datasources.Delete(requestContext(c), c.Param("name")); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// TestDataSource handles POST /api/v1/datasources/:name/test
func (h *Handler) TestDataSource(c *gin.Context) {
	res, err := h.datasources.Test(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"passed": true, "upstream_status": res.StatusCode})
}

// DiagnoseDataSource handles GET /api/v1/datasources/:name/diagnosis
func (h *Handler) DiagnoseDataSource(c *gin.Context) {
	opts := service.DiagnoseOptions{
		SkipTest:    c.Query("skip_test") == "true",
		SkipStorage: c.Query("skip_storage") == "true",
	}
	diag, err := h.diagnostics.DiagnoseDatasource(c.Request.Context(), c.Param("name"), opts)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, diag)
}

// ListIndexes handles GET /api/v1/indexes
func (h *Handler) ListIndexes(c *gin.Context) {
	list, err := h.indexes.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"indexes": list, "count": len(list)})
}

// GetIndex handles GET /api/v1/indexes/:name
func (h *Handler) GetIndex(c *gin.Context) {
	idx, err := h.indexes.Get(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, idx)
}

// CheckConnectivity handles GET /api/v1/connectivity
func (h *Handler) CheckConnectivity(c *gin.Context) {
	diag, err := h.diagnostics.CheckConnectivity(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, diag)
}

// History handles GET /api/v1/history
func (h *Handler) History(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 500"})
			return
		}
		limit = n
	}

	ops, err := h.indexers.History(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"operations": ops, "count": len(ops)})
}
