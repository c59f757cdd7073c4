package api

import (
	"github.com/gin-gonic/gin"

	infragin "github.com/jonesrussell/north-cloud/aisearch/infrastructure/gin"
)

// SetupRoutes configures all API routes. An empty jwtSecret leaves /api/v1 open.
func SetupRoutes(router *gin.Engine, handler *Handler, jwtSecret string) {
	// Health and metrics routes are handled by the infrastructure/gin package
	v1 := infragin.ProtectedGroup(router, "/api/v1", jwtSecret)

	indexers := v1.Group("/indexers")
	indexers.GET("", handler.ListIndexers)
	indexers.POST("", handler.CreateIndexer)
	indexers.GET("/:name", handler.GetIndexer)
	indexers.DELETE("/:name", handler.DeleteIndexer)
	indexers.POST("/:name/run", handler.RunIndexer)
	indexers.POST("/:name/reset", handler.ResetIndexer)
	indexers.GET("/:name/status", handler.IndexerStatus)
	indexers.GET("/:name/diagnosis", handler.DiagnoseIndexer)

	datasources := v1.Group("/datasources")
	datasources.GET("", handler.ListDataSources)
	datasources.POST("", handler.CreateDataSource)
	datasources.GET("/:name", handler.GetDataSource)
	datasources.DELETE("/:name", handler.DeleteDataSource)
	datasources.POST("/:name/test", handler.TestDataSource)
	datasources.GET("/:name/diagnosis", handler.DiagnoseDataSource)

	indexes := v1.Group("/indexes")
	indexes.GET("", handler.ListIndexes)
	indexes.GET("/:name", handler.GetIndex)

	v1.GET("/connectivity", handler.CheckConnectivity)
	v1.GET("/history", handler.History)
}
