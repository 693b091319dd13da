// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
)

// BillRouteHandler defines the interface for sale and purchase handlers.
type BillRouteHandler interface {
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	Ledger(c *gin.Context)
	StockHistory(c *gin.Context)
}

// RegisterBillRoutes registers the lifecycle routes shared by sales and
// purchases.
//
// Usage:
//
//	handler := handlers.NewSaleHandler(base, cfg.Sales, cfg.Ledger, cfg.Stock)
//	RegisterBillRoutes(api.Group("/sales"), handler)
func RegisterBillRoutes(group *gin.RouterGroup, handler BillRouteHandler) {
	group.POST("", handler.Create)
	group.GET("/:id", handler.Get)
	group.PUT("/:id", handler.Update)
	group.DELETE("/:id", handler.Delete)
	group.GET("/:id/ledger", handler.Ledger)
	group.GET("/:id/stock-history", handler.StockHistory)
}
