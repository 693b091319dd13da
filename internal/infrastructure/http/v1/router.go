package v1

import (
	"github.com/gin-gonic/gin"

	"posledger/internal/domain/auth"
	"posledger/internal/domain/catalog"
	"posledger/internal/domain/inventory"
	"posledger/internal/domain/ledger"
	"posledger/internal/domain/purchases"
	"posledger/internal/domain/reports"
	"posledger/internal/domain/sales"
	"posledger/internal/infrastructure/http/v1/handlers"
	"posledger/internal/infrastructure/http/v1/middleware"
	"posledger/pkg/logger"
)

// RouterConfig holds everything the API needs.
type RouterConfig struct {
	// Health checks database readiness.
	Health handlers.ReadinessChecker

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Idempotency stores replayable responses; nil disables the middleware.
	Idempotency middleware.IdempotencyStore

	AuthService *auth.Service
	Catalog     *catalog.Service
	Sales       *sales.Service
	Purchases   *purchases.Service
	Allocator   *purchases.Allocator
	Ledger      *ledger.Service
	Stock       *inventory.Reconciler
	Reports     *reports.Service
	Audit       handlers.AuditReader
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	if cfg.Health != nil {
		healthHandler := handlers.NewHealthHandler(cfg.Health)
		health := router.Group("/health")
		{
			health.GET("/live", healthHandler.Live)
			health.GET("/ready", healthHandler.Ready)
		}
	}

	base := handlers.NewBaseHandler()

	api := router.Group("/api/v1")
	{
		protected := api.Group("")
		protected.Use(middleware.Auth(cfg.JWTValidator))
		if cfg.Idempotency != nil {
			protected.Use(middleware.Idempotency(cfg.Idempotency))
		}

		registerAuthRoutes(api, protected, base, cfg)
		registerCatalogRoutes(protected, base, cfg)
		registerBillRoutes(protected, base, cfg)
		registerLedgerRoutes(protected, base, cfg)
		registerReportRoutes(protected, base, cfg)

		if cfg.Audit != nil {
			protected.GET("/audit/:type/:id", handlers.NewAuditHandler(base, cfg.Audit).History)
		}
	}

	return router
}

func registerAuthRoutes(public, protected *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}
	h := handlers.NewAuthHandler(base, cfg.AuthService)
	h.RegisterRoutes(public.Group("/auth"), protected.Group("/auth"))
}

func registerCatalogRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Catalog == nil {
		return
	}
	h := handlers.NewCatalogHandler(base, cfg.Catalog)

	products := rg.Group("/products")
	products.GET("", h.ListProducts)
	products.POST("", h.CreateProduct)
	products.GET("/:id", h.GetProduct)

	rg.GET("/customers", h.ListParties(catalog.PartyCustomer))
	rg.POST("/customers", h.CreateParty(catalog.PartyCustomer))
	rg.GET("/suppliers", h.ListParties(catalog.PartySupplier))
	rg.POST("/suppliers", h.CreateParty(catalog.PartySupplier))
}

func registerBillRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Sales != nil {
		RegisterBillRoutes(rg.Group("/sales"), handlers.NewSaleHandler(base, cfg.Sales, cfg.Ledger, cfg.Stock))
	}
	if cfg.Purchases != nil {
		h := handlers.NewPurchaseHandler(base, cfg.Purchases, cfg.Allocator, cfg.Ledger, cfg.Stock)
		RegisterBillRoutes(rg.Group("/purchases"), h)
		rg.POST("/suppliers/:id/payments", h.Pay)
	}
}

func registerLedgerRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Ledger == nil {
		return
	}
	h := handlers.NewLedgerHandler(base, cfg.Ledger)

	group := rg.Group("/ledger")
	group.POST("/sales", h.RecordSale)
	group.POST("/manual", h.RecordManual)
	group.GET("/references/:type/:id", h.ListForReference)
}

func registerReportRoutes(rg *gin.RouterGroup, base *handlers.BaseHandler, cfg RouterConfig) {
	if cfg.Reports == nil {
		return
	}
	h := handlers.NewReportsHandler(base, cfg.Reports)

	group := rg.Group("/reports")
	group.GET("/summary", h.GetSummary)
	group.GET("/summary/export", h.ExportSummary)
	group.GET("/balances", h.GetBalances)
}
