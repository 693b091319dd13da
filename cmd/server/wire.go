package main

import (
	"posledger/internal/core/config"
	"posledger/internal/domain/audit"
	"posledger/internal/domain/auth"
	"posledger/internal/domain/catalog"
	"posledger/internal/domain/inventory"
	"posledger/internal/domain/ledger"
	"posledger/internal/domain/purchases"
	"posledger/internal/domain/reports"
	"posledger/internal/domain/sales"
	v1 "posledger/internal/infrastructure/http/v1"
	"posledger/internal/infrastructure/storage/postgres"
	"posledger/internal/infrastructure/storage/postgres/auth_repo"
	"posledger/internal/infrastructure/storage/postgres/catalog_repo"
	"posledger/internal/infrastructure/storage/postgres/document_repo"
	"posledger/internal/infrastructure/storage/postgres/register_repo"
	"posledger/internal/infrastructure/storage/postgres/report_repo"
	"posledger/pkg/logger"
)

// wire builds the repositories and services behind the API.
func wire(cfg config.Config, pool *postgres.Pool, log *logger.Logger) (v1.RouterConfig, error) {
	txManager := postgres.NewTxManager(pool)

	auditStore, err := postgres.NewAuditStore(txManager)
	if err != nil {
		return v1.RouterConfig{}, err
	}
	trail := audit.NewTrail(auditStore, txManager)

	stockRepo := register_repo.NewStockRepo(txManager)
	saleRepo := document_repo.NewSaleRepo(txManager)
	purchaseRepo := document_repo.NewPurchaseRepo(txManager)

	reconciler := inventory.NewReconciler(stockRepo)
	cogs := inventory.NewCOGSCalculator(stockRepo, saleRepo, txManager)
	recorder := ledger.NewRecorder(register_repo.NewLedgerRepo(txManager), txManager, postgres.NewLedgerOutbox(txManager))

	jwtService := auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret))
	authService := auth.NewService(auth_repo.NewOperatorRepo(txManager), jwtService, auth.DefaultServiceConfig())

	return v1.RouterConfig{
		Health:       pool,
		Logger:       log,
		JWTValidator: jwtService,
		Idempotency:  postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL),
		AuthService:  authService,
		Catalog:      catalog.NewService(catalog_repo.NewCatalogRepo(txManager)),
		Sales:        sales.NewService(saleRepo, txManager, reconciler, cogs, recorder, trail),
		Purchases:    purchases.NewService(purchaseRepo, txManager, reconciler, recorder, trail),
		Allocator:    purchases.NewAllocator(purchaseRepo, txManager, recorder, trail, cfg.Ledger.PaymentEpsilon),
		Ledger:       ledger.NewService(recorder, txManager),
		Stock:        reconciler,
		Reports:      reports.NewService(report_repo.NewReportRepo(txManager), cfg.Location),
		Audit:        auditStore,
	}, nil
}
