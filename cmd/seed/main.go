// Package main provides a CLI tool for bootstrapping a till: the first
// operator and, on request, a small demo catalog.
package main

import (
	"context"
	"fmt"
	"os"

	"posledger/internal/core/apperror"
	"posledger/internal/core/config"
	appctx "posledger/internal/core/context"
	"posledger/internal/core/types"
	"posledger/internal/domain/auth"
	"posledger/internal/domain/catalog"
	"posledger/internal/domain/inventory"
	"posledger/internal/infrastructure/storage/postgres"
	"posledger/internal/infrastructure/storage/postgres/auth_repo"
	"posledger/internal/infrastructure/storage/postgres/catalog_repo"
	"posledger/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	deviceID := os.Getenv("SEED_DEVICE_ID")
	if deviceID == "" {
		log.Fatal("SEED_DEVICE_ID environment variable is required")
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if _, err := postgres.NewMigrator(pool).Up(ctx); err != nil {
		log.Fatalw("failed to migrate database", "error", err)
	}

	txManager := postgres.NewTxManager(pool)

	op, err := seedOperator(ctx, txManager, cfg, deviceID)
	if err != nil {
		log.Fatalw("failed to seed operator", "error", err)
	}

	if os.Getenv("SEED_DEMO_DATA") == "true" {
		ctx = appctx.WithUser(ctx, &appctx.UserContext{
			UserID:   op.ID.String(),
			DeviceID: op.DeviceID,
			Email:    op.Email,
		})
		if err := seedDemoCatalog(ctx, catalog.NewService(catalog_repo.NewCatalogRepo(txManager))); err != nil {
			log.Fatalw("failed to seed demo catalog", "error", err)
		}
	}

	log.Infow("seeding completed successfully", "device_id", deviceID, "operator", op.Email)
}

// seedOperator creates the till's first operator unless it already exists.
func seedOperator(ctx context.Context, txManager *postgres.TxManager, cfg config.Config, deviceID string) (*auth.Operator, error) {
	email := os.Getenv("ADMIN_EMAIL")
	if email == "" {
		email = "owner@posledger.local"
	}
	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		return nil, fmt.Errorf("ADMIN_PASSWORD environment variable is required")
	}

	repo := auth_repo.NewOperatorRepo(txManager)
	existing, err := repo.GetByEmail(ctx, deviceID, email)
	if err == nil {
		logger.Info(ctx, "operator already exists", "email", email, "operator_id", existing.ID)
		return existing, nil
	}
	if !apperror.IsNotFound(err) {
		return nil, fmt.Errorf("check operator exists: %w", err)
	}

	svc := auth.NewService(repo, auth.NewJWTService(auth.DefaultJWTConfig(cfg.JWTSecret)), auth.DefaultServiceConfig())
	return svc.Register(ctx, auth.Credentials{DeviceID: deviceID, Email: email, Password: password}, "Owner")
}

func seedDemoCatalog(ctx context.Context, svc *catalog.Service) error {
	wholesale := types.MustMoney("2.40")
	products := []*catalog.Product{
		{Kind: inventory.KindProduct, Name: "Coffee beans 250g", WholesalePrice: &wholesale, StockQuantity: types.NewQuantity(20)},
		{Kind: inventory.KindService, Name: "Grinding"},
	}
	for _, p := range products {
		if err := svc.CreateProduct(ctx, p); err != nil {
			return fmt.Errorf("create product %q: %w", p.Name, err)
		}
	}

	if err := svc.CreateParty(ctx, catalog.PartyCustomer, &catalog.Party{Name: "Walk-in customer"}); err != nil {
		return fmt.Errorf("create customer: %w", err)
	}
	if err := svc.CreateParty(ctx, catalog.PartySupplier, &catalog.Party{Name: "Roastery"}); err != nil {
		return fmt.Errorf("create supplier: %w", err)
	}
	return nil
}
