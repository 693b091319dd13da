package catalog

import (
	"context"
	"fmt"
	"strings"
	"time"

	"posledger/internal/core/apperror"
	appctx "posledger/internal/core/context"
	"posledger/internal/core/id"
	"posledger/internal/domain/inventory"
	"posledger/pkg/logger"
)

// Service creates and lists catalog entries.
type Service struct {
	repo Repository
}

// NewService creates a catalog service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CreateProduct adds a product to the caller's device. Opening stock is
// taken as given; later changes go through sales and purchases.
func (s *Service) CreateProduct(ctx context.Context, p *Product) error {
	scope, err := appctx.RequireScope(ctx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	p.ID = id.New()
	p.DeviceID = scope.DeviceID
	p.Name = strings.TrimSpace(p.Name)
	p.CreatedAt, p.UpdatedAt = now, now
	if p.Kind == "" {
		p.Kind = inventory.KindProduct
	}
	if err := p.Validate(); err != nil {
		return err
	}

	if err := s.repo.CreateProduct(ctx, p); err != nil {
		return apperror.Persist(fmt.Errorf("create product: %w", err))
	}
	logger.Info(ctx, "product created", "product_id", p.ID, "kind", p.Kind)
	return nil
}

// GetProduct returns one product of the caller's device.
func (s *Service) GetProduct(ctx context.Context, productID id.ID) (*Product, error) {
	scope, err := appctx.RequireScope(ctx)
	if err != nil {
		return nil, err
	}
	p, err := s.repo.GetProduct(ctx, scope.DeviceID, productID)
	if err != nil {
		return nil, apperror.Persist(err)
	}
	return p, nil
}

// ListProducts lists the caller's products.
func (s *Service) ListProducts(ctx context.Context, q ListQuery) ([]Product, error) {
	scope, err := appctx.RequireScope(ctx)
	if err != nil {
		return nil, err
	}
	products, err := s.repo.ListProducts(ctx, scope.DeviceID, q.normalized())
	if err != nil {
		return nil, apperror.Persist(err)
	}
	return products, nil
}

// CreateParty adds a customer or supplier to the caller's device.
func (s *Service) CreateParty(ctx context.Context, kind PartyKind, p *Party) error {
	scope, err := appctx.RequireScope(ctx)
	if err != nil {
		return err
	}
	if kind != PartyCustomer && kind != PartySupplier {
		return apperror.NewValidation("unknown party kind").WithDetail("kind", kind)
	}
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return apperror.NewMissingField("name")
	}

	p.ID = id.New()
	p.DeviceID = scope.DeviceID
	p.CreatedAt = time.Now().UTC()
	if err := s.repo.CreateParty(ctx, kind, p); err != nil {
		return apperror.Persist(fmt.Errorf("create %s: %w", kind, err))
	}
	logger.Info(ctx, "party created", "kind", kind, "party_id", p.ID)
	return nil
}

// ListParties lists the caller's customers or suppliers.
func (s *Service) ListParties(ctx context.Context, kind PartyKind, q ListQuery) ([]Party, error) {
	scope, err := appctx.RequireScope(ctx)
	if err != nil {
		return nil, err
	}
	parties, err := s.repo.ListParties(ctx, kind, scope.DeviceID, q.normalized())
	if err != nil {
		return nil, apperror.Persist(err)
	}
	return parties, nil
}
