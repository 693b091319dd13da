package purchases

import (
	"context"
	"fmt"
	"time"

	"posledger/internal/core/apperror"
	appctx "posledger/internal/core/context"
	"posledger/internal/core/entity"
	"posledger/internal/core/id"
	"posledger/internal/core/tx"
	"posledger/internal/core/types"
	"posledger/internal/domain/audit"
	"posledger/internal/domain/inventory"
	"posledger/internal/domain/ledger"
	"posledger/pkg/logger"
)

const auditEntity = "purchase"

// Service runs the purchase lifecycle with the same unit-of-work rules as sales.
type Service struct {
	repo   Repository
	txm    tx.Runner
	stock  *inventory.Reconciler
	ledger *ledger.Recorder
	audit  *audit.Trail
	now    func() time.Time
}

// NewService creates the purchase service. trail may be nil.
func NewService(
	repo Repository,
	txm tx.Runner,
	stock *inventory.Reconciler,
	recorder *ledger.Recorder,
	trail *audit.Trail,
) *Service {
	return &Service{
		repo:   repo,
		txm:    txm,
		stock:  stock,
		ledger: recorder,
		audit:  trail,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Get returns a purchase with its items.
func (s *Service) Get(ctx context.Context, purchaseID id.ID) (*Purchase, error) {
	scope, err := appctx.RequireScope(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.repo.Get(ctx, scope.DeviceID, purchaseID)
	if err != nil {
		return nil, apperror.Persist(err)
	}
	if p.Items, err = s.repo.GetItems(ctx, purchaseID); err != nil {
		return nil, apperror.Persist(fmt.Errorf("load purchase items: %w", err))
	}
	return p, nil
}

// Create records a purchase, puts its goods on the shelf once delivered, and
// books the money paid.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Purchase, error) {
	scope, err := appctx.RequireScope(ctx)
	if err != nil {
		return nil, err
	}

	p := &Purchase{Bill: entity.NewBill(scope.DeviceID, scope.UserID)}
	p.apply(cmd, s.now())
	if err := p.Validate(); err != nil {
		return nil, err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.ensureSupplier(ctx, p.DeviceID, p.SupplierID); err != nil {
			return err
		}
		if err := s.stock.CheckItems(ctx, p.DeviceID, p.lines()); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return apperror.Persist(fmt.Errorf("insert purchase: %w", err))
		}
		if err := s.repo.ReplaceItems(ctx, p.ID, p.Items); err != nil {
			return apperror.Persist(fmt.Errorf("insert purchase items: %w", err))
		}

		if _, err := s.stock.Reconcile(ctx, inventory.Change{
			Direction:   inventory.DirectionPurchase,
			ReferenceID: p.ID,
			DeviceID:    p.DeviceID,
			UserID:      scope.UserID,
			Next:        p.lines(),
			ShouldApply: p.AppliesStock(),
		}); err != nil {
			return err
		}

		if _, err := s.ledger.RecordPurchase(ctx, ledger.PurchaseEvent{
			PurchaseID:      p.ID,
			DeviceID:        p.DeviceID,
			UserID:          scope.UserID,
			SupplierID:      &p.SupplierID,
			Status:          p.Status,
			TotalAmount:     p.TotalAmount,
			ReceivedAmount:  p.ReceivedAmount,
			PaymentMethod:   p.PaymentMethod,
			TransactionDate: p.PurchaseDate,
		}); err != nil {
			return err
		}

		s.audit.Record(ctx, auditEntity, p.ID, audit.ActionCreate, nil, p)
		return nil
	})
	if err != nil {
		return nil, apperror.Persist(err)
	}

	logger.Info(ctx, "purchase created", "purchase_id", p.ID, "status", p.Status)
	return p, nil
}

// Update applies an edit to a purchase.
func (s *Service) Update(ctx context.Context, cmd UpdateCommand) (*UpdateResult, error) {
	scope, err := appctx.RequireScope(ctx)
	if err != nil {
		return nil, err
	}

	var result *UpdateResult
	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		prev, err := s.repo.GetForUpdate(ctx, scope.DeviceID, cmd.ID)
		if err != nil {
			return apperror.Persist(err)
		}
		if prev.Items, err = s.repo.GetItems(ctx, prev.ID); err != nil {
			return apperror.Persist(fmt.Errorf("load purchase items: %w", err))
		}

		next := *prev
		next.apply(cmd.CreateCommand, prev.PurchaseDate)
		next.UpdatedAt = s.now()
		if err := next.Validate(); err != nil {
			return err
		}
		if next.SupplierID != prev.SupplierID {
			if err := s.ensureSupplier(ctx, next.DeviceID, next.SupplierID); err != nil {
				return err
			}
		}

		if err := s.stock.CheckItems(ctx, next.DeviceID, next.lines()); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, &next); err != nil {
			return apperror.Persist(fmt.Errorf("update purchase: %w", err))
		}
		if err := s.repo.ReplaceItems(ctx, next.ID, next.Items); err != nil {
			return apperror.Persist(fmt.Errorf("replace purchase items: %w", err))
		}

		deltas, err := s.stock.Reconcile(ctx, inventory.Change{
			Direction:   inventory.DirectionPurchase,
			ReferenceID: next.ID,
			DeviceID:    next.DeviceID,
			UserID:      scope.UserID,
			Previous:    prev.lines(),
			Next:        next.lines(),
			WasApplied:  prev.AppliesStock(),
			ShouldApply: next.AppliesStock(),
		})
		if err != nil {
			return err
		}

		result = &UpdateResult{Purchase: &next, StockDeltas: deltas}

		result.AdjustmentID = s.ledger.RecordPurchaseAdjustment(ctx, ledger.PurchaseAdjustmentRequest{
			Target: ledger.AdjustmentTarget{
				ReferenceID:     next.ID,
				CounterpartyID:  &next.SupplierID,
				DeviceID:        next.DeviceID,
				UserID:          scope.UserID,
				TotalAmount:     next.TotalAmount,
				ReceivedAmount:  next.ReceivedAmount,
				PaymentMethod:   next.PaymentMethod,
				TransactionDate: next.UpdatedAt,
			},
			Previous: prev.Snapshot(),
			Next:     next.Snapshot(),
		})
		result.NoChanges = result.AdjustmentID == nil

		s.audit.Record(ctx, auditEntity, next.ID, audit.ActionUpdate, prev, &next)
		return nil
	})
	if err != nil {
		return nil, apperror.Persist(err)
	}

	logger.Info(ctx, "purchase updated",
		"purchase_id", cmd.ID,
		"stock_deltas", len(result.StockDeltas),
		"no_changes", result.NoChanges,
	)
	return result, nil
}

// Delete removes a purchase, takes its goods back off the shelf if they were
// added, and drops its ledger rows.
func (s *Service) Delete(ctx context.Context, purchaseID id.ID) error {
	scope, err := appctx.RequireScope(ctx)
	if err != nil {
		return err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		prev, err := s.repo.GetForUpdate(ctx, scope.DeviceID, purchaseID)
		if err != nil {
			return apperror.Persist(err)
		}
		if prev.Items, err = s.repo.GetItems(ctx, prev.ID); err != nil {
			return apperror.Persist(fmt.Errorf("load purchase items: %w", err))
		}

		if _, err := s.stock.Reconcile(ctx, inventory.Change{
			Direction:   inventory.DirectionPurchase,
			ReferenceID: prev.ID,
			DeviceID:    prev.DeviceID,
			UserID:      scope.UserID,
			Previous:    prev.lines(),
			WasApplied:  prev.AppliesStock(),
			Reason:      "purchase deleted",
		}); err != nil {
			return err
		}

		if err := s.ledger.DeleteForReference(ctx, prev.DeviceID, ledger.RefPurchase, prev.ID); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, prev.DeviceID, prev.ID); err != nil {
			return apperror.Persist(fmt.Errorf("delete purchase: %w", err))
		}

		s.audit.Record(ctx, auditEntity, prev.ID, audit.ActionDelete, prev, nil)
		return nil
	})
	if err != nil {
		return apperror.Persist(err)
	}

	logger.Info(ctx, "purchase deleted", "purchase_id", purchaseID)
	return nil
}

func (s *Service) ensureSupplier(ctx context.Context, deviceID string, supplierID id.ID) error {
	ok, err := s.repo.SupplierExists(ctx, deviceID, supplierID)
	if err != nil {
		return apperror.Persist(fmt.Errorf("lookup supplier: %w", err))
	}
	if !ok {
		return apperror.NewNotFound("supplier", supplierID)
	}
	return nil
}

// apply copies the editable fields of cmd onto p. A Delivered purchase has
// by definition received its goods.
func (p *Purchase) apply(cmd CreateCommand, defaultDate time.Time) {
	p.SupplierID = cmd.SupplierID
	p.PurchaseDate = cmd.PurchaseDate
	if p.PurchaseDate.IsZero() {
		p.PurchaseDate = defaultDate
	}
	p.TotalAmount = types.Round2(cmd.TotalAmount)
	p.ReceivedAmount = types.Round2(cmd.ReceivedAmount)
	p.Status = cmd.Status
	p.Delivered = cmd.Delivered || cmd.Status == entity.PurchaseDelivered
	p.PaymentMethod = cmd.PaymentMethod
	p.Notes = cmd.Notes
	p.Items = cmd.Items
}
