package sales

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

const auditEntity = "sale"

// Service runs the sale lifecycle. Each operation is one unit of work:
// the sale row and its items, the stock counters and their history, and the
// ledger rows commit or roll back together. Ledger writes on create and edit
// are shadow writes and never fail the operation.
type Service struct {
	repo   Repository
	txm    tx.Runner
	stock  *inventory.Reconciler
	cogs   *inventory.COGSCalculator
	ledger *ledger.Recorder
	audit  *audit.Trail
	now    func() time.Time
}

// NewService creates the sale service. trail may be nil.
func NewService(
	repo Repository,
	txm tx.Runner,
	stock *inventory.Reconciler,
	cogs *inventory.COGSCalculator,
	recorder *ledger.Recorder,
	trail *audit.Trail,
) *Service {
	return &Service{
		repo:   repo,
		txm:    txm,
		stock:  stock,
		cogs:   cogs,
		ledger: recorder,
		audit:  trail,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Get returns a sale with its items.
func (s *Service) Get(ctx context.Context, saleID id.ID) (*Sale, error) {
	scope, err := appctx.RequireScope(ctx)
	if err != nil {
		return nil, err
	}

	sale, err := s.repo.Get(ctx, scope.DeviceID, saleID)
	if err != nil {
		return nil, apperror.Persist(err)
	}
	if sale.Items, err = s.repo.GetItems(ctx, saleID); err != nil {
		return nil, apperror.Persist(fmt.Errorf("load sale items: %w", err))
	}
	return sale, nil
}

// Create records a new sale, takes its goods off the shelf when it applies
// stock, and books it in the ledger.
func (s *Service) Create(ctx context.Context, cmd CreateCommand) (*Sale, error) {
	scope, err := appctx.RequireScope(ctx)
	if err != nil {
		return nil, err
	}

	sale := &Sale{Bill: entity.NewBill(scope.DeviceID, scope.UserID)}
	sale.apply(cmd, s.now())
	if err := sale.Validate(); err != nil {
		return nil, err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.stock.CheckItems(ctx, sale.DeviceID, sale.lines()); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, sale); err != nil {
			return apperror.Persist(fmt.Errorf("insert sale: %w", err))
		}
		if err := s.repo.ReplaceItems(ctx, sale.ID, sale.Items); err != nil {
			return apperror.Persist(fmt.Errorf("insert sale items: %w", err))
		}

		if _, err := s.stock.Reconcile(ctx, inventory.Change{
			Direction:   inventory.DirectionSale,
			ReferenceID: sale.ID,
			DeviceID:    sale.DeviceID,
			UserID:      scope.UserID,
			Next:        sale.lines(),
			ShouldApply: sale.AppliesStock(),
		}); err != nil {
			return err
		}

		cogs, err := s.cogs.ForItems(ctx, sale.DeviceID, sale.Items)
		if err != nil {
			return apperror.Persist(fmt.Errorf("price sale items: %w", err))
		}

		if _, err := s.ledger.RecordSale(ctx, ledger.SaleEvent{
			SaleID:          sale.ID,
			DeviceID:        sale.DeviceID,
			UserID:          scope.UserID,
			CustomerID:      sale.CustomerID,
			Status:          sale.Status,
			TotalAmount:     sale.TotalAmount,
			ReceivedAmount:  sale.ReceivedAmount,
			COGSAmount:      cogs,
			PaymentMethod:   sale.PaymentMethod,
			TransactionDate: sale.SaleDate,
		}); err != nil {
			return err
		}

		s.audit.Record(ctx, auditEntity, sale.ID, audit.ActionCreate, nil, sale)
		return nil
	})
	if err != nil {
		return nil, apperror.Persist(err)
	}

	logger.Info(ctx, "sale created", "sale_id", sale.ID, "status", sale.Status)
	return sale, nil
}

// Update applies an edit. Stock moves by the difference between what the
// sale had applied and what it applies now, and the ledger receives one
// adjustment row for the money and cost that changed.
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
			return apperror.Persist(fmt.Errorf("load sale items: %w", err))
		}

		// priced before the items are replaced
		prevCOGS := s.cogs.ForSale(ctx, prev.DeviceID, prev.ID, prev.Items)

		next := *prev
		next.apply(cmd.CreateCommand, prev.SaleDate)
		next.UpdatedAt = s.now()
		if err := next.Validate(); err != nil {
			return err
		}

		if err := s.stock.CheckItems(ctx, next.DeviceID, next.lines()); err != nil {
			return err
		}
		if err := s.repo.Update(ctx, &next); err != nil {
			return apperror.Persist(fmt.Errorf("update sale: %w", err))
		}
		if err := s.repo.ReplaceItems(ctx, next.ID, next.Items); err != nil {
			return apperror.Persist(fmt.Errorf("replace sale items: %w", err))
		}

		deltas, err := s.stock.Reconcile(ctx, inventory.Change{
			Direction:   inventory.DirectionSale,
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

		nextCOGS, err := s.cogs.ForItems(ctx, next.DeviceID, next.Items)
		if err != nil {
			return apperror.Persist(fmt.Errorf("price sale items: %w", err))
		}

		result = &UpdateResult{Sale: &next, StockDeltas: deltas}

		result.AdjustmentID = s.ledger.RecordSaleAdjustment(ctx, ledger.SaleAdjustmentRequest{
			Target: ledger.AdjustmentTarget{
				ReferenceID:     next.ID,
				CounterpartyID:  next.CustomerID,
				DeviceID:        next.DeviceID,
				UserID:          scope.UserID,
				TotalAmount:     next.TotalAmount,
				ReceivedAmount:  next.ReceivedAmount,
				PaymentMethod:   next.PaymentMethod,
				TransactionDate: next.UpdatedAt,
			},
			Previous: prev.Snapshot(prevCOGS),
			Next:     next.Snapshot(nextCOGS),
		})
		result.NoChanges = result.AdjustmentID == nil

		s.audit.Record(ctx, auditEntity, next.ID, audit.ActionUpdate, prev, &next)
		return nil
	})
	if err != nil {
		return nil, apperror.Persist(err)
	}

	logger.Info(ctx, "sale updated",
		"sale_id", cmd.ID,
		"stock_deltas", len(result.StockDeltas),
		"no_changes", result.NoChanges,
	)
	return result, nil
}

// Delete removes a sale, returns its goods to stock if they were taken, and
// drops every ledger row that explained it.
func (s *Service) Delete(ctx context.Context, saleID id.ID) error {
	scope, err := appctx.RequireScope(ctx)
	if err != nil {
		return err
	}

	err = s.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		prev, err := s.repo.GetForUpdate(ctx, scope.DeviceID, saleID)
		if err != nil {
			return apperror.Persist(err)
		}
		if prev.Items, err = s.repo.GetItems(ctx, prev.ID); err != nil {
			return apperror.Persist(fmt.Errorf("load sale items: %w", err))
		}

		if _, err := s.stock.Reconcile(ctx, inventory.Change{
			Direction:   inventory.DirectionSale,
			ReferenceID: prev.ID,
			DeviceID:    prev.DeviceID,
			UserID:      scope.UserID,
			Previous:    prev.lines(),
			WasApplied:  prev.AppliesStock(),
			Reason:      "sale deleted",
		}); err != nil {
			return err
		}

		if err := s.ledger.DeleteForReference(ctx, prev.DeviceID, ledger.RefSale, prev.ID); err != nil {
			return err
		}
		if err := s.repo.Delete(ctx, prev.DeviceID, prev.ID); err != nil {
			return apperror.Persist(fmt.Errorf("delete sale: %w", err))
		}

		s.audit.Record(ctx, auditEntity, prev.ID, audit.ActionDelete, prev, nil)
		return nil
	})
	if err != nil {
		return apperror.Persist(err)
	}

	logger.Info(ctx, "sale deleted", "sale_id", saleID)
	return nil
}

// apply copies the editable fields of cmd onto s. A Completed sale has by
// definition handed its goods over.
func (s *Sale) apply(cmd CreateCommand, defaultDate time.Time) {
	s.CustomerID = cmd.CustomerID
	s.SaleDate = cmd.SaleDate
	if s.SaleDate.IsZero() {
		s.SaleDate = defaultDate
	}
	s.TotalAmount = types.Round2(cmd.TotalAmount)
	s.ReceivedAmount = types.Round2(cmd.ReceivedAmount)
	s.Discount = types.Round2(cmd.Discount)
	s.Status = cmd.Status
	s.Delivered = cmd.Delivered || cmd.Status == entity.SaleCompleted
	s.PaymentMethod = cmd.PaymentMethod
	s.Notes = cmd.Notes
	s.Items = cmd.Items
}
