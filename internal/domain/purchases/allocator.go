package purchases

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"posledger/internal/core/apperror"
	appctx "posledger/internal/core/context"
	"posledger/internal/core/entity"
	"posledger/internal/core/id"
	"posledger/internal/core/tx"
	"posledger/internal/core/types"
	"posledger/internal/domain/audit"
	"posledger/internal/domain/ledger"
	"posledger/pkg/logger"
)

// Allocator spreads a supplier payment over the supplier's open credit
// purchases, oldest first.
type Allocator struct {
	repo    Repository
	txm     tx.Manager
	ledger  *ledger.Recorder
	audit   *audit.Trail
	epsilon decimal.Decimal
}

// NewAllocator creates an allocator. A purchase whose remaining balance is at
// most epsilon is considered paid.
func NewAllocator(repo Repository, txm tx.Manager, recorder *ledger.Recorder, trail *audit.Trail, epsilon decimal.Decimal) *Allocator {
	return &Allocator{
		repo:    repo,
		txm:     txm,
		ledger:  recorder,
		audit:   trail,
		epsilon: epsilon,
	}
}

// Allocate applies cmd to the supplier's debt in one unit of work. Nothing is
// written when the payment cannot be placed in full.
func (a *Allocator) Allocate(ctx context.Context, cmd PaymentCommand) (*PaymentResult, error) {
	scope, err := appctx.RequireScope(ctx)
	if err != nil {
		return nil, err
	}
	if id.IsNil(cmd.SupplierID) {
		return nil, apperror.NewMissingField("supplier_id")
	}
	amount := types.Round2(cmd.Amount)
	if !amount.IsPositive() {
		return nil, apperror.NewValidation("payment amount must be positive").WithDetail("field", "amount")
	}

	var result *PaymentResult
	err = a.txm.RunInTransaction(ctx, func(ctx context.Context) error {
		exists, err := a.repo.SupplierExists(ctx, scope.DeviceID, cmd.SupplierID)
		if err != nil {
			return apperror.Persist(fmt.Errorf("lookup supplier: %w", err))
		}
		if !exists {
			return apperror.NewNotFound("supplier", cmd.SupplierID)
		}

		open, err := a.repo.ListOutstanding(ctx, scope.DeviceID, cmd.SupplierID)
		if err != nil {
			return apperror.Persist(fmt.Errorf("list outstanding purchases: %w", err))
		}

		allocations, err := Plan(open, amount, a.epsilon)
		if err != nil {
			return err
		}

		for _, alloc := range allocations {
			p := findOutstanding(open, alloc.PurchaseID)
			received := p.ReceivedAmount.Add(alloc.AllocatedAmount)
			if err := a.repo.ApplyPayment(ctx, scope.DeviceID, alloc.PurchaseID, received, alloc.ResultingStatus); err != nil {
				return apperror.Persist(fmt.Errorf("apply payment to %s: %w", alloc.PurchaseID, err))
			}
		}

		entry := ledger.NewSupplierPaymentEntry(ledger.SupplierPaymentEvent{
			SupplierID:      cmd.SupplierID,
			DeviceID:        scope.DeviceID,
			UserID:          scope.UserID,
			Amount:          amount,
			PaymentMethod:   cmd.PaymentMethod,
			TransactionDate: cmd.PaymentDate,
			Description:     cmd.Notes,
		})
		a.ledger.Shadow(ctx, entry)

		result = &PaymentResult{
			Allocations:    allocations,
			LedgerEntryID:  entry.ID,
			TotalAllocated: amount,
		}
		a.audit.Record(ctx, "supplier", cmd.SupplierID, audit.ActionAllocate, nil, result)
		return nil
	})
	if err != nil {
		return nil, apperror.Persist(err)
	}

	logger.Info(ctx, "supplier payment allocated",
		"supplier_id", cmd.SupplierID,
		"amount", amount.StringFixed(2),
		"purchases", len(result.Allocations),
	)
	return result, nil
}

// Plan computes the oldest-first allocation of amount over open purchases
// without touching storage. Purchases are ordered by date, then id.
func Plan(open []Outstanding, amount types.Money, epsilon decimal.Decimal) ([]Allocation, error) {
	candidates := make([]Outstanding, 0, len(open))
	totalOutstanding := types.Zero()
	for _, p := range open {
		if p.Status.IsCancelled() || !p.Balance().IsPositive() {
			continue
		}
		candidates = append(candidates, p)
		totalOutstanding = totalOutstanding.Add(p.Balance())
	}
	if len(candidates) == 0 {
		return nil, apperror.NewInsufficientContext("supplier has no outstanding purchases")
	}
	if amount.GreaterThan(totalOutstanding) {
		return nil, apperror.NewExceedsOutstanding(amount.StringFixed(2), totalOutstanding.StringFixed(2))
	}

	slices.SortStableFunc(candidates, func(x, y Outstanding) int {
		if c := x.PurchaseDate.Compare(y.PurchaseDate); c != 0 {
			return c
		}
		return cmp.Compare(x.ID.String(), y.ID.String())
	})

	remaining := amount
	var allocations []Allocation
	for _, p := range candidates {
		if !remaining.IsPositive() {
			break
		}
		share := types.MinMoney(remaining, p.Balance())
		left := p.Balance().Sub(share)

		status := entity.PurchaseCredit
		if left.LessThanOrEqual(epsilon) {
			status = entity.PurchasePaid
		}

		allocations = append(allocations, Allocation{
			PurchaseID:       p.ID,
			AllocatedAmount:  share,
			ResultingStatus:  status,
			RemainingBalance: left,
		})
		remaining = remaining.Sub(share)
	}
	return allocations, nil
}

func findOutstanding(open []Outstanding, purchaseID id.ID) Outstanding {
	for _, p := range open {
		if p.ID == purchaseID {
			return p
		}
	}
	return Outstanding{}
}
