package ledger

import (
	"fmt"
	"strings"
	"time"

	"posledger/internal/core/entity"
	"posledger/internal/core/id"
	"posledger/internal/core/types"
)

// SaleSnapshot is the money-relevant state of a sale at one point in time.
type SaleSnapshot struct {
	TotalAmount    types.Money       `json:"total_amount"`
	ReceivedAmount types.Money       `json:"received_amount"`
	Discount       types.Money       `json:"discount"`
	COGS           types.Money       `json:"cogs"`
	Status         entity.SaleStatus `json:"status"`
}

// PurchaseSnapshot is the money-relevant state of a purchase at one point in time.
type PurchaseSnapshot struct {
	TotalAmount    types.Money           `json:"total_amount"`
	ReceivedAmount types.Money           `json:"received_amount"`
	Status         entity.PurchaseStatus `json:"status"`
}

// Adjustment is the incremental effect of an edit.
type Adjustment struct {
	Debit       types.Money
	Credit      types.Money
	Cost        types.Money
	PriorCost   types.Money
	Description string
	// Cancellation marks the full-refund path taken when an edit only cancels.
	Cancellation bool
}

// SaleAdjustment diffs two sale snapshots. ok is false when nothing
// changed that would move money or cost.
//
// Received money goes to credit when it grows and debit when it shrinks.
// A growing discount is a debit, a shrinking one a credit. Cost follows the
// status: reactivation books the new COGS, cancellation reverses the old one,
// otherwise only the COGS difference is booked.
//
// When the edit does nothing but cancel, the whole received amount is
// refunded (debit) and the prior COGS reversed.
func SaleAdjustment(prev, next SaleSnapshot) (adj Adjustment, ok bool) {
	receivedDiff := next.ReceivedAmount.Sub(prev.ReceivedAmount)
	discountDiff := next.Discount.Sub(prev.Discount)
	cogsDiff := next.COGS.Sub(prev.COGS)
	statusChanged := prev.Status != next.Status

	if receivedDiff.IsZero() && discountDiff.IsZero() && !statusChanged && cogsDiff.IsZero() {
		return Adjustment{}, false
	}

	adj.PriorCost = prev.COGS
	wasCancelled, isCancelled := prev.Status.IsCancelled(), next.Status.IsCancelled()

	if isCancelled && !wasCancelled && receivedDiff.IsZero() && discountDiff.IsZero() {
		adj.Debit = prev.ReceivedAmount
		adj.Cost = prev.COGS.Neg()
		adj.Cancellation = true
		adj.Description = joinParts(
			"Sale cancelled",
			fmt.Sprintf("refunded %s", prev.ReceivedAmount.StringFixed(2)),
			cogsPart(prev.COGS.Neg()),
		)
		return adj, !isZeroAdjustment(adj)
	}

	switch {
	case receivedDiff.IsPositive():
		adj.Credit = adj.Credit.Add(receivedDiff)
	case receivedDiff.IsNegative():
		adj.Debit = adj.Debit.Add(receivedDiff.Abs())
	}

	switch {
	case discountDiff.IsPositive():
		adj.Debit = adj.Debit.Add(discountDiff)
	case discountDiff.IsNegative():
		adj.Credit = adj.Credit.Add(discountDiff.Abs())
	}

	switch {
	case wasCancelled && !isCancelled:
		adj.Cost = next.COGS
	case !wasCancelled && isCancelled:
		adj.Cost = prev.COGS.Neg()
	case wasCancelled && isCancelled:
		// a cancelled sale carries no cost either way
	default:
		adj.Cost = cogsDiff
	}

	var parts []string
	if !receivedDiff.IsZero() {
		parts = append(parts, changePart("Received amount", prev.ReceivedAmount, next.ReceivedAmount))
	}
	if !discountDiff.IsZero() {
		parts = append(parts, changePart("Discount", prev.Discount, next.Discount))
	}
	if statusChanged {
		parts = append(parts, fmt.Sprintf("Status changed from %s to %s", prev.Status, next.Status))
	}
	if !adj.Cost.IsZero() {
		parts = append(parts, cogsPart(adj.Cost))
	}
	adj.Description = joinParts(parts...)

	return adj, !isZeroAdjustment(adj)
}

// PurchaseAdjustment diffs two purchase snapshots. More money paid is a
// debit, a refund a credit. Cancelling without touching the paid amount
// credits back everything that was paid.
func PurchaseAdjustment(prev, next PurchaseSnapshot) (adj Adjustment, ok bool) {
	receivedDiff := next.ReceivedAmount.Sub(prev.ReceivedAmount)
	statusChanged := prev.Status != next.Status

	if receivedDiff.IsZero() && !statusChanged {
		return Adjustment{}, false
	}

	if next.Status.IsCancelled() && !prev.Status.IsCancelled() && receivedDiff.IsZero() {
		adj.Credit = prev.ReceivedAmount
		adj.Cancellation = true
		adj.Description = joinParts(
			"Purchase cancelled",
			fmt.Sprintf("refunded %s", prev.ReceivedAmount.StringFixed(2)),
		)
		return adj, !isZeroAdjustment(adj)
	}

	var parts []string
	switch {
	case receivedDiff.IsPositive():
		adj.Debit = receivedDiff
	case receivedDiff.IsNegative():
		adj.Credit = receivedDiff.Abs()
	}
	if !receivedDiff.IsZero() {
		parts = append(parts, changePart("Paid amount", prev.ReceivedAmount, next.ReceivedAmount))
	}
	if statusChanged {
		parts = append(parts, fmt.Sprintf("Status changed from %s to %s", prev.Status, next.Status))
	}
	adj.Description = joinParts(parts...)

	return adj, !isZeroAdjustment(adj)
}

// AdjustmentTarget identifies what an adjustment entry explains.
type AdjustmentTarget struct {
	ReferenceType   ReferenceType
	ReferenceID     id.ID
	CounterpartyID  *id.ID
	DeviceID        string
	UserID          string
	TotalAmount     types.Money
	ReceivedAmount  types.Money
	PaymentMethod   string
	TransactionDate time.Time
	// ChangeType is a short label such as "edit" or "cancel" prefixed to the description.
	ChangeType string
}

// NewAdjustmentEntry turns a computed adjustment into a ledger row.
func NewAdjustmentEntry(t AdjustmentTarget, adj Adjustment) *Entry {
	entry := baseEntry(t.DeviceID, t.UserID, t.TransactionDate)
	entry.EventType = EventAdjustment
	entry.ReferenceType = t.ReferenceType
	entry.ReferenceID = ptr(t.ReferenceID)
	entry.CounterpartyID = t.CounterpartyID
	entry.Amount = t.TotalAmount
	entry.ReceivedAmount = t.ReceivedAmount
	entry.DebitAmount = adj.Debit
	entry.CreditAmount = adj.Credit
	entry.CostAmount = adj.Cost
	entry.PriorCostAmount = adj.PriorCost
	entry.Status = StatusAdjustment
	entry.PaymentMethod = t.PaymentMethod
	entry.Description = adj.Description
	if t.ChangeType != "" {
		entry.Description = fmt.Sprintf("[%s] %s", t.ChangeType, adj.Description)
	}
	return entry
}

func isZeroAdjustment(a Adjustment) bool {
	return a.Debit.IsZero() && a.Credit.IsZero() && a.Cost.IsZero()
}

func changePart(label string, from, to types.Money) string {
	return fmt.Sprintf("%s changed from %s to %s", label, from.StringFixed(2), to.StringFixed(2))
}

func cogsPart(delta types.Money) string {
	if delta.IsZero() {
		return ""
	}
	return fmt.Sprintf("COGS %s", signed(delta))
}

func signed(v types.Money) string {
	if v.IsPositive() {
		return "+" + v.StringFixed(2)
	}
	return v.StringFixed(2)
}

func joinParts(parts ...string) string {
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, "; ")
}
