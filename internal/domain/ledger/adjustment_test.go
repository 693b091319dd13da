package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"posledger/internal/core/entity"
	"posledger/internal/core/id"
)

func saleSnap(status entity.SaleStatus, received, discount, cogs string) SaleSnapshot {
	return SaleSnapshot{
		TotalAmount:    money("100"),
		ReceivedAmount: money(received),
		Discount:       money(discount),
		COGS:           money(cogs),
		Status:         status,
	}
}

func TestSaleAdjustment(t *testing.T) {
	tests := []struct {
		name                string
		prev, next          SaleSnapshot
		wantOK              bool
		debit, credit, cost string
		cancellation        bool
	}{
		{
			name:   "nothing changed",
			prev:   saleSnap(entity.SaleCompleted, "100", "0", "40"),
			next:   saleSnap(entity.SaleCompleted, "100", "0", "40"),
			wantOK: false,
		},
		{
			name:   "more received",
			prev:   saleSnap(entity.SaleCredit, "50", "0", "40"),
			next:   saleSnap(entity.SaleCredit, "100", "0", "40"),
			wantOK: true, debit: "0", credit: "50", cost: "0",
		},
		{
			name:   "less received",
			prev:   saleSnap(entity.SaleCompleted, "100", "0", "40"),
			next:   saleSnap(entity.SaleCompleted, "60", "0", "40"),
			wantOK: true, debit: "40", credit: "0", cost: "0",
		},
		{
			name:   "discount grew",
			prev:   saleSnap(entity.SaleCompleted, "100", "0", "40"),
			next:   saleSnap(entity.SaleCompleted, "100", "10", "40"),
			wantOK: true, debit: "10", credit: "0", cost: "0",
		},
		{
			name:   "discount shrank",
			prev:   saleSnap(entity.SaleCompleted, "100", "10", "40"),
			next:   saleSnap(entity.SaleCompleted, "100", "0", "40"),
			wantOK: true, debit: "0", credit: "10", cost: "0",
		},
		{
			name:   "cancel only refunds and reverses cogs",
			prev:   saleSnap(entity.SaleCompleted, "100", "0", "40"),
			next:   saleSnap(entity.SaleCancelled, "100", "0", "40"),
			wantOK: true, debit: "100", credit: "0", cost: "-40", cancellation: true,
		},
		{
			name:   "cancel with refund change uses generic path",
			prev:   saleSnap(entity.SaleCompleted, "100", "0", "40"),
			next:   saleSnap(entity.SaleCancelled, "0", "0", "0"),
			wantOK: true, debit: "100", credit: "0", cost: "-40",
		},
		{
			name:   "reactivation books new cogs",
			prev:   saleSnap(entity.SaleCancelled, "100", "0", "0"),
			next:   saleSnap(entity.SaleCompleted, "100", "0", "45"),
			wantOK: true, debit: "0", credit: "0", cost: "45",
		},
		{
			name:   "quantity edit moves cost only",
			prev:   saleSnap(entity.SaleCompleted, "100", "0", "40"),
			next:   saleSnap(entity.SaleCompleted, "100", "0", "55"),
			wantOK: true, debit: "0", credit: "0", cost: "15",
		},
		{
			name:   "status change without money effect",
			prev:   saleSnap(entity.SaleCompleted, "100", "0", "40"),
			next:   saleSnap(entity.SaleCredit, "100", "0", "40"),
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj, ok := SaleAdjustment(tt.prev, tt.next)

			assert.Equal(t, tt.wantOK, ok)
			if !tt.wantOK {
				return
			}
			assertMoney(t, tt.debit, adj.Debit, "debit")
			assertMoney(t, tt.credit, adj.Credit, "credit")
			assertMoney(t, tt.cost, adj.Cost, "cost")
			assert.Equal(t, tt.cancellation, adj.Cancellation)
			assert.True(t, adj.PriorCost.Equal(tt.prev.COGS))
			assert.NotEmpty(t, adj.Description)
		})
	}
}

func TestSaleAdjustment_Description(t *testing.T) {
	adj, ok := SaleAdjustment(
		saleSnap(entity.SaleCredit, "50", "0", "40"),
		saleSnap(entity.SaleCompleted, "100", "5", "40"),
	)

	assert.True(t, ok)
	assert.Equal(t,
		"Received amount changed from 50.00 to 100.00; Discount changed from 0.00 to 5.00; Status changed from Credit to Completed",
		adj.Description,
	)
}

func TestPurchaseAdjustment(t *testing.T) {
	snap := func(status entity.PurchaseStatus, received string) PurchaseSnapshot {
		return PurchaseSnapshot{TotalAmount: money("200"), ReceivedAmount: money(received), Status: status}
	}

	adj, ok := PurchaseAdjustment(snap(entity.PurchaseCredit, "0"), snap(entity.PurchasePaid, "200"))
	assert.True(t, ok)
	assertMoney(t, "200", adj.Debit, "debit")
	assert.True(t, adj.Credit.IsZero())

	adj, ok = PurchaseAdjustment(snap(entity.PurchaseDelivered, "200"), snap(entity.PurchaseDelivered, "150"))
	assert.True(t, ok)
	assertMoney(t, "50", adj.Credit, "credit")

	adj, ok = PurchaseAdjustment(snap(entity.PurchaseCredit, "80"), snap(entity.PurchaseCancelled, "80"))
	assert.True(t, ok)
	assert.True(t, adj.Cancellation)
	assertMoney(t, "80", adj.Credit, "credit")
	assert.True(t, adj.Debit.IsZero())

	_, ok = PurchaseAdjustment(snap(entity.PurchaseCredit, "0"), snap(entity.PurchaseDelivered, "0"))
	assert.False(t, ok)

	_, ok = PurchaseAdjustment(snap(entity.PurchaseCredit, "0"), snap(entity.PurchaseCancelled, "0"))
	assert.False(t, ok, "cancelling an unpaid purchase moves no money")
}

func TestNewAdjustmentEntry(t *testing.T) {
	ref := id.New()
	adj, _ := SaleAdjustment(
		saleSnap(entity.SaleCompleted, "100", "0", "40"),
		saleSnap(entity.SaleCancelled, "100", "0", "40"),
	)

	e := NewAdjustmentEntry(AdjustmentTarget{
		ReferenceType: RefSale,
		ReferenceID:   ref,
		DeviceID:      "d",
		UserID:        "u",
		TotalAmount:   money("100"),
		ChangeType:    "cancel",
	}, adj)

	assert.Equal(t, EventAdjustment, e.EventType)
	assert.Equal(t, StatusAdjustment, e.Status)
	assert.Equal(t, ref, *e.ReferenceID)
	assertMoney(t, "100", e.DebitAmount, "debit")
	assertMoney(t, "-40", e.CostAmount, "cost")
	assertMoney(t, "40", e.PriorCostAmount, "prior cost")
	assert.Equal(t, "[cancel] Sale cancelled; refunded 100.00; COGS -40.00", e.Description)
}
