package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"posledger/internal/core/apperror"
	"posledger/internal/core/entity"
	"posledger/internal/core/id"
	"posledger/internal/core/types"
)

func money(s string) types.Money { return types.MustMoney(s) }

func assertMoney(t *testing.T, want string, got types.Money, field string) {
	t.Helper()
	assert.True(t, got.Equal(money(want)), "%s: want %s, got %s", field, want, got)
}

func TestNewSaleEntry_Classification(t *testing.T) {
	tests := []struct {
		name                string
		status              entity.SaleStatus
		received, cogs      string
		debit, credit, cost string
	}{
		{"completed books margin", entity.SaleCompleted, "100", "40", "0", "60", "40"},
		{"credit books cash and cost", entity.SaleCredit, "30", "40", "0", "30", "40"},
		{"cancelled excludes cogs", entity.SaleCancelled, "100", "40", "100", "0", "0"},
		{"unpaid credit still recorded", entity.SaleCredit, "0", "0", "0", "0", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			saleID := id.New()
			e := NewSaleEntry(SaleEvent{
				SaleID:         saleID,
				DeviceID:       "till-1",
				UserID:         "u-1",
				Status:         tt.status,
				TotalAmount:    money("100"),
				ReceivedAmount: money(tt.received),
				COGSAmount:     money(tt.cogs),
			})

			assertMoney(t, tt.debit, e.DebitAmount, "debit")
			assertMoney(t, tt.credit, e.CreditAmount, "credit")
			assertMoney(t, tt.cost, e.CostAmount, "cost")
			assert.Equal(t, EventSale, e.EventType)
			assert.Equal(t, saleID, *e.ReferenceID)
			assert.Equal(t, string(tt.status), e.Status)
			assert.False(t, e.TransactionDate.IsZero())
		})
	}
}

func TestNewPurchaseEntry_DebitsPaidAmount(t *testing.T) {
	e := NewPurchaseEntry(PurchaseEvent{
		PurchaseID:     id.New(),
		DeviceID:       "till-1",
		UserID:         "u-1",
		Status:         entity.PurchaseCredit,
		TotalAmount:    money("200"),
		ReceivedAmount: money("50"),
	})

	assertMoney(t, "50", e.DebitAmount, "debit")
	assert.True(t, e.CreditAmount.IsZero())
	assert.True(t, e.CostAmount.IsZero())
	assert.Equal(t, RefPurchase, e.ReferenceType)
}

func TestNewSupplierPaymentEntry(t *testing.T) {
	supplier := id.New()
	e := NewSupplierPaymentEntry(SupplierPaymentEvent{SupplierID: supplier, DeviceID: "d", UserID: "u", Amount: money("200")})

	assertMoney(t, "200", e.DebitAmount, "debit")
	assert.True(t, e.CreditAmount.IsZero())
	assert.Equal(t, EventSupplierPayment, e.EventType)
	assert.Equal(t, supplier, *e.CounterpartyID)
	assert.Contains(t, e.Description, "Payment to supplier")
}

func TestNewManualEntry_Sides(t *testing.T) {
	debit := NewManualEntry(ManualEvent{DeviceID: "d", UserID: "u", Type: ManualDebit, Amount: money("15")})
	assertMoney(t, "15", debit.DebitAmount, "debit")
	assert.True(t, debit.CreditAmount.IsZero())

	credit := NewManualEntry(ManualEvent{DeviceID: "d", UserID: "u", Type: ManualCredit, Amount: money("15")})
	assertMoney(t, "15", credit.CreditAmount, "credit")
	assert.True(t, credit.DebitAmount.IsZero())
}

func TestSaleEvent_Validate(t *testing.T) {
	valid := SaleEvent{SaleID: id.New(), DeviceID: "d", UserID: "u", Status: entity.SaleCompleted}
	assert.NoError(t, valid.Validate())

	missingDevice := valid
	missingDevice.DeviceID = ""
	assert.True(t, apperror.HasCode(missingDevice.Validate(), apperror.CodeMissingField))

	missingSale := valid
	missingSale.SaleID = id.ID{}
	assert.True(t, apperror.HasCode(missingSale.Validate(), apperror.CodeMissingField))

	negative := valid
	negative.ReceivedAmount = money("-1")
	assert.True(t, apperror.HasCode(negative.Validate(), apperror.CodeValidation))

	unknown := valid
	unknown.Status = "Pending"
	assert.True(t, apperror.HasCode(unknown.Validate(), apperror.CodeValidation))

	overpaid := valid
	overpaid.TotalAmount = money("100")
	overpaid.ReceivedAmount = money("150")
	overpaid.COGSAmount = money("40")
	assert.True(t, apperror.HasCode(overpaid.Validate(), apperror.CodeReceivedExceedsTotal))

	paidInFull := overpaid
	paidInFull.ReceivedAmount = money("100")
	assert.NoError(t, paidInFull.Validate())
}

func TestPurchaseEvent_Validate(t *testing.T) {
	valid := PurchaseEvent{
		PurchaseID:     id.New(),
		DeviceID:       "d",
		UserID:         "u",
		Status:         entity.PurchaseCredit,
		TotalAmount:    money("200"),
		ReceivedAmount: money("50"),
	}
	assert.NoError(t, valid.Validate())

	overpaid := valid
	overpaid.ReceivedAmount = money("200.01")
	assert.True(t, apperror.HasCode(overpaid.Validate(), apperror.CodeReceivedExceedsTotal))
}

func TestManualEvent_RejectsUnknownType(t *testing.T) {
	err := ManualEvent{DeviceID: "d", UserID: "u", Type: "both"}.Validate()
	assert.True(t, apperror.HasCode(err, apperror.CodeValidation))
}
