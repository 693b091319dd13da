package dto

import (
	"time"

	"posledger/internal/core/entity"
	"posledger/internal/core/id"
	"posledger/internal/core/types"
	"posledger/internal/domain/purchases"
	"posledger/internal/domain/sales"
)

// ItemRequest is one line of a sale or purchase.
type ItemRequest struct {
	ItemID    id.ID          `json:"item_id" binding:"required"`
	Quantity  types.Quantity `json:"quantity" binding:"required"`
	UnitPrice types.Money    `json:"unit_price"`
	UnitCost  *types.Money   `json:"unit_cost"`
}

func toItems(in []ItemRequest) []entity.Item {
	out := make([]entity.Item, len(in))
	for i, it := range in {
		out[i] = entity.Item{
			ItemID:    it.ItemID,
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			UnitCost:  it.UnitCost,
		}
	}
	return out
}

func dateOrZero(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}

// SaleRequest creates or replaces a sale.
type SaleRequest struct {
	CustomerID     *id.ID            `json:"customer_id"`
	SaleDate       *time.Time        `json:"sale_date"`
	TotalAmount    types.Money       `json:"total_amount"`
	ReceivedAmount types.Money       `json:"received_amount"`
	Discount       types.Money       `json:"discount"`
	Status         entity.SaleStatus `json:"status" binding:"required"`
	Delivered      bool              `json:"delivered"`
	PaymentMethod  string            `json:"payment_method"`
	Notes          string            `json:"notes"`
	Items          []ItemRequest     `json:"items" binding:"dive"`
}

// ToCommand converts to the domain command.
func (r *SaleRequest) ToCommand() sales.CreateCommand {
	return sales.CreateCommand{
		CustomerID:     r.CustomerID,
		SaleDate:       dateOrZero(r.SaleDate),
		TotalAmount:    r.TotalAmount,
		ReceivedAmount: r.ReceivedAmount,
		Discount:       r.Discount,
		Status:         r.Status,
		Delivered:      r.Delivered,
		PaymentMethod:  r.PaymentMethod,
		Notes:          r.Notes,
		Items:          toItems(r.Items),
	}
}

// ToUpdateCommand converts to the domain command for saleID.
func (r *SaleRequest) ToUpdateCommand(saleID id.ID) sales.UpdateCommand {
	return sales.UpdateCommand{ID: saleID, CreateCommand: r.ToCommand()}
}

// PurchaseRequest creates or replaces a purchase.
type PurchaseRequest struct {
	SupplierID     id.ID                 `json:"supplier_id" binding:"required"`
	PurchaseDate   *time.Time            `json:"purchase_date"`
	TotalAmount    types.Money           `json:"total_amount"`
	ReceivedAmount types.Money           `json:"received_amount"`
	Status         entity.PurchaseStatus `json:"status" binding:"required"`
	Delivered      bool                  `json:"delivered"`
	PaymentMethod  string                `json:"payment_method"`
	Notes          string                `json:"notes"`
	Items          []ItemRequest         `json:"items" binding:"dive"`
}

// ToCommand converts to the domain command.
func (r *PurchaseRequest) ToCommand() purchases.CreateCommand {
	return purchases.CreateCommand{
		SupplierID:     r.SupplierID,
		PurchaseDate:   dateOrZero(r.PurchaseDate),
		TotalAmount:    r.TotalAmount,
		ReceivedAmount: r.ReceivedAmount,
		Status:         r.Status,
		Delivered:      r.Delivered,
		PaymentMethod:  r.PaymentMethod,
		Notes:          r.Notes,
		Items:          toItems(r.Items),
	}
}

// ToUpdateCommand converts to the domain command for purchaseID.
func (r *PurchaseRequest) ToUpdateCommand(purchaseID id.ID) purchases.UpdateCommand {
	return purchases.UpdateCommand{ID: purchaseID, CreateCommand: r.ToCommand()}
}

// SupplierPaymentRequest pays a supplier across open purchases.
type SupplierPaymentRequest struct {
	Amount        types.Money `json:"amount"`
	PaymentMethod string      `json:"payment_method"`
	PaymentDate   *time.Time  `json:"payment_date"`
	Notes         string      `json:"notes"`
}

// ToCommand converts to the domain command for supplierID.
func (r *SupplierPaymentRequest) ToCommand(supplierID id.ID) purchases.PaymentCommand {
	return purchases.PaymentCommand{
		SupplierID:    supplierID,
		Amount:        r.Amount,
		PaymentMethod: r.PaymentMethod,
		PaymentDate:   dateOrZero(r.PaymentDate),
		Notes:         r.Notes,
	}
}
