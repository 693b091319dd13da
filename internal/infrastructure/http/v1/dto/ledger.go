package dto

import (
	"time"

	"posledger/internal/core/entity"
	"posledger/internal/core/id"
	"posledger/internal/core/types"
	"posledger/internal/domain/ledger"
)

// SaleEntryRequest records a sale straight into the ledger.
type SaleEntryRequest struct {
	SaleID          id.ID             `json:"sale_id" binding:"required"`
	CustomerID      *id.ID            `json:"customer_id"`
	Status          entity.SaleStatus `json:"status" binding:"required"`
	TotalAmount     types.Money       `json:"total_amount"`
	ReceivedAmount  types.Money       `json:"received_amount"`
	COGSAmount      types.Money       `json:"cogs_amount"`
	PaymentMethod   string            `json:"payment_method"`
	TransactionDate *time.Time        `json:"transaction_date"`
	Description     string            `json:"description"`
}

// ToEvent converts to the domain event. Device and user come from the token.
func (r *SaleEntryRequest) ToEvent() ledger.SaleEvent {
	return ledger.SaleEvent{
		SaleID:          r.SaleID,
		CustomerID:      r.CustomerID,
		Status:          r.Status,
		TotalAmount:     r.TotalAmount,
		ReceivedAmount:  r.ReceivedAmount,
		COGSAmount:      r.COGSAmount,
		PaymentMethod:   r.PaymentMethod,
		TransactionDate: dateOrZero(r.TransactionDate),
		Description:     r.Description,
	}
}

// ManualEntryRequest records a typed-in debit or credit.
type ManualEntryRequest struct {
	Type            ledger.ManualType `json:"type" binding:"required,oneof=debit credit"`
	Amount          types.Money       `json:"amount"`
	ReferenceID     *id.ID            `json:"reference_id"`
	PaymentMethod   string            `json:"payment_method"`
	TransactionDate *time.Time        `json:"transaction_date"`
	Description     string            `json:"description"`
}

// ToEvent converts to the domain event.
func (r *ManualEntryRequest) ToEvent() ledger.ManualEvent {
	return ledger.ManualEvent{
		Type:            r.Type,
		Amount:          r.Amount,
		ReferenceID:     r.ReferenceID,
		PaymentMethod:   r.PaymentMethod,
		TransactionDate: dateOrZero(r.TransactionDate),
		Description:     r.Description,
	}
}
