package dto

import (
	"posledger/internal/core/types"
	"posledger/internal/domain/catalog"
	"posledger/internal/domain/inventory"
)

// ProductRequest creates a product or service.
type ProductRequest struct {
	Kind           inventory.Kind `json:"kind" binding:"omitempty,oneof=product service"`
	Name           string         `json:"name" binding:"required"`
	WholesalePrice *types.Money   `json:"wholesale_price"`
	StockQuantity  types.Quantity `json:"stock_quantity"`
}

// ToProduct converts to the domain model.
func (r *ProductRequest) ToProduct() *catalog.Product {
	return &catalog.Product{
		Kind:           r.Kind,
		Name:           r.Name,
		WholesalePrice: r.WholesalePrice,
		StockQuantity:  r.StockQuantity,
	}
}

// PartyRequest creates a customer or supplier.
type PartyRequest struct {
	Name  string  `json:"name" binding:"required"`
	Phone *string `json:"phone"`
}

// ToParty converts to the domain model.
func (r *PartyRequest) ToParty() *catalog.Party {
	return &catalog.Party{Name: r.Name, Phone: r.Phone}
}
