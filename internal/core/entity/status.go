package entity

// SaleStatus is the lifecycle state of a sale.
type SaleStatus string

const (
	SaleCompleted SaleStatus = "Completed"
	SaleCredit    SaleStatus = "Credit"
	SaleCancelled SaleStatus = "Cancelled"
)

// Valid reports whether s is a known sale status.
func (s SaleStatus) Valid() bool {
	switch s {
	case SaleCompleted, SaleCredit, SaleCancelled:
		return true
	}
	return false
}

// IsCancelled is true only for Cancelled.
func (s SaleStatus) IsCancelled() bool { return s == SaleCancelled }

// AppliesStock reports whether a sale in this state has taken goods off the shelf.
// A Completed sale always has; a Credit sale only once the goods were handed over.
func (s SaleStatus) AppliesStock(delivered bool) bool {
	if s == SaleCancelled {
		return false
	}
	return s == SaleCompleted || delivered
}

// PurchaseStatus is the lifecycle state of a purchase.
type PurchaseStatus string

const (
	PurchaseDelivered PurchaseStatus = "Delivered"
	PurchasePaid      PurchaseStatus = "Paid"
	PurchaseCredit    PurchaseStatus = "Credit"
	PurchaseCancelled PurchaseStatus = "Cancelled"
)

// Valid reports whether s is a known purchase status.
func (s PurchaseStatus) Valid() bool {
	switch s {
	case PurchaseDelivered, PurchasePaid, PurchaseCredit, PurchaseCancelled:
		return true
	}
	return false
}

// IsCancelled is true only for Cancelled.
func (s PurchaseStatus) IsCancelled() bool { return s == PurchaseCancelled }

// AppliesStock reports whether a purchase in this state has put goods on the shelf.
// Paid says nothing about delivery, so it relies on the delivered flag.
func (s PurchaseStatus) AppliesStock(delivered bool) bool {
	if s == PurchaseCancelled {
		return false
	}
	return s == PurchaseDelivered || delivered
}
