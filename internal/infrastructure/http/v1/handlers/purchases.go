package handlers

import (
	"github.com/gin-gonic/gin"

	"posledger/internal/domain/inventory"
	"posledger/internal/domain/ledger"
	"posledger/internal/domain/purchases"
	"posledger/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler handles purchase lifecycle and supplier payment endpoints.
type PurchaseHandler struct {
	*BaseHandler
	service   *purchases.Service
	allocator *purchases.Allocator
	ledger    *ledger.Service
	stock     *inventory.Reconciler
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(
	base *BaseHandler,
	service *purchases.Service,
	allocator *purchases.Allocator,
	ledgerService *ledger.Service,
	stock *inventory.Reconciler,
) *PurchaseHandler {
	return &PurchaseHandler{
		BaseHandler: base,
		service:     service,
		allocator:   allocator,
		ledger:      ledgerService,
		stock:       stock,
	}
}

// Create handles POST /purchases
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req dto.PurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	purchase, err := h.service.Create(c.Request.Context(), req.ToCommand())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedWith(c, purchase)
}

// Get handles GET /purchases/:id
func (h *PurchaseHandler) Get(c *gin.Context) {
	purchaseID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	purchase, err := h.service.Get(c.Request.Context(), purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, purchase)
}

// Update handles PUT /purchases/:id
func (h *PurchaseHandler) Update(c *gin.Context) {
	purchaseID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.PurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Update(c.Request.Context(), req.ToUpdateCommand(purchaseID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Delete handles DELETE /purchases/:id
func (h *PurchaseHandler) Delete(c *gin.Context) {
	purchaseID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), purchaseID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Ledger handles GET /purchases/:id/ledger
func (h *PurchaseHandler) Ledger(c *gin.Context) {
	purchaseID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	entries, err := h.ledger.ListForReference(c.Request.Context(), ledger.RefPurchase, purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: entries})
}

// StockHistory handles GET /purchases/:id/stock-history
func (h *PurchaseHandler) StockHistory(c *gin.Context) {
	purchaseID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	entries, err := h.stock.History(c.Request.Context(), h.GetDeviceID(c), inventory.DirectionPurchase, purchaseID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: nonNil(entries)})
}

// Pay handles POST /suppliers/:id/payments
func (h *PurchaseHandler) Pay(c *gin.Context) {
	supplierID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.SupplierPaymentRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.allocator.Allocate(c.Request.Context(), req.ToCommand(supplierID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedWith(c, result)
}
