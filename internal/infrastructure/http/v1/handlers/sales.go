package handlers

import (
	"github.com/gin-gonic/gin"

	"posledger/internal/domain/inventory"
	"posledger/internal/domain/ledger"
	"posledger/internal/domain/sales"
	"posledger/internal/infrastructure/http/v1/dto"
)

// SaleHandler handles sale lifecycle endpoints.
type SaleHandler struct {
	*BaseHandler
	service *sales.Service
	ledger  *ledger.Service
	stock   *inventory.Reconciler
}

// NewSaleHandler creates a new sale handler.
func NewSaleHandler(base *BaseHandler, service *sales.Service, ledgerService *ledger.Service, stock *inventory.Reconciler) *SaleHandler {
	return &SaleHandler{
		BaseHandler: base,
		service:     service,
		ledger:      ledgerService,
		stock:       stock,
	}
}

// Create handles POST /sales
func (h *SaleHandler) Create(c *gin.Context) {
	var req dto.SaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	sale, err := h.service.Create(c.Request.Context(), req.ToCommand())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedWith(c, sale)
}

// Get handles GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	saleID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	sale, err := h.service.Get(c.Request.Context(), saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, sale)
}

// Update handles PUT /sales/:id
func (h *SaleHandler) Update(c *gin.Context) {
	saleID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	var req dto.SaleRequest
	if !h.BindJSON(c, &req) {
		return
	}

	result, err := h.service.Update(c.Request.Context(), req.ToUpdateCommand(saleID))
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, result)
}

// Delete handles DELETE /sales/:id
func (h *SaleHandler) Delete(c *gin.Context) {
	saleID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	if err := h.service.Delete(c.Request.Context(), saleID); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// Ledger handles GET /sales/:id/ledger
func (h *SaleHandler) Ledger(c *gin.Context) {
	saleID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	entries, err := h.ledger.ListForReference(c.Request.Context(), ledger.RefSale, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: entries})
}

// StockHistory handles GET /sales/:id/stock-history
func (h *SaleHandler) StockHistory(c *gin.Context) {
	saleID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	entries, err := h.stock.History(c.Request.Context(), h.GetDeviceID(c), inventory.DirectionSale, saleID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: nonNil(entries)})
}

func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
