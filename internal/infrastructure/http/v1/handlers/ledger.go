package handlers

import (
	"github.com/gin-gonic/gin"

	"posledger/internal/core/apperror"
	"posledger/internal/domain/ledger"
	"posledger/internal/infrastructure/http/v1/dto"
)

// LedgerHandler records entries outside the sale and purchase lifecycles.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{BaseHandler: base, service: service}
}

// RecordSale handles POST /ledger/sales
func (h *LedgerHandler) RecordSale(c *gin.Context) {
	var req dto.SaleEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entryID, err := h.service.RecordSale(c.Request.Context(), req.ToEvent())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, entryID)
}

// RecordManual handles POST /ledger/manual
func (h *LedgerHandler) RecordManual(c *gin.Context) {
	var req dto.ManualEntryRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entryID, err := h.service.RecordManual(c.Request.Context(), req.ToEvent())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, entryID)
}

// ListForReference handles GET /ledger/references/:type/:id
func (h *LedgerHandler) ListForReference(c *gin.Context) {
	refType := ledger.ReferenceType(c.Param("type"))
	switch refType {
	case ledger.RefSale, ledger.RefPurchase, ledger.RefSupplier, ledger.RefManual:
	default:
		h.Error(c, apperror.NewValidation("unknown reference type").WithDetail("type", refType))
		return
	}

	refID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	entries, err := h.service.ListForReference(c.Request.Context(), refType, refID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: entries})
}
