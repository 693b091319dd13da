package handlers

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"posledger/internal/core/apperror"
	"posledger/internal/domain/reports"
	"posledger/internal/infrastructure/export"
	"posledger/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

func (h *ReportsHandler) period(c *gin.Context) (time.Time, time.Time, bool) {
	var req dto.PeriodRequest
	if !h.BindQuery(c, &req) {
		return time.Time{}, time.Time{}, false
	}

	from, err := h.service.ParseDay(req.From)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid from date").WithDetail("from", req.From))
		return time.Time{}, time.Time{}, false
	}
	to, err := h.service.ParseDay(req.To)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid to date").WithDetail("to", req.To))
		return time.Time{}, time.Time{}, false
	}
	if to.Before(from) {
		h.Error(c, apperror.NewValidation("to must not be before from"))
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// GetSummary handles GET /reports/summary
func (h *ReportsHandler) GetSummary(c *gin.Context) {
	from, to, ok := h.period(c)
	if !ok {
		return
	}
	h.OK(c, h.service.GetFinancialSummary(c.Request.Context(), h.GetDeviceID(c), from, to))
}

// ExportSummary handles GET /reports/summary/export
func (h *ReportsHandler) ExportSummary(c *gin.Context) {
	from, to, ok := h.period(c)
	if !ok {
		return
	}

	summary := h.service.GetFinancialSummary(c.Request.Context(), h.GetDeviceID(c), from, to)

	var buf bytes.Buffer
	if err := export.WriteSummaryXLSX(&buf, summary); err != nil {
		h.Error(c, apperror.NewInternal(fmt.Errorf("render summary: %w", err)))
		return
	}

	filename := fmt.Sprintf("summary_%s_%s.xlsx", from.Format(time.DateOnly), to.Format(time.DateOnly))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, export.ContentTypeXLSX, buf.Bytes())
}

// GetBalances handles GET /reports/balances
func (h *ReportsHandler) GetBalances(c *gin.Context) {
	from, to, ok := h.period(c)
	if !ok {
		return
	}
	h.OK(c, h.service.GetAccountingBalances(c.Request.Context(), h.GetDeviceID(c), from, to))
}
