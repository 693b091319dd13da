package handlers

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"

	"posledger/internal/core/apperror"
	"posledger/internal/core/id"
	"posledger/internal/infrastructure/http/v1/dto"
	"posledger/internal/infrastructure/storage/postgres"
)

// AuditReader reads the edit trail of a sale or purchase.
type AuditReader interface {
	History(ctx context.Context, deviceID, entityType string, entityID id.ID, limit int) ([]postgres.AuditEntry, error)
}

// AuditHandler exposes the audit trail.
type AuditHandler struct {
	*BaseHandler
	reader AuditReader
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, reader AuditReader) *AuditHandler {
	return &AuditHandler{BaseHandler: base, reader: reader}
}

// History handles GET /audit/:type/:id
func (h *AuditHandler) History(c *gin.Context) {
	entityType := c.Param("type")
	if entityType != "sale" && entityType != "purchase" {
		h.Error(c, apperror.NewValidation("unknown entity type").WithDetail("type", entityType))
		return
	}

	entityID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	limit := h.ParseIntQuery(c, "limit", 50)
	if limit < 1 || limit > 500 {
		limit = 50
	}

	entries, err := h.reader.History(c.Request.Context(), h.GetDeviceID(c), entityType, entityID, limit)
	if err != nil {
		h.Error(c, apperror.Persist(fmt.Errorf("audit history: %w", err)))
		return
	}
	h.OK(c, dto.ListResponse{Items: nonNil(entries), Limit: limit})
}
