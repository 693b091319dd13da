package handlers

import (
	"github.com/gin-gonic/gin"

	"posledger/internal/core/apperror"
	"posledger/internal/domain/catalog"
	"posledger/internal/infrastructure/http/v1/dto"
)

// CatalogHandler handles products, customers and suppliers.
type CatalogHandler struct {
	*BaseHandler
	service *catalog.Service
}

// NewCatalogHandler creates a new catalog handler.
func NewCatalogHandler(base *BaseHandler, service *catalog.Service) *CatalogHandler {
	return &CatalogHandler{BaseHandler: base, service: service}
}

func (h *CatalogHandler) listQuery(c *gin.Context) (catalog.ListQuery, bool) {
	var req dto.PageRequest
	if !h.BindQuery(c, &req) {
		return catalog.ListQuery{}, false
	}
	filters, err := req.Filters()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid filter").WithDetail("error", err.Error()))
		return catalog.ListQuery{}, false
	}
	return catalog.ListQuery{Filters: filters, Limit: req.Limit, Offset: req.Offset}, true
}

// CreateProduct handles POST /products
func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req dto.ProductRequest
	if !h.BindJSON(c, &req) {
		return
	}

	p := req.ToProduct()
	if err := h.service.CreateProduct(c.Request.Context(), p); err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedWith(c, p)
}

// GetProduct handles GET /products/:id
func (h *CatalogHandler) GetProduct(c *gin.Context) {
	productID, ok := h.ParamID(c, "id")
	if !ok {
		return
	}

	p, err := h.service.GetProduct(c.Request.Context(), productID)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, p)
}

// ListProducts handles GET /products
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	q, ok := h.listQuery(c)
	if !ok {
		return
	}

	items, err := h.service.ListProducts(c.Request.Context(), q)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.ListResponse{Items: nonNil(items), Limit: q.Limit, Offset: q.Offset})
}

// CreateParty returns the POST handler for customers or suppliers.
func (h *CatalogHandler) CreateParty(kind catalog.PartyKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req dto.PartyRequest
		if !h.BindJSON(c, &req) {
			return
		}

		p := req.ToParty()
		if err := h.service.CreateParty(c.Request.Context(), kind, p); err != nil {
			h.Error(c, err)
			return
		}
		h.CreatedWith(c, p)
	}
}

// ListParties returns the GET handler for customers or suppliers.
func (h *CatalogHandler) ListParties(kind catalog.PartyKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		q, ok := h.listQuery(c)
		if !ok {
			return
		}

		items, err := h.service.ListParties(c.Request.Context(), kind, q)
		if err != nil {
			h.Error(c, err)
			return
		}
		h.OK(c, dto.ListResponse{Items: nonNil(items), Limit: q.Limit, Offset: q.Offset})
	}
}
