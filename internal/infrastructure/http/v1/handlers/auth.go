package handlers

import (
	"github.com/gin-gonic/gin"

	"posledger/internal/domain/auth"
	"posledger/internal/infrastructure/http/v1/dto"
)

// AuthHandler handles operator sign-in.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Login handles POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, op, err := h.service.Login(c.Request.Context(), req.ToCredentials())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.LoginResponse{Token: token, Operator: op})
}

// RegisterOperator handles POST /auth/operators. The new operator belongs to
// the caller's device.
func (h *AuthHandler) RegisterOperator(c *gin.Context) {
	var req dto.RegisterOperatorRequest
	if !h.BindJSON(c, &req) {
		return
	}

	op, err := h.service.Register(c.Request.Context(), req.ToCredentials(h.GetDeviceID(c)), req.DisplayName)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.CreatedWith(c, op)
}

// RegisterRoutes registers auth routes.
func (h *AuthHandler) RegisterRoutes(public, protected *gin.RouterGroup) {
	public.POST("/login", h.Login)
	protected.POST("/operators", h.RegisterOperator)
}
