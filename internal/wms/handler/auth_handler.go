package handler

import (
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/service"
	"github.com/gin-gonic/gin"
)

// AuthHandler covers login, registration and the user directory.
type AuthHandler struct {
	authSvc *service.AuthService
}

func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login POST /auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req service.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	resp, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, resp)
}

// Register POST /auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req service.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	user, err := h.authSvc.Register(c.Request.Context(), &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, user)
}

// ListUsers GET /users
func (h *AuthHandler) ListUsers(c *gin.Context) {
	page, pageSize := GetPagination(c)

	users, total, err := h.authSvc.ListUsers(c.Request.Context(), page, pageSize)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, ListResponse{
		Items: users,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}
