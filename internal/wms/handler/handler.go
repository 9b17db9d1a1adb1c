package handler

import (
	"errors"
	"strconv"

	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/repository"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/service"
	"github.com/gin-gonic/gin"
)

// Handlers WMS handler set
type Handlers struct {
	Auth         *AuthHandler
	PR           *PRHandler
	Sync         *SyncHandler
	Notification *NotificationHandler
	Catalog      *CatalogHandler
}

func NewHandlers(
	authSvc *service.AuthService,
	requestSvc *service.RequestService,
	statusSvc *service.StatusService,
	syncSvc *service.SyncService,
	notificationSvc *service.NotificationService,
	catalogSvc *service.CatalogService,
) *Handlers {
	return &Handlers{
		Auth:         NewAuthHandler(authSvc),
		PR:           NewPRHandler(requestSvc, statusSvc),
		Sync:         NewSyncHandler(syncSvc),
		Notification: NewNotificationHandler(notificationSvc),
		Catalog:      NewCatalogHandler(catalogSvc),
	}
}

// === Response helpers ===

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// HandleServiceError maps service sentinels onto the response envelope.
func HandleServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, err.Error())
	case errors.Is(err, service.ErrValidation):
		BadRequest(c, err.Error())
	case errors.Is(err, service.ErrPermission):
		Forbidden(c, err.Error())
	default:
		InternalError(c, err.Error())
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

func GetUserName(c *gin.Context) string {
	userName, _ := c.Get("user_name")
	if name, ok := userName.(string); ok {
		return name
	}
	return ""
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

func totalPages(total int64, pageSize int) int {
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
