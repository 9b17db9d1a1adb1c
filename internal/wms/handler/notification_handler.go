package handler

import (
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/service"
	"github.com/gin-gonic/gin"
)

// NotificationHandler serves the caller's own inbox.
type NotificationHandler struct {
	notificationSvc *service.NotificationService
}

func NewNotificationHandler(notificationSvc *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{notificationSvc: notificationSvc}
}

// List GET /notifications
func (h *NotificationHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)

	items, total, err := h.notificationSvc.ListInbox(c.Request.Context(), GetUserID(c), page, pageSize)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// UnreadCount GET /notifications/unread-count
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	count, err := h.notificationSvc.UnreadCount(c.Request.Context(), GetUserID(c))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, gin.H{"unread": count})
}

// MarkRead PUT /notifications/:id/read
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	if err := h.notificationSvc.MarkRead(c.Request.Context(), c.Param("id"), GetUserID(c)); err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, nil)
}
