package handler

import (
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/service"
	"github.com/gin-gonic/gin"
)

// PRHandler serves the purchase request aggregate and its workflow.
type PRHandler struct {
	requestSvc *service.RequestService
	statusSvc  *service.StatusService
}

func NewPRHandler(requestSvc *service.RequestService, statusSvc *service.StatusService) *PRHandler {
	return &PRHandler{
		requestSvc: requestSvc,
		statusSvc:  statusSvc,
	}
}

// Create POST /purchase-requests
func (h *PRHandler) Create(c *gin.Context) {
	var req service.CreatePRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	pr, err := h.requestSvc.Create(c.Request.Context(), GetUserID(c), &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Created(c, pr)
}

// List GET /purchase-requests
func (h *PRHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":     c.Query("status"),
		"created_by": c.Query("created_by"),
	}

	prs, total, err := h.requestSvc.List(c.Request.Context(), page, pageSize, filters)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, ListResponse{
		Items: prs,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// Search GET /purchase-requests/search?q=
// Matches PR IDs and client names.
func (h *PRHandler) Search(c *gin.Context) {
	term := c.Query("q")
	if term == "" {
		BadRequest(c, "Query parameter q is required")
		return
	}

	page, pageSize := GetPagination(c)
	prs, total, err := h.requestSvc.List(c.Request.Context(), page, pageSize, map[string]string{"search": term})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, ListResponse{
		Items: prs,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// Filter GET /purchase-requests/filter?status=
func (h *PRHandler) Filter(c *gin.Context) {
	status := c.Query("status")
	if status == "" {
		BadRequest(c, "Query parameter status is required")
		return
	}

	page, pageSize := GetPagination(c)
	prs, total, err := h.requestSvc.List(c.Request.Context(), page, pageSize, map[string]string{"status": status})
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, ListResponse{
		Items: prs,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// Count GET /purchase-requests/count
func (h *PRHandler) Count(c *gin.Context) {
	summary, err := h.requestSvc.CountByStatus(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, summary)
}

// Get GET /purchase-requests/:id
func (h *PRHandler) Get(c *gin.Context) {
	pr, err := h.requestSvc.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, pr)
}

// Update PUT /purchase-requests/:id
func (h *PRHandler) Update(c *gin.Context) {
	var req service.UpdatePRRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	pr, err := h.requestSvc.Update(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, pr)
}

// UpdateStatusRequest carries a workflow transition.
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
	Note   string `json:"note"`
}

// UpdateStatus PUT /purchase-requests/:id/status
func (h *PRHandler) UpdateStatus(c *gin.Context) {
	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	pr, err := h.statusSvc.ApplyStatusChange(c.Request.Context(),
		c.Param("id"), req.Status, GetUserID(c), GetUserName(c), req.Note)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, pr)
}

// Delete DELETE /purchase-requests/:id
func (h *PRHandler) Delete(c *gin.Context) {
	pr, err := h.requestSvc.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, pr)
}
