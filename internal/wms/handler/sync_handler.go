package handler

import (
	"fmt"
	"time"

	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/repository"
	"github.com/batsuburgeru/we-support-wms-backend/internal/wms/service"
	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
)

// SyncHandler exposes the SAP sync engine and its audit trail.
type SyncHandler struct {
	syncSvc *service.SyncService
}

func NewSyncHandler(syncSvc *service.SyncService) *SyncHandler {
	return &SyncHandler{syncSvc: syncSvc}
}

type syncRequest struct {
	PRID string `json:"pr_id" binding:"required"`
}

// SyncOne POST /sap-sync
func (h *SyncHandler) SyncOne(c *gin.Context) {
	var req syncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "Invalid request: "+err.Error())
		return
	}

	result, err := h.syncSvc.SyncOne(c.Request.Context(), req.PRID)
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, result)
}

// Resync POST /sap-resync/:logId
func (h *SyncHandler) Resync(c *gin.Context) {
	result, err := h.syncSvc.Resync(c.Request.Context(), c.Param("logId"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, result)
}

// SyncAll POST /sap-sync-all
func (h *SyncHandler) SyncAll(c *gin.Context) {
	summary, err := h.syncSvc.SyncAll(c.Request.Context())
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, summary)
}

// ListLogs GET /sap-sync-logs
func (h *SyncHandler) ListLogs(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filter, err := parseLogFilter(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	logs, total, err := h.syncSvc.ListLogs(c.Request.Context(), page, pageSize, filter)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	Success(c, ListResponse{
		Items: logs,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages(total, pageSize),
		},
	})
}

// LogsByPR GET /purchase-requests/:id/sync-logs
func (h *SyncHandler) LogsByPR(c *gin.Context) {
	logs, err := h.syncSvc.LogsByPR(c.Request.Context(), c.Param("id"))
	if err != nil {
		HandleServiceError(c, err)
		return
	}
	Success(c, logs)
}

// ExportLogs GET /sap-sync-logs/export
// Streams the filtered audit trail as an xlsx download.
func (h *SyncHandler) ExportLogs(c *gin.Context) {
	filter, err := parseLogFilter(c)
	if err != nil {
		BadRequest(c, err.Error())
		return
	}

	logs, err := h.syncSvc.ExportLogs(c.Request.Context(), filter)
	if err != nil {
		HandleServiceError(c, err)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "SAP Sync Logs"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"ID", "PR ID", "Transaction ID", "Status", "Detail", "Created At"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, header)
	}

	for row, log := range logs {
		prID := ""
		if log.PRID != nil {
			prID = *log.PRID
		}
		values := []interface{}{
			log.ID,
			prID,
			log.TransactionID,
			log.Status,
			log.Detail,
			log.CreatedAt.Format(time.RFC3339),
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	filename := fmt.Sprintf("sap_sync_logs_%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)

	if err := f.Write(c.Writer); err != nil {
		InternalError(c, "Failed to write export: "+err.Error())
	}
}

func parseLogFilter(c *gin.Context) (repository.LogFilter, error) {
	filter := repository.LogFilter{
		PRID:   c.Query("pr_id"),
		Status: c.Query("status"),
	}

	if start := c.Query("start_date"); start != "" {
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return filter, fmt.Errorf("invalid start_date, expected YYYY-MM-DD")
		}
		filter.StartDate = &t
	}
	if end := c.Query("end_date"); end != "" {
		t, err := time.Parse("2006-01-02", end)
		if err != nil {
			return filter, fmt.Errorf("invalid end_date, expected YYYY-MM-DD")
		}
		// Inclusive through the end of the day.
		endOfDay := t.Add(24*time.Hour - time.Nanosecond)
		filter.EndDate = &endOfDay
	}
	return filter, nil
}
