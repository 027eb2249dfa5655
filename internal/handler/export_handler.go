package handler

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/service"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type scheduleExporter interface {
	ExportSchedule(ctx context.Context, ownerID, scheduleID int64, format string) (*service.ExportFile, error)
}

// ExportHandler streams rendered schedule versions.
type ExportHandler struct {
	service scheduleExporter
}

// NewExportHandler constructs the handler.
func NewExportHandler(svc scheduleExporter) *ExportHandler {
	return &ExportHandler{service: svc}
}

// Export godoc
// @Summary Export a schedule version
// @Description CSV lists every block; PDF and XLSX render one weekly grid per class.
// @Tags Timetable
// @Produce text/csv
// @Produce application/pdf
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param id path int true "Schedule ID"
// @Param format query string false "csv (default), pdf or xlsx"
// @Success 200 {file} file
// @Router /schedules/{id}/export [get]
func (h *ExportHandler) Export(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	scheduleID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var query dto.ExportScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid export query"))
		return
	}
	file, err := h.service.ExportSchedule(c.Request.Context(), owner, scheduleID, query.Format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", file.Filename))
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, file.ContentType, file.Content)
}
