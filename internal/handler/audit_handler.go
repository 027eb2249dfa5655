package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

const defaultAuditLimit = 20

type auditService interface {
	Audit(ctx context.Context, ownerID, scheduleID, actorID int64) (*models.ScheduleAudit, error)
	List(ctx context.Context, ownerID, scheduleID int64, limit int) ([]models.ScheduleAudit, error)
}

// AuditHandler exposes stored schedule audits.
type AuditHandler struct {
	service auditService
}

// NewAuditHandler constructs the handler.
func NewAuditHandler(svc auditService) *AuditHandler {
	return &AuditHandler{service: svc}
}

// List godoc
// @Summary List recent audits of a version
// @Tags Timetable
// @Produce json
// @Param id path int true "Schedule ID"
// @Param limit query int false "Maximum rows (default 20, max 100)"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/audits [get]
func (h *AuditHandler) List(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	scheduleID, ok := idParam(c, "id")
	if !ok {
		return
	}
	limit := defaultAuditLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 100 {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "limit must be between 1 and 100"))
			return
		}
		limit = parsed
	}
	audits, err := h.service.List(c.Request.Context(), owner, scheduleID, limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, audits, nil)
}

// Run godoc
// @Summary Audit a version now
// @Tags Timetable
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 201 {object} response.Envelope
// @Router /schedules/{id}/audits [post]
func (h *AuditHandler) Run(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	scheduleID, ok := idParam(c, "id")
	if !ok {
		return
	}
	audit, err := h.service.Audit(c.Request.Context(), owner, scheduleID, owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, audit)
}
