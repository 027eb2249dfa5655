package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type scheduleVersionService interface {
	Create(ctx context.Context, ownerID int64, req dto.CreateScheduleRequest) (*models.ScheduleMetadata, error)
	List(ctx context.Context, ownerID int64) ([]models.ScheduleMetadata, error)
	Get(ctx context.Context, ownerID, scheduleID int64) (*models.ScheduleMetadata, error)
	GetActive(ctx context.Context, ownerID int64) (*models.ScheduleMetadata, error)
	Activate(ctx context.Context, ownerID, scheduleID int64) (*models.ScheduleMetadata, error)
	Publish(ctx context.Context, ownerID, scheduleID int64) (*models.ScheduleMetadata, error)
	Delete(ctx context.Context, ownerID, scheduleID int64) error
}

// ScheduleHandler exposes schedule version endpoints.
type ScheduleHandler struct {
	service scheduleVersionService
}

// NewScheduleHandler constructs the handler.
func NewScheduleHandler(svc scheduleVersionService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// Create godoc
// @Summary Create schedule version
// @Description Opens the next version number for the caller. With activate=true every other version is deactivated.
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body dto.CreateScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/metadata [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	var req dto.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid schedule payload"))
		return
	}
	schedule, err := h.service.Create(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// List godoc
// @Summary List schedule versions
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /schedules/metadata [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	list, err := h.service.List(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Get godoc
// @Summary Get schedule version
// @Tags Schedules
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/metadata/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	schedule, err := h.service.Get(c.Request.Context(), owner, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Active godoc
// @Summary Get active schedule version
// @Description Returns the active version, or the latest one when none is active.
// @Tags Schedules
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedules/active [get]
func (h *ScheduleHandler) Active(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	schedule, err := h.service.GetActive(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Activate godoc
// @Summary Activate schedule version
// @Tags Schedules
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/metadata/{id}/activate [post]
func (h *ScheduleHandler) Activate(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	schedule, err := h.service.Activate(c.Request.Context(), owner, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Publish godoc
// @Summary Publish schedule version
// @Tags Schedules
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/metadata/{id}/publish [post]
func (h *ScheduleHandler) Publish(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	schedule, err := h.service.Publish(c.Request.Context(), owner, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Delete godoc
// @Summary Delete draft schedule version
// @Tags Schedules
// @Param id path int true "Schedule ID"
// @Success 204
// @Failure 409 {object} response.Envelope
// @Router /schedules/metadata/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), owner, id); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
