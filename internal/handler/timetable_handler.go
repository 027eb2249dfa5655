package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/middleware"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type timetableService interface {
	AutoSchedule(ctx context.Context, ownerID, scheduleID, actorID int64) (*dto.AutoScheduleResponse, error)
	Validate(ctx context.Context, ownerID, scheduleID int64) (*timetable.ValidationResult, bool, error)
	CheckPlacement(ctx context.Context, ownerID int64, req dto.PlacementCheckRequest) (*timetable.ValidationResult, error)
	CreateBlock(ctx context.Context, ownerID, scheduleID, actorID int64, req dto.CreateLectureBlockRequest) (*models.LectureBlock, error)
	ListBlocks(ctx context.Context, ownerID, scheduleID int64) ([]models.LectureBlock, error)
	DeleteBlock(ctx context.Context, ownerID, scheduleID, blockID, actorID int64) error
	Reset(ctx context.Context, ownerID, scheduleID, actorID int64, includeGroups bool) (*dto.ResetScheduleResponse, error)
}

// TimetableHandler exposes the solver, the checker and block editing.
type TimetableHandler struct {
	service timetableService
}

// NewTimetableHandler constructs the handler.
func NewTimetableHandler(svc timetableService) *TimetableHandler {
	return &TimetableHandler{service: svc}
}

// AutoSchedule godoc
// @Summary Fill unplaced credits automatically
// @Description Runs the backtracking scheduler over the version and persists every new block in one transaction.
// @Tags Timetable
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope "SCHEDULING_INFEASIBLE or INVALID_REFERENCE"
// @Router /schedules/{id}/auto-schedule [post]
func (h *TimetableHandler) AutoSchedule(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	scheduleID, ok := idParam(c, "id")
	if !ok {
		return
	}
	result, err := h.service.AutoSchedule(c.Request.Context(), owner, scheduleID, owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	status := http.StatusCreated
	if len(result.Created) == 0 {
		status = http.StatusOK
	}
	response.JSON(c, status, result, nil)
}

// Validate godoc
// @Summary Audit every block of a version
// @Description Reports every teacher or room double booking and every block on a teacher time-off.
// @Tags Timetable
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/validate [get]
func (h *TimetableHandler) Validate(c *gin.Context) {
	start := time.Now()
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	scheduleID, ok := idParam(c, "id")
	if !ok {
		return
	}
	result, hit, err := h.service.Validate(c.Request.Context(), owner, scheduleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetMeta(c, middleware.MetaCacheHit, hit)
	middleware.SetElapsed(c, start)
	response.JSON(c, http.StatusOK, result, nil, middleware.ExtractMeta(c))
}

// ValidateCheck godoc
// @Summary Preview a placement
// @Description Runs the placement checks without persisting anything. Violations are returned as data with status 200.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param payload body dto.PlacementCheckRequest true "Candidate placement"
// @Success 200 {object} response.Envelope
// @Router /schedules/validate-check [post]
func (h *TimetableHandler) ValidateCheck(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	var req dto.PlacementCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid placement check payload"))
		return
	}
	result, err := h.service.CheckPlacement(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// CreateBlock godoc
// @Summary Place a lecture block by hand
// @Description Rejected placements return PLACEMENT_REJECTED with the violation list in error.details.
// @Tags Timetable
// @Accept json
// @Produce json
// @Param id path int true "Schedule ID"
// @Param payload body dto.CreateLectureBlockRequest true "Block payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /schedules/{id}/blocks [post]
func (h *TimetableHandler) CreateBlock(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	scheduleID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.CreateLectureBlockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid lecture block payload"))
		return
	}
	block, err := h.service.CreateBlock(c.Request.Context(), owner, scheduleID, owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, block)
}

// ListBlocks godoc
// @Summary List lecture blocks of a version
// @Tags Timetable
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/blocks [get]
func (h *TimetableHandler) ListBlocks(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	scheduleID, ok := idParam(c, "id")
	if !ok {
		return
	}
	blocks, err := h.service.ListBlocks(c.Request.Context(), owner, scheduleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, blocks, nil)
}

// DeleteBlock godoc
// @Summary Delete a lecture block
// @Tags Timetable
// @Param id path int true "Schedule ID"
// @Param blockId path int true "Block ID"
// @Success 204
// @Router /schedules/{id}/blocks/{blockId} [delete]
func (h *TimetableHandler) DeleteBlock(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	scheduleID, ok := idParam(c, "id")
	if !ok {
		return
	}
	blockID, ok := idParam(c, "blockId")
	if !ok {
		return
	}
	if err := h.service.DeleteBlock(c.Request.Context(), owner, scheduleID, blockID, owner); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Reset godoc
// @Summary Reset a version
// @Description Removes every block, and every lecture group when include_groups=true.
// @Tags Timetable
// @Produce json
// @Param id path int true "Schedule ID"
// @Param include_groups query bool false "Also delete lecture groups"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/reset [post]
func (h *TimetableHandler) Reset(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	scheduleID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var query dto.ResetScheduleQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, bindError(err, "invalid reset query"))
		return
	}
	result, err := h.service.Reset(c.Request.Context(), owner, scheduleID, owner, query.IncludeGroups)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
