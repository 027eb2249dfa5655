package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type lectureGroupService interface {
	Create(ctx context.Context, ownerID, scheduleID int64, req dto.CreateLectureGroupRequest) (*models.LectureGroup, error)
	BatchCreate(ctx context.Context, ownerID, scheduleID int64, req dto.BatchLectureGroupRequest) ([]models.LectureGroup, error)
	List(ctx context.Context, ownerID, scheduleID int64) ([]models.LectureGroup, error)
	Delete(ctx context.Context, ownerID, scheduleID, groupID, actorID int64) error
}

// LectureGroupHandler exposes the teaching assignments of a version.
type LectureGroupHandler struct {
	service lectureGroupService
}

// NewLectureGroupHandler constructs the handler.
func NewLectureGroupHandler(svc lectureGroupService) *LectureGroupHandler {
	return &LectureGroupHandler{service: svc}
}

// Create godoc
// @Summary Create lecture group
// @Tags Lecture Groups
// @Accept json
// @Produce json
// @Param id path int true "Schedule ID"
// @Param payload body dto.CreateLectureGroupRequest true "Lecture group payload"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /schedules/{id}/groups [post]
func (h *LectureGroupHandler) Create(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	scheduleID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.CreateLectureGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid lecture group payload"))
		return
	}
	group, err := h.service.Create(c.Request.Context(), owner, scheduleID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// BatchCreate godoc
// @Summary Create lecture groups in bulk
// @Description All groups are stored in one transaction; one invalid entry rejects the batch.
// @Tags Lecture Groups
// @Accept json
// @Produce json
// @Param id path int true "Schedule ID"
// @Param payload body dto.BatchLectureGroupRequest true "Lecture groups"
// @Success 201 {object} response.Envelope
// @Router /schedules/{id}/groups/batch [post]
func (h *LectureGroupHandler) BatchCreate(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	scheduleID, ok := idParam(c, "id")
	if !ok {
		return
	}
	var req dto.BatchLectureGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid lecture group batch payload"))
		return
	}
	groups, err := h.service.BatchCreate(c.Request.Context(), owner, scheduleID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, groups)
}

// List godoc
// @Summary List lecture groups of a version
// @Tags Lecture Groups
// @Produce json
// @Param id path int true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/groups [get]
func (h *LectureGroupHandler) List(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	scheduleID, ok := idParam(c, "id")
	if !ok {
		return
	}
	groups, err := h.service.List(c.Request.Context(), owner, scheduleID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, nil)
}

// Delete godoc
// @Summary Delete lecture group and its blocks
// @Tags Lecture Groups
// @Param id path int true "Schedule ID"
// @Param groupId path int true "Lecture group ID"
// @Success 204
// @Router /schedules/{id}/groups/{groupId} [delete]
func (h *LectureGroupHandler) Delete(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	scheduleID, ok := idParam(c, "id")
	if !ok {
		return
	}
	groupID, ok := idParam(c, "groupId")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), owner, scheduleID, groupID, owner); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
