package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/pkg/response"
)

type schoolSetupService interface {
	GetConfiguration(ctx context.Context, ownerID int64) (*models.SchoolConfiguration, error)
	UpsertConfiguration(ctx context.Context, ownerID int64, req dto.SchoolConfigurationRequest) (*models.SchoolConfiguration, error)
	CreateTeacher(ctx context.Context, ownerID int64, req dto.CreateTeacherRequest) (*models.Teacher, error)
	ListTeachers(ctx context.Context, ownerID int64) ([]models.Teacher, error)
	CreateFacility(ctx context.Context, ownerID int64, req dto.CreateFacilityRequest) (*models.Facility, error)
	ListFacilities(ctx context.Context, ownerID int64) ([]models.Facility, error)
	CreateSubject(ctx context.Context, ownerID int64, req dto.CreateSubjectRequest) (*models.Subject, error)
	ListSubjects(ctx context.Context, ownerID int64) ([]models.Subject, error)
	ListTimeOffs(ctx context.Context, ownerID int64) ([]models.TeacherTimeOff, error)
	ReplaceTimeOffs(ctx context.Context, ownerID int64, req dto.ReplaceTimeOffsRequest) ([]models.TeacherTimeOff, error)
}

// SetupHandler serves the school setup wizard.
type SetupHandler struct {
	service schoolSetupService
}

// NewSetupHandler constructs the handler.
func NewSetupHandler(svc schoolSetupService) *SetupHandler {
	return &SetupHandler{service: svc}
}

// GetConfiguration godoc
// @Summary Get the school grid configuration
// @Description Returns the stored configuration or the server defaults when none exists.
// @Tags Setup
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /setup/configuration [get]
func (h *SetupHandler) GetConfiguration(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	cfg, err := h.service.GetConfiguration(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// UpsertConfiguration godoc
// @Summary Save the school grid configuration
// @Tags Setup
// @Accept json
// @Produce json
// @Param payload body dto.SchoolConfigurationRequest true "Configuration"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /setup/configuration [put]
func (h *SetupHandler) UpsertConfiguration(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	var req dto.SchoolConfigurationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid configuration payload"))
		return
	}
	cfg, err := h.service.UpsertConfiguration(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// CreateTeacher godoc
// @Summary Register a teacher
// @Tags Setup
// @Accept json
// @Produce json
// @Param payload body dto.CreateTeacherRequest true "Teacher"
// @Success 201 {object} response.Envelope
// @Router /setup/teachers [post]
func (h *SetupHandler) CreateTeacher(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	var req dto.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid teacher payload"))
		return
	}
	teacher, err := h.service.CreateTeacher(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// ListTeachers godoc
// @Summary List teachers
// @Tags Setup
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /setup/teachers [get]
func (h *SetupHandler) ListTeachers(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	teachers, err := h.service.ListTeachers(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, nil)
}

// CreateFacility godoc
// @Summary Register a room
// @Tags Setup
// @Accept json
// @Produce json
// @Param payload body dto.CreateFacilityRequest true "Facility"
// @Success 201 {object} response.Envelope
// @Router /setup/facilities [post]
func (h *SetupHandler) CreateFacility(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	var req dto.CreateFacilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid facility payload"))
		return
	}
	facility, err := h.service.CreateFacility(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, facility)
}

// ListFacilities godoc
// @Summary List rooms
// @Tags Setup
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /setup/facilities [get]
func (h *SetupHandler) ListFacilities(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	facilities, err := h.service.ListFacilities(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, facilities, nil)
}

// CreateSubject godoc
// @Summary Register a subject
// @Tags Setup
// @Accept json
// @Produce json
// @Param payload body dto.CreateSubjectRequest true "Subject"
// @Success 201 {object} response.Envelope
// @Failure 422 {object} response.Envelope "INVALID_REFERENCE"
// @Router /setup/subjects [post]
func (h *SetupHandler) CreateSubject(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	var req dto.CreateSubjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid subject payload"))
		return
	}
	subject, err := h.service.CreateSubject(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, subject)
}

// ListSubjects godoc
// @Summary List subjects
// @Tags Setup
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /setup/subjects [get]
func (h *SetupHandler) ListSubjects(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	subjects, err := h.service.ListSubjects(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, subjects, nil)
}

// ListTimeOffs godoc
// @Summary List teacher time-offs
// @Tags Setup
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /setup/time-offs [get]
func (h *SetupHandler) ListTimeOffs(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	offs, err := h.service.ListTimeOffs(c.Request.Context(), owner)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offs, nil)
}

// ReplaceTimeOffs godoc
// @Summary Replace every teacher time-off
// @Description The submitted list becomes the complete time-off set of the school.
// @Tags Setup
// @Accept json
// @Produce json
// @Param payload body dto.ReplaceTimeOffsRequest true "Time-offs"
// @Success 200 {object} response.Envelope
// @Router /setup/time-offs [put]
func (h *SetupHandler) ReplaceTimeOffs(c *gin.Context) {
	owner, ok := currentOwner(c)
	if !ok {
		return
	}
	var req dto.ReplaceTimeOffsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, bindError(err, "invalid time-off payload"))
		return
	}
	offs, err := h.service.ReplaceTimeOffs(c.Request.Context(), owner, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, offs, nil)
}
