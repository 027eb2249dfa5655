package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
	"github.com/noah-isme/sma-timetable-api/pkg/jobs"
)

const auditJobType = "schedule_audit"

// AuditRequest asks for a full re-validation of a version after a commit.
type AuditRequest struct {
	ScheduleID  int64
	OwnerID     int64
	Trigger     string
	RequestedBy *int64
}

type auditBlockReader interface {
	ListBySchedule(ctx context.Context, scheduleID int64) ([]models.LectureBlock, error)
}

type auditStore interface {
	Create(ctx context.Context, audit *models.ScheduleAudit) error
	ListBySchedule(ctx context.Context, scheduleID int64, limit int) ([]models.ScheduleAudit, error)
}

// AuditConfig sizes the audit worker pool.
type AuditConfig struct {
	Workers            int
	Retries            int
	DailyLoadThreshold int
}

// AuditService re-validates schedule versions in the background and stores
// the resulting reports.
type AuditService struct {
	schedules scheduleMetadataReader
	blocks    auditBlockReader
	timeOffs  timeOffReader
	audits    auditStore
	metrics   *MetricsService
	checker   *timetable.Checker
	logger    *zap.Logger
	queue     *jobs.Queue
}

// NewAuditService wires the audit worker.
func NewAuditService(
	schedules scheduleMetadataReader,
	blocks auditBlockReader,
	timeOffs timeOffReader,
	audits auditStore,
	metrics *MetricsService,
	logger *zap.Logger,
	cfg AuditConfig,
) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	svc := &AuditService{
		schedules: schedules,
		blocks:    blocks,
		timeOffs:  timeOffs,
		audits:    audits,
		metrics:   metrics,
		checker:   timetable.NewChecker(cfg.DailyLoadThreshold),
		logger:    logger,
	}
	svc.queue = jobs.NewQueue("schedule-audit", svc.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		MaxRetries: cfg.Retries,
		Logger:     logger,
	})
	return svc
}

// Start launches the workers.
func (s *AuditService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the workers.
func (s *AuditService) Stop() {
	s.queue.Stop()
}

// Enqueue schedules an audit. Requests for a version already waiting in the
// queue are folded into the pending one.
func (s *AuditService) Enqueue(ctx context.Context, req AuditRequest) error {
	_, err := s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    auditJobType,
		Key:     fmt.Sprintf("schedule:%d", req.ScheduleID),
		Payload: req,
	})
	return err
}

func (s *AuditService) handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(AuditRequest)
	if !ok {
		s.logger.Error("unexpected audit payload", zap.String("job_id", job.ID))
		return nil
	}
	_, err := s.Run(ctx, req)
	return err
}

// Run validates a version synchronously and records the report.
func (s *AuditService) Run(ctx context.Context, req AuditRequest) (*models.ScheduleAudit, error) {
	blocks, err := s.blocks.ListBySchedule(ctx, req.ScheduleID)
	if err != nil {
		return nil, fmt.Errorf("audit load blocks: %w", err)
	}
	offs, err := s.timeOffs.ListByOwner(ctx, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("audit load time offs: %w", err)
	}

	result := s.checker.ValidateSchedule(blocks, offs)
	report, err := json.Marshal(result)
	if err != nil {
		return nil, fmt.Errorf("audit encode report: %w", err)
	}

	audit := &models.ScheduleAudit{
		ScheduleID:  req.ScheduleID,
		Trigger:     req.Trigger,
		IsValid:     result.IsValid,
		ErrorCount:  len(result.Errors),
		BlockCount:  len(blocks),
		Report:      types.JSONText(report),
		RequestedBy: req.RequestedBy,
	}
	if err := s.audits.Create(ctx, audit); err != nil {
		return nil, fmt.Errorf("audit persist: %w", err)
	}

	counts := make(map[string]int, 4)
	for _, violation := range result.Errors {
		counts[string(violation.Type)]++
	}
	s.metrics.RecordAudit(result.IsValid, counts)

	if !result.IsValid {
		s.logger.Warn("schedule audit found violations",
			zap.Int64("schedule_id", req.ScheduleID),
			zap.String("trigger", req.Trigger),
			zap.Int("errors", len(result.Errors)),
			zap.Any("by_type", counts),
		)
	} else {
		s.logger.Debug("schedule audit clean", zap.Int64("schedule_id", req.ScheduleID), zap.Int("blocks", len(blocks)))
	}
	return audit, nil
}

// Audit runs a manual audit of a version owned by the caller and returns the stored row.
func (s *AuditService) Audit(ctx context.Context, ownerID, scheduleID, actorID int64) (*models.ScheduleAudit, error) {
	if err := s.checkOwner(ctx, ownerID, scheduleID); err != nil {
		return nil, err
	}
	req := AuditRequest{ScheduleID: scheduleID, OwnerID: ownerID, Trigger: models.AuditTriggerManual}
	if actorID > 0 {
		req.RequestedBy = &actorID
	}
	audit, err := s.Run(ctx, req)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to audit schedule")
	}
	return audit, nil
}

// List returns recent audits of a version owned by the caller.
func (s *AuditService) List(ctx context.Context, ownerID, scheduleID int64, limit int) ([]models.ScheduleAudit, error) {
	if err := s.checkOwner(ctx, ownerID, scheduleID); err != nil {
		return nil, err
	}
	audits, err := s.audits.ListBySchedule(ctx, scheduleID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedule audits")
	}
	if audits == nil {
		audits = []models.ScheduleAudit{}
	}
	return audits, nil
}

func (s *AuditService) checkOwner(ctx context.Context, ownerID, scheduleID int64) error {
	schedule, err := s.schedules.FindByID(ctx, scheduleID)
	if err != nil && !isNoRows(err) {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load schedule")
	}
	if err != nil || schedule.OwnerID != ownerID {
		return appErrors.Clone(appErrors.ErrNotFound, "schedule not found")
	}
	return nil
}
