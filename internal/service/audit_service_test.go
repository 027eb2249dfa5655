package service

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	"github.com/noah-isme/sma-timetable-api/internal/timetable"
)

func newAuditHarness(t *testing.T) (*AuditService, *memStore) {
	t.Helper()
	store := newMemStore()
	store.schedules[testSchedule] = &models.ScheduleMetadata{ID: testSchedule, OwnerID: testOwner, Version: 1}
	store.groups = []models.LectureGroup{
		{ID: 1, ScheduleID: testSchedule, SubjectID: 1, TeacherID: 7, Grade: 10, ClassNum: intPtr(1), TotalCredits: 2},
		{ID: 2, ScheduleID: testSchedule, SubjectID: 1, TeacherID: 7, Grade: 10, ClassNum: intPtr(2), TotalCredits: 2},
	}
	reason := "training"
	store.offs = []models.TeacherTimeOff{{ID: 1, OwnerID: testOwner, TeacherID: 7, Day: "TUE", Period: 1, Reason: &reason}}
	svc := NewAuditService(scheduleView{store}, blockView{store}, timeOffView{store}, auditView{store}, NewMetricsService(), zap.NewNop(), AuditConfig{Workers: 1, Retries: 1})
	return svc, store
}

func TestAuditServiceRunPersistsReport(t *testing.T) {
	svc, store := newAuditHarness(t)
	store.addBlock(models.LectureBlock{ID: 11, GroupID: 1, Day: "MON", Period: 1})
	store.addBlock(models.LectureBlock{ID: 12, GroupID: 2, Day: "MON", Period: 1})
	store.addBlock(models.LectureBlock{ID: 13, GroupID: 2, Day: "TUE", Period: 1})

	actor := int64(3)
	audit, err := svc.Run(context.Background(), AuditRequest{ScheduleID: testSchedule, OwnerID: testOwner, Trigger: models.AuditTriggerManual, RequestedBy: &actor})
	require.NoError(t, err)
	assert.NotZero(t, audit.ID)
	assert.False(t, audit.IsValid)
	assert.Equal(t, 2, audit.ErrorCount)
	assert.Equal(t, 3, audit.BlockCount)
	assert.Equal(t, models.AuditTriggerManual, audit.Trigger)

	var report timetable.ValidationResult
	require.NoError(t, json.Unmarshal(audit.Report, &report))
	assert.Equal(t, 1, report.Count(timetable.ViolationDoubleBookingTeacher))
	assert.Equal(t, 1, report.Count(timetable.ViolationTimeOff))

	audits, err := svc.List(context.Background(), testOwner, testSchedule, 10)
	require.NoError(t, err)
	require.Len(t, audits, 1)

	_, err = svc.List(context.Background(), otherOwner, testSchedule, 10)
	requireAppError(t, err, "NOT_FOUND", http.StatusNotFound)
}

func TestAuditServiceManualAudit(t *testing.T) {
	svc, store := newAuditHarness(t)
	store.addBlock(models.LectureBlock{ID: 11, GroupID: 1, Day: "MON", Period: 1})

	audit, err := svc.Audit(context.Background(), testOwner, testSchedule, 4)
	require.NoError(t, err)
	assert.True(t, audit.IsValid)
	assert.Equal(t, models.AuditTriggerManual, audit.Trigger)
	require.NotNil(t, audit.RequestedBy)
	assert.Equal(t, int64(4), *audit.RequestedBy)

	_, err = svc.Audit(context.Background(), otherOwner, testSchedule, 4)
	requireAppError(t, err, "NOT_FOUND", http.StatusNotFound)
}

func TestAuditServiceWorkerProcessesQueue(t *testing.T) {
	svc, store := newAuditHarness(t)
	store.addBlock(models.LectureBlock{ID: 11, GroupID: 1, Day: "MON", Period: 1})

	require.Error(t, svc.Enqueue(context.Background(), AuditRequest{ScheduleID: testSchedule, OwnerID: testOwner}))

	svc.Start(context.Background())
	defer svc.Stop()
	require.NoError(t, svc.Enqueue(context.Background(), AuditRequest{ScheduleID: testSchedule, OwnerID: testOwner, Trigger: models.AuditTriggerBlockCreate}))

	require.Eventually(t, func() bool {
		audits, err := svc.List(context.Background(), testOwner, testSchedule, 0)
		return err == nil && len(audits) > 0
	}, 2*time.Second, 10*time.Millisecond)

	audits, err := svc.List(context.Background(), testOwner, testSchedule, 1)
	require.NoError(t, err)
	assert.True(t, audits[0].IsValid)
	assert.Equal(t, models.AuditTriggerBlockCreate, audits[0].Trigger)
}
