package service

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-api/internal/dto"
	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func newSetupHarness(t *testing.T) (*SchoolSetupService, *memStore, *memCache) {
	t.Helper()
	store := newMemStore()
	db, mock := newMockTx(t)
	mock.MatchExpectationsInOrder(true)
	for i := 0; i < 4; i++ {
		mock.ExpectBegin()
		mock.ExpectCommit()
	}
	cache := newMemCache()
	svc := NewSchoolSetupService(SchoolSetupStores{
		Configs:    configView{store},
		Teachers:   teacherView{store},
		Facilities: facilityView{store},
		Subjects:   subjectView{store},
		TimeOffs:   timeOffView{store},
		Tx:         db,
	}, NewCacheService(cache, nil, time.Minute, zap.NewNop(), true), nil, zap.NewNop(), 5, 7)
	return svc, store, cache
}

func TestSchoolSetupServiceConfiguration(t *testing.T) {
	svc, _, cache := newSetupHarness(t)
	ctx := context.Background()

	cfg, err := svc.GetConfiguration(ctx, testOwner)
	require.NoError(t, err)
	assert.Equal(t, 5, cfg.DaysPerWeek)
	assert.Equal(t, 7, cfg.PeriodsPerDay)

	require.NoError(t, cache.Set(ctx, ValidationCacheKey(testOwner, 3), "report", 0))
	saved, err := svc.UpsertConfiguration(ctx, testOwner, dto.SchoolConfigurationRequest{SchoolName: " SMA 1 ", DaysPerWeek: 6, PeriodsPerDay: 8, LunchPeriod: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, "SMA 1", saved.SchoolName)
	assert.False(t, cache.has(ValidationCacheKey(testOwner, 3)))

	cfg, err = svc.GetConfiguration(ctx, testOwner)
	require.NoError(t, err)
	assert.Equal(t, 6, cfg.DaysPerWeek)

	_, err = svc.UpsertConfiguration(ctx, testOwner, dto.SchoolConfigurationRequest{SchoolName: "SMA 1", DaysPerWeek: 8, PeriodsPerDay: 8})
	requireAppError(t, err, "VALIDATION_ERROR", http.StatusBadRequest)

	_, err = svc.UpsertConfiguration(ctx, testOwner, dto.SchoolConfigurationRequest{SchoolName: "SMA 1", DaysPerWeek: 5, PeriodsPerDay: 6, LunchPeriod: intPtr(7)})
	requireAppError(t, err, "VALIDATION_ERROR", http.StatusBadRequest)
}

func TestSchoolSetupServiceCatalog(t *testing.T) {
	svc, _, _ := newSetupHarness(t)
	ctx := context.Background()

	teacher, err := svc.CreateTeacher(ctx, testOwner, dto.CreateTeacherRequest{Name: "Budi"})
	require.NoError(t, err)
	assert.NotZero(t, teacher.ID)

	lab, err := svc.CreateFacility(ctx, testOwner, dto.CreateFacilityRequest{Name: "Chem Lab", Type: "SPECIAL", Capacity: 30})
	require.NoError(t, err)
	assert.Equal(t, models.FacilityTypeSpecial, lab.Type)
	foreign, err := svc.CreateFacility(ctx, otherOwner, dto.CreateFacilityRequest{Name: "Gym"})
	require.NoError(t, err)

	subject, err := svc.CreateSubject(ctx, testOwner, dto.CreateSubjectRequest{Name: "Chemistry", RequiredFacilityID: &lab.ID})
	require.NoError(t, err)
	require.NotNil(t, subject.RequiredFacilityID)
	assert.Equal(t, lab.ID, *subject.RequiredFacilityID)

	_, err = svc.CreateSubject(ctx, testOwner, dto.CreateSubjectRequest{Name: "Sport", RequiredFacilityID: &foreign.ID})
	requireAppError(t, err, "INVALID_REFERENCE", http.StatusUnprocessableEntity)

	_, err = svc.CreateFacility(ctx, testOwner, dto.CreateFacilityRequest{Name: "Room", Type: "HALL"})
	requireAppError(t, err, "VALIDATION_ERROR", http.StatusBadRequest)

	teachers, err := svc.ListTeachers(ctx, testOwner)
	require.NoError(t, err)
	assert.Len(t, teachers, 1)
	facilities, err := svc.ListFacilities(ctx, testOwner)
	require.NoError(t, err)
	assert.Len(t, facilities, 1)
	subjects, err := svc.ListSubjects(ctx, testOwner)
	require.NoError(t, err)
	assert.Len(t, subjects, 1)
	subjects, err = svc.ListSubjects(ctx, otherOwner)
	require.NoError(t, err)
	assert.NotNil(t, subjects)
	assert.Empty(t, subjects)
}

func TestSchoolSetupServiceReplaceTimeOffs(t *testing.T) {
	svc, store, cache := newSetupHarness(t)
	ctx := context.Background()
	store.teachers = []models.Teacher{{ID: 7, OwnerID: testOwner}, {ID: 8, OwnerID: otherOwner}}
	require.NoError(t, cache.Set(ctx, ValidationCacheKey(testOwner, 1), "report", 0))
	require.NoError(t, cache.Set(ctx, ValidationCacheKey(otherOwner, 2), "report", 0))

	offs, err := svc.ReplaceTimeOffs(ctx, testOwner, dto.ReplaceTimeOffsRequest{Entries: []dto.TimeOffEntry{
		{TeacherID: 7, Day: "mon", Period: 1},
		{TeacherID: 7, Day: "MON", Period: 1},
		{TeacherID: 7, Day: "Fri", Period: 7},
	}})
	require.NoError(t, err)
	require.Len(t, offs, 2)
	assert.Equal(t, "MON", offs[0].Day)
	assert.Equal(t, "FRI", offs[1].Day)
	assert.False(t, cache.has(ValidationCacheKey(testOwner, 1)))
	assert.True(t, cache.has(ValidationCacheKey(otherOwner, 2)))

	_, err = svc.ReplaceTimeOffs(ctx, testOwner, dto.ReplaceTimeOffsRequest{Entries: []dto.TimeOffEntry{{TeacherID: 7, Day: "SAT", Period: 1}}})
	requireAppError(t, err, "VALIDATION_ERROR", http.StatusBadRequest)

	_, err = svc.ReplaceTimeOffs(ctx, testOwner, dto.ReplaceTimeOffsRequest{Entries: []dto.TimeOffEntry{{TeacherID: 8, Day: "MON", Period: 1}}})
	appErr := requireAppError(t, err, "INVALID_REFERENCE", http.StatusUnprocessableEntity)
	assert.Contains(t, appErr.Message, "entries[0]")

	listed, err := svc.ListTimeOffs(ctx, testOwner)
	require.NoError(t, err)
	assert.Len(t, listed, 2)

	cleared, err := svc.ReplaceTimeOffs(ctx, testOwner, dto.ReplaceTimeOffsRequest{})
	require.NoError(t, err)
	assert.Empty(t, cleared)
	listed, err = svc.ListTimeOffs(ctx, testOwner)
	require.NoError(t, err)
	assert.Empty(t, listed)
}
