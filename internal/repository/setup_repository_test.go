package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestTeacherTimeOffRepositoryReplaceForOwner(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewTeacherTimeOffRepository(db)

	reason := "training"
	offs := []models.TeacherTimeOff{
		{TeacherID: 5, Day: "MON", Period: 1, Reason: &reason},
		{TeacherID: 6, Day: "TUE", Period: 3},
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM teacher_time_offs WHERE owner_id = $1")).
		WithArgs(int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO teacher_time_offs")).
		WithArgs(int64(9), int64(5), "MON", 1, &reason, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(1)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO teacher_time_offs")).
		WithArgs(int64(9), int64(6), "TUE", 3, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(2)))
	mock.ExpectCommit()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	require.NoError(t, repo.ReplaceForOwner(context.Background(), tx, 9, offs))
	require.NoError(t, tx.Commit())

	assert.Equal(t, int64(9), offs[0].OwnerID)
	assert.Equal(t, int64(2), offs[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSchoolConfigurationRepositoryGetAndUpsert(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSchoolConfigurationRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("FROM school_configurations WHERE owner_id = $1")).
		WithArgs(int64(9)).
		WillReturnError(sql.ErrNoRows)
	_, err := repo.Get(context.Background(), 9)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO school_configurations")).
		WithArgs(int64(9), "SMA 1", 5, 8, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	cfg := &models.SchoolConfiguration{OwnerID: 9, SchoolName: "SMA 1", DaysPerWeek: 5, PeriodsPerDay: 8}
	require.NoError(t, repo.Upsert(context.Background(), cfg))
	assert.False(t, cfg.UpdatedAt.IsZero())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubjectAndFacilityRepositories(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	subjects := NewSubjectRepository(db)
	facilities := NewFacilityRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO facilities")).
		WithArgs(int64(9), "Lab", models.FacilityTypeNormal, 30, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))
	lab := &models.Facility{OwnerID: 9, Name: "Lab", Capacity: 30}
	require.NoError(t, facilities.Create(context.Background(), lab))
	assert.Equal(t, int64(7), lab.ID)
	assert.Equal(t, models.FacilityTypeNormal, lab.Type)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, owner_id, name, category, required_facility_id, created_at FROM subjects WHERE owner_id = $1 ORDER BY id ASC")).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "owner_id", "name", "category", "required_facility_id", "created_at"}).
			AddRow(int64(1), int64(9), "Chemistry", nil, int64(7), time.Now()).
			AddRow(int64(2), int64(9), "History", "social", nil, time.Now()))
	list, err := subjects.ListByOwner(context.Background(), 9)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.NotNil(t, list[0].RequiredFacilityID)
	assert.Equal(t, int64(7), *list[0].RequiredFacilityID)
	assert.Nil(t, list[1].RequiredFacilityID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleAuditRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleAuditRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO schedule_audits")).
		WithArgs(int64(4), models.AuditTriggerAutoSchedule, true, 0, 12, sqlmock.AnyArg(), nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(3)))

	audit := &models.ScheduleAudit{ScheduleID: 4, Trigger: models.AuditTriggerAutoSchedule, IsValid: true, BlockCount: 12}
	require.NoError(t, repo.Create(context.Background(), audit))
	assert.Equal(t, int64(3), audit.ID)
	assert.JSONEq(t, `{}`, string(audit.Report))
	assert.NoError(t, mock.ExpectationsWereMet())
}
