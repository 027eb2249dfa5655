package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
)

func TestLectureGroupRepositoryBulkCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLectureGroupRepository(db)

	classNum := 2
	groups := []models.LectureGroup{
		{ScheduleID: 4, SubjectID: 1, TeacherID: 5, Grade: 1, ClassNum: &classNum, TotalCredits: 3},
		{ScheduleID: 4, SubjectID: 2, TeacherID: 6, Grade: 1, TotalCredits: 2},
	}

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO lecture_groups")).
		WithArgs(int64(4), int64(1), int64(5), 1, &classNum, 3, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(20)))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO lecture_groups")).
		WithArgs(int64(4), int64(2), int64(6), 1, nil, 2, nil, sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(21)))

	require.NoError(t, repo.BulkCreate(context.Background(), nil, groups))
	assert.Equal(t, int64(20), groups[0].ID)
	assert.Equal(t, int64(21), groups[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLectureGroupRepositoryListBySchedule(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewLectureGroupRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, schedule_id, subject_id, teacher_id, grade, class_num, total_credits, slicing_option, created_at FROM lecture_groups WHERE schedule_id = $1 ORDER BY id ASC")).
		WithArgs(int64(4)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "schedule_id", "subject_id", "teacher_id", "grade", "class_num", "total_credits", "slicing_option", "created_at"}).
			AddRow(int64(20), int64(4), int64(1), int64(5), 1, 2, 3, "2+1", time.Now()))

	groups, err := repo.ListBySchedule(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	require.NotNil(t, groups[0].SlicingOption)
	assert.Equal(t, "2+1", *groups[0].SlicingOption)
	assert.NoError(t, mock.ExpectationsWereMet())
}
