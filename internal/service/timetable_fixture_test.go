package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-api/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-api/pkg/errors"
)

// memStore is an in-memory stand-in for every timetable repository. The
// per-entity views below expose the method sets the services depend on.
type memStore struct {
	mu         sync.Mutex
	nextID     int64
	schedules  map[int64]*models.ScheduleMetadata
	groups     []models.LectureGroup
	blocks     []models.LectureBlock
	subjects   []models.Subject
	facilities []models.Facility
	teachers   []models.Teacher
	offs       []models.TeacherTimeOff
	configs    map[int64]*models.SchoolConfiguration
	audits     []models.ScheduleAudit
}

func newMemStore() *memStore {
	return &memStore{
		nextID:    1000,
		schedules: map[int64]*models.ScheduleMetadata{},
		configs:   map[int64]*models.SchoolConfiguration{},
	}
}

func (m *memStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *memStore) groupByID(id int64) (models.LectureGroup, bool) {
	for _, g := range m.groups {
		if g.ID == id {
			return g, true
		}
	}
	return models.LectureGroup{}, false
}

// addBlock stores a block with the group attributes joined in.
func (m *memStore) addBlock(b models.LectureBlock) models.LectureBlock {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g, ok := m.groupByID(b.GroupID); ok {
		b = b.WithGroup(g)
	}
	if b.ID == 0 {
		b.ID = m.id()
	}
	m.blocks = append(m.blocks, b)
	return b
}

func (m *memStore) blockCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.blocks)
}

type scheduleView struct{ *memStore }

func (v scheduleView) FindByID(ctx context.Context, id int64) (*models.ScheduleMetadata, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	s, ok := v.schedules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

type groupView struct{ *memStore }

func (v groupView) Create(ctx context.Context, exec sqlx.ExtContext, group *models.LectureGroup) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	group.ID = v.id()
	v.groups = append(v.groups, *group)
	return nil
}

func (v groupView) BulkCreate(ctx context.Context, exec sqlx.ExtContext, groups []models.LectureGroup) error {
	for i := range groups {
		if err := v.Create(ctx, exec, &groups[i]); err != nil {
			return err
		}
	}
	return nil
}

func (v groupView) ListBySchedule(ctx context.Context, scheduleID int64) ([]models.LectureGroup, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []models.LectureGroup
	for _, g := range v.groups {
		if g.ScheduleID == scheduleID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (v groupView) FindByID(ctx context.Context, id int64) (*models.LectureGroup, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	g, ok := v.groupByID(id)
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &g, nil
}

func (v groupView) Delete(ctx context.Context, id int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, g := range v.groups {
		if g.ID == id {
			v.groups = append(v.groups[:i], v.groups[i+1:]...)
			kept := v.blocks[:0]
			for _, b := range v.blocks {
				if b.GroupID != id {
					kept = append(kept, b)
				}
			}
			v.blocks = kept
			return nil
		}
	}
	return sql.ErrNoRows
}

func (v groupView) DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID int64) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	kept := v.groups[:0]
	var n int64
	for _, g := range v.groups {
		if g.ScheduleID == scheduleID {
			n++
			continue
		}
		kept = append(kept, g)
	}
	v.groups = kept
	return n, nil
}

type blockView struct{ *memStore }

func (v blockView) ListBySchedule(ctx context.Context, scheduleID int64) ([]models.LectureBlock, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []models.LectureBlock
	for _, b := range v.blocks {
		if b.ScheduleID == scheduleID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (v blockView) FindByID(ctx context.Context, id int64) (*models.LectureBlock, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, b := range v.blocks {
		if b.ID == id {
			cp := b
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (v blockView) Create(ctx context.Context, exec sqlx.ExtContext, block *models.LectureBlock) error {
	*block = v.addBlock(*block)
	return nil
}

func (v blockView) BulkCreate(ctx context.Context, exec sqlx.ExtContext, blocks []models.LectureBlock) error {
	for i := range blocks {
		blocks[i] = v.addBlock(blocks[i])
	}
	return nil
}

func (v blockView) Delete(ctx context.Context, id int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	for i, b := range v.blocks {
		if b.ID == id {
			v.blocks = append(v.blocks[:i], v.blocks[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (v blockView) DeleteBySchedule(ctx context.Context, exec sqlx.ExtContext, scheduleID int64) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	kept := v.blocks[:0]
	var n int64
	for _, b := range v.blocks {
		if b.ScheduleID == scheduleID {
			n++
			continue
		}
		kept = append(kept, b)
	}
	v.blocks = kept
	return n, nil
}

type subjectView struct{ *memStore }

func (v subjectView) ListByOwner(ctx context.Context, ownerID int64) ([]models.Subject, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []models.Subject
	for _, s := range v.subjects {
		if s.OwnerID == ownerID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (v subjectView) FindByID(ctx context.Context, id int64) (*models.Subject, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, s := range v.subjects {
		if s.ID == id {
			cp := s
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (v subjectView) Create(ctx context.Context, subject *models.Subject) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	subject.ID = v.id()
	v.subjects = append(v.subjects, *subject)
	return nil
}

type facilityView struct{ *memStore }

func (v facilityView) ListByOwner(ctx context.Context, ownerID int64) ([]models.Facility, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []models.Facility
	for _, f := range v.facilities {
		if f.OwnerID == ownerID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (v facilityView) FindByID(ctx context.Context, id int64) (*models.Facility, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, f := range v.facilities {
		if f.ID == id {
			cp := f
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (v facilityView) Create(ctx context.Context, facility *models.Facility) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	facility.ID = v.id()
	if facility.Type == "" {
		facility.Type = models.FacilityTypeNormal
	}
	v.facilities = append(v.facilities, *facility)
	return nil
}

type teacherView struct{ *memStore }

func (v teacherView) ListByOwner(ctx context.Context, ownerID int64) ([]models.Teacher, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []models.Teacher
	for _, t := range v.teachers {
		if t.OwnerID == ownerID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (v teacherView) FindByID(ctx context.Context, id int64) (*models.Teacher, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	for _, t := range v.teachers {
		if t.ID == id {
			cp := t
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (v teacherView) Create(ctx context.Context, teacher *models.Teacher) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	teacher.ID = v.id()
	v.teachers = append(v.teachers, *teacher)
	return nil
}

type timeOffView struct{ *memStore }

func (v timeOffView) ListByOwner(ctx context.Context, ownerID int64) ([]models.TeacherTimeOff, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []models.TeacherTimeOff
	for _, o := range v.offs {
		if o.OwnerID == ownerID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (v timeOffView) ReplaceForOwner(ctx context.Context, exec sqlx.ExtContext, ownerID int64, offs []models.TeacherTimeOff) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	kept := v.offs[:0]
	for _, o := range v.offs {
		if o.OwnerID != ownerID {
			kept = append(kept, o)
		}
	}
	for i := range offs {
		offs[i].ID = v.id()
		offs[i].OwnerID = ownerID
		kept = append(kept, offs[i])
	}
	v.offs = kept
	return nil
}

type configView struct{ *memStore }

func (v configView) Get(ctx context.Context, ownerID int64) (*models.SchoolConfiguration, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	cfg, ok := v.configs[ownerID]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *cfg
	return &cp, nil
}

func (v configView) Upsert(ctx context.Context, cfg *models.SchoolConfiguration) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	cp := *cfg
	v.configs[cfg.OwnerID] = &cp
	return nil
}

type auditView struct{ *memStore }

func (v auditView) Create(ctx context.Context, audit *models.ScheduleAudit) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	audit.ID = v.id()
	v.audits = append(v.audits, *audit)
	return nil
}

func (v auditView) ListBySchedule(ctx context.Context, scheduleID int64, limit int) ([]models.ScheduleAudit, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	var out []models.ScheduleAudit
	for i := len(v.audits) - 1; i >= 0 && (limit <= 0 || len(out) < limit); i-- {
		if v.audits[i].ScheduleID == scheduleID {
			out = append(out, v.audits[i])
		}
	}
	return out, nil
}

// recordingAudits captures enqueued audit requests.
type recordingAudits struct {
	mu       sync.Mutex
	requests []AuditRequest
}

func (r *recordingAudits) Enqueue(ctx context.Context, req AuditRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = append(r.requests, req)
	return nil
}

func (r *recordingAudits) triggers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.requests))
	for _, req := range r.requests {
		out = append(out, req.Trigger)
	}
	return out
}

// memCache is a CacheRepository backed by a map of JSON payloads.
type memCache struct {
	mu    sync.Mutex
	items map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{items: map[string][]byte{}}
}

func (c *memCache) Get(ctx context.Context, key string, dest interface{}) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	raw, ok := c.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (c *memCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = raw
	return nil
}

func (c *memCache) Delete(ctx context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.items, key)
	}
	return nil
}

func (c *memCache) DeleteByPattern(ctx context.Context, pattern string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
		}
	}
	return nil
}

func (c *memCache) has(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.items[key]
	return ok
}

// newMockTx returns an sqlx handle whose transactions are scripted via the mock.
func newMockTx(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "sqlmock"), mock
}

func int64Ptr(v int64) *int64 {
	return &v
}

func intPtr(v int) *int {
	return &v
}
