package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"
)

const feasibleProblem = `
grid:
  days: 2
  periods: 2
teachers:
  - {id: 1, name: Bu Sari}
facilities:
  - {id: 1, name: Lab, type: SPECIAL}
subjects:
  - {id: 1, name: Physics, required_facility_id: 1}
groups:
  - {id: 1, subject_id: 1, teacher_id: 1, grade: 10, class_num: 1, total_credits: 3}
time_offs:
  - {teacher_id: 1, day: tuesday, period: 2}
fixed:
  - {group_id: 1, day: mon, period: 1, room_id: 1}
`

func writeProblem(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "problem.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestParseProblemConvertsInput(t *testing.T) {
	p, err := parseProblem([]byte(feasibleProblem))
	require.NoError(t, err)

	in, err := p.input()
	require.NoError(t, err)
	assert.Equal(t, 4, in.Grid.Size())
	require.Len(t, in.Existing, 1)
	assert.Equal(t, "MON", in.Existing[0].Day)
	assert.Equal(t, int64(1), in.Existing[0].TeacherID)
	assert.True(t, in.Existing[0].IsFixed)
	require.Len(t, in.TimeOffs, 1)
	assert.Equal(t, "TUE", in.TimeOffs[0].Day)
}

func TestParseProblemRejectsOutOfGridFixedBlock(t *testing.T) {
	p, err := parseProblem([]byte(`
grid: {days: 2, periods: 2}
groups:
  - {id: 1, subject_id: 1, teacher_id: 1, grade: 10, total_credits: 1}
fixed:
  - {group_id: 1, day: fri, period: 1}
`))
	require.NoError(t, err)

	_, err = p.input()
	assert.ErrorContains(t, err, "fixed[0]")
}

func TestParseProblemRequiresGroups(t *testing.T) {
	_, err := parseProblem([]byte("grid: {days: 5, periods: 7}\n"))
	assert.Error(t, err)
}

func TestRunYAMLOutput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(writeProblem(t, feasibleProblem), "yaml", zap.NewNop(), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var out struct {
		Blocks []struct {
			GroupID int64  `yaml:"group_id"`
			Day     string `yaml:"day"`
			Period  int    `yaml:"period"`
			Fixed   bool   `yaml:"fixed"`
		} `yaml:"blocks"`
	}
	require.NoError(t, yaml.Unmarshal(stdout.Bytes(), &out))
	require.Len(t, out.Blocks, 3)
	assert.True(t, out.Blocks[0].Fixed)
	for _, b := range out.Blocks {
		assert.False(t, b.Day == "TUE" && b.Period == 2, "placed on a time-off slot")
	}
}

func TestRunTableOutput(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(writeProblem(t, feasibleProblem), "table", zap.NewNop(), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	assert.Contains(t, stdout.String(), "Class 10-1")
	assert.Contains(t, stdout.String(), "Physics / Bu Sari @ Lab")
	assert.Contains(t, stdout.String(), "valid")
}

func TestRunInfeasible(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(writeProblem(t, `
grid: {days: 2, periods: 2}
groups:
  - {id: 1, subject_id: 1, teacher_id: 1, grade: 10, class_num: 1, total_credits: 5}
subjects:
  - {id: 1, name: Math}
`), "table", zap.NewNop(), &stdout, &stderr)

	assert.Equal(t, exitInfeasible, code)
	assert.Contains(t, stderr.String(), "infeasible")
}

type syncCountingCore struct {
	zapcore.Core
	syncs int
}

func (c *syncCountingCore) Sync() error {
	c.syncs++
	return nil
}

func TestRunFlushesLoggerOnEveryExit(t *testing.T) {
	var stdout, stderr bytes.Buffer

	core := &syncCountingCore{Core: zapcore.NewNopCore()}
	code := run(writeProblem(t, feasibleProblem), "yaml", zap.New(core), &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Equal(t, 1, core.syncs)

	core = &syncCountingCore{Core: zapcore.NewNopCore()}
	code = run(filepath.Join(t.TempDir(), "missing.yaml"), "yaml", zap.New(core), &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Equal(t, 1, core.syncs)
}
