package models

import (
	"time"

	"github.com/jmoiron/sqlx/types"
)

// Audit triggers describe which mutation caused a re-validation.
const (
	AuditTriggerAutoSchedule = "AUTO_SCHEDULE"
	AuditTriggerBlockCreate  = "BLOCK_CREATE"
	AuditTriggerBlockDelete  = "BLOCK_DELETE"
	AuditTriggerGroupDelete  = "GROUP_DELETE"
	AuditTriggerReset        = "RESET"
	AuditTriggerManual       = "MANUAL"
)

// ScheduleAudit is the stored outcome of a full validation of one schedule version.
type ScheduleAudit struct {
	ID          int64          `db:"id" json:"id"`
	ScheduleID  int64          `db:"schedule_id" json:"schedule_id"`
	Trigger     string         `db:"trigger" json:"trigger"`
	IsValid     bool           `db:"is_valid" json:"is_valid"`
	ErrorCount  int            `db:"error_count" json:"error_count"`
	BlockCount  int            `db:"block_count" json:"block_count"`
	Report      types.JSONText `db:"report" json:"report"`
	RequestedBy *int64         `db:"requested_by" json:"requested_by,omitempty"`
	CreatedAt   time.Time      `db:"created_at" json:"created_at"`
}
