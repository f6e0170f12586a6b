// file: internals/features/mastery/suspensions/model/suspension_model.go
package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =============================================================================
   ENUM-like: Suspension Status ('active','appealed','resolved')
============================================================================= */
type SuspensionStatus string

const (
	SuspensionActive   SuspensionStatus = "active"
	SuspensionAppealed SuspensionStatus = "appealed"
	SuspensionResolved SuspensionStatus = "resolved"
)

func (s SuspensionStatus) String() string { return string(s) }
func (s SuspensionStatus) Valid() bool {
	switch s {
	case SuspensionActive, SuspensionAppealed, SuspensionResolved:
		return true
	default:
		return false
	}
}

func (s *SuspensionStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = SuspensionStatus(v)
	case []byte:
		*s = SuspensionStatus(string(v))
	default:
		return fmt.Errorf("unsupported type for SuspensionStatus: %T", value)
	}
	if !s.Valid() {
		return fmt.Errorf("invalid SuspensionStatus: %q", *s)
	}
	return nil
}
func (s SuspensionStatus) Value() (driver.Value, error) {
	if s == "" {
		return nil, nil
	}
	if !s.Valid() {
		return nil, fmt.Errorf("invalid SuspensionStatus: %q", s)
	}
	return string(s), nil
}

const SuspensionReasonAttemptsExhausted = "attempts_exhausted"

/* =============================================================================
   MODEL: suspensions
   Catatan:
   - Invariant: maksimal 1 suspension aktif per (user, modul). Dijaga lewat
     check-then-create di dalam transaksi (DDL produksi juga punya partial
     unique index: ON suspensions(user_id, module_id) WHERE status <> 'resolved').
   - suspension_window_notified dipakai scheduler supaya event
     appeal.window_expired cuma terkirim sekali.
============================================================================= */
type SuspensionModel struct {
	// PK
	SuspensionID uuid.UUID `json:"suspension_id" gorm:"column:suspension_id;type:uuid;primaryKey"`

	// Scope
	SuspensionUserID   uuid.UUID `json:"suspension_user_id" gorm:"column:suspension_user_id;type:uuid;not null;index:idx_suspension_user_module,priority:1"`
	SuspensionCourseID uuid.UUID `json:"suspension_course_id" gorm:"column:suspension_course_id;type:uuid;not null"`
	SuspensionModuleID uuid.UUID `json:"suspension_module_id" gorm:"column:suspension_module_id;type:uuid;not null;index:idx_suspension_user_module,priority:2"`

	// Alasan & status
	SuspensionReason string           `json:"suspension_reason" gorm:"column:suspension_reason;type:varchar(64);not null"`
	SuspensionStatus SuspensionStatus `json:"suspension_status" gorm:"column:suspension_status;type:varchar(16);not null;default:'active';index:idx_suspension_status"`

	// Window banding
	SuspensionSuspendedAt    time.Time `json:"suspension_suspended_at" gorm:"column:suspension_suspended_at;not null"`
	SuspensionAppealDeadline time.Time `json:"suspension_appeal_deadline" gorm:"column:suspension_appeal_deadline;not null"`

	// Penanda notifikasi window habis (scheduler)
	SuspensionWindowNotified bool `json:"suspension_window_notified" gorm:"column:suspension_window_notified;not null;default:false"`

	// Audit
	SuspensionCreatedAt time.Time `json:"suspension_created_at" gorm:"column:suspension_created_at;not null;autoCreateTime"`
	SuspensionUpdatedAt time.Time `json:"suspension_updated_at" gorm:"column:suspension_updated_at;not null;autoUpdateTime"`
}

func (SuspensionModel) TableName() string { return "suspensions" }

func (m *SuspensionModel) BeforeCreate(_ *gorm.DB) error {
	if m.SuspensionID == uuid.Nil {
		m.SuspensionID = uuid.New()
	}
	if m.SuspensionStatus == "" {
		m.SuspensionStatus = SuspensionActive
	}
	return nil
}

func (m *SuspensionModel) WindowExpired(now time.Time) bool {
	return now.After(m.SuspensionAppealDeadline)
}
