// file: internals/features/mastery/suspensions/model/appeal_model.go
package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =============================================================================
   ENUM-like: Appeal Decision ('pending','approved','denied')
============================================================================= */
type AppealDecision string

const (
	AppealPending  AppealDecision = "pending"
	AppealApproved AppealDecision = "approved"
	AppealDenied   AppealDecision = "denied"
)

func (d AppealDecision) String() string { return string(d) }
func (d AppealDecision) Valid() bool {
	switch d {
	case AppealPending, AppealApproved, AppealDenied:
		return true
	default:
		return false
	}
}

func (d *AppealDecision) Scan(value any) error {
	if value == nil {
		*d = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*d = AppealDecision(v)
	case []byte:
		*d = AppealDecision(string(v))
	default:
		return fmt.Errorf("unsupported type for AppealDecision: %T", value)
	}
	if !d.Valid() {
		return fmt.Errorf("invalid AppealDecision: %q", *d)
	}
	return nil
}
func (d AppealDecision) Value() (driver.Value, error) {
	if d == "" {
		return nil, nil
	}
	if !d.Valid() {
		return nil, fmt.Errorf("invalid AppealDecision: %q", d)
	}
	return string(d), nil
}

/* =============================================================================
   MODEL: appeals
   Banding learner atas suspension; terminal begitu diputus reviewer.
============================================================================= */
type AppealModel struct {
	// PK
	AppealID uuid.UUID `json:"appeal_id" gorm:"column:appeal_id;type:uuid;primaryKey"`

	// FK
	AppealSuspensionID uuid.UUID `json:"appeal_suspension_id" gorm:"column:appeal_suspension_id;type:uuid;not null;index:idx_appeal_suspension"`
	AppealUserID       uuid.UUID `json:"appeal_user_id" gorm:"column:appeal_user_id;type:uuid;not null"`

	// Isi banding
	AppealExplanation string `json:"appeal_explanation" gorm:"column:appeal_explanation;type:text;not null"`

	// Keputusan
	AppealDecision  AppealDecision `json:"appeal_decision" gorm:"column:appeal_decision;type:varchar(16);not null;default:'pending';index:idx_appeal_decision"`
	AppealDecidedBy *uuid.UUID     `json:"appeal_decided_by,omitempty" gorm:"column:appeal_decided_by;type:uuid"`

	// Waktu
	AppealSubmittedAt time.Time  `json:"appeal_submitted_at" gorm:"column:appeal_submitted_at;not null"`
	AppealDecidedAt   *time.Time `json:"appeal_decided_at,omitempty" gorm:"column:appeal_decided_at"`

	// Audit
	AppealCreatedAt time.Time `json:"appeal_created_at" gorm:"column:appeal_created_at;not null;autoCreateTime"`
	AppealUpdatedAt time.Time `json:"appeal_updated_at" gorm:"column:appeal_updated_at;not null;autoUpdateTime"`
}

func (AppealModel) TableName() string { return "appeals" }

func (m *AppealModel) BeforeCreate(_ *gorm.DB) error {
	if m.AppealID == uuid.Nil {
		m.AppealID = uuid.New()
	}
	if m.AppealDecision == "" {
		m.AppealDecision = AppealPending
	}
	if m.AppealSubmittedAt.IsZero() {
		m.AppealSubmittedAt = time.Now().UTC()
	}
	return nil
}

func (m *AppealModel) IsPending() bool { return m.AppealDecision == AppealPending }
