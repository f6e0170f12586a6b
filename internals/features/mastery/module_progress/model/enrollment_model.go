// file: internals/features/mastery/module_progress/model/enrollment_model.go
package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =============================================================================
   ENUM-like: Enrollment Status ('active','suspended','completed','withdrawn')
============================================================================= */
type EnrollmentStatus string

const (
	EnrollmentActive    EnrollmentStatus = "active"
	EnrollmentSuspended EnrollmentStatus = "suspended"
	EnrollmentCompleted EnrollmentStatus = "completed"
	EnrollmentWithdrawn EnrollmentStatus = "withdrawn"
)

func (s EnrollmentStatus) String() string { return string(s) }
func (s EnrollmentStatus) Valid() bool {
	switch s {
	case EnrollmentActive, EnrollmentSuspended, EnrollmentCompleted, EnrollmentWithdrawn:
		return true
	default:
		return false
	}
}

func (s *EnrollmentStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = EnrollmentStatus(v)
	case []byte:
		*s = EnrollmentStatus(string(v))
	default:
		return fmt.Errorf("unsupported type for EnrollmentStatus: %T", value)
	}
	if !s.Valid() {
		return fmt.Errorf("invalid EnrollmentStatus: %q", *s)
	}
	return nil
}
func (s EnrollmentStatus) Value() (driver.Value, error) {
	if s == "" {
		return nil, nil
	}
	if !s.Valid() {
		return nil, fmt.Errorf("invalid EnrollmentStatus: %q", s)
	}
	return string(s), nil
}

/* =============================================================================
   MODEL: enrollments
============================================================================= */
type EnrollmentModel struct {
	// PK
	EnrollmentID uuid.UUID `json:"enrollment_id" gorm:"column:enrollment_id;type:uuid;primaryKey"`

	// Scope
	EnrollmentUserID   uuid.UUID `json:"enrollment_user_id" gorm:"column:enrollment_user_id;type:uuid;not null;uniqueIndex:uq_enrollment_user_course,priority:1"`
	EnrollmentCourseID uuid.UUID `json:"enrollment_course_id" gorm:"column:enrollment_course_id;type:uuid;not null;uniqueIndex:uq_enrollment_user_course,priority:2"`

	// Status
	EnrollmentStatus EnrollmentStatus `json:"enrollment_status" gorm:"column:enrollment_status;type:varchar(16);not null;default:'active'"`

	// Waktu
	EnrollmentEnrolledAt time.Time `json:"enrollment_enrolled_at" gorm:"column:enrollment_enrolled_at;not null;autoCreateTime"`
	EnrollmentUpdatedAt  time.Time `json:"enrollment_updated_at" gorm:"column:enrollment_updated_at;not null;autoUpdateTime"`
}

func (EnrollmentModel) TableName() string { return "enrollments" }

func (m *EnrollmentModel) BeforeCreate(_ *gorm.DB) error {
	if m.EnrollmentID == uuid.Nil {
		m.EnrollmentID = uuid.New()
	}
	if m.EnrollmentStatus == "" {
		m.EnrollmentStatus = EnrollmentActive
	}
	return nil
}

func (m *EnrollmentModel) IsTerminal() bool {
	return m.EnrollmentStatus == EnrollmentCompleted || m.EnrollmentStatus == EnrollmentWithdrawn
}
