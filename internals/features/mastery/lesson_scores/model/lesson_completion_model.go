// file: internals/features/mastery/lesson_scores/model/lesson_completion_model.go
package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =============================================================================
   ENUM-like: Completion Status ('in_progress','eligible')
============================================================================= */
type LessonCompletionStatus string

const (
	LessonCompletionInProgress LessonCompletionStatus = "in_progress"
	LessonCompletionEligible   LessonCompletionStatus = "eligible"
)

func (s LessonCompletionStatus) String() string { return string(s) }
func (s LessonCompletionStatus) Valid() bool {
	switch s {
	case LessonCompletionInProgress, LessonCompletionEligible:
		return true
	default:
		return false
	}
}

// sql.Scanner + driver.Valuer (aman saat scan ke enum)
func (s *LessonCompletionStatus) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = LessonCompletionStatus(v)
	case []byte:
		*s = LessonCompletionStatus(string(v))
	default:
		return fmt.Errorf("unsupported type for LessonCompletionStatus: %T", value)
	}
	if !s.Valid() {
		return fmt.Errorf("invalid LessonCompletionStatus: %q", *s)
	}
	return nil
}
func (s LessonCompletionStatus) Value() (driver.Value, error) {
	if s == "" {
		return nil, nil
	}
	if !s.Valid() {
		return nil, fmt.Errorf("invalid LessonCompletionStatus: %q", s)
	}
	return string(s), nil
}

/* =============================================================================
   MODEL: lesson_completions
   Catatan:
   - 1 row = 1 user × 1 lesson; tidak pernah dihapus.
   - Komponen sinyal nullable: nil berarti sinyal belum pernah datang
     (kontribusi 0, bukan error).
   - lesson_completion_version = optimistic lock sekaligus versi skor
     (monoton naik setiap recompute).
============================================================================= */
type LessonCompletionModel struct {
	// PK
	LessonCompletionID uuid.UUID `json:"lesson_completion_id" gorm:"column:lesson_completion_id;type:uuid;primaryKey"`

	// Scope
	LessonCompletionUserID   uuid.UUID `json:"lesson_completion_user_id" gorm:"column:lesson_completion_user_id;type:uuid;not null;uniqueIndex:uq_lesson_completion_user_lesson,priority:1;index:idx_lesson_completion_user_module,priority:1"`
	LessonCompletionCourseID uuid.UUID `json:"lesson_completion_course_id" gorm:"column:lesson_completion_course_id;type:uuid;not null"`
	LessonCompletionModuleID uuid.UUID `json:"lesson_completion_module_id" gorm:"column:lesson_completion_module_id;type:uuid;not null;index:idx_lesson_completion_user_module,priority:2"`
	LessonCompletionLessonID uuid.UUID `json:"lesson_completion_lesson_id" gorm:"column:lesson_completion_lesson_id;type:uuid;not null;uniqueIndex:uq_lesson_completion_user_lesson,priority:2"`

	// Sinyal mentah (nilai terakhir yang diketahui)
	LessonCompletionReadingPct    *float64 `json:"lesson_completion_reading_pct,omitempty" gorm:"column:lesson_completion_reading_pct;type:numeric(6,3)"`
	LessonCompletionEngagementPct *float64 `json:"lesson_completion_engagement_pct,omitempty" gorm:"column:lesson_completion_engagement_pct;type:numeric(6,3)"`

	// Komponen hasil hitung (sudah kena penalti / gagal-asesmen)
	LessonCompletionReadingComponent    *float64 `json:"lesson_completion_reading_component,omitempty" gorm:"column:lesson_completion_reading_component;type:numeric(6,3)"`
	LessonCompletionEngagementComponent *float64 `json:"lesson_completion_engagement_component,omitempty" gorm:"column:lesson_completion_engagement_component;type:numeric(6,3)"`
	LessonCompletionQuizComponent       *float64 `json:"lesson_completion_quiz_component,omitempty" gorm:"column:lesson_completion_quiz_component;type:numeric(6,3)"`
	LessonCompletionAssignmentComponent *float64 `json:"lesson_completion_assignment_component,omitempty" gorm:"column:lesson_completion_assignment_component;type:numeric(6,3)"`

	// Agregat
	LessonCompletionScore  float64                `json:"lesson_completion_score" gorm:"column:lesson_completion_score;type:numeric(6,3);not null;default:0"`
	LessonCompletionStatus LessonCompletionStatus `json:"lesson_completion_status" gorm:"column:lesson_completion_status;type:varchar(16);not null;default:'in_progress'"`

	// Optimistic lock / versi skor
	LessonCompletionVersion  int        `json:"lesson_completion_version" gorm:"column:lesson_completion_version;not null;default:0"`
	LessonCompletionScoredAt *time.Time `json:"lesson_completion_scored_at,omitempty" gorm:"column:lesson_completion_scored_at"`

	// Audit
	LessonCompletionCreatedAt time.Time `json:"lesson_completion_created_at" gorm:"column:lesson_completion_created_at;not null;autoCreateTime"`
	LessonCompletionUpdatedAt time.Time `json:"lesson_completion_updated_at" gorm:"column:lesson_completion_updated_at;not null;autoUpdateTime"`
}

// Nama tabel eksplisit
func (LessonCompletionModel) TableName() string { return "lesson_completions" }

func (m *LessonCompletionModel) BeforeCreate(_ *gorm.DB) error {
	if m.LessonCompletionID == uuid.Nil {
		m.LessonCompletionID = uuid.New()
	}
	if m.LessonCompletionStatus == "" {
		m.LessonCompletionStatus = LessonCompletionInProgress
	}
	return nil
}

/* ===================================================================
   Helper methods
=================================================================== */

func (m *LessonCompletionModel) IsEligible() bool {
	return m.LessonCompletionStatus == LessonCompletionEligible
}
