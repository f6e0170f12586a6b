// file: internals/features/mastery/lesson_scores/model/assessment_grade_model.go
package model

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =============================================================================
   ENUM-like: Assessment Type ('quiz','assignment')
============================================================================= */
type AssessmentType string

const (
	AssessmentTypeQuiz       AssessmentType = "quiz"
	AssessmentTypeAssignment AssessmentType = "assignment"
)

func (t AssessmentType) String() string { return string(t) }
func (t AssessmentType) Valid() bool {
	switch t {
	case AssessmentTypeQuiz, AssessmentTypeAssignment:
		return true
	default:
		return false
	}
}

func (t *AssessmentType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*t = AssessmentType(v)
	case []byte:
		*t = AssessmentType(string(v))
	default:
		return fmt.Errorf("unsupported type for AssessmentType: %T", value)
	}
	if !t.Valid() {
		return fmt.Errorf("invalid AssessmentType: %q", *t)
	}
	return nil
}
func (t AssessmentType) Value() (driver.Value, error) {
	if t == "" {
		return nil, nil
	}
	if !t.Valid() {
		return nil, fmt.Errorf("invalid AssessmentType: %q", t)
	}
	return string(t), nil
}

/* =============================================================================
   MODEL: assessment_grades
   Catatan:
   - Ditulis oleh collaborator grading (endpoint intake admin), engine hanya
     membaca untuk recompute.
   - assessment_grade_is_final = nilai asesmen terminal modul (dihitung sebagai
     attempt oleh progression).
   - assessment_grade_superseded di-set saat retake (sesuai retake policy
     course) supaya nilai lama tidak ikut dihitung lagi.
============================================================================= */
type AssessmentGradeModel struct {
	// PK
	AssessmentGradeID uuid.UUID `json:"assessment_grade_id" gorm:"column:assessment_grade_id;type:uuid;primaryKey"`

	// Scope
	AssessmentGradeUserID   uuid.UUID  `json:"assessment_grade_user_id" gorm:"column:assessment_grade_user_id;type:uuid;not null;index:idx_assessment_grade_user_module,priority:1"`
	AssessmentGradeCourseID uuid.UUID  `json:"assessment_grade_course_id" gorm:"column:assessment_grade_course_id;type:uuid;not null"`
	AssessmentGradeModuleID uuid.UUID  `json:"assessment_grade_module_id" gorm:"column:assessment_grade_module_id;type:uuid;not null;index:idx_assessment_grade_user_module,priority:2"`
	AssessmentGradeLessonID *uuid.UUID `json:"assessment_grade_lesson_id,omitempty" gorm:"column:assessment_grade_lesson_id;type:uuid;index:idx_assessment_grade_lesson"`

	// Identitas asesmen
	AssessmentGradeAssessmentID uuid.UUID      `json:"assessment_grade_assessment_id" gorm:"column:assessment_grade_assessment_id;type:uuid;not null"`
	AssessmentGradeType         AssessmentType `json:"assessment_grade_type" gorm:"column:assessment_grade_type;type:varchar(16);not null"`
	AssessmentGradeIsFinal      bool           `json:"assessment_grade_is_final" gorm:"column:assessment_grade_is_final;not null;default:false"`

	// Hasil
	AssessmentGradeScorePct float64 `json:"assessment_grade_score_pct" gorm:"column:assessment_grade_score_pct;type:numeric(6,3);not null"`
	AssessmentGradePassed   bool    `json:"assessment_grade_passed" gorm:"column:assessment_grade_passed;not null"`

	// Lifecycle
	AssessmentGradeSuperseded bool      `json:"assessment_grade_superseded" gorm:"column:assessment_grade_superseded;not null;default:false"`
	AssessmentGradeGradedAt   time.Time `json:"assessment_grade_graded_at" gorm:"column:assessment_grade_graded_at;not null"`

	// Audit
	AssessmentGradeCreatedAt time.Time `json:"assessment_grade_created_at" gorm:"column:assessment_grade_created_at;not null;autoCreateTime"`
}

func (AssessmentGradeModel) TableName() string { return "assessment_grades" }

func (m *AssessmentGradeModel) BeforeCreate(_ *gorm.DB) error {
	if m.AssessmentGradeID == uuid.Nil {
		m.AssessmentGradeID = uuid.New()
	}
	if m.AssessmentGradeGradedAt.IsZero() {
		m.AssessmentGradeGradedAt = time.Now().UTC()
	}
	return nil
}
