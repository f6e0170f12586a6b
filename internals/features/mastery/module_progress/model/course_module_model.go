// file: internals/features/mastery/module_progress/model/course_module_model.go
package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

/* =============================================================================
   MODEL: course_modules
   Katalog urutan modul per course. Diisi oleh subsistem authoring (di luar
   engine); engine hanya membacanya untuk tahu modul N+1 saat unlock.
============================================================================= */
type CourseModuleModel struct {
	// PK
	CourseModuleID uuid.UUID `json:"course_module_id" gorm:"column:course_module_id;type:uuid;primaryKey"`

	// Scope
	CourseModuleCourseID uuid.UUID `json:"course_module_course_id" gorm:"column:course_module_course_id;type:uuid;not null;uniqueIndex:uq_course_module_course_position,priority:1"`
	CourseModuleModuleID uuid.UUID `json:"course_module_module_id" gorm:"column:course_module_module_id;type:uuid;not null;uniqueIndex:uq_course_module_module"`

	// Urutan (1-based)
	CourseModulePosition int `json:"course_module_position" gorm:"column:course_module_position;not null;uniqueIndex:uq_course_module_course_position,priority:2"`

	// Audit
	CourseModuleCreatedAt time.Time `json:"course_module_created_at" gorm:"column:course_module_created_at;not null;autoCreateTime"`
}

func (CourseModuleModel) TableName() string { return "course_modules" }

func (m *CourseModuleModel) BeforeCreate(_ *gorm.DB) error {
	if m.CourseModuleID == uuid.Nil {
		m.CourseModuleID = uuid.New()
	}
	return nil
}
