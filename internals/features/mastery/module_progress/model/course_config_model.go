// file: internals/features/mastery/module_progress/model/course_config_model.go
package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pelajarku_backend/internals/configs"
)

/* =============================================================================
   ENUM-like: Retake Reset Policy ('terminal_only','all_components')
   Kebijakan apa yang di-reset saat retake modul:
   - terminal_only   : hanya nilai asesmen terminal (default)
   - all_components  : semua komponen quiz/assignment lesson di modul itu juga
============================================================================= */
type RetakeResetPolicy string

const (
	RetakeResetTerminalOnly  RetakeResetPolicy = "terminal_only"
	RetakeResetAllComponents RetakeResetPolicy = "all_components"
)

func (p RetakeResetPolicy) String() string { return string(p) }
func (p RetakeResetPolicy) Valid() bool {
	switch p {
	case RetakeResetTerminalOnly, RetakeResetAllComponents:
		return true
	default:
		return false
	}
}

func (p *RetakeResetPolicy) Scan(value any) error {
	if value == nil {
		*p = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*p = RetakeResetPolicy(v)
	case []byte:
		*p = RetakeResetPolicy(string(v))
	default:
		return fmt.Errorf("unsupported type for RetakeResetPolicy: %T", value)
	}
	if !p.Valid() {
		return fmt.Errorf("invalid RetakeResetPolicy: %q", *p)
	}
	return nil
}
func (p RetakeResetPolicy) Value() (driver.Value, error) {
	if p == "" {
		return nil, nil
	}
	if !p.Valid() {
		return nil, fmt.Errorf("invalid RetakeResetPolicy: %q", p)
	}
	return string(p), nil
}

/* =============================================================================
   MODEL: course_configs
   Knob engine per course. Threshold kelulusan lesson memang konfigurasi
   course (bukan angka hardcode), fallback ke env kalau row belum ada.
============================================================================= */
type CourseConfigModel struct {
	// PK
	CourseConfigID uuid.UUID `json:"course_config_id" gorm:"column:course_config_id;type:uuid;primaryKey"`

	// Scope
	CourseConfigCourseID uuid.UUID `json:"course_config_course_id" gorm:"column:course_config_course_id;type:uuid;not null;uniqueIndex:uq_course_config_course"`

	// Knobs
	CourseConfigPassThreshold       float64           `json:"course_config_pass_threshold" gorm:"column:course_config_pass_threshold;type:numeric(6,3);not null;default:80"`
	CourseConfigCompletionThreshold float64           `json:"course_config_completion_threshold" gorm:"column:course_config_completion_threshold;type:numeric(6,3);not null;default:70"`
	CourseConfigMaxAttempts         int               `json:"course_config_max_attempts" gorm:"column:course_config_max_attempts;not null;default:3"`
	CourseConfigAppealWindowDays    int               `json:"course_config_appeal_window_days" gorm:"column:course_config_appeal_window_days;not null;default:30"`
	CourseConfigRetakeResetPolicy   RetakeResetPolicy `json:"course_config_retake_reset_policy" gorm:"column:course_config_retake_reset_policy;type:varchar(24);not null;default:'terminal_only'"`

	// Audit
	CourseConfigCreatedAt time.Time `json:"course_config_created_at" gorm:"column:course_config_created_at;not null;autoCreateTime"`
	CourseConfigUpdatedAt time.Time `json:"course_config_updated_at" gorm:"column:course_config_updated_at;not null;autoUpdateTime"`
}

func (CourseConfigModel) TableName() string { return "course_configs" }

func (m *CourseConfigModel) BeforeCreate(_ *gorm.DB) error {
	if m.CourseConfigID == uuid.Nil {
		m.CourseConfigID = uuid.New()
	}
	return nil
}

// GetCourseConfig memuat config course; kalau belum ada pakai default env.
// Dipanggil di jalur recompute, jadi sengaja tanpa cache; query-nya ringan
// dan selalu konsisten dengan row terbaru.
func GetCourseConfig(db *gorm.DB, courseID uuid.UUID) (*CourseConfigModel, error) {
	var cfg CourseConfigModel
	err := db.Where("course_config_course_id = ?", courseID).Take(&cfg).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &CourseConfigModel{
				CourseConfigCourseID:            courseID,
				CourseConfigPassThreshold:       configs.DefaultPassThreshold(),
				CourseConfigCompletionThreshold: configs.DefaultCompletionThreshold(),
				CourseConfigMaxAttempts:         configs.DefaultMaxAttempts(),
				CourseConfigAppealWindowDays:    configs.DefaultAppealWindowDays(),
				CourseConfigRetakeResetPolicy:   RetakeResetTerminalOnly,
			}, nil
		}
		return nil, err
	}
	if cfg.CourseConfigRetakeResetPolicy == "" {
		cfg.CourseConfigRetakeResetPolicy = RetakeResetTerminalOnly
	}
	return &cfg, nil
}
