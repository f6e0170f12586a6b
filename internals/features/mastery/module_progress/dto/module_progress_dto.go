// file: internals/features/mastery/module_progress/dto/module_progress_dto.go
package dto

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"pelajarku_backend/internals/features/mastery/module_progress/model"
)

/* =========================================================
   1) REQUEST DTO
========================================================= */

// Enrollment dibuat admin (atau sistem registrasi upstream).
type CreateEnrollmentRequest struct {
	EnrollmentUserID   uuid.UUID `json:"enrollment_user_id" validate:"required,uuid"`
	EnrollmentCourseID uuid.UUID `json:"enrollment_course_id" validate:"required,uuid"`
}

/* =========================================================
   2) RESPONSE DTO
========================================================= */

type EnrollmentResponse struct {
	EnrollmentID       uuid.UUID `json:"enrollment_id"`
	EnrollmentUserID   uuid.UUID `json:"enrollment_user_id"`
	EnrollmentCourseID uuid.UUID `json:"enrollment_course_id"`
	EnrollmentStatus   string    `json:"enrollment_status"`
	EnrollmentEnrolledAt time.Time `json:"enrollment_enrolled_at"`
}

type ModuleProgressResponse struct {
	ModuleProgressID       uuid.UUID `json:"module_progress_id"`
	ModuleProgressUserID   uuid.UUID `json:"module_progress_user_id"`
	ModuleProgressCourseID uuid.UUID `json:"module_progress_course_id"`
	ModuleProgressModuleID uuid.UUID `json:"module_progress_module_id"`
	ModuleProgressPosition int       `json:"module_progress_position"`

	ModuleProgressAttemptsCount     int     `json:"module_progress_attempts_count"`
	ModuleProgressMaxAttempts       int     `json:"module_progress_max_attempts"`
	ModuleProgressRemainingAttempts int     `json:"module_progress_remaining_attempts"`
	ModuleProgressCumulativeScore   float64 `json:"module_progress_cumulative_score"`

	// Breakdown rubric apa adanya (JSON dari service)
	ModuleProgressBreakdown json.RawMessage `json:"module_progress_breakdown,omitempty"`

	ModuleProgressState       string     `json:"module_progress_state"`
	ModuleProgressUnlockedAt  *time.Time `json:"module_progress_unlocked_at,omitempty"`
	ModuleProgressCompletedAt *time.Time `json:"module_progress_completed_at,omitempty"`
}

/* =========================================================
   3) MAPPERS
========================================================= */

func FromEnrollmentModel(m *model.EnrollmentModel) EnrollmentResponse {
	return EnrollmentResponse{
		EnrollmentID:         m.EnrollmentID,
		EnrollmentUserID:     m.EnrollmentUserID,
		EnrollmentCourseID:   m.EnrollmentCourseID,
		EnrollmentStatus:     m.EnrollmentStatus.String(),
		EnrollmentEnrolledAt: m.EnrollmentEnrolledAt,
	}
}

func FromModuleProgressModel(m *model.ModuleProgressModel) ModuleProgressResponse {
	var breakdown json.RawMessage
	if len(m.ModuleProgressBreakdown) > 0 {
		breakdown = json.RawMessage(m.ModuleProgressBreakdown)
	}
	return ModuleProgressResponse{
		ModuleProgressID:       m.ModuleProgressID,
		ModuleProgressUserID:   m.ModuleProgressUserID,
		ModuleProgressCourseID: m.ModuleProgressCourseID,
		ModuleProgressModuleID: m.ModuleProgressModuleID,
		ModuleProgressPosition: m.ModuleProgressPosition,

		ModuleProgressAttemptsCount:     m.ModuleProgressAttemptsCount,
		ModuleProgressMaxAttempts:       m.ModuleProgressMaxAttempts,
		ModuleProgressRemainingAttempts: m.RemainingAttempts(),
		ModuleProgressCumulativeScore:   m.ModuleProgressCumulativeScore,

		ModuleProgressBreakdown: breakdown,

		ModuleProgressState:       m.ModuleProgressState.String(),
		ModuleProgressUnlockedAt:  m.ModuleProgressUnlockedAt,
		ModuleProgressCompletedAt: m.ModuleProgressCompletedAt,
	}
}

func FromModuleProgressModels(rows []model.ModuleProgressModel) []ModuleProgressResponse {
	out := make([]ModuleProgressResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromModuleProgressModel(&rows[i]))
	}
	return out
}
