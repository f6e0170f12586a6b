// file: internals/features/mastery/lesson_scores/dto/lesson_score_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"pelajarku_backend/internals/features/mastery/lesson_scores/model"
)

/* =========================================================
   1) REQUEST DTO (key JSON = nama kolom, singular)
========================================================= */

// Sinyal progress baca dari collaborator reader-UI.
type ReadingProgressRequest struct {
	LessonCompletionCourseID uuid.UUID `json:"lesson_completion_course_id" validate:"required,uuid"`
	LessonCompletionModuleID uuid.UUID `json:"lesson_completion_module_id" validate:"required,uuid"`
	LessonCompletionLessonID uuid.UUID `json:"lesson_completion_lesson_id" validate:"required,uuid"`

	ReadingPct float64 `json:"reading_pct" validate:"min=0,max=100"`
}

// Sinyal engagement (waktu aktif, interaksi) dari collaborator tracker.
type EngagementRequest struct {
	LessonCompletionCourseID uuid.UUID `json:"lesson_completion_course_id" validate:"required,uuid"`
	LessonCompletionModuleID uuid.UUID `json:"lesson_completion_module_id" validate:"required,uuid"`
	LessonCompletionLessonID uuid.UUID `json:"lesson_completion_lesson_id" validate:"required,uuid"`

	EngagementPct float64 `json:"engagement_pct" validate:"min=0,max=100"`
}

// Intake nilai dari subsistem grading (admin only).
// assessment_grade_lesson_id kosong = asesmen level modul.
type CreateAssessmentGradeRequest struct {
	AssessmentGradeUserID   uuid.UUID  `json:"assessment_grade_user_id" validate:"required,uuid"`
	AssessmentGradeCourseID uuid.UUID  `json:"assessment_grade_course_id" validate:"required,uuid"`
	AssessmentGradeModuleID uuid.UUID  `json:"assessment_grade_module_id" validate:"required,uuid"`
	AssessmentGradeLessonID *uuid.UUID `json:"assessment_grade_lesson_id" validate:"omitempty,uuid"`

	AssessmentGradeAssessmentID uuid.UUID `json:"assessment_grade_assessment_id" validate:"required,uuid"`
	AssessmentGradeType         string    `json:"assessment_grade_type" validate:"required,oneof=quiz assignment"`
	AssessmentGradeIsFinal      bool      `json:"assessment_grade_is_final"`

	AssessmentGradeScorePct float64 `json:"assessment_grade_score_pct" validate:"min=0,max=100"`
	AssessmentGradePassed   bool    `json:"assessment_grade_passed"`
}

/* =========================================================
   2) RESPONSE DTO
========================================================= */

type LessonCompletionResponse struct {
	LessonCompletionID       uuid.UUID `json:"lesson_completion_id"`
	LessonCompletionUserID   uuid.UUID `json:"lesson_completion_user_id"`
	LessonCompletionCourseID uuid.UUID `json:"lesson_completion_course_id"`
	LessonCompletionModuleID uuid.UUID `json:"lesson_completion_module_id"`
	LessonCompletionLessonID uuid.UUID `json:"lesson_completion_lesson_id"`

	LessonCompletionReadingPct    *float64 `json:"lesson_completion_reading_pct,omitempty"`
	LessonCompletionEngagementPct *float64 `json:"lesson_completion_engagement_pct,omitempty"`

	LessonCompletionReadingComponent    *float64 `json:"lesson_completion_reading_component,omitempty"`
	LessonCompletionEngagementComponent *float64 `json:"lesson_completion_engagement_component,omitempty"`
	LessonCompletionQuizComponent       *float64 `json:"lesson_completion_quiz_component,omitempty"`
	LessonCompletionAssignmentComponent *float64 `json:"lesson_completion_assignment_component,omitempty"`

	LessonCompletionScore  float64 `json:"lesson_completion_score"`
	LessonCompletionStatus string  `json:"lesson_completion_status"`

	LessonCompletionVersion  int        `json:"lesson_completion_version"`
	LessonCompletionScoredAt *time.Time `json:"lesson_completion_scored_at,omitempty"`
}

type AssessmentGradeResponse struct {
	AssessmentGradeID           uuid.UUID  `json:"assessment_grade_id"`
	AssessmentGradeUserID       uuid.UUID  `json:"assessment_grade_user_id"`
	AssessmentGradeModuleID     uuid.UUID  `json:"assessment_grade_module_id"`
	AssessmentGradeLessonID     *uuid.UUID `json:"assessment_grade_lesson_id,omitempty"`
	AssessmentGradeAssessmentID uuid.UUID  `json:"assessment_grade_assessment_id"`
	AssessmentGradeType         string     `json:"assessment_grade_type"`
	AssessmentGradeIsFinal      bool       `json:"assessment_grade_is_final"`
	AssessmentGradeScorePct    float64   `json:"assessment_grade_score_pct"`
	AssessmentGradePassed      bool      `json:"assessment_grade_passed"`
	AssessmentGradeGradedAt    time.Time `json:"assessment_grade_graded_at"`
}

/* =========================================================
   3) MAPPERS
========================================================= */

func (r CreateAssessmentGradeRequest) ToModel() *model.AssessmentGradeModel {
	return &model.AssessmentGradeModel{
		AssessmentGradeUserID:       r.AssessmentGradeUserID,
		AssessmentGradeCourseID:     r.AssessmentGradeCourseID,
		AssessmentGradeModuleID:     r.AssessmentGradeModuleID,
		AssessmentGradeLessonID:     r.AssessmentGradeLessonID,
		AssessmentGradeAssessmentID: r.AssessmentGradeAssessmentID,
		AssessmentGradeType:         model.AssessmentType(r.AssessmentGradeType),
		AssessmentGradeIsFinal:      r.AssessmentGradeIsFinal,
		AssessmentGradeScorePct:     r.AssessmentGradeScorePct,
		AssessmentGradePassed:       r.AssessmentGradePassed,
	}
}

func FromLessonCompletionModel(m *model.LessonCompletionModel) LessonCompletionResponse {
	return LessonCompletionResponse{
		LessonCompletionID:       m.LessonCompletionID,
		LessonCompletionUserID:   m.LessonCompletionUserID,
		LessonCompletionCourseID: m.LessonCompletionCourseID,
		LessonCompletionModuleID: m.LessonCompletionModuleID,
		LessonCompletionLessonID: m.LessonCompletionLessonID,

		LessonCompletionReadingPct:    m.LessonCompletionReadingPct,
		LessonCompletionEngagementPct: m.LessonCompletionEngagementPct,

		LessonCompletionReadingComponent:    m.LessonCompletionReadingComponent,
		LessonCompletionEngagementComponent: m.LessonCompletionEngagementComponent,
		LessonCompletionQuizComponent:       m.LessonCompletionQuizComponent,
		LessonCompletionAssignmentComponent: m.LessonCompletionAssignmentComponent,

		LessonCompletionScore:  m.LessonCompletionScore,
		LessonCompletionStatus: m.LessonCompletionStatus.String(),

		LessonCompletionVersion:  m.LessonCompletionVersion,
		LessonCompletionScoredAt: m.LessonCompletionScoredAt,
	}
}

func FromAssessmentGradeModel(m *model.AssessmentGradeModel) AssessmentGradeResponse {
	return AssessmentGradeResponse{
		AssessmentGradeID:           m.AssessmentGradeID,
		AssessmentGradeUserID:       m.AssessmentGradeUserID,
		AssessmentGradeModuleID:     m.AssessmentGradeModuleID,
		AssessmentGradeLessonID:     m.AssessmentGradeLessonID,
		AssessmentGradeAssessmentID: m.AssessmentGradeAssessmentID,
		AssessmentGradeType:         m.AssessmentGradeType.String(),
		AssessmentGradeIsFinal:      m.AssessmentGradeIsFinal,
		AssessmentGradeScorePct:     m.AssessmentGradeScorePct,
		AssessmentGradePassed:       m.AssessmentGradePassed,
		AssessmentGradeGradedAt:     m.AssessmentGradeGradedAt,
	}
}
