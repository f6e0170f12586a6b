// file: internals/features/mastery/suspensions/dto/suspension_dto.go
package dto

import (
	"time"

	"github.com/google/uuid"

	"pelajarku_backend/internals/features/mastery/suspensions/model"
)

/* =========================================================
   1) REQUEST DTO
========================================================= */

// Banding learner; alasan wajib diisi supaya reviewer punya konteks.
type SubmitAppealRequest struct {
	AppealExplanation string `json:"appeal_explanation" validate:"required,min=10,max=2000"`
}

// Keputusan reviewer (admin only).
type DecideAppealRequest struct {
	AppealDecision string `json:"appeal_decision" validate:"required,oneof=approved denied"`
}

/* =========================================================
   2) RESPONSE DTO
========================================================= */

type SuspensionResponse struct {
	SuspensionID       uuid.UUID `json:"suspension_id"`
	SuspensionUserID   uuid.UUID `json:"suspension_user_id"`
	SuspensionCourseID uuid.UUID `json:"suspension_course_id"`
	SuspensionModuleID uuid.UUID `json:"suspension_module_id"`

	SuspensionReason string `json:"suspension_reason"`
	SuspensionStatus string `json:"suspension_status"`

	SuspensionSuspendedAt    time.Time `json:"suspension_suspended_at"`
	SuspensionAppealDeadline time.Time `json:"suspension_appeal_deadline"`
}

type AppealResponse struct {
	AppealID           uuid.UUID `json:"appeal_id"`
	AppealSuspensionID uuid.UUID `json:"appeal_suspension_id"`
	AppealUserID       uuid.UUID `json:"appeal_user_id"`

	AppealExplanation string     `json:"appeal_explanation"`
	AppealDecision    string     `json:"appeal_decision"`
	AppealDecidedBy   *uuid.UUID `json:"appeal_decided_by,omitempty"`

	AppealSubmittedAt time.Time  `json:"appeal_submitted_at"`
	AppealDecidedAt   *time.Time `json:"appeal_decided_at,omitempty"`
}

/* =========================================================
   3) MAPPERS
========================================================= */

func FromSuspensionModel(m *model.SuspensionModel) SuspensionResponse {
	return SuspensionResponse{
		SuspensionID:       m.SuspensionID,
		SuspensionUserID:   m.SuspensionUserID,
		SuspensionCourseID: m.SuspensionCourseID,
		SuspensionModuleID: m.SuspensionModuleID,

		SuspensionReason: m.SuspensionReason,
		SuspensionStatus: m.SuspensionStatus.String(),

		SuspensionSuspendedAt:    m.SuspensionSuspendedAt,
		SuspensionAppealDeadline: m.SuspensionAppealDeadline,
	}
}

func FromSuspensionModels(rows []model.SuspensionModel) []SuspensionResponse {
	out := make([]SuspensionResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromSuspensionModel(&rows[i]))
	}
	return out
}

func FromAppealModel(m *model.AppealModel) AppealResponse {
	return AppealResponse{
		AppealID:           m.AppealID,
		AppealSuspensionID: m.AppealSuspensionID,
		AppealUserID:       m.AppealUserID,

		AppealExplanation: m.AppealExplanation,
		AppealDecision:    m.AppealDecision.String(),
		AppealDecidedBy:   m.AppealDecidedBy,

		AppealSubmittedAt: m.AppealSubmittedAt,
		AppealDecidedAt:   m.AppealDecidedAt,
	}
}

func FromAppealModels(rows []model.AppealModel) []AppealResponse {
	out := make([]AppealResponse, 0, len(rows))
	for i := range rows {
		out = append(out, FromAppealModel(&rows[i]))
	}
	return out
}
