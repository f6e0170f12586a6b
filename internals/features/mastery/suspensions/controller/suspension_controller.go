// file: internals/features/mastery/suspensions/controller/suspension_controller.go
package controller

import (
	"context"
	"errors"
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	helper "pelajarku_backend/internals/helpers"
	helperAuth "pelajarku_backend/internals/helpers/auth"

	"pelajarku_backend/internals/events"
	pmodel "pelajarku_backend/internals/features/mastery/module_progress/model"
	"pelajarku_backend/internals/features/mastery/suspensions/dto"
	"pelajarku_backend/internals/features/mastery/suspensions/model"
	"pelajarku_backend/internals/features/mastery/suspensions/service"
)

/* =======================================================
   CONTROLLER
   ======================================================= */

type SuspensionController struct {
	DB       *gorm.DB
	Validate *validator.Validate

	Suspensions *service.SuspensionService
}

func NewSuspensionController(db *gorm.DB, v *validator.Validate, pub events.Publisher) *SuspensionController {
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	return &SuspensionController{
		DB:          db,
		Validate:    v,
		Suspensions: service.NewSuspensionService(db, pub),
	}
}

func (ctl *SuspensionController) ensureValidator() {
	if ctl.Validate == nil {
		ctl.Validate = validator.New(validator.WithRequiredStructEnabled())
	}
}

func reqCtx(c *fiber.Ctx) context.Context {
	if uc := c.UserContext(); uc != nil {
		return uc
	}
	return context.Background()
}

/* =======================================================
   ROUTES - learner
   ======================================================= */

// GET /api/u/mastery/suspensions
func (ctl *SuspensionController) ListMySuspensions(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromLocals(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	var rows []model.SuspensionModel
	if err := ctl.DB.WithContext(reqCtx(c)).
		Where("suspension_user_id = ?", userID).
		Order("suspension_suspended_at DESC").
		Find(&rows).Error; err != nil {
		log.Printf("[SuspensionController] Gagal list suspension: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	return helper.JsonOK(c, "ok", dto.FromSuspensionModels(rows))
}

// POST /api/u/mastery/suspensions/:suspension_id/appeals
func (ctl *SuspensionController) PostAppeal(c *fiber.Ctx) error {
	ctl.ensureValidator()

	userID, err := helperAuth.GetUserIDFromLocals(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	suspensionID, err := uuid.Parse(c.Params("suspension_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "suspension_id tidak valid")
	}

	var req dto.SubmitAppealRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	appeal, err := ctl.Suspensions.SubmitAppeal(reqCtx(c), suspensionID, userID, req.AppealExplanation)
	if err != nil {
		return ctl.appealError(c, err)
	}

	return helper.JsonCreated(c, "Banding diajukan", dto.FromAppealModel(appeal))
}

/* =======================================================
   ROUTES - admin (reviewer)
   ======================================================= */

// GET /api/a/mastery/suspensions?status=
func (ctl *SuspensionController) ListSuspensions(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)

	q := ctl.DB.WithContext(reqCtx(c)).Model(&model.SuspensionModel{})
	if status := c.Query("status"); status != "" {
		q = q.Where("suspension_status = ?", status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		log.Printf("[SuspensionController] Gagal hitung suspension: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	var rows []model.SuspensionModel
	if err := q.Order("suspension_suspended_at DESC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error; err != nil {
		log.Printf("[SuspensionController] Gagal list suspension: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	return helper.JsonList(c, "ok", dto.FromSuspensionModels(rows),
		helper.BuildPaginationFromPage(total, p.Page, p.PerPage))
}

// GET /api/a/mastery/appeals?decision=
func (ctl *SuspensionController) ListAppeals(c *fiber.Ctx) error {
	p := helper.ResolvePaging(c, 20, 100)

	q := ctl.DB.WithContext(reqCtx(c)).Model(&model.AppealModel{})
	if decision := c.Query("decision"); decision != "" {
		q = q.Where("appeal_decision = ?", decision)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		log.Printf("[SuspensionController] Gagal hitung appeal: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	var rows []model.AppealModel
	if err := q.Order("appeal_submitted_at ASC").
		Offset(p.Offset).Limit(p.Limit).
		Find(&rows).Error; err != nil {
		log.Printf("[SuspensionController] Gagal list appeal: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	return helper.JsonList(c, "ok", dto.FromAppealModels(rows),
		helper.BuildPaginationFromPage(total, p.Page, p.PerPage))
}

// PATCH /api/a/mastery/appeals/:appeal_id/decision
func (ctl *SuspensionController) PatchAppealDecision(c *fiber.Ctx) error {
	ctl.ensureValidator()

	reviewerID, err := helperAuth.GetUserIDFromLocals(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	appealID, err := uuid.Parse(c.Params("appeal_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "appeal_id tidak valid")
	}

	var req dto.DecideAppealRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	appeal, err := ctl.Suspensions.ResolveAppeal(reqCtx(c), appealID,
		model.AppealDecision(req.AppealDecision), reviewerID)
	if err != nil {
		return ctl.appealError(c, err)
	}

	return helper.JsonUpdated(c, "Banding diputus", dto.FromAppealModel(appeal))
}

/* =======================================================
   Error mapping
   ======================================================= */

func (ctl *SuspensionController) appealError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Data tidak ditemukan")
	case errors.Is(err, service.ErrAppealWindowExpired):
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAppealAlreadyExists):
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAppealNotPending):
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrDuplicateSuspension):
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, pmodel.ErrInvalidTransition):
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	default:
		log.Printf("[SuspensionController] Internal error: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Terjadi kesalahan internal")
	}
}
