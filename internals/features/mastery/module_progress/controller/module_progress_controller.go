// file: internals/features/mastery/module_progress/controller/module_progress_controller.go
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
	"pelajarku_backend/internals/features/mastery/module_progress/dto"
	"pelajarku_backend/internals/features/mastery/module_progress/model"
	"pelajarku_backend/internals/features/mastery/module_progress/service"
)

/* =======================================================
   CONTROLLER
   ======================================================= */

type ModuleProgressController struct {
	DB       *gorm.DB
	Validate *validator.Validate

	Enrollments *service.EnrollmentService
	Progression *service.ModuleProgressionService
}

func NewModuleProgressController(db *gorm.DB, v *validator.Validate, pub events.Publisher) *ModuleProgressController {
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	return &ModuleProgressController{
		DB:          db,
		Validate:    v,
		Enrollments: service.NewEnrollmentService(db, pub),
		Progression: service.NewModuleProgressionService(db, pub),
	}
}

func (ctl *ModuleProgressController) ensureValidator() {
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

// GET /api/u/mastery/modules?course_id=
func (ctl *ModuleProgressController) ListModules(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromLocals(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	var courseID *uuid.UUID
	if raw := c.Query("course_id"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return helper.JsonError(c, fiber.StatusBadRequest, "course_id tidak valid")
		}
		courseID = &id
	}

	rows, err := ctl.Enrollments.ListModuleProgress(reqCtx(c), userID, courseID)
	if err != nil {
		log.Printf("[ModuleProgressController] Gagal list modul: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	return helper.JsonOK(c, "ok", dto.FromModuleProgressModels(rows))
}

// GET /api/u/mastery/modules/:module_id
func (ctl *ModuleProgressController) GetModule(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromLocals(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	moduleID, err := uuid.Parse(c.Params("module_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "module_id tidak valid")
	}

	row, err := ctl.Enrollments.GetModuleProgress(reqCtx(c), userID, moduleID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "Progress modul tidak ditemukan")
	}
	if err != nil {
		log.Printf("[ModuleProgressController] Gagal ambil modul: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	return helper.JsonOK(c, "ok", dto.FromModuleProgressModel(row))
}

// POST /api/u/mastery/modules/:module_id/retake
func (ctl *ModuleProgressController) PostRetake(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromLocals(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	moduleID, err := uuid.Parse(c.Params("module_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "module_id tidak valid")
	}

	progress, err := ctl.Progression.StartRetake(reqCtx(c), userID, moduleID)
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Progress modul tidak ditemukan")
	case errors.Is(err, service.ErrAttemptsExhausted):
		return helper.JsonError(c, fiber.StatusConflict, "Attempt sudah habis, tidak bisa retake")
	case errors.Is(err, model.ErrInvalidTransition):
		return helper.JsonError(c, fiber.StatusConflict, "Retake hanya bisa dari state Failed")
	case err != nil:
		log.Printf("[ModuleProgressController] Gagal mulai retake: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Terjadi kesalahan internal")
	}

	return helper.JsonOK(c, "Retake dimulai", dto.FromModuleProgressModel(progress))
}

/* =======================================================
   ROUTES - admin
   ======================================================= */

// POST /api/a/mastery/enrollments
func (ctl *ModuleProgressController) PostEnrollment(c *fiber.Ctx) error {
	ctl.ensureValidator()

	var req dto.CreateEnrollmentRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	enrollment, err := ctl.Enrollments.CreateEnrollment(reqCtx(c),
		req.EnrollmentUserID, req.EnrollmentCourseID)
	switch {
	case errors.Is(err, service.ErrAlreadyEnrolled):
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrCourseEmpty):
		return helper.JsonError(c, fiber.StatusUnprocessableEntity, err.Error())
	case err != nil:
		log.Printf("[ModuleProgressController] Gagal buat enrollment: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Terjadi kesalahan internal")
	}

	return helper.JsonCreated(c, "Enrollment dibuat", dto.FromEnrollmentModel(enrollment))
}
