// file: internals/features/mastery/lesson_scores/controller/lesson_score_controller.go
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
	"pelajarku_backend/internals/features/mastery/lesson_scores/dto"
	"pelajarku_backend/internals/features/mastery/lesson_scores/service"
	pmodel "pelajarku_backend/internals/features/mastery/module_progress/model"
	psvc "pelajarku_backend/internals/features/mastery/module_progress/service"
)

/* =======================================================
   CONTROLLER
   ======================================================= */

type LessonScoreController struct {
	DB       *gorm.DB
	Validate *validator.Validate

	Scores *service.LessonScoreService
	Intake *service.GradeIntakeService
}

func NewLessonScoreController(db *gorm.DB, v *validator.Validate, pub events.Publisher) *LessonScoreController {
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	return &LessonScoreController{
		DB:       db,
		Validate: v,
		Scores:   service.NewLessonScoreService(db, pub),
		Intake:   service.NewGradeIntakeService(db, pub),
	}
}

// jaga-jaga kalau controller di-init tanpa validator
func (ctl *LessonScoreController) ensureValidator() {
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

// POST /api/u/mastery/lessons/reading-progress
func (ctl *LessonScoreController) PostReadingProgress(c *fiber.Ctx) error {
	ctl.ensureValidator()

	userID, err := helperAuth.GetUserIDFromLocals(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	var req dto.ReadingProgressRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	lc, err := ctl.Scores.ApplyReadingProgress(reqCtx(c), service.LessonScope{
		UserID:   userID,
		CourseID: req.LessonCompletionCourseID,
		ModuleID: req.LessonCompletionModuleID,
		LessonID: req.LessonCompletionLessonID,
	}, req.ReadingPct)
	if err != nil {
		return ctl.scoreError(c, err)
	}

	return helper.JsonOK(c, "Skor lesson diperbarui", dto.FromLessonCompletionModel(lc))
}

// POST /api/u/mastery/lessons/engagement
func (ctl *LessonScoreController) PostEngagement(c *fiber.Ctx) error {
	ctl.ensureValidator()

	userID, err := helperAuth.GetUserIDFromLocals(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	var req dto.EngagementRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	lc, err := ctl.Scores.ApplyEngagement(reqCtx(c), service.LessonScope{
		UserID:   userID,
		CourseID: req.LessonCompletionCourseID,
		ModuleID: req.LessonCompletionModuleID,
		LessonID: req.LessonCompletionLessonID,
	}, req.EngagementPct)
	if err != nil {
		return ctl.scoreError(c, err)
	}

	return helper.JsonOK(c, "Skor lesson diperbarui", dto.FromLessonCompletionModel(lc))
}

// GET /api/u/mastery/lessons/:lesson_id/completion
func (ctl *LessonScoreController) GetCompletion(c *fiber.Ctx) error {
	userID, err := helperAuth.GetUserIDFromLocals(c)
	if err != nil {
		return helper.JsonError(c, fiber.StatusUnauthorized, err.Error())
	}

	lessonID, err := uuid.Parse(c.Params("lesson_id"))
	if err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "lesson_id tidak valid")
	}

	lc, err := ctl.Scores.GetCompletion(reqCtx(c), userID, lessonID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return helper.JsonError(c, fiber.StatusNotFound, "Belum ada progress untuk lesson ini")
	}
	if err != nil {
		log.Printf("[LessonScoreController] Gagal ambil completion: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Gagal mengambil data")
	}

	return helper.JsonOK(c, "ok", dto.FromLessonCompletionModel(lc))
}

/* =======================================================
   ROUTES - admin (intake nilai dari subsistem grading)
   ======================================================= */

// POST /api/a/mastery/grades
func (ctl *LessonScoreController) PostGrade(c *fiber.Ctx) error {
	ctl.ensureValidator()

	var req dto.CreateAssessmentGradeRequest
	if err := c.BodyParser(&req); err != nil {
		return helper.JsonError(c, fiber.StatusBadRequest, "Body tidak valid")
	}
	if err := ctl.Validate.Struct(req); err != nil {
		return helper.JsonValidationError(c, err)
	}

	grade, err := ctl.Intake.RecordGrade(reqCtx(c), req.ToModel())
	if err != nil {
		return ctl.scoreError(c, err)
	}

	return helper.JsonCreated(c, "Nilai tersimpan", dto.FromAssessmentGradeModel(grade))
}

/* =======================================================
   Error mapping
   ======================================================= */

func (ctl *LessonScoreController) scoreError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrInvalidPct):
		return helper.JsonError(c, fiber.StatusBadRequest, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		return helper.JsonError(c, fiber.StatusNotFound, "Progress modul tidak ditemukan (belum enroll?)")
	case errors.Is(err, pmodel.ErrInvalidTransition):
		return helper.JsonError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, psvc.ErrConcurrentModification):
		return helper.JsonError(c, fiber.StatusConflict, "Sinyal bentrok, silakan ulangi")
	default:
		log.Printf("[LessonScoreController] Internal error: %v", err)
		return helper.JsonError(c, fiber.StatusInternalServerError, "Terjadi kesalahan internal")
	}
}
