// file: internals/features/mastery/module_progress/service/enrollment_service.go
package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pelajarku_backend/internals/events"
	"pelajarku_backend/internals/features/mastery/module_progress/model"
)

var (
	// ErrAlreadyEnrolled: enrollment untuk (user, course) sudah ada.
	ErrAlreadyEnrolled = errors.New("user sudah terdaftar di course ini")

	// ErrCourseEmpty: katalog course belum punya modul, tidak bisa enroll.
	ErrCourseEmpty = errors.New("course belum punya modul")
)

type EnrollmentService struct {
	DB     *gorm.DB
	Events events.Publisher
}

func NewEnrollmentService(db *gorm.DB, pub events.Publisher) *EnrollmentService {
	if pub == nil {
		pub = events.NewLogPublisher()
	}
	return &EnrollmentService{DB: db, Events: pub}
}

/* =========================================================
   CREATE ENROLLMENT
   Materialisasi progress dari katalog: modul pertama Unlocked,
   sisanya Locked (unlock berurutan dijaga progression).
========================================================= */

func (s *EnrollmentService) CreateEnrollment(
	ctx context.Context,
	userID, courseID uuid.UUID,
) (*model.EnrollmentModel, error) {
	var (
		enrollment model.EnrollmentModel
		firstMod   uuid.UUID
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.EnrollmentModel
		err := tx.Where("enrollment_user_id = ? AND enrollment_course_id = ?", userID, courseID).
			Take(&existing).Error
		if err == nil {
			return ErrAlreadyEnrolled
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		var catalog []model.CourseModuleModel
		if err := tx.Where("course_module_course_id = ?", courseID).
			Order("course_module_position ASC").
			Find(&catalog).Error; err != nil {
			return err
		}
		if len(catalog) == 0 {
			return ErrCourseEmpty
		}

		cfg, err := model.GetCourseConfig(tx, courseID)
		if err != nil {
			return err
		}

		enrollment = model.EnrollmentModel{
			EnrollmentUserID:   userID,
			EnrollmentCourseID: courseID,
			EnrollmentStatus:   model.EnrollmentActive,
		}
		if err := tx.Create(&enrollment).Error; err != nil {
			return err
		}

		for i, cm := range catalog {
			progress := model.ModuleProgressModel{
				ModuleProgressUserID:      userID,
				ModuleProgressCourseID:    courseID,
				ModuleProgressModuleID:    cm.CourseModuleModuleID,
				ModuleProgressPosition:    cm.CourseModulePosition,
				ModuleProgressMaxAttempts: cfg.CourseConfigMaxAttempts,
				ModuleProgressState:       model.ModuleStateLocked,
			}
			if i == 0 {
				if err := progress.Transition(model.ModuleStateUnlocked); err != nil {
					return err
				}
				firstMod = cm.CourseModuleModuleID
			}
			if err := tx.Create(&progress).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[EnrollmentService] ✅ Enrollment dibuat. user_id=%s course_id=%s", userID, courseID)

	if err := s.Events.Publish(events.EventModuleUnlocked, map[string]interface{}{
		"user_id":   userID,
		"module_id": firstMod,
		"position":  1,
	}); err != nil {
		log.Printf("[EnrollmentService] Gagal publish module.unlocked: %v", err)
	}

	return &enrollment, nil
}

/* =========================================================
   QUERIES (dashboard learner)
========================================================= */

func (s *EnrollmentService) ListModuleProgress(
	ctx context.Context,
	userID uuid.UUID,
	courseID *uuid.UUID,
) ([]model.ModuleProgressModel, error) {
	q := s.DB.WithContext(ctx).Where("module_progress_user_id = ?", userID)
	if courseID != nil {
		q = q.Where("module_progress_course_id = ?", *courseID)
	}

	var rows []model.ModuleProgressModel
	if err := q.Order("module_progress_position ASC").Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *EnrollmentService) GetModuleProgress(
	ctx context.Context,
	userID, moduleID uuid.UUID,
) (*model.ModuleProgressModel, error) {
	var row model.ModuleProgressModel
	if err := s.DB.WithContext(ctx).
		Where("module_progress_user_id = ? AND module_progress_module_id = ?", userID, moduleID).
		Take(&row).Error; err != nil {
		return nil, err
	}
	return &row, nil
}
