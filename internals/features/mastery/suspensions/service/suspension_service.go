// file: internals/features/mastery/suspensions/service/suspension_service.go
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pelajarku_backend/internals/events"
	pmodel "pelajarku_backend/internals/features/mastery/module_progress/model"
	smodel "pelajarku_backend/internals/features/mastery/suspensions/model"
)

var (
	// ErrDuplicateSuspension: sudah ada suspension aktif untuk (user, modul).
	// Mencegah penalti dobel saat dua event exhaustion balapan.
	ErrDuplicateSuspension = errors.New("suspension aktif sudah ada untuk user dan modul ini")

	// ErrAppealWindowExpired: banding diajukan setelah deadline; tidak ada
	// perubahan state apa pun.
	ErrAppealWindowExpired = errors.New("window banding sudah berakhir")

	// ErrAppealAlreadyExists: masih ada banding pending untuk suspension ini.
	ErrAppealAlreadyExists = errors.New("banding masih pending untuk suspension ini")

	// ErrAppealNotPending: keputusan hanya bisa diambil atas banding pending.
	ErrAppealNotPending = errors.New("banding sudah diputus")
)

type SuspensionService struct {
	DB     *gorm.DB
	Events events.Publisher
}

func NewSuspensionService(db *gorm.DB, pub events.Publisher) *SuspensionService {
	if pub == nil {
		pub = events.NewLogPublisher()
	}
	return &SuspensionService{DB: db, Events: pub}
}

/* =========================================================
   SUSPEND
   Dipanggil progression saat attempt habis. Check-then-create dijalankan
   dalam satu transaksi supaya invariant "1 suspension aktif per (user,modul)"
   tetap terjaga saat dua event exhaustion datang bersamaan.
========================================================= */

func (s *SuspensionService) Suspend(
	ctx context.Context,
	tx *gorm.DB,
	userID, courseID, moduleID uuid.UUID,
	reason string,
) (*smodel.SuspensionModel, error) {
	var created *smodel.SuspensionModel

	run := func(tx *gorm.DB) error {
		// Guard duplikat (DDL produksi juga pasang partial unique index)
		var existing smodel.SuspensionModel
		err := tx.Where(
			"suspension_user_id = ? AND suspension_module_id = ? AND suspension_status <> ?",
			userID, moduleID, smodel.SuspensionResolved,
		).Take(&existing).Error
		if err == nil {
			return ErrDuplicateSuspension
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		cfg, err := pmodel.GetCourseConfig(tx, courseID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		susp := &smodel.SuspensionModel{
			SuspensionUserID:         userID,
			SuspensionCourseID:       courseID,
			SuspensionModuleID:       moduleID,
			SuspensionReason:         reason,
			SuspensionStatus:         smodel.SuspensionActive,
			SuspensionSuspendedAt:    now,
			SuspensionAppealDeadline: now.AddDate(0, 0, cfg.CourseConfigAppealWindowDays),
		}
		if err := tx.Create(susp).Error; err != nil {
			return err
		}

		// Enrollment ikut tersuspensi
		if err := tx.Model(&pmodel.EnrollmentModel{}).
			Where("enrollment_user_id = ? AND enrollment_course_id = ?", userID, courseID).
			Update("enrollment_status", pmodel.EnrollmentSuspended).Error; err != nil {
			return err
		}

		created = susp
		return nil
	}

	// Saat dipanggil dengan tx milik caller, caller yang pegang batas commit
	// dan publish appeal.window_opened setelahnya. Event tidak boleh keluar
	// untuk suspension yang belum tentu ter-persist.
	if tx != nil {
		if err := run(tx); err != nil {
			return nil, err
		}
		log.Printf("[SuspensionService] Suspension dibuat. user_id=%s module_id=%s reason=%s deadline=%s",
			userID, moduleID, reason, created.SuspensionAppealDeadline)
		return created, nil
	}

	if err := s.DB.WithContext(ctx).Transaction(run); err != nil {
		return nil, err
	}

	log.Printf("[SuspensionService] Suspension dibuat. user_id=%s module_id=%s reason=%s deadline=%s",
		userID, moduleID, reason, created.SuspensionAppealDeadline)

	if err := s.Events.Publish(events.EventAppealWindowOpened, map[string]interface{}{
		"suspension_id":   created.SuspensionID,
		"user_id":         userID,
		"module_id":       moduleID,
		"appeal_deadline": created.SuspensionAppealDeadline,
	}); err != nil {
		log.Printf("[SuspensionService] Gagal publish appeal.window_opened: %v", err)
	}

	return created, nil
}

/* =========================================================
   SUBMIT APPEAL
========================================================= */

func (s *SuspensionService) SubmitAppeal(
	ctx context.Context,
	suspensionID, userID uuid.UUID,
	explanation string,
) (*smodel.AppealModel, error) {
	var appeal *smodel.AppealModel

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var susp smodel.SuspensionModel
		if err := tx.Where("suspension_id = ? AND suspension_user_id = ?", suspensionID, userID).
			Take(&susp).Error; err != nil {
			return err
		}
		if susp.SuspensionStatus == smodel.SuspensionResolved {
			return ErrAppealNotPending
		}

		// Deadline adalah data check, bukan timer: tepat di deadline masih boleh.
		if susp.WindowExpired(time.Now().UTC()) {
			return ErrAppealWindowExpired
		}

		// Guard banding dobel
		var pending smodel.AppealModel
		err := tx.Where("appeal_suspension_id = ? AND appeal_decision = ?", suspensionID, smodel.AppealPending).
			Take(&pending).Error
		if err == nil {
			return ErrAppealAlreadyExists
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		appeal = &smodel.AppealModel{
			AppealSuspensionID: suspensionID,
			AppealUserID:       userID,
			AppealExplanation:  explanation,
			AppealDecision:     smodel.AppealPending,
			AppealSubmittedAt:  time.Now().UTC(),
		}
		if err := tx.Create(appeal).Error; err != nil {
			return err
		}

		if err := tx.Model(&smodel.SuspensionModel{}).
			Where("suspension_id = ?", suspensionID).
			Update("suspension_status", smodel.SuspensionAppealed).Error; err != nil {
			return err
		}

		// ModuleProgress: Suspended → Appealed
		var progress pmodel.ModuleProgressModel
		if err := tx.Where("module_progress_user_id = ? AND module_progress_module_id = ?",
			susp.SuspensionUserID, susp.SuspensionModuleID).Take(&progress).Error; err != nil {
			return err
		}
		if err := progress.Transition(pmodel.ModuleStateAppealed); err != nil {
			log.Printf("[SuspensionService] InvalidTransition saat appeal (kemungkinan ordering bug upstream): %v", err)
			return err
		}
		return tx.Save(&progress).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[SuspensionService] Banding diajukan. suspension_id=%s appeal_id=%s", suspensionID, appeal.AppealID)
	return appeal, nil
}

/* =========================================================
   RESOLVE APPEAL (reviewer collaborator)
   approved : reset attempts, enrollment aktif lagi, modul Unlocked
   denied   : modul Terminated, enrollment tetap suspended
========================================================= */

func (s *SuspensionService) ResolveAppeal(
	ctx context.Context,
	appealID uuid.UUID,
	decision smodel.AppealDecision,
	reviewerID uuid.UUID,
) (*smodel.AppealModel, error) {
	if decision != smodel.AppealApproved && decision != smodel.AppealDenied {
		return nil, errors.New("decision harus approved atau denied")
	}

	var (
		appeal   smodel.AppealModel
		approved bool
		susp     smodel.SuspensionModel
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("appeal_id = ?", appealID).Take(&appeal).Error; err != nil {
			return err
		}
		if !appeal.IsPending() {
			return ErrAppealNotPending
		}

		if err := tx.Where("suspension_id = ?", appeal.AppealSuspensionID).Take(&susp).Error; err != nil {
			return err
		}

		var progress pmodel.ModuleProgressModel
		if err := tx.Where("module_progress_user_id = ? AND module_progress_module_id = ?",
			susp.SuspensionUserID, susp.SuspensionModuleID).Take(&progress).Error; err != nil {
			return err
		}

		now := time.Now().UTC()
		appeal.AppealDecision = decision
		appeal.AppealDecidedAt = &now
		appeal.AppealDecidedBy = &reviewerID
		if err := tx.Save(&appeal).Error; err != nil {
			return err
		}

		susp.SuspensionStatus = smodel.SuspensionResolved
		if err := tx.Save(&susp).Error; err != nil {
			return err
		}

		if decision == smodel.AppealApproved {
			approved = true
			// Appealed → Reinstated → Unlocked, attempt di-reset
			if err := progress.Transition(pmodel.ModuleStateReinstated); err != nil {
				return err
			}
			if err := progress.Transition(pmodel.ModuleStateUnlocked); err != nil {
				return err
			}
			progress.ModuleProgressAttemptsCount = 0
			if err := tx.Save(&progress).Error; err != nil {
				return err
			}

			return tx.Model(&pmodel.EnrollmentModel{}).
				Where("enrollment_user_id = ? AND enrollment_course_id = ?",
					susp.SuspensionUserID, susp.SuspensionCourseID).
				Update("enrollment_status", pmodel.EnrollmentActive).Error
		}

		// denied: enrollment tetap suspended, modul terminated
		if err := progress.Transition(pmodel.ModuleStateTerminated); err != nil {
			return err
		}
		return tx.Save(&progress).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[SuspensionService] Banding diputus. appeal_id=%s decision=%s reviewer=%s",
		appealID, decision, reviewerID)

	if err := s.Events.Publish(events.EventAppealResolved, map[string]interface{}{
		"appeal_id":     appeal.AppealID,
		"suspension_id": appeal.AppealSuspensionID,
		"decision":      decision,
	}); err != nil {
		log.Printf("[SuspensionService] Gagal publish appeal.resolved: %v", err)
	}
	if approved {
		if err := s.Events.Publish(events.EventModuleUnlocked, map[string]interface{}{
			"user_id":   susp.SuspensionUserID,
			"module_id": susp.SuspensionModuleID,
			"reason":    "appeal_approved",
		}); err != nil {
			log.Printf("[SuspensionService] Gagal publish module.unlocked: %v", err)
		}
	}

	return &appeal, nil
}
