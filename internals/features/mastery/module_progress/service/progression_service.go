// file: internals/features/mastery/module_progress/service/progression_service.go
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"pelajarku_backend/internals/events"
	lmodel "pelajarku_backend/internals/features/mastery/lesson_scores/model"
	"pelajarku_backend/internals/features/mastery/module_progress/model"
	smodel "pelajarku_backend/internals/features/mastery/suspensions/model"
	ssvc "pelajarku_backend/internals/features/mastery/suspensions/service"
)

const maxRecomputeRetries = 3

// Bobot rubric kumulatif modul (beda dengan formula level lesson)
const (
	rubricLessonWeight     = 0.10
	rubricQuizWeight       = 0.30
	rubricAssignmentWeight = 0.40
	rubricFinalWeight      = 0.20
)

// RubricBreakdown disimpan sebagai JSON di module_progress untuk dashboard.
type RubricBreakdown struct {
	LessonAverage     float64  `json:"lesson_average"`
	QuizAverage       float64  `json:"quiz_average"`
	AssignmentAverage float64  `json:"assignment_average"`
	FinalScore        float64  `json:"final_score"`
	Cumulative        float64  `json:"cumulative"`
	MissingTerms      []string `json:"missing_terms,omitempty"`
}

type pendingEvent struct {
	eventType string
	payload   map[string]interface{}
}

type ModuleProgressionService struct {
	DB          *gorm.DB
	Events      events.Publisher
	Attempts    *AttemptTracker
	Suspensions *ssvc.SuspensionService
}

func NewModuleProgressionService(db *gorm.DB, pub events.Publisher) *ModuleProgressionService {
	if pub == nil {
		pub = events.NewLogPublisher()
	}
	return &ModuleProgressionService{
		DB:          db,
		Events:      pub,
		Attempts:    NewAttemptTracker(db),
		Suspensions: ssvc.NewSuspensionService(db, pub),
	}
}

/* =========================================================
   ON GRADING EVENT
   Re-agregasi satu modul setelah sinyal apa pun (lesson scored, nilai quiz/
   assignment masuk, nilai asesmen terminal masuk). gradedFinal=true hanya
   untuk nilai asesmen terminal, itulah yang dihitung sebagai attempt.
========================================================= */

func (s *ModuleProgressionService) OnGradingEvent(
	ctx context.Context,
	userID, moduleID uuid.UUID,
	gradedFinal bool,
) (*model.ModuleProgressModel, error) {
	var lastErr error

	for try := 0; try < maxRecomputeRetries; try++ {
		progress, evts, err := s.recomputeOnce(ctx, userID, moduleID, gradedFinal)
		if err != nil {
			if errors.Is(err, ErrConcurrentModification) {
				lastErr = err
				continue // recompute deterministik → retry murah
			}
			return nil, err
		}
		s.publishAll(evts)
		return progress, nil
	}
	return nil, lastErr
}

func (s *ModuleProgressionService) recomputeOnce(
	ctx context.Context,
	userID, moduleID uuid.UUID,
	gradedFinal bool,
) (*model.ModuleProgressModel, []pendingEvent, error) {
	var (
		progress model.ModuleProgressModel
		evts     []pendingEvent
	)

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("module_progress_user_id = ? AND module_progress_module_id = ?",
			userID, moduleID).Take(&progress).Error; err != nil {
			return err
		}
		loadedVersion := progress.ModuleProgressVersion

		state := progress.ModuleProgressState
		if state.IsTerminal() {
			// Event telat untuk modul yang sudah selesai/terminated, abaikan.
			log.Printf("[ModuleProgressionService] Event diabaikan, modul sudah %s. user_id=%s module_id=%s",
				state, userID, moduleID)
			return nil
		}
		if state == model.ModuleStateSuspended || state == model.ModuleStateAppealed ||
			state == model.ModuleStateReinstated {
			log.Printf("[ModuleProgressionService] Event diabaikan, modul sedang %s. user_id=%s module_id=%s",
				state, userID, moduleID)
			return nil
		}
		if state == model.ModuleStateLocked {
			// Sinyal untuk modul terkunci = ordering bug di upstream
			log.Printf("[ModuleProgressionService] ❗ Sinyal untuk modul Locked (ordering bug upstream?). user_id=%s module_id=%s",
				userID, moduleID)
			return fmt.Errorf("%w: modul masih locked", model.ErrInvalidTransition)
		}

		// Aktivitas pertama: Unlocked → InProgress
		if state == model.ModuleStateUnlocked {
			if err := progress.Transition(model.ModuleStateInProgress); err != nil {
				return err
			}
		}

		cfg, err := model.GetCourseConfig(tx, progress.ModuleProgressCourseID)
		if err != nil {
			return err
		}

		breakdown, err := s.computeRubric(tx, userID, moduleID)
		if err != nil {
			return err
		}
		progress.ModuleProgressCumulativeScore = breakdown.Cumulative

		raw, err := json.Marshal(breakdown)
		if err != nil {
			return err
		}
		progress.ModuleProgressBreakdown = datatypes.JSON(raw)

		switch {
		case breakdown.Cumulative >= cfg.CourseConfigPassThreshold &&
			progress.ModuleProgressState == model.ModuleStateInProgress:
			// LULUS: Completed + unlock modul berikutnya
			if err := progress.Transition(model.ModuleStateCompleted); err != nil {
				return err
			}
			if err := saveProgressGuarded(tx, &progress, loadedVersion); err != nil {
				return err
			}
			evts = append(evts, pendingEvent{events.EventModuleCompleted, map[string]interface{}{
				"user_id":          userID,
				"module_id":        moduleID,
				"cumulative_score": breakdown.Cumulative,
			}})

			unlockEvts, err := s.unlockNextModule(tx, &progress, cfg)
			if err != nil {
				return err
			}
			evts = append(evts, unlockEvts...)
			return nil

		case gradedFinal:
			// Attempt asli: hitung dulu, baru tentukan nasib
			remaining, err := s.Attempts.RecordAttempt(ctx, tx, userID, moduleID)
			if errors.Is(err, ErrAttemptsExhausted) {
				// Rute suspension, bukan error user
				if progress.ModuleProgressState == model.ModuleStateInProgress {
					if err := progress.Transition(model.ModuleStateFailed); err != nil {
						return err
					}
				}
				if err := progress.Transition(model.ModuleStateSuspended); err != nil {
					return err
				}
				if err := saveProgressGuarded(tx, &progress, loadedVersion); err != nil {
					return err
				}
				susp, err := s.Suspensions.Suspend(ctx, tx,
					userID, progress.ModuleProgressCourseID, moduleID,
					smodel.SuspensionReasonAttemptsExhausted)
				if err != nil {
					// DuplicateSuspension berarti event exhaustion kembar sudah
					// menang duluan, jangan penalti dobel.
					if errors.Is(err, ssvc.ErrDuplicateSuspension) {
						log.Printf("[ModuleProgressionService] Suspension sudah ada, skip. user_id=%s module_id=%s",
							userID, moduleID)
						return nil
					}
					return err
				}
				evts = append(evts, pendingEvent{events.EventModuleSuspended, map[string]interface{}{
					"user_id":   userID,
					"module_id": moduleID,
					"reason":    "attempts_exhausted",
				}})
				// window_opened baru keluar setelah commit, bareng event lain
				evts = append(evts, pendingEvent{events.EventAppealWindowOpened, map[string]interface{}{
					"suspension_id":   susp.SuspensionID,
					"user_id":         userID,
					"module_id":       moduleID,
					"appeal_deadline": susp.SuspensionAppealDeadline,
				}})
				return nil
			}
			if err != nil {
				return err
			}
			// Sinkronkan counter in-memory dengan hasil increment di SQL,
			// supaya response dan payload event tidak basi satu attempt.
			progress.ModuleProgressAttemptsCount = progress.ModuleProgressMaxAttempts - remaining

			// Gagal tapi attempt masih ada → Failed (retake boleh)
			if progress.ModuleProgressState == model.ModuleStateInProgress {
				if err := progress.Transition(model.ModuleStateFailed); err != nil {
					return err
				}
			}
			if err := saveProgressGuarded(tx, &progress, loadedVersion); err != nil {
				return err
			}
			evts = append(evts, pendingEvent{events.EventModuleFailed, map[string]interface{}{
				"user_id":            userID,
				"module_id":          moduleID,
				"cumulative_score":   breakdown.Cumulative,
				"remaining_attempts": remaining,
			}})
			return nil

		default:
			// Sinyal biasa, belum lulus → tetap InProgress/Failed
			return saveProgressGuarded(tx, &progress, loadedVersion)
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return &progress, evts, nil
}

/* =========================================================
   RUBRIC KUMULATIF
   lesson-average 10% + quiz-average 30% + assignment-average 40% +
   final-assessment 20%. Term yang belum ada = 0 + warning, bukan fatal.
========================================================= */

func (s *ModuleProgressionService) computeRubric(
	tx *gorm.DB,
	userID, moduleID uuid.UUID,
) (*RubricBreakdown, error) {
	b := &RubricBreakdown{}

	// 1) Rata-rata skor lesson modul ini
	var lessons []lmodel.LessonCompletionModel
	if err := tx.Where("lesson_completion_user_id = ? AND lesson_completion_module_id = ?",
		userID, moduleID).Find(&lessons).Error; err != nil {
		return nil, err
	}
	if len(lessons) == 0 {
		b.MissingTerms = append(b.MissingTerms, "lesson_average")
	} else {
		var sum float64
		for _, l := range lessons {
			sum += l.LessonCompletionScore
		}
		b.LessonAverage = sum / float64(len(lessons))
	}

	// 2) Nilai asesmen (exclude yang di-supersede oleh retake)
	var grades []lmodel.AssessmentGradeModel
	if err := tx.Where("assessment_grade_user_id = ? AND assessment_grade_module_id = ? AND assessment_grade_superseded = ?",
		userID, moduleID, false).Find(&grades).Error; err != nil {
		return nil, err
	}

	bestQuiz := map[uuid.UUID]float64{}
	latestAssignment := map[uuid.UUID]lmodel.AssessmentGradeModel{}
	var finalGrades []lmodel.AssessmentGradeModel

	for _, g := range grades {
		if g.AssessmentGradeIsFinal {
			finalGrades = append(finalGrades, g)
			continue
		}
		switch g.AssessmentGradeType {
		case lmodel.AssessmentTypeQuiz:
			// quiz dihitung dari nilai terbaik
			if cur, ok := bestQuiz[g.AssessmentGradeAssessmentID]; !ok || g.AssessmentGradeScorePct > cur {
				bestQuiz[g.AssessmentGradeAssessmentID] = g.AssessmentGradeScorePct
			}
		case lmodel.AssessmentTypeAssignment:
			// assignment dihitung dari nilai terakhir
			if cur, ok := latestAssignment[g.AssessmentGradeAssessmentID]; !ok ||
				g.AssessmentGradeGradedAt.After(cur.AssessmentGradeGradedAt) {
				latestAssignment[g.AssessmentGradeAssessmentID] = g
			}
		}
	}

	if len(bestQuiz) == 0 {
		b.MissingTerms = append(b.MissingTerms, "quiz_average")
	} else {
		var sum float64
		for _, v := range bestQuiz {
			sum += v
		}
		b.QuizAverage = sum / float64(len(bestQuiz))
	}

	if len(latestAssignment) == 0 {
		b.MissingTerms = append(b.MissingTerms, "assignment_average")
	} else {
		var sum float64
		for _, g := range latestAssignment {
			sum += g.AssessmentGradeScorePct
		}
		b.AssignmentAverage = sum / float64(len(latestAssignment))
	}

	if len(finalGrades) == 0 {
		b.MissingTerms = append(b.MissingTerms, "final_score")
	} else {
		sort.Slice(finalGrades, func(i, j int) bool {
			return finalGrades[i].AssessmentGradeGradedAt.After(finalGrades[j].AssessmentGradeGradedAt)
		})
		b.FinalScore = finalGrades[0].AssessmentGradeScorePct
	}

	if len(b.MissingTerms) > 0 {
		log.Printf("[WARN] [ModuleProgressionService] Term rubric belum ada (dihitung 0): %v user_id=%s module_id=%s",
			b.MissingTerms, userID, moduleID)
	}

	b.Cumulative = rubricLessonWeight*b.LessonAverage +
		rubricQuizWeight*b.QuizAverage +
		rubricAssignmentWeight*b.AssignmentAverage +
		rubricFinalWeight*b.FinalScore
	return b, nil
}

/* =========================================================
   UNLOCK MODUL BERIKUTNYA
========================================================= */

func (s *ModuleProgressionService) unlockNextModule(
	tx *gorm.DB,
	completed *model.ModuleProgressModel,
	cfg *model.CourseConfigModel,
) ([]pendingEvent, error) {
	nextPos := completed.ModuleProgressPosition + 1
	userID := completed.ModuleProgressUserID
	courseID := completed.ModuleProgressCourseID

	var nextCatalog model.CourseModuleModel
	err := tx.Where("course_module_course_id = ? AND course_module_position = ?",
		courseID, nextPos).Take(&nextCatalog).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Modul terakhir → enrollment selesai
		log.Printf("[ModuleProgressionService] 🎉 Modul terakhir selesai, enrollment completed. user_id=%s course_id=%s",
			userID, courseID)
		return nil, tx.Model(&model.EnrollmentModel{}).
			Where("enrollment_user_id = ? AND enrollment_course_id = ? AND enrollment_status = ?",
				userID, courseID, model.EnrollmentActive).
			Update("enrollment_status", model.EnrollmentCompleted).Error
	}
	if err != nil {
		return nil, err
	}

	var next model.ModuleProgressModel
	err = tx.Where("module_progress_user_id = ? AND module_progress_module_id = ?",
		userID, nextCatalog.CourseModuleModuleID).Take(&next).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		next = model.ModuleProgressModel{
			ModuleProgressUserID:      userID,
			ModuleProgressCourseID:    courseID,
			ModuleProgressModuleID:    nextCatalog.CourseModuleModuleID,
			ModuleProgressPosition:    nextPos,
			ModuleProgressMaxAttempts: cfg.CourseConfigMaxAttempts,
			ModuleProgressState:       model.ModuleStateLocked,
		}
		if err := next.Transition(model.ModuleStateUnlocked); err != nil {
			return nil, err
		}
		if err := tx.Create(&next).Error; err != nil {
			return nil, err
		}
	case err != nil:
		return nil, err
	default:
		if next.ModuleProgressState != model.ModuleStateLocked {
			// sudah pernah di-unlock (mis. re-complete setelah appeal), no-op
			return nil, nil
		}
		if err := next.Transition(model.ModuleStateUnlocked); err != nil {
			return nil, err
		}
		if err := tx.Save(&next).Error; err != nil {
			return nil, err
		}
	}

	return []pendingEvent{{events.EventModuleUnlocked, map[string]interface{}{
		"user_id":   userID,
		"module_id": nextCatalog.CourseModuleModuleID,
		"position":  nextPos,
	}}}, nil
}

/* =========================================================
   RETAKE
   Failed → InProgress; reset nilai sesuai policy course.
========================================================= */

func (s *ModuleProgressionService) StartRetake(
	ctx context.Context,
	userID, moduleID uuid.UUID,
) (*model.ModuleProgressModel, error) {
	var progress model.ModuleProgressModel

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("module_progress_user_id = ? AND module_progress_module_id = ?",
			userID, moduleID).Take(&progress).Error; err != nil {
			return err
		}
		loadedVersion := progress.ModuleProgressVersion

		if progress.RemainingAttempts() == 0 {
			return ErrAttemptsExhausted
		}
		if err := progress.Transition(model.ModuleStateInProgress); err != nil {
			return err
		}
		if err := saveProgressGuarded(tx, &progress, loadedVersion); err != nil {
			return err
		}

		cfg, err := model.GetCourseConfig(tx, progress.ModuleProgressCourseID)
		if err != nil {
			return err
		}

		// Nilai asesmen terminal selalu di-supersede saat retake
		q := tx.Model(&lmodel.AssessmentGradeModel{}).
			Where("assessment_grade_user_id = ? AND assessment_grade_module_id = ? AND assessment_grade_superseded = ?",
				userID, moduleID, false)
		if cfg.CourseConfigRetakeResetPolicy == model.RetakeResetAllComponents {
			// semua komponen asesmen modul ikut di-reset; skor lesson menyusul
			// di recompute sinyal berikutnya
			return q.Update("assessment_grade_superseded", true).Error
		}
		return q.Where("assessment_grade_is_final = ?", true).
			Update("assessment_grade_superseded", true).Error
	})
	if err != nil {
		return nil, err
	}

	log.Printf("[ModuleProgressionService] Retake dimulai. user_id=%s module_id=%s remaining=%d",
		userID, moduleID, progress.RemainingAttempts())
	return &progress, nil
}

/* =========================================================
   Internal helpers
========================================================= */

// saveProgressGuarded: write guarded versi (optimistic lock per key).
func saveProgressGuarded(tx *gorm.DB, progress *model.ModuleProgressModel, loadedVersion int) error {
	updates := map[string]interface{}{
		"module_progress_state":            progress.ModuleProgressState,
		"module_progress_cumulative_score": progress.ModuleProgressCumulativeScore,
		"module_progress_breakdown":        progress.ModuleProgressBreakdown,
		"module_progress_unlocked_at":      progress.ModuleProgressUnlockedAt,
		"module_progress_completed_at":     progress.ModuleProgressCompletedAt,
		"module_progress_version":          loadedVersion + 1,
	}
	res := tx.Model(&model.ModuleProgressModel{}).
		Where("module_progress_id = ? AND module_progress_version = ?",
			progress.ModuleProgressID, loadedVersion).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrConcurrentModification
	}
	progress.ModuleProgressVersion = loadedVersion + 1
	return nil
}

func (s *ModuleProgressionService) publishAll(evts []pendingEvent) {
	for _, e := range evts {
		if err := s.Events.Publish(e.eventType, e.payload); err != nil {
			log.Printf("[ModuleProgressionService] Gagal publish %s: %v", e.eventType, err)
		}
	}
}
