// file: internals/features/mastery/lesson_scores/service/lesson_score_service.go
package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pelajarku_backend/internals/events"
	"pelajarku_backend/internals/features/mastery/lesson_scores/model"
	pmodel "pelajarku_backend/internals/features/mastery/module_progress/model"
	psvc "pelajarku_backend/internals/features/mastery/module_progress/service"
)

var (
	// ErrInvalidPct: sinyal persentase di luar [0,100].
	ErrInvalidPct = errors.New("persentase harus di rentang 0-100")
)

const maxScoreRetries = 3

/* =========================================================
   LESSON SCORE CALCULATOR
   Satu sinyal masuk → recompute skor satu lesson → teruskan ke
   progression modul pemiliknya. Recompute deterministik terhadap
   komponen tersimpan, jadi aman diulang (idempoten).
========================================================= */

type LessonScoreService struct {
	DB          *gorm.DB
	Events      events.Publisher
	Progression *psvc.ModuleProgressionService
}

func NewLessonScoreService(db *gorm.DB, pub events.Publisher) *LessonScoreService {
	if pub == nil {
		pub = events.NewLogPublisher()
	}
	return &LessonScoreService{
		DB:          db,
		Events:      pub,
		Progression: psvc.NewModuleProgressionService(db, pub),
	}
}

// LessonScope mengidentifikasi satu (user, lesson) berikut modul & course
// pemiliknya. Producer sinyal selalu tahu keempatnya.
type LessonScope struct {
	UserID   uuid.UUID
	CourseID uuid.UUID
	ModuleID uuid.UUID
	LessonID uuid.UUID
}

// ApplyReadingProgress menyimpan persentase baca terakhir lalu recompute.
func (s *LessonScoreService) ApplyReadingProgress(
	ctx context.Context,
	scope LessonScope,
	pct float64,
) (*model.LessonCompletionModel, error) {
	if pct < 0 || pct > 100 {
		return nil, ErrInvalidPct
	}
	return s.recompute(ctx, scope, func(lc *model.LessonCompletionModel) {
		lc.LessonCompletionReadingPct = &pct
	})
}

// ApplyEngagement menyimpan persentase engagement terakhir lalu recompute.
func (s *LessonScoreService) ApplyEngagement(
	ctx context.Context,
	scope LessonScope,
	pct float64,
) (*model.LessonCompletionModel, error) {
	if pct < 0 || pct > 100 {
		return nil, ErrInvalidPct
	}
	return s.recompute(ctx, scope, func(lc *model.LessonCompletionModel) {
		lc.LessonCompletionEngagementPct = &pct
	})
}

// RecomputeFromGrades dipanggil intake nilai saat quiz/assignment lesson ini
// baru digrade. Tidak ada sinyal baru, cukup hitung ulang dari grade terbaru.
func (s *LessonScoreService) RecomputeFromGrades(
	ctx context.Context,
	scope LessonScope,
) (*model.LessonCompletionModel, error) {
	return s.recompute(ctx, scope, nil)
}

// GetCompletion untuk dashboard learner.
func (s *LessonScoreService) GetCompletion(
	ctx context.Context,
	userID, lessonID uuid.UUID,
) (*model.LessonCompletionModel, error) {
	var lc model.LessonCompletionModel
	if err := s.DB.WithContext(ctx).
		Where("lesson_completion_user_id = ? AND lesson_completion_lesson_id = ?", userID, lessonID).
		Take(&lc).Error; err != nil {
		return nil, err
	}
	return &lc, nil
}

/* =========================================================
   RECOMPUTE
========================================================= */

func (s *LessonScoreService) recompute(
	ctx context.Context,
	scope LessonScope,
	applySignal func(*model.LessonCompletionModel),
) (*model.LessonCompletionModel, error) {
	var (
		result  *model.LessonCompletionModel
		lastErr error
	)

	for try := 0; try < maxScoreRetries; try++ {
		lc, err := s.recomputeOnce(ctx, scope, applySignal)
		if err != nil {
			if errors.Is(err, psvc.ErrConcurrentModification) {
				lastErr = err
				continue
			}
			return nil, err
		}
		result = lc
		lastErr = nil
		break
	}
	if lastErr != nil {
		return nil, lastErr
	}

	if err := s.Events.Publish(events.EventLessonScored, map[string]interface{}{
		"user_id":   scope.UserID,
		"lesson_id": scope.LessonID,
		"module_id": scope.ModuleID,
		"score":     result.LessonCompletionScore,
		"status":    result.LessonCompletionStatus,
		"version":   result.LessonCompletionVersion,
	}); err != nil {
		log.Printf("[LessonScoreService] Gagal publish lesson.scored: %v", err)
	}

	// Teruskan ke agregasi modul (sinyal biasa, bukan attempt terminal)
	if _, err := s.Progression.OnGradingEvent(ctx, scope.UserID, scope.ModuleID, false); err != nil {
		// Skor lesson sudah tersimpan; agregasi modul akan menyusul di sinyal
		// berikutnya karena recompute idempoten.
		log.Printf("[LessonScoreService] Agregasi modul gagal (akan terkejar sinyal berikutnya): %v", err)
	}

	return result, nil
}

func (s *LessonScoreService) recomputeOnce(
	ctx context.Context,
	scope LessonScope,
	applySignal func(*model.LessonCompletionModel),
) (*model.LessonCompletionModel, error) {
	var lc model.LessonCompletionModel

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("lesson_completion_user_id = ? AND lesson_completion_lesson_id = ?",
			scope.UserID, scope.LessonID).Take(&lc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Sinyal pertama untuk lesson ini
			lc = model.LessonCompletionModel{
				LessonCompletionUserID:   scope.UserID,
				LessonCompletionCourseID: scope.CourseID,
				LessonCompletionModuleID: scope.ModuleID,
				LessonCompletionLessonID: scope.LessonID,
			}
			if err := tx.Create(&lc).Error; err != nil {
				// unique index kalah balapan dengan sinyal kembar → retry
				return psvc.ErrConcurrentModification
			}
		} else if err != nil {
			return err
		}
		loadedVersion := lc.LessonCompletionVersion

		if applySignal != nil {
			applySignal(&lc)
		}

		quiz, assignment, err := s.latestLessonGrades(tx, scope.UserID, scope.LessonID)
		if err != nil {
			return err
		}

		cfg, err := pmodel.GetCourseConfig(tx, scope.CourseID)
		if err != nil {
			return err
		}

		calculate(&lc, quiz, assignment, cfg.CourseConfigCompletionThreshold)

		now := time.Now().UTC()
		lc.LessonCompletionScoredAt = &now

		res := tx.Model(&model.LessonCompletionModel{}).
			Where("lesson_completion_id = ? AND lesson_completion_version = ?",
				lc.LessonCompletionID, loadedVersion).
			Updates(map[string]interface{}{
				"lesson_completion_reading_pct":          lc.LessonCompletionReadingPct,
				"lesson_completion_engagement_pct":       lc.LessonCompletionEngagementPct,
				"lesson_completion_reading_component":    lc.LessonCompletionReadingComponent,
				"lesson_completion_engagement_component": lc.LessonCompletionEngagementComponent,
				"lesson_completion_quiz_component":       lc.LessonCompletionQuizComponent,
				"lesson_completion_assignment_component": lc.LessonCompletionAssignmentComponent,
				"lesson_completion_score":                lc.LessonCompletionScore,
				"lesson_completion_status":               lc.LessonCompletionStatus,
				"lesson_completion_scored_at":            lc.LessonCompletionScoredAt,
				"lesson_completion_version":              loadedVersion + 1,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return psvc.ErrConcurrentModification
		}
		lc.LessonCompletionVersion = loadedVersion + 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &lc, nil
}

// latestLessonGrades mengambil quiz terbaik dan assignment terakhir untuk
// lesson ini (exclude yang di-supersede retake).
func (s *LessonScoreService) latestLessonGrades(
	tx *gorm.DB,
	userID, lessonID uuid.UUID,
) (quiz, assignment *model.AssessmentGradeModel, err error) {
	var grades []model.AssessmentGradeModel
	if err := tx.Where(
		"assessment_grade_user_id = ? AND assessment_grade_lesson_id = ? AND assessment_grade_superseded = ?",
		userID, lessonID, false,
	).Find(&grades).Error; err != nil {
		return nil, nil, err
	}

	for i := range grades {
		g := &grades[i]
		switch g.AssessmentGradeType {
		case model.AssessmentTypeQuiz:
			if quiz == nil || g.AssessmentGradeScorePct > quiz.AssessmentGradeScorePct {
				quiz = g
			}
		case model.AssessmentTypeAssignment:
			if assignment == nil || g.AssessmentGradeGradedAt.After(assignment.AssessmentGradeGradedAt) {
				assignment = g
			}
		}
	}
	return quiz, assignment, nil
}

/* =========================================================
   FORMULA
   Fungsi murni atas komponen tersimpan: input sama → skor sama.
========================================================= */

const (
	readingPenaltyThreshold    = 90.0
	readingPenaltyFactor       = 0.7
	engagementPenaltyThreshold = 60.0
	engagementPenaltyFactor    = 0.8
)

func calculate(
	lc *model.LessonCompletionModel,
	quiz, assignment *model.AssessmentGradeModel,
	completionThreshold float64,
) {
	hasQuiz := quiz != nil
	hasAssignment := assignment != nil
	w := SelectWeights(hasQuiz, hasAssignment)

	var missing []string
	if lc.LessonCompletionReadingPct == nil {
		missing = append(missing, "reading")
	}
	if lc.LessonCompletionEngagementPct == nil {
		missing = append(missing, "engagement")
	}
	if len(missing) > 0 {
		log.Printf("[WARN] [LessonScoreService] Sinyal komponen belum ada (dihitung 0): %v user_id=%s lesson_id=%s",
			missing, lc.LessonCompletionUserID, lc.LessonCompletionLessonID)
	}

	var raw float64
	assessmentFailed := false

	if lc.LessonCompletionReadingPct != nil {
		c := *lc.LessonCompletionReadingPct
		if c < readingPenaltyThreshold {
			c *= readingPenaltyFactor // penalti kurang baca
		}
		lc.LessonCompletionReadingComponent = &c
		raw += c * w.Reading
	}
	if lc.LessonCompletionEngagementPct != nil {
		c := *lc.LessonCompletionEngagementPct
		if c < engagementPenaltyThreshold {
			c *= engagementPenaltyFactor // penalti engagement rendah
		}
		lc.LessonCompletionEngagementComponent = &c
		raw += c * w.Engagement
	}
	if hasQuiz {
		c := 0.0
		if quiz.AssessmentGradePassed {
			c = quiz.AssessmentGradeScorePct
		} else {
			assessmentFailed = true
		}
		lc.LessonCompletionQuizComponent = &c
		raw += c * w.Quiz
	}
	if hasAssignment {
		c := 0.0
		if assignment.AssessmentGradePassed {
			c = assignment.AssessmentGradeScorePct
		} else {
			assessmentFailed = true
		}
		lc.LessonCompletionAssignmentComponent = &c
		raw += c * w.Assignment
	}

	if assessmentFailed && w.HasFailureCap && raw > w.FailureCap {
		raw = w.FailureCap
	}
	lc.LessonCompletionScore = raw

	if raw >= completionThreshold {
		lc.LessonCompletionStatus = model.LessonCompletionEligible
	} else {
		lc.LessonCompletionStatus = model.LessonCompletionInProgress
	}
}
