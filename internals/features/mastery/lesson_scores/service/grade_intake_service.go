// file: internals/features/mastery/lesson_scores/service/grade_intake_service.go
package service

import (
	"context"
	"log"

	"gorm.io/gorm"

	"pelajarku_backend/internals/events"
	"pelajarku_backend/internals/features/mastery/lesson_scores/model"
)

/* =========================================================
   GRADE INTAKE
   Pintu masuk nilai dari subsistem grading (collaborator). Engine hanya
   menyimpan lalu memicu recompute: nilai itu sendiri read-only di sini.
========================================================= */

type GradeIntakeService struct {
	DB     *gorm.DB
	Scores *LessonScoreService
}

func NewGradeIntakeService(db *gorm.DB, pub events.Publisher) *GradeIntakeService {
	return &GradeIntakeService{
		DB:     db,
		Scores: NewLessonScoreService(db, pub),
	}
}

// RecordGrade menyimpan satu hasil grading lalu memicu recompute yang tepat:
// grade level lesson → recompute lesson (agregasi modul ikut), grade level
// modul (termasuk asesmen terminal) → langsung agregasi modul.
func (s *GradeIntakeService) RecordGrade(
	ctx context.Context,
	grade *model.AssessmentGradeModel,
) (*model.AssessmentGradeModel, error) {
	if err := s.DB.WithContext(ctx).Create(grade).Error; err != nil {
		return nil, err
	}

	log.Printf("[GradeIntakeService] Nilai masuk. user_id=%s assessment_id=%s type=%s final=%v score=%.2f",
		grade.AssessmentGradeUserID, grade.AssessmentGradeAssessmentID,
		grade.AssessmentGradeType, grade.AssessmentGradeIsFinal, grade.AssessmentGradeScorePct)

	if grade.AssessmentGradeLessonID != nil && !grade.AssessmentGradeIsFinal {
		if _, err := s.Scores.RecomputeFromGrades(ctx, LessonScope{
			UserID:   grade.AssessmentGradeUserID,
			CourseID: grade.AssessmentGradeCourseID,
			ModuleID: grade.AssessmentGradeModuleID,
			LessonID: *grade.AssessmentGradeLessonID,
		}); err != nil {
			return nil, err
		}
		return grade, nil
	}

	// Level modul: asesmen terminal dihitung sebagai attempt
	if _, err := s.Scores.Progression.OnGradingEvent(ctx,
		grade.AssessmentGradeUserID, grade.AssessmentGradeModuleID,
		grade.AssessmentGradeIsFinal); err != nil {
		return nil, err
	}
	return grade, nil
}
