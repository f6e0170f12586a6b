// file: internals/features/mastery/lesson_scores/service/grade_intake_service_test.go
package service

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"pelajarku_backend/internals/features/mastery/lesson_scores/model"
)

func TestRecordGradeLessonScopedRecomputesLesson(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewGradeIntakeService(db, pub)
	scope := seedScope(t, db)
	seedCourseConfig(t, db, scope.CourseID, 70)
	ctx := context.Background()

	// sinyal baca dulu supaya row lesson ada
	if _, err := svc.Scores.ApplyReadingProgress(ctx, scope, 95); err != nil {
		t.Fatalf("ApplyReadingProgress: %v", err)
	}

	lessonID := scope.LessonID
	grade := &model.AssessmentGradeModel{
		AssessmentGradeUserID:       scope.UserID,
		AssessmentGradeCourseID:     scope.CourseID,
		AssessmentGradeModuleID:     scope.ModuleID,
		AssessmentGradeLessonID:     &lessonID,
		AssessmentGradeAssessmentID: uuid.New(),
		AssessmentGradeType:         model.AssessmentTypeQuiz,
		AssessmentGradeScorePct:     90,
		AssessmentGradePassed:       true,
	}
	if _, err := svc.RecordGrade(ctx, grade); err != nil {
		t.Fatalf("RecordGrade: %v", err)
	}

	lc, err := svc.Scores.GetCompletion(ctx, scope.UserID, scope.LessonID)
	if err != nil {
		t.Fatalf("GetCompletion: %v", err)
	}
	if lc.LessonCompletionQuizComponent == nil {
		t.Fatal("quiz component harus terisi setelah nilai masuk")
	}
	if *lc.LessonCompletionQuizComponent != 90 {
		t.Errorf("quiz component = %f, want 90", *lc.LessonCompletionQuizComponent)
	}
	if pub.countOf("lesson.scored") != 2 {
		t.Errorf("lesson.scored terkirim %d kali, want 2", pub.countOf("lesson.scored"))
	}
}

func TestRecordGradeModuleScopedSkipsLessonRecompute(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewGradeIntakeService(db, pub)
	scope := seedScope(t, db)
	seedCourseConfig(t, db, scope.CourseID, 70)

	// asesmen terminal modul, tanpa lesson
	grade := &model.AssessmentGradeModel{
		AssessmentGradeUserID:       scope.UserID,
		AssessmentGradeCourseID:     scope.CourseID,
		AssessmentGradeModuleID:     scope.ModuleID,
		AssessmentGradeAssessmentID: uuid.New(),
		AssessmentGradeType:         model.AssessmentTypeQuiz,
		AssessmentGradeIsFinal:      true,
		AssessmentGradeScorePct:     40,
		AssessmentGradePassed:       false,
	}
	if _, err := svc.RecordGrade(context.Background(), grade); err != nil {
		t.Fatalf("RecordGrade: %v", err)
	}

	if pub.countOf("lesson.scored") != 0 {
		t.Errorf("grade level modul tidak boleh memicu lesson.scored")
	}
	// attempt tercatat + modul failed
	if pub.countOf("module.failed") != 1 {
		t.Errorf("module.failed terkirim %d kali, want 1", pub.countOf("module.failed"))
	}
}
