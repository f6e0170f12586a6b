// file: internals/features/mastery/module_progress/service/progression_service_test.go
package service

import (
	"context"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pelajarku_backend/internals/events"
	lmodel "pelajarku_backend/internals/features/mastery/lesson_scores/model"
	"pelajarku_backend/internals/features/mastery/module_progress/model"
	smodel "pelajarku_backend/internals/features/mastery/suspensions/model"
)

/* =========================================================
   Test helpers
========================================================= */

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gagal buka sqlite: %v", err)
	}

	if err := db.AutoMigrate(
		&lmodel.LessonCompletionModel{},
		&lmodel.AssessmentGradeModel{},
		&model.EnrollmentModel{},
		&model.CourseConfigModel{},
		&model.CourseModuleModel{},
		&model.ModuleProgressModel{},
		&smodel.SuspensionModel{},
		&smodel.AppealModel{},
	); err != nil {
		t.Fatalf("gagal migrate: %v", err)
	}
	return db
}

type recordingPublisher struct {
	mu       sync.Mutex
	events   []string
	payloads []interface{}
}

func (p *recordingPublisher) Publish(eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
	p.payloads = append(p.payloads, payload)
	return nil
}

// lastPayload mengembalikan payload event terakhir dengan tipe tersebut.
func (p *recordingPublisher) lastPayload(eventType string) map[string]interface{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := len(p.events) - 1; i >= 0; i-- {
		if p.events[i] == eventType {
			if m, ok := p.payloads[i].(map[string]interface{}); ok {
				return m
			}
		}
	}
	return nil
}

func (p *recordingPublisher) countOf(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e == eventType {
			n++
		}
	}
	return n
}

type courseFixture struct {
	UserID    uuid.UUID
	CourseID  uuid.UUID
	ModuleIDs []uuid.UUID
}

// seedCourse menyiapkan config + katalog modul + enrollment aktif.
func seedCourse(t *testing.T, db *gorm.DB, pub events.Publisher, maxAttempts, numModules int) courseFixture {
	t.Helper()

	fx := courseFixture{
		UserID:   uuid.New(),
		CourseID: uuid.New(),
	}

	cfg := model.CourseConfigModel{
		CourseConfigCourseID:            fx.CourseID,
		CourseConfigPassThreshold:       80,
		CourseConfigCompletionThreshold: 70,
		CourseConfigMaxAttempts:         maxAttempts,
		CourseConfigAppealWindowDays:    30,
		CourseConfigRetakeResetPolicy:   model.RetakeResetTerminalOnly,
	}
	if err := db.Create(&cfg).Error; err != nil {
		t.Fatalf("gagal seed config: %v", err)
	}

	for i := 0; i < numModules; i++ {
		moduleID := uuid.New()
		fx.ModuleIDs = append(fx.ModuleIDs, moduleID)
		cm := model.CourseModuleModel{
			CourseModuleCourseID: fx.CourseID,
			CourseModuleModuleID: moduleID,
			CourseModulePosition: i + 1,
		}
		if err := db.Create(&cm).Error; err != nil {
			t.Fatalf("gagal seed katalog modul: %v", err)
		}
	}

	enrollments := NewEnrollmentService(db, pub)
	if _, err := enrollments.CreateEnrollment(context.Background(), fx.UserID, fx.CourseID); err != nil {
		t.Fatalf("gagal enroll: %v", err)
	}
	return fx
}

func seedModuleGrade(t *testing.T, db *gorm.DB, fx courseFixture, moduleID uuid.UUID,
	typ lmodel.AssessmentType, isFinal bool, score float64, passed bool) {
	t.Helper()
	grade := lmodel.AssessmentGradeModel{
		AssessmentGradeUserID:       fx.UserID,
		AssessmentGradeCourseID:     fx.CourseID,
		AssessmentGradeModuleID:     moduleID,
		AssessmentGradeAssessmentID: uuid.New(),
		AssessmentGradeType:         typ,
		AssessmentGradeIsFinal:      isFinal,
		AssessmentGradeScorePct:     score,
		AssessmentGradePassed:       passed,
		AssessmentGradeGradedAt:     time.Now().UTC(),
	}
	if err := db.Create(&grade).Error; err != nil {
		t.Fatalf("gagal seed grade: %v", err)
	}
}

func seedLessonScore(t *testing.T, db *gorm.DB, fx courseFixture, moduleID uuid.UUID, score float64) {
	t.Helper()
	lc := lmodel.LessonCompletionModel{
		LessonCompletionUserID:   fx.UserID,
		LessonCompletionCourseID: fx.CourseID,
		LessonCompletionModuleID: moduleID,
		LessonCompletionLessonID: uuid.New(),
		LessonCompletionScore:    score,
		LessonCompletionStatus:   lmodel.LessonCompletionEligible,
	}
	if err := db.Create(&lc).Error; err != nil {
		t.Fatalf("gagal seed lesson score: %v", err)
	}
}

func loadProgress(t *testing.T, db *gorm.DB, userID, moduleID uuid.UUID) *model.ModuleProgressModel {
	t.Helper()
	var p model.ModuleProgressModel
	if err := db.Where("module_progress_user_id = ? AND module_progress_module_id = ?",
		userID, moduleID).Take(&p).Error; err != nil {
		t.Fatalf("gagal load progress: %v", err)
	}
	return &p
}

/* =========================================================
   Enrollment
========================================================= */

func TestCreateEnrollmentMaterializesProgress(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	fx := seedCourse(t, db, pub, 3, 3)

	first := loadProgress(t, db, fx.UserID, fx.ModuleIDs[0])
	if first.ModuleProgressState != model.ModuleStateUnlocked {
		t.Errorf("modul 1 = %s, want unlocked", first.ModuleProgressState)
	}
	for i, moduleID := range fx.ModuleIDs[1:] {
		p := loadProgress(t, db, fx.UserID, moduleID)
		if p.ModuleProgressState != model.ModuleStateLocked {
			t.Errorf("modul %d = %s, want locked", i+2, p.ModuleProgressState)
		}
	}
	if pub.countOf(events.EventModuleUnlocked) != 1 {
		t.Errorf("module.unlocked terkirim %d kali, want 1", pub.countOf(events.EventModuleUnlocked))
	}

	svc := NewEnrollmentService(db, pub)
	if _, err := svc.CreateEnrollment(context.Background(), fx.UserID, fx.CourseID); err != ErrAlreadyEnrolled {
		t.Errorf("enroll dobel harus ErrAlreadyEnrolled, dapat %v", err)
	}
	if _, err := svc.CreateEnrollment(context.Background(), uuid.New(), uuid.New()); err != ErrCourseEmpty {
		t.Errorf("course tanpa katalog harus ErrCourseEmpty, dapat %v", err)
	}
}

/* =========================================================
   Progression
========================================================= */

func TestModuleCompletionUnlocksNext(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	fx := seedCourse(t, db, pub, 3, 2)
	svc := NewModuleProgressionService(db, pub)
	moduleID := fx.ModuleIDs[0]

	seedLessonScore(t, db, fx, moduleID, 90)
	seedModuleGrade(t, db, fx, moduleID, lmodel.AssessmentTypeQuiz, false, 90, true)
	seedModuleGrade(t, db, fx, moduleID, lmodel.AssessmentTypeAssignment, false, 90, true)
	seedModuleGrade(t, db, fx, moduleID, lmodel.AssessmentTypeQuiz, true, 90, true)

	progress, err := svc.OnGradingEvent(context.Background(), fx.UserID, moduleID, true)
	if err != nil {
		t.Fatalf("OnGradingEvent: %v", err)
	}

	// 0.10×90 + 0.30×90 + 0.40×90 + 0.20×90 = 90
	if math.Abs(progress.ModuleProgressCumulativeScore-90) > 0.001 {
		t.Errorf("cumulative = %f, want 90", progress.ModuleProgressCumulativeScore)
	}
	if progress.ModuleProgressState != model.ModuleStateCompleted {
		t.Errorf("state = %s, want completed", progress.ModuleProgressState)
	}
	if progress.ModuleProgressAttemptsCount != 0 {
		t.Errorf("submission yang lulus tidak dihitung attempt, count = %d", progress.ModuleProgressAttemptsCount)
	}

	next := loadProgress(t, db, fx.UserID, fx.ModuleIDs[1])
	if next.ModuleProgressState != model.ModuleStateUnlocked {
		t.Errorf("modul 2 = %s, want unlocked", next.ModuleProgressState)
	}
	if pub.countOf(events.EventModuleCompleted) != 1 {
		t.Errorf("module.completed terkirim %d kali, want 1", pub.countOf(events.EventModuleCompleted))
	}
	// 1 dari enrollment (modul 1) + 1 dari unlock modul 2
	if pub.countOf(events.EventModuleUnlocked) != 2 {
		t.Errorf("module.unlocked terkirim %d kali, want 2", pub.countOf(events.EventModuleUnlocked))
	}
}

func TestUnlockGateHoldsBelowThreshold(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	fx := seedCourse(t, db, pub, 3, 2)
	svc := NewModuleProgressionService(db, pub)
	moduleID := fx.ModuleIDs[0]

	seedLessonScore(t, db, fx, moduleID, 79)

	progress, err := svc.OnGradingEvent(context.Background(), fx.UserID, moduleID, false)
	if err != nil {
		t.Fatalf("OnGradingEvent: %v", err)
	}

	if progress.ModuleProgressState != model.ModuleStateInProgress {
		t.Errorf("state = %s, want in_progress", progress.ModuleProgressState)
	}
	next := loadProgress(t, db, fx.UserID, fx.ModuleIDs[1])
	if next.ModuleProgressState != model.ModuleStateLocked {
		t.Errorf("modul 2 = %s, harus tetap locked", next.ModuleProgressState)
	}
	// hanya unlock modul 1 saat enrollment
	if pub.countOf(events.EventModuleUnlocked) != 1 {
		t.Errorf("module.unlocked terkirim %d kali, want 1", pub.countOf(events.EventModuleUnlocked))
	}
}

func TestMissingRubricTermsNotFatal(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	fx := seedCourse(t, db, pub, 3, 1)
	svc := NewModuleProgressionService(db, pub)
	moduleID := fx.ModuleIDs[0]

	seedLessonScore(t, db, fx, moduleID, 50)

	progress, err := svc.OnGradingEvent(context.Background(), fx.UserID, moduleID, false)
	if err != nil {
		t.Fatalf("term rubric kosong tidak boleh fatal: %v", err)
	}
	// hanya lesson average yang ada: 0.10×50 = 5
	if math.Abs(progress.ModuleProgressCumulativeScore-5) > 0.001 {
		t.Errorf("cumulative = %f, want 5", progress.ModuleProgressCumulativeScore)
	}
}

func TestAttemptCeilingTriggersSuspensionOnce(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	fx := seedCourse(t, db, pub, 1, 1)
	svc := NewModuleProgressionService(db, pub)
	moduleID := fx.ModuleIDs[0]
	ctx := context.Background()

	seedModuleGrade(t, db, fx, moduleID, lmodel.AssessmentTypeQuiz, true, 40, false)

	// Attempt pertama: gagal tapi masih di bawah ceiling
	progress, err := svc.OnGradingEvent(ctx, fx.UserID, moduleID, true)
	if err != nil {
		t.Fatalf("OnGradingEvent pertama: %v", err)
	}
	if progress.ModuleProgressState != model.ModuleStateFailed {
		t.Errorf("state = %s, want failed", progress.ModuleProgressState)
	}
	if progress.ModuleProgressAttemptsCount != 1 {
		t.Errorf("attempts = %d, want 1", progress.ModuleProgressAttemptsCount)
	}
	if pub.countOf(events.EventModuleFailed) != 1 {
		t.Errorf("module.failed terkirim %d kali, want 1", pub.countOf(events.EventModuleFailed))
	}

	// Attempt kedua melewati ceiling → suspended, tepat satu suspension
	progress, err = svc.OnGradingEvent(ctx, fx.UserID, moduleID, true)
	if err != nil {
		t.Fatalf("OnGradingEvent kedua: %v", err)
	}
	if progress.ModuleProgressState != model.ModuleStateSuspended {
		t.Errorf("state = %s, want suspended", progress.ModuleProgressState)
	}
	if progress.ModuleProgressAttemptsCount > progress.ModuleProgressMaxAttempts {
		t.Errorf("attempts %d melebihi max %d",
			progress.ModuleProgressAttemptsCount, progress.ModuleProgressMaxAttempts)
	}

	// Event exhaustion susulan: diabaikan, tidak ada suspension kedua
	if _, err := svc.OnGradingEvent(ctx, fx.UserID, moduleID, true); err != nil {
		t.Fatalf("OnGradingEvent ketiga: %v", err)
	}

	var suspensions int64
	if err := db.Model(&smodel.SuspensionModel{}).
		Where("suspension_user_id = ? AND suspension_module_id = ?", fx.UserID, moduleID).
		Count(&suspensions).Error; err != nil {
		t.Fatalf("gagal hitung suspension: %v", err)
	}
	if suspensions != 1 {
		t.Errorf("suspension = %d, want tepat 1", suspensions)
	}
	if pub.countOf(events.EventModuleSuspended) != 1 {
		t.Errorf("module.suspended terkirim %d kali, want 1", pub.countOf(events.EventModuleSuspended))
	}
	if pub.countOf(events.EventAppealWindowOpened) != 1 {
		t.Errorf("appeal.window_opened terkirim %d kali, want 1", pub.countOf(events.EventAppealWindowOpened))
	}
	if payload := pub.lastPayload(events.EventAppealWindowOpened); payload == nil || payload["suspension_id"] == nil {
		t.Error("payload appeal.window_opened harus membawa suspension_id")
	}

	var enrollment model.EnrollmentModel
	if err := db.Where("enrollment_user_id = ?", fx.UserID).Take(&enrollment).Error; err != nil {
		t.Fatalf("gagal load enrollment: %v", err)
	}
	if enrollment.EnrollmentStatus != model.EnrollmentSuspended {
		t.Errorf("enrollment = %s, want suspended", enrollment.EnrollmentStatus)
	}
}

func TestFailedAttemptCounterNotStale(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	fx := seedCourse(t, db, pub, 3, 1)
	svc := NewModuleProgressionService(db, pub)
	moduleID := fx.ModuleIDs[0]
	ctx := context.Background()

	seedModuleGrade(t, db, fx, moduleID, lmodel.AssessmentTypeQuiz, true, 40, false)

	// Counter yang dikembalikan harus hasil SETELAH increment SQL,
	// bukan nilai row saat di-load.
	progress, err := svc.OnGradingEvent(ctx, fx.UserID, moduleID, true)
	if err != nil {
		t.Fatalf("OnGradingEvent pertama: %v", err)
	}
	if progress.ModuleProgressAttemptsCount != 1 {
		t.Errorf("attempts = %d, want 1", progress.ModuleProgressAttemptsCount)
	}
	payload := pub.lastPayload(events.EventModuleFailed)
	if payload == nil {
		t.Fatal("payload module.failed tidak terekam")
	}
	if got, ok := payload["remaining_attempts"].(int); !ok || got != 2 {
		t.Errorf("remaining_attempts = %v, want 2", payload["remaining_attempts"])
	}

	// Attempt kedua: sisa 1, di sinilah UI menampilkan warning attempt terakhir
	progress, err = svc.OnGradingEvent(ctx, fx.UserID, moduleID, true)
	if err != nil {
		t.Fatalf("OnGradingEvent kedua: %v", err)
	}
	if progress.ModuleProgressAttemptsCount != 2 {
		t.Errorf("attempts = %d, want 2", progress.ModuleProgressAttemptsCount)
	}
	if progress.RemainingAttempts() != 1 {
		t.Errorf("remaining = %d, want 1", progress.RemainingAttempts())
	}
	payload = pub.lastPayload(events.EventModuleFailed)
	if got, ok := payload["remaining_attempts"].(int); !ok || got != 1 {
		t.Errorf("remaining_attempts = %v, want 1", payload["remaining_attempts"])
	}
}

func TestLastModuleCompletesEnrollment(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	fx := seedCourse(t, db, pub, 3, 1)
	svc := NewModuleProgressionService(db, pub)
	moduleID := fx.ModuleIDs[0]

	seedLessonScore(t, db, fx, moduleID, 90)
	seedModuleGrade(t, db, fx, moduleID, lmodel.AssessmentTypeQuiz, false, 90, true)
	seedModuleGrade(t, db, fx, moduleID, lmodel.AssessmentTypeAssignment, false, 90, true)
	seedModuleGrade(t, db, fx, moduleID, lmodel.AssessmentTypeQuiz, true, 90, true)

	if _, err := svc.OnGradingEvent(context.Background(), fx.UserID, moduleID, true); err != nil {
		t.Fatalf("OnGradingEvent: %v", err)
	}

	var enrollment model.EnrollmentModel
	if err := db.Where("enrollment_user_id = ?", fx.UserID).Take(&enrollment).Error; err != nil {
		t.Fatalf("gagal load enrollment: %v", err)
	}
	if enrollment.EnrollmentStatus != model.EnrollmentCompleted {
		t.Errorf("enrollment = %s, want completed", enrollment.EnrollmentStatus)
	}
}

/* =========================================================
   Retake
========================================================= */

func TestStartRetakeSupersedesTerminalGrades(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	fx := seedCourse(t, db, pub, 3, 1)
	svc := NewModuleProgressionService(db, pub)
	moduleID := fx.ModuleIDs[0]
	ctx := context.Background()

	seedModuleGrade(t, db, fx, moduleID, lmodel.AssessmentTypeQuiz, false, 75, true)
	seedModuleGrade(t, db, fx, moduleID, lmodel.AssessmentTypeQuiz, true, 40, false)

	// Masuk ke Failed dulu
	progress, err := svc.OnGradingEvent(ctx, fx.UserID, moduleID, true)
	if err != nil {
		t.Fatalf("OnGradingEvent: %v", err)
	}
	if progress.ModuleProgressState != model.ModuleStateFailed {
		t.Fatalf("state = %s, want failed", progress.ModuleProgressState)
	}

	progress, err = svc.StartRetake(ctx, fx.UserID, moduleID)
	if err != nil {
		t.Fatalf("StartRetake: %v", err)
	}
	if progress.ModuleProgressState != model.ModuleStateInProgress {
		t.Errorf("state = %s, want in_progress", progress.ModuleProgressState)
	}

	// Policy terminal_only: nilai final di-supersede, quiz biasa tidak
	var grades []lmodel.AssessmentGradeModel
	if err := db.Where("assessment_grade_user_id = ?", fx.UserID).Find(&grades).Error; err != nil {
		t.Fatalf("gagal load grades: %v", err)
	}
	for _, g := range grades {
		if g.AssessmentGradeIsFinal && !g.AssessmentGradeSuperseded {
			t.Errorf("nilai final harus di-supersede saat retake")
		}
		if !g.AssessmentGradeIsFinal && g.AssessmentGradeSuperseded {
			t.Errorf("nilai non-final tidak boleh di-supersede (policy terminal_only)")
		}
	}

	// Retake dari state selain Failed ditolak
	if _, err := svc.StartRetake(ctx, fx.UserID, moduleID); err == nil {
		t.Error("retake dari in_progress harus ditolak")
	}
}

func TestStartRetakeRejectedWhenExhausted(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	fx := seedCourse(t, db, pub, 2, 1)
	svc := NewModuleProgressionService(db, pub)
	moduleID := fx.ModuleIDs[0]

	if err := db.Model(&model.ModuleProgressModel{}).
		Where("module_progress_user_id = ? AND module_progress_module_id = ?", fx.UserID, moduleID).
		Updates(map[string]interface{}{
			"module_progress_state":          model.ModuleStateFailed,
			"module_progress_attempts_count": 2,
		}).Error; err != nil {
		t.Fatalf("gagal set state: %v", err)
	}

	if _, err := svc.StartRetake(context.Background(), fx.UserID, moduleID); err != ErrAttemptsExhausted {
		t.Errorf("want ErrAttemptsExhausted, got %v", err)
	}
}

/* =========================================================
   Attempt tracker
========================================================= */

func TestRecordAttemptGuardedIncrement(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	fx := seedCourse(t, db, pub, 2, 1)
	tracker := NewAttemptTracker(db)
	moduleID := fx.ModuleIDs[0]
	ctx := context.Background()

	remaining, err := tracker.RecordAttempt(ctx, nil, fx.UserID, moduleID)
	if err != nil {
		t.Fatalf("RecordAttempt pertama: %v", err)
	}
	if remaining != 1 {
		t.Errorf("remaining = %d, want 1", remaining)
	}

	remaining, err = tracker.RecordAttempt(ctx, nil, fx.UserID, moduleID)
	if err != nil {
		t.Fatalf("RecordAttempt kedua: %v", err)
	}
	if remaining != 0 {
		t.Errorf("remaining = %d, want 0", remaining)
	}

	if _, err := tracker.RecordAttempt(ctx, nil, fx.UserID, moduleID); err != ErrAttemptsExhausted {
		t.Errorf("attempt ketiga harus ErrAttemptsExhausted, dapat %v", err)
	}

	p := loadProgress(t, db, fx.UserID, moduleID)
	if p.ModuleProgressAttemptsCount != 2 {
		t.Errorf("attempts = %d, want tetap 2 (invariant <= max)", p.ModuleProgressAttemptsCount)
	}

	if _, err := tracker.RecordAttempt(ctx, nil, uuid.New(), uuid.New()); err == nil {
		t.Error("row tidak ada harus error, bukan exhausted")
	}
}
