// file: internals/features/mastery/suspensions/service/suspension_service_test.go
package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pelajarku_backend/internals/events"
	pmodel "pelajarku_backend/internals/features/mastery/module_progress/model"
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
		&pmodel.EnrollmentModel{},
		&pmodel.CourseConfigModel{},
		&pmodel.ModuleProgressModel{},
		&smodel.SuspensionModel{},
		&smodel.AppealModel{},
	); err != nil {
		t.Fatalf("gagal migrate: %v", err)
	}
	return db
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *recordingPublisher) Publish(eventType string, payload interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, eventType)
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

type suspensionFixture struct {
	UserID   uuid.UUID
	CourseID uuid.UUID
	ModuleID uuid.UUID
}

// seedSuspendedModule menyiapkan enrollment + progress modul yang sudah
// berada di state Suspended (kondisi normal saat Suspend dipanggil).
func seedSuspendedModule(t *testing.T, db *gorm.DB) suspensionFixture {
	t.Helper()

	fx := suspensionFixture{
		UserID:   uuid.New(),
		CourseID: uuid.New(),
		ModuleID: uuid.New(),
	}

	enrollment := pmodel.EnrollmentModel{
		EnrollmentUserID:   fx.UserID,
		EnrollmentCourseID: fx.CourseID,
		EnrollmentStatus:   pmodel.EnrollmentActive,
	}
	if err := db.Create(&enrollment).Error; err != nil {
		t.Fatalf("gagal seed enrollment: %v", err)
	}

	progress := pmodel.ModuleProgressModel{
		ModuleProgressUserID:        fx.UserID,
		ModuleProgressCourseID:      fx.CourseID,
		ModuleProgressModuleID:      fx.ModuleID,
		ModuleProgressPosition:      1,
		ModuleProgressAttemptsCount: 3,
		ModuleProgressMaxAttempts:   3,
		ModuleProgressState:         pmodel.ModuleStateSuspended,
	}
	if err := db.Create(&progress).Error; err != nil {
		t.Fatalf("gagal seed progress: %v", err)
	}
	return fx
}

func setAppealDeadline(t *testing.T, db *gorm.DB, suspensionID uuid.UUID, deadline time.Time) {
	t.Helper()
	if err := db.Model(&smodel.SuspensionModel{}).
		Where("suspension_id = ?", suspensionID).
		Update("suspension_appeal_deadline", deadline).Error; err != nil {
		t.Fatalf("gagal set deadline: %v", err)
	}
}

/* =========================================================
   Suspend
========================================================= */

func TestSuspendCreatesWindowAndSuspendsEnrollment(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewSuspensionService(db, pub)
	fx := seedSuspendedModule(t, db)

	before := time.Now().UTC()
	susp, err := svc.Suspend(context.Background(), nil, fx.UserID, fx.CourseID, fx.ModuleID,
		smodel.SuspensionReasonAttemptsExhausted)
	if err != nil {
		t.Fatalf("Suspend: %v", err)
	}

	// default window 30 hari
	wantDeadline := before.AddDate(0, 0, 30)
	diff := susp.SuspensionAppealDeadline.Sub(wantDeadline)
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("deadline = %s, want ±30 hari dari sekarang", susp.SuspensionAppealDeadline)
	}

	var enrollment pmodel.EnrollmentModel
	if err := db.Where("enrollment_user_id = ?", fx.UserID).Take(&enrollment).Error; err != nil {
		t.Fatalf("gagal load enrollment: %v", err)
	}
	if enrollment.EnrollmentStatus != pmodel.EnrollmentSuspended {
		t.Errorf("enrollment = %s, want suspended", enrollment.EnrollmentStatus)
	}
	if pub.countOf(events.EventAppealWindowOpened) != 1 {
		t.Errorf("appeal.window_opened terkirim %d kali, want 1", pub.countOf(events.EventAppealWindowOpened))
	}
}

func TestSuspendDuplicateGuard(t *testing.T) {
	db := newTestDB(t)
	svc := NewSuspensionService(db, &recordingPublisher{})
	fx := seedSuspendedModule(t, db)
	ctx := context.Background()

	if _, err := svc.Suspend(ctx, nil, fx.UserID, fx.CourseID, fx.ModuleID,
		smodel.SuspensionReasonAttemptsExhausted); err != nil {
		t.Fatalf("Suspend pertama: %v", err)
	}
	if _, err := svc.Suspend(ctx, nil, fx.UserID, fx.CourseID, fx.ModuleID,
		smodel.SuspensionReasonAttemptsExhausted); err != ErrDuplicateSuspension {
		t.Errorf("Suspend kedua harus ErrDuplicateSuspension, dapat %v", err)
	}

	var count int64
	if err := db.Model(&smodel.SuspensionModel{}).
		Where("suspension_user_id = ? AND suspension_module_id = ?", fx.UserID, fx.ModuleID).
		Count(&count).Error; err != nil {
		t.Fatalf("gagal hitung suspension: %v", err)
	}
	if count != 1 {
		t.Errorf("suspension = %d, want tepat 1", count)
	}
}

/* =========================================================
   Submit appeal
========================================================= */

func TestSubmitAppealDeadlineBoundary(t *testing.T) {
	db := newTestDB(t)
	svc := NewSuspensionService(db, &recordingPublisher{})
	ctx := context.Background()

	// 1 detik sebelum deadline: masih boleh
	fx1 := seedSuspendedModule(t, db)
	susp1, err := svc.Suspend(ctx, nil, fx1.UserID, fx1.CourseID, fx1.ModuleID,
		smodel.SuspensionReasonAttemptsExhausted)
	if err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	setAppealDeadline(t, db, susp1.SuspensionID, time.Now().UTC().Add(time.Second))

	if _, err := svc.SubmitAppeal(ctx, susp1.SuspensionID, fx1.UserID, "mohon ditinjau kembali, ada kendala teknis"); err != nil {
		t.Errorf("banding sebelum deadline harus diterima, dapat %v", err)
	}

	// 1 detik setelah deadline: ditolak tanpa perubahan state
	fx2 := seedSuspendedModule(t, db)
	susp2, err := svc.Suspend(ctx, nil, fx2.UserID, fx2.CourseID, fx2.ModuleID,
		smodel.SuspensionReasonAttemptsExhausted)
	if err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	setAppealDeadline(t, db, susp2.SuspensionID, time.Now().UTC().Add(-time.Second))

	if _, err := svc.SubmitAppeal(ctx, susp2.SuspensionID, fx2.UserID, "terlambat mengajukan banding ini"); err != ErrAppealWindowExpired {
		t.Errorf("banding lewat deadline harus ErrAppealWindowExpired, dapat %v", err)
	}

	var reloaded smodel.SuspensionModel
	if err := db.Where("suspension_id = ?", susp2.SuspensionID).Take(&reloaded).Error; err != nil {
		t.Fatalf("gagal load suspension: %v", err)
	}
	if reloaded.SuspensionStatus != smodel.SuspensionActive {
		t.Errorf("status berubah jadi %s padahal banding ditolak", reloaded.SuspensionStatus)
	}
}

func TestSubmitAppealDuplicateGuard(t *testing.T) {
	db := newTestDB(t)
	svc := NewSuspensionService(db, &recordingPublisher{})
	fx := seedSuspendedModule(t, db)
	ctx := context.Background()

	susp, err := svc.Suspend(ctx, nil, fx.UserID, fx.CourseID, fx.ModuleID,
		smodel.SuspensionReasonAttemptsExhausted)
	if err != nil {
		t.Fatalf("Suspend: %v", err)
	}

	if _, err := svc.SubmitAppeal(ctx, susp.SuspensionID, fx.UserID, "mohon ditinjau kembali, ada kendala teknis"); err != nil {
		t.Fatalf("SubmitAppeal pertama: %v", err)
	}
	if _, err := svc.SubmitAppeal(ctx, susp.SuspensionID, fx.UserID, "banding kedua untuk suspension yang sama"); err != ErrAppealAlreadyExists {
		t.Errorf("banding dobel harus ErrAppealAlreadyExists, dapat %v", err)
	}

	progress := &pmodel.ModuleProgressModel{}
	if err := db.Where("module_progress_user_id = ?", fx.UserID).Take(progress).Error; err != nil {
		t.Fatalf("gagal load progress: %v", err)
	}
	if progress.ModuleProgressState != pmodel.ModuleStateAppealed {
		t.Errorf("state = %s, want appealed", progress.ModuleProgressState)
	}
}

/* =========================================================
   Resolve appeal
========================================================= */

func TestResolveAppealApproved(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewSuspensionService(db, pub)
	fx := seedSuspendedModule(t, db)
	ctx := context.Background()

	susp, err := svc.Suspend(ctx, nil, fx.UserID, fx.CourseID, fx.ModuleID,
		smodel.SuspensionReasonAttemptsExhausted)
	if err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	appeal, err := svc.SubmitAppeal(ctx, susp.SuspensionID, fx.UserID, "mohon ditinjau kembali, ada kendala teknis")
	if err != nil {
		t.Fatalf("SubmitAppeal: %v", err)
	}

	reviewer := uuid.New()
	decided, err := svc.ResolveAppeal(ctx, appeal.AppealID, smodel.AppealApproved, reviewer)
	if err != nil {
		t.Fatalf("ResolveAppeal: %v", err)
	}
	if decided.AppealDecision != smodel.AppealApproved {
		t.Errorf("decision = %s, want approved", decided.AppealDecision)
	}
	if decided.AppealDecidedBy == nil || *decided.AppealDecidedBy != reviewer {
		t.Error("decided_by harus diisi reviewer")
	}

	var progress pmodel.ModuleProgressModel
	if err := db.Where("module_progress_user_id = ?", fx.UserID).Take(&progress).Error; err != nil {
		t.Fatalf("gagal load progress: %v", err)
	}
	if progress.ModuleProgressState != pmodel.ModuleStateUnlocked {
		t.Errorf("state = %s, want unlocked", progress.ModuleProgressState)
	}
	if progress.ModuleProgressAttemptsCount != 0 {
		t.Errorf("attempts = %d, harus di-reset 0", progress.ModuleProgressAttemptsCount)
	}

	var enrollment pmodel.EnrollmentModel
	if err := db.Where("enrollment_user_id = ?", fx.UserID).Take(&enrollment).Error; err != nil {
		t.Fatalf("gagal load enrollment: %v", err)
	}
	if enrollment.EnrollmentStatus != pmodel.EnrollmentActive {
		t.Errorf("enrollment = %s, want active", enrollment.EnrollmentStatus)
	}

	if pub.countOf(events.EventAppealResolved) != 1 {
		t.Errorf("appeal.resolved terkirim %d kali, want 1", pub.countOf(events.EventAppealResolved))
	}
	if pub.countOf(events.EventModuleUnlocked) != 1 {
		t.Errorf("module.unlocked terkirim %d kali, want 1", pub.countOf(events.EventModuleUnlocked))
	}

	// Keputusan sudah terminal
	if _, err := svc.ResolveAppeal(ctx, appeal.AppealID, smodel.AppealDenied, reviewer); err != ErrAppealNotPending {
		t.Errorf("resolve kedua harus ErrAppealNotPending, dapat %v", err)
	}
}

func TestResolveAppealDenied(t *testing.T) {
	db := newTestDB(t)
	pub := &recordingPublisher{}
	svc := NewSuspensionService(db, pub)
	fx := seedSuspendedModule(t, db)
	ctx := context.Background()

	susp, err := svc.Suspend(ctx, nil, fx.UserID, fx.CourseID, fx.ModuleID,
		smodel.SuspensionReasonAttemptsExhausted)
	if err != nil {
		t.Fatalf("Suspend: %v", err)
	}
	appeal, err := svc.SubmitAppeal(ctx, susp.SuspensionID, fx.UserID, "mohon ditinjau kembali, ada kendala teknis")
	if err != nil {
		t.Fatalf("SubmitAppeal: %v", err)
	}

	if _, err := svc.ResolveAppeal(ctx, appeal.AppealID, smodel.AppealDenied, uuid.New()); err != nil {
		t.Fatalf("ResolveAppeal: %v", err)
	}

	var progress pmodel.ModuleProgressModel
	if err := db.Where("module_progress_user_id = ?", fx.UserID).Take(&progress).Error; err != nil {
		t.Fatalf("gagal load progress: %v", err)
	}
	if progress.ModuleProgressState != pmodel.ModuleStateTerminated {
		t.Errorf("state = %s, want terminated", progress.ModuleProgressState)
	}

	var enrollment pmodel.EnrollmentModel
	if err := db.Where("enrollment_user_id = ?", fx.UserID).Take(&enrollment).Error; err != nil {
		t.Fatalf("gagal load enrollment: %v", err)
	}
	if enrollment.EnrollmentStatus != pmodel.EnrollmentSuspended {
		t.Errorf("enrollment = %s, harus tetap suspended", enrollment.EnrollmentStatus)
	}
	if pub.countOf(events.EventModuleUnlocked) != 0 {
		t.Errorf("banding ditolak tidak boleh unlock modul")
	}
}
