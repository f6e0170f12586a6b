// file: internals/features/mastery/module_progress/service/attempt_tracker.go
package service

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"pelajarku_backend/internals/features/mastery/module_progress/model"
)

var (
	// ErrAttemptsExhausted: recordAttempt dipanggil saat attempts_count sudah
	// di max. Progression memakai ini sebagai trigger jalur suspension, bukan
	// error user.
	ErrAttemptsExhausted = errors.New("attempt asesmen terminal sudah habis")

	// ErrConcurrentModification: guarded update kalah balapan (versi stale).
	// Caller retry recompute (bounded), tidak pernah sampai ke user.
	ErrConcurrentModification = errors.New("module progress berubah saat recompute")
)

/* =========================================================
   ATTEMPT TRACKER
   Counter eksplisit dengan guarded increment di write boundary:
   invariant attempts_count <= max_attempts dijaga oleh klausa WHERE,
   bukan oleh pembacaan sebelumnya.
========================================================= */

type AttemptTracker struct {
	DB *gorm.DB
}

func NewAttemptTracker(db *gorm.DB) *AttemptTracker {
	return &AttemptTracker{DB: db}
}

// RecordAttempt menghitung satu submission asesmen terminal yang sudah
// digrade. remaining == 1 artinya caller wajib menampilkan warning
// "attempt terakhir" sebelum submission berikutnya.
func (t *AttemptTracker) RecordAttempt(
	ctx context.Context,
	tx *gorm.DB,
	userID, moduleID uuid.UUID,
) (remaining int, err error) {
	db := t.DB
	if tx != nil {
		db = tx
	}
	db = db.WithContext(ctx)

	res := db.Model(&model.ModuleProgressModel{}).
		Where("module_progress_user_id = ? AND module_progress_module_id = ?", userID, moduleID).
		Where("module_progress_attempts_count < module_progress_max_attempts").
		UpdateColumn("module_progress_attempts_count", gorm.Expr("module_progress_attempts_count + 1"))
	if res.Error != nil {
		return 0, res.Error
	}

	if res.RowsAffected == 0 {
		// Row tidak ada, atau sudah di max → bedakan
		var progress model.ModuleProgressModel
		if err := db.Where("module_progress_user_id = ? AND module_progress_module_id = ?",
			userID, moduleID).Take(&progress).Error; err != nil {
			return 0, err
		}
		log.Printf("[AttemptTracker] Attempts habis. user_id=%s module_id=%s count=%d max=%d",
			userID, moduleID, progress.ModuleProgressAttemptsCount, progress.ModuleProgressMaxAttempts)
		return 0, ErrAttemptsExhausted
	}

	var progress model.ModuleProgressModel
	if err := db.Where("module_progress_user_id = ? AND module_progress_module_id = ?",
		userID, moduleID).Take(&progress).Error; err != nil {
		return 0, err
	}

	remaining = progress.RemainingAttempts()
	if remaining == 1 {
		log.Printf("[AttemptTracker] ⚠️ Attempt terakhir tersisa. user_id=%s module_id=%s", userID, moduleID)
	}
	return remaining, nil
}
