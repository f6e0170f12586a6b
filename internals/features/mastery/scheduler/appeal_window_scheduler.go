// file: internals/features/mastery/scheduler/appeal_window_scheduler.go
package scheduler

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"pelajarku_backend/internals/events"
	smodel "pelajarku_backend/internals/features/mastery/suspensions/model"
)

/* =========================================================
   APPEAL WINDOW SCHEDULER
   Sweep tiap jam: suspension aktif yang deadline-nya lewat dan belum punya
   banding pending → emit appeal.window_expired sekali (flag notified).
   Deadline sendiri tetap data check di SubmitAppeal; sweep ini murni
   notifikasi untuk collaborator.
========================================================= */

func StartAppealWindowScheduler(db *gorm.DB, pub events.Publisher) *cron.Cron {
	if pub == nil {
		pub = events.NewLogPublisher()
	}

	c := cron.New()
	if _, err := c.AddFunc("@hourly", func() { sweepExpiredWindows(db, pub) }); err != nil {
		log.Printf("[AppealWindowScheduler] Gagal daftar cron: %v", err)
		return c
	}
	c.Start()

	log.Println("[AppealWindowScheduler] ⏱ Sweep window banding aktif (tiap jam)")
	return c
}

func sweepExpiredWindows(db *gorm.DB, pub events.Publisher) {
	now := time.Now().UTC()

	var expired []smodel.SuspensionModel
	if err := db.
		Where("suspension_status = ? AND suspension_appeal_deadline < ? AND suspension_window_notified = ?",
			smodel.SuspensionActive, now, false).
		Limit(100).
		Find(&expired).Error; err != nil {
		log.Printf("[AppealWindowScheduler] Gagal ambil suspension kadaluarsa: %v", err)
		return
	}
	if len(expired) == 0 {
		return
	}

	for i := range expired {
		susp := &expired[i]

		res := db.Model(&smodel.SuspensionModel{}).
			Where("suspension_id = ? AND suspension_window_notified = ?", susp.SuspensionID, false).
			Update("suspension_window_notified", true)
		if res.Error != nil {
			log.Printf("[AppealWindowScheduler] Gagal tandai notified: %v", res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			// instance lain sudah menang, jangan emit dobel
			continue
		}

		if err := pub.Publish(events.EventAppealWindowExpired, map[string]interface{}{
			"suspension_id":   susp.SuspensionID,
			"user_id":         susp.SuspensionUserID,
			"module_id":       susp.SuspensionModuleID,
			"appeal_deadline": susp.SuspensionAppealDeadline,
		}); err != nil {
			log.Printf("[AppealWindowScheduler] Gagal publish appeal.window_expired: %v", err)
		}
	}

	log.Printf("[AppealWindowScheduler] %d window banding kadaluarsa dinotifikasi", len(expired))
}
