// file: internals/features/mastery/module_progress/model/module_progress_model.go
package model

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ErrInvalidTransition: state machine menerima event yang tidak valid dari
// state sekarang. Biasanya tanda ordering bug di upstream, caller wajib log.
var ErrInvalidTransition = errors.New("transisi state modul tidak valid")

/* =============================================================================
   ENUM-like: Module State
   ('locked','unlocked','in_progress','completed','failed','suspended',
    'appealed','reinstated','terminated')
============================================================================= */
type ModuleState string

const (
	ModuleStateLocked     ModuleState = "locked"
	ModuleStateUnlocked   ModuleState = "unlocked"
	ModuleStateInProgress ModuleState = "in_progress"
	ModuleStateCompleted  ModuleState = "completed"
	ModuleStateFailed     ModuleState = "failed"
	ModuleStateSuspended  ModuleState = "suspended"
	ModuleStateAppealed   ModuleState = "appealed"
	ModuleStateReinstated ModuleState = "reinstated"
	ModuleStateTerminated ModuleState = "terminated"
)

func (s ModuleState) String() string { return string(s) }
func (s ModuleState) Valid() bool {
	_, ok := moduleStateTransitions[s]
	return ok
}

// Terminal: tidak ada transisi keluar lagi
func (s ModuleState) IsTerminal() bool {
	return s == ModuleStateCompleted || s == ModuleStateTerminated
}

func (s *ModuleState) Scan(value any) error {
	if value == nil {
		*s = ""
		return nil
	}
	switch v := value.(type) {
	case string:
		*s = ModuleState(v)
	case []byte:
		*s = ModuleState(string(v))
	default:
		return fmt.Errorf("unsupported type for ModuleState: %T", value)
	}
	if !s.Valid() {
		return fmt.Errorf("invalid ModuleState: %q", *s)
	}
	return nil
}
func (s ModuleState) Value() (driver.Value, error) {
	if s == "" {
		return nil, nil
	}
	if !s.Valid() {
		return nil, fmt.Errorf("invalid ModuleState: %q", s)
	}
	return string(s), nil
}

/* =============================================================================
   STATE MACHINE
   Locked→Unlocked (modul sebelumnya completed)
   Unlocked→InProgress (aktivitas lesson pertama)
   InProgress→Completed (cumulative ≥ pass threshold)
   InProgress→Failed (cumulative < threshold, attempt masih ada)
   Failed→InProgress (retake)
   Failed→Suspended (attempt habis)
   Suspended→Appealed (banding diajukan)
   Appealed→Reinstated→Unlocked (banding diterima)
   Appealed→Terminated (banding ditolak)
============================================================================= */
var moduleStateTransitions = map[ModuleState][]ModuleState{
	ModuleStateLocked:     {ModuleStateUnlocked},
	ModuleStateUnlocked:   {ModuleStateInProgress},
	ModuleStateInProgress: {ModuleStateCompleted, ModuleStateFailed},
	ModuleStateFailed:     {ModuleStateInProgress, ModuleStateSuspended},
	ModuleStateSuspended:  {ModuleStateAppealed},
	ModuleStateAppealed:   {ModuleStateReinstated, ModuleStateTerminated},
	ModuleStateReinstated: {ModuleStateUnlocked},
	ModuleStateCompleted:  {},
	ModuleStateTerminated: {},
}

func (s ModuleState) CanTransitionTo(next ModuleState) bool {
	for _, allowed := range moduleStateTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

/* =============================================================================
   MODEL: module_progress
   Catatan:
   - 1 row = 1 user × 1 modul; dibuat saat modul reachable (Locked),
     kecuali modul pertama (langsung Unlocked saat enrollment).
   - module_progress_version = optimistic lock; recompute rubric adalah
     read-modify-write yang diserialisasi per key lewat kolom ini.
   - Invariant: attempts_count <= max_attempts dijaga di write boundary
     (guarded UPDATE di AttemptTracker), bukan di sini.
============================================================================= */
type ModuleProgressModel struct {
	// PK
	ModuleProgressID uuid.UUID `json:"module_progress_id" gorm:"column:module_progress_id;type:uuid;primaryKey"`

	// Scope
	ModuleProgressUserID   uuid.UUID `json:"module_progress_user_id" gorm:"column:module_progress_user_id;type:uuid;not null;uniqueIndex:uq_module_progress_user_module,priority:1;index:idx_module_progress_user_course,priority:1"`
	ModuleProgressCourseID uuid.UUID `json:"module_progress_course_id" gorm:"column:module_progress_course_id;type:uuid;not null;index:idx_module_progress_user_course,priority:2"`
	ModuleProgressModuleID uuid.UUID `json:"module_progress_module_id" gorm:"column:module_progress_module_id;type:uuid;not null;uniqueIndex:uq_module_progress_user_module,priority:2"`

	// Urutan modul dalam course (dipakai unlock gate N → N+1)
	ModuleProgressPosition int `json:"module_progress_position" gorm:"column:module_progress_position;not null;default:1"`

	// Attempt asesmen terminal
	ModuleProgressAttemptsCount int `json:"module_progress_attempts_count" gorm:"column:module_progress_attempts_count;not null;default:0"`
	ModuleProgressMaxAttempts   int `json:"module_progress_max_attempts" gorm:"column:module_progress_max_attempts;not null;default:3"`

	// Skor kumulatif modul + breakdown rubric terakhir
	ModuleProgressCumulativeScore float64        `json:"module_progress_cumulative_score" gorm:"column:module_progress_cumulative_score;type:numeric(6,3);not null;default:0"`
	ModuleProgressBreakdown       datatypes.JSON `json:"module_progress_breakdown,omitempty" gorm:"column:module_progress_breakdown"`

	// State machine
	ModuleProgressState ModuleState `json:"module_progress_state" gorm:"column:module_progress_state;type:varchar(16);not null;default:'locked'"`

	// Optimistic lock
	ModuleProgressVersion int `json:"module_progress_version" gorm:"column:module_progress_version;not null;default:0"`

	// Waktu lifecycle
	ModuleProgressUnlockedAt  *time.Time `json:"module_progress_unlocked_at,omitempty" gorm:"column:module_progress_unlocked_at"`
	ModuleProgressCompletedAt *time.Time `json:"module_progress_completed_at,omitempty" gorm:"column:module_progress_completed_at"`

	// Audit
	ModuleProgressCreatedAt time.Time `json:"module_progress_created_at" gorm:"column:module_progress_created_at;not null;autoCreateTime"`
	ModuleProgressUpdatedAt time.Time `json:"module_progress_updated_at" gorm:"column:module_progress_updated_at;not null;autoUpdateTime"`
}

func (ModuleProgressModel) TableName() string { return "module_progress" }

func (m *ModuleProgressModel) BeforeCreate(_ *gorm.DB) error {
	if m.ModuleProgressID == uuid.Nil {
		m.ModuleProgressID = uuid.New()
	}
	if m.ModuleProgressState == "" {
		m.ModuleProgressState = ModuleStateLocked
	}
	return nil
}

/* ===================================================================
   Helper methods: transisi state
=================================================================== */

// Transition memindahkan state + mengisi timestamp lifecycle.
// Sumber tidak valid → ErrInvalidTransition (state tidak berubah).
func (m *ModuleProgressModel) Transition(next ModuleState) error {
	if !m.ModuleProgressState.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s → %s", ErrInvalidTransition, m.ModuleProgressState, next)
	}
	now := time.Now().UTC()
	m.ModuleProgressState = next
	switch next {
	case ModuleStateUnlocked:
		m.ModuleProgressUnlockedAt = &now
	case ModuleStateCompleted:
		m.ModuleProgressCompletedAt = &now
	}
	return nil
}

func (m *ModuleProgressModel) RemainingAttempts() int {
	remaining := m.ModuleProgressMaxAttempts - m.ModuleProgressAttemptsCount
	if remaining < 0 {
		return 0
	}
	return remaining
}
