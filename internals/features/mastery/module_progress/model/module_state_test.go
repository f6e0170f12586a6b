// file: internals/features/mastery/module_progress/model/module_state_test.go
package model

import (
	"errors"
	"testing"
)

func TestModuleStateTransitions(t *testing.T) {
	allowed := []struct {
		from, to ModuleState
	}{
		{ModuleStateLocked, ModuleStateUnlocked},
		{ModuleStateUnlocked, ModuleStateInProgress},
		{ModuleStateInProgress, ModuleStateCompleted},
		{ModuleStateInProgress, ModuleStateFailed},
		{ModuleStateFailed, ModuleStateInProgress},
		{ModuleStateFailed, ModuleStateSuspended},
		{ModuleStateSuspended, ModuleStateAppealed},
		{ModuleStateAppealed, ModuleStateReinstated},
		{ModuleStateAppealed, ModuleStateTerminated},
		{ModuleStateReinstated, ModuleStateUnlocked},
	}
	for _, tr := range allowed {
		if !tr.from.CanTransitionTo(tr.to) {
			t.Errorf("%s → %s harus valid", tr.from, tr.to)
		}
	}

	denied := []struct {
		from, to ModuleState
	}{
		{ModuleStateLocked, ModuleStateInProgress},
		{ModuleStateLocked, ModuleStateCompleted},
		{ModuleStateUnlocked, ModuleStateCompleted},
		{ModuleStateInProgress, ModuleStateSuspended},
		{ModuleStateSuspended, ModuleStateUnlocked},
		{ModuleStateCompleted, ModuleStateInProgress},
		{ModuleStateTerminated, ModuleStateUnlocked},
		{ModuleStateAppealed, ModuleStateUnlocked},
	}
	for _, tr := range denied {
		if tr.from.CanTransitionTo(tr.to) {
			t.Errorf("%s → %s harus ditolak", tr.from, tr.to)
		}
	}
}

func TestModuleStateTerminal(t *testing.T) {
	for _, s := range []ModuleState{ModuleStateCompleted, ModuleStateTerminated} {
		if !s.IsTerminal() {
			t.Errorf("%s harus terminal", s)
		}
	}
	for _, s := range []ModuleState{
		ModuleStateLocked, ModuleStateUnlocked, ModuleStateInProgress,
		ModuleStateFailed, ModuleStateSuspended, ModuleStateAppealed, ModuleStateReinstated,
	} {
		if s.IsTerminal() {
			t.Errorf("%s bukan terminal", s)
		}
	}
}

func TestTransitionSetsTimestamps(t *testing.T) {
	m := &ModuleProgressModel{ModuleProgressState: ModuleStateLocked}

	if err := m.Transition(ModuleStateUnlocked); err != nil {
		t.Fatalf("Locked → Unlocked: %v", err)
	}
	if m.ModuleProgressUnlockedAt == nil {
		t.Error("unlocked_at harus terisi setelah Unlocked")
	}

	if err := m.Transition(ModuleStateInProgress); err != nil {
		t.Fatalf("Unlocked → InProgress: %v", err)
	}
	if err := m.Transition(ModuleStateCompleted); err != nil {
		t.Fatalf("InProgress → Completed: %v", err)
	}
	if m.ModuleProgressCompletedAt == nil {
		t.Error("completed_at harus terisi setelah Completed")
	}
}

func TestTransitionInvalidKeepsState(t *testing.T) {
	m := &ModuleProgressModel{ModuleProgressState: ModuleStateLocked}

	err := m.Transition(ModuleStateCompleted)
	if !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("want ErrInvalidTransition, got %v", err)
	}
	if m.ModuleProgressState != ModuleStateLocked {
		t.Errorf("state berubah jadi %s padahal transisi ditolak", m.ModuleProgressState)
	}
}

func TestRemainingAttempts(t *testing.T) {
	m := &ModuleProgressModel{ModuleProgressAttemptsCount: 2, ModuleProgressMaxAttempts: 3}
	if got := m.RemainingAttempts(); got != 1 {
		t.Errorf("remaining = %d, want 1", got)
	}
	m.ModuleProgressAttemptsCount = 5
	if got := m.RemainingAttempts(); got != 0 {
		t.Errorf("remaining = %d, want 0 (tidak boleh negatif)", got)
	}
}
