package models

import (
	"testing"
	"time"
)

func TestGoalApplyProgress_Clamps(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	deadline := now.Add(7 * 24 * time.Hour)

	tests := []struct {
		name     string
		value    float64
		expected float64
	}{
		{"within range", 5, 5},
		{"negative clamps to zero", -3, 0},
		{"above target clamps to target", 25, 10},
		{"exactly target", 10, 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := &Goal{ID: 1, Target: 10, Deadline: deadline, Status: GoalStatusActive}
			update := goal.ApplyProgress(tt.value, 42, "note", now)

			if goal.Current != tt.expected {
				t.Errorf("Current = %v, expected %v", goal.Current, tt.expected)
			}
			if update.Value != tt.expected {
				t.Errorf("update.Value = %v, expected clamped %v", update.Value, tt.expected)
			}
			if update.UserID != 42 {
				t.Errorf("update.UserID = %d, expected 42", update.UserID)
			}
		})
	}
}

func TestGoalRefreshStatus(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		current  float64
		target   float64
		deadline time.Time
		expected string
	}{
		{"target reached", 10, 10, now.Add(time.Hour), GoalStatusCompleted},
		{"target reached past deadline", 10, 10, now.Add(-time.Hour), GoalStatusCompleted},
		{"past deadline", 3, 10, now.Add(-time.Hour), GoalStatusOverdue},
		{"in progress", 3, 10, now.Add(time.Hour), GoalStatusActive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := &Goal{Current: tt.current, Target: tt.target, Deadline: tt.deadline}
			goal.RefreshStatus(now)
			if goal.Status != tt.expected {
				t.Errorf("Status = %q, expected %q", goal.Status, tt.expected)
			}
		})
	}
}

func TestGoalProgressPercentage(t *testing.T) {
	tests := []struct {
		name     string
		current  float64
		target   float64
		expected float64
	}{
		{"zero target", 5, 0, 0},
		{"half", 5, 10, 50},
		{"capped at 100", 15, 10, 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			goal := &Goal{Current: tt.current, Target: tt.target}
			if got := goal.ProgressPercentage(); got != tt.expected {
				t.Errorf("ProgressPercentage() = %v, expected %v", got, tt.expected)
			}
		})
	}
}
