package models

import (
	"testing"
	"time"
)

func TestComputeProgress_NoSubtasks(t *testing.T) {
	task := &Task{Status: TaskStatusTodo}
	if got := task.ComputeProgress(); got != 0 {
		t.Errorf("progress of open task without subtasks = %d, expected 0", got)
	}

	task.Status = TaskStatusDone
	if got := task.ComputeProgress(); got != 100 {
		t.Errorf("progress of done task without subtasks = %d, expected 100", got)
	}
}

func TestComputeProgress_Subtasks(t *testing.T) {
	tests := []struct {
		name      string
		completed int
		total     int
		expected  int
	}{
		{"none completed", 0, 4, 0},
		{"half completed", 2, 4, 50},
		{"all completed", 4, 4, 100},
		{"one third rounds", 1, 3, 33},
		{"two thirds rounds", 2, 3, 67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{Status: TaskStatusInProgress}
			for i := 0; i < tt.total; i++ {
				task.Subtasks = append(task.Subtasks, TaskSubtask{IsCompleted: i < tt.completed})
			}
			if got := task.ComputeProgress(); got != tt.expected {
				t.Errorf("ComputeProgress() = %d, expected %d", got, tt.expected)
			}
		})
	}
}

func TestComputeProgress_SubtasksBeatStatus(t *testing.T) {
	// When subtasks exist they drive progress even for a done task.
	task := &Task{
		Status:   TaskStatusDone,
		Subtasks: []TaskSubtask{{IsCompleted: true}, {IsCompleted: false}},
	}
	if got := task.ComputeProgress(); got != 50 {
		t.Errorf("ComputeProgress() = %d, expected 50", got)
	}
}

func TestComputeOverdue(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	tests := []struct {
		name     string
		due      *time.Time
		status   string
		expected bool
	}{
		{"no due date", nil, TaskStatusTodo, false},
		{"due in future", &future, TaskStatusTodo, false},
		{"past due and open", &past, TaskStatusInProgress, true},
		{"past due but done", &past, TaskStatusDone, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			task := &Task{DueDate: tt.due, Status: tt.status}
			if got := task.ComputeOverdue(now); got != tt.expected {
				t.Errorf("ComputeOverdue() = %v, expected %v", got, tt.expected)
			}
		})
	}
}

func TestApplyStatus_StampsCompletedAtOnce(t *testing.T) {
	task := &Task{Status: TaskStatusTodo}
	first := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	task.ApplyStatus(TaskStatusDone, first)
	if task.CompletedAt == nil || !task.CompletedAt.Equal(first) {
		t.Fatalf("CompletedAt = %v, expected %v", task.CompletedAt, first)
	}

	// Reopening keeps the original completion time
	task.ApplyStatus(TaskStatusInProgress, first.Add(time.Hour))
	if task.Status != TaskStatusInProgress {
		t.Errorf("Status = %q, expected %q", task.Status, TaskStatusInProgress)
	}
	if task.CompletedAt == nil || !task.CompletedAt.Equal(first) {
		t.Errorf("CompletedAt changed on reopen: %v", task.CompletedAt)
	}

	// Completing again does not re-stamp
	task.ApplyStatus(TaskStatusDone, first.Add(48*time.Hour))
	if !task.CompletedAt.Equal(first) {
		t.Errorf("CompletedAt re-stamped on second completion: %v", task.CompletedAt)
	}
}

func TestDecorate(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)

	task := &Task{
		Status:   TaskStatusInProgress,
		DueDate:  &past,
		Subtasks: []TaskSubtask{{IsCompleted: true}},
	}
	task.Decorate(now)

	if task.Progress != 100 {
		t.Errorf("Progress = %d, expected 100", task.Progress)
	}
	if !task.IsOverdue {
		t.Error("IsOverdue = false, expected true")
	}
}
