package services

import (
	"testing"

	"github.com/taskflow/backend/internal/models"
)

func TestJoinIDs(t *testing.T) {
	tests := []struct {
		name     string
		ids      []uint
		expected string
	}{
		{"empty", nil, ""},
		{"single", []uint{7}, "7"},
		{"multiple", []uint{1, 42, 300}, "1,42,300"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := joinIDs(tt.ids); got != tt.expected {
				t.Errorf("joinIDs(%v) = %q, expected %q", tt.ids, got, tt.expected)
			}
		})
	}
}

func TestParseLabels(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected int
	}{
		{"empty string", "", 0},
		{"invalid json", "not-json", 0},
		{"single label", `[{"name":"bug","color":"#ff0000"}]`, 1},
		{"multiple labels", `[{"name":"bug","color":"#ff0000"},{"name":"urgent","color":"#ffaa00"}]`, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			labels := ParseLabels(tt.raw)
			if len(labels) != tt.expected {
				t.Errorf("ParseLabels(%q) returned %d labels, expected %d", tt.raw, len(labels), tt.expected)
			}
		})
	}
}

func TestParseLabels_Fields(t *testing.T) {
	labels := ParseLabels(`[{"name":"backend","color":"#0066cc"}]`)
	if len(labels) != 1 {
		t.Fatalf("expected 1 label, got %d", len(labels))
	}
	if labels[0]["name"] != "backend" {
		t.Errorf("name = %q, expected %q", labels[0]["name"], "backend")
	}
	if labels[0]["color"] != "#0066cc" {
		t.Errorf("color = %q, expected %q", labels[0]["color"], "#0066cc")
	}
}

func TestTaskSortColumns_Whitelist(t *testing.T) {
	// Sort input flows into the ORDER BY clause, so only whitelisted
	// columns may resolve.
	for _, allowed := range []string{"created_at", "updated_at", "due_date", "priority", "position", "title"} {
		if _, ok := taskSortColumns[allowed]; !ok {
			t.Errorf("expected %q in sort whitelist", allowed)
		}
	}
	for _, blocked := range []string{"", "id; DROP TABLE tasks", "workspace_id"} {
		if _, ok := taskSortColumns[blocked]; ok {
			t.Errorf("did not expect %q in sort whitelist", blocked)
		}
	}
}

func TestTaskService_CreatePositionSeeding(t *testing.T) {
	workspaces, db, owner, workspace := newWorkspaceFixture(t)
	svc := NewTaskService(db, workspaces, NewActivityService(db))

	createTask := func(title, status string) *models.Task {
		t.Helper()
		task, err := svc.Create(&CreateTaskRequest{
			WorkspaceID: workspace.ID,
			Title:       title,
			Status:      status,
		}, owner.ID)
		if err != nil {
			t.Fatalf("create task %q: %v", title, err)
		}
		return task
	}

	// Positions grow from the tail of the (workspace, status) column
	for i, task := range []*models.Task{
		createTask("first", models.TaskStatusTodo),
		createTask("second", models.TaskStatusTodo),
		createTask("third", models.TaskStatusTodo),
	} {
		if task.Position != i {
			t.Errorf("todo task %d position = %d, want %d", i, task.Position, i)
		}
	}

	// A fresh status column starts over at zero
	if task := createTask("reviewing", models.TaskStatusReview); task.Position != 0 {
		t.Errorf("first review task position = %d, want 0", task.Position)
	}

	// Other workspaces keep their own numbering
	other, err := workspaces.Create(&CreateWorkspaceRequest{Name: "Second Board"}, owner.ID)
	if err != nil {
		t.Fatalf("create second workspace: %v", err)
	}
	task, err := svc.Create(&CreateTaskRequest{
		WorkspaceID: other.ID,
		Title:       "elsewhere",
		Status:      models.TaskStatusTodo,
	}, owner.ID)
	if err != nil {
		t.Fatalf("create task in second workspace: %v", err)
	}
	if task.Position != 0 {
		t.Errorf("first task of second workspace position = %d, want 0", task.Position)
	}
}
