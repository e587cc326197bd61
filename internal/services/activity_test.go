package services

import (
	"testing"

	"github.com/taskflow/backend/internal/models"
)

func TestActivityService_RecordMessage(t *testing.T) {
	_, db, owner, workspace := newWorkspaceFixture(t)
	svc := NewActivityService(db)

	t.Run("derived from type", func(t *testing.T) {
		activity := svc.Record(&RecordActivityRequest{
			WorkspaceID: workspace.ID,
			UserID:      owner.ID,
			Type:        models.ActivityTaskCreated,
			EntityType:  models.EntityTask,
		})
		if activity == nil {
			t.Fatal("Record returned nil")
		}
		if want := models.ActivityMessage(models.ActivityTaskCreated); activity.Message != want {
			t.Errorf("message = %q, want %q", activity.Message, want)
		}
	})

	t.Run("explicit override", func(t *testing.T) {
		activity := svc.Record(&RecordActivityRequest{
			WorkspaceID: workspace.ID,
			UserID:      owner.ID,
			Type:        models.ActivityTaskUpdated,
			EntityType:  models.EntityTask,
			Message:     "moved the launch checklist into review",
		})
		if activity == nil {
			t.Fatal("Record returned nil")
		}
		if activity.Message != "moved the launch checklist into review" {
			t.Errorf("message = %q, want the explicit text", activity.Message)
		}

		var stored models.Activity
		if err := db.First(&stored, activity.ID).Error; err != nil {
			t.Fatalf("reload activity: %v", err)
		}
		if stored.Message != activity.Message {
			t.Errorf("stored message = %q, want %q", stored.Message, activity.Message)
		}
	})
}
