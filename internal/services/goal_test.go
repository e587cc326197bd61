package services

import (
	"testing"
	"time"

	"github.com/taskflow/backend/internal/models"
)

func TestGoalService_AddContributorDuplicateIsNoOp(t *testing.T) {
	_, db, owner, workspace := newWorkspaceFixture(t)
	svc := NewGoalService(db, NewActivityService(db))

	goal, err := svc.Create(&CreateGoalRequest{
		WorkspaceID: workspace.ID,
		Title:       "Ship the beta",
		Target:      10,
		Deadline:    time.Now().AddDate(0, 1, 0),
	}, owner.ID)
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}

	helper := createTestUser(t, db, "helper")
	first, err := svc.AddContributor(goal.ID, helper.ID, "")
	if err != nil {
		t.Fatalf("first AddContributor: %v", err)
	}
	if first.Role != models.ContributorContributor {
		t.Errorf("default role = %q, want %q", first.Role, models.ContributorContributor)
	}

	// Re-adding the same user succeeds and hands back the existing entry,
	// ignoring the requested role.
	again, err := svc.AddContributor(goal.ID, helper.ID, models.ContributorViewer)
	if err != nil {
		t.Fatalf("repeated AddContributor: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("repeated add returned entry %d, want existing %d", again.ID, first.ID)
	}
	if again.Role != models.ContributorContributor {
		t.Errorf("role after repeated add = %q, want %q", again.Role, models.ContributorContributor)
	}

	var rows int64
	db.Model(&models.GoalContributor{}).Where("goal_id = ?", goal.ID).Count(&rows)
	if rows != 2 { // creator plus helper
		t.Errorf("contributor rows = %d, want 2", rows)
	}
}
