package models

import "testing"

func TestActivityMessage(t *testing.T) {
	tests := []struct {
		activityType string
		expected     string
	}{
		{ActivityTaskCreated, "created a new task"},
		{ActivityTaskCompleted, "completed a task"},
		{ActivityMemberJoined, "joined the workspace"},
		{ActivityMemberRoleChanged, "changed member role"},
		{ActivityGoalCompleted, "completed a goal"},
		{ActivityWorkspaceCreated, "created a new workspace"},
		{"unknown_type", "performed an action"},
		{"", "performed an action"},
	}

	for _, tt := range tests {
		if got := ActivityMessage(tt.activityType); got != tt.expected {
			t.Errorf("ActivityMessage(%q) = %q, expected %q", tt.activityType, got, tt.expected)
		}
	}
}
