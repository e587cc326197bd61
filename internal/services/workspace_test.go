package services

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/taskflow/backend/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens a throwaway in-memory database migrated with the domain
// tables. Each test gets its own shared-cache name so every connection in the
// pool sees the same data.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Workspace{},
		&models.WorkspaceMember{},
		&models.Task{},
		&models.TaskComment{},
		&models.TaskSubtask{},
		&models.TaskAttachment{},
		&models.TaskDependency{},
		&models.TaskWatcher{},
		&models.Goal{},
		&models.GoalContributor{},
		&models.GoalProgressUpdate{},
		&models.Activity{},
		&models.ActivityMention{},
		&models.ActivityRead{},
	)
	if err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, name string) *models.User {
	t.Helper()
	user := models.User{Name: name, Email: name + "@example.com", IsActive: true}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return &user
}

// newWorkspaceFixture returns a service plus a workspace owned by the first
// returned user.
func newWorkspaceFixture(t *testing.T) (*WorkspaceService, *gorm.DB, *models.User, *models.Workspace) {
	t.Helper()

	db := newTestDB(t)
	svc := NewWorkspaceService(db, NewActivityService(db))

	owner := createTestUser(t, db, "owner")
	workspace, err := svc.Create(&CreateWorkspaceRequest{Name: "Team Board"}, owner.ID)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	return svc, db, owner, workspace
}

func totalMembers(t *testing.T, db *gorm.DB, workspaceID uint) int {
	t.Helper()
	var workspace models.Workspace
	if err := db.First(&workspace, workspaceID).Error; err != nil {
		t.Fatalf("reload workspace: %v", err)
	}
	return workspace.TotalMembers
}

func TestWorkspaceService_AddMemberDuplicate(t *testing.T) {
	svc, db, owner, workspace := newWorkspaceFixture(t)
	invitee := createTestUser(t, db, "invitee")

	if _, err := svc.AddMember(workspace.ID, invitee.ID, models.RoleMember, &owner.ID); err != nil {
		t.Fatalf("first AddMember: %v", err)
	}
	if got := totalMembers(t, db, workspace.ID); got != 2 {
		t.Fatalf("total members after add = %d, want 2", got)
	}

	_, err := svc.AddMember(workspace.ID, invitee.ID, models.RoleAdmin, &owner.ID)
	if !errors.Is(err, ErrDuplicateMember) {
		t.Fatalf("second AddMember error = %v, want ErrDuplicateMember", err)
	}
	if got := totalMembers(t, db, workspace.ID); got != 2 {
		t.Errorf("total members after rejected add = %d, want 2", got)
	}
	if role := svc.GetMemberRole(workspace.ID, invitee.ID); role != models.RoleMember {
		t.Errorf("role after rejected add = %q, want %q", role, models.RoleMember)
	}
}

func TestWorkspaceService_RemoveMemberThenReInvite(t *testing.T) {
	svc, db, owner, workspace := newWorkspaceFixture(t)
	invitee := createTestUser(t, db, "invitee")

	if _, err := svc.AddMember(workspace.ID, invitee.ID, models.RoleMember, &owner.ID); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := svc.RemoveMember(workspace.ID, invitee.ID); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}
	if got := totalMembers(t, db, workspace.ID); got != 1 {
		t.Fatalf("total members after remove = %d, want 1", got)
	}
	if role := svc.GetMemberRole(workspace.ID, invitee.ID); role != "" {
		t.Fatalf("removed member still has role %q", role)
	}

	// Removing someone who is not a member is a no-op
	if err := svc.RemoveMember(workspace.ID, invitee.ID); err != nil {
		t.Fatalf("repeated RemoveMember: %v", err)
	}

	// A removed user can be invited back
	member, err := svc.AddMember(workspace.ID, invitee.ID, models.RoleViewer, &owner.ID)
	if err != nil {
		t.Fatalf("re-invite after remove: %v", err)
	}
	if member.Role != models.RoleViewer {
		t.Errorf("re-invited role = %q, want %q", member.Role, models.RoleViewer)
	}
	if got := totalMembers(t, db, workspace.ID); got != 2 {
		t.Errorf("total members after re-invite = %d, want 2", got)
	}

	var rows int64
	db.Model(&models.WorkspaceMember{}).Where("workspace_id = ?", workspace.ID).Count(&rows)
	if rows != 2 {
		t.Errorf("membership rows = %d, want 2", rows)
	}
}

func TestWorkspaceService_UpdateMemberRole(t *testing.T) {
	svc, db, owner, workspace := newWorkspaceFixture(t)
	member := createTestUser(t, db, "member")

	if _, err := svc.AddMember(workspace.ID, member.ID, models.RoleMember, &owner.ID); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	t.Run("promote member to admin", func(t *testing.T) {
		if err := svc.UpdateMemberRole(workspace.ID, member.ID, models.RoleAdmin, owner.ID); err != nil {
			t.Fatalf("UpdateMemberRole: %v", err)
		}
		if role := svc.GetMemberRole(workspace.ID, member.ID); role != models.RoleAdmin {
			t.Errorf("role after promotion = %q, want %q", role, models.RoleAdmin)
		}
		if !svc.HasPermission(workspace.ID, member.ID, models.RoleAdmin) {
			t.Error("promoted member lacks admin permission")
		}
	})

	t.Run("non-member", func(t *testing.T) {
		stranger := createTestUser(t, db, "stranger")
		err := svc.UpdateMemberRole(workspace.ID, stranger.ID, models.RoleAdmin, owner.ID)
		if !errors.Is(err, ErrMemberNotFound) {
			t.Errorf("error = %v, want ErrMemberNotFound", err)
		}
	})

	t.Run("owner is immutable", func(t *testing.T) {
		err := svc.UpdateMemberRole(workspace.ID, owner.ID, models.RoleViewer, owner.ID)
		if !errors.Is(err, ErrOwnerImmutable) {
			t.Errorf("error = %v, want ErrOwnerImmutable", err)
		}
		if role := svc.GetMemberRole(workspace.ID, owner.ID); role != models.RoleOwner {
			t.Errorf("owner role after rejected update = %q, want %q", role, models.RoleOwner)
		}
	})
}
