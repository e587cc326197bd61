package handlers

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestGoalHandler_CreateWorkspaceScope(t *testing.T) {
	env := newHandlerTestEnv(t)
	handler := NewGoalHandler(env.goals, env.workspaces)

	owner := env.createUser(t, "owner")
	outsider := env.createUser(t, "outsider")
	workspace := env.createWorkspace(t, owner.ID)

	routerFor := func(userID uint) *gin.Engine {
		router := gin.New()
		router.POST("/api/goals", authAs(userID), handler.Create)
		return router
	}

	goalBody := func(workspaceID uint) string {
		return fmt.Sprintf(`{"workspace_id":%d,"title":"ship it","target":5,"deadline":"2030-01-01T00:00:00Z"}`, workspaceID)
	}

	t.Run("unknown workspace is 404", func(t *testing.T) {
		w := postJSON(routerFor(owner.ID), "/api/goals", goalBody(9999))
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("non-member is 403", func(t *testing.T) {
		w := postJSON(routerFor(outsider.ID), "/api/goals", goalBody(workspace.ID))
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
		}
	})

	t.Run("member creates", func(t *testing.T) {
		w := postJSON(routerFor(owner.ID), "/api/goals", goalBody(workspace.ID))
		if w.Code != http.StatusCreated {
			t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
		}
	})
}
