package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/taskflow/backend/internal/middleware"
	"github.com/taskflow/backend/internal/models"
	"github.com/taskflow/backend/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type handlerTestEnv struct {
	db         *gorm.DB
	workspaces *services.WorkspaceService
	tasks      *services.TaskService
	goals      *services.GoalService
}

// newHandlerTestEnv wires services against a throwaway in-memory database.
func newHandlerTestEnv(t *testing.T) *handlerTestEnv {
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

	activities := services.NewActivityService(db)
	workspaces := services.NewWorkspaceService(db, activities)
	return &handlerTestEnv{
		db:         db,
		workspaces: workspaces,
		tasks:      services.NewTaskService(db, workspaces, activities),
		goals:      services.NewGoalService(db, activities),
	}
}

func (e *handlerTestEnv) createUser(t *testing.T, name string) *models.User {
	t.Helper()
	user := models.User{Name: name, Email: name + "@example.com", IsActive: true}
	if err := e.db.Create(&user).Error; err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return &user
}

func (e *handlerTestEnv) createWorkspace(t *testing.T, ownerID uint) *models.Workspace {
	t.Helper()
	workspace, err := e.workspaces.Create(&services.CreateWorkspaceRequest{Name: "Team Board"}, ownerID)
	if err != nil {
		t.Fatalf("create workspace: %v", err)
	}
	return workspace
}

// authAs stands in for AuthRequired by seeding the caller's identity.
func authAs(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.ContextUserID, userID)
	}
}

func postJSON(router *gin.Engine, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestTaskHandler_CreateWorkspaceScope(t *testing.T) {
	env := newHandlerTestEnv(t)
	handler := NewTaskHandler(env.tasks, env.workspaces, t.TempDir())

	owner := env.createUser(t, "owner")
	outsider := env.createUser(t, "outsider")
	workspace := env.createWorkspace(t, owner.ID)

	routerFor := func(userID uint) *gin.Engine {
		router := gin.New()
		router.POST("/api/tasks", authAs(userID), handler.Create)
		return router
	}

	t.Run("unknown workspace is 404", func(t *testing.T) {
		w := postJSON(routerFor(owner.ID), "/api/tasks", `{"workspace_id":9999,"title":"orphan"}`)
		if w.Code != http.StatusNotFound {
			t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
		}
	})

	t.Run("non-member is 403", func(t *testing.T) {
		body := fmt.Sprintf(`{"workspace_id":%d,"title":"sneaky"}`, workspace.ID)
		w := postJSON(routerFor(outsider.ID), "/api/tasks", body)
		if w.Code != http.StatusForbidden {
			t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
		}
	})

	t.Run("member creates", func(t *testing.T) {
		body := fmt.Sprintf(`{"workspace_id":%d,"title":"legit"}`, workspace.ID)
		w := postJSON(routerFor(owner.ID), "/api/tasks", body)
		if w.Code != http.StatusCreated {
			t.Errorf("status = %d, want %d", w.Code, http.StatusCreated)
		}
	})
}
