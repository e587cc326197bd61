package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func performRequest(handler gin.HandlerFunc) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request, _ = http.NewRequest("GET", "/test", nil)
	handler(c)
	return w
}

func parseBody(t *testing.T, w *httptest.ResponseRecorder) Body {
	t.Helper()
	var body Body
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	return body
}

func TestSuccess(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Success(c, map[string]string{"name": "test"})
	})

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}

	body := parseBody(t, w)
	if !body.Success {
		t.Error("expected success=true")
	}
	if body.Message != "" {
		t.Errorf("expected empty message, got %q", body.Message)
	}
}

func TestCreated(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Created(c, map[string]int{"id": 1})
	})

	if w.Code != http.StatusCreated {
		t.Errorf("expected status %d, got %d", http.StatusCreated, w.Code)
	}
	if body := parseBody(t, w); !body.Success {
		t.Error("expected success=true")
	}
}

func TestError_AppError(t *testing.T) {
	tests := []struct {
		name           string
		err            *AppError
		expectedStatus int
	}{
		{"authentication", NewAuthentication("no token"), http.StatusUnauthorized},
		{"authorization", NewAuthorization("role required"), http.StatusForbidden},
		{"not found", NewNotFound("task not found"), http.StatusNotFound},
		{"duplicate", NewDuplicate("member already exists"), http.StatusConflict},
		{"domain invariant", NewDomainInvariant("owner cannot be removed"), http.StatusUnprocessableEntity},
		{"server error", NewServerError("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := performRequest(func(c *gin.Context) {
				Error(c, tt.err)
			})

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			body := parseBody(t, w)
			if body.Success {
				t.Error("expected success=false")
			}
			if body.Message != tt.err.Message {
				t.Errorf("expected message %q, got %q", tt.err.Message, body.Message)
			}
		})
	}
}

func TestError_WrappedAppError(t *testing.T) {
	// errors.As should unwrap to find the AppError
	wrapped := fmt.Errorf("handling request: %w", NewNotFound("goal not found"))
	w := performRequest(func(c *gin.Context) {
		Error(c, wrapped)
	})

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, w.Code)
	}
}

func TestError_OpaqueForUnknown(t *testing.T) {
	w := performRequest(func(c *gin.Context) {
		Error(c, errors.New("sql: connection refused at 10.0.0.5"))
	})

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status %d, got %d", http.StatusInternalServerError, w.Code)
	}
	body := parseBody(t, w)
	if body.Message != "internal server error" {
		t.Errorf("unexpected error detail leaked: %q", body.Message)
	}
}

func TestValidationFailed(t *testing.T) {
	fields := []FieldError{{Field: "title", Message: "required"}}
	w := performRequest(func(c *gin.Context) {
		ValidationFailed(c, fields)
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status %d, got %d", http.StatusBadRequest, w.Code)
	}
	body := parseBody(t, w)
	if len(body.Errors) != 1 || body.Errors[0].Field != "title" {
		t.Errorf("unexpected field errors: %+v", body.Errors)
	}
}
