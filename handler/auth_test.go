package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/GDGVITM/hackbuild-Techwiz-sub000/config"
	"github.com/GDGVITM/hackbuild-Techwiz-sub000/model"
	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

func setupAuthHandler(t *testing.T) *AuthHandler {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("correct-password"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	return NewAuthHandler(&config.Config{
		Auth: config.AuthConfig{
			JWTSecret:        "test-secret",
			TokenExpireHours: 24,
		},
		Users: []config.User{
			{
				ID:       "biz-1",
				Name:     "Acme Corp",
				Email:    "acme@example.com",
				Password: string(hash),
				Role:     "business",
			},
		},
	})
}

func TestAuthHandlerLogin(t *testing.T) {
	handler := setupAuthHandler(t)

	tests := []struct {
		name           string
		body           interface{}
		expectedStatus int
	}{
		{
			name:           "valid credentials",
			body:           LoginRequest{Email: "acme@example.com", Password: "correct-password"},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "wrong password",
			body:           LoginRequest{Email: "acme@example.com", Password: "wrong"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "unknown email",
			body:           LoginRequest{Email: "nobody@example.com", Password: "correct-password"},
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "missing fields",
			body:           map[string]string{"email": "acme@example.com"},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := gin.New()
			router.POST("/login", handler.Login)

			w := doJSON(t, router, "POST", "/login", tt.body)
			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d: %s", tt.expectedStatus, w.Code, w.Body.String())
			}
			if tt.expectedStatus != http.StatusOK {
				return
			}

			var response LoginResponse
			if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
				t.Fatalf("failed to parse response: %v", err)
			}
			if response.Token == "" {
				t.Error("expected a token")
			}
			if response.UserID != "biz-1" || response.Role != "business" {
				t.Errorf("unexpected identity: %s / %s", response.UserID, response.Role)
			}
		})
	}
}

func TestAuthHandlerGetCurrentUser(t *testing.T) {
	handler := setupAuthHandler(t)

	router := routeAs("stu-1", model.RoleStudent, "GET", "/me", handler.GetCurrentUser)
	w := doJSON(t, router, "GET", "/me", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var response map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("failed to parse response: %v", err)
	}
	if response["user_id"] != "stu-1" || response["role"] != "student" {
		t.Errorf("unexpected identity: %+v", response)
	}
}
