package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"staffcore/internal/auth"
)

func TestAuthMiddlewareSetsAdmin(t *testing.T) {
	secret := "test-secret"
	token, err := auth.GenerateToken(secret, auth.Claims{
		AdminID:     "a1",
		Email:       "ops@example.com",
		Role:        auth.RoleSuperAdmin,
		MFAVerified: true,
	}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		admin, ok := GetAdmin(r.Context())
		if !ok {
			t.Fatal("expected admin in context")
		}
		if admin.AdminID != "a1" || admin.Role != auth.RoleSuperAdmin || !admin.MFAVerified {
			t.Fatalf("unexpected admin: %+v", admin)
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
}

func TestAuthMiddlewareMissingToken(t *testing.T) {
	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetAdmin(r.Context()); ok {
			t.Fatal("did not expect admin in context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
}

func TestAuthMiddlewareRejectsForgedToken(t *testing.T) {
	token, err := auth.GenerateToken("other-secret", auth.Claims{AdminID: "a1", Role: auth.RoleAdmin}, time.Hour)
	if err != nil {
		t.Fatalf("token error: %v", err)
	}

	handler := Auth("secret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := GetAdmin(r.Context()); ok {
			t.Fatal("forged token must not yield an admin context")
		}
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	handler.ServeHTTP(httptest.NewRecorder(), req)
}
