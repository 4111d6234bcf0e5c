package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/noah-isme/backend-gerai/internal/common"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc, err := NewService(Config{
		Secret:   "test-secret",
		Issuer:   "gerai",
		Audience: "gerai-api",
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

func TestParseAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.IssueAccessToken("user-1", "", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	identity, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if identity.UserID != "user-1" {
		t.Fatalf("unexpected subject %q", identity.UserID)
	}
	if identity.Role != "" {
		t.Fatalf("unexpected role %q", identity.Role)
	}
}

func TestParseAccessTokenRoleClaim(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.IssueAccessToken("admin-1", RoleAdmin, time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	identity, err := svc.ParseAccessToken(token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if identity.Role != RoleAdmin {
		t.Fatalf("expected admin role, got %q", identity.Role)
	}
}

func TestParseAccessTokenExpired(t *testing.T) {
	svc := newTestService(t)
	past := time.Now().Add(-time.Hour)
	svc.WithNow(func() time.Time { return past })
	token, err := svc.IssueAccessToken("user-1", "", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	svc.WithNow(time.Now)
	if _, err := svc.ParseAccessToken(token); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestParseAccessTokenWrongSecret(t *testing.T) {
	svc := newTestService(t)
	other, err := NewService(Config{Secret: "other-secret", Issuer: "gerai", Audience: "gerai-api"})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	token, err := other.IssueAccessToken("user-1", "", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if _, err := svc.ParseAccessToken(token); err == nil {
		t.Fatal("expected token signed with another key to be rejected")
	}
}

func TestRequireAdmin(t *testing.T) {
	svc := newTestService(t)
	mw := Middleware{Service: svc}
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, _ := common.UserID(r.Context())
		w.Header().Set("X-User", id)
		w.WriteHeader(http.StatusNoContent)
	})

	adminToken, err := svc.IssueAccessToken("admin-1", RoleAdmin, time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	userToken, err := svc.IssueAccessToken("user-1", "", time.Minute)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	cases := []struct {
		name   string
		token  string
		status int
	}{
		{"admin allowed", adminToken, http.StatusNoContent},
		{"plain user forbidden", userToken, http.StatusForbidden},
		{"missing token unauthorized", "", http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin", nil)
			if tc.token != "" {
				req.Header.Set("Authorization", "Bearer "+tc.token)
			}
			rec := httptest.NewRecorder()
			mw.RequireAdmin(next).ServeHTTP(rec, req)
			if rec.Code != tc.status {
				t.Fatalf("expected status %d, got %d", tc.status, rec.Code)
			}
		})
	}
}
