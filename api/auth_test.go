package api

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"victoweb/domain"
)

var testSecret = []byte("test-session-secret")

func newTestAuth(store Storage) *Auth {
	return NewAuth(store, testSecret, time.Hour)
}

func TestTokenRoundTrip(t *testing.T) {
	auth := newTestAuth(&stubStore{})
	token, err := auth.IssueToken(42)
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	id, err := auth.UserIDFromToken(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if id != 42 {
		t.Fatalf("expected subject 42, got %d", id)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	auth := newTestAuth(&stubStore{})
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": int64(42),
		"exp": time.Now().Add(-time.Minute).Unix(),
	})
	raw, err := expired.SignedString(testSecret)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := auth.UserIDFromToken(raw); err == nil {
		t.Fatal("expected expired token to be rejected")
	}
}

func TestTokenWrongSecretRejected(t *testing.T) {
	auth := newTestAuth(&stubStore{})
	forged := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": int64(42),
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	raw, err := forged.SignedString([]byte("some-other-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := auth.UserIDFromToken(raw); err == nil {
		t.Fatal("expected token signed with wrong secret to be rejected")
	}
}

func TestTokenFromRequestPrecedence(t *testing.T) {
	e := echo.New()

	req := httptest.NewRequest(http.MethodGet, "/?token=from-query", nil)
	req.Header.Set(echo.HeaderAuthorization, "Bearer from-header")
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "from-cookie"})
	c := e.NewContext(req, httptest.NewRecorder())
	if raw, _ := tokenFromRequest(c); raw != "from-header" {
		t.Fatalf("expected header token to win, got %q", raw)
	}

	req = httptest.NewRequest(http.MethodGet, "/?token=from-query", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: "from-cookie"})
	c = e.NewContext(req, httptest.NewRecorder())
	if raw, _ := tokenFromRequest(c); raw != "from-cookie" {
		t.Fatalf("expected cookie token to beat query, got %q", raw)
	}

	req = httptest.NewRequest(http.MethodGet, "/?token=from-query", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	if raw, _ := tokenFromRequest(c); raw != "from-query" {
		t.Fatalf("expected query token fallback, got %q", raw)
	}

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	c = e.NewContext(req, httptest.NewRecorder())
	if _, err := tokenFromRequest(c); err == nil {
		t.Fatal("expected error without any token")
	}
}

func capabilityProbe(auth *Auth, check func(domain.Capabilities) bool, token string) int {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := auth.RequireCapability(check)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})
	err := handler(c)
	if err == nil {
		return rec.Code
	}
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return http.StatusInternalServerError
}

func TestRequireCapability(t *testing.T) {
	store := &stubStore{users: []domain.User{
		{ID: 1, Username: "president", AdminRole: domain.RoleUnionPresident, IsStaff: true},
		{ID: 2, Username: "lead", AdminRole: domain.RoleCommitteeLead, IsStaff: true},
		{ID: 3, Username: "member", AdminRole: domain.RoleNone},
	}}
	auth := newTestAuth(store)
	tokenFor := func(id int64) string {
		token, err := auth.IssueToken(id)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		return token
	}

	if code := capabilityProbe(auth, canViewAdminHub, ""); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", code)
	}
	if code := capabilityProbe(auth, canViewAdminHub, tokenFor(3)); code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-staff, got %d", code)
	}
	if code := capabilityProbe(auth, canViewAdminHub, tokenFor(2)); code != http.StatusOK {
		t.Fatalf("expected staff to pass, got %d", code)
	}
	if code := capabilityProbe(auth, canPublishTasks, tokenFor(2)); code != http.StatusForbidden {
		t.Fatalf("expected committee lead to be denied task publishing, got %d", code)
	}
	if code := capabilityProbe(auth, canPublishTasks, tokenFor(1)); code != http.StatusOK {
		t.Fatalf("expected president to publish tasks, got %d", code)
	}
}

func TestSignupAndLogin(t *testing.T) {
	e := echo.New()
	store := &stubStore{}
	auth := newTestAuth(store)

	c, rec := newJSONContext(e, http.MethodPost, "/auth/signup", `{"username":"Casey","password":"hunter2hunter2","full_name":"Casey Doe"}`)
	if err := signup(store, auth)(c); err != nil {
		t.Fatalf("signup: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var session sessionResponse
	if err := sonic.Unmarshal(rec.Body.Bytes(), &session); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if session.Username != "casey" {
		t.Fatalf("expected lowercased username, got %q", session.Username)
	}
	if id, err := auth.UserIDFromToken(session.Token); err != nil || id != session.UserID {
		t.Fatalf("session token does not verify: id=%d err=%v", id, err)
	}

	// duplicate username
	c, _ = newJSONContext(e, http.MethodPost, "/auth/signup", `{"username":"casey","password":"hunter2hunter2"}`)
	if code := httpStatus(t, signup(store, auth)(c)); code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d", code)
	}

	// short password
	c, _ = newJSONContext(e, http.MethodPost, "/auth/signup", `{"username":"other","password":"short"}`)
	if code := httpStatus(t, signup(store, auth)(c)); code != http.StatusBadRequest {
		t.Fatalf("expected 400 for short password, got %d", code)
	}

	c, rec = newJSONContext(e, http.MethodPost, "/auth/login", `{"username":"casey","password":"hunter2hunter2"}`)
	if err := login(store, auth)(c); err != nil {
		t.Fatalf("login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	c, _ = newJSONContext(e, http.MethodPost, "/auth/login", `{"username":"casey","password":"wrong-password"}`)
	if code := httpStatus(t, login(store, auth)(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", code)
	}
}

func TestLoginUnknownUser(t *testing.T) {
	e := echo.New()
	hash, _ := bcrypt.GenerateFromPassword([]byte("irrelevant"), bcrypt.MinCost)
	store := &stubStore{users: []domain.User{{ID: 1, Username: "known", PasswordHash: string(hash)}}}
	auth := newTestAuth(store)

	c, _ := newJSONContext(e, http.MethodPost, "/auth/login", `{"username":"stranger","password":"whatever"}`)
	if code := httpStatus(t, login(store, auth)(c)); code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown user, got %d", code)
	}
}
