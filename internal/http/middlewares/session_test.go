package middlewares_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fadebook/fadebook/internal/auth"
	"github.com/fadebook/fadebook/internal/config"
	"github.com/fadebook/fadebook/internal/domain/user"
	"github.com/fadebook/fadebook/internal/http/middlewares"
	"github.com/fadebook/fadebook/internal/repo/postgres"
)

// fakeUserLoader serves users from memory the way the postgres repo would:
// the default read is sanitized, the refresh read includes the stored hash.
type fakeUserLoader struct {
	users map[string]user.User
}

func (f *fakeUserLoader) GetByID(_ context.Context, id string) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, postgres.ErrUserNotFound
	}
	u.PasswordHash = ""
	u.RefreshTokenHash = ""
	return u, nil
}

func (f *fakeUserLoader) GetByIDWithRefreshToken(_ context.Context, id string) (user.User, error) {
	u, ok := f.users[id]
	if !ok {
		return user.User{}, postgres.ErrUserNotFound
	}
	u.PasswordHash = ""
	return u, nil
}

func testConfig() config.Config {
	return config.Config{Env: "test"}
}

// liveManager issues valid access tokens, expiredManager issues
// already-expired ones with the same secrets.
func testManagers() (live *auth.Manager, expired *auth.Manager) {
	live = auth.NewManager("access-secret", "refresh-secret", time.Hour, 30*24*time.Hour)
	expired = auth.NewManager("access-secret", "refresh-secret", -time.Minute, 30*24*time.Hour)
	return
}

func sessionRouter(t *testing.T, mw gin.HandlerFunc) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.GET("/protected", mw, func(c *gin.Context) {
		u, ok := middlewares.UserFromContext(c)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "no user on context"})
			return
		}
		if u.RefreshTokenHash != "" || u.PasswordHash != "" {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "sensitive fields leaked"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": u.ID, "role": u.Role})
	})
	return r
}

func doProtected(r *gin.Engine, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func cookieByName(resp *http.Response, name string) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	live, _ := testManagers()
	loader := &fakeUserLoader{users: map[string]user.User{}}
	m := middlewares.NewSessionMiddleware(live, loader, testConfig())

	w := doProtected(sessionRouter(t, m.RequireAuth()))

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401, body=%s", w.Code, w.Body.String())
	}
}

func TestValidAccessTokenAuthorizes(t *testing.T) {
	live, _ := testManagers()
	loader := &fakeUserLoader{users: map[string]user.User{
		"u1": {ID: "u1", Email: "a@b.com", Role: user.RoleCustomer, IsActive: true},
	}}
	m := middlewares.NewSessionMiddleware(live, loader, testConfig())

	tok, err := live.GenerateAccessToken("u1", "a@b.com", user.RoleCustomer)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	w := doProtected(sessionRouter(t, m.RequireAuth()), &http.Cookie{Name: middlewares.AccessTokenCookie, Value: tok})

	if w.Code != http.StatusOK {
		t.Fatalf("got %d, want 200, body=%s", w.Code, w.Body.String())
	}
}

func TestBearerHeaderIsAcceptedWithoutCookie(t *testing.T) {
	live, _ := testManagers()
	loader := &fakeUserLoader{users: map[string]user.User{
		"u1": {ID: "u1", Email: "a@b.com", Role: user.RoleCustomer, IsActive: true},
	}}
	m := middlewares.NewSessionMiddleware(live, loader, testConfig())

	tok, err := live.GenerateAccessToken("u1", "a@b.com", user.RoleCustomer)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	r := sessionRouter(t, m.RequireAuth())
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got %d, want 200, body=%s", w.Code, w.Body.String())
	}
}

func TestValidTokenForMissingUserIsUnauthorized(t *testing.T) {
	live, _ := testManagers()
	loader := &fakeUserLoader{users: map[string]user.User{}}
	m := middlewares.NewSessionMiddleware(live, loader, testConfig())

	tok, _ := live.GenerateAccessToken("ghost", "a@b.com", user.RoleCustomer)

	w := doProtected(sessionRouter(t, m.RequireAuth()), &http.Cookie{Name: middlewares.AccessTokenCookie, Value: tok})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401", w.Code)
	}
}

func TestExpiredAccessWithoutRefreshCookieIsSessionExpired(t *testing.T) {
	live, expired := testManagers()
	loader := &fakeUserLoader{users: map[string]user.User{
		"u1": {ID: "u1", Email: "a@b.com", Role: user.RoleCustomer, IsActive: true},
	}}
	m := middlewares.NewSessionMiddleware(live, loader, testConfig())

	tok, _ := expired.GenerateAccessToken("u1", "a@b.com", user.RoleCustomer)

	w := doProtected(sessionRouter(t, m.RequireAuth()), &http.Cookie{Name: middlewares.AccessTokenCookie, Value: tok})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401, body=%s", w.Code, w.Body.String())
	}
}

func TestExpiredAccessWithMatchingRefreshIssuesNewAccessCookie(t *testing.T) {
	live, expired := testManagers()

	refresh, _, err := live.GenerateRefreshToken("u1")
	if err != nil {
		t.Fatalf("generate refresh: %v", err)
	}

	loader := &fakeUserLoader{users: map[string]user.User{
		"u1": {
			ID:               "u1",
			Email:            "a@b.com",
			Role:             user.RoleCustomer,
			IsActive:         true,
			RefreshTokenHash: live.HashRefreshToken(refresh),
		},
	}}
	m := middlewares.NewSessionMiddleware(live, loader, testConfig())

	stale, _ := expired.GenerateAccessToken("u1", "a@b.com", user.RoleCustomer)

	w := doProtected(sessionRouter(t, m.RequireAuth()),
		&http.Cookie{Name: middlewares.AccessTokenCookie, Value: stale},
		&http.Cookie{Name: middlewares.RefreshTokenCookie, Value: refresh},
	)

	if w.Code != http.StatusOK {
		t.Fatalf("got %d, want 200, body=%s", w.Code, w.Body.String())
	}

	resp := w.Result()

	accessCookie := cookieByName(resp, middlewares.AccessTokenCookie)
	if accessCookie == nil || accessCookie.Value == "" {
		t.Fatal("expected a fresh access-token cookie")
	}

	if _, err := live.VerifyAccessToken(accessCookie.Value); err != nil {
		t.Fatalf("reissued cookie does not verify: %v", err)
	}

	// the refresh token must not be rotated by the middleware
	if c := cookieByName(resp, middlewares.RefreshTokenCookie); c != nil {
		t.Fatalf("refresh cookie should not be touched, got %q", c.Value)
	}
}

func TestExpiredAccessWithMismatchedRefreshIsRejected(t *testing.T) {
	live, expired := testManagers()

	presented, _, _ := live.GenerateRefreshToken("u1")
	newer, _, _ := live.GenerateRefreshToken("u1")

	// a later login overwrote the stored hash
	loader := &fakeUserLoader{users: map[string]user.User{
		"u1": {
			ID:               "u1",
			Email:            "a@b.com",
			Role:             user.RoleCustomer,
			IsActive:         true,
			RefreshTokenHash: live.HashRefreshToken(newer),
		},
	}}
	m := middlewares.NewSessionMiddleware(live, loader, testConfig())

	stale, _ := expired.GenerateAccessToken("u1", "a@b.com", user.RoleCustomer)

	w := doProtected(sessionRouter(t, m.RequireAuth()),
		&http.Cookie{Name: middlewares.AccessTokenCookie, Value: stale},
		&http.Cookie{Name: middlewares.RefreshTokenCookie, Value: presented},
	)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401, body=%s", w.Code, w.Body.String())
	}

	if c := cookieByName(w.Result(), middlewares.AccessTokenCookie); c != nil {
		t.Fatal("no access cookie should be issued on a rejected refresh")
	}
}

func TestClearedStoredRefreshTokenInvalidatesOutstandingOnes(t *testing.T) {
	live, expired := testManagers()

	presented, _, _ := live.GenerateRefreshToken("u1")

	// logout cleared the column; the signed token is still within its
	// validity window but must be rejected
	loader := &fakeUserLoader{users: map[string]user.User{
		"u1": {ID: "u1", Email: "a@b.com", Role: user.RoleCustomer, IsActive: true},
	}}
	m := middlewares.NewSessionMiddleware(live, loader, testConfig())

	stale, _ := expired.GenerateAccessToken("u1", "a@b.com", user.RoleCustomer)

	w := doProtected(sessionRouter(t, m.RequireAuth()),
		&http.Cookie{Name: middlewares.AccessTokenCookie, Value: stale},
		&http.Cookie{Name: middlewares.RefreshTokenCookie, Value: presented},
	)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("got %d, want 401, body=%s", w.Code, w.Body.String())
	}
}

func TestRequireRoleForbidsNonAdmins(t *testing.T) {
	live, _ := testManagers()
	loader := &fakeUserLoader{users: map[string]user.User{
		"u1": {ID: "u1", Email: "a@b.com", Role: user.RoleCustomer, IsActive: true},
	}}
	m := middlewares.NewSessionMiddleware(live, loader, testConfig())

	tok, _ := live.GenerateAccessToken("u1", "a@b.com", user.RoleCustomer)

	w := doProtected(sessionRouter(t, m.RequireRole(user.RoleAdmin)), &http.Cookie{Name: middlewares.AccessTokenCookie, Value: tok})

	if w.Code != http.StatusForbidden {
		t.Fatalf("got %d, want 403, body=%s", w.Code, w.Body.String())
	}
}

func TestRequireRoleRunsAfterTransparentRefresh(t *testing.T) {
	live, expired := testManagers()

	refresh, _, _ := live.GenerateRefreshToken("admin-1")

	loader := &fakeUserLoader{users: map[string]user.User{
		"admin-1": {
			ID:               "admin-1",
			Email:            "root@b.com",
			Role:             user.RoleAdmin,
			IsActive:         true,
			RefreshTokenHash: live.HashRefreshToken(refresh),
		},
	}}
	m := middlewares.NewSessionMiddleware(live, loader, testConfig())

	stale, _ := expired.GenerateAccessToken("admin-1", "root@b.com", user.RoleAdmin)

	w := doProtected(sessionRouter(t, m.RequireRole(user.RoleAdmin)),
		&http.Cookie{Name: middlewares.AccessTokenCookie, Value: stale},
		&http.Cookie{Name: middlewares.RefreshTokenCookie, Value: refresh},
	)

	if w.Code != http.StatusOK {
		t.Fatalf("admin refresh path: got %d, want 200, body=%s", w.Code, w.Body.String())
	}

	if c := cookieByName(w.Result(), middlewares.AccessTokenCookie); c == nil {
		t.Fatal("expected a fresh access-token cookie on the admin path too")
	}
}
