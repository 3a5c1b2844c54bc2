package auth

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/mind-engage/mindengage-quiz/internal/rbac"
)

func testCreds(t *testing.T) Credentials {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	return Credentials{User: "admin", PassHash: string(hash)}
}

func TestLoginIssuesUsableToken(t *testing.T) {
	a := NewAuthService("k")
	h := LoginHandler(a, testCreds(t))

	form := url.Values{"username": {"admin"}, "password": {"s3cret"}}
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	claims, err := a.Parse(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, rbac.RoleAdmin, claims.Role)
	assert.Equal(t, "admin", claims.Sub)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	h := LoginHandler(NewAuthService("k"), testCreds(t))
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(`{"username":"admin","password":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestIdentify(t *testing.T) {
	a := NewAuthService("k")
	var gotRole, gotSub string
	h := Identify(a, rbac.RoleGuest)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole, gotSub = rbac.RoleFromContext(r.Context()), SubjectFromContext(r.Context())
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, rbac.RoleGuest, gotRole)
	assert.Equal(t, Anonymous, gotSub)

	tok, err := a.IssueJWT("admin", rbac.RoleAdmin)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, rbac.RoleAdmin, gotRole)
	assert.Equal(t, "admin", gotSub)

	other, _ := NewAuthService("other").IssueJWT("x", rbac.RoleAdmin)
	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: other})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, rbac.RoleGuest, gotRole)
}
