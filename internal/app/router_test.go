package app_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/userdir/internal/app"
	"github.com/odyssey-erp/userdir/internal/observability"
	"github.com/odyssey-erp/userdir/internal/shared"
	"github.com/odyssey-erp/userdir/internal/users"
	"github.com/odyssey-erp/userdir/internal/view"
	_ "github.com/odyssey-erp/userdir/testing"
)

type harness struct {
	router   http.Handler
	service  *users.Service
	sessions *shared.SessionManager
	redis    *miniredis.Miniredis
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	cfg := &app.Config{AppEnv: "test", AppRequestTimeout: 5 * time.Second, RateLimitPerMinute: 1000}
	sessions := shared.NewSessionManager(client, "userdir_session", "session-secret", time.Hour, false)
	csrf := shared.NewCSRFManager("csrf-secret")
	metrics := observability.NewMetrics()
	service := users.NewService(users.NewStore(), metrics)
	views, err := view.NewEngine(users.ViewNames...)
	require.NoError(t, err)

	router := app.NewRouter(app.RouterParams{
		Logger:         app.NewLogger(cfg),
		Config:         cfg,
		SessionManager: sessions,
		CSRFManager:    csrf,
		UsersHandler:   users.NewHandler(nil, service, views, csrf),
		Metrics:        metrics,
	})
	return &harness{router: router, service: service, sessions: sessions, redis: mr}
}

func (h *harness) do(req *http.Request, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rr := httptest.NewRecorder()
	h.router.ServeHTTP(rr, req)
	return rr
}

// prime performs a GET so the client holds a session cookie and CSRF token.
func (h *harness) prime(t *testing.T) (*http.Cookie, string) {
	t.Helper()
	rr := h.do(httptest.NewRequest(http.MethodGet, "/users", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	token := rr.Header().Get(shared.CSRFHeader)
	require.NotEmpty(t, token)
	var cookie *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == h.sessions.CookieName() {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	return cookie, token
}

func TestHealthzDoesNotNeedRedis(t *testing.T) {
	h := newHarness(t)
	cookie, _ := h.prime(t)
	h.redis.Close()

	rr := h.do(httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())

	rr = h.do(httptest.NewRequest(http.MethodGet, "/users", nil), cookie)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
}

func TestForgedSessionCookieStartsFreshSession(t *testing.T) {
	h := newHarness(t)
	cookie, _ := h.prime(t)

	forged := &http.Cookie{Name: h.sessions.CookieName(), Value: cookie.Value + "x"}
	rr := h.do(httptest.NewRequest(http.MethodGet, "/users", nil), forged)
	require.Equal(t, http.StatusOK, rr.Code)

	var issued *http.Cookie
	for _, c := range rr.Result().Cookies() {
		if c.Name == h.sessions.CookieName() {
			issued = c
		}
	}
	require.NotNil(t, issued)
	assert.NotEqual(t, cookie.Value, issued.Value)
}

func TestRootRedirectsToUsers(t *testing.T) {
	h := newHarness(t)

	rr := h.do(httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/users", rr.Header().Get("Location"))
}

func TestFormCreateFlowWithSessionAndFlash(t *testing.T) {
	h := newHarness(t)
	cookie, token := h.prime(t)

	form := url.Values{"name": {"Test"}, "email": {"test@test.com"}, "phone": {"123"}, shared.CSRFFormField: {token}}
	post := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(form.Encode()))
	post.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := h.do(post, cookie)
	require.Equal(t, http.StatusSeeOther, rr.Code)
	assert.Equal(t, "/users", rr.Header().Get("Location"))

	rr = h.do(httptest.NewRequest(http.MethodGet, "/users", nil), cookie)
	require.Equal(t, http.StatusOK, rr.Code)

	var doc struct {
		Flash *shared.FlashMessage `json:"flash"`
		Data  struct {
			Users []users.User `json:"Users"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &doc))
	require.NotNil(t, doc.Flash)
	assert.Equal(t, "User created", doc.Flash.Message)
	assert.Equal(t, []users.User{{ID: 1, Name: "Test", Email: "test@test.com", Phone: "123"}}, doc.Data.Users)

	rr = h.do(httptest.NewRequest(http.MethodGet, "/users", nil), cookie)
	assert.NotContains(t, rr.Body.String(), "User created")
}

func TestUnsafeRequestWithoutTokenIsForbidden(t *testing.T) {
	h := newHarness(t)
	cookie, _ := h.prime(t)

	form := url.Values{"name": {"Mallory"}}
	post := httptest.NewRequest(http.MethodPost, "/users", strings.NewReader(form.Encode()))
	post.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rr := h.do(post, cookie)

	assert.Equal(t, http.StatusForbidden, rr.Code)
	list, err := h.service.ListUsers(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestJSONClientLifecycle(t *testing.T) {
	h := newHarness(t)
	cookie, token := h.prime(t)

	jsonReq := func(method, target, body string) *http.Request {
		req := httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		req.Header.Set(shared.CSRFHeader, token)
		return req
	}

	rr := h.do(jsonReq(http.MethodPost, "/users", `{"name":"Alice","email":"alice@test.com","phone":"1"}`), cookie)
	require.Equal(t, http.StatusCreated, rr.Code)
	rr = h.do(jsonReq(http.MethodPost, "/users", `{"name":"Bob","email":"bob@test.com","phone":"2"}`), cookie)
	require.Equal(t, http.StatusCreated, rr.Code)

	rr = h.do(jsonReq(http.MethodPost, "/users/2/edit", `{"name":"Bobby","email":"bob@test.com","phone":"3"}`), cookie)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"name":"Bobby"`)

	rr = h.do(jsonReq(http.MethodPost, "/users/1/delete", ``), cookie)
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = h.do(jsonReq(http.MethodPost, "/users/1/delete", ``), cookie)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	list, err := h.service.ListUsers(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, []users.User{{ID: 2, Name: "Bobby", Email: "bob@test.com", Phone: "3"}}, list)

	metrics := h.do(httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, metrics.Code)
	assert.Contains(t, metrics.Body.String(), "userdir_users_stored 1")
	assert.Contains(t, metrics.Body.String(), `userdir_user_operations_total{op="delete",outcome="not_found"} 1`)
}

func TestSecurityHeadersOnPages(t *testing.T) {
	h := newHarness(t)

	rr := h.do(httptest.NewRequest(http.MethodGet, "/users", nil))
	assert.Equal(t, "DENY", rr.Header().Get("X-Frame-Options"))
	assert.Equal(t, "nosniff", rr.Header().Get("X-Content-Type-Options"))
}
