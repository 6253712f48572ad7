package devserver

import (
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dmitrijs2005/fintrack/internal/devserver/config"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type testEnv struct {
	srv    *httptest.Server
	client *http.Client
	clock  *fakeClock
	store  *Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.BcryptCost = bcrypt.MinCost
	cfg.MaxUploadBytes = 1 << 10

	clock := &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(cfg.BcryptCost)
	srv := httptest.NewServer(NewServer(cfg, store, nil, WithClock(clock.Now)).Routes())
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)

	return &testEnv{srv: srv, client: &http.Client{Jar: jar}, clock: clock, store: store}
}

func (e *testEnv) do(t *testing.T, method, path, body string) (int, string) {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, e.srv.URL+"/api"+path, r)
	require.NoError(t, err)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func (e *testEnv) cookie(t *testing.T, name string) string {
	t.Helper()
	u, err := url.Parse(e.srv.URL)
	require.NoError(t, err)
	for _, c := range e.client.Jar.Cookies(u) {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func (e *testEnv) login(t *testing.T) {
	t.Helper()
	_, err := e.store.CreateUser("Asha", "a@b.com", "secret123")
	require.NoError(t, err)
	status, _ := e.do(t, http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, status)
}

func messageOf(t *testing.T, body string) string {
	t.Helper()
	var out errorResponse
	require.NoError(t, json.Unmarshal([]byte(body), &out))
	return out.Message
}

func TestRegister(t *testing.T) {
	e := newTestEnv(t)

	status, body := e.do(t, http.MethodPost, "/auth/register", `{"name":"Asha","email":"a@b.com","password":"secret123"}`)
	require.Equal(t, http.StatusCreated, status)
	assert.Contains(t, body, `"email":"a@b.com"`)
	assert.Empty(t, e.cookie(t, AccessCookie), "register does not log in")

	status, body = e.do(t, http.MethodPost, "/auth/register", `{"name":"Other","email":"A@b.com","password":"secret456"}`)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "email already registered", messageOf(t, body))

	status, body = e.do(t, http.MethodPost, "/auth/register", `{"name":"","email":"nope","password":"short"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	msg := messageOf(t, body)
	assert.Contains(t, msg, "field name is required")
	assert.Contains(t, msg, "field email must be an email")

	status, _ = e.do(t, http.MethodPost, "/auth/register", `{not json`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestLoginAndMe(t *testing.T) {
	e := newTestEnv(t)

	status, body := e.do(t, http.MethodGet, "/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "missing token", messageOf(t, body))

	_, err := e.store.CreateUser("Asha", "a@b.com", "secret123")
	require.NoError(t, err)

	status, body = e.do(t, http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"wrong-one"}`)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid email or password", messageOf(t, body))

	status, body = e.do(t, http.MethodPost, "/auth/login", `{"email":"a@b.com","password":"secret123"}`)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"user":{`)
	assert.NotEmpty(t, e.cookie(t, AccessCookie))
	assert.NotEmpty(t, e.cookie(t, RefreshCookie))

	status, body = e.do(t, http.MethodGet, "/auth/me", "")
	require.Equal(t, http.StatusOK, status)
	var u User
	require.NoError(t, json.Unmarshal([]byte(body), &u))
	assert.Equal(t, "Asha", u.Name)
	assert.Equal(t, "a@b.com", u.Email)
}

func TestAccessExpiryAndRefreshRotation(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	e.clock.Advance(2 * time.Minute)

	status, body := e.do(t, http.MethodGet, "/auth/me", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "token expired", messageOf(t, body))

	oldRefresh := e.cookie(t, RefreshCookie)

	status, _ = e.do(t, http.MethodPost, "/auth/refresh", "")
	require.Equal(t, http.StatusOK, status)
	assert.NotEqual(t, oldRefresh, e.cookie(t, RefreshCookie))

	status, _ = e.do(t, http.MethodGet, "/auth/me", "")
	assert.Equal(t, http.StatusOK, status)

	// a rotated-out refresh token is rejected
	req, err := http.NewRequest(http.MethodPost, e.srv.URL+"/api/auth/refresh", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: oldRefresh})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRefresh_ExpiredRefreshToken(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	e.clock.Advance(2 * time.Hour)

	status, body := e.do(t, http.MethodPost, "/auth/refresh", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "refresh token expired", messageOf(t, body))
}

func TestLogout(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)
	refresh := e.cookie(t, RefreshCookie)

	status, _ := e.do(t, http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, status)
	assert.Empty(t, e.cookie(t, AccessCookie))
	assert.Empty(t, e.cookie(t, RefreshCookie))

	req, err := http.NewRequest(http.MethodPost, e.srv.URL+"/api/auth/refresh", nil)
	require.NoError(t, err)
	req.AddCookie(&http.Cookie{Name: RefreshCookie, Value: refresh})
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// logging out twice is harmless
	status, _ = e.do(t, http.MethodPost, "/auth/logout", "")
	assert.Equal(t, http.StatusNoContent, status)
}

func TestSettings(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	status, body := e.do(t, http.MethodGet, "/user/settings", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"theme":"light","language":"en","date_format":"DD/MM/YYYY","budget_alert_threshold":80}`, body)

	status, body = e.do(t, http.MethodPut, "/user/settings", `{"theme":"dark","budget_alert_threshold":90}`)
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `{"theme":"dark","language":"en","date_format":"DD/MM/YYYY","budget_alert_threshold":90}`, body)

	status, body = e.do(t, http.MethodPut, "/user/settings", `{"theme":"neon"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)
	assert.Contains(t, messageOf(t, body), "field theme must be one of")

	status, body = e.do(t, http.MethodPut, "/user/settings", `{"budget_alert_threshold":0}`)
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body, `"budget_alert_threshold":0`)
}

func TestCategories(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	status, body := e.do(t, http.MethodGet, "/categories", "")
	require.Equal(t, http.StatusOK, status)
	assert.JSONEq(t, `[]`, body)

	status, body = e.do(t, http.MethodPost, "/categories", `{"name":"Food","type":"expense","color":"#ff0000"}`)
	require.Equal(t, http.StatusCreated, status)
	var c Category
	require.NoError(t, json.Unmarshal([]byte(body), &c))
	require.NotEmpty(t, c.ID)

	status, _ = e.do(t, http.MethodPost, "/categories", `{"name":"Food","type":"gift"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, status)

	status, body = e.do(t, http.MethodPatch, "/categories/"+c.ID, `{"name":"Groceries"}`)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal([]byte(body), &c))
	assert.Equal(t, "Groceries", c.Name)
	assert.Equal(t, "#ff0000", c.Color)

	status, _ = e.do(t, http.MethodPatch, "/categories/missing", `{"name":"X"}`)
	assert.Equal(t, http.StatusNotFound, status)

	status, _ = e.do(t, http.MethodDelete, "/categories/"+c.ID, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, _ = e.do(t, http.MethodDelete, "/categories/"+c.ID, "")
	assert.Equal(t, http.StatusNotFound, status)
}

func postFile(t *testing.T, e *testEnv, content string) (int, string) {
	t.Helper()

	var buf strings.Builder
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "statement.csv")
	require.NoError(t, err)
	_, err = io.WriteString(fw, content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req, err := http.NewRequest(http.MethodPost, e.srv.URL+"/api/transactions/import", strings.NewReader(buf.String()))
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := e.client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(raw)
}

func TestImport(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	status, body := postFile(t, e, "date,amount,category\n2024-01-02,-12.50,Food\n2024-13-01,4,Bad\n2024-01-03,1000\n")
	require.Equal(t, http.StatusOK, status, body)
	assert.JSONEq(t, `{"imported":2,"skipped":1}`, body)

	status, _ = postFile(t, e, strings.Repeat("2024-01-02,1\n", 200))
	assert.Equal(t, http.StatusRequestEntityTooLarge, status)
}

func TestImport_RequiresFile(t *testing.T) {
	e := newTestEnv(t)
	e.login(t)

	status, body := e.do(t, http.MethodPost, "/transactions/import", `{}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "file is required", messageOf(t, body))
}

func TestParseStatement(t *testing.T) {
	txs, skipped, err := parseStatement(strings.NewReader("2024-02-01, 3.5 , Salary\nnot,a,row\n2024-02-02,x\n"))
	require.NoError(t, err)
	assert.Equal(t, 2, skipped)
	require.Len(t, txs, 1)
	assert.Equal(t, 3.5, txs[0].Amount)
	assert.Equal(t, "Salary", txs[0].Category)
	assert.Equal(t, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), txs[0].Date)
}
