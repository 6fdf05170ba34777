package web

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	goBoard "github.com/MrEthical07/goBoard"
	"github.com/MrEthical07/goBoard/permission"
	"github.com/MrEthical07/goBoard/storage"
	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// backend is a fake job-board REST API.
type backend struct {
	mu       sync.Mutex
	requests []string
	lastAuth string
	lastBody map[string]any
	lastForm url.Values
	handlers map[string]http.HandlerFunc
}

func (b *backend) handle(pattern string, h http.HandlerFunc) {
	b.handlers[pattern] = h
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + strings.TrimPrefix(r.URL.Path, "/api")

	b.mu.Lock()
	b.requests = append(b.requests, key)
	b.lastAuth = r.Header.Get("Authorization")
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		b.lastBody = nil
		_ = json.NewDecoder(r.Body).Decode(&b.lastBody)
	}
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(1 << 20); err == nil {
			b.lastForm = r.MultipartForm.Value
		}
	}
	h, ok := b.handlers[key]
	b.mu.Unlock()

	if !ok {
		reply(w, http.StatusNotFound, map[string]any{"message": "not found"})
		return
	}
	h(w, r)
}

func (b *backend) called(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, r := range b.requests {
		if r == key {
			return true
		}
	}
	return false
}

func reply(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func data(v any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{"success": true, "data": v})
	}
}

func status(code int, msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reply(w, code, map[string]any{"message": msg})
	}
}

type harness struct {
	t       *testing.T
	engine  *goBoard.Engine
	backend *backend
	handler http.Handler
	cookie  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, nil)
}

// newHarnessWith lets a test adjust the config and builder before Build.
func newHarnessWith(t *testing.T, setup func(*goBoard.Config, *goBoard.Builder) *goBoard.Builder) *harness {
	t.Helper()
	be := &backend{handlers: map[string]http.HandlerFunc{}}
	be.handle("GET /categories", data([]map[string]string{{"_id": "c1", "name": "IT"}}))
	srv := httptest.NewServer(be)
	t.Cleanup(srv.Close)

	cfg := goBoard.DefaultConfig()
	cfg.API.BaseURL = srv.URL + "/api"
	b := goBoard.New().
		WithStorage(storage.NewMemory()).
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
	if setup != nil {
		b = setup(&cfg, b)
	}
	engine, err := b.WithConfig(cfg).Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	s, err := New(engine)
	require.NoError(t, err)
	return &harness{t: t, engine: engine, backend: be, handler: s.Handler()}
}

// signIn stores a session for a fresh browser context and uses it for later requests.
func (h *harness) signIn(token string, role permission.Role, name string) {
	h.t.Helper()
	id := goBoard.NewContextID()
	store, err := h.engine.Session(context.Background(), id)
	require.NoError(h.t, err)
	store.Login(context.Background(), token, role, name, "")
	h.cookie = id
}

func (h *harness) do(req *http.Request) *httptest.ResponseRecorder {
	if h.cookie != "" {
		req.AddCookie(&http.Cookie{Name: goBoard.DefaultConfig().Session.CookieName, Value: h.cookie})
	}
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	for _, c := range rec.Result().Cookies() {
		if c.Name == goBoard.DefaultConfig().Session.CookieName {
			h.cookie = c.Value
		}
	}
	return rec
}

func (h *harness) get(path string) *httptest.ResponseRecorder {
	return h.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (h *harness) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return h.do(req)
}

func (h *harness) postMultipart(path string, fields map[string]string, file, filename string, content []byte) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(h.t, w.WriteField(k, v))
	}
	if file != "" {
		part, err := w.CreateFormFile(file, filename)
		require.NoError(h.t, err)
		_, _ = part.Write(content)
	}
	require.NoError(h.t, w.Close())
	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return h.do(req)
}

func (h *harness) session() (token, name, avatar string, role permission.Role) {
	h.t.Helper()
	store, err := h.engine.Session(context.Background(), h.cookie)
	require.NoError(h.t, err)
	s := store.Current()
	return s.Token, s.DisplayName, s.AvatarURL, s.Role
}

func TestHomeListsJobs(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("GET /jobs", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "go", r.URL.Query().Get("search"))
		assert.Equal(t, "c1", r.URL.Query().Get("category"))
		data([]map[string]any{{"_id": "j1", "title": "Go Developer", "company": map[string]string{"companyName": "Acme"}}})(w, r)
	})

	rec := h.get("/?search=go&category=c1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Go Developer")
	assert.Contains(t, body, "Acme")
	assert.Contains(t, body, `value="c1" selected`)
	assert.NotEmpty(t, h.cookie, "every page issues a context cookie")
}

func TestHomeShowsBackendFailure(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("GET /jobs", status(http.StatusInternalServerError, "boom"))

	rec := h.get("/")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Job postings could not be loaded.")
}

func TestJobDetailAttachesTokenWhenSignedIn(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("GET /jobs/j1", data(map[string]any{"_id": "j1", "title": "Go Developer"}))

	rec := h.get("/jobs/j1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, h.backend.lastAuth)
	assert.NotContains(t, rec.Body.String(), `action="/jobs/j1/apply"`)

	h.signIn("tok-a", permission.Applicant, "Ann")
	rec = h.get("/jobs/j1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bearer tok-a", h.backend.lastAuth)
	assert.Contains(t, rec.Body.String(), `action="/jobs/j1/apply"`)
}

func TestJobDetailNotFound(t *testing.T) {
	h := newHarness(t)
	rec := h.get("/jobs/missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Page not found")
}

func TestApplyShowsBackendMessage(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("GET /jobs/j1", data(map[string]any{"_id": "j1", "title": "Go Developer"}))
	h.backend.handle("POST /jobs/j1/apply", status(http.StatusBadRequest, "Siz artıq müraciət etmisiniz"))
	h.signIn("tok-a", permission.Applicant, "Ann")

	rec := h.post("/jobs/j1/apply", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Siz artıq müraciət etmisiniz")
}

func TestApplyRequiresApplicant(t *testing.T) {
	h := newHarness(t)

	rec := h.post("/jobs/j1/apply", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth", rec.Header().Get("Location"))

	h.signIn("tok-c", permission.Company, "Acme")
	rec = h.post("/jobs/j1/apply", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.False(t, h.backend.called("POST /jobs/j1/apply"))
}

func TestLoginStoresSessionAndFollowsNext(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]string{"token": "tok-c", "role": "company", "displayName": "Acme"})
	})

	rec := h.post("/auth/login", url.Values{
		"email":    {"hr@acme.test"},
		"password": {"secret1"},
		"next":     {"/company-dashboard"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/company-dashboard", rec.Header().Get("Location"))

	token, name, _, role := h.session()
	assert.Equal(t, "tok-c", token)
	assert.Equal(t, "Acme", name)
	assert.Equal(t, permission.Company, role)
	assert.Equal(t, uint64(1), h.engine.Metrics().Value(goBoard.MetricSessionLogin))
}

func TestLoginRejectsOffsiteNext(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]string{"token": "tok", "role": "applicant", "displayName": "Ann"})
	})

	rec := h.post("/auth/login", url.Values{"email": {"a@b.c"}, "password": {"x"}, "next": {"//evil.example"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
}

func TestLoginFailureShowsMessage(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("POST /auth/login", status(http.StatusUnauthorized, "Email və ya şifrə yanlışdır"))

	rec := h.post("/auth/login", url.Values{"email": {"a@b.c"}, "password": {"bad"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email və ya şifrə yanlışdır")
	token, _, _, _ := h.session()
	assert.Empty(t, token)
}

func TestLoginThrottledAfterFailures(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	h := newHarnessWith(t, func(cfg *goBoard.Config, b *goBoard.Builder) *goBoard.Builder {
		cfg.Throttle.Enabled = true
		cfg.Throttle.MaxAttempts = 2
		return b.WithRedis(rdb)
	})
	h.backend.handle("POST /auth/login", status(http.StatusUnauthorized, "Email və ya şifrə yanlışdır"))

	form := url.Values{"email": {"ann@example.com"}, "password": {"bad"}}
	for i := 0; i < 2; i++ {
		rec := h.post("/auth/login", form)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := h.post("/auth/login", form)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "Too many failed attempts.")
	assert.Equal(t, uint64(1), h.engine.Metrics().Value(goBoard.MetricLoginThrottled))

	h.backend.mu.Lock()
	defer h.backend.mu.Unlock()
	logins := 0
	for _, r := range h.backend.requests {
		if r == "POST /auth/login" {
			logins++
		}
	}
	assert.Equal(t, 2, logins, "a throttled attempt never reaches the backend")
}

func TestRegisterApplicantRequiresCategory(t *testing.T) {
	h := newHarness(t)

	rec := h.post("/auth/register", url.Values{
		"email": {"ann@example.com"}, "password": {"secret1"}, "role": {"applicant"},
		"firstName": {"Ann"}, "lastName": {"Lee"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Choose a category.")
	assert.False(t, h.backend.called("POST /auth/register"))
}

func TestRegisterSwitchesToLogin(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("POST /auth/register", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusCreated, map[string]any{"success": true, "message": "Qeydiyyat uğurlu oldu."})
	})

	rec := h.post("/auth/register", url.Values{
		"email": {"ann@example.com"}, "password": {"secret1"}, "role": {"applicant"},
		"firstName": {"Ann"}, "lastName": {"Lee"}, "category": {"c1"},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Qeydiyyat uğurlu oldu. You can now sign in.")
	assert.Contains(t, body, `action="/auth/login"`)
	assert.Equal(t, "c1", h.backend.lastBody["category"])
}

func TestForgotPassword(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("POST /auth/forgot-password", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{"success": true, "message": "Link göndərildi"})
	})

	rec := h.post("/auth/forgot-password", url.Values{"email": {"ann@example.com"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Link göndərildi")
}

func TestResetPasswordValidation(t *testing.T) {
	h := newHarness(t)

	rec := h.post("/reset-password/abc", url.Values{"password": {"12345"}, "confirmPassword": {"12345"}})
	assert.Contains(t, rec.Body.String(), "at least 6 characters")

	rec = h.post("/reset-password/abc", url.Values{"password": {"123456"}, "confirmPassword": {"654321"}})
	assert.Contains(t, rec.Body.String(), "Passwords do not match.")
	assert.False(t, h.backend.called("PUT /auth/reset-password/abc"))

	h.backend.handle("PUT /auth/reset-password/abc", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{"success": true, "message": "ok"})
	})
	rec = h.post("/reset-password/abc", url.Values{"password": {"123456"}, "confirmPassword": {"123456"}})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth?reset=1", rec.Header().Get("Location"))
	assert.Equal(t, "123456", h.backend.lastBody["password"])
}

func TestLogoutClearsSession(t *testing.T) {
	h := newHarness(t)
	h.signIn("tok", permission.Applicant, "Ann")

	rec := h.post("/logout", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	token, _, _, role := h.session()
	assert.Empty(t, token)
	assert.Equal(t, permission.Anonymous, role)
}

func TestDashboardRedirectsAnonymousWithNext(t *testing.T) {
	h := newHarness(t)

	rec := h.get("/applicants")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/auth?next=%2Fapplicants", rec.Header().Get("Location"))
}

func TestUnauthorizedAPICallExpiresSession(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("GET /applicants/me", status(http.StatusUnauthorized, "Token etibarsızdır"))
	h.signIn("stale", permission.Applicant, "Ann")

	rec := h.get("/applicant-dashboard")
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth", loc.Path)
	assert.Equal(t, "1", loc.Query().Get("expired"))
	assert.Equal(t, "/applicant-dashboard", loc.Query().Get("next"))

	token, _, _, _ := h.session()
	assert.Empty(t, token, "a 401 logs the context out")
	assert.Equal(t, uint64(1), h.engine.Metrics().Value(goBoard.MetricAPIUnauthorized))

	rec = h.get(rec.Header().Get("Location"))
	assert.Contains(t, rec.Body.String(), "Your session has expired.")
}

func TestUnauthorizedApplyRedirectsThroughGuard(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("POST /jobs/j1/apply", status(http.StatusUnauthorized, "Token etibarsızdır"))
	h.signIn("stale", permission.Applicant, "Ann")

	rec := h.post("/jobs/j1/apply", url.Values{})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	loc, err := url.Parse(rec.Header().Get("Location"))
	require.NoError(t, err)
	assert.Equal(t, "/auth", loc.Path)
	assert.Equal(t, "1", loc.Query().Get("expired"))
	assert.Empty(t, loc.Query().Get("next"))

	token, _, _, _ := h.session()
	assert.Empty(t, token)
}

func TestStaleTokenOnPublicJobFallsBackToAnonymous(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("GET /jobs/j1", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			status(http.StatusUnauthorized, "Token etibarsızdır")(w, r)
			return
		}
		data(map[string]any{"_id": "j1", "title": "Go Developer"})(w, r)
	})
	h.signIn("stale", permission.Applicant, "Ann")

	rec := h.get("/jobs/j1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Go Developer")
	assert.NotContains(t, rec.Body.String(), `action="/jobs/j1/apply"`)

	token, _, _, _ := h.session()
	assert.Empty(t, token)
}

func TestApplicantProfileUpdateRefreshesIdentity(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("PUT /applicants/profile", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"_id": "a1", "firstName": "Ann", "lastName": "Lee"},
			"user":    map[string]string{"token": "tok-2", "role": "applicant", "displayName": "Ann Lee", "profilePicture": "/img/ann.png"},
		})
	})
	h.signIn("tok-1", permission.Applicant, "Ann")

	rec := h.postMultipart("/applicant-dashboard/profile", map[string]string{
		"firstName":               "Ann",
		"lastName":                "Lee",
		"skills":                  "Go, SQL ,",
		"education":               `[{"institution":"BDU","degree":"BSc","fieldOfStudy":"CS","startYear":2015,"endYear":"2019"}]`,
		"remove_education":        "0",
		"newEducationInstitution": "ADA",
		"newEducationDegree":      "MSc",
	}, "resume", "cv.pdf", []byte("%PDF"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/applicant-dashboard?saved=1", rec.Header().Get("Location"))

	form := h.backend.lastForm
	assert.Equal(t, `["Go","SQL"]`, form.Get("skills"))
	var edu []map[string]any
	require.NoError(t, json.Unmarshal([]byte(form.Get("education")), &edu))
	require.Len(t, edu, 1)
	assert.Equal(t, "ADA", edu[0]["institution"])
	assert.Equal(t, "Bearer tok-1", h.backend.lastAuth)

	token, name, avatar, role := h.session()
	assert.Equal(t, "tok-2", token)
	assert.Equal(t, "Ann Lee", name)
	assert.Equal(t, "/img/ann.png", avatar)
	assert.Equal(t, permission.Applicant, role)
}

func TestApplicantProfileValidation(t *testing.T) {
	h := newHarness(t)
	h.signIn("tok", permission.Applicant, "Ann")

	rec := h.postMultipart("/applicant-dashboard/profile", map[string]string{"firstName": "Ann"}, "", "", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "First and last name are required.")
	assert.False(t, h.backend.called("PUT /applicants/profile"))
}

func TestCompanyDashboardAndProfileLogo(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("GET /companies/me", data(map[string]any{"companyName": "Acme"}))
	h.backend.handle("GET /jobs/company/myjobs", data([]map[string]any{
		{"_id": "j1", "title": "Go Developer", "applicants": []string{"a1", "a2"}},
	}))
	h.backend.handle("PUT /companies/profile", func(w http.ResponseWriter, r *http.Request) {
		reply(w, http.StatusOK, map[string]any{
			"success": true,
			"data":    map[string]any{"companyName": "Acme Ltd", "logoUrl": "/img/acme.png"},
			"user":    map[string]string{"token": "tok-c2", "role": "company", "displayName": "Acme Ltd"},
		})
	})
	h.signIn("tok-c", permission.Company, "Acme")

	rec := h.get("/company-dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, "Go Developer")
	assert.Contains(t, body, `/company-dashboard/jobs/j1/applicants">2<`)

	rec = h.postMultipart("/company-dashboard/profile", map[string]string{"companyName": "Acme Ltd"}, "logo", "logo.png", []byte("png"))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	token, name, avatar, _ := h.session()
	assert.Equal(t, "tok-c2", token)
	assert.Equal(t, "Acme Ltd", name)
	assert.Equal(t, "/img/acme.png", avatar)
}

func TestCompanySubActionsFollowDashboardPolicy(t *testing.T) {
	h := newHarness(t)
	h.signIn("tok-a", permission.Applicant, "Ann")

	rec := h.post("/company-dashboard/jobs/j1/delete", nil)
	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/", rec.Header().Get("Location"))
	assert.False(t, h.backend.called("DELETE /jobs/j1"))
}

func TestDeleteJob(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("DELETE /jobs/j1", data(nil))
	h.signIn("tok-c", permission.Company, "Acme")

	rec := h.post("/company-dashboard/jobs/j1/delete", nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/company-dashboard?deleted=1", rec.Header().Get("Location"))
	assert.True(t, h.backend.called("DELETE /jobs/j1"))
}

func TestPostJobValidatesDeadline(t *testing.T) {
	h := newHarness(t)
	h.signIn("tok-c", permission.Company, "Acme")

	form := url.Values{
		"title": {"Go Developer"}, "description": {"Build things"}, "category": {"c1"}, "location": {"Bakı"},
		"salaryRange": {"1001-2000 AZN"}, "jobType": {"Tam İş Günü"}, "experienceLevel": {"Senior"},
		"applicationDeadline": {"not-a-date"},
	}
	rec := h.post("/post-job", form)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "Application deadline is not a valid date.")

	h.backend.handle("POST /jobs", data(map[string]any{"_id": "j9"}))
	form.Set("applicationDeadline", "2026-12-31")
	rec = h.post("/post-job", form)
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/company-dashboard?posted=1", rec.Header().Get("Location"))
	assert.Equal(t, "2026-12-31T00:00:00Z", h.backend.lastBody["applicationDeadline"])
	assert.Equal(t, "Tam İş Günü", h.backend.lastBody["jobType"])
}

func TestEditJobPrefills(t *testing.T) {
	h := newHarness(t)
	h.backend.handle("GET /jobs/j1", data(map[string]any{
		"_id": "j1", "title": "Go Developer", "category": map[string]string{"_id": "c1", "name": "IT"},
		"salaryRange": "3000+ AZN", "applicationDeadline": "2026-11-30T00:00:00Z",
	}))
	h.signIn("tok-c", permission.Company, "Acme")

	rec := h.get("/edit-job/j1")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `action="/edit-job/j1"`)
	assert.Contains(t, body, `value="2026-11-30"`)
	assert.Contains(t, body, `<option selected>3000&#43; AZN</option>`)
}

func TestAdminDashboardRequiresAdmin(t *testing.T) {
	h := newHarness(t)
	h.signIn("tok-c", permission.Company, "Acme")
	rec := h.get("/admin-dashboard")
	assert.Equal(t, http.StatusSeeOther, rec.Code)

	h.signIn("tok-x", permission.Admin, "Root")
	rec = h.get("/admin-dashboard")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Guard denials (wrong role)")
}

func TestNotFoundPage(t *testing.T) {
	h := newHarness(t)
	rec := h.get("/nowhere")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "There is nothing at /nowhere.")
	assert.NotEmpty(t, h.cookie)
}

func TestHealthzAndMetrics(t *testing.T) {
	h := newHarness(t)

	rec := h.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	h.get("/applicants")
	rec = h.get("/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "goboard_guard_denied_anonymous_total 1")
}
