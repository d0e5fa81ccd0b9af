package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/Newsdesk/internal/domain"
	"github.com/shaiso/Newsdesk/internal/repo"
	"github.com/shaiso/Newsdesk/internal/scheduler"
	"github.com/shaiso/Newsdesk/internal/settings"
	"github.com/shaiso/Newsdesk/internal/telemetry"
)

// --- fakes ---

type memSettingsStore struct {
	mu sync.Mutex
	s  *domain.SchedulerSettings
}

func (m *memSettingsStore) GetOrCreate(_ context.Context) (domain.SchedulerSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.s == nil {
		def := domain.DefaultSettings()
		m.s = &def
	}
	return *m.s, nil
}

func (m *memSettingsStore) Save(_ context.Context, s domain.SchedulerSettings) (domain.SchedulerSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.s = &s
	return s, nil
}

type fakeScheduler struct {
	published int
	err       error
	status    scheduler.Status
}

func (f *fakeScheduler) RunNow(_ context.Context) (int, error) { return f.published, f.err }
func (f *fakeScheduler) Status() scheduler.Status              { return f.status }

type fakeArticles struct {
	mu       sync.Mutex
	articles map[uuid.UUID]*domain.Article
	order    []uuid.UUID
	listErr  error
}

func newFakeArticles(list ...domain.Article) *fakeArticles {
	f := &fakeArticles{articles: make(map[uuid.UUID]*domain.Article)}
	for i := range list {
		a := list[i]
		f.articles[a.ID] = &a
		f.order = append(f.order, a.ID)
	}
	return f
}

func (f *fakeArticles) ListScheduled(_ context.Context, _ repo.ScheduledFilter) ([]domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Article
	for _, id := range f.order {
		if a := f.articles[id]; a.IsPending() {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (f *fakeArticles) GetByID(_ context.Context, id uuid.UUID) (*domain.Article, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.articles[id]
	if !ok {
		return nil, repo.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeArticles) UpdateSchedule(_ context.Context, a *domain.Article) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.articles[a.ID]
	if !ok || stored.IsPublished {
		return repo.ErrInvalidState
	}
	stored.IsScheduled = a.IsScheduled
	stored.ScheduledPublishAt = a.ScheduledPublishAt
	return nil
}

// --- helpers ---

type testEnv struct {
	mux       *http.ServeMux
	settings  *settings.Service
	scheduler *fakeScheduler
	articles  *fakeArticles
}

func newTestEnv(t *testing.T, now time.Time, articles ...domain.Article) *testEnv {
	t.Helper()

	env := &testEnv{
		settings:  settings.New(&memSettingsStore{}, telemetry.Discard()),
		scheduler: &fakeScheduler{},
		articles:  newFakeArticles(articles...),
	}

	h := NewHandler(Config{
		Settings:  env.settings,
		Scheduler: env.scheduler,
		Articles:  env.articles,
		HealthChecks: map[string]HealthCheck{
			"postgres": func(context.Context) error { return nil },
		},
		Now:    func() time.Time { return now },
		Logger: telemetry.Discard(),
	})

	env.mux = http.NewServeMux()
	h.RegisterRoutes(env.mux)
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

var now = time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC)

// --- settings ---

func TestGetSettings_Defaults(t *testing.T) {
	env := newTestEnv(t, now)

	rec := env.do(t, http.MethodGet, "/api/admin/scheduler-settings", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[SettingsResponse](t, rec)
	assert.False(t, got.IsEnabled)
	assert.Equal(t, 5, got.CheckFrequencyMinutes)
}

func TestUpdateSettings_Valid(t *testing.T) {
	env := newTestEnv(t, now)

	rec := env.do(t, http.MethodPut, "/api/admin/scheduler-settings",
		`{"is_enabled": true, "check_frequency_minutes": 15}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[SettingsResponse](t, rec)
	assert.True(t, got.IsEnabled)
	assert.Equal(t, 15, got.CheckFrequencyMinutes)

	rec = env.do(t, http.MethodGet, "/api/admin/scheduler-settings", "")
	assert.Equal(t, got, decode[SettingsResponse](t, rec))
}

func TestUpdateSettings_InvalidFrequency(t *testing.T) {
	env := newTestEnv(t, now)

	for _, freq := range []int{0, 2, 7, 10, 45, 120, -5} {
		t.Run(fmt.Sprint(freq), func(t *testing.T) {
			rec := env.do(t, http.MethodPut, "/api/admin/scheduler-settings",
				fmt.Sprintf(`{"is_enabled": true, "check_frequency_minutes": %d}`, freq))
			require.Equal(t, http.StatusBadRequest, rec.Code)

			resp := decode[ErrorResponse](t, rec)
			assert.Equal(t, ErrCodeValidation, resp.Error.Code)
			assert.Equal(t, "check_frequency_minutes", resp.Error.Field)
		})
	}

	// ничего не сохранилось
	got, err := env.settings.Get(context.Background())
	require.NoError(t, err)
	assert.False(t, got.IsEnabled)
	assert.Equal(t, 5, got.CheckFrequencyMinutes)
}

func TestUpdateSettings_InvalidBody(t *testing.T) {
	env := newTestEnv(t, now)

	for _, body := range []string{`not json`, `{"check_frequency_minutes": "5"}`, `{"unknown": 1}`} {
		rec := env.do(t, http.MethodPut, "/api/admin/scheduler-settings", body)
		assert.Equal(t, http.StatusBadRequest, rec.Code, body)
	}
}

// --- scheduler ---

func TestRunNow(t *testing.T) {
	env := newTestEnv(t, now)
	env.scheduler.published = 3

	rec := env.do(t, http.MethodPost, "/api/admin/scheduler/run-now", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"published_count": 3}`, rec.Body.String())
}

func TestRunNow_StoreUnavailable(t *testing.T) {
	env := newTestEnv(t, now)
	env.scheduler.err = fmt.Errorf("list scheduled articles: %w", repo.ErrStoreUnavailable)

	rec := env.do(t, http.MethodPost, "/api/admin/scheduler/run-now", "")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, ErrCodeStoreUnavailable, decode[ErrorResponse](t, rec).Error.Code)
}

func TestRunNow_WrongMethod(t *testing.T) {
	env := newTestEnv(t, now)

	rec := env.do(t, http.MethodGet, "/api/admin/scheduler/run-now", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestSchedulerStatus(t *testing.T) {
	env := newTestEnv(t, now)
	next := now.Add(5 * time.Minute)
	env.scheduler.status = scheduler.Status{
		State:     domain.SchedulerStateIdle,
		Settings:  domain.SchedulerSettings{IsEnabled: true, CheckFrequencyMinutes: 5},
		NextRunAt: &next,
	}

	rec := env.do(t, http.MethodGet, "/api/admin/scheduler/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[StatusResponse](t, rec)
	assert.Equal(t, domain.SchedulerStateIdle, got.State)
	assert.True(t, got.IsEnabled)
	require.NotNil(t, got.NextRunAt)
	assert.True(t, got.NextRunAt.Equal(next))
}

// --- articles ---

func TestListScheduledArticles(t *testing.T) {
	due := now.Add(-time.Second)
	exact := now
	future := now.Add(time.Second)

	a := domain.Article{ID: uuid.New(), Title: "Due", Author: "Desk", IsScheduled: true, ScheduledPublishAt: &due}
	b := domain.Article{ID: uuid.New(), Title: "Exact", IsScheduled: true, ScheduledPublishAt: &exact}
	c := domain.Article{ID: uuid.New(), Title: "Future", ShortTitle: "F", IsScheduled: true, ScheduledPublishAt: &future}
	broken := domain.Article{ID: uuid.New(), Title: "Broken", IsScheduled: true}
	published := domain.Article{ID: uuid.New(), Title: "Done", IsPublished: true, ScheduledPublishAt: &due}

	env := newTestEnv(t, now, a, b, c, broken, published)

	rec := env.do(t, http.MethodGet, "/api/cms/scheduled-articles", "")
	require.Equal(t, http.StatusOK, rec.Code)

	got := decode[[]ScheduledArticleResponse](t, rec)
	require.Len(t, got, 4)

	ready := map[string]bool{}
	for _, r := range got {
		ready[r.Title] = r.ReadyToPublish
	}
	assert.Equal(t, map[string]bool{"Due": true, "Exact": true, "Future": false, "Broken": false}, ready)
}

func TestListScheduledArticles_Empty(t *testing.T) {
	env := newTestEnv(t, now)

	rec := env.do(t, http.MethodGet, "/api/cms/scheduled-articles", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestListScheduledArticles_StoreUnavailable(t *testing.T) {
	env := newTestEnv(t, now)
	env.articles.listErr = errors.Join(repo.ErrStoreUnavailable, errors.New("dial tcp"))

	rec := env.do(t, http.MethodGet, "/api/cms/scheduled-articles", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestScheduleArticle(t *testing.T) {
	draft := domain.Article{ID: uuid.New(), Title: "Draft"}
	env := newTestEnv(t, now, draft)

	rec := env.do(t, http.MethodPut, "/api/cms/articles/"+draft.ID.String()+"/schedule",
		`{"scheduled_publish_at": "2026-01-01T05:30:00+05:30"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	got := decode[ArticleResponse](t, rec)
	assert.True(t, got.IsScheduled)
	require.NotNil(t, got.ScheduledPublishAt)
	assert.True(t, got.ScheduledPublishAt.Equal(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)))

	stored, err := env.articles.GetByID(context.Background(), draft.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsScheduled)
	assert.Equal(t, time.UTC, stored.ScheduledPublishAt.Location())
}

func TestScheduleArticle_Errors(t *testing.T) {
	published := domain.Article{ID: uuid.New(), Title: "Live", IsPublished: true}
	draft := domain.Article{ID: uuid.New(), Title: "Draft"}
	env := newTestEnv(t, now, published, draft)

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"bad id", "/api/cms/articles/nope/schedule", `{"scheduled_publish_at": "2026-01-01T00:00:00Z"}`, http.StatusBadRequest},
		{"missing time", "/api/cms/articles/" + draft.ID.String() + "/schedule", `{}`, http.StatusBadRequest},
		{"unknown article", "/api/cms/articles/" + uuid.NewString() + "/schedule", `{"scheduled_publish_at": "2026-01-01T00:00:00Z"}`, http.StatusNotFound},
		{"already published", "/api/cms/articles/" + published.ID.String() + "/schedule", `{"scheduled_publish_at": "2026-01-01T00:00:00Z"}`, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, tt.path, tt.body)
			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
		})
	}
}

func TestUnscheduleArticle(t *testing.T) {
	at := now.Add(time.Hour)
	a := domain.Article{ID: uuid.New(), Title: "Pending", IsScheduled: true, ScheduledPublishAt: &at}
	env := newTestEnv(t, now, a)

	rec := env.do(t, http.MethodDelete, "/api/cms/articles/"+a.ID.String()+"/schedule", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = env.do(t, http.MethodGet, "/api/cms/scheduled-articles", "")
	assert.JSONEq(t, `[]`, rec.Body.String())
}

// --- health ---

func TestHealth(t *testing.T) {
	env := newTestEnv(t, now)

	rec := env.do(t, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode[HealthResponse](t, rec).Status)
}

func TestHealth_Degraded(t *testing.T) {
	h := NewHandler(Config{
		HealthChecks: map[string]HealthCheck{
			"postgres": func(context.Context) error { return errors.New("connection refused") },
		},
		Logger: telemetry.Discard(),
	})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decode[HealthResponse](t, rec)
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "connection refused", resp.Checks["postgres"])
}

func TestRecovery(t *testing.T) {
	handler := Recovery(telemetry.Discard())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestLogging_RequestLoggerInContext(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	handler := Logging(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		telemetry.FromContext(r.Context()).Info("inside handler")
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/admin/scheduler/run-now", nil))
	require.Equal(t, http.StatusAccepted, rec.Code)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	for _, line := range lines {
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		assert.Equal(t, "POST", entry["method"])
		assert.Equal(t, "/api/admin/scheduler/run-now", entry["path"])
	}
	assert.Contains(t, lines[0], "inside handler")
	assert.Contains(t, lines[1], `"status":202`)
}
