package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// --- Response types (дублируются из api/dto.go, CLI не импортирует internal/api) ---

// SettingsResponse — настройки автопубликации.
type SettingsResponse struct {
	IsEnabled             bool `json:"is_enabled"`
	CheckFrequencyMinutes int  `json:"check_frequency_minutes"`
}

// RunNowResponse — результат ручного запуска.
type RunNowResponse struct {
	PublishedCount int `json:"published_count"`
}

// RunSummary — последний run scheduler'а.
type RunSummary struct {
	Trigger           string `json:"trigger"`
	StartedAt         string `json:"started_at"`
	FinishedAt        string `json:"finished_at,omitempty"`
	Candidates        int    `json:"candidates"`
	Published         int    `json:"published"`
	Skipped           int    `json:"skipped"`
	IntegrityWarnings int    `json:"integrity_warnings"`
	Error             string `json:"error,omitempty"`
}

// StatusResponse — состояние цикла.
type StatusResponse struct {
	State                 string      `json:"state"`
	IsEnabled             bool        `json:"is_enabled"`
	CheckFrequencyMinutes int         `json:"check_frequency_minutes"`
	NextRunAt             string      `json:"next_run_at,omitempty"`
	LastRun               *RunSummary `json:"last_run,omitempty"`
}

// ScheduledArticle — строка списка запланированных статей.
type ScheduledArticle struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	ShortTitle         string `json:"short_title"`
	Author             string `json:"author"`
	ScheduledPublishAt string `json:"scheduled_publish_at"`
	ReadyToPublish     bool   `json:"ready_to_publish"`
}

// ArticleResponse — статья после изменения расписания.
type ArticleResponse struct {
	ID                 string `json:"id"`
	Title              string `json:"title"`
	IsPublished        bool   `json:"is_published"`
	IsScheduled        bool   `json:"is_scheduled"`
	ScheduledPublishAt string `json:"scheduled_publish_at,omitempty"`
}

// --- Request types ---

// UpdateSettingsRequest — частичное обновление настроек.
type UpdateSettingsRequest struct {
	IsEnabled             *bool `json:"is_enabled,omitempty"`
	CheckFrequencyMinutes *int  `json:"check_frequency_minutes,omitempty"`
}

type scheduleRequest struct {
	ScheduledPublishAt time.Time `json:"scheduled_publish_at"`
}

// APIError — ответ API с кодом ошибки.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Field      string
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("API error: HTTP %d", e.StatusCode)
	}
	if e.Field != "" {
		return fmt.Sprintf("%s: %s %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
		Field   string `json:"field"`
	} `json:"error"`
}

// --- Client ---

// Client — HTTP-клиент для Newsdesk API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient создаёт клиент для API.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// --- Settings ---

// GetSettings возвращает настройки автопубликации.
func (c *Client) GetSettings(ctx context.Context) (*SettingsResponse, error) {
	var s SettingsResponse
	err := c.do(ctx, http.MethodGet, "/api/admin/scheduler-settings", nil, &s)
	return &s, err
}

// UpdateSettings обновляет настройки.
func (c *Client) UpdateSettings(ctx context.Context, req UpdateSettingsRequest) (*SettingsResponse, error) {
	var s SettingsResponse
	err := c.do(ctx, http.MethodPut, "/api/admin/scheduler-settings", req, &s)
	return &s, err
}

// --- Scheduler ---

// RunNow запускает фазу публикации.
func (c *Client) RunNow(ctx context.Context) (int, error) {
	var r RunNowResponse
	err := c.do(ctx, http.MethodPost, "/api/admin/scheduler/run-now", nil, &r)
	return r.PublishedCount, err
}

// Status возвращает состояние scheduler'а.
func (c *Client) Status(ctx context.Context) (*StatusResponse, error) {
	var st StatusResponse
	err := c.do(ctx, http.MethodGet, "/api/admin/scheduler/status", nil, &st)
	return &st, err
}

// --- Articles ---

// ListScheduled возвращает статьи, ожидающие публикации.
func (c *Client) ListScheduled(ctx context.Context) ([]ScheduledArticle, error) {
	var articles []ScheduledArticle
	err := c.do(ctx, http.MethodGet, "/api/cms/scheduled-articles", nil, &articles)
	return articles, err
}

// Schedule планирует публикацию статьи.
func (c *Client) Schedule(ctx context.Context, id string, at time.Time) (*ArticleResponse, error) {
	var a ArticleResponse
	err := c.do(ctx, http.MethodPut, "/api/cms/articles/"+id+"/schedule", scheduleRequest{ScheduledPublishAt: at}, &a)
	return &a, err
}

// Unschedule отменяет запланированную публикацию.
func (c *Client) Unschedule(ctx context.Context, id string) (*ArticleResponse, error) {
	var a ArticleResponse
	err := c.do(ctx, http.MethodDelete, "/api/cms/articles/"+id+"/schedule", nil, &a)
	return &a, err
}

// --- HTTP helpers ---

func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkError(resp); err != nil {
		return err
	}

	if result == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func checkError(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}

	var er errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&er); err == nil {
		apiErr.Code = er.Error.Code
		apiErr.Message = er.Error.Message
		apiErr.Field = er.Error.Field
	}
	return apiErr
}
