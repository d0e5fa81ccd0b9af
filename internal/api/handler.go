package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Newsdesk/internal/domain"
	"github.com/shaiso/Newsdesk/internal/repo"
	"github.com/shaiso/Newsdesk/internal/scheduler"
	"github.com/shaiso/Newsdesk/internal/telemetry"
)

// SettingsService — чтение и обновление настроек автопубликации.
type SettingsService interface {
	Get(ctx context.Context) (domain.SchedulerSettings, error)
	Update(ctx context.Context, patch domain.SettingsPatch) (domain.SchedulerSettings, error)
}

// SchedulerControl — ручной запуск и состояние цикла.
type SchedulerControl interface {
	RunNow(ctx context.Context) (int, error)
	Status() scheduler.Status
}

// ArticleStore — операции со статьями, нужные CMS.
type ArticleStore interface {
	ListScheduled(ctx context.Context, filter repo.ScheduledFilter) ([]domain.Article, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Article, error)
	UpdateSchedule(ctx context.Context, a *domain.Article) error
}

// HealthCheck проверяет одну зависимость.
type HealthCheck func(ctx context.Context) error

// Handler — главный обработчик API с зависимостями.
type Handler struct {
	settings  SettingsService
	scheduler SchedulerControl
	articles  ArticleStore
	health    map[string]HealthCheck
	now       func() time.Time
	logger    *slog.Logger
}

// Config — конфигурация для создания Handler.
type Config struct {
	Settings  SettingsService
	Scheduler SchedulerControl
	Articles  ArticleStore

	// HealthChecks — проверки для /healthz, по имени зависимости.
	HealthChecks map[string]HealthCheck

	// Now — источник времени для флага ready_to_publish (default: time.Now).
	Now func() time.Time

	Logger *slog.Logger
}

// NewHandler создаёт новый Handler.
func NewHandler(cfg Config) *Handler {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		settings:  cfg.Settings,
		scheduler: cfg.Scheduler,
		articles:  cfg.Articles,
		health:    cfg.HealthChecks,
		now:       now,
		logger:    logger,
	}
}

// log возвращает логгер запроса из Logging, без middleware — общий логгер.
func (h *Handler) log(r *http.Request) *slog.Logger {
	if r.Context().Value(telemetry.CtxLogger) == nil {
		return h.logger
	}
	return telemetry.FromContext(r.Context())
}
