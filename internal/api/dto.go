package api

import (
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/shaiso/Newsdesk/internal/domain"
	"github.com/shaiso/Newsdesk/internal/scheduler"
)

// Settings DTOs

// SettingsResponse — настройки автопубликации.
type SettingsResponse struct {
	IsEnabled             bool `json:"is_enabled"`
	CheckFrequencyMinutes int  `json:"check_frequency_minutes"`
}

// SettingsFromDomain конвертирует domain.SchedulerSettings в SettingsResponse.
func SettingsFromDomain(s domain.SchedulerSettings) SettingsResponse {
	return SettingsResponse{
		IsEnabled:             s.IsEnabled,
		CheckFrequencyMinutes: s.CheckFrequencyMinutes,
	}
}

// Scheduler DTOs

// RunNowResponse — результат ручного запуска.
type RunNowResponse struct {
	PublishedCount int `json:"published_count"`
}

// StatusResponse — состояние цикла.
type StatusResponse struct {
	State                 domain.SchedulerState `json:"state"`
	IsEnabled             bool                  `json:"is_enabled"`
	CheckFrequencyMinutes int                   `json:"check_frequency_minutes"`
	NextRunAt             *time.Time            `json:"next_run_at,omitempty"`
	LastRun               *domain.SchedulerRun  `json:"last_run,omitempty"`
}

// StatusFromScheduler конвертирует scheduler.Status в StatusResponse.
func StatusFromScheduler(st scheduler.Status) StatusResponse {
	return StatusResponse{
		State:                 st.State,
		IsEnabled:             st.Settings.IsEnabled,
		CheckFrequencyMinutes: st.Settings.CheckFrequencyMinutes,
		NextRunAt:             st.NextRunAt,
		LastRun:               st.LastRun,
	}
}

// Article DTOs

// ScheduledArticleResponse — строка списка запланированных статей.
type ScheduledArticleResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Title              string     `json:"title"`
	ShortTitle         string     `json:"short_title"`
	Author             string     `json:"author"`
	ScheduledPublishAt *time.Time `json:"scheduled_publish_at"`

	// ReadyToPublish — информационный флаг для UI, то же правило,
	// что использует scheduler.
	ReadyToPublish bool `json:"ready_to_publish"`
}

// ScheduledArticlesFromDomain конвертирует статьи, вычисляя ready_to_publish в момент now.
func ScheduledArticlesFromDomain(articles []domain.Article, now time.Time) []ScheduledArticleResponse {
	return lo.Map(articles, func(a domain.Article, _ int) ScheduledArticleResponse {
		return ScheduledArticleResponse{
			ID:                 a.ID,
			Title:              a.Title,
			ShortTitle:         a.ShortTitle,
			Author:             a.Author,
			ScheduledPublishAt: a.ScheduledPublishAt,
			ReadyToPublish:     scheduler.Evaluate(&a, now).Publish,
		}
	})
}

// ScheduleRequest — запрос на планирование публикации.
type ScheduleRequest struct {
	ScheduledPublishAt *time.Time `json:"scheduled_publish_at"`
}

// ArticleResponse — статья после изменения расписания.
type ArticleResponse struct {
	ID                 uuid.UUID  `json:"id"`
	Title              string     `json:"title"`
	IsPublished        bool       `json:"is_published"`
	IsScheduled        bool       `json:"is_scheduled"`
	ScheduledPublishAt *time.Time `json:"scheduled_publish_at,omitempty"`
	PublishedAt        *time.Time `json:"published_at,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// ArticleFromDomain конвертирует domain.Article в ArticleResponse.
func ArticleFromDomain(a *domain.Article) ArticleResponse {
	return ArticleResponse{
		ID:                 a.ID,
		Title:              a.Title,
		IsPublished:        a.IsPublished,
		IsScheduled:        a.IsScheduled,
		ScheduledPublishAt: a.ScheduledPublishAt,
		PublishedAt:        a.PublishedAt,
		UpdatedAt:          a.UpdatedAt,
	}
}
