package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrMissingPublishTime — статья помечена как запланированная,
// но scheduled_publish_at не задан. Нарушение целостности данных:
// такая статья никогда не публикуется автоматически.
var ErrMissingPublishTime = errors.New("scheduled article has no scheduled_publish_at")

// Article — статья новостного сайта.
//
// Здесь описано только подмножество полей, которое нужно для
// отложенной публикации. Остальная модель статьи живёт в CMS.
//
// Жизненный цикл публикации:
//
//	draft → scheduled (is_scheduled=true, scheduled_publish_at=T)
//	      → published (is_published=true, is_scheduled=false) когда now >= T
type Article struct {
	// ID — уникальный идентификатор статьи, не меняется.
	ID uuid.UUID `json:"id"`

	Title      string `json:"title"`
	ShortTitle string `json:"short_title,omitempty"`
	Author     string `json:"author,omitempty"`

	// IsPublished — статья видна читателям.
	// Scheduler никогда не переводит true обратно в false.
	IsPublished bool `json:"is_published"`

	// IsScheduled — у статьи есть ожидающая публикация.
	IsScheduled bool `json:"is_scheduled"`

	// ScheduledPublishAt — момент публикации (UTC).
	// Обязателен при IsScheduled=true.
	ScheduledPublishAt *time.Time `json:"scheduled_publish_at,omitempty"`

	// PublishedAt — когда статья фактически стала публичной.
	PublishedAt *time.Time `json:"published_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsPending возвращает true, если статья ждёт публикации
// (is_scheduled=true AND is_published=false). Именно такие статьи
// выбирает scheduler и показывает список в CMS.
func (a *Article) IsPending() bool {
	return a.IsScheduled && !a.IsPublished
}

// ShouldPublish — правило публикации:
//
//	is_scheduled AND NOT is_published AND scheduled_publish_at <= now
//
// Сравнение всегда в UTC. Статья без scheduled_publish_at не считается due.
func (a *Article) ShouldPublish(now time.Time) bool {
	if !a.IsPending() || a.ScheduledPublishAt == nil {
		return false
	}
	return !a.ScheduledPublishAt.UTC().After(now.UTC())
}

// CheckIntegrity проверяет поля, нужные для планирования.
// Возвращает ErrMissingPublishTime для запланированной статьи без времени.
func (a *Article) CheckIntegrity() error {
	if a.IsPending() && a.ScheduledPublishAt == nil {
		return ErrMissingPublishTime
	}
	return nil
}

// Schedule планирует публикацию статьи на момент at.
// Время нормализуется в UTC.
func (a *Article) Schedule(at time.Time) error {
	if a.IsPublished {
		return ErrAlreadyPublished
	}
	utc := at.UTC()
	a.IsScheduled = true
	a.ScheduledPublishAt = &utc
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Unschedule отменяет ожидающую публикацию.
func (a *Article) Unschedule() error {
	if a.IsPublished {
		return ErrAlreadyPublished
	}
	a.IsScheduled = false
	a.ScheduledPublishAt = nil
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// MarkPublished переводит статью в опубликованное состояние.
func (a *Article) MarkPublished(at time.Time) {
	utc := at.UTC()
	a.IsPublished = true
	a.IsScheduled = false
	a.PublishedAt = &utc
	a.UpdatedAt = utc
}

// ErrAlreadyPublished — операция невозможна для опубликованной статьи.
var ErrAlreadyPublished = errors.New("article already published")
