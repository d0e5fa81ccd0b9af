package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func ptrTime(t time.Time) *time.Time { return &t }

func TestArticle_ShouldPublish(t *testing.T) {
	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		article Article
		now     time.Time
		want    bool
	}{
		{
			name:    "due exactly at scheduled time",
			article: Article{IsScheduled: true, ScheduledPublishAt: ptrTime(due)},
			now:     due,
			want:    true,
		},
		{
			name:    "one second after",
			article: Article{IsScheduled: true, ScheduledPublishAt: ptrTime(due)},
			now:     due.Add(time.Second),
			want:    true,
		},
		{
			name:    "one second before",
			article: Article{IsScheduled: true, ScheduledPublishAt: ptrTime(due)},
			now:     due.Add(-time.Second),
			want:    false,
		},
		{
			name:    "already published",
			article: Article{IsScheduled: true, IsPublished: true, ScheduledPublishAt: ptrTime(due)},
			now:     due.Add(time.Hour),
			want:    false,
		},
		{
			name:    "not scheduled",
			article: Article{ScheduledPublishAt: ptrTime(due)},
			now:     due.Add(time.Hour),
			want:    false,
		},
		{
			name:    "missing scheduled_publish_at",
			article: Article{IsScheduled: true},
			now:     due.Add(24 * time.Hour),
			want:    false,
		},
		{
			name:    "past time at creation is immediately due",
			article: Article{IsScheduled: true, ScheduledPublishAt: ptrTime(due.AddDate(-1, 0, 0))},
			now:     due,
			want:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.article.ShouldPublish(tt.now); got != tt.want {
				t.Errorf("ShouldPublish() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArticle_ShouldPublish_ComparesInUTC(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+30*60)
	due := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	article := Article{IsScheduled: true, ScheduledPublishAt: ptrTime(due)}

	// 05:29:59 IST == 23:59:59 UTC предыдущего дня
	before := time.Date(2026, 1, 1, 5, 29, 59, 0, ist)
	if article.ShouldPublish(before) {
		t.Error("should not be due one second before in IST")
	}

	at := time.Date(2026, 1, 1, 5, 30, 0, 0, ist)
	if !article.ShouldPublish(at) {
		t.Error("should be due at the same instant expressed in IST")
	}
}

func TestArticle_DueBoundary(t *testing.T) {
	due := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	article := Article{IsScheduled: true, ScheduledPublishAt: ptrTime(due)}

	for offset := -5 * time.Minute; offset <= 5*time.Minute; offset += 30 * time.Second {
		now := due.Add(offset)
		want := offset >= 0
		if got := article.ShouldPublish(now); got != want {
			t.Errorf("offset %v: ShouldPublish() = %v, want %v", offset, got, want)
		}
	}
}

func TestArticle_CheckIntegrity(t *testing.T) {
	a := Article{ID: uuid.New(), IsScheduled: true}
	if err := a.CheckIntegrity(); !errors.Is(err, ErrMissingPublishTime) {
		t.Errorf("expected ErrMissingPublishTime, got %v", err)
	}

	a.ScheduledPublishAt = ptrTime(time.Now())
	if err := a.CheckIntegrity(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	// Опубликованная статья без времени — не проблема scheduler'а
	published := Article{IsScheduled: true, IsPublished: true}
	if err := published.CheckIntegrity(); err != nil {
		t.Errorf("unexpected error for published article: %v", err)
	}
}

func TestArticle_Schedule(t *testing.T) {
	ist := time.FixedZone("IST", 5*3600+30*60)
	at := time.Date(2026, 2, 1, 9, 0, 0, 0, ist)

	a := Article{ID: uuid.New()}
	if err := a.Schedule(at); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !a.IsScheduled {
		t.Error("article should be scheduled")
	}
	if a.ScheduledPublishAt.Location() != time.UTC {
		t.Errorf("scheduled time should be UTC, got %v", a.ScheduledPublishAt.Location())
	}
	if !a.ScheduledPublishAt.Equal(at) {
		t.Errorf("scheduled time changed: %v != %v", a.ScheduledPublishAt, at)
	}

	if err := a.Unschedule(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.IsScheduled || a.ScheduledPublishAt != nil {
		t.Error("article should be unscheduled")
	}
}

func TestArticle_ScheduleRejectsPublished(t *testing.T) {
	a := Article{IsPublished: true}
	if err := a.Schedule(time.Now()); !errors.Is(err, ErrAlreadyPublished) {
		t.Errorf("expected ErrAlreadyPublished, got %v", err)
	}
	if err := a.Unschedule(); !errors.Is(err, ErrAlreadyPublished) {
		t.Errorf("expected ErrAlreadyPublished, got %v", err)
	}
}

func TestArticle_MarkPublished(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 1, 0, time.UTC)
	a := Article{IsScheduled: true, ScheduledPublishAt: ptrTime(now.Add(-time.Second))}

	a.MarkPublished(now)

	if !a.IsPublished || a.IsScheduled {
		t.Errorf("expected published=true scheduled=false, got %v/%v", a.IsPublished, a.IsScheduled)
	}
	if a.PublishedAt == nil || !a.PublishedAt.Equal(now) {
		t.Errorf("published_at not set: %v", a.PublishedAt)
	}
	// идемпотентность: повторная оценка не публикует
	if a.ShouldPublish(now.Add(time.Hour)) {
		t.Error("published article must never be due again")
	}
}
