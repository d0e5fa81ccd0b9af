package scheduler

import (
	"time"

	"github.com/shaiso/Newsdesk/internal/domain"
)

// Decision — результат оценки одной статьи.
type Decision struct {
	// Publish — статья due и должна быть опубликована.
	Publish bool

	// Warning — нарушение целостности данных (не фатально).
	// Статья с предупреждением никогда не публикуется.
	Warning error
}

// Evaluate решает, нужно ли публиковать статью в момент now.
// Чистая функция: не пишет в хранилище и не логирует.
func Evaluate(a *domain.Article, now time.Time) Decision {
	if err := a.CheckIntegrity(); err != nil {
		return Decision{Warning: err}
	}
	return Decision{Publish: a.ShouldPublish(now)}
}
