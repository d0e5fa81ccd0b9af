package domain

import (
	"time"
)

// SchedulerRun — одна фаза публикации.
//
// Фиксирует момент оценки T и результат обработки кандидатов.
// В БД не сохраняется: последний завершённый run держится в памяти
// и отдаётся через /api/admin/scheduler/status.
type SchedulerRun struct {
	// Trigger — таймер или ручной запуск.
	Trigger RunTrigger `json:"trigger"`

	// StartedAt — момент старта фазы (от него считается fixed-rate).
	StartedAt time.Time `json:"started_at"`

	// EvaluatedAt — «now», с которым сравнивались scheduled_publish_at.
	EvaluatedAt time.Time `json:"evaluated_at"`

	// FinishedAt — момент завершения. Nil, пока фаза идёт.
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Candidates — сколько статей is_scheduled AND NOT is_published найдено.
	Candidates int `json:"candidates"`

	// Due — сколько из них оказались due.
	Due int `json:"due"`

	// Published — сколько переходов реально применено (выигранный CAS).
	Published int `json:"published"`

	// Skipped — due-статьи, которые уже опубликовал кто-то другой.
	Skipped int `json:"skipped"`

	// IntegrityWarnings — запланированные статьи без scheduled_publish_at.
	IntegrityWarnings int `json:"integrity_warnings"`

	// Error — текст ошибки, если фаза прервана.
	Error string `json:"error,omitempty"`
}

// NewSchedulerRun создаёт run, стартовавший в момент startedAt.
func NewSchedulerRun(trigger RunTrigger, startedAt time.Time) *SchedulerRun {
	return &SchedulerRun{
		Trigger:   trigger,
		StartedAt: startedAt.UTC(),
	}
}

// Duration возвращает продолжительность фазы.
// Возвращает 0, если фаза ещё не завершена.
func (r *SchedulerRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Failed возвращает true, если фаза прервана ошибкой.
func (r *SchedulerRun) Failed() bool {
	return r.Error != ""
}

// MarkFinished завершает фазу.
func (r *SchedulerRun) MarkFinished(at time.Time) {
	utc := at.UTC()
	r.FinishedAt = &utc
}

// MarkFailed завершает фазу с ошибкой.
func (r *SchedulerRun) MarkFailed(at time.Time, err error) {
	r.MarkFinished(at)
	if err != nil {
		r.Error = err.Error()
	}
}
