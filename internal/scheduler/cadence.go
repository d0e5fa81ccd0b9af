package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
)

// NextStart вычисляет старт следующей фазы (fixed-rate).
//
// Период отсчитывается от старта предыдущей фазы, а не от её конца.
// Если фаза длилась дольше периода, пропущенные тики отбрасываются:
// возвращается первый момент prevStart + k*interval, не раньше now.
func NextStart(prevStart time.Time, interval time.Duration, now time.Time) time.Time {
	every := cron.Every(interval)

	next := every.Next(prevStart)
	for next.Before(now) {
		next = every.Next(next)
	}
	return next.UTC()
}

// SkippedTicks возвращает, сколько тиков было пропущено из-за overrun.
func SkippedTicks(prevStart time.Time, interval time.Duration, next time.Time) int {
	if interval <= 0 {
		return 0
	}
	n := int(next.Sub(prevStart)/interval) - 1
	if n < 0 {
		return 0
	}
	return n
}

// NextAfterReload вычисляет старт следующей фазы после того, как
// настройки изменились и автопубликация включена.
//
// Включение из Stopped запускает фазу сразу. Пока первая фаза не прошла,
// уже назначенный срок не сдвигается. Иначе период считается от
// старта последней фазы с новым интервалом.
func NextAfterReload(wasStopped bool, lastStart, next time.Time, interval time.Duration, now time.Time) time.Time {
	switch {
	case wasStopped:
		return now
	case lastStart.IsZero():
		return next
	default:
		return NextStart(lastStart, interval, now)
	}
}
