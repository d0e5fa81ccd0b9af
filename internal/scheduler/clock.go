package scheduler

import "time"

// Clock — источник времени для цикла.
// В проде — системные часы, в тестах — управляемые вручную.
type Clock interface {
	Now() time.Time
	NewTimer(d time.Duration) Timer
}

// Timer — отменяемое ожидание.
type Timer interface {
	C() <-chan time.Time
	Stop() bool
}

// SystemClock — Clock на основе пакета time.
type SystemClock struct{}

// Now возвращает текущее время в UTC.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// NewTimer создаёт time.Timer.
func (SystemClock) NewTimer(d time.Duration) Timer {
	return &systemTimer{t: time.NewTimer(d)}
}

type systemTimer struct {
	t *time.Timer
}

func (s *systemTimer) C() <-chan time.Time { return s.t.C }
func (s *systemTimer) Stop() bool          { return s.t.Stop() }
