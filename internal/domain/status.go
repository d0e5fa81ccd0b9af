package domain

// SchedulerState — состояние цикла автопубликации.
//
// Жизненный цикл:
//
//	STOPPED → IDLE → RUNNING → IDLE → ...
//	                 ↘ STOPPED (если is_enabled=false на старте фазы)
type SchedulerState string

const (
	// SchedulerStateStopped — автопубликация выключена, цикл только
	// перечитывает настройки.
	SchedulerStateStopped SchedulerState = "STOPPED"

	// SchedulerStateIdle — ждём следующего тика.
	SchedulerStateIdle SchedulerState = "IDLE"

	// SchedulerStateRunning — выполняется фаза публикации.
	SchedulerStateRunning SchedulerState = "RUNNING"
)

// String возвращает строковое представление SchedulerState.
func (s SchedulerState) String() string {
	return string(s)
}

// RunTrigger — что запустило фазу публикации.
type RunTrigger string

const (
	// RunTriggerTimer — очередной тик по расписанию.
	RunTriggerTimer RunTrigger = "timer"

	// RunTriggerManual — ручной запуск из админки (run-now).
	RunTriggerManual RunTrigger = "manual"
)
