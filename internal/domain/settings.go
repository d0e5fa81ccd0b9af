package domain

import (
	"fmt"
	"time"

	"github.com/samber/lo"
)

// SettingsID — id единственной строки scheduler_settings.
const SettingsID = 1

// DefaultCheckFrequencyMinutes — частота проверки по умолчанию.
const DefaultCheckFrequencyMinutes = 5

// AllowedCheckFrequencies — допустимые значения check_frequency_minutes.
var AllowedCheckFrequencies = []int{1, 5, 15, 30, 60}

// SchedulerSettings — настройки автопубликации.
//
// Одна запись на весь процесс. Создаётся с дефолтами при первом чтении,
// меняется только через админку, никогда не удаляется.
type SchedulerSettings struct {
	// IsEnabled — включена ли периодическая автопубликация.
	// Ручной запуск (run-now) работает независимо от флага.
	IsEnabled bool `json:"is_enabled"`

	// CheckFrequencyMinutes — период между запусками (fixed-rate).
	CheckFrequencyMinutes int `json:"check_frequency_minutes"`

	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultSettings возвращает настройки по умолчанию.
func DefaultSettings() SchedulerSettings {
	return SchedulerSettings{
		IsEnabled:             false,
		CheckFrequencyMinutes: DefaultCheckFrequencyMinutes,
	}
}

// Interval возвращает период проверки как time.Duration.
// Некорректное значение заменяется дефолтом.
func (s SchedulerSettings) Interval() time.Duration {
	if !IsAllowedFrequency(s.CheckFrequencyMinutes) {
		return DefaultCheckFrequencyMinutes * time.Minute
	}
	return time.Duration(s.CheckFrequencyMinutes) * time.Minute
}

// Validate проверяет настройки.
func (s SchedulerSettings) Validate() error {
	if !IsAllowedFrequency(s.CheckFrequencyMinutes) {
		return &ValidationError{
			Field:   "check_frequency_minutes",
			Message: fmt.Sprintf("must be one of %v, got %d", AllowedCheckFrequencies, s.CheckFrequencyMinutes),
		}
	}
	return nil
}

// IsAllowedFrequency проверяет, входит ли значение в допустимый набор.
func IsAllowedFrequency(minutes int) bool {
	return lo.Contains(AllowedCheckFrequencies, minutes)
}

// SettingsPatch — частичное обновление настроек.
// nil-поле означает «не менять».
type SettingsPatch struct {
	IsEnabled             *bool `json:"is_enabled,omitempty"`
	CheckFrequencyMinutes *int  `json:"check_frequency_minutes,omitempty"`
}

// Apply возвращает копию настроек с применённым патчем.
func (p SettingsPatch) Apply(s SchedulerSettings) SchedulerSettings {
	if p.IsEnabled != nil {
		s.IsEnabled = *p.IsEnabled
	}
	if p.CheckFrequencyMinutes != nil {
		s.CheckFrequencyMinutes = *p.CheckFrequencyMinutes
	}
	return s
}

// ValidationError — некорректные входные данные от админки.
// Значение никогда не «подрезается» молча.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Message)
}
