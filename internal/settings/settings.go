// Package settings управляет жизненным циклом настроек автопубликации.
//
// Настройки — singleton: Get создаёт запись с дефолтами при первом чтении,
// Update валидирует патч и сохраняет. Scheduler подхватывает новые значения
// при следующем чтении настроек и не прерывает фазу, которая уже идёт.
package settings

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/shaiso/Newsdesk/internal/domain"
)

// Store — хранилище singleton-записи настроек.
type Store interface {
	GetOrCreate(ctx context.Context) (domain.SchedulerSettings, error)
	Save(ctx context.Context, s domain.SchedulerSettings) (domain.SchedulerSettings, error)
}

// Listener вызывается после успешного обновления настроек.
type Listener func(domain.SchedulerSettings)

// Service — доступ к настройкам scheduler'а.
type Service struct {
	store  Store
	logger *slog.Logger

	// mu сериализует read-modify-write в Update.
	mu        sync.Mutex
	listeners []Listener
}

// New создаёт Service.
func New(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Subscribe регистрирует listener на изменения настроек.
func (s *Service) Subscribe(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Get возвращает текущие настройки. Не возвращает «not found».
func (s *Service) Get(ctx context.Context) (domain.SchedulerSettings, error) {
	settings, err := s.store.GetOrCreate(ctx)
	if err != nil {
		return domain.SchedulerSettings{}, fmt.Errorf("get settings: %w", err)
	}
	return settings, nil
}

// Update применяет патч.
//
// Недопустимая частота отклоняется с *domain.ValidationError,
// сохранённые настройки при этом не меняются.
func (s *Service) Update(ctx context.Context, patch domain.SettingsPatch) (domain.SchedulerSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if patch.CheckFrequencyMinutes != nil && !domain.IsAllowedFrequency(*patch.CheckFrequencyMinutes) {
		return domain.SchedulerSettings{}, (domain.SchedulerSettings{
			CheckFrequencyMinutes: *patch.CheckFrequencyMinutes,
		}).Validate()
	}

	current, err := s.store.GetOrCreate(ctx)
	if err != nil {
		return domain.SchedulerSettings{}, fmt.Errorf("get settings: %w", err)
	}

	next := patch.Apply(current)
	if err := next.Validate(); err != nil {
		return domain.SchedulerSettings{}, err
	}

	saved, err := s.store.Save(ctx, next)
	if err != nil {
		return domain.SchedulerSettings{}, fmt.Errorf("save settings: %w", err)
	}

	s.logger.Info("scheduler settings updated",
		"is_enabled", saved.IsEnabled,
		"check_frequency_minutes", saved.CheckFrequencyMinutes,
	)

	for _, l := range s.listeners {
		l(saved)
	}

	return saved, nil
}
