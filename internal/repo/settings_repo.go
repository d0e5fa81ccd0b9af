package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Newsdesk/internal/domain"
)

// SettingsRepo — репозиторий singleton-строки scheduler_settings (id = 1).
type SettingsRepo struct {
	pool *pgxpool.Pool
}

// NewSettingsRepo создаёт новый SettingsRepo.
func NewSettingsRepo(pool *pgxpool.Pool) *SettingsRepo {
	return &SettingsRepo{pool: pool}
}

// GetOrCreate возвращает настройки, создавая запись с дефолтами,
// если её ещё нет. Никогда не возвращает ErrNotFound.
func (r *SettingsRepo) GetOrCreate(ctx context.Context) (domain.SchedulerSettings, error) {
	def := domain.DefaultSettings()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO scheduler_settings (id, is_enabled, check_frequency_minutes, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (id) DO NOTHING
	`, domain.SettingsID, def.IsEnabled, def.CheckFrequencyMinutes)
	if err != nil {
		return domain.SchedulerSettings{}, unavailable("ensure settings", err)
	}

	var s domain.SchedulerSettings
	err = r.pool.QueryRow(ctx, `
		SELECT is_enabled, check_frequency_minutes, updated_at
		FROM scheduler_settings
		WHERE id = $1
	`, domain.SettingsID).Scan(&s.IsEnabled, &s.CheckFrequencyMinutes, &s.UpdatedAt)
	if err != nil {
		return domain.SchedulerSettings{}, unavailable("get settings", err)
	}
	return s, nil
}

// Save записывает настройки (upsert). Валидация — на стороне settings.Service.
func (r *SettingsRepo) Save(ctx context.Context, s domain.SchedulerSettings) (domain.SchedulerSettings, error) {
	s.UpdatedAt = time.Now().UTC()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO scheduler_settings (id, is_enabled, check_frequency_minutes, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE
		SET is_enabled = EXCLUDED.is_enabled,
		    check_frequency_minutes = EXCLUDED.check_frequency_minutes,
		    updated_at = EXCLUDED.updated_at
	`, domain.SettingsID, s.IsEnabled, s.CheckFrequencyMinutes, s.UpdatedAt)
	if err != nil {
		return domain.SchedulerSettings{}, unavailable("save settings", err)
	}
	return s, nil
}
