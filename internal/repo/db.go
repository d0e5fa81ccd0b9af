package repo

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/lopezator/migrator"

	"github.com/shaiso/Newsdesk/internal/config"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// NewPool открывает пул соединений и проверяет доступность БД.
func NewPool(ctx context.Context, dbCfg config.DatabaseConfig) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(dbCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	cfg.MaxConns = 10
	if dbCfg.MaxConns > 0 {
		cfg.MaxConns = dbCfg.MaxConns
	}
	cfg.HealthCheckPeriod = 30 * time.Second

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("new pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	return pool, nil
}

// Migrate применяет миграции из migrations/ в порядке имён файлов.
// Применённые версии migrator хранит в таблице migrations,
// повторный запуск ничего не делает.
func Migrate(pool *pgxpool.Pool, logger *slog.Logger) error {
	ms, err := migrations()
	if err != nil {
		return err
	}

	m, err := migrator.New(
		migrator.WithLogger(migrator.LoggerFunc(func(msg string, args ...interface{}) {
			logger.Info(fmt.Sprintf(msg, args...), "component", "migrator")
		})),
		migrator.Migrations(ms...),
	)
	if err != nil {
		return fmt.Errorf("init migrator: %w", err)
	}

	// database/sql поверх того же пула; пул закрывает владелец
	db := stdlib.OpenDBFromPool(pool)
	if err := m.Migrate(db); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

// migrations собирает миграции из встроенных SQL-файлов.
func migrations() ([]interface{}, error) {
	entries, err := fs.ReadDir(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("read migrations: %w", err)
	}

	ms := make([]interface{}, 0, len(entries))
	for _, e := range entries {
		raw, err := migrationFiles.ReadFile("migrations/" + e.Name())
		if err != nil {
			return nil, fmt.Errorf("read migration %s: %w", e.Name(), err)
		}

		query := string(raw)
		ms = append(ms, &migrator.Migration{
			Name: strings.TrimSuffix(e.Name(), ".sql"),
			Func: func(tx *sql.Tx) error {
				_, err := tx.Exec(query)
				return err
			},
		})
	}
	return ms, nil
}
