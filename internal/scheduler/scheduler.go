package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shaiso/Newsdesk/internal/domain"
	"github.com/shaiso/Newsdesk/internal/repo"
	"github.com/shaiso/Newsdesk/internal/telemetry"
)

// Default configuration values.
const (
	defaultStoreTimeout = 30 * time.Second
	defaultBatchSize    = 500
)

// ArticleStore — операции Content Store, нужные scheduler'у.
type ArticleStore interface {
	ListScheduled(ctx context.Context, filter repo.ScheduledFilter) ([]domain.Article, error)
	PublishIfPending(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

// SettingsReader — чтение актуальных настроек.
type SettingsReader interface {
	Get(ctx context.Context) (domain.SchedulerSettings, error)
}

// EventPublisher — уведомление о публикации статьи.
type EventPublisher interface {
	PublishArticlePublished(ctx context.Context, a *domain.Article, trigger domain.RunTrigger) error
}

// Scheduler — цикл автопубликации.
type Scheduler struct {
	articles     ArticleStore
	settings     SettingsReader
	publisher    EventPublisher
	clock        Clock
	logger       *slog.Logger
	storeTimeout time.Duration
	batchSize    int

	// runMu — в одном процессе фазы не пересекаются (таймер и run-now).
	runMu sync.Mutex

	// reloadCh будит цикл после изменения настроек.
	reloadCh chan struct{}

	mu        sync.RWMutex
	state     domain.SchedulerState
	running   bool
	current   domain.SchedulerSettings
	nextRunAt *time.Time
	lastRun   *domain.SchedulerRun

	cancelFunc context.CancelFunc
	done       chan struct{}
}

// Config — конфигурация Scheduler.
type Config struct {
	Articles  ArticleStore
	Settings  SettingsReader
	Publisher EventPublisher // опционально
	Clock     Clock          // default: SystemClock
	Logger    *slog.Logger

	StoreTimeout time.Duration // таймаут каждого запроса к хранилищу (default: 30s)
	BatchSize    int           // размер страницы кандидатов (default: 500)
}

// Status — снимок состояния для админки.
type Status struct {
	State     domain.SchedulerState    `json:"state"`
	Settings  domain.SchedulerSettings `json:"settings"`
	NextRunAt *time.Time               `json:"next_run_at,omitempty"`
	LastRun   *domain.SchedulerRun     `json:"last_run,omitempty"`
}

// New создаёт новый Scheduler.
func New(cfg Config) *Scheduler {
	storeTimeout := cfg.StoreTimeout
	if storeTimeout <= 0 {
		storeTimeout = defaultStoreTimeout
	}

	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}

	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Scheduler{
		articles:     cfg.Articles,
		settings:     cfg.Settings,
		publisher:    cfg.Publisher,
		clock:        clock,
		logger:       logger,
		storeTimeout: storeTimeout,
		batchSize:    batchSize,
		reloadCh:     make(chan struct{}, 1),
		state:        domain.SchedulerStateStopped,
		current:      domain.DefaultSettings(),
	}
}

// Start запускает цикл в отдельной горутине.
// Первая проверка настроек выполняется сразу.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	s.cancelFunc = cancel
	s.done = make(chan struct{})

	s.logger.Info("starting publish scheduler",
		"store_timeout", s.storeTimeout,
		"batch_size", s.batchSize,
	)

	go s.loop(ctx)
}

// Stop прерывает ожидание и дожидается выхода цикла.
// Фаза, которая уже идёт, доводится до конца.
func (s *Scheduler) Stop() {
	if s.cancelFunc == nil {
		return
	}
	s.cancelFunc()
	<-s.done
	s.logger.Info("publish scheduler stopped")
}

// Reload просит цикл перечитать настройки.
// Не прерывает текущую фазу: сигнал обрабатывается после неё.
func (s *Scheduler) Reload() {
	select {
	case s.reloadCh <- struct{}{}:
	default:
	}
}

// RunNow выполняет фазу публикации немедленно, вне расписания.
//
// Работает и при is_enabled=false. Не сдвигает таймер цикла.
// Возвращает число опубликованных статей или ошибку, если хранилище
// недоступно. Частичный результат наружу не отдаётся.
func (s *Scheduler) RunNow(ctx context.Context) (int, error) {
	run, err := s.runPhase(ctx, domain.RunTriggerManual, s.clock.Now())
	if err != nil {
		return 0, err
	}
	return run.Published, nil
}

// Status возвращает текущее состояние.
func (s *Scheduler) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{
		State:     s.state,
		Settings:  s.current,
		NextRunAt: s.nextRunAt,
	}
	if s.running {
		st.State = domain.SchedulerStateRunning
	}
	if s.lastRun != nil {
		last := *s.lastRun
		st.LastRun = &last
	}
	return st
}

// State возвращает текущее состояние цикла.
func (s *Scheduler) State() domain.SchedulerState {
	return s.Status().State
}

// loop — основной цикл: ждёт старта следующей фазы, перечитывает
// настройки и запускает фазу, если автопубликация включена.
func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	next := s.clock.Now()
	var lastStart time.Time
	interval := domain.DefaultSettings().Interval()

	for {
		s.setNextRunAt(next)
		timer := s.clock.NewTimer(next.Sub(s.clock.Now()))

		select {
		case <-ctx.Done():
			timer.Stop()
			s.setState(domain.SchedulerStateStopped)
			s.setNextRunAt(time.Time{})
			return

		case <-s.reloadCh:
			timer.Stop()
			settings, err := s.readSettings(ctx)
			if err != nil {
				s.logger.Warn("failed to reload scheduler settings", "error", err)
				continue
			}
			interval = settings.Interval()

			if !settings.IsEnabled {
				s.setState(domain.SchedulerStateStopped)
				continue
			}
			wasStopped := s.loopState() == domain.SchedulerStateStopped
			s.setState(domain.SchedulerStateIdle)
			next = NextAfterReload(wasStopped, lastStart, next, interval, s.clock.Now())
			continue

		case <-timer.C():
		}

		start := s.clock.Now()
		settings, err := s.readSettings(ctx)
		if err != nil {
			// настройки недоступны — повторим на следующем тике
			s.logger.Error("failed to read scheduler settings", "error", err)
			next = NextStart(start, interval, s.clock.Now())
			continue
		}
		interval = settings.Interval()

		if !settings.IsEnabled {
			if s.loopState() != domain.SchedulerStateStopped {
				s.logger.Info("auto-publish disabled, scheduler stopped")
			}
			s.setState(domain.SchedulerStateStopped)
			next = NextStart(start, interval, s.clock.Now())
			continue
		}

		if s.loopState() == domain.SchedulerStateStopped {
			s.logger.Info("auto-publish enabled", "check_frequency_minutes", settings.CheckFrequencyMinutes)
		}
		s.setState(domain.SchedulerStateIdle)

		lastStart = start
		// Stop не прерывает начатую фазу: каждый запрос к хранилищу
		// всё равно ограничен storeTimeout.
		if _, err := s.runPhase(context.WithoutCancel(ctx), domain.RunTriggerTimer, start); err != nil {
			s.logger.Error("scheduled publish run failed", "error", err)
		}

		now := s.clock.Now()
		next = NextStart(start, interval, now)
		if skipped := SkippedTicks(start, interval, next); skipped > 0 {
			s.logger.Warn("publish run overran its period, ticks skipped",
				"skipped", skipped,
				"interval", interval,
				"duration", now.Sub(start),
			)
		}
	}
}

// runPhase — тело фазы Running.
//
// 1. Находит кандидатов (is_scheduled AND NOT is_published), страницами
// 2. Фиксирует now после первой страницы
// 3. Оценивает каждую статью
// 4. Публикует due-статьи через compare-and-set
// 5. Записывает результат (лог + метрики)
//
// Ошибка хранилища прерывает фазу. Уже применённые переходы
// не откатываются: каждый из них — отдельная атомарная запись.
func (s *Scheduler) runPhase(ctx context.Context, trigger domain.RunTrigger, start time.Time) (*domain.SchedulerRun, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	s.setRunning(true)
	defer s.setRunning(false)

	logger := telemetry.WithTrigger(s.logger, string(trigger))
	run := domain.NewSchedulerRun(trigger, start)

	// Кандидаты читаются страницами по batchSize. Момент оценки T
	// фиксируется после первой страницы и общий для всей фазы.
	var after uuid.UUID
	for page := 0; ; page++ {
		listCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		candidates, err := s.articles.ListScheduled(listCtx, repo.ScheduledFilter{AfterID: after, Limit: s.batchSize})
		cancel()
		if err != nil {
			return s.finishFailed(logger, run, fmt.Errorf("list scheduled articles: %w", storeError(err)))
		}
		run.Candidates += len(candidates)

		if page == 0 {
			run.EvaluatedAt = s.clock.Now().UTC()
		}

		if err := s.publishDue(ctx, logger, run, candidates); err != nil {
			return s.finishFailed(logger, run, err)
		}

		if len(candidates) < s.batchSize {
			break
		}
		after = candidates[len(candidates)-1].ID
	}

	run.MarkFinished(s.clock.Now())
	s.recordRun(run)

	telemetry.SchedulerRunsTotal.WithLabelValues(string(trigger), "ok").Inc()
	telemetry.ArticlesPublishedTotal.WithLabelValues(string(trigger)).Add(float64(run.Published))
	telemetry.SchedulerRunDuration.WithLabelValues(string(trigger)).Observe(run.Duration().Seconds())

	logger.Info("publish run completed",
		"candidates", run.Candidates,
		"due", run.Due,
		"published", run.Published,
		"skipped", run.Skipped,
		"integrity_warnings", run.IntegrityWarnings,
	)

	return run, nil
}

// publishDue оценивает страницу кандидатов в момент run.EvaluatedAt
// и публикует due-статьи через compare-and-set.
func (s *Scheduler) publishDue(ctx context.Context, logger *slog.Logger, run *domain.SchedulerRun, candidates []domain.Article) error {
	now := run.EvaluatedAt

	for i := range candidates {
		article := &candidates[i]

		decision := Evaluate(article, now)
		if decision.Warning != nil {
			run.IntegrityWarnings++
			telemetry.IntegrityWarningsTotal.Inc()
			telemetry.WithArticleID(logger, article.ID.String()).Warn("scheduled article skipped",
				"title", article.Title,
				"warning", decision.Warning,
			)
			continue
		}
		if !decision.Publish {
			continue
		}
		run.Due++

		pubCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
		published, err := s.articles.PublishIfPending(pubCtx, article.ID, now)
		cancel()
		if err != nil {
			return fmt.Errorf("publish article %s: %w", article.ID, storeError(err))
		}

		if !published {
			// опубликовано параллельной фазой — no-op
			run.Skipped++
			telemetry.PublishConflictsTotal.Inc()
			logger.Debug("article already published by another run", "article_id", article.ID)
			continue
		}

		run.Published++
		article.MarkPublished(now)
		logger.Info("published scheduled article",
			"article_id", article.ID,
			"title", article.Title,
			"scheduled_publish_at", article.ScheduledPublishAt,
		)
		s.notify(ctx, logger, article, run.Trigger)
	}
	return nil
}

func (s *Scheduler) finishFailed(logger *slog.Logger, run *domain.SchedulerRun, err error) (*domain.SchedulerRun, error) {
	run.MarkFailed(s.clock.Now(), err)
	s.recordRun(run)

	result := "error"
	if errors.Is(err, context.Canceled) {
		// вызывающий ушёл (клиент run-now закрыл запрос), хранилище в порядке
		result = "canceled"
	}
	telemetry.SchedulerRunsTotal.WithLabelValues(string(run.Trigger), result).Inc()
	telemetry.ArticlesPublishedTotal.WithLabelValues(string(run.Trigger)).Add(float64(run.Published))

	if result == "canceled" {
		logger.Warn("publish run canceled",
			"published_before_cancel", run.Published,
			"error", err,
		)
		return run, err
	}

	logger.Error("publish run aborted",
		"published_before_abort", run.Published,
		"error", err,
	)
	return run, err
}

// notify отправляет article.published. Ошибка не фатальна:
// статья уже опубликована в БД.
func (s *Scheduler) notify(ctx context.Context, logger *slog.Logger, a *domain.Article, trigger domain.RunTrigger) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishArticlePublished(ctx, a, trigger); err != nil {
		logger.Warn("failed to publish article.published",
			"article_id", a.ID,
			"error", err,
		)
	}
}

func (s *Scheduler) readSettings(ctx context.Context) (domain.SchedulerSettings, error) {
	readCtx, cancel := context.WithTimeout(ctx, s.storeTimeout)
	defer cancel()

	settings, err := s.settings.Get(readCtx)
	if err != nil {
		return domain.SchedulerSettings{}, storeError(err)
	}

	s.mu.Lock()
	s.current = settings
	s.mu.Unlock()

	return settings, nil
}

// storeError гарантирует, что ошибка хранилища распознаётся
// через errors.Is(err, repo.ErrStoreUnavailable), включая таймауты.
// Отмена контекста вызывающим к хранилищу не относится.
func storeError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, repo.ErrStoreUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", repo.ErrStoreUnavailable, err)
}

func (s *Scheduler) setState(state domain.SchedulerState) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
}

func (s *Scheduler) loopState() domain.SchedulerState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Scheduler) setRunning(running bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = running
}

func (s *Scheduler) setNextRunAt(t time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t.IsZero() {
		s.nextRunAt = nil
		return
	}
	utc := t.UTC()
	s.nextRunAt = &utc
}

func (s *Scheduler) recordRun(run *domain.SchedulerRun) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastRun = run
}
