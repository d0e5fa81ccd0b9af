// Package scheduler реализует автопубликацию запланированных статей.
//
// Scheduler периодически (fixed-rate, check_frequency_minutes) находит
// статьи is_scheduled=true AND is_published=false и публикует те,
// у которых scheduled_publish_at <= now.
//
// Структура:
//   - scheduler.go — цикл Stopped/Idle/Running, ручной запуск RunNow
//   - evaluator.go — чистое правило публикации
//   - cadence.go   — вычисление старта следующей фазы
//   - clock.go     — абстракция часов для детерминированных тестов
//
// Использование:
//
//	sched := scheduler.New(scheduler.Config{
//	    Articles:  articleRepo,
//	    Settings:  settingsService,
//	    Publisher: publisher, // опционально
//	    Logger:    logger,
//	})
//	sched.Start(ctx)
//	defer sched.Stop()
//
//	// из админки
//	count, err := sched.RunNow(ctx)
//
// Несколько инстансов:
//
// Leader election не нужен. Переход публикации — compare-and-set
// (UPDATE ... WHERE is_published=false), поэтому две фазы, которые
// одновременно нашли одну due-статью, опубликуют её ровно один раз.
// Событие article.published отправляет только победитель.
package scheduler
