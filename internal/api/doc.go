// Package api содержит HTTP API админки и CMS.
//
// Структура:
//   - handler.go           — Handler и его зависимости (интерфейсы)
//   - routes.go            — регистрация маршрутов
//   - middleware.go        — logging, recovery, metrics
//   - response.go          — JSON-ответы и маппинг ошибок
//   - dto.go               — request/response структуры
//   - settings_handler.go  — /api/admin/scheduler-settings
//   - scheduler_handler.go — /api/admin/scheduler/{run-now,status}
//   - article_handler.go   — /api/cms/scheduled-articles, /api/cms/articles/{id}/schedule
//   - health_handler.go    — /healthz
package api
