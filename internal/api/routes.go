package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	chain := Chain(
		Recovery(h.logger),
		Metrics(),
		Logging(h.logger),
	)

	// Admin: настройки и управление scheduler'ом
	mux.Handle("GET /api/admin/scheduler-settings", chain(http.HandlerFunc(h.GetSettings)))
	mux.Handle("PUT /api/admin/scheduler-settings", chain(http.HandlerFunc(h.UpdateSettings)))
	mux.Handle("POST /api/admin/scheduler/run-now", chain(http.HandlerFunc(h.RunNow)))
	mux.Handle("GET /api/admin/scheduler/status", chain(http.HandlerFunc(h.SchedulerStatus)))

	// CMS
	mux.Handle("GET /api/cms/scheduled-articles", chain(http.HandlerFunc(h.ListScheduledArticles)))
	mux.Handle("PUT /api/cms/articles/{id}/schedule", chain(http.HandlerFunc(h.ScheduleArticle)))
	mux.Handle("DELETE /api/cms/articles/{id}/schedule", chain(http.HandlerFunc(h.UnscheduleArticle)))

	// Health и metrics
	mux.Handle("GET /healthz", Recovery(h.logger)(http.HandlerFunc(h.Health)))
	mux.Handle("GET /metrics", promhttp.Handler())
}
