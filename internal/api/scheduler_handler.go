package api

import (
	"net/http"
)

// RunNow запускает фазу публикации немедленно.
// POST /api/admin/scheduler/run-now
func (h *Handler) RunNow(w http.ResponseWriter, r *http.Request) {
	n, err := h.scheduler.RunNow(r.Context())
	if HandleError(w, h.log(r), err, "") {
		return
	}

	h.log(r).Info("manual publish run", "published_count", n)
	Success(w, RunNowResponse{PublishedCount: n})
}

// SchedulerStatus возвращает состояние цикла и последний run.
// GET /api/admin/scheduler/status
func (h *Handler) SchedulerStatus(w http.ResponseWriter, _ *http.Request) {
	Success(w, StatusFromScheduler(h.scheduler.Status()))
}
