package api

import (
	"encoding/json"
	"net/http"

	"github.com/shaiso/Newsdesk/internal/domain"
)

// GetSettings возвращает настройки автопубликации.
// GET /api/admin/scheduler-settings
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	s, err := h.settings.Get(r.Context())
	if HandleError(w, h.log(r), err, "") {
		return
	}

	Success(w, SettingsFromDomain(s))
}

// UpdateSettings обновляет настройки.
// PUT /api/admin/scheduler-settings
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var patch domain.SettingsPatch
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&patch); err != nil {
		BadRequest(w, "invalid request body")
		return
	}

	s, err := h.settings.Update(r.Context(), patch)
	if HandleError(w, h.log(r), err, "") {
		return
	}

	Success(w, SettingsFromDomain(s))
}
