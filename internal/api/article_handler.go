package api

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/shaiso/Newsdesk/internal/domain"
	"github.com/shaiso/Newsdesk/internal/repo"
)

// ListScheduledArticles возвращает статьи, ожидающие публикации.
// GET /api/cms/scheduled-articles
func (h *Handler) ListScheduledArticles(w http.ResponseWriter, r *http.Request) {
	articles, err := h.articles.ListScheduled(r.Context(), repo.ScheduledFilter{})
	if HandleError(w, h.log(r), err, "") {
		return
	}

	Success(w, ScheduledArticlesFromDomain(articles, h.now().UTC()))
}

// ScheduleArticle планирует публикацию статьи.
// PUT /api/cms/articles/{id}/schedule
func (h *Handler) ScheduleArticle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid article id")
		return
	}

	var req ScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "invalid request body")
		return
	}
	if req.ScheduledPublishAt == nil {
		ValidationFailed(w, &domain.ValidationError{
			Field:   "scheduled_publish_at",
			Message: "is required",
		})
		return
	}

	article, err := h.articles.GetByID(r.Context(), id)
	if HandleError(w, h.log(r), err, "article not found") {
		return
	}

	if HandleError(w, h.log(r), article.Schedule(*req.ScheduledPublishAt), "") {
		return
	}
	if HandleError(w, h.log(r), h.articles.UpdateSchedule(r.Context(), article), "article not found") {
		return
	}

	h.log(r).Info("article scheduled",
		"article_id", article.ID,
		"scheduled_publish_at", article.ScheduledPublishAt,
	)
	Success(w, ArticleFromDomain(article))
}

// UnscheduleArticle отменяет запланированную публикацию.
// DELETE /api/cms/articles/{id}/schedule
func (h *Handler) UnscheduleArticle(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		BadRequest(w, "invalid article id")
		return
	}

	article, err := h.articles.GetByID(r.Context(), id)
	if HandleError(w, h.log(r), err, "article not found") {
		return
	}

	if HandleError(w, h.log(r), article.Unschedule(), "") {
		return
	}
	if HandleError(w, h.log(r), h.articles.UpdateSchedule(r.Context(), article), "article not found") {
		return
	}

	h.log(r).Info("article unscheduled", "article_id", article.ID)
	Success(w, ArticleFromDomain(article))
}
