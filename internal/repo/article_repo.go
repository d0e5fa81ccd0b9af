package repo

import (
	"context"
	"errors"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shaiso/Newsdesk/internal/domain"
)

// psql — построитель запросов с плейсхолдерами $1, $2, ...
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var articleColumns = []string{
	"id", "title", "short_title", "author",
	"is_published", "is_scheduled", "scheduled_publish_at", "published_at",
	"created_at", "updated_at",
}

// ArticleRepo — репозиторий статей (Content Store).
type ArticleRepo struct {
	pool *pgxpool.Pool
}

// NewArticleRepo создаёт новый ArticleRepo.
func NewArticleRepo(pool *pgxpool.Pool) *ArticleRepo {
	return &ArticleRepo{pool: pool}
}

// GetByID возвращает статью по ID.
func (r *ArticleRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Article, error) {
	query, args, err := psql.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	a, err := scanArticle(r.pool.QueryRow(ctx, query, args...))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("get article", err)
	}
	return a, nil
}

// ScheduledFilter — параметры выборки запланированных статей.
type ScheduledFilter struct {
	// AfterID — keyset-курсор: только статьи с id > AfterID.
	AfterID uuid.UUID

	// Limit — размер страницы, 0 означает без ограничения.
	// Постраничная выборка идёт в порядке id, чтобы курсор оставался
	// корректным, пока scheduler публикует статьи из уже прочитанных страниц.
	Limit int
}

// ListScheduled возвращает статьи с is_scheduled=true AND is_published=false.
//
// Статьи без scheduled_publish_at тоже попадают в выборку:
// scheduler должен их увидеть, чтобы сообщить о проблеме.
func (r *ArticleRepo) ListScheduled(ctx context.Context, filter ScheduledFilter) ([]domain.Article, error) {
	query, args, err := buildListScheduled(filter)
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, unavailable("list scheduled articles", err)
	}
	defer rows.Close()

	var articles []domain.Article
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, unavailable("scan article", err)
		}
		articles = append(articles, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("list scheduled articles", err)
	}
	return articles, nil
}

func buildListScheduled(filter ScheduledFilter) (string, []any, error) {
	b := psql.Select(articleColumns...).
		From("articles").
		Where(sq.Eq{"is_scheduled": true, "is_published": false})

	if filter.AfterID != uuid.Nil {
		b = b.Where(sq.Gt{"id": filter.AfterID})
	}
	if filter.Limit > 0 {
		b = b.OrderBy("id ASC").Limit(uint64(filter.Limit))
	} else {
		b = b.OrderBy("scheduled_publish_at ASC NULLS LAST", "created_at ASC")
	}
	return b.ToSql()
}

// PublishIfPending атомарно публикует статью (compare-and-set).
//
// Запрос применяется только если статья всё ещё ждёт публикации.
// Возвращает false, если строка не изменилась: статью уже опубликовал
// другой run или другой инстанс. Это не ошибка.
func (r *ArticleRepo) PublishIfPending(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	result, err := r.pool.Exec(ctx, `
		UPDATE articles
		SET is_published = true, is_scheduled = false, published_at = $2, updated_at = $2
		WHERE id = $1 AND is_published = false AND is_scheduled = true
	`, id, at.UTC())
	if err != nil {
		return false, unavailable("publish article", err)
	}
	return result.RowsAffected() == 1, nil
}

// UpdateSchedule сохраняет is_scheduled и scheduled_publish_at.
// Опубликованную статью перепланировать нельзя: возвращает ErrInvalidState.
func (r *ArticleRepo) UpdateSchedule(ctx context.Context, a *domain.Article) error {
	result, err := r.pool.Exec(ctx, `
		UPDATE articles
		SET is_scheduled = $2, scheduled_publish_at = $3, updated_at = $4
		WHERE id = $1 AND is_published = false
	`, a.ID, a.IsScheduled, utcPtr(a.ScheduledPublishAt), a.UpdatedAt)
	if err != nil {
		return unavailable("update schedule", err)
	}
	if result.RowsAffected() == 0 {
		return ErrInvalidState
	}
	return nil
}

// --- Helpers ---

func scanArticle(row pgx.Row) (*domain.Article, error) {
	var a domain.Article
	var shortTitle, author *string

	err := row.Scan(
		&a.ID,
		&a.Title,
		&shortTitle,
		&author,
		&a.IsPublished,
		&a.IsScheduled,
		&a.ScheduledPublishAt,
		&a.PublishedAt,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if shortTitle != nil {
		a.ShortTitle = *shortTitle
	}
	if author != nil {
		a.Author = *author
	}
	a.ScheduledPublishAt = utcPtr(a.ScheduledPublishAt)
	a.PublishedAt = utcPtr(a.PublishedAt)

	return &a, nil
}

// utcPtr нормализует время в UTC, nil остаётся nil.
func utcPtr(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	utc := t.UTC()
	return &utc
}
