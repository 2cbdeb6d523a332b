package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"newsroom/internal/domain"
	"newsroom/internal/service"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

var articleColumns = []string{
	"id", "title", "content", "image_url", "image_prompt", "status",
	"source_urls", "topic", "published_url", "published_at", "created_at", "updated_at",
}

type articleRow struct {
	ID           string         `db:"id"`
	Title        string         `db:"title"`
	Content      string         `db:"content"`
	ImageURL     string         `db:"image_url"`
	ImagePrompt  string         `db:"image_prompt"`
	Status       string         `db:"status"`
	SourceURLs   []byte         `db:"source_urls"`
	Topic        string         `db:"topic"`
	PublishedURL sql.NullString `db:"published_url"`
	PublishedAt  sql.NullTime   `db:"published_at"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r articleRow) toDomain() (domain.Article, error) {
	a := domain.Article{
		ID:          r.ID,
		Title:       r.Title,
		Content:     r.Content,
		ImageURL:    r.ImageURL,
		ImagePrompt: r.ImagePrompt,
		Status:      domain.Status(r.Status),
		Topic:       r.Topic,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
	if len(r.SourceURLs) > 0 {
		if err := json.Unmarshal(r.SourceURLs, &a.SourceURLs); err != nil {
			return domain.Article{}, fmt.Errorf("decode source urls of %s: %w", r.ID, err)
		}
	}
	if r.PublishedURL.Valid {
		u := r.PublishedURL.String
		a.PublishedURL = &u
	}
	if r.PublishedAt.Valid {
		t := r.PublishedAt.Time.UTC()
		a.PublishedAt = &t
	}
	return a, nil
}

// encodeSources returns text, not bytes: lib/pq would send []byte as bytea.
func encodeSources(sources []domain.SourceURL) (string, error) {
	if sources == nil {
		sources = []domain.SourceURL{}
	}
	b, err := json.Marshal(sources)
	return string(b), err
}

type ArticleStore struct {
	db *sqlx.DB
	tx *TransactionManager
}

var _ service.ArticleStore = (*ArticleStore)(nil)

func NewArticleStore(db *sqlx.DB, tx *TransactionManager) *ArticleStore {
	return &ArticleStore{db: db, tx: tx}
}

func (s *ArticleStore) AppendBatch(ctx context.Context, articles []domain.Article) error {
	if len(articles) == 0 {
		return nil
	}

	insert := psql.Insert("articles").Columns(articleColumns...)
	for _, a := range articles {
		sources, err := encodeSources(a.SourceURLs)
		if err != nil {
			return fmt.Errorf("encode source urls: %w", err)
		}
		insert = insert.Values(
			a.ID, a.Title, a.Content, a.ImageURL, a.ImagePrompt, string(a.Status),
			sources, a.Topic, a.PublishedURL, a.PublishedAt, a.CreatedAt, a.UpdatedAt,
		)
	}

	query, args, err := insert.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	return s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		if _, err := getExecutor(txCtx, s.db).ExecContext(txCtx, query, args...); err != nil {
			return fmt.Errorf("insert articles: %w", err)
		}
		return nil
	})
}

func (s *ArticleStore) Get(ctx context.Context, id string) (domain.Article, error) {
	return s.get(ctx, id, false)
}

func (s *ArticleStore) get(ctx context.Context, id string, forUpdate bool) (domain.Article, error) {
	sel := psql.Select(articleColumns...).From("articles").Where(sq.Eq{"id": id})
	if forUpdate {
		sel = sel.Suffix("FOR UPDATE")
	}

	query, args, err := sel.ToSql()
	if err != nil {
		return domain.Article{}, fmt.Errorf("build select: %w", err)
	}

	var row articleRow
	err = getExecutor(ctx, s.db).GetContext(ctx, &row, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Article{}, fmt.Errorf("%w: %s", domain.ErrNotFound, id)
	}
	if err != nil {
		return domain.Article{}, fmt.Errorf("select article: %w", err)
	}
	return row.toDomain()
}

// Update locks the row, lets fn compute the replacement and writes every
// mutable column back in one statement.
func (s *ArticleStore) Update(ctx context.Context, id string, fn func(domain.Article) (domain.Article, error)) (domain.Article, error) {
	var updated domain.Article

	err := s.tx.WithTransaction(ctx, func(txCtx context.Context) error {
		current, err := s.get(txCtx, id, true)
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}

		query, args, err := psql.Update("articles").SetMap(map[string]any{
			"title":         next.Title,
			"content":       next.Content,
			"image_url":     next.ImageURL,
			"image_prompt":  next.ImagePrompt,
			"status":        string(next.Status),
			"published_url": next.PublishedURL,
			"published_at":  next.PublishedAt,
			"updated_at":    next.UpdatedAt,
		}).Where(sq.Eq{"id": id}).ToSql()
		if err != nil {
			return fmt.Errorf("build update: %w", err)
		}

		if _, err := getExecutor(txCtx, s.db).ExecContext(txCtx, query, args...); err != nil {
			return fmt.Errorf("update article: %w", err)
		}

		next.ID = current.ID
		next.Topic = current.Topic
		next.SourceURLs = current.SourceURLs
		next.CreatedAt = current.CreatedAt
		updated = next
		return nil
	})

	return updated, err
}

func (s *ArticleStore) List(ctx context.Context, filter domain.Filter) ([]domain.Article, error) {
	sel := psql.Select(articleColumns...).From("articles").OrderBy("seq")

	if filter.Status != "" {
		sel = sel.Where(sq.Eq{"status": string(filter.Status)})
	}
	if filter.Query != "" {
		pattern := "%" + escapeLike(filter.Query) + "%"
		sel = sel.Where(sq.Or{sq.ILike{"topic": pattern}, sq.ILike{"title": pattern}})
	}
	if filter.Date != "" {
		sel = sel.Where(sq.Expr("(published_at AT TIME ZONE 'UTC')::date = ?::date", filter.Date))
	}

	query, args, err := sel.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select: %w", err)
	}

	var rows []articleRow
	if err := getExecutor(ctx, s.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select articles: %w", err)
	}

	articles := make([]domain.Article, 0, len(rows))
	for _, r := range rows {
		a, err := r.toDomain()
		if err != nil {
			return nil, err
		}
		articles = append(articles, a)
	}
	return articles, nil
}

func (s *ArticleStore) CountByStatus(ctx context.Context) (domain.StatusCounts, error) {
	query, args, err := psql.Select("status", "COUNT(*) AS n").From("articles").GroupBy("status").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build count: %w", err)
	}

	var rows []struct {
		Status string `db:"status"`
		N      int    `db:"n"`
	}
	if err := getExecutor(ctx, s.db).SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("count articles: %w", err)
	}

	counts := domain.NewStatusCounts()
	for _, r := range rows {
		counts[domain.Status(r.Status)] = r.N
	}
	return counts, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
