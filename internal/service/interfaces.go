package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"newsroom/internal/domain"
)

type TopicProspector interface {
	ProspectTopics(ctx context.Context, keywords []string, timeRange string) (*domain.Prospect, error)
}

type ArticleWriter interface {
	WriteArticle(ctx context.Context, topic string, tone domain.Tone, targetLength int) (*domain.Draft, error)
}

type ImageGenerator interface {
	GenerateImage(ctx context.Context, title string) (*domain.GeneratedImage, error)
}

// ArticleStore owns the article collection. Update must replace the whole
// record returned by fn and never mutate a stored record in place.
type ArticleStore interface {
	AppendBatch(ctx context.Context, articles []domain.Article) error
	Get(ctx context.Context, id string) (domain.Article, error)
	Update(ctx context.Context, id string, fn func(domain.Article) (domain.Article, error)) (domain.Article, error)
	List(ctx context.Context, filter domain.Filter) ([]domain.Article, error)
	CountByStatus(ctx context.Context) (domain.StatusCounts, error)
}

type Publisher interface {
	Publish(ctx context.Context, article *domain.Article, action domain.PublicationAction) error
	Close() error
}
