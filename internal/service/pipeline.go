package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"newsroom/internal/domain"
)

type ProspectService struct {
	topics   TopicProspector
	writer   ArticleWriter
	images   ImageGenerator
	articles ArticleStore
	logger   *slog.Logger

	newID func() string
	now   func() time.Time
}

func NewProspectService(
	topics TopicProspector,
	writer ArticleWriter,
	images ImageGenerator,
	articles ArticleStore,
	logger *slog.Logger,
) *ProspectService {
	return &ProspectService{
		topics:   topics,
		writer:   writer,
		images:   images,
		articles: articles,
		logger:   logger.With("component", "prospect"),
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// Generate prospects topics for the request and drafts one article per
// retained topic. Provider calls run strictly one after another. The batch is
// committed only if every article was generated; otherwise nothing is stored.
func (s *ProspectService) Generate(ctx context.Context, req domain.ProspectRequest) (*domain.BatchResult, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	startTime := s.now()
	keywords := req.ActiveKeywords()

	s.logger.Info("starting batch",
		"keywords", keywords,
		"time_range", req.TimeRange,
		"tone", req.Params.Tone,
		"count", req.Params.Count,
	)

	prospect, err := s.topics.ProspectTopics(ctx, keywords, req.TimeRange)
	if err != nil {
		return nil, fmt.Errorf("%w: prospect topics: %w", domain.ErrProvider, err)
	}

	topics := prospect.Topics
	if len(topics) > req.Params.Count {
		topics = topics[:req.Params.Count]
	}

	s.logger.Info("prospected topics",
		"found", len(prospect.Topics),
		"retained", len(topics),
		"sources", len(prospect.Sources),
	)

	articles := make([]domain.Article, 0, len(topics))
	for i, t := range topics {
		article, err := s.draft(ctx, t, prospect.Sources, req.Params)
		if err != nil {
			s.logger.Error("batch aborted", "topic_index", i+1, "topic", t.Topic, "error", err)
			return nil, fmt.Errorf("%w: topic %d: %w", domain.ErrProvider, i+1, err)
		}
		articles = append(articles, article)
	}

	if err := s.articles.AppendBatch(ctx, articles); err != nil {
		return nil, fmt.Errorf("store batch: %w", err)
	}

	stats := domain.BatchStats{
		Keywords:    keywords,
		TopicsFound: len(prospect.Topics),
		Retained:    len(topics),
		Created:     len(articles),
		Sources:     len(prospect.Sources),
		Duration:    s.now().Sub(startTime),
	}

	s.logger.Info("batch completed",
		"created", stats.Created,
		"duration", stats.Duration,
	)

	return &domain.BatchResult{Articles: articles, Stats: stats}, nil
}

func (s *ProspectService) draft(ctx context.Context, topic domain.Topic, sources []domain.SourceURL, params domain.GenerationParams) (domain.Article, error) {
	text, err := s.writer.WriteArticle(ctx, topic.Topic, params.Tone, params.TargetLength)
	if err != nil {
		return domain.Article{}, fmt.Errorf("generate text: %w", err)
	}

	img, err := s.images.GenerateImage(ctx, text.Title)
	if err != nil {
		return domain.Article{}, fmt.Errorf("generate image: %w", err)
	}

	s.logger.Debug("drafted article", "topic", topic.Topic, "title", text.Title)

	now := s.now()
	article := domain.Article{
		ID:         s.newID(),
		Title:      text.Title,
		Content:    text.Content,
		Status:     domain.StatusDraft,
		SourceURLs: append([]domain.SourceURL(nil), sources...),
		Topic:      topic.Topic,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	return article.WithImage(*img), nil
}
