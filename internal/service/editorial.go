package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"newsroom/internal/domain"
	"newsroom/internal/workflow"
)

// EditorialService applies reviewer actions to stored articles. Every write
// goes through ArticleStore.Update, so records are replaced, never patched.
type EditorialService struct {
	articles  ArticleStore
	machine   *workflow.Machine
	images    ImageGenerator
	publisher Publisher
	logger    *slog.Logger

	now func() time.Time
}

func NewEditorialService(
	articles ArticleStore,
	machine *workflow.Machine,
	images ImageGenerator,
	publisher Publisher,
	logger *slog.Logger,
) *EditorialService {
	return &EditorialService{
		articles:  articles,
		machine:   machine,
		images:    images,
		publisher: publisher,
		logger:    logger.With("component", "editorial"),
		now:       time.Now,
	}
}

func (s *EditorialService) Get(ctx context.Context, id string) (domain.Article, error) {
	return s.articles.Get(ctx, id)
}

func (s *EditorialService) Edit(ctx context.Context, id, title, content string) (domain.Article, error) {
	updated, err := s.articles.Update(ctx, id, func(a domain.Article) (domain.Article, error) {
		next := a.Clone()
		next.Title = title
		next.Content = content
		next.UpdatedAt = s.now()
		return next, nil
	})
	if err != nil {
		return domain.Article{}, fmt.Errorf("edit article %s: %w", id, err)
	}

	s.logger.Debug("article edited", "id", id)
	return updated, nil
}

func (s *EditorialService) SetStatus(ctx context.Context, id string, status domain.Status) (domain.Article, error) {
	if !status.Valid() {
		return domain.Article{}, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, status)
	}

	var previous domain.Status
	updated, err := s.articles.Update(ctx, id, func(a domain.Article) (domain.Article, error) {
		previous = a.Status
		return s.machine.Apply(a, status, s.now())
	})
	if err != nil {
		return domain.Article{}, fmt.Errorf("set status of article %s: %w", id, err)
	}

	s.logger.Info("status changed", "id", id, "from", previous, "to", status)

	switch {
	case previous != domain.StatusPublished && status == domain.StatusPublished:
		s.notify(ctx, &updated, domain.ActionPublished)
	case previous == domain.StatusPublished && status != domain.StatusPublished:
		s.notify(ctx, &updated, domain.ActionUnpublished)
	}

	return updated, nil
}

func (s *EditorialService) ReplaceImage(ctx context.Context, id string, img domain.GeneratedImage) (domain.Article, error) {
	updated, err := s.articles.Update(ctx, id, func(a domain.Article) (domain.Article, error) {
		next := a.Clone().WithImage(img)
		next.UpdatedAt = s.now()
		return next, nil
	})
	if err != nil {
		return domain.Article{}, fmt.Errorf("replace image of article %s: %w", id, err)
	}

	s.logger.Debug("image replaced", "id", id)
	return updated, nil
}

// RegenerateImage asks the image generator for a new picture based on the
// current title and stores it in place of the old one.
func (s *EditorialService) RegenerateImage(ctx context.Context, id string) (domain.Article, error) {
	current, err := s.articles.Get(ctx, id)
	if err != nil {
		return domain.Article{}, fmt.Errorf("regenerate image of article %s: %w", id, err)
	}

	img, err := s.images.GenerateImage(ctx, current.Title)
	if err != nil {
		return domain.Article{}, fmt.Errorf("%w: regenerate image of article %s: %w", domain.ErrProvider, id, err)
	}

	return s.ReplaceImage(ctx, id, *img)
}

func (s *EditorialService) List(ctx context.Context, filter domain.Filter) ([]domain.Article, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	return s.articles.List(ctx, filter)
}

func (s *EditorialService) Counts(ctx context.Context) (domain.StatusCounts, error) {
	return s.articles.CountByStatus(ctx)
}

func (s *EditorialService) notify(ctx context.Context, article *domain.Article, action domain.PublicationAction) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, article, action); err != nil {
		s.logger.Error("failed to publish event", "id", article.ID, "action", action, "error", err)
	}
}
