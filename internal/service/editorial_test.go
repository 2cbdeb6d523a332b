package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"newsroom/internal/config"
	"newsroom/internal/domain"
	"newsroom/internal/service/mocks"
	"newsroom/internal/storage/memory"
	"newsroom/internal/workflow"
)

type EditorialServiceTestSuite struct {
	suite.Suite
	ctrl *gomock.Controller

	images    *mocks.MockImageGenerator
	publisher *mocks.MockPublisher
	store     *memory.ArticleStore

	service *EditorialService
	clock   time.Time
}

func (s *EditorialServiceTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())

	s.images = mocks.NewMockImageGenerator(s.ctrl)
	s.publisher = mocks.NewMockPublisher(s.ctrl)
	s.store = memory.NewArticleStore()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	machine := workflow.New(config.EditorialConfig{PublicBaseURL: "https://news.example.com"})

	s.service = NewEditorialService(s.store, machine, s.images, s.publisher, logger)
	s.clock = time.Date(2026, 10, 2, 14, 0, 0, 0, time.UTC)
	s.service.now = func() time.Time { return s.clock }

	s.Require().NoError(s.store.AppendBatch(context.Background(), []domain.Article{
		{
			ID:          "a1",
			Title:       "Itaipu opens spillway",
			Content:     "Body",
			ImageURL:    "data:image/jpeg;base64,b2xk",
			ImagePrompt: "old prompt",
			Status:      domain.StatusDraft,
			SourceURLs:  []domain.SourceURL{{URI: "https://a.example", Title: "A"}},
			Topic:       "Dam",
		},
		{ID: "a2", Title: "Bridge works", Topic: "Traffic", Status: domain.StatusReview},
	}))
}

func (s *EditorialServiceTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

func TestEditorialServiceTestSuite(t *testing.T) {
	suite.Run(t, new(EditorialServiceTestSuite))
}

func (s *EditorialServiceTestSuite) assertInvariant(a domain.Article) {
	published := a.Status == domain.StatusPublished
	s.Equal(published, a.PublishedAt != nil)
	s.Equal(published, a.PublishedURL != nil)
}

func (s *EditorialServiceTestSuite) TestEdit() {
	ctx := context.Background()

	updated, err := s.service.Edit(ctx, "a1", "New title", "")
	s.Require().NoError(err)
	s.Equal("New title", updated.Title)
	s.Equal("", updated.Content)

	got, err := s.service.Get(ctx, "a1")
	s.Require().NoError(err)
	s.Equal("New title", got.Title)
	s.Equal("Dam", got.Topic)
	s.Equal(s.clock, got.UpdatedAt)
}

func (s *EditorialServiceTestSuite) TestUnknownIDIsSurfaced() {
	ctx := context.Background()

	_, err := s.service.Edit(ctx, "missing", "t", "c")
	s.ErrorIs(err, domain.ErrNotFound)

	_, err = s.service.SetStatus(ctx, "missing", domain.StatusReview)
	s.ErrorIs(err, domain.ErrNotFound)

	_, err = s.service.ReplaceImage(ctx, "missing", domain.GeneratedImage{Prompt: "p"})
	s.ErrorIs(err, domain.ErrNotFound)

	_, err = s.service.RegenerateImage(ctx, "missing")
	s.ErrorIs(err, domain.ErrNotFound)

	all, err := s.service.List(ctx, domain.Filter{})
	s.Require().NoError(err)
	s.Len(all, 2)
}

func (s *EditorialServiceTestSuite) TestSetStatus_PublishIsIdempotent() {
	ctx := context.Background()
	first := s.clock

	s.publisher.EXPECT().Publish(ctx, gomock.Any(), domain.ActionPublished).Return(nil).Times(1)

	published, err := s.service.SetStatus(ctx, "a1", domain.StatusPublished)
	s.Require().NoError(err)
	s.assertInvariant(published)
	s.Equal(first, *published.PublishedAt)
	s.Equal("https://news.example.com/articles/a1", *published.PublishedURL)

	s.clock = s.clock.Add(3 * time.Hour)
	again, err := s.service.SetStatus(ctx, "a1", domain.StatusPublished)
	s.Require().NoError(err)
	s.Equal(first, *again.PublishedAt)
	s.assertInvariant(again)
}

func (s *EditorialServiceTestSuite) TestSetStatus_UnpublishClears() {
	ctx := context.Background()

	s.publisher.EXPECT().Publish(ctx, gomock.Any(), domain.ActionPublished).Return(nil)
	s.publisher.EXPECT().Publish(ctx, gomock.Any(), domain.ActionUnpublished).DoAndReturn(
		func(_ context.Context, a *domain.Article, _ domain.PublicationAction) error {
			s.Equal(domain.StatusApproved, a.Status)
			return nil
		},
	)

	_, err := s.service.SetStatus(ctx, "a1", domain.StatusPublished)
	s.Require().NoError(err)

	back, err := s.service.SetStatus(ctx, "a1", domain.StatusApproved)
	s.Require().NoError(err)
	s.Nil(back.PublishedAt)
	s.Nil(back.PublishedURL)

	// publishing again stamps a fresh date since the old one was cleared
	s.clock = s.clock.Add(time.Hour)
	s.publisher.EXPECT().Publish(ctx, gomock.Any(), domain.ActionPublished).Return(nil)
	republished, err := s.service.SetStatus(ctx, "a1", domain.StatusPublished)
	s.Require().NoError(err)
	s.Equal(s.clock, *republished.PublishedAt)
}

func (s *EditorialServiceTestSuite) TestSetStatus_ReviewToCancelled() {
	ctx := context.Background()

	cancelled, err := s.service.SetStatus(ctx, "a2", domain.StatusCancelled)
	s.Require().NoError(err)
	s.Equal(domain.StatusCancelled, cancelled.Status)
	s.Nil(cancelled.PublishedAt)
	s.Nil(cancelled.PublishedURL)
}

func (s *EditorialServiceTestSuite) TestSetStatus_UnknownStatus() {
	_, err := s.service.SetStatus(context.Background(), "a1", "ARCHIVED")
	s.ErrorIs(err, domain.ErrValidation)
}

func (s *EditorialServiceTestSuite) TestSetStatus_PublisherFailureDoesNotFail() {
	ctx := context.Background()

	s.publisher.EXPECT().Publish(ctx, gomock.Any(), domain.ActionPublished).Return(errors.New("broker down"))

	published, err := s.service.SetStatus(ctx, "a1", domain.StatusPublished)
	s.Require().NoError(err)
	s.Equal(domain.StatusPublished, published.Status)
}

func (s *EditorialServiceTestSuite) TestSetStatus_NilPublisher() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	service := NewEditorialService(s.store, workflow.New(config.EditorialConfig{}), s.images, nil, logger)

	published, err := service.SetStatus(context.Background(), "a1", domain.StatusPublished)
	s.Require().NoError(err)
	s.assertInvariant(published)
}

func (s *EditorialServiceTestSuite) TestSetStatus_CancelledTerminalPolicy() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	machine := workflow.New(config.EditorialConfig{CancelledTerminal: true})
	service := NewEditorialService(s.store, machine, s.images, nil, logger)
	ctx := context.Background()

	_, err := service.SetStatus(ctx, "a2", domain.StatusCancelled)
	s.Require().NoError(err)

	_, err = service.SetStatus(ctx, "a2", domain.StatusDraft)
	s.ErrorIs(err, domain.ErrTransitionNotAllowed)

	got, err := service.Get(ctx, "a2")
	s.Require().NoError(err)
	s.Equal(domain.StatusCancelled, got.Status)
}

func (s *EditorialServiceTestSuite) TestReplaceImage_RoundTrip() {
	ctx := context.Background()

	_, err := s.service.ReplaceImage(ctx, "a1", domain.GeneratedImage{
		Bytes:    []byte("new"),
		MIMEType: "image/png",
		Prompt:   "new prompt",
	})
	s.Require().NoError(err)

	got, err := s.service.Get(ctx, "a1")
	s.Require().NoError(err)
	s.Equal("data:image/png;base64,bmV3", got.ImageURL)
	s.Equal("new prompt", got.ImagePrompt)
	s.Equal("Itaipu opens spillway", got.Title)
	s.Equal(domain.StatusDraft, got.Status)
}

func (s *EditorialServiceTestSuite) TestRegenerateImage() {
	ctx := context.Background()

	_, err := s.service.Edit(ctx, "a1", "Edited headline", "Body")
	s.Require().NoError(err)

	s.images.EXPECT().GenerateImage(ctx, "Edited headline").
		Return(&domain.GeneratedImage{Bytes: []byte("new"), MIMEType: "image/jpeg", Prompt: "photo of Edited headline"}, nil)

	updated, err := s.service.RegenerateImage(ctx, "a1")
	s.Require().NoError(err)
	s.Equal("data:image/jpeg;base64,bmV3", updated.ImageURL)
	s.Equal("photo of Edited headline", updated.ImagePrompt)
}

func (s *EditorialServiceTestSuite) TestRegenerateImage_ProviderFailureKeepsOldPair() {
	ctx := context.Background()

	s.images.EXPECT().GenerateImage(ctx, gomock.Any()).Return(nil, errors.New("quota"))

	_, err := s.service.RegenerateImage(ctx, "a1")
	s.ErrorIs(err, domain.ErrProvider)

	got, err := s.service.Get(ctx, "a1")
	s.Require().NoError(err)
	s.Equal("data:image/jpeg;base64,b2xk", got.ImageURL)
	s.Equal("old prompt", got.ImagePrompt)
}

func (s *EditorialServiceTestSuite) TestListAndCounts() {
	ctx := context.Background()

	s.publisher.EXPECT().Publish(ctx, gomock.Any(), domain.ActionPublished).Return(nil)
	_, err := s.service.SetStatus(ctx, "a1", domain.StatusPublished)
	s.Require().NoError(err)

	published, err := s.service.List(ctx, domain.Filter{Status: domain.StatusPublished})
	s.Require().NoError(err)
	s.Require().Len(published, 1)
	s.Equal("a1", published[0].ID)

	byDate, err := s.service.List(ctx, domain.Filter{Date: "2026-10-02"})
	s.Require().NoError(err)
	s.Len(byDate, 1)

	_, err = s.service.List(ctx, domain.Filter{Date: "02/10/2026"})
	s.ErrorIs(err, domain.ErrValidation)

	counts, err := s.service.Counts(ctx)
	s.Require().NoError(err)
	s.Equal(1, counts[domain.StatusPublished])
	s.Equal(1, counts[domain.StatusReview])
	s.Equal(0, counts[domain.StatusDraft])
	s.Equal(0, counts[domain.StatusCancelled])
}
