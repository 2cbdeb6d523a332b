// Package feed prospects topics from RSS and Atom feeds instead of a model.
package feed

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"newsroom/internal/domain"
	"newsroom/internal/service"
)

// Config holds feed prospector configuration.
type Config struct {
	URLs      []string
	MaxTopics int
	Timeout   time.Duration
}

type Source struct {
	parser    *gofeed.Parser
	urls      []string
	maxTopics int
	logger    *slog.Logger

	now func() time.Time
}

var _ service.TopicProspector = (*Source)(nil)

func New(cfg Config, logger *slog.Logger) *Source {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: cfg.Timeout}
	parser.UserAgent = "Newsroom/1.0"

	return &Source{
		parser:    parser,
		urls:      cfg.URLs,
		maxTopics: cfg.MaxTopics,
		logger:    logger.With("provider", "feed"),
		now:       time.Now,
	}
}

// ProspectTopics returns the titles of feed items mentioning any keyword.
// timeRange is honoured when it parses as a Go duration such as "24h";
// anything else disables the age check.
func (s *Source) ProspectTopics(ctx context.Context, keywords []string, timeRange string) (*domain.Prospect, error) {
	var cutoff time.Time
	if d, err := time.ParseDuration(strings.TrimSpace(timeRange)); err == nil && d > 0 {
		cutoff = s.now().Add(-d)
	}

	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}

	prospect := &domain.Prospect{}
	for _, url := range s.urls {
		feed, err := s.parser.ParseURLWithContext(url, ctx)
		if err != nil {
			return nil, fmt.Errorf("parse feed %s: %w", url, err)
		}

		for _, item := range feed.Items {
			if !cutoff.IsZero() && item.PublishedParsed != nil && item.PublishedParsed.Before(cutoff) {
				continue
			}
			if !mentions(item, lowered) {
				continue
			}

			prospect.Topics = append(prospect.Topics, domain.Topic{Topic: strings.TrimSpace(item.Title)})
			if item.Link != "" {
				prospect.Sources = append(prospect.Sources, domain.SourceURL{URI: item.Link, Title: item.Title})
			}

			if s.maxTopics > 0 && len(prospect.Topics) >= s.maxTopics {
				return prospect, nil
			}
		}

		s.logger.Debug("scanned feed", "url", url, "items", len(feed.Items), "topics", len(prospect.Topics))
	}

	return prospect, nil
}

func mentions(item *gofeed.Item, keywords []string) bool {
	text := strings.ToLower(item.Title + " " + item.Description)
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
