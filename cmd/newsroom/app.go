package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"newsroom/internal/config"
	"newsroom/internal/provider/feed"
	"newsroom/internal/provider/gemini"
	"newsroom/internal/publisher"
	"newsroom/internal/service"
	"newsroom/internal/storage/memory"
	"newsroom/internal/storage/postgres"
	"newsroom/internal/workflow"
)

// app holds the wired services and everything that must be closed on exit.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	prospects *service.ProspectService
	editorial *service.EditorialService
	closers   []io.Closer
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.logger.Warn("close failed", "error", err)
		}
	}
}

func newApp(ctx context.Context, configPath string) (*app, error) {
	// Setup logger
	logger := setupLogger("info")

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger = setupLogger(cfg.LogLevel)
	a := &app{cfg: cfg, logger: logger}

	store, err := a.openStore()
	if err != nil {
		a.Close()
		return nil, err
	}

	ai, err := gemini.New(ctx, gemini.Config{
		APIKey:       cfg.Provider.APIKey,
		TextModel:    cfg.Provider.TextModel,
		ImageModel:   cfg.Provider.ImageModel,
		NewsroomName: cfg.Provider.NewsroomName,
		Region:       cfg.Provider.Region,
		MaxTopics:    cfg.Provider.MaxTopics,
		Timeout:      cfg.Provider.Timeout,
	}, logger)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	var topics service.TopicProspector = ai
	if cfg.Provider.TopicSource == "feed" {
		topics = feed.New(feed.Config{
			URLs:      cfg.Provider.Feeds,
			MaxTopics: cfg.Provider.MaxTopics,
			Timeout:   cfg.Provider.Timeout,
		}, logger)
	}

	var pub service.Publisher
	if cfg.RabbitMQ.Enabled {
		rabbitMQ, err := publisher.NewRabbitMQ(publisher.Config{
			URL:        cfg.RabbitMQ.URL,
			Exchange:   cfg.RabbitMQ.Exchange,
			RoutingKey: cfg.RabbitMQ.RoutingKey,
			QueueName:  cfg.RabbitMQ.QueueName,
		}, logger)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("connect to rabbitmq: %w", err)
		}
		a.closers = append(a.closers, rabbitMQ)
		pub = rabbitMQ
	}

	a.prospects = service.NewProspectService(topics, ai, ai, store, logger)
	a.editorial = service.NewEditorialService(store, workflow.New(cfg.Editorial), ai, pub, logger)

	logger.Info("services ready",
		"storage", cfg.Storage.Driver,
		"topic_source", cfg.Provider.TopicSource,
		"publisher", cfg.RabbitMQ.Enabled,
	)

	return a, nil
}

func (a *app) openStore() (service.ArticleStore, error) {
	if a.cfg.Storage.Driver != "postgres" {
		return memory.NewArticleStore(), nil
	}

	db, err := sqlx.Connect("postgres", a.cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	a.closers = append(a.closers, db)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	a.logger.Info("connected to database")

	return postgres.NewArticleStore(db, postgres.NewTransactionManager(db)), nil
}
