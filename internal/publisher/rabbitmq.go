package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"newsroom/internal/domain"
	"newsroom/internal/service"
)

type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

var _ service.Publisher = (*RabbitMQ)(nil)

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	logger = logger.With("component", "publisher")

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger,
	}, nil
}

// declareTopology sets up a durable direct exchange with one durable queue
// bound on the publication routing key.
func declareTopology(ch *amqp.Channel, cfg Config) error {
	const (
		durable    = true
		autoDelete = false
		internal   = false
		exclusive  = false
		noWait     = false
	)

	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeDirect, durable, autoDelete, internal, noWait, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	q, err := ch.QueueDeclare(cfg.QueueName, durable, autoDelete, exclusive, noWait, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", cfg.QueueName, err)
	}

	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, noWait, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", q.Name, err)
	}
	return nil
}

// PublicationMessage is the JSON body sent for every publication change.
type PublicationMessage struct {
	Action    domain.PublicationAction `json:"action"`
	Article   PublishedArticle         `json:"article"`
	Timestamp time.Time                `json:"timestamp"`
}

// PublishedArticle is the article as seen by downstream consumers. The image
// is left out; consumers fetch it from the API when they need it.
type PublishedArticle struct {
	ID           string             `json:"id"`
	Title        string             `json:"title"`
	Content      string             `json:"content"`
	Topic        string             `json:"topic"`
	Status       domain.Status      `json:"status"`
	SourceURLs   []domain.SourceURL `json:"source_urls"`
	PublishedURL *string            `json:"published_url,omitempty"`
	PublishedAt  *time.Time         `json:"published_at,omitempty"`
}

func newMessage(article *domain.Article, action domain.PublicationAction, at time.Time) PublicationMessage {
	return PublicationMessage{
		Action: action,
		Article: PublishedArticle{
			ID:           article.ID,
			Title:        article.Title,
			Content:      article.Content,
			Topic:        article.Topic,
			Status:       article.Status,
			SourceURLs:   article.SourceURLs,
			PublishedURL: article.PublishedURL,
			PublishedAt:  article.PublishedAt,
		},
		Timestamp: at,
	}
}

func (r *RabbitMQ) Publish(ctx context.Context, article *domain.Article, action domain.PublicationAction) error {
	body, err := json.Marshal(newMessage(article, action, time.Now().UTC()))
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = r.channel.PublishWithContext(
		ctx,
		r.exchange,
		r.routingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    article.ID + ":" + string(action),
			Type:         string(action),
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	r.logger.Debug("published event",
		"id", article.ID,
		"action", action,
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
