package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/genai"

	"newsroom/internal/domain"
	"newsroom/internal/service"
)

// Config holds Gemini provider configuration.
type Config struct {
	APIKey       string
	TextModel    string
	ImageModel   string
	NewsroomName string
	Region       string
	MaxTopics    int
	Timeout      time.Duration
}

// models is the subset of *genai.Models used by the client.
type models interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
	GenerateImages(ctx context.Context, model, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Client implements topic prospecting, article writing and image generation
// on top of the Gemini API.
type Client struct {
	models  models
	cfg     Config
	prompts prompts
	logger  *slog.Logger
}

var (
	_ service.TopicProspector = (*Client)(nil)
	_ service.ArticleWriter   = (*Client)(nil)
	_ service.ImageGenerator  = (*Client)(nil)
)

// New creates a new Gemini client.
func New(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return newClient(client.Models, cfg, logger), nil
}

func newClient(m models, cfg Config, logger *slog.Logger) *Client {
	return &Client{
		models:  m,
		cfg:     cfg,
		prompts: prompts{newsroom: cfg.NewsroomName, region: cfg.Region, maxTopics: cfg.MaxTopics},
		logger:  logger.With("provider", "gemini"),
	}
}

// ProspectTopics asks the model, grounded on Google Search, for the most
// relevant recent news about the keywords.
func (c *Client) ProspectTopics(ctx context.Context, keywords []string, timeRange string) (*domain.Prospect, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.models.GenerateContent(ctx, c.cfg.TextModel,
		genai.Text(c.prompts.prospect(keywords, timeRange)),
		&genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	topics, err := ParseTopics(resp.Text())
	if err != nil {
		return nil, err
	}

	sources := ExtractSources(resp)

	c.logger.Debug("prospected topics", "topics", len(topics), "sources", len(sources))

	return &domain.Prospect{Topics: topics, Sources: sources}, nil
}

// WriteArticle drafts a title and body for the topic.
func (c *Client) WriteArticle(ctx context.Context, topic string, tone domain.Tone, targetLength int) (*domain.Draft, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	resp, err := c.models.GenerateContent(ctx, c.cfg.TextModel,
		genai.Text(c.prompts.article(topic, tone, targetLength)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(c.prompts.system(), genai.RoleUser),
			ResponseMIMEType:  "application/json",
			ResponseSchema: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"title":   {Type: genai.TypeString},
					"content": {Type: genai.TypeString},
				},
				Required: []string{"title", "content"},
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	var draft domain.Draft
	if err := json.Unmarshal([]byte(StripFences(resp.Text())), &draft); err != nil {
		return nil, fmt.Errorf("decode article: %w", err)
	}
	if strings.TrimSpace(draft.Title) == "" {
		return nil, errors.New("decode article: empty title")
	}

	return &draft, nil
}

// GenerateImage renders one 16:9 news photo for the title.
func (c *Client) GenerateImage(ctx context.Context, title string) (*domain.GeneratedImage, error) {
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	prompt := c.prompts.image(title)

	resp, err := c.models.GenerateImages(ctx, c.cfg.ImageModel, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		OutputMIMEType: "image/jpeg",
		AspectRatio:    "16:9",
	})
	if err != nil {
		return nil, fmt.Errorf("generate images: %w", err)
	}

	if resp == nil || len(resp.GeneratedImages) == 0 || resp.GeneratedImages[0].Image == nil {
		return nil, errors.New("no image returned")
	}

	img := resp.GeneratedImages[0].Image
	if len(img.ImageBytes) == 0 {
		return nil, fmt.Errorf("empty image returned (filtered: %q)", resp.GeneratedImages[0].RAIFilteredReason)
	}

	mime := img.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}

	return &domain.GeneratedImage{Bytes: img.ImageBytes, MIMEType: mime, Prompt: prompt}, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.cfg.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.cfg.Timeout)
}
