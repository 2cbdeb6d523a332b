package domain

import (
	"encoding/base64"
	"time"
)

type Status string

const (
	StatusDraft     Status = "DRAFT"
	StatusReview    Status = "REVIEW"
	StatusApproved  Status = "APPROVED"
	StatusPublished Status = "PUBLISHED"
	StatusCancelled Status = "CANCELLED"
)

// Statuses lists every status in board order.
var Statuses = []Status{
	StatusDraft,
	StatusReview,
	StatusApproved,
	StatusPublished,
	StatusCancelled,
}

func (s Status) Valid() bool {
	for _, known := range Statuses {
		if s == known {
			return true
		}
	}
	return false
}

type Article struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Content      string      `json:"content"`
	ImageURL     string      `json:"imageUrl"`
	ImagePrompt  string      `json:"imagePrompt"`
	Status       Status      `json:"status"`
	SourceURLs   []SourceURL `json:"sourceUrls"`
	Topic        string      `json:"topic"`
	PublishedURL *string     `json:"publishedUrl,omitempty"`
	PublishedAt  *time.Time  `json:"publishedAt,omitempty"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Clone returns a copy that shares no mutable memory with a.
func (a Article) Clone() Article {
	out := a
	if a.SourceURLs != nil {
		out.SourceURLs = make([]SourceURL, len(a.SourceURLs))
		copy(out.SourceURLs, a.SourceURLs)
	}
	if a.PublishedURL != nil {
		u := *a.PublishedURL
		out.PublishedURL = &u
	}
	if a.PublishedAt != nil {
		t := *a.PublishedAt
		out.PublishedAt = &t
	}
	return out
}

// WithImage replaces the image URL and prompt together.
func (a Article) WithImage(img GeneratedImage) Article {
	a.ImageURL = img.DataURL()
	a.ImagePrompt = img.Prompt
	return a
}

type SourceURL struct {
	URI   string `json:"uri"`
	Title string `json:"title"`
}

type GeneratedImage struct {
	Bytes    []byte
	MIMEType string
	Prompt   string
}

// DataURL embeds the image bytes as a data URL.
func (g GeneratedImage) DataURL() string {
	mime := g.MIMEType
	if mime == "" {
		mime = "image/jpeg"
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(g.Bytes)
}
