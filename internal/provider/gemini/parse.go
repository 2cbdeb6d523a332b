package gemini

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"google.golang.org/genai"

	"newsroom/internal/domain"
)

const unknownSourceTitle = "Unknown source"

var fencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

// StripFences removes a markdown code fence wrapped around a model reply.
func StripFences(text string) string {
	text = strings.TrimSpace(text)
	if m := fencePattern.FindStringSubmatch(text); m != nil {
		return m[1]
	}
	return text
}

// ParseTopics decodes a `[{"topic": "..."}]` reply.
func ParseTopics(text string) ([]domain.Topic, error) {
	var topics []domain.Topic
	if err := json.Unmarshal([]byte(StripFences(text)), &topics); err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}

	out := topics[:0]
	for _, t := range topics {
		if t.Topic = strings.TrimSpace(t.Topic); t.Topic != "" {
			out = append(out, t)
		}
	}
	return out, nil
}

// ExtractSources collects web citations from the grounding metadata of the
// first candidate. Order and duplicates are kept.
func ExtractSources(resp *genai.GenerateContentResponse) []domain.SourceURL {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}

	var sources []domain.SourceURL
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil || chunk.Web.URI == "" {
			continue
		}
		title := chunk.Web.Title
		if title == "" {
			title = unknownSourceTitle
		}
		sources = append(sources, domain.SourceURL{URI: chunk.Web.URI, Title: title})
	}
	return sources
}
