package gemini

import (
	"fmt"
	"strings"

	"newsroom/internal/domain"
)

type prompts struct {
	newsroom  string
	region    string
	maxTopics int
}

func (p prompts) prospect(keywords []string, timeRange string) string {
	return fmt.Sprintf(`Act as a news aggregator. Search for the most relevant news about %q %s.
Identify the %d most significant stories. For each story write a concise one-sentence summary to use as a topic.
Reply ONLY with a JSON array of objects, each with a single key "topic".
Example: [{"topic": "Summary of story 1"}, {"topic": "Summary of story 2"}]`,
		strings.Join(keywords, ", "), timeRange, p.maxTopics)
}

func (p prompts) system() string {
	return fmt.Sprintf(`You are a professional journalist writing for a local news portal called %q in %s. `+
		`Your audience is the local community. Keep the language clear, objective and relevant to readers in the region.`,
		p.newsroom, p.region)
}

func (p prompts) article(topic string, tone domain.Tone, targetLength int) string {
	return fmt.Sprintf(`Based on the following topic: %q, write a news story.
- Tone: %s
- Length: about %d words.
- The story needs a catchy title and an informative body.
- Reply with a JSON object with the keys "title" and "content". Do not use markdown.`,
		topic, tone, targetLength)
}

func (p prompts) image(title string) string {
	return fmt.Sprintf(`Minimalist, elegant news photograph for a story titled: %q. `+
		`The image should fit the context of %s. Photorealistic style.`, title, p.region)
}
