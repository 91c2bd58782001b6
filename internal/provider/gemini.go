package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"app/internal/model"
)

// PostFormats are the content formats every generation pass must produce.
var PostFormats = []string{"one_liner", "hot_take", "paragraph", "mini_story", "insight", "list_post"}

const maxPostRunes = 280

// GeminiGenerator produces short-form posts from a transcript using the
// Gemini API.
type GeminiGenerator struct {
	apiKey string
	model  string
}

func NewGeminiGenerator(apiKey, model string) *GeminiGenerator {
	return &GeminiGenerator{apiKey: apiKey, model: model}
}

func (g *GeminiGenerator) GeneratePosts(ctx context.Context, transcript, instructions string) (model.PostsByFormat, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  g.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create generation client: %w", err)
	}

	resp, err := client.Models.GenerateContent(ctx, g.model, genai.Text(buildPrompt(transcript, instructions)), &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		Temperature:      genai.Ptr[float32](0.8),
	})
	if err != nil {
		return nil, fmt.Errorf("generation request failed: %w", err)
	}

	raw := stripCodeFence(resp.Text())
	if raw == "" {
		return nil, fmt.Errorf("generation returned empty response")
	}

	var parsed map[string][]string
	if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse generated posts: %w", err)
	}

	posts := make(model.PostsByFormat, len(PostFormats))
	for _, format := range PostFormats {
		variants, ok := parsed[format]
		if !ok || len(variants) == 0 {
			return nil, fmt.Errorf("generation missing format %q", format)
		}
		truncated := make([]string, len(variants))
		for i, v := range variants {
			truncated[i] = TruncatePost(v)
		}
		posts[format] = truncated
	}
	return posts, nil
}

// TruncatePost caps a post at the X character limit, marking the cut with an
// ellipsis.
func TruncatePost(text string) string {
	runes := []rune(text)
	if len(runes) <= maxPostRunes {
		return text
	}
	return string(runes[:maxPostRunes-3]) + "..."
}

func buildPrompt(transcript, instructions string) string {
	var b strings.Builder
	b.WriteString("You are a social media ghostwriter. From the transcript below, write short-form posts for X (Twitter).\n\n")
	b.WriteString("Return ONLY a JSON object with exactly these keys, each mapping to an array of 3 post variants:\n")
	b.WriteString(`  "one_liner": punchy single-sentence takeaways` + "\n")
	b.WriteString(`  "hot_take": bold, slightly contrarian opinions grounded in the content` + "\n")
	b.WriteString(`  "paragraph": a single dense paragraph summarizing one key idea` + "\n")
	b.WriteString(`  "mini_story": a short narrative arc drawn from the content` + "\n")
	b.WriteString(`  "insight": a non-obvious observation the audience can act on` + "\n")
	b.WriteString(`  "list_post": a numbered or bulleted list of takeaways` + "\n\n")
	b.WriteString("Each post must stand alone and fit in 280 characters. No hashtags unless they add real value.\n")
	if instructions != "" {
		b.WriteString("\nAdditional instructions from the author: ")
		b.WriteString(instructions)
		b.WriteString("\n")
	}
	b.WriteString("\nTranscript:\n")
	b.WriteString(transcript)
	return b.String()
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
