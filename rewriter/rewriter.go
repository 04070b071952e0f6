// Package rewriter is the generative-text boundary: keyword-to-article
// generation, same-language rewriting, translate-and-rewrite and
// categorization against Gemini. Every operation fails explicitly on
// backend errors so the orchestrator's retry logic can engage.
package rewriter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"realnews/config"
	"realnews/models"
)

// Result is the structured output of the article-producing operations.
type Result struct {
	Title   string `json:"title"`
	Excerpt string `json:"excerpt"`
	Content string `json:"content"`
}

// generateFunc performs one backend call and returns the raw model text.
// Swapped out in tests.
type generateFunc func(ctx context.Context, system, user string, structured bool) (string, error)

// Rewriter wraps a Gemini client configured once at startup.
type Rewriter struct {
	gen generateFunc
}

// New constructs a Rewriter from explicit configuration. A missing or
// rejected API key surfaces here as an error, not later mid-pipeline.
func New(ctx context.Context, cfg *config.AppConfig) (*Rewriter, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: cfg.GeminiAPIKey})
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	model := cfg.GeminiModel
	gen := func(ctx context.Context, system, user string, structured bool) (string, error) {
		gc := &genai.GenerateContentConfig{}
		if system != "" {
			gc.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
		}
		if structured {
			gc.ResponseMIMEType = "application/json"
			gc.ResponseSchema = articleSchema
		}

		res, err := client.Models.GenerateContent(ctx, model, genai.Text(user), gc)
		if err != nil {
			return "", err
		}
		text := res.Text()
		if text == "" {
			return "", fmt.Errorf("empty response from gemini")
		}
		return text, nil
	}

	return &Rewriter{gen: gen}, nil
}

var articleSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"title":   {Type: genai.TypeString},
		"excerpt": {Type: genai.TypeString},
		"content": {Type: genai.TypeString},
	},
	Required: []string{"title", "excerpt", "content"},
}

// GenerateFromKeyword produces an original Uzbek article on a trend keyword.
func (r *Rewriter) GenerateFromKeyword(ctx context.Context, keyword, category string) (*Result, error) {
	user := fmt.Sprintf("Trend topic: %q\n", keyword)
	if category != "" {
		user += fmt.Sprintf("Category: %s\n", category)
	}
	user += generateUserPrompt

	return r.article(ctx, generateSystemPrompt, user)
}

// RewriteArticle produces a same-language paraphrase of a source article,
// preserving facts while restructuring wording, paragraph order and the
// headline.
func (r *Rewriter) RewriteArticle(ctx context.Context, title, content, sourceURL string) (*Result, error) {
	user := fmt.Sprintf("Source title: %s\nSource URL: %s\n\nSource text:\n%s\n\n%s",
		title, sourceURL, content, rewriteUserPrompt)
	return r.article(ctx, rewriteSystemPrompt, user)
}

// TranslateArticle translates a foreign-language source into Uzbek and
// paraphrases it, localizing idioms and measures where sensible.
func (r *Rewriter) TranslateArticle(ctx context.Context, title, content, sourceURL string) (*Result, error) {
	user := fmt.Sprintf("Source title: %s\nSource URL: %s\n\nSource text:\n%s\n\n%s",
		title, sourceURL, content, translateUserPrompt)
	return r.article(ctx, translateSystemPrompt, user)
}

func (r *Rewriter) article(ctx context.Context, system, user string) (*Result, error) {
	raw, err := r.gen(ctx, system, user, true)
	if err != nil {
		return nil, fmt.Errorf("generate article: %w", err)
	}

	var res Result
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &res); err != nil {
		return nil, fmt.Errorf("parse article response: %w", err)
	}
	if res.Title == "" || res.Content == "" {
		return nil, fmt.Errorf("incomplete article response")
	}

	res.Title = sanitizePlain(res.Title)
	res.Excerpt = sanitizePlain(res.Excerpt)
	res.Content = sanitizePlain(res.Content)
	return &res, nil
}

// Categorize maps a keyword or title onto the fixed category set. Off-list
// or empty answers map to the default category; backend failures are
// returned as errors so callers choose their own fallback policy.
func (r *Rewriter) Categorize(ctx context.Context, keyword string) (string, error) {
	user := fmt.Sprintf(categorizeUserPrompt, keyword, strings.Join(models.Categories, ", "))
	raw, err := r.gen(ctx, "", user, false)
	if err != nil {
		return "", fmt.Errorf("categorize %q: %w", keyword, err)
	}

	answer := strings.TrimSpace(raw)
	if !models.ValidCategory(answer) {
		return models.DefaultCategory, nil
	}
	return answer, nil
}

// stripCodeFence unwraps a ```json ... ``` fence if the model added one
// despite the instructions.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// sanitizePlain removes markdown artifacts the model occasionally emits so
// stored text stays plain.
func sanitizePlain(s string) string {
	replacer := strings.NewReplacer("**", "", "__", "", "```", "")
	s = replacer.Replace(s)

	lines := strings.Split(s, "\n")
	for i, line := range lines {
		trimmed := strings.TrimLeft(line, " ")
		for strings.HasPrefix(trimmed, "#") {
			trimmed = strings.TrimPrefix(trimmed, "#")
		}
		lines[i] = strings.TrimLeft(trimmed, " ")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
