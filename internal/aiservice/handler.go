package aiservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/tmc/langchaingo/llms"

	"github.com/techsphere/techsphere/internal/common"
)

var ErrGenerationFailed = errors.New("could not generate explanation")

func NewAIService(llm llms.Model, cache *common.Cache) *AIService {
	return &AIService{llm: llm, cache: cache}
}

type ExplainRequest struct {
	Text    string
	Context string
}

// Explain asks the language model for a short plain-language explanation of a
// text selection, optionally grounded in the surrounding article text.
// Identical requests within the cache window are answered from cache.
func (s *AIService) Explain(ctx context.Context, req *ExplainRequest) (string, error) {
	v := common.NewValidator()
	v.Check(req.Text != "", "text", "must be provided")
	v.Check(len(req.Text) <= maxSelectionLen, "text", fmt.Sprintf("must not be more than %d characters long", maxSelectionLen))
	v.Check(len(req.Context) <= maxContextLen, "context", fmt.Sprintf("must not be more than %d characters long", maxContextLen))
	if !v.Valid() {
		return "", v.ValidationError()
	}

	key := common.CacheKeyExplanation(req.Text, req.Context)
	if cached, ok := s.cache.Get(key); ok {
		if explanation, ok := cached.(string); ok {
			return explanation, nil
		}
	}

	prompt := buildPrompt(req.Text, req.Context)

	explanation, err := llms.GenerateFromSinglePrompt(ctx, s.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}

	s.cache.Set(key, explanation, ExplanationCacheTime)

	return explanation, nil
}

func buildPrompt(text, articleContext string) string {
	if articleContext == "" {
		return fmt.Sprintf("Explain the following text in simple, clear language for a general reader. Keep the explanation short.\n\nText: %q", text)
	}

	return fmt.Sprintf("Explain the following text in simple, clear language for a general reader. Keep the explanation short and use the article context only to disambiguate.\n\nText: %q\n\nArticle context: %q", text, articleContext)
}
