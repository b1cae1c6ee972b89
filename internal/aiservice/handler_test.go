package aiservice

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tmc/langchaingo/llms"

	"github.com/techsphere/techsphere/internal/common"
)

type mockLLM struct {
	calls    int
	response string
	err      error
}

func (m *mockLLM) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}

	return &llms.ContentResponse{
		Choices: []*llms.ContentChoice{{Content: m.response}},
	}, nil
}

func (m *mockLLM) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	m.calls++
	return m.response, m.err
}

func setupTestEnvironment(llm *mockLLM) *AIService {
	return NewAIService(llm, common.NewCache(ExplanationCacheTime, 10*time.Minute))
}

func TestExplainValidation(t *testing.T) {
	llm := &mockLLM{response: "An explanation."}
	s := setupTestEnvironment(llm)

	testCases := []struct {
		name string
		req  *ExplainRequest
	}{
		{"empty text", &ExplainRequest{Text: ""}},
		{"text too long", &ExplainRequest{Text: strings.Repeat("a", maxSelectionLen+1)}},
		{"context too long", &ExplainRequest{Text: "CAP theorem", Context: strings.Repeat("a", maxContextLen+1)}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := s.Explain(context.Background(), tc.req)
			assert.IsType(t, common.ValidationError{}, err)
		})
	}

	// invalid requests never reach the model
	assert.Equal(t, 0, llm.calls)
}

func TestExplain(t *testing.T) {
	llm := &mockLLM{response: "An explanation."}
	s := setupTestEnvironment(llm)

	explanation, err := s.Explain(context.Background(), &ExplainRequest{Text: "CAP theorem", Context: "An article on distributed databases."})
	assert.NoError(t, err)
	assert.Equal(t, "An explanation.", explanation)
	assert.Equal(t, 1, llm.calls)
}

func TestExplainCaching(t *testing.T) {
	llm := &mockLLM{response: "An explanation."}
	s := setupTestEnvironment(llm)

	req := &ExplainRequest{Text: "CAP theorem", Context: "An article on distributed databases."}

	_, err := s.Explain(context.Background(), req)
	assert.NoError(t, err)

	// the repeated request is served from cache
	explanation, err := s.Explain(context.Background(), req)
	assert.NoError(t, err)
	assert.Equal(t, "An explanation.", explanation)
	assert.Equal(t, 1, llm.calls)

	// a different selection is a different cache entry
	_, err = s.Explain(context.Background(), &ExplainRequest{Text: "Paxos", Context: "An article on distributed databases."})
	assert.NoError(t, err)
	assert.Equal(t, 2, llm.calls)

	// so is the same selection with different surrounding context
	_, err = s.Explain(context.Background(), &ExplainRequest{Text: "CAP theorem"})
	assert.NoError(t, err)
	assert.Equal(t, 3, llm.calls)
}

func TestExplainGenerationFailure(t *testing.T) {
	llm := &mockLLM{err: errors.New("model unavailable")}
	s := setupTestEnvironment(llm)

	_, err := s.Explain(context.Background(), &ExplainRequest{Text: "CAP theorem"})
	assert.ErrorIs(t, err, ErrGenerationFailed)

	// failures are not cached, the next attempt hits the model again
	llm.err = nil
	llm.response = "An explanation."

	explanation, err := s.Explain(context.Background(), &ExplainRequest{Text: "CAP theorem"})
	assert.NoError(t, err)
	assert.Equal(t, "An explanation.", explanation)
}
