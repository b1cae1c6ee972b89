package aiservice

import (
	"time"

	"github.com/tmc/langchaingo/llms"

	"github.com/techsphere/techsphere/internal/common"
)

const (
	// ExplanationCacheTime bounds how long a generated explanation is reused.
	// Explanations are pure functions of their inputs, so reuse is safe.
	ExplanationCacheTime = 1 * time.Hour

	maxSelectionLen = 5000
	maxContextLen   = 10000
)

type AIService struct {
	llm   llms.Model
	cache *common.Cache
}
