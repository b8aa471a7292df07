package search

import (
	"context"
	"fmt"
)

// SpellingEngine is the engine slice needed for spelling suggestions.
type SpellingEngine interface {
	Suggest(ctx context.Context, indices []string, text string) ([]string, error)
}

// EngineSuggester proposes alternative spellings via the engine's term
// suggester over the primary content indices.
type EngineSuggester struct {
	eng     SpellingEngine
	indices []string
}

// NewEngineSuggester creates a Suggester backed by the engine.
func NewEngineSuggester(eng SpellingEngine, indices []string) *EngineSuggester {
	return &EngineSuggester{eng: eng, indices: indices}
}

// Suggestions implements Suggester.
func (s *EngineSuggester) Suggestions(ctx context.Context, queryText string) ([]string, error) {
	suggestions, err := s.eng.Suggest(ctx, s.indices, queryText)
	if err != nil {
		return nil, fmt.Errorf("suggest: %w", err)
	}
	return suggestions, nil
}
