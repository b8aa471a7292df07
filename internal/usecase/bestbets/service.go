// Package bestbets resolves editorial promote/demote rules for a query.
package bestbets

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/unisearch/internal/domain/bestbet"
	"github.com/kailas-cloud/unisearch/internal/engine"
)

// StemmedMatchAnalyzer normalizes queries for stemmed best-bet comparison.
// Stored triggers were analyzed with the same chain at write time.
const StemmedMatchAnalyzer = "best_bet_stemmed_match"

// Engine is the slice of the engine contract this service needs.
type Engine interface {
	LookupBestBets(ctx context.Context, index, queryText string) ([]engine.BestBetDoc, error)
	Analyze(ctx context.Context, index, analyzer, text string) ([]string, error)
}

// Service looks up best bets in the auxiliary index.
type Service struct {
	eng    Engine
	index  string
	logger *zap.Logger
}

// New creates a best-bet lookup service reading from the given auxiliary
// index.
func New(eng Engine, index string, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{eng: eng, index: index, logger: logger}
}

// Lookup returns the merged best bet for a query, or nil when no trigger
// matches. Absence of a match is not an error.
func (s *Service) Lookup(ctx context.Context, queryText string) (*bestbet.BestBet, error) {
	if queryText == "" {
		return nil, nil
	}

	docs, err := s.eng.LookupBestBets(ctx, s.index, queryText)
	if err != nil {
		return nil, fmt.Errorf("lookup best bets: %w", err)
	}
	if len(docs) == 0 {
		return nil, nil
	}

	// The stemmed trigger comparison needs the user query normalized
	// through the same analyzer the triggers were stored with. Only pay
	// for the round trip when a stemmed candidate exists.
	var analyzedQuery string
	for _, doc := range docs {
		if doc.StemmedQuery != "" {
			tokens, err := s.eng.Analyze(ctx, s.index, StemmedMatchAnalyzer, queryText)
			if err != nil {
				return nil, fmt.Errorf("analyze query for best bets: %w", err)
			}
			analyzedQuery = strings.Join(tokens, " ")
			break
		}
	}

	// Exact matches merge ahead of stemmed ones regardless of engine
	// document order, so an exact trigger's positions win collisions.
	var exact, stemmed []*bestbet.BestBet
	for _, doc := range docs {
		switch {
		case doc.ExactQuery != "":
			if doc.ExactQuery != queryText {
				continue
			}
			bet, err := s.parse(doc, queryText, bestbet.Exact)
			if err != nil {
				return nil, err
			}
			exact = append(exact, bet)
		case doc.StemmedQuery != "":
			if !bestbet.StemmedMatch(doc.StemmedQueryAsTerm, analyzedQuery) {
				continue
			}
			bet, err := s.parse(doc, queryText, bestbet.Stemmed)
			if err != nil {
				return nil, err
			}
			stemmed = append(stemmed, bet)
		}
	}
	matched := append(exact, stemmed...)
	if len(matched) == 0 {
		return nil, nil
	}

	merged := bestbet.Merge(matched...)
	s.logger.Debug("best bet matched",
		zap.String("query", queryText),
		zap.Int("promotes", len(merged.Promotes())),
		zap.Int("demotes", len(merged.Demotes())),
	)
	return merged, nil
}

type betDetails struct {
	BestBets []struct {
		Link     string `json:"link"`
		Position int    `json:"position"`
	} `json:"best_bets"`
	WorstBets []struct {
		Link string `json:"link"`
	} `json:"worst_bets"`
}

func (s *Service) parse(doc engine.BestBetDoc, queryText string, kind bestbet.Kind) (*bestbet.BestBet, error) {
	var details betDetails
	if err := json.Unmarshal([]byte(doc.Details), &details); err != nil {
		return nil, fmt.Errorf("parse best bet details for %q: %w", queryText, err)
	}

	promotes := make([]bestbet.Promote, 0, len(details.BestBets))
	for _, b := range details.BestBets {
		promotes = append(promotes, bestbet.Promote{Link: b.Link, Position: b.Position})
	}
	demotes := make([]string, 0, len(details.WorstBets))
	for _, w := range details.WorstBets {
		demotes = append(demotes, w.Link)
	}
	return bestbet.New(queryText, kind, promotes, demotes), nil
}
