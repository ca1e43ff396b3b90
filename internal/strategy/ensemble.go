package strategy

import (
	"fmt"
	"math"
	"sort"

	"github.com/rs/zerolog/log"
)

// Scores maps strategy name to per-regime performance score.
type Scores map[string]map[Regime]float64

// Ensemble manages multiple strategies and selects one for the current
// regime by highest recorded score.
type Ensemble struct {
	strategies map[string]Strategy
	scores     Scores
}

// NewEnsemble builds an ensemble over the given strategies. A nil score table
// defaults every strategy to 1.0 in every regime.
func NewEnsemble(strategies map[string]Strategy, scores Scores) (*Ensemble, error) {
	if len(strategies) == 0 {
		return nil, fmt.Errorf("ensemble requires at least one strategy")
	}
	if scores == nil {
		scores = make(Scores, len(strategies))
		for name := range strategies {
			scores[name] = map[Regime]float64{RegimeHigh: 1.0, RegimeLow: 1.0}
		}
	}
	return &Ensemble{strategies: strategies, scores: scores}, nil
}

// Select returns the strategy with the highest score for the most recent
// regime label. Ties break on strategy name so selection is deterministic.
func (e *Ensemble) Select(regimes []Regime) (Strategy, error) {
	if len(regimes) == 0 {
		return nil, fmt.Errorf("no regime history to select from")
	}
	current := regimes[len(regimes)-1]

	names := make([]string, 0, len(e.strategies))
	for name := range e.strategies {
		names = append(names, name)
	}
	sort.Strings(names)

	bestName := names[0]
	bestScore := math.Inf(-1)
	for _, name := range names {
		score := e.scores[name][current]
		if score > bestScore {
			bestName, bestScore = name, score
		}
	}

	log.Info().
		Str("regime", string(current)).
		Str("strategy", bestName).
		Float64("score", bestScore).
		Msg("Ensemble selected strategy")
	return e.strategies[bestName], nil
}
