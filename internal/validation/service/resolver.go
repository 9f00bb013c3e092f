package service

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	rulemodels "affirm/internal/rules/models"
	trademodels "affirm/internal/trades/models"
	"affirm/internal/validation/models"
)

// maxScoringConcurrency bounds the candidate scoring fan-out.
const maxScoringConcurrency = 8

// Resolution is the outcome of matching one extracted trade against the
// candidate system trades.
type Resolution struct {
	// Trade is nil when no candidate cleared the resolution floor.
	Trade       *trademodels.Trade
	Comparisons []models.FieldComparison
	Warnings    []string
	Score       float64
	// Identity reports that the candidate was selected by a unique trade_id
	// match rather than by scoring.
	Identity bool
}

type scoredCandidate struct {
	trade       trademodels.Trade
	comparisons []models.FieldComparison
	warnings    []string
	score       float64
}

// ResolveCandidate selects the system trade an extracted document refers to.
//
// When the extracted trade_id matches exactly one candidate (case-insensitive)
// that candidate wins outright. Otherwise every candidate is scored
// concurrently and the best score wins; ties break to the lexicographically
// smallest trade_id so repeated runs are stable. A best score below floor
// resolves to no trade.
func ResolveCandidate(ctx context.Context, rules *rulemodels.RuleSet, extracted *models.ExtractedTrade, candidates []trademodels.Trade, floor float64) (Resolution, error) {
	if len(candidates) == 0 {
		return Resolution{}, nil
	}

	if t, ok := identityMatch(extracted, candidates); ok {
		sc := scoreCandidate(rules, extracted, t)
		return Resolution{
			Trade:       &sc.trade,
			Comparisons: sc.comparisons,
			Warnings:    sc.warnings,
			Score:       sc.score,
			Identity:    true,
		}, nil
	}

	scored := make([]scoredCandidate, len(candidates))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(maxScoringConcurrency)
	for i, cand := range candidates {
		i, cand := i, cand
		g.Go(func() error {
			scored[i] = scoreCandidate(rules, extracted, cand)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Resolution{}, err
	}
	if err := ctx.Err(); err != nil {
		return Resolution{}, err
	}

	best := scored[0]
	for _, sc := range scored[1:] {
		if sc.score > best.score {
			best = sc
			continue
		}
		if sc.score == best.score && sc.trade.TradeID < best.trade.TradeID {
			best = sc
		}
	}
	if best.score < floor {
		return Resolution{Score: best.score}, nil
	}
	return Resolution{
		Trade:       &best.trade,
		Comparisons: best.comparisons,
		Warnings:    best.warnings,
		Score:       best.score,
	}, nil
}

// identityMatch returns the single candidate whose trade_id equals the
// extracted trade_id, case-insensitively. Zero or multiple matches fall back
// to scoring.
func identityMatch(extracted *models.ExtractedTrade, candidates []trademodels.Trade) (trademodels.Trade, bool) {
	field, ok := extracted.Field("trade_id")
	if !ok || isNilValue(field.Value) {
		return trademodels.Trade{}, false
	}
	want, ok := field.Value.(string)
	if !ok {
		return trademodels.Trade{}, false
	}
	want = strings.ToLower(strings.TrimSpace(want))

	var found trademodels.Trade
	matches := 0
	for _, c := range candidates {
		if strings.ToLower(strings.TrimSpace(c.TradeID)) == want {
			found = c
			matches++
		}
	}
	if matches == 1 {
		return found, true
	}
	return trademodels.Trade{}, false
}

// scoreCandidate runs every enabled rule whose field is present in the
// extraction against one candidate. Score is the fraction of comparisons that
// landed MATCH or WITHIN_TOLERANCE; zero comparisons score zero.
func scoreCandidate(rules *rulemodels.RuleSet, extracted *models.ExtractedTrade, cand trademodels.Trade) scoredCandidate {
	sc := scoredCandidate{trade: cand}
	favorable := 0
	for _, rule := range rules.EnabledRules() {
		field, ok := extracted.Field(rule.FieldName)
		if !ok {
			continue
		}
		sysValue, known := cand.FieldValue(rule.FieldName)
		if !known {
			continue
		}
		cmp, warns := CompareField(rule, field, sysValue)
		sc.comparisons = append(sc.comparisons, cmp)
		sc.warnings = append(sc.warnings, warns...)
		if cmp.MatchStatus.Favorable() {
			favorable++
		}
	}
	if len(sc.comparisons) > 0 {
		sc.score = float64(favorable) / float64(len(sc.comparisons))
	}
	return sc
}
