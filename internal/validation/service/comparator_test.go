package service

import (
	"math/rand"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rulemodels "affirm/internal/rules/models"
	"affirm/internal/validation/models"
)

func floatPtr(v float64) *float64 { return &v }

func rule(field string, ruleType rulemodels.RuleType, tolerance *float64, unit rulemodels.ToleranceUnit, minConf float64) rulemodels.MatchingRule {
	return rulemodels.MatchingRule{
		FieldName:      field,
		RuleType:       ruleType,
		ToleranceValue: tolerance,
		ToleranceUnit:  unit,
		MinConfidence:  minConf,
		Enabled:        true,
	}
}

func extractedValue(v any, confidence float64) models.ExtractedField {
	return models.ExtractedField{Value: v, Confidence: confidence}
}

func TestCompareFieldConfidenceGate(t *testing.T) {
	r := rule("party_a", rulemodels.RuleTypeExact, nil, "", 0.80)

	t.Run("low confidence wins over any value verdict", func(t *testing.T) {
		cmp, warns := CompareField(r, extractedValue("Acme Corp", 0.50), "Acme Corp")
		assert.Equal(t, models.MatchStatusLowConfidence, cmp.MatchStatus)
		assert.Empty(t, warns)
	})

	t.Run("low confidence wins over null handling", func(t *testing.T) {
		cmp, _ := CompareField(r, extractedValue(nil, 0.10), nil)
		assert.Equal(t, models.MatchStatusLowConfidence, cmp.MatchStatus)
	})

	t.Run("confidence exactly at minimum passes the gate", func(t *testing.T) {
		cmp, _ := CompareField(r, extractedValue("Acme Corp", 0.80), "Acme Corp")
		assert.Equal(t, models.MatchStatusMatch, cmp.MatchStatus)
	})
}

func TestCompareFieldNullHandling(t *testing.T) {
	r := rule("isin", rulemodels.RuleTypeExact, nil, "", 0.50)

	t.Run("both absent matches", func(t *testing.T) {
		cmp, _ := CompareField(r, extractedValue(nil, 0.90), nil)
		assert.Equal(t, models.MatchStatusMatch, cmp.MatchStatus)
	})

	t.Run("blank string counts as absent", func(t *testing.T) {
		cmp, _ := CompareField(r, extractedValue("   ", 0.90), nil)
		assert.Equal(t, models.MatchStatusMatch, cmp.MatchStatus)
	})

	t.Run("one side absent mismatches", func(t *testing.T) {
		cmp, _ := CompareField(r, extractedValue(nil, 0.90), "US0378331005")
		assert.Equal(t, models.MatchStatusMismatch, cmp.MatchStatus)

		cmp, _ = CompareField(r, extractedValue("US0378331005", 0.90), nil)
		assert.Equal(t, models.MatchStatusMismatch, cmp.MatchStatus)
	})
}

func TestCompareFieldExact(t *testing.T) {
	r := rule("local_currency", rulemodels.RuleTypeExact, nil, "", 0.50)

	t.Run("whitespace and case are irrelevant", func(t *testing.T) {
		cmp, _ := CompareField(r, extractedValue("  usd ", 0.90), "USD")
		assert.Equal(t, models.MatchStatusMatch, cmp.MatchStatus)
	})

	t.Run("internal whitespace collapses", func(t *testing.T) {
		cmp, _ := CompareField(r, extractedValue("Goldman  Sachs   International", 0.90), "goldman sachs international")
		assert.Equal(t, models.MatchStatusMatch, cmp.MatchStatus)
	})

	t.Run("numeric strings compare as numbers", func(t *testing.T) {
		cmp, _ := CompareField(r, extractedValue("100.00", 0.90), float64(100))
		assert.Equal(t, models.MatchStatusMatch, cmp.MatchStatus)
	})

	t.Run("different values mismatch", func(t *testing.T) {
		cmp, _ := CompareField(r, extractedValue("EUR", 0.90), "USD")
		assert.Equal(t, models.MatchStatusMismatch, cmp.MatchStatus)
	})
}

func TestCompareFieldTolerance(t *testing.T) {
	percent := rule("notional_amount", rulemodels.RuleTypeTolerance, floatPtr(0.1), rulemodels.UnitPercent, 0.50)
	absolute := rule("initial_spot_rate", rulemodels.RuleTypeTolerance, floatPtr(0.001), rulemodels.UnitAbsolute, 0.50)

	t.Run("equal values are a full match", func(t *testing.T) {
		cmp, warns := CompareField(percent, extractedValue(float64(1000000), 0.90), float64(1000000))
		assert.Equal(t, models.MatchStatusMatch, cmp.MatchStatus)
		assert.Empty(t, warns)
	})

	t.Run("within percent tolerance", func(t *testing.T) {
		// 0.1% of 1,000,000 is 1,000.
		cmp, _ := CompareField(percent, extractedValue(float64(1000900), 0.90), float64(1000000))
		assert.Equal(t, models.MatchStatusWithinTolerance, cmp.MatchStatus)
	})

	t.Run("at the percent boundary still passes", func(t *testing.T) {
		cmp, _ := CompareField(percent, extractedValue(float64(1001000), 0.90), float64(1000000))
		assert.Equal(t, models.MatchStatusWithinTolerance, cmp.MatchStatus)
	})

	t.Run("outside percent tolerance mismatches", func(t *testing.T) {
		cmp, _ := CompareField(percent, extractedValue(float64(1002000), 0.90), float64(1000000))
		assert.Equal(t, models.MatchStatusMismatch, cmp.MatchStatus)
	})

	t.Run("absolute tolerance", func(t *testing.T) {
		cmp, _ := CompareField(absolute, extractedValue(1.2345, 0.90), 1.2349)
		assert.Equal(t, models.MatchStatusWithinTolerance, cmp.MatchStatus)

		cmp, _ = CompareField(absolute, extractedValue(1.2345, 0.90), 1.2360)
		assert.Equal(t, models.MatchStatusMismatch, cmp.MatchStatus)
	})

	t.Run("thousands separators parse", func(t *testing.T) {
		cmp, _ := CompareField(percent, extractedValue("1,000,500", 0.90), float64(1000000))
		assert.Equal(t, models.MatchStatusWithinTolerance, cmp.MatchStatus)
	})

	t.Run("non-numeric degrades to exact with a warning", func(t *testing.T) {
		cmp, warns := CompareField(percent, extractedValue("one million", 0.90), float64(1000000))
		assert.Equal(t, models.MatchStatusMismatch, cmp.MatchStatus)
		require.Len(t, warns, 1)
		assert.Contains(t, warns[0], "notional_amount")

		cmp, warns = CompareField(percent, extractedValue("N/A", 0.90), "N/A")
		assert.Equal(t, models.MatchStatusMatch, cmp.MatchStatus)
		assert.Len(t, warns, 1)
	})
}

// TestCompareFieldToleranceProperty checks the tolerance contract over
// generated pairs: |e-s| <= allowed always lands MATCH or WITHIN_TOLERANCE
// and anything beyond always lands MISMATCH, for both units. The seed is
// fixed so failures reproduce.
func TestCompareFieldToleranceProperty(t *testing.T) {
	rng := rand.New(rand.NewSource(20260315))

	for i := 0; i < 1000; i++ {
		system := (rng.Float64()*2 - 1) * 1e7
		if system == 0 {
			system = 1
		}

		var r rulemodels.MatchingRule
		if rng.Intn(2) == 0 {
			r = rule("notional_amount", rulemodels.RuleTypeTolerance, floatPtr(rng.Float64()*4.9+0.1), rulemodels.UnitPercent, 0.50)
		} else {
			r = rule("initial_spot_rate", rulemodels.RuleTypeTolerance, floatPtr(rng.Float64()*999+1), rulemodels.UnitAbsolute, 0.50)
		}
		delta := (rng.Float64()*4 - 2) * allowedDiff(r, system).InexactFloat64()
		extracted := system + delta

		cmp, warns := CompareField(r, extractedValue(extracted, 0.90), system)
		require.Empty(t, warns)

		diff := decimal.NewFromFloat(extracted).Sub(decimal.NewFromFloat(system)).Abs()
		if diff.LessThanOrEqual(allowedDiff(r, system)) {
			assert.Contains(t,
				[]models.MatchStatus{models.MatchStatusMatch, models.MatchStatusWithinTolerance},
				cmp.MatchStatus,
				"system=%v extracted=%v rule=%+v", system, extracted, r)
		} else {
			assert.Equal(t, models.MatchStatusMismatch, cmp.MatchStatus,
				"system=%v extracted=%v rule=%+v", system, extracted, r)
		}
	}
}

// allowedDiff is the permitted absolute difference under a tolerance rule,
// computed with the same decimal arithmetic the comparator uses.
func allowedDiff(r rulemodels.MatchingRule, system float64) decimal.Decimal {
	allowed := decimal.NewFromFloat(r.Tolerance())
	if r.ToleranceUnit == rulemodels.UnitPercent {
		allowed = decimal.NewFromFloat(system).Abs().Mul(allowed).Div(decimal.NewFromInt(100))
	}
	return allowed
}

func TestCompareFieldDateTolerance(t *testing.T) {
	oneDay := rule("effective_date", rulemodels.RuleTypeDateTolerance, floatPtr(1), rulemodels.UnitDays, 0.50)
	sameDay := rule("trade_date", rulemodels.RuleTypeDateTolerance, floatPtr(0), rulemodels.UnitDays, 0.50)

	t.Run("same day is a full match across formats", func(t *testing.T) {
		cmp, warns := CompareField(sameDay, extractedValue("15/03/2026", 0.90), "2026-03-15")
		assert.Equal(t, models.MatchStatusMatch, cmp.MatchStatus)
		assert.Empty(t, warns)
	})

	t.Run("one day off within tolerance", func(t *testing.T) {
		cmp, _ := CompareField(oneDay, extractedValue("2026-03-16", 0.90), "2026-03-15")
		assert.Equal(t, models.MatchStatusWithinTolerance, cmp.MatchStatus)
	})

	t.Run("one day off outside zero tolerance", func(t *testing.T) {
		cmp, _ := CompareField(sameDay, extractedValue("2026-03-16", 0.90), "2026-03-15")
		assert.Equal(t, models.MatchStatusMismatch, cmp.MatchStatus)
	})

	t.Run("two days off mismatches", func(t *testing.T) {
		cmp, _ := CompareField(oneDay, extractedValue("2026-03-17", 0.90), "2026-03-15")
		assert.Equal(t, models.MatchStatusMismatch, cmp.MatchStatus)
	})

	t.Run("unparseable date degrades to exact with a warning", func(t *testing.T) {
		cmp, warns := CompareField(oneDay, extractedValue("mid March", 0.90), "2026-03-15")
		assert.Equal(t, models.MatchStatusMismatch, cmp.MatchStatus)
		require.Len(t, warns, 1)
		assert.Contains(t, warns[0], "effective_date")
	})
}

func TestCompareFieldFuzzy(t *testing.T) {
	r := rule("party_b", rulemodels.RuleTypeFuzzy, nil, "", 0.50)

	t.Run("identical after canonicalization is a full match", func(t *testing.T) {
		cmp, _ := CompareField(r, extractedValue("  Goldman Sachs ", 0.90), "goldman sachs")
		assert.Equal(t, models.MatchStatusMatch, cmp.MatchStatus)
	})

	t.Run("near match is within tolerance", func(t *testing.T) {
		// One insertion over fifteen runes keeps similarity above 0.80.
		cmp, _ := CompareField(r, extractedValue("JPMorgan Chase", 0.90), "JP Morgan Chase")
		assert.Equal(t, models.MatchStatusWithinTolerance, cmp.MatchStatus)
	})

	t.Run("unrelated strings mismatch", func(t *testing.T) {
		cmp, _ := CompareField(r, extractedValue("Barclays", 0.90), "Nomura")
		assert.Equal(t, models.MatchStatusMismatch, cmp.MatchStatus)
	})
}

func TestCompareFieldDeterminism(t *testing.T) {
	r := rule("party_a", rulemodels.RuleTypeFuzzy, nil, "", 0.80)
	field := extractedValue("Deutsche Bank AG", 0.85)

	first, firstWarns := CompareField(r, field, "Deutsche Bank A.G.")
	for i := 0; i < 5; i++ {
		again, againWarns := CompareField(r, field, "Deutsche Bank A.G.")
		assert.Equal(t, first, again)
		assert.Equal(t, firstWarns, againWarns)
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, similarity("", ""))
	assert.Equal(t, 1.0, similarity("abc", "abc"))
	assert.Equal(t, 0.0, similarity("", "abc"))
	assert.InDelta(t, 0.75, similarity("abcd", "abxd"), 1e-9)
}
