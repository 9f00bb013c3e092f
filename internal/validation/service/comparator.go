package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	rulemodels "affirm/internal/rules/models"
	"affirm/internal/validation/models"
)

// fuzzyTolerance is the minimum normalized similarity for a fuzzy match to
// count as WITHIN_TOLERANCE. Exact similarity of 1.0 is a full MATCH.
const fuzzyTolerance = 0.80

// dateFormats are tried in order when parsing extracted or system dates.
var dateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"01/02/2006",
	"2006/01/02",
	"02-01-2006",
	"01-02-2006",
}

// CompareField evaluates one extracted field against the corresponding system
// value under a single rule. It is pure: identical inputs always yield the
// identical comparison and warnings.
//
// Precedence is fixed: confidence gate, then null handling, then the rule
// type. A malformed value under a numeric or date rule degrades that single
// comparison to exact matching and emits a warning rather than failing the
// run.
func CompareField(rule rulemodels.MatchingRule, extracted models.ExtractedField, systemValue any) (models.FieldComparison, []string) {
	cmp := models.FieldComparison{
		FieldName:             rule.FieldName,
		ExtractedValue:        extracted.Value,
		SystemValue:           systemValue,
		Confidence:            extracted.Confidence,
		MinRequiredConfidence: rule.MinConfidence,
		RuleApplied:           string(rule.RuleType),
	}

	if extracted.Confidence < rule.MinConfidence {
		cmp.MatchStatus = models.MatchStatusLowConfidence
		return cmp, nil
	}

	extNil := isNilValue(extracted.Value)
	sysNil := isNilValue(systemValue)
	switch {
	case extNil && sysNil:
		cmp.MatchStatus = models.MatchStatusMatch
		return cmp, nil
	case extNil || sysNil:
		cmp.MatchStatus = models.MatchStatusMismatch
		return cmp, nil
	}

	var warnings []string
	switch rule.RuleType {
	case rulemodels.RuleTypeExact:
		cmp.MatchStatus = compareExact(extracted.Value, systemValue)
	case rulemodels.RuleTypeTolerance:
		cmp.MatchStatus, warnings = compareTolerance(rule, extracted.Value, systemValue)
	case rulemodels.RuleTypeDateTolerance:
		cmp.MatchStatus, warnings = compareDateTolerance(rule, extracted.Value, systemValue)
	case rulemodels.RuleTypeFuzzy:
		cmp.MatchStatus = compareFuzzy(extracted.Value, systemValue)
	default:
		// Unknown rule types are rejected at configuration time; treat a
		// stray one as exact so the run stays deterministic.
		cmp.MatchStatus = compareExact(extracted.Value, systemValue)
	}
	return cmp, warnings
}

func isNilValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// canonicalString lowercases, trims, and collapses internal whitespace so
// formatting differences never count as mismatches.
func canonicalString(v any) string {
	s := fmt.Sprintf("%v", v)
	if d, ok := parseDecimal(v); ok {
		// Numbers canonicalize through decimal so "100.0" == "100".
		return d.String()
	}
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// parseDecimal accepts native JSON numbers and numeric strings. Thousands
// separators and surrounding whitespace are stripped before parsing.
func parseDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case float64:
		return decimal.NewFromFloat(x), true
	case float32:
		return decimal.NewFromFloat32(x), true
	case int:
		return decimal.NewFromInt(int64(x)), true
	case int64:
		return decimal.NewFromInt(x), true
	case decimal.Decimal:
		return x, true
	case string:
		s := strings.ReplaceAll(strings.TrimSpace(x), ",", "")
		if s == "" {
			return decimal.Decimal{}, false
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return decimal.Decimal{}, false
		}
		return d, true
	default:
		return decimal.Decimal{}, false
	}
}

func parseDate(v any) (time.Time, bool) {
	s, ok := v.(string)
	if !ok {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func compareExact(extracted, system any) models.MatchStatus {
	if ed, ok := parseDecimal(extracted); ok {
		if sd, ok := parseDecimal(system); ok {
			if ed.Equal(sd) {
				return models.MatchStatusMatch
			}
			return models.MatchStatusMismatch
		}
	}
	if canonicalString(extracted) == canonicalString(system) {
		return models.MatchStatusMatch
	}
	return models.MatchStatusMismatch
}

func compareTolerance(rule rulemodels.MatchingRule, extracted, system any) (models.MatchStatus, []string) {
	ed, eok := parseDecimal(extracted)
	sd, sok := parseDecimal(system)
	if !eok || !sok {
		warn := fmt.Sprintf("field %s: non-numeric value under tolerance rule, compared exactly", rule.FieldName)
		return compareExact(extracted, system), []string{warn}
	}
	if ed.Equal(sd) {
		return models.MatchStatusMatch, nil
	}

	diff := ed.Sub(sd).Abs()
	allowed := decimal.NewFromFloat(rule.Tolerance())
	if rule.ToleranceUnit == rulemodels.UnitPercent {
		// Percent tolerance is relative to the system value's magnitude.
		allowed = sd.Abs().Mul(allowed).Div(decimal.NewFromInt(100))
	}
	if diff.LessThanOrEqual(allowed) {
		return models.MatchStatusWithinTolerance, nil
	}
	return models.MatchStatusMismatch, nil
}

func compareDateTolerance(rule rulemodels.MatchingRule, extracted, system any) (models.MatchStatus, []string) {
	et, eok := parseDate(extracted)
	st, sok := parseDate(system)
	if !eok || !sok {
		warn := fmt.Sprintf("field %s: unparseable date under date_tolerance rule, compared exactly", rule.FieldName)
		return compareExact(extracted, system), []string{warn}
	}
	if et.Equal(st) {
		return models.MatchStatusMatch, nil
	}

	days := et.Sub(st).Hours() / 24
	if days < 0 {
		days = -days
	}
	if days <= rule.Tolerance() {
		return models.MatchStatusWithinTolerance, nil
	}
	return models.MatchStatusMismatch, nil
}

func compareFuzzy(extracted, system any) models.MatchStatus {
	a := canonicalString(extracted)
	b := canonicalString(system)
	sim := similarity(a, b)
	switch {
	case sim == 1.0:
		return models.MatchStatusMatch
	case sim >= fuzzyTolerance:
		return models.MatchStatusWithinTolerance
	default:
		return models.MatchStatusMismatch
	}
}

// similarity is 1 - levenshtein(a,b)/max(len(a),len(b)) over runes. Two empty
// strings are identical.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1.0
	}
	return 1.0 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			del := prev[j] + 1
			ins := curr[j-1] + 1
			sub := prev[j-1] + cost
			m := del
			if ins < m {
				m = ins
			}
			if sub < m {
				m = sub
			}
			curr[j] = m
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}
