package service

import "affirm/internal/validation/models"

// Aggregate folds per-field comparisons into an overall status and machine
// confidence.
//
// An unresolved trade is always (MISMATCH, 0) regardless of comparisons; a
// resolved trade with no comparisons is (PENDING, 0) so it routes to a human
// rather than silently passing. Otherwise any unfavorable comparison taints
// the run: over mismatchBoundary as a fraction it is MISMATCH, at or below it
// PARTIAL. Confidence is the mean extracted confidence across comparisons.
func Aggregate(comparisons []models.FieldComparison, found bool, mismatchBoundary float64) (models.Status, float64) {
	if !found {
		return models.StatusMismatch, 0
	}
	if len(comparisons) == 0 {
		return models.StatusPending, 0
	}

	bad := 0
	total := 0.0
	for _, c := range comparisons {
		total += c.Confidence
		if !c.MatchStatus.Favorable() {
			bad++
		}
	}
	confidence := total / float64(len(comparisons))

	if bad == 0 {
		return models.StatusMatch, confidence
	}
	if float64(bad)/float64(len(comparisons)) > mismatchBoundary {
		return models.StatusMismatch, confidence
	}
	return models.StatusPartial, confidence
}

// AutoPass reports whether a run may bypass human review: the machine status
// must be a clean MATCH on a resolved trade, at or above the confidence
// threshold.
func AutoPass(status models.Status, confidence float64, found bool, threshold float64) bool {
	return found && status == models.StatusMatch && confidence >= threshold
}
