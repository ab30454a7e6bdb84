// Package matching implements the loan-to-lender matching engine: a hard
// elimination gate over (loan, lender) pairs, a weighted scoring pass with a
// per-criterion breakdown, and a stable descending rank over the survivors.
// The engine is pure: it performs no I/O, holds no state between runs, and
// never mutates its inputs, so concurrent invocations need no coordination.
package matching

import (
	"strings"

	"lendermatch-workers/internal/models"
)

// PassesHardElimination reports whether a lender is categorically able to fund
// the loan. The gate is binary: eligibility only, no partial credit. Checks run
// in FICO, amount, property-type order and short-circuit on the first failure.
func PassesHardElimination(loan *models.LoanApplication, lender *models.LenderProfile) bool {
	if loan.SponsorFico.Value() < lender.FicoScore.Value() {
		return false
	}

	amount := loan.LoanAmount.Value()
	if amount <= 0 {
		// Zero or unparseable amounts can never match any lender.
		return false
	}
	if amount < lender.MinLoanAmount.Value() || amount > lender.MaxLoanAmount.Value() {
		return false
	}

	return containsFold(lender.PropertyCategories, loan.PropertyTypeCategory)
}

// containsFold reports whether needle appears in haystack, compared
// case-insensitively with surrounding whitespace ignored.
func containsFold(haystack []string, needle string) bool {
	needle = strings.TrimSpace(needle)
	if needle == "" {
		return false
	}
	for _, s := range haystack {
		if strings.EqualFold(strings.TrimSpace(s), needle) {
			return true
		}
	}
	return false
}
