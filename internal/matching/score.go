package matching

import (
	"strings"

	"lendermatch-workers/internal/models"
)

// Criterion weights in percentage points. The exact-match weights sum to 100.
const (
	weightLoanAmount   = 18
	weightPropertyType = 20
	weightFicoScore    = 17
	weightState        = 15
	weightLoanType     = 10
	weightSubcategory  = 20

	// relatedSubcategoryCredit is the flat consolation award for a lender that
	// accepts some other subcategory under the loan's property category. It is
	// intentionally not a fraction of weightSubcategory.
	relatedSubcategoryCredit = 1
)

// ScoreLender computes the per-criterion breakdown and the weighted 0-100
// score for a lender that already passed hard elimination. The LoanAmount,
// PropertyType and FicoScore flags are re-derived here; for any survivor they
// must come out true, and a disagreement with the filter is a defect.
func ScoreLender(loan *models.LoanApplication, lender *models.LenderProfile) (models.MatchBreakdown, float64) {
	amount := loan.LoanAmount.Value()

	breakdown := models.MatchBreakdown{
		LoanType:     containsFold(lender.LoanTypes, loan.LoanType),
		LoanAmount:   amount >= lender.MinLoanAmount.Value() && amount <= lender.MaxLoanAmount.Value(),
		PropertyType: containsFold(lender.PropertyCategories, loan.PropertyTypeCategory),
		FicoScore:    loan.SponsorFico.Value() >= lender.FicoScore.Value(),
		State:        containsFold(lender.LendingFootprint, loan.State),
	}

	expected := loan.PropertySubCategory.Key()
	breakdown.PropertySubCategory = containsFold(lender.SubcategorySelections, expected)
	if !breakdown.PropertySubCategory {
		breakdown.HasRelatedSubcategory = acceptsCategorySubcategory(lender.SubcategorySelections, loan.PropertyTypeCategory)
	}

	score := 0.0
	if breakdown.LoanAmount {
		score += weightLoanAmount
	}
	if breakdown.PropertyType {
		score += weightPropertyType
	}
	if breakdown.FicoScore {
		score += weightFicoScore
	}
	if breakdown.State {
		score += weightState
	}
	if breakdown.LoanType {
		score += weightLoanType
	}
	switch {
	case breakdown.PropertySubCategory:
		score += weightSubcategory
	case breakdown.HasRelatedSubcategory:
		score += relatedSubcategoryCredit
	}

	return breakdown, score
}

// acceptsCategorySubcategory reports whether any selection is namespaced under
// the given property category ("category:subkey" convention).
func acceptsCategorySubcategory(selections []string, category string) bool {
	prefix := strings.ToLower(strings.TrimSpace(category)) + ":"
	if prefix == ":" {
		return false
	}
	for _, sel := range selections {
		if strings.HasPrefix(strings.ToLower(strings.TrimSpace(sel)), prefix) {
			return true
		}
	}
	return false
}
