package models

// MatchBreakdown records, per criterion, whether a surviving lender satisfied
// it. LoanAmount, PropertyType and FicoScore are always true for any lender
// that reached scoring; they are re-derived there as a consistency cross-check
// against the elimination stage. PropertySubCategory and HasRelatedSubcategory
// are mutually exclusive: the related flag is only computed when the exact
// subcategory match failed.
type MatchBreakdown struct {
	LoanType              bool `json:"loanType"`
	LoanAmount            bool `json:"loanAmount"`
	PropertyType          bool `json:"propertyType"`
	FicoScore             bool `json:"ficoScore"`
	State                 bool `json:"state"`
	PropertySubCategory   bool `json:"propertySubCategory"`
	HasRelatedSubcategory bool `json:"hasRelatedSubcategory"`
}

// MatchResult is one ranked lender: the profile, its weighted 0-100 score, and
// the per-criterion explanation behind the score.
type MatchResult struct {
	Lender         *LenderProfile `json:"lender"`
	MatchScore     float64        `json:"matchScore"`
	MatchBreakdown MatchBreakdown `json:"matchBreakdown"`
}
