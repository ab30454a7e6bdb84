package models

// LenderProfile describes one lender's funding criteria. FicoScore is the
// minimum acceptable borrower score (0 means no floor). The loan amount range
// is inclusive on both ends; an unset MaxLoanAmount stays 0 and therefore
// accepts no amount at all.
type LenderProfile struct {
	ID                    string     `json:"id,omitempty"`
	Name                  string     `json:"name,omitempty"`
	FicoScore             FlexNumber `json:"ficoScore"`
	MinLoanAmount         Amount     `json:"minLoanAmount"`
	MaxLoanAmount         Amount     `json:"maxLoanAmount"`
	PropertyCategories    []string   `json:"propertyCategories"`
	LoanTypes             []string   `json:"loanTypes"`
	SubcategorySelections []string   `json:"subcategorySelections"`
	LendingFootprint      []string   `json:"lendingFootprint"`
	ContactEmail          string     `json:"contactEmail,omitempty"`
	ContactPhone          string     `json:"contactPhone,omitempty"`
}
