package models

// LoanApplication is one commercial real-estate loan request as captured by the
// intake forms. Several fields arrive in mixed historical shapes (currency
// strings, subcategory objects); the coercion types in coerce.go normalize
// those at decode time so the matching engine only sees clean primitives.
type LoanApplication struct {
	ID                   string      `json:"id,omitempty"`
	PropertyTypeCategory string      `json:"propertyTypeCategory"`
	PropertySubCategory  Subcategory `json:"propertySubCategory"`
	LoanAmount           Amount      `json:"loanAmount"`
	SponsorFico          FlexNumber  `json:"sponsorFico"`
	LoanType             string      `json:"loanType"`
	State                string      `json:"state"`
}
