// internal/workers/matching/validate-loan-application/models.go
package validateloanapplication

import (
	"regexp"

	"lendermatch-workers/internal/models"
)

type Input struct {
	Loan map[string]interface{} `json:"loan"`
}

type Output struct {
	IsValid          bool                    `json:"isValid"`
	ValidatedLoan    *models.LoanApplication `json:"validatedLoan,omitempty"`
	ValidationErrors []ValidationError       `json:"validationErrors"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

var (
	// Two-letter US state/territory code.
	stateRegex = regexp.MustCompile(`^[A-Za-z]{2}$`)
	// Category and subcategory keys: lowercase words joined by underscores,
	// subcategory optionally namespaced as category:subkey.
	categoryRegex    = regexp.MustCompile(`^[A-Za-z][A-Za-z _-]*$`)
	subcategoryRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*(:[a-z0-9_-]+)?$`)
)
