// internal/workers/matching/match-lenders/models.go
package matchlenders

import "lendermatch-workers/internal/models"

type Input struct {
	Loan models.LoanApplication `json:"loan"`
	// Lenders overrides the registry population when the process carries its
	// own candidate list (e.g. a pre-narrowed search result).
	Lenders   []models.LenderProfile `json:"lenders,omitempty"`
	RequestID string                 `json:"requestId,omitempty"`
}

type Output struct {
	MatchRunID     string               `json:"matchRunId"`
	Results        []models.MatchResult `json:"results"`
	TotalLenders   int                  `json:"totalLenders"`
	MatchedLenders int                  `json:"matchedLenders"`
}
