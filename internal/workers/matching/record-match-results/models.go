// internal/workers/matching/record-match-results/models.go
package recordmatchresults

import "lendermatch-workers/internal/models"

type Input struct {
	MatchRunID     string                 `json:"matchRunId"`
	RequestID      string                 `json:"requestId,omitempty"`
	Loan           models.LoanApplication `json:"loan"`
	Results        []models.MatchResult   `json:"results"`
	TotalLenders   int                    `json:"totalLenders"`
	MatchedLenders int                    `json:"matchedLenders"`
}

type Output struct {
	MatchRunID string `json:"matchRunId"`
	Status     string `json:"status"`
	RecordedAt string `json:"recordedAt"`
}
