// internal/workers/matching/notify-matched-lenders/models.go
package notifymatchedlenders

import "lendermatch-workers/internal/models"

type Input struct {
	MatchRunID string                 `json:"matchRunId"`
	RequestID  string                 `json:"requestId,omitempty"`
	Loan       models.LoanApplication `json:"loan"`
	Results    []models.MatchResult   `json:"results"`
}

type NotificationFailure struct {
	LenderID string `json:"lenderId"`
	Channel  string `json:"channel"`
	Reason   string `json:"reason"`
}

type Output struct {
	MatchRunID string                `json:"matchRunId"`
	EmailsSent int                   `json:"emailsSent"`
	SMSSent    int                   `json:"smsSent"`
	Failures   []NotificationFailure `json:"failures"`
	Status     string                `json:"status"`
}
