// internal/workers/data-access/query-lenders/models.go
package querylenders

import "lendermatch-workers/internal/models"

type Input struct {
	QueryType         string                 `json:"queryType"`
	LenderID          string                 `json:"lenderId,omitempty"`
	LoanApplicationID string                 `json:"loanApplicationId,omitempty"`
	Filters           map[string]interface{} `json:"filters,omitempty"`
}

type Output struct {
	Data               interface{} `json:"data"`
	RowCount           int         `json:"rowCount"`
	QueryExecutionTime int64       `json:"queryExecutionTime"` // milliseconds
}

type QueryType = models.QueryType

// Export constants for external use
var (
	QueryTypeLenderPopulation = models.QueryTypeLenderPopulation
	QueryTypeLenderDetails    = models.QueryTypeLenderDetails
	QueryTypeLoanApplication  = models.QueryTypeLoanApplication
)
