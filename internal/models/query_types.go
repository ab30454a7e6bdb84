package models

// QueryType identifies a registered Postgres query in the query-lenders worker.
type QueryType string

const (
	QueryTypeLenderPopulation QueryType = "lender_population"
	QueryTypeLenderDetails    QueryType = "lender_details"
	QueryTypeLoanApplication  QueryType = "loan_application"
)
