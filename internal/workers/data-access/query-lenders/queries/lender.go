// internal/workers/data-access/query-lenders/queries/lender.go
package queries

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

func LenderPopulation(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	start := time.Now()

	query := `
		SELECT id, name, fico_score, min_loan_amount, max_loan_amount,
		       property_categories, loan_types, subcategory_selections,
		       lending_footprint, contact_email, contact_phone
		FROM lenders
		WHERE active = true`

	args := []interface{}{}
	if state, ok := stringFilter(params, "state"); ok {
		query += ` AND lending_footprint ? $1`
		args = append(args, state)
	}

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, 0, err
	}
	defer rows.Close()

	var results []map[string]interface{}
	for rows.Next() {
		var id, name string
		var ficoScore, minAmount, maxAmount float64
		var categories, loanTypes, subcategories, footprint []byte
		var contactEmail, contactPhone sql.NullString

		err := rows.Scan(&id, &name, &ficoScore, &minAmount, &maxAmount,
			&categories, &loanTypes, &subcategories, &footprint,
			&contactEmail, &contactPhone)
		if err != nil {
			return nil, 0, 0, err
		}

		results = append(results, map[string]interface{}{
			"id":                    id,
			"name":                  name,
			"ficoScore":             ficoScore,
			"minLoanAmount":         minAmount,
			"maxLoanAmount":         maxAmount,
			"propertyCategories":    decodeJSONArray(categories),
			"loanTypes":             decodeJSONArray(loanTypes),
			"subcategorySelections": decodeJSONArray(subcategories),
			"lendingFootprint":      decodeJSONArray(footprint),
			"contactEmail":          contactEmail.String,
			"contactPhone":          contactPhone.String,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	execTime := time.Since(start).Milliseconds()
	return results, len(results), execTime, nil
}

func LenderDetails(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	lenderID, ok := params["lenderId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var id, name string
	var ficoScore, minAmount, maxAmount float64
	var categories, loanTypes, subcategories, footprint []byte
	var contactEmail, contactPhone sql.NullString
	var active bool
	var createdAt, updatedAt string

	err := db.QueryRowContext(ctx, `
		SELECT id, name, fico_score, min_loan_amount, max_loan_amount,
		       property_categories, loan_types, subcategory_selections,
		       lending_footprint, contact_email, contact_phone,
		       active, created_at, updated_at
		FROM lenders
		WHERE id = $1`, lenderID).Scan(
		&id, &name, &ficoScore, &minAmount, &maxAmount,
		&categories, &loanTypes, &subcategories, &footprint,
		&contactEmail, &contactPhone,
		&active, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"id":                    id,
		"name":                  name,
		"ficoScore":             ficoScore,
		"minLoanAmount":         minAmount,
		"maxLoanAmount":         maxAmount,
		"propertyCategories":    decodeJSONArray(categories),
		"loanTypes":             decodeJSONArray(loanTypes),
		"subcategorySelections": decodeJSONArray(subcategories),
		"lendingFootprint":      decodeJSONArray(footprint),
		"contactEmail":          contactEmail.String,
		"contactPhone":          contactPhone.String,
		"active":                active,
		"createdAt":             createdAt,
		"updatedAt":             updatedAt,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

func LoanApplication(ctx context.Context, db *sql.DB, params map[string]interface{}) (interface{}, int, int64, error) {
	applicationID, ok := params["loanApplicationId"].(string)
	if !ok {
		return nil, 0, 0, ErrMissingParam
	}

	start := time.Now()

	var id, propertyCategory, propertySubcategory, loanType, state string
	var loanAmount, sponsorFico float64
	var createdAt string

	err := db.QueryRowContext(ctx, `
		SELECT id, property_category, property_subcategory, loan_amount,
		       sponsor_fico, loan_type, state, created_at
		FROM loan_applications
		WHERE id = $1`, applicationID).Scan(
		&id, &propertyCategory, &propertySubcategory, &loanAmount,
		&sponsorFico, &loanType, &state, &createdAt,
	)
	if err != nil {
		return nil, 0, 0, err
	}

	result := map[string]interface{}{
		"id":                   id,
		"propertyTypeCategory": propertyCategory,
		"propertySubCategory":  propertySubcategory,
		"loanAmount":           loanAmount,
		"sponsorFico":          sponsorFico,
		"loanType":             loanType,
		"state":                state,
		"createdAt":            createdAt,
	}

	execTime := time.Since(start).Milliseconds()
	return result, 1, execTime, nil
}

func stringFilter(params map[string]interface{}, key string) (string, bool) {
	filters, ok := params["filters"].(map[string]interface{})
	if !ok {
		return "", false
	}
	value, ok := filters[key].(string)
	if !ok || value == "" {
		return "", false
	}
	return value, true
}

func decodeJSONArray(raw []byte) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return []string{}
	}
	return values
}
