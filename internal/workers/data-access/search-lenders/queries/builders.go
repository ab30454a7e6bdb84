// internal/workers/data-access/search-lenders/queries/builders.go
package queries

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var (
	ErrUnknownQueryType = errors.New("unknown query type")
	ErrMissingIndex     = errors.New("index name is required")
)

// LenderSearch is the query request the builders understand.
type LenderSearch struct {
	Index      string
	QueryType  string
	Filters    map[string]interface{}
	LenderID   string
	Pagination struct {
		From int
		Size int
	}
}

// BuildQuery builds an Elasticsearch search request based on query type and filters
func BuildQuery(ls LenderSearch) (*esapi.SearchRequest, error) {
	if ls.Index == "" {
		return nil, ErrMissingIndex
	}

	var queryBody map[string]interface{}

	switch ls.QueryType {
	case "lender_search":
		queryBody = buildLenderSearchQuery(ls)
	case "similar_lenders":
		queryBody = buildSimilarLendersQuery(ls)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, ls.QueryType)
	}

	body, _ := json.Marshal(queryBody)

	req := esapi.SearchRequest{
		Index: []string{ls.Index},
		Body:  strings.NewReader(string(body)),
		From:  &ls.Pagination.From,
		Size:  &ls.Pagination.Size,
	}

	return &req, nil
}

// buildLenderSearchQuery assembles a bool query over the lender index. The
// amount filter checks the loan amount falls inside the lender's range; the
// FICO filter keeps lenders whose floor the borrower clears.
func buildLenderSearchQuery(ls LenderSearch) map[string]interface{} {
	boolQuery := make(map[string]interface{})
	mustClauses := []interface{}{}
	filterClauses := []interface{}{}

	if keywords, ok := ls.Filters["keywords"].(string); ok && keywords != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":  keywords,
				"fields": []string{"name^3", "property_categories^2", "loan_types"},
				"type":   "best_fields",
			},
		})
	}

	if state, ok := ls.Filters["state"].(string); ok && state != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"lending_footprint": strings.ToUpper(state)},
		})
	}

	if category, ok := ls.Filters["propertyCategory"].(string); ok && category != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"property_categories": strings.ToLower(category)},
		})
	}

	if loanType, ok := ls.Filters["loanType"].(string); ok && loanType != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"loan_types": strings.ToLower(loanType)},
		})
	}

	if amount, ok := numericFilter(ls.Filters, "loanAmount"); ok && amount > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"min_loan_amount": map[string]interface{}{"lte": amount},
			},
		})
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"max_loan_amount": map[string]interface{}{"gte": amount},
			},
		})
	}

	if fico, ok := numericFilter(ls.Filters, "sponsorFico"); ok && fico > 0 {
		filterClauses = append(filterClauses, map[string]interface{}{
			"range": map[string]interface{}{
				"fico_score": map[string]interface{}{"lte": fico},
			},
		})
	}

	if len(mustClauses) == 0 {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	boolQuery["must"] = mustClauses
	if len(filterClauses) > 0 {
		boolQuery["filter"] = filterClauses
	}

	query := map[string]interface{}{
		"query": map[string]interface{}{
			"bool": boolQuery,
		},
	}

	if sortBy, ok := ls.Filters["sortBy"].(string); ok {
		switch sortBy {
		case "min_loan_amount":
			query["sort"] = []map[string]interface{}{{"min_loan_amount": "asc"}}
		case "name":
			query["sort"] = []map[string]interface{}{{"name.keyword": "asc"}}
		}
	}

	return query
}

func buildSimilarLendersQuery(ls LenderSearch) map[string]interface{} {
	if ls.LenderID == "" {
		return map[string]interface{}{
			"query": map[string]interface{}{
				"match_none": map[string]interface{}{},
			},
		}
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"more_like_this": map[string]interface{}{
				"fields": []string{"name", "property_categories", "loan_types"},
				"like": []map[string]interface{}{
					{"_index": ls.Index, "_id": ls.LenderID},
				},
				"min_term_freq":   1,
				"max_query_terms": 12,
				"min_doc_freq":    1,
				"min_word_length": 3,
			},
		},
	}
}

func numericFilter(filters map[string]interface{}, key string) (float64, bool) {
	raw, exists := filters[key]
	if !exists {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
