// internal/workers/data-access/search-lenders/queries/builders_test.go
package queries

import (
	"encoding/json"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, body io.Reader) map[string]interface{} {
	t.Helper()
	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(body).Decode(&decoded))
	return decoded
}

func TestBuildQuery_MissingIndex(t *testing.T) {
	_, err := BuildQuery(LenderSearch{QueryType: "lender_search"})
	assert.ErrorIs(t, err, ErrMissingIndex)
}

func TestBuildQuery_UnknownQueryType(t *testing.T) {
	_, err := BuildQuery(LenderSearch{Index: "lenders", QueryType: "nonsense"})
	assert.ErrorIs(t, err, ErrUnknownQueryType)
}

func TestBuildQuery_LenderSearchFilters(t *testing.T) {
	search := LenderSearch{
		Index:     "lenders",
		QueryType: "lender_search",
		Filters: map[string]interface{}{
			"state":            "tx",
			"propertyCategory": "Multifamily",
			"loanType":         "Bridge",
			"loanAmount":       2000000.0,
			"sponsorFico":      720.0,
		},
	}
	search.Pagination.Size = 20

	req, err := BuildQuery(search)
	require.NoError(t, err)
	assert.Equal(t, []string{"lenders"}, req.Index)

	body := decodeBody(t, req.Body)
	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})

	filters := boolQuery["filter"].([]interface{})
	require.Len(t, filters, 6) // state, category, loan type, amount lower+upper, fico

	first := filters[0].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "TX", first["lending_footprint"]) // state normalized to upper case

	second := filters[1].(map[string]interface{})["term"].(map[string]interface{})
	assert.Equal(t, "multifamily", second["property_categories"])
}

func TestBuildQuery_NoKeywordsDefaultsToMatchAll(t *testing.T) {
	search := LenderSearch{
		Index:     "lenders",
		QueryType: "lender_search",
		Filters:   map[string]interface{}{},
	}

	req, err := BuildQuery(search)
	require.NoError(t, err)

	body := decodeBody(t, req.Body)
	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	require.Len(t, must, 1)
	assert.Contains(t, must[0].(map[string]interface{}), "match_all")
}

func TestBuildQuery_KeywordsUseMultiMatch(t *testing.T) {
	search := LenderSearch{
		Index:     "lenders",
		QueryType: "lender_search",
		Filters: map[string]interface{}{
			"keywords": "bridge multifamily",
		},
	}

	req, err := BuildQuery(search)
	require.NoError(t, err)

	body := decodeBody(t, req.Body)
	boolQuery := body["query"].(map[string]interface{})["bool"].(map[string]interface{})
	must := boolQuery["must"].([]interface{})
	multiMatch := must[0].(map[string]interface{})["multi_match"].(map[string]interface{})
	assert.Equal(t, "bridge multifamily", multiMatch["query"])
}

func TestBuildQuery_SimilarLendersWithoutIDMatchesNothing(t *testing.T) {
	search := LenderSearch{
		Index:     "lenders",
		QueryType: "similar_lenders",
		Filters:   map[string]interface{}{},
	}

	req, err := BuildQuery(search)
	require.NoError(t, err)

	body := decodeBody(t, req.Body)
	query := body["query"].(map[string]interface{})
	assert.Contains(t, query, "match_none")
}

func TestBuildQuery_SimilarLendersMoreLikeThis(t *testing.T) {
	search := LenderSearch{
		Index:     "lenders",
		QueryType: "similar_lenders",
		Filters:   map[string]interface{}{},
		LenderID:  "lender-1",
	}

	req, err := BuildQuery(search)
	require.NoError(t, err)

	body := decodeBody(t, req.Body)
	mlt := body["query"].(map[string]interface{})["more_like_this"].(map[string]interface{})
	like := mlt["like"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "lender-1", like["_id"])
	assert.Equal(t, "lenders", like["_index"])
}
