// internal/workers/matching/match-lenders/handler_test.go
package matchlenders

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"
	"time"

	"lendermatch-workers/internal/common/logger"
	"lendermatch-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		CacheTTL: 5 * time.Minute,
		Timeout:  10 * time.Second,
	}
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

func createTestLoan() models.LoanApplication {
	return models.LoanApplication{
		PropertyTypeCategory: "multifamily",
		PropertySubCategory:  models.NewSubcategory("multifamily:market_rate"),
		LoanAmount:           2_000_000,
		SponsorFico:          720,
		LoanType:             "bridge",
		State:                "TX",
	}
}

func createTestLenders() []models.LenderProfile {
	return []models.LenderProfile{
		{
			ID:                    "lender-1",
			Name:                  "Perfect Fit Capital",
			FicoScore:             680,
			MinLoanAmount:         500_000,
			MaxLoanAmount:         5_000_000,
			PropertyCategories:    []string{"multifamily"},
			LoanTypes:             []string{"bridge"},
			SubcategorySelections: []string{"multifamily:market_rate"},
			LendingFootprint:      []string{"TX"},
		},
		{
			ID:                    "lender-2",
			Name:                  "Out Of State Fund",
			FicoScore:             680,
			MinLoanAmount:         500_000,
			MaxLoanAmount:         5_000_000,
			PropertyCategories:    []string{"multifamily"},
			LoanTypes:             []string{"bridge"},
			SubcategorySelections: []string{"multifamily:market_rate"},
			LendingFootprint:      []string{"NY"},
		},
		{
			ID:                 "lender-3",
			Name:               "Strict Underwriting",
			FicoScore:          780,
			MinLoanAmount:      500_000,
			MaxLoanAmount:      5_000_000,
			PropertyCategories: []string{"multifamily"},
			LoanTypes:          []string{"bridge"},
			LendingFootprint:   []string{"TX"},
		},
	}
}

// Create a test logger that implements the logger.Logger interface
type testLogger struct {
	t *testing.T
}

func (tl *testLogger) Debug(msg string, fields map[string]interface{}) {
	tl.t.Logf("DEBUG: %s %v", msg, fields)
}

func (tl *testLogger) Info(msg string, fields map[string]interface{}) {
	tl.t.Logf("INFO: %s %v", msg, fields)
}

func (tl *testLogger) Warn(msg string, fields map[string]interface{}) {
	tl.t.Logf("WARN: %s %v", msg, fields)
}

func (tl *testLogger) Error(msg string, fields map[string]interface{}) {
	tl.t.Logf("ERROR: %s %v", msg, fields)
}

func (tl *testLogger) WithFields(fields map[string]interface{}) logger.Logger {
	return tl
}

func (tl *testLogger) WithError(err error) logger.Logger {
	return tl.WithFields(map[string]interface{}{"error": err})
}

func newTestLogger(t *testing.T) logger.Logger {
	return &testLogger{t: t}
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_WithProvidedLenders(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()
	rdb, _ := redismock.NewClientMock()

	handler := NewHandler(createTestConfig(), db, rdb, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		Loan:    createTestLoan(),
		Lenders: createTestLenders(),
	})

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.NotEmpty(t, output.MatchRunID)
	assert.Equal(t, 3, output.TotalLenders)
	assert.Equal(t, 2, output.MatchedLenders) // lender-3's FICO floor eliminates it

	require.Len(t, output.Results, 2)
	assert.Equal(t, "Perfect Fit Capital", output.Results[0].Lender.Name)
	assert.Equal(t, 100.0, output.Results[0].MatchScore)
	assert.Equal(t, "Out Of State Fund", output.Results[1].Lender.Name)
	assert.Equal(t, 85.0, output.Results[1].MatchScore)
}

func TestHandler_Execute_ZeroAmountMatchesNoOne(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()
	rdb, _ := redismock.NewClientMock()

	handler := NewHandler(createTestConfig(), db, rdb, newTestLogger(t))

	loan := createTestLoan()
	loan.LoanAmount = models.Amount(models.ParseAmountString("$0"))

	output, err := handler.Execute(context.Background(), &Input{
		Loan:    loan,
		Lenders: createTestLenders(),
	})

	require.NoError(t, err)
	assert.Equal(t, 3, output.TotalLenders)
	assert.Equal(t, 0, output.MatchedLenders)
	assert.NotNil(t, output.Results)
	assert.Empty(t, output.Results)
}

func TestHandler_Execute_EmptyPopulation(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()
	rdb, _ := redismock.NewClientMock()

	handler := NewHandler(createTestConfig(), db, rdb, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		Loan:    createTestLoan(),
		Lenders: []models.LenderProfile{},
	})

	require.NoError(t, err)
	assert.Equal(t, 0, output.TotalLenders)
	assert.Empty(t, output.Results)
}

func TestHandler_Execute_ResultPolicy(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()
	rdb, _ := redismock.NewClientMock()

	cfg := createTestConfig()
	cfg.MinScore = 90
	cfg.MaxResults = 5

	handler := NewHandler(cfg, db, rdb, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		Loan:    createTestLoan(),
		Lenders: createTestLenders(),
	})

	require.NoError(t, err)
	require.Len(t, output.Results, 1) // only the 100-point lender clears MinScore 90
	assert.Equal(t, "Perfect Fit Capital", output.Results[0].Lender.Name)
}

func TestHandler_Execute_LoadsPopulationFromCache(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	cached, err := json.Marshal(createTestLenders())
	require.NoError(t, err)
	redisMock.ExpectGet(populationCacheKey).SetVal(string(cached))

	handler := NewHandler(createTestConfig(), db, rdb, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Loan: createTestLoan()})

	require.NoError(t, err)
	assert.Equal(t, 3, output.TotalLenders)
	assert.NoError(t, redisMock.ExpectationsWereMet())
}

func TestHandler_Execute_QueriesRegistryOnCacheMiss(t *testing.T) {
	db, dbMock := setupMockDB(t)
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	redisMock.ExpectGet(populationCacheKey).RedisNil()
	redisMock.Regexp().ExpectSet(populationCacheKey, `.*`, 5*time.Minute).SetVal("OK")

	rows := sqlmock.NewRows([]string{
		"id", "name", "fico_score", "min_loan_amount", "max_loan_amount",
		"property_categories", "loan_types", "subcategory_selections",
		"lending_footprint", "contact_email", "contact_phone",
	}).AddRow(
		"lender-1", "Lone Star Capital", 680.0, 500000.0, 5000000.0,
		[]byte(`["multifamily"]`), []byte(`["bridge"]`),
		[]byte(`["multifamily:market_rate"]`), []byte(`["TX"]`),
		"deals@lonestar.example", "+1 512 555 0100",
	)
	dbMock.ExpectQuery("SELECT id, name, fico_score").WillReturnRows(rows)

	handler := NewHandler(createTestConfig(), db, rdb, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{Loan: createTestLoan()})

	require.NoError(t, err)
	assert.Equal(t, 1, output.TotalLenders)
	require.Len(t, output.Results, 1)
	assert.Equal(t, "Lone Star Capital", output.Results[0].Lender.Name)
	assert.Equal(t, 100.0, output.Results[0].MatchScore)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestHandler_Execute_QueryFailureSurfaces(t *testing.T) {
	db, dbMock := setupMockDB(t)
	defer db.Close()
	rdb, redisMock := redismock.NewClientMock()

	redisMock.ExpectGet(populationCacheKey).RedisNil()
	dbMock.ExpectQuery("SELECT id, name, fico_score").WillReturnError(sql.ErrConnDone)

	handler := NewHandler(createTestConfig(), db, rdb, newTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{Loan: createTestLoan()})

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "load lender population")
}

func TestHandler_Execute_MixedShapeLoanPayload(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()
	rdb, _ := redismock.NewClientMock()

	handler := NewHandler(createTestConfig(), db, rdb, newTestLogger(t))

	var input Input
	payload := `{
		"loan": {
			"propertyTypeCategory": "Multifamily",
			"propertySubCategory": {"value": "Multifamily:Market_Rate"},
			"loanAmount": "$2,000,000",
			"sponsorFico": "720",
			"loanType": "bridge",
			"state": "TX"
		},
		"lenders": ` + mustJSON(t, createTestLenders()) + `
	}`
	require.NoError(t, json.Unmarshal([]byte(payload), &input))

	output, err := handler.Execute(context.Background(), &input)

	require.NoError(t, err)
	assert.Equal(t, 2, output.MatchedLenders)
	assert.Equal(t, 100.0, output.Results[0].MatchScore)
}

func TestHandler_Execute_CacheRoundTrip(t *testing.T) {
	srv := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer rdb.Close()

	db, dbMock := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "name", "fico_score", "min_loan_amount", "max_loan_amount",
		"property_categories", "loan_types", "subcategory_selections",
		"lending_footprint", "contact_email", "contact_phone",
	}).AddRow(
		"lender-1", "Lone Star Capital", 680.0, 500000.0, 5000000.0,
		[]byte(`["multifamily"]`), []byte(`["bridge"]`),
		[]byte(`["multifamily:market_rate"]`), []byte(`["TX"]`),
		"deals@lonestar.example", nil,
	)
	// Only one query expected; the second Execute must be served from cache.
	dbMock.ExpectQuery("SELECT id, name, fico_score").WillReturnRows(rows)

	handler := NewHandler(createTestConfig(), db, rdb, newTestLogger(t))

	first, err := handler.Execute(context.Background(), &Input{Loan: createTestLoan()})
	require.NoError(t, err)
	assert.Equal(t, 1, first.TotalLenders)
	assert.True(t, srv.Exists(populationCacheKey))

	second, err := handler.Execute(context.Background(), &Input{Loan: createTestLoan()})
	require.NoError(t, err)
	assert.Equal(t, 1, second.TotalLenders)
	require.Len(t, second.Results, 1)
	assert.Equal(t, "Lone Star Capital", second.Results[0].Lender.Name)

	assert.NoError(t, dbMock.ExpectationsWereMet())

	// Expiring the cache sends the next run back to the database.
	srv.FastForward(10 * time.Minute)
	dbMock.ExpectQuery("SELECT id, name, fico_score").WillReturnRows(sqlmock.NewRows([]string{
		"id", "name", "fico_score", "min_loan_amount", "max_loan_amount",
		"property_categories", "loan_types", "subcategory_selections",
		"lending_footprint", "contact_email", "contact_phone",
	}))

	third, err := handler.Execute(context.Background(), &Input{Loan: createTestLoan()})
	require.NoError(t, err)
	assert.Equal(t, 0, third.TotalLenders)
}

func mustJSON(t *testing.T, v interface{}) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
