// internal/workers/data-access/query-lenders/handler_test.go
package querylenders

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"lendermatch-workers/internal/common/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
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

func TestHandler_Execute_LenderPopulation(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "name", "fico_score", "min_loan_amount", "max_loan_amount",
		"property_categories", "loan_types", "subcategory_selections",
		"lending_footprint", "contact_email", "contact_phone",
	}).AddRow(
		"lender-1", "Lone Star Capital", 680.0, 500000.0, 5000000.0,
		[]byte(`["multifamily"]`), []byte(`["bridge"]`),
		[]byte(`["multifamily:market_rate"]`), []byte(`["TX"]`),
		"deals@lonestar.example", "+1 512 555 0100",
	).AddRow(
		"lender-2", "Empire Lending", 700.0, 1000000.0, 20000000.0,
		[]byte(`["office","retail"]`), []byte(`["permanent"]`),
		[]byte(`[]`), []byte(`["NY","NJ"]`),
		nil, nil,
	)
	mock.ExpectQuery("SELECT id, name, fico_score").WillReturnRows(rows)

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypeLenderPopulation),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, output.RowCount)

	data, ok := output.Data.([]map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Lone Star Capital", data[0]["name"])
	assert.Equal(t, []string{"office", "retail"}, data[1]["propertyCategories"])
	assert.Equal(t, "", data[1]["contactEmail"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_LenderPopulation_StateFilter(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "name", "fico_score", "min_loan_amount", "max_loan_amount",
		"property_categories", "loan_types", "subcategory_selections",
		"lending_footprint", "contact_email", "contact_phone",
	}).AddRow(
		"lender-1", "Lone Star Capital", 680.0, 500000.0, 5000000.0,
		[]byte(`["multifamily"]`), []byte(`["bridge"]`),
		[]byte(`[]`), []byte(`["TX"]`), nil, nil,
	)
	mock.ExpectQuery("AND lending_footprint").WithArgs("TX").WillReturnRows(rows)

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypeLenderPopulation),
		Filters:   map[string]interface{}{"state": "TX"},
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.RowCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_LenderDetails(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "name", "fico_score", "min_loan_amount", "max_loan_amount",
		"property_categories", "loan_types", "subcategory_selections",
		"lending_footprint", "contact_email", "contact_phone",
		"active", "created_at", "updated_at",
	}).AddRow(
		"lender-1", "Lone Star Capital", 680.0, 500000.0, 5000000.0,
		[]byte(`["multifamily"]`), []byte(`["bridge"]`),
		[]byte(`["multifamily:market_rate"]`), []byte(`["TX"]`),
		"deals@lonestar.example", "+1 512 555 0100",
		true, "2026-01-15T00:00:00Z", "2026-06-01T00:00:00Z",
	)
	mock.ExpectQuery("FROM lenders").WithArgs("lender-1").WillReturnRows(rows)

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypeLenderDetails),
		LenderID:  "lender-1",
	})

	require.NoError(t, err)
	assert.Equal(t, 1, output.RowCount)

	data, ok := output.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "Lone Star Capital", data["name"])
	assert.Equal(t, true, data["active"])
}

func TestHandler_Execute_LoanApplication(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{
		"id", "property_category", "property_subcategory", "loan_amount",
		"sponsor_fico", "loan_type", "state", "created_at",
	}).AddRow(
		"loan-1", "multifamily", "multifamily:market_rate", 2000000.0,
		720.0, "bridge", "TX", "2026-07-01T00:00:00Z",
	)
	mock.ExpectQuery("FROM loan_applications").WithArgs("loan-1").WillReturnRows(rows)

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), &Input{
		QueryType:         string(QueryTypeLoanApplication),
		LoanApplicationID: "loan-1",
	})

	require.NoError(t, err)

	data, ok := output.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "multifamily", data["propertyTypeCategory"])
	assert.Equal(t, 2000000.0, data["loanAmount"])
}

func TestHandler_Execute_InvalidQueryType(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{
		QueryType: "drop_all_tables",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidQueryType)
}

func TestHandler_Execute_MissingParam(t *testing.T) {
	db, _ := setupMockDB(t)
	defer db.Close()

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypeLenderDetails),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueryExecutionFailed)
}

func TestHandler_Execute_QueryFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, fico_score").WillReturnError(sql.ErrConnDone)

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	_, err := handler.Execute(context.Background(), &Input{
		QueryType: string(QueryTypeLenderPopulation),
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueryExecutionFailed)
}
