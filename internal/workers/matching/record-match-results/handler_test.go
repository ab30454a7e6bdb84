// internal/workers/matching/record-match-results/handler_test.go
package recordmatchresults

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"lendermatch-workers/internal/common/logger"
	"lendermatch-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}

func setupMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock db: %v", err)
	}
	return db, mock
}

func createTestInput() *Input {
	lender := models.LenderProfile{
		ID:   "lender-1",
		Name: "Perfect Fit Capital",
	}
	return &Input{
		MatchRunID: "run-123",
		RequestID:  "req-456",
		Loan: models.LoanApplication{
			PropertyTypeCategory: "multifamily",
			LoanAmount:           2_000_000,
			SponsorFico:          720,
			LoanType:             "bridge",
			State:                "TX",
		},
		Results: []models.MatchResult{
			{
				Lender:     &lender,
				MatchScore: 100.0,
				MatchBreakdown: models.MatchBreakdown{
					LoanType:            true,
					LoanAmount:          true,
					PropertyType:        true,
					FicoScore:           true,
					State:               true,
					PropertySubCategory: true,
				},
			},
		},
		TotalLenders:   3,
		MatchedLenders: 1,
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

func TestHandler_Execute_Success(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("run-123").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO match_runs").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO match_results").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	require.NotNil(t, output)
	assert.Equal(t, "run-123", output.MatchRunID)
	assert.Equal(t, "recorded", output.Status)
	assert.NotEmpty(t, output.RecordedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_GeneratesRunIDWhenMissing(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO match_runs").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO match_results").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	input := createTestInput()
	input.MatchRunID = ""

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.NotEmpty(t, output.MatchRunID)
}

func TestHandler_Execute_DuplicateRunRejected(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("run-123").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	assert.Nil(t, output)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDuplicateMatchRun)
	assert.Contains(t, err.Error(), "run-123")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHandler_Execute_InsertFailure(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO match_runs").
		WillReturnError(sql.ErrConnDone)

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	_, err := handler.Execute(context.Background(), createTestInput())

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDatabaseInsertFailed)
}

func TestHandler_Execute_AuditFailureIsNonCritical(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO match_runs").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO match_results").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnError(sql.ErrConnDone)

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), createTestInput())

	require.NoError(t, err)
	assert.Equal(t, "recorded", output.Status)
}

func TestHandler_Execute_RecordsEveryResultRow(t *testing.T) {
	db, mock := setupMockDB(t)
	defer db.Close()

	input := createTestInput()
	second := models.LenderProfile{ID: "lender-2", Name: "Out Of State Fund"}
	input.Results = append(input.Results, models.MatchResult{
		Lender:     &second,
		MatchScore: 85.0,
	})
	input.MatchedLenders = 2

	mock.ExpectQuery("SELECT EXISTS").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectExec("INSERT INTO match_runs").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO match_results").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO match_results").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO audit_log").
		WillReturnResult(sqlmock.NewResult(1, 1))

	handler := NewHandler(createTestConfig(), db, newTestLogger(t))

	output, err := handler.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "recorded", output.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}
