// internal/workers/matching/record-match-results/handler.go
package recordmatchresults

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"lendermatch-workers/internal/common/logger"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "record-match-results"
)

var (
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
	ErrDuplicateMatchRun    = errors.New("DUPLICATE_MATCH_RUN")
)

type Handler struct {
	config *Config
	db     *sql.DB
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.failJob(client, job, "PARSE_ERROR", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		errorCode := "UNKNOWN_ERROR"
		if errors.Is(err, ErrDatabaseInsertFailed) {
			errorCode = "DATABASE_INSERT_FAILED"
		} else if errors.Is(err, ErrDuplicateMatchRun) {
			errorCode = "DUPLICATE_MATCH_RUN"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	runID := input.MatchRunID
	if runID == "" {
		runID = uuid.New().String()
	}

	var exists bool
	err := h.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM match_runs WHERE id = $1
		)`, runID).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("%w: duplicate check failed: %v", ErrDatabaseInsertFailed, err)
	}
	if exists {
		return nil, fmt.Errorf("%w: match run %s already recorded", ErrDuplicateMatchRun, runID)
	}

	recordedAt := time.Now().UTC().Format(time.RFC3339)

	loanJSON, err := json.Marshal(input.Loan)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal loan: %v", ErrDatabaseInsertFailed, err)
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO match_runs (
			id, request_id, loan, total_lenders, matched_lenders, created_at
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		runID,
		input.RequestID,
		loanJSON,
		input.TotalLenders,
		input.MatchedLenders,
		recordedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("%w: insert match run failed: %v", ErrDatabaseInsertFailed, err)
	}

	for rank, result := range input.Results {
		breakdownJSON, err := json.Marshal(result.MatchBreakdown)
		if err != nil {
			return nil, fmt.Errorf("%w: failed to marshal breakdown: %v", ErrDatabaseInsertFailed, err)
		}

		lenderID := ""
		if result.Lender != nil {
			lenderID = result.Lender.ID
		}

		_, err = h.db.ExecContext(ctx, `
			INSERT INTO match_results (
				match_run_id, lender_id, rank, match_score, match_breakdown, created_at
			) VALUES ($1, $2, $3, $4, $5, $6)`,
			runID,
			lenderID,
			rank+1,
			result.MatchScore,
			breakdownJSON,
			recordedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: insert match result failed: %v", ErrDatabaseInsertFailed, err)
		}
	}

	// Audit entry is non-critical; log and continue on failure.
	auditJSON, err := json.Marshal(map[string]interface{}{
		"requestId":      input.RequestID,
		"totalLenders":   input.TotalLenders,
		"matchedLenders": input.MatchedLenders,
	})
	if err != nil {
		auditJSON = []byte("{}")
	}

	_, err = h.db.ExecContext(ctx, `
		INSERT INTO audit_log (event_type, resource_type, resource_id, details, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		"match_run_recorded",
		"match_run",
		runID,
		auditJSON,
		recordedAt,
	)
	if err != nil {
		h.logger.Warn("audit log insert failed", map[string]interface{}{
			"error":      err,
			"matchRunId": runID,
		})
	}

	h.logger.Info("match run recorded", map[string]interface{}{
		"matchRunId":     runID,
		"totalLenders":   input.TotalLenders,
		"matchedLenders": input.MatchedLenders,
	})

	return &Output{
		MatchRunID: runID,
		Status:     "recorded",
		RecordedAt: recordedAt,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
