// internal/workers/matching/match-lenders/handler.go
package matchlenders

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"lendermatch-workers/internal/common/logger"
	"lendermatch-workers/internal/common/metrics"
	"lendermatch-workers/internal/matching"
	"lendermatch-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	TaskType = "match-lenders"

	populationCacheKey = "lenders:population"
)

type Handler struct {
	config *Config
	db     *sql.DB
	redis  *redis.Client
	logger logger.Logger
}

func NewHandler(config *Config, db *sql.DB, rdb *redis.Client, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		db:     db,
		redis:  rdb,
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
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "LOAN_VALIDATION_FAILED").Inc()
		h.failJob(client, job, "LOAN_VALIDATION_FAILED", fmt.Sprintf("parse input: %v", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, "LENDER_QUERY_FAILED").Inc()
		metrics.MatchRunsTotal.WithLabelValues("failed").Inc()
		h.failJob(client, job, "LENDER_QUERY_FAILED", err.Error())
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.MatchRunsTotal.WithLabelValues("completed").Inc()
	h.completeJob(client, job, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	lenders := input.Lenders
	if lenders == nil {
		var err error
		lenders, err = h.loadLenderPopulation(ctx)
		if err != nil {
			return nil, fmt.Errorf("load lender population: %w", err)
		}
	}

	results := matching.Rank(&input.Loan, lenders)
	results = h.applyResultPolicy(results)

	metrics.MatchLendersEvaluated.Observe(float64(len(lenders)))
	metrics.MatchResultsReturned.Observe(float64(len(results)))
	if len(results) > 0 {
		metrics.MatchTopScore.Observe(results[0].MatchScore)
	}

	output := &Output{
		MatchRunID:     uuid.NewString(),
		Results:        results,
		TotalLenders:   len(lenders),
		MatchedLenders: len(results),
	}

	h.logger.Info("match run completed", map[string]interface{}{
		"matchRunId":     output.MatchRunID,
		"requestId":      input.RequestID,
		"totalLenders":   output.TotalLenders,
		"matchedLenders": output.MatchedLenders,
	})

	return output, nil
}

// applyResultPolicy enforces the configured score floor and result cap. Both
// run after ranking, so relative order is untouched.
func (h *Handler) applyResultPolicy(results []models.MatchResult) []models.MatchResult {
	if h.config.MinScore > 0 {
		kept := results[:0]
		for _, r := range results {
			if r.MatchScore >= h.config.MinScore {
				kept = append(kept, r)
			}
		}
		results = kept
	}
	if h.config.MaxResults > 0 && len(results) > h.config.MaxResults {
		results = results[:h.config.MaxResults]
	}
	return results
}

func (h *Handler) loadLenderPopulation(ctx context.Context) ([]models.LenderProfile, error) {
	if val, err := h.redis.Get(ctx, populationCacheKey).Result(); err == nil {
		var lenders []models.LenderProfile
		if err := json.Unmarshal([]byte(val), &lenders); err == nil {
			return lenders, nil
		}
	}

	lenders, err := h.queryLenders(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(lenders); err == nil {
		h.redis.Set(ctx, populationCacheKey, data, h.config.CacheTTL)
	}

	return lenders, nil
}

func (h *Handler) queryLenders(ctx context.Context) ([]models.LenderProfile, error) {
	rows, err := h.db.QueryContext(ctx, `
		SELECT id, name, fico_score, min_loan_amount, max_loan_amount,
		       property_categories, loan_types, subcategory_selections,
		       lending_footprint, contact_email, contact_phone
		FROM lenders
		WHERE active = true`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lenders []models.LenderProfile
	for rows.Next() {
		var l models.LenderProfile
		var fico, minAmount, maxAmount float64
		var categories, loanTypes, subcategories, footprint []byte
		var contactEmail, contactPhone sql.NullString

		err := rows.Scan(&l.ID, &l.Name, &fico, &minAmount, &maxAmount,
			&categories, &loanTypes, &subcategories, &footprint,
			&contactEmail, &contactPhone)
		if err != nil {
			return nil, err
		}

		l.FicoScore = models.FlexNumber(fico)
		l.MinLoanAmount = models.Amount(minAmount)
		l.MaxLoanAmount = models.Amount(maxAmount)
		l.ContactEmail = contactEmail.String
		l.ContactPhone = contactPhone.String

		if err := json.Unmarshal(categories, &l.PropertyCategories); err != nil {
			l.PropertyCategories = []string{}
		}
		if err := json.Unmarshal(loanTypes, &l.LoanTypes); err != nil {
			l.LoanTypes = []string{}
		}
		if err := json.Unmarshal(subcategories, &l.SubcategorySelections); err != nil {
			l.SubcategorySelections = []string{}
		}
		if err := json.Unmarshal(footprint, &l.LendingFootprint); err != nil {
			l.LendingFootprint = []string{}
		}

		lenders = append(lenders, l)
	}

	return lenders, rows.Err()
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
