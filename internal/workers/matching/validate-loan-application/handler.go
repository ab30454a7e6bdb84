// internal/workers/matching/validate-loan-application/handler.go
package validateloanapplication

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"lendermatch-workers/internal/common/logger"
	"lendermatch-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "validate-loan-application"
)

var (
	ErrLoanValidationFailed = errors.New("LOAN_VALIDATION_FAILED")
)

type Handler struct {
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
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
		h.failJob(client, job, "LOAN_VALIDATION_FAILED", err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, "LOAN_VALIDATION_FAILED", err.Error())
		return
	}

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
		h.logger.Error("failed to complete job", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	var validationErrors []ValidationError

	if input.Loan == nil {
		return &Output{
			IsValid: false,
			ValidationErrors: []ValidationError{{
				Field:   "loan",
				Code:    "MISSING_REQUIRED",
				Message: "loan is required",
			}},
		}, nil
	}

	// Required fields present at all
	for _, field := range []string{"propertyTypeCategory", "loanAmount", "loanType", "state"} {
		if _, ok := input.Loan[field]; !ok {
			validationErrors = append(validationErrors, ValidationError{
				Field:   field,
				Code:    "MISSING_REQUIRED",
				Message: field + " is required",
			})
		}
	}

	// Re-encode through the coercion types; any non-coercible shape (boolean
	// amount, array subcategory) surfaces here as a decode error.
	loanJSON, err := json.Marshal(input.Loan)
	if err != nil {
		return nil, err
	}
	var loan models.LoanApplication
	if err := json.Unmarshal(loanJSON, &loan); err != nil {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "loan",
			Code:    "INVALID_SHAPE",
			Message: err.Error(),
		})
		return &Output{IsValid: false, ValidationErrors: validationErrors}, nil
	}

	if loan.LoanAmount.Value() <= 0 {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "loanAmount",
			Code:    "INVALID_LOAN_AMOUNT",
			Message: "loan amount must be a positive number or parseable currency string",
		})
	}

	if loan.SponsorFico.Value() < 0 || loan.SponsorFico.Value() > 850 {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "sponsorFico",
			Code:    "OUT_OF_RANGE",
			Message: "sponsor FICO must be between 0 and 850",
		})
	}

	loan.State = strings.ToUpper(strings.TrimSpace(loan.State))
	if loan.State != "" && !stateRegex.MatchString(loan.State) {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "state",
			Code:    "INVALID_STATE",
			Message: "state must be a two-letter code",
		})
	}

	loan.PropertyTypeCategory = strings.TrimSpace(loan.PropertyTypeCategory)
	if loan.PropertyTypeCategory != "" && !categoryRegex.MatchString(loan.PropertyTypeCategory) {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "propertyTypeCategory",
			Code:    "INVALID_CATEGORY",
			Message: "property category contains invalid characters",
		})
	}

	if key := loan.PropertySubCategory.Key(); key != "" && !subcategoryRegex.MatchString(key) {
		validationErrors = append(validationErrors, ValidationError{
			Field:   "propertySubCategory",
			Code:    "INVALID_SUBCATEGORY",
			Message: "subcategory must normalize to a category:subkey form",
		})
	}

	loan.LoanType = strings.TrimSpace(loan.LoanType)

	isValid := len(validationErrors) == 0
	h.logger.Info("validation completed", map[string]interface{}{
		"isValid":    isValid,
		"errorCount": len(validationErrors),
	})

	output := &Output{
		IsValid:          isValid,
		ValidationErrors: validationErrors,
	}
	if isValid {
		output.ValidatedLoan = &loan
		output.ValidationErrors = []ValidationError{}
	}
	return output, nil
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
