// internal/workers/matching/notify-matched-lenders/handler.go
package notifymatchedlenders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"lendermatch-workers/internal/common/logger"
	"lendermatch-workers/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	sestypes "github.com/aws/aws-sdk-go-v2/service/ses/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "notify-matched-lenders"
)

var ErrNotificationSendFailed = errors.New("NOTIFICATION_SEND_FAILED")

// EmailSender and SMSSender cover the slice of the AWS clients the handler
// actually calls, so tests can stub them without network credentials.
type EmailSender interface {
	SendEmail(ctx context.Context, input *ses.SendEmailInput) (*ses.SendEmailOutput, error)
}

type SMSSender interface {
	Publish(ctx context.Context, input *sns.PublishInput) (*sns.PublishOutput, error)
}

type Handler struct {
	config *Config
	email  EmailSender
	sms    SMSSender
	logger logger.Logger
}

func NewHandler(config *Config, email EmailSender, sms SMSSender, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		email:  email,
		sms:    sms,
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
		h.failJob(client, job, "NOTIFICATION_SEND_FAILED", err.Error())
		return
	}

	h.completeJob(client, job, output)
}

// execute notifies every matched lender that has contact details. A failed
// send for one lender is recorded and skipped; the run only errors when
// every attempted delivery failed.
func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	output := &Output{
		MatchRunID: input.MatchRunID,
		Failures:   []NotificationFailure{},
	}

	attempts := 0

	for _, result := range input.Results {
		lender := result.Lender
		if lender == nil {
			continue
		}

		if h.config.EmailEnabled && lender.ContactEmail != "" {
			attempts++
			if err := h.sendEmail(ctx, input, &result); err != nil {
				h.logger.Warn("email delivery failed", map[string]interface{}{
					"lenderId": lender.ID,
					"error":    err,
				})
				output.Failures = append(output.Failures, NotificationFailure{
					LenderID: lender.ID,
					Channel:  "email",
					Reason:   err.Error(),
				})
			} else {
				output.EmailsSent++
			}
		}

		if h.config.SMSEnabled && lender.ContactPhone != "" && result.MatchScore >= h.config.SMSMinScore {
			attempts++
			if err := h.sendSMS(ctx, input, &result); err != nil {
				h.logger.Warn("sms delivery failed", map[string]interface{}{
					"lenderId": lender.ID,
					"error":    err,
				})
				output.Failures = append(output.Failures, NotificationFailure{
					LenderID: lender.ID,
					Channel:  "sms",
					Reason:   err.Error(),
				})
			} else {
				output.SMSSent++
			}
		}
	}

	if attempts > 0 && output.EmailsSent+output.SMSSent == 0 {
		return nil, fmt.Errorf("%w: all %d deliveries failed for match run %s",
			ErrNotificationSendFailed, attempts, input.MatchRunID)
	}

	output.Status = "sent"
	if len(output.Failures) > 0 {
		output.Status = "partial"
	}
	if attempts == 0 {
		output.Status = "skipped"
	}

	h.logger.Info("notifications dispatched", map[string]interface{}{
		"matchRunId": input.MatchRunID,
		"emailsSent": output.EmailsSent,
		"smsSent":    output.SMSSent,
		"failures":   len(output.Failures),
	})

	return output, nil
}

func (h *Handler) sendEmail(ctx context.Context, input *Input, result *models.MatchResult) error {
	subject := fmt.Sprintf("New loan match: %s %s in %s",
		input.Loan.PropertyTypeCategory, input.Loan.LoanType, input.Loan.State)
	body := fmt.Sprintf(
		"Hello %s,\n\nA loan application matched your lending criteria with a score of %.0f/100.\n\n"+
			"Loan amount: $%.0f\nProperty type: %s\nLoan type: %s\nState: %s\n\nMatch reference: %s\n",
		result.Lender.Name,
		result.MatchScore,
		float64(input.Loan.LoanAmount),
		input.Loan.PropertyTypeCategory,
		input.Loan.LoanType,
		input.Loan.State,
		input.MatchRunID,
	)

	_, err := h.email.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(h.config.FromEmail),
		Destination: &sestypes.Destination{
			ToAddresses: []string{result.Lender.ContactEmail},
		},
		Message: &sestypes.Message{
			Subject: &sestypes.Content{Data: aws.String(subject)},
			Body: &sestypes.Body{
				Text: &sestypes.Content{Data: aws.String(body)},
			},
		},
	})
	return err
}

func (h *Handler) sendSMS(ctx context.Context, input *Input, result *models.MatchResult) error {
	message := fmt.Sprintf("Loan match (%.0f/100): $%.0f %s %s in %s. Ref %s",
		result.MatchScore,
		float64(input.Loan.LoanAmount),
		input.Loan.PropertyTypeCategory,
		input.Loan.LoanType,
		input.Loan.State,
		input.MatchRunID,
	)

	_, err := h.sms.Publish(ctx, &sns.PublishInput{
		PhoneNumber: aws.String(result.Lender.ContactPhone),
		Message:     aws.String(message),
	})
	return err
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
