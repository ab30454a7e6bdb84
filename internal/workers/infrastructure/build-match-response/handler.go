// internal/workers/infrastructure/build-match-response/handler.go
package buildmatchresponse

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"lendermatch-workers/internal/common/logger"
	"lendermatch-workers/pkg/registry"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/xeipuuv/gojsonschema"
)

const TaskType = "build-match-response"

// defaultSchemaTask is the registry entry validated against when the job
// does not name one.
const defaultSchemaTask = "match-lenders"

var (
	ErrTaskNotRegistered        = errors.New("TASK_NOT_REGISTERED")
	ErrResponseValidationFailed = errors.New("RESPONSE_VALIDATION_FAILED")
)

type registryCacheEntry struct {
	registry *registry.TaskRegistry
	loadedAt time.Time
}

type Handler struct {
	config *Config
	logger logger.Logger
	cache  *registryCacheEntry
	mu     sync.RWMutex
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	h.logger.Info("processing job",
		map[string]interface{}{
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

	output, err := h.Execute(ctx, &input)
	if err != nil {
		errorCode := "RESPONSE_BUILD_ERROR"
		if errors.Is(err, ErrTaskNotRegistered) {
			errorCode = "TASK_NOT_REGISTERED"
		} else if errors.Is(err, ErrResponseValidationFailed) {
			errorCode = "RESPONSE_VALIDATION_FAILED"
		}
		h.failJob(client, job, errorCode, err.Error())
		return
	}

	h.completeJob(client, job, output)
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	taskType := input.TaskType
	if taskType == "" {
		taskType = defaultSchemaTask
	}

	reg, err := h.loadRegistry()
	if err != nil {
		return nil, fmt.Errorf("load task registry: %w", err)
	}

	task := reg.FindTask(taskType)
	if task == nil {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotRegistered, taskType)
	}

	if err := h.validateData(task.OutputSchema, input.Data); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResponseValidationFailed, err)
	}

	payload := ResponsePayload{
		RequestId: input.RequestId,
		Status:    "success",
		Data:      input.Data,
		Metadata: ResponseMetadata{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   h.config.AppVersion,
		},
	}

	return &Output{Response: payload}, nil
}

func (h *Handler) loadRegistry() (*registry.TaskRegistry, error) {
	h.mu.RLock()
	if h.cache != nil && time.Since(h.cache.loadedAt) < h.config.CacheTTL {
		reg := h.cache.registry
		h.mu.RUnlock()
		return reg, nil
	}
	h.mu.RUnlock()

	reg, err := registry.LoadRegistry(h.config.RegistryPath)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	h.cache = &registryCacheEntry{
		registry: reg,
		loadedAt: time.Now(),
	}
	h.mu.Unlock()

	return reg, nil
}

func (h *Handler) validateData(schemaMap, data map[string]interface{}) error {
	if len(schemaMap) == 0 {
		return nil
	}

	schemaLoader := gojsonschema.NewGoLoader(schemaMap)
	documentLoader := gojsonschema.NewGoLoader(data)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validation error: %w", err)
	}

	if !result.Valid() {
		errs := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			errs[i] = desc.String()
		}
		return fmt.Errorf("response validation failed: %v", errs)
	}

	return nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{"error": err})
		return
	}
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{"error": err})
	}
}

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed",
		map[string]interface{}{
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
		h.logger.Error("failed to throw error", map[string]interface{}{"error": err})
	}
}
