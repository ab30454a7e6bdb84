// internal/common/camunda/worker.go
package camunda

import (
	"context"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"

	"lendermatch-workers/internal/common/config"
	"lendermatch-workers/internal/common/metrics"
	"lendermatch-workers/internal/common/observability"
)

// Worker is a registered Zeebe job worker. Stop must be called during
// shutdown or in-flight jobs are abandoned at their broker-side timeout.
type Worker struct {
	worker   worker.JobWorker
	logger   *zap.Logger
	taskType string
}

// StartWorker opens a job worker for taskType and starts polling. The handler
// owns job completion and failure; the wrapper only manages the poll loop and
// per-job timing metrics.
func StartWorker(
	client zbc.Client,
	taskType string,
	wcfg config.WorkerConfig,
	handler func(worker.JobClient, entities.Job),
	obs *observability.Observability,
	log *zap.Logger,
) *Worker {
	wrapped := func(jobClient worker.JobClient, job entities.Job) {
		metrics.WorkerJobsActive.WithLabelValues(taskType).Inc()
		start := time.Now()

		handler(jobClient, job)

		elapsed := time.Since(start)
		metrics.WorkerJobsActive.WithLabelValues(taskType).Dec()
		metrics.WorkerJobDuration.WithLabelValues(taskType).Observe(elapsed.Seconds())
		if obs != nil {
			obs.RecordJobProcessed(context.Background(), taskType)
			obs.RecordJobDuration(context.Background(), elapsed, taskType)
		}
	}

	jobWorker := client.NewJobWorker().
		JobType(taskType).
		Handler(wrapped).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	log.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)

	return &Worker{
		worker:   jobWorker,
		logger:   log,
		taskType: taskType,
	}
}

// Stop drains the poll loop and waits for in-flight handlers to return.
func (w *Worker) Stop() {
	w.logger.Info("stopping worker", zap.String("taskType", w.taskType))
	w.worker.Close()
}
