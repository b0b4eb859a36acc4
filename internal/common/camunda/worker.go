package camunda

import (
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/common/config"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
	"go.uber.org/zap"
)

// HandlerFunc is the signature every credit worker's Handle method satisfies.
type HandlerFunc func(client worker.JobClient, job entities.Job)

// WorkerGroup tracks opened job workers so they can be closed together on shutdown.
type WorkerGroup struct {
	client  zbc.Client
	logger  *zap.Logger
	workers map[string]worker.JobWorker
}

func NewWorkerGroup(client zbc.Client, logger *zap.Logger) *WorkerGroup {
	return &WorkerGroup{
		client:  client,
		logger:  logger,
		workers: make(map[string]worker.JobWorker),
	}
}

// Start opens a job worker for taskType. Disabled workers are logged and skipped.
func (g *WorkerGroup) Start(taskType string, wcfg config.WorkerConfig, handler HandlerFunc) {
	if !wcfg.Enabled {
		g.logger.Info("worker disabled", zap.String("taskType", taskType))
		return
	}

	jobWorker := g.client.NewJobWorker().
		JobType(taskType).
		Handler(worker.JobHandler(handler)).
		MaxJobsActive(wcfg.MaxJobsActive).
		Timeout(time.Duration(wcfg.Timeout) * time.Millisecond).
		Open()

	g.workers[taskType] = jobWorker
	g.logger.Info("worker started",
		zap.String("taskType", taskType),
		zap.Int("maxJobsActive", wcfg.MaxJobsActive),
		zap.Int("timeout_ms", wcfg.Timeout),
	)
}

// Running returns the task types with an open worker.
func (g *WorkerGroup) Running() []string {
	types := make([]string, 0, len(g.workers))
	for taskType := range g.workers {
		types = append(types, taskType)
	}
	return types
}

// Close stops polling and waits for in-flight jobs.
func (g *WorkerGroup) Close() {
	for taskType, w := range g.workers {
		g.logger.Info("stopping worker", zap.String("taskType", taskType))
		w.Close()
		w.AwaitClose()
	}
}
