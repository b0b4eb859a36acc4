package indexcreditscore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/common/errors"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/logger"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/metrics"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/observability"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"
)

const (
	TaskType = "index-credit-score"
)

type Handler struct {
	config       *Config
	client       *elasticsearch.Client
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	now          func() time.Time
	newID        func() string
	logger       logger.Logger
}

func NewHandler(config *Config, client *elasticsearch.Client, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		client:       client,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(l),
		now:          time.Now,
		newID:        uuid.NewString,
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.fail(ctx, client, job, errors.NewBusinessRuleError("Invalid job variables", fmt.Sprintf("parse input: %v", err)), startTime)
		return
	}

	output, err := h.index(ctx, &input, job.ProcessInstanceKey)
	if err != nil {
		h.fail(ctx, client, job, err, startTime)
		return
	}

	h.completeJob(ctx, client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(startTime).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "completed")
}

func (h *Handler) index(ctx context.Context, input *Input, processInstanceKey int64) (*Output, error) {
	if input.ScoreResult == nil {
		return nil, errors.NewBusinessRuleError("scoreResult is required", fmt.Sprintf("farmerId: %s", input.FarmerID))
	}

	now := h.now().UTC()
	evaluatedAt := input.EvaluatedAt
	if evaluatedAt == "" {
		evaluatedAt = now.Format(time.RFC3339)
	}

	doc := AuditDocument{
		DocumentID:         h.newID(),
		FarmerID:           input.FarmerID,
		CreditScore:        input.ScoreResult.CreditScore,
		CreditRating:       input.ScoreResult.CreditRating,
		RawScore:           input.ScoreResult.RawScore,
		ComponentScores:    input.ScoreResult.ComponentScores,
		EvaluatedAt:        evaluatedAt,
		IndexedAt:          now.Format(time.RFC3339),
		ProcessInstanceKey: processInstanceKey,
	}

	body, err := json.Marshal(doc)
	if err != nil {
		return nil, errors.NewScoreIndexFailedError(h.config.Index, err)
	}

	res, err := h.client.Index(
		h.config.Index,
		bytes.NewReader(body),
		h.client.Index.WithContext(ctx),
		h.client.Index.WithDocumentID(doc.DocumentID),
		h.client.Index.WithRefresh(h.config.Refresh),
	)
	if err != nil {
		return nil, errors.NewScoreIndexFailedError(h.config.Index, err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(io.LimitReader(res.Body, 1024))
		return nil, errors.NewScoreIndexFailedError(h.config.Index, fmt.Errorf("%s: %s", res.Status(), bytes.TrimSpace(msg)))
	}

	h.logger.Info("credit score indexed", map[string]interface{}{
		"farmerId":   input.FarmerID,
		"documentId": doc.DocumentID,
		"index":      h.config.Index,
	})

	return &Output{
		DocumentID: doc.DocumentID,
		Index:      h.config.Index,
		Indexed:    true,
	}, nil
}

func (h *Handler) fail(ctx context.Context, client worker.JobClient, job entities.Job, err error, startTime time.Time) {
	stdErr := errors.Normalize(err)
	metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(stdErr.Code)).Inc()
	h.obs.RecordJobProcessed(ctx, TaskType, "failed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(startTime), "failed")
	h.errorHandler.HandleJobError(ctx, client, job, stdErr)
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.index(ctx, input, 0)
}
