package publishcreditscore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/common/errors"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/logger"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/metrics"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/observability"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/google/uuid"
)

const (
	TaskType = "publish-credit-score"
)

// SNSService is the part of the SNS client the worker uses.
type SNSService interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Handler struct {
	config       *Config
	snsClient    SNSService
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	now          func() time.Time
	newID        func() string
	logger       logger.Logger
}

// NewHandler accepts a nil snsClient when publishing is disabled.
func NewHandler(config *Config, snsClient SNSService, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		snsClient:    snsClient,
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

	output, err := h.execute(ctx, &input)
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

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if !h.config.Enabled || h.snsClient == nil {
		h.logger.Info("score publication disabled", map[string]interface{}{
			"farmerId": input.FarmerID,
		})
		return &Output{Published: false}, nil
	}

	if input.ScoreResult == nil {
		return nil, errors.NewBusinessRuleError("scoreResult is required", fmt.Sprintf("farmerId: %s", input.FarmerID))
	}

	now := h.now().UTC()
	evaluatedAt := input.EvaluatedAt
	if evaluatedAt == "" {
		evaluatedAt = now.Format(time.RFC3339)
	}

	event := CreditScoreEvent{
		EventType:       EventTypeCreditScoreCalculated,
		EventID:         h.newID(),
		FarmerID:        input.FarmerID,
		CreditScore:     input.ScoreResult.CreditScore,
		CreditRating:    input.ScoreResult.CreditRating,
		ComponentScores: input.ScoreResult.ComponentScores,
		EvaluatedAt:     evaluatedAt,
		PublishedAt:     now.Format(time.RFC3339),
	}

	body, err := json.Marshal(event)
	if err != nil {
		return nil, errors.NewScorePublishFailedError(err)
	}

	out, err := h.snsClient.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(h.config.TopicARN),
		Message:  aws.String(string(body)),
		Subject:  aws.String(EventTypeCreditScoreCalculated),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"eventType": {DataType: aws.String("String"), StringValue: aws.String(EventTypeCreditScoreCalculated)},
			"rating":    {DataType: aws.String("String"), StringValue: aws.String(event.CreditRating)},
			"farmerId":  {DataType: aws.String("String"), StringValue: aws.String(event.FarmerID)},
		},
	})
	if err != nil {
		return nil, errors.NewScorePublishFailedError(err)
	}

	messageID := aws.ToString(out.MessageId)
	h.logger.Info("credit score event published", map[string]interface{}{
		"farmerId":  input.FarmerID,
		"eventId":   event.EventID,
		"messageId": messageID,
	})

	return &Output{
		Published: true,
		MessageID: messageID,
		EventID:   event.EventID,
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
	return h.execute(ctx, input)
}
