package calculatecreditscore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/common/errors"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/logger"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/metrics"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/observability"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/validation"
	"github.com/FarmCreditInc/FarmCreditAI/internal/models"
	"github.com/FarmCreditInc/FarmCreditAI/internal/repository"
	"github.com/FarmCreditInc/FarmCreditAI/internal/scoring"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "calculate-credit-score"
)

type Handler struct {
	config       *Config
	profiles     repository.ProfileLoader
	validator    *validation.ProfileValidator
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	now          func() time.Time
	logger       logger.Logger
}

// NewHandler accepts a nil profiles loader, in which case every job must carry an inline profile.
func NewHandler(config *Config, profiles repository.ProfileLoader, validator *validation.ProfileValidator, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		profiles:     profiles,
		validator:    validator,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(l),
		now:          time.Now,
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
		h.fail(ctx, client, job, errors.NewProfileValidationFailedError(fmt.Sprintf("parse input: %v", err)), startTime)
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
	evaluatedAt := h.now().UTC()
	engine := scoring.NewEngine(evaluatedAt)

	var (
		result   *models.ScoreResult
		farmerID = input.FarmerID
		err      error
	)

	if hasProfile(input.Profile) {
		if err := h.validate(input.Profile); err != nil {
			return nil, err
		}
		if result, err = engine.ProcessJSON(input.Profile); err != nil {
			return nil, err
		}
		if farmerID == "" {
			farmerID = inlineFarmerID(input.Profile)
		}
	} else {
		if farmerID == "" {
			return nil, errors.NewProfileValidationFailedError("either farmerId or profile is required")
		}
		if h.profiles == nil {
			return nil, errors.NewProfileValidationFailedError("no profile store configured; profile is required")
		}
		profile, err := h.profiles.Load(ctx, farmerID)
		if err != nil {
			return nil, err
		}
		if result, err = engine.SafeCalculate(profile); err != nil {
			return nil, err
		}
	}

	metrics.ObserveScore(metrics.SourceWorker, result.CreditRating, result.CreditScore)
	h.obs.RecordScore(ctx, metrics.SourceWorker, result.CreditRating)

	h.logger.Info("credit score calculated", map[string]interface{}{
		"farmerId":     farmerID,
		"creditScore":  result.CreditScore,
		"creditRating": result.CreditRating,
		"rawScore":     result.RawScore,
	})

	return &Output{
		FarmerID:     farmerID,
		CreditScore:  result.CreditScore,
		CreditRating: result.CreditRating,
		ScoreResult:  result,
		EvaluatedAt:  evaluatedAt.Format(time.RFC3339),
	}, nil
}

func (h *Handler) validate(profile json.RawMessage) error {
	if !h.config.ValidateProfile || h.validator == nil {
		return nil
	}
	result, err := h.validator.Validate(profile)
	if err != nil {
		return errors.NewInvalidProfileJSONError(err)
	}
	if !result.Valid {
		return errors.NewProfileValidationFailedError(strings.Join(result.GetErrorMessages(), "; "))
	}
	return nil
}

func hasProfile(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && !bytes.Equal(trimmed, []byte("null"))
}

func inlineFarmerID(raw json.RawMessage) string {
	var head struct {
		Farmer struct {
			ID string `json:"id"`
		} `json:"farmers"`
	}
	_ = json.Unmarshal(raw, &head)
	return head.Farmer.ID
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
