package publishcreditscore

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/common/camunda/camundatest"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/config"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/errors"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/logger"
	"github.com/FarmCreditInc/FarmCreditAI/internal/models"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

type MockSNSService struct {
	PublishFunc func(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
	calls       []*sns.PublishInput
}

func (m *MockSNSService) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	m.calls = append(m.calls, params)
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, params, optFns...)
	}
	return &sns.PublishOutput{MessageId: aws.String("msg-123")}, nil
}

const testTopicARN = "arn:aws:sns:eu-west-1:123456789012:credit-scores"

func createTestConfig() *Config {
	c := LoadConfig()
	c.Enabled = true
	c.TopicARN = testTopicARN
	return c
}

func createTestHandler(t *testing.T, config *Config, snsClient SNSService) *Handler {
	h := NewHandler(config, snsClient, nil, logger.NewTestLogger(t))
	h.now = func() time.Time { return time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC) }
	h.newID = func() string { return "evt-1" }
	return h
}

func createTestScoreResult() *models.ScoreResult {
	return &models.ScoreResult{
		CreditScore:  781,
		CreditRating: models.RatingExcellent,
		ComponentScores: models.ComponentScores{
			PersonalDemographic: 100, FinancialHistory: 150, LoanHistory: 200,
			AgriculturalFactors: 170, Geographical: 80,
		},
		RawScore:    700,
		MaxPossible: 850,
	}
}

// ==========================
// Publication Tests
// ==========================

func TestExecute_PublishesEvent(t *testing.T) {
	mock := &MockSNSService{}
	h := createTestHandler(t, createTestConfig(), mock)

	output, err := h.Execute(context.Background(), &Input{
		FarmerID:    "farmer-9",
		ScoreResult: createTestScoreResult(),
		EvaluatedAt: "2025-06-15T11:58:00Z",
	})
	require.NoError(t, err)
	assert.Equal(t, &Output{Published: true, MessageID: "msg-123", EventID: "evt-1"}, output)

	require.Len(t, mock.calls, 1)
	in := mock.calls[0]
	assert.Equal(t, testTopicARN, aws.ToString(in.TopicArn))
	assert.Equal(t, EventTypeCreditScoreCalculated, aws.ToString(in.Subject))
	assert.Equal(t, "Excellent", aws.ToString(in.MessageAttributes["rating"].StringValue))
	assert.Equal(t, "String", aws.ToString(in.MessageAttributes["rating"].DataType))
	assert.Equal(t, "farmer-9", aws.ToString(in.MessageAttributes["farmerId"].StringValue))

	var event CreditScoreEvent
	require.NoError(t, json.Unmarshal([]byte(aws.ToString(in.Message)), &event))
	assert.Equal(t, CreditScoreEvent{
		EventType:       EventTypeCreditScoreCalculated,
		EventID:         "evt-1",
		FarmerID:        "farmer-9",
		CreditScore:     781,
		CreditRating:    models.RatingExcellent,
		ComponentScores: createTestScoreResult().ComponentScores,
		EvaluatedAt:     "2025-06-15T11:58:00Z",
		PublishedAt:     "2025-06-15T12:00:00Z",
	}, event)
}

func TestExecute_Disabled(t *testing.T) {
	mock := &MockSNSService{}
	cfg := createTestConfig()
	cfg.Enabled = false

	output, err := createTestHandler(t, cfg, mock).Execute(context.Background(), &Input{FarmerID: "farmer-9", ScoreResult: createTestScoreResult()})
	require.NoError(t, err)
	assert.False(t, output.Published)
	assert.Empty(t, mock.calls)

	output, err = createTestHandler(t, createTestConfig(), nil).Execute(context.Background(), &Input{FarmerID: "farmer-9"})
	require.NoError(t, err)
	assert.False(t, output.Published)
}

func TestExecute_Errors(t *testing.T) {
	t.Run("missing score result", func(t *testing.T) {
		mock := &MockSNSService{}
		_, err := createTestHandler(t, createTestConfig(), mock).Execute(context.Background(), &Input{FarmerID: "farmer-9"})

		stdErr, ok := errors.AsStandardError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeBusinessRule, stdErr.Code)
		assert.Empty(t, mock.calls)
	})

	t.Run("publish fails", func(t *testing.T) {
		mock := &MockSNSService{
			PublishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
				return nil, stderrors.New("throttled")
			},
		}
		_, err := createTestHandler(t, createTestConfig(), mock).Execute(context.Background(), &Input{FarmerID: "farmer-9", ScoreResult: createTestScoreResult()})

		stdErr, ok := errors.AsStandardError(err)
		require.True(t, ok)
		assert.Equal(t, errors.ErrCodeScorePublishFailed, stdErr.Code)
		assert.Equal(t, "throttled", stdErr.Details)
		assert.True(t, stdErr.Retryable)
	})
}

func TestHandle_CompletesAndFails(t *testing.T) {
	h := createTestHandler(t, createTestConfig(), &MockSNSService{})
	jobs := camundatest.NewJobClient()

	h.Handle(jobs, camundatest.NewJob(5, TaskType, Input{FarmerID: "farmer-9", ScoreResult: createTestScoreResult()}))

	vars := jobs.CompletedVariables()
	require.NotNil(t, vars)
	assert.Equal(t, true, vars["published"])
	assert.Equal(t, "msg-123", vars["messageId"])

	h = createTestHandler(t, createTestConfig(), &MockSNSService{
		PublishFunc: func(context.Context, *sns.PublishInput, ...func(*sns.Options)) (*sns.PublishOutput, error) {
			return nil, stderrors.New("endpoint unreachable")
		},
	})
	jobs = camundatest.NewJobClient()

	h.Handle(jobs, camundatest.NewJob(6, TaskType, Input{FarmerID: "farmer-9", ScoreResult: createTestScoreResult()}))
	require.Len(t, jobs.Failed(), 1)
	assert.Equal(t, int32(2), jobs.Failed()[0].Retries)
	assert.Empty(t, jobs.Completed())
}

func TestHandle_InvalidVariables(t *testing.T) {
	h := createTestHandler(t, createTestConfig(), &MockSNSService{})
	jobs := camundatest.NewJobClient()

	h.Handle(jobs, camundatest.NewJob(7, TaskType, `{"farmerId": 12`))

	require.Len(t, jobs.Thrown(), 1)
	assert.Equal(t, "BUSINESS_RULE_VIOLATION", jobs.Thrown()[0].ErrorCode)
}

func TestLoadConfigFrom(t *testing.T) {
	cfg := &config.Config{
		Workers: map[string]config.WorkerConfig{
			config.WorkerPublishCreditScore: {Enabled: true, Timeout: 4000},
		},
	}
	cfg.Integrations.AWS.SNS.Enabled = true
	cfg.Integrations.AWS.SNS.TopicARN = testTopicARN

	c := LoadConfigFrom(cfg)
	assert.True(t, c.Enabled)
	assert.Equal(t, testTopicARN, c.TopicARN)
	assert.Equal(t, 4*time.Second, c.Timeout)
}
