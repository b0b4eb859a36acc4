package errors

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"testing"

	"github.com/FarmCreditInc/FarmCreditAI/internal/common/camunda/camundatest"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetRetryCount(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{ErrCodeQueryExecutionFailed, 3},
		{ErrCodeScoreIndexFailed, 3},
		{ErrCodeScorePublishFailed, 3},
		{ErrCodeQueryTimeout, 2},
		{ErrCodeProfileNotFound, 0},
		{ErrCodeInvalidProfileJSON, 0},
		{ErrCodeProfileValidationFailed, 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			assert.Equal(t, tt.want, GetRetryCount(tt.code))
			assert.Equal(t, tt.want > 0, IsRetryableErrorCode(tt.code))
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "PROFILE", GetErrorCategory(ErrCodeProfileNotFound))
	assert.Equal(t, "DATABASE", GetErrorCategory(ErrCodeQueryTimeout))
	assert.Equal(t, "SEARCH", GetErrorCategory(ErrCodeScoreIndexFailed))
	assert.Equal(t, "MESSAGING", GetErrorCategory(ErrCodeScorePublishFailed))
	assert.Equal(t, "SCORING", GetErrorCategory(ErrCodeScoringFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidProfileJSON))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}

func TestConvertToBPMNError(t *testing.T) {
	bpmnErr := ConvertToBPMNError(NewProfileNotFoundError("farmer-7"))

	assert.Equal(t, "PROFILE_NOT_FOUND", bpmnErr.Code)
	assert.Equal(t, 0, bpmnErr.Retries)
	vars := bpmnErr.ToErrorVariables()
	assert.Equal(t, "farmer-7", vars["farmerId"])
	assert.Equal(t, "PROFILE_NOT_FOUND", vars["originalErrorCode"])
	assert.Equal(t, false, vars["retryable"])

	assert.Equal(t, "BUSINESS_RULE_VIOLATION", ConvertToBPMNError(NewBusinessRuleError("x", "y")).Code)
}

func TestNormalize(t *testing.T) {
	stdErr := NewQueryTimeoutError("farms")
	assert.Same(t, stdErr, Normalize(stdErr))

	wrapped := Normalize(stderrors.New("boom"))
	assert.Equal(t, ErrCodeInternal, wrapped.Code)
	assert.Equal(t, "boom", wrapped.Details)
	assert.False(t, wrapped.Retryable)
}

func TestHandleJobError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		jobRetries  int32
		wantFailed  bool
		wantRetries int32
		wantThrown  string
	}{
		{"retryable fails with capped retries", NewQueryExecutionFailedError("farms", stderrors.New("reset")), 3, true, 2, ""},
		{"timeout uses its own budget", NewQueryTimeoutError("farms"), 3, true, 1, ""},
		{"broker budget below code budget", NewScoreIndexFailedError("credit-scores", stderrors.New("503")), 1, true, 0, ""},
		{"no retries left throws", NewScorePublishFailedError(stderrors.New("throttled")), 0, false, 0, "SCORE_PUBLISH_FAILED"},
		{"business error throws", NewProfileNotFoundError("farmer-7"), 3, false, 0, "PROFILE_NOT_FOUND"},
		{"plain error throws internal", stderrors.New("boom"), 3, false, 0, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jobs := camundatest.NewJobClient()
			job := camundatest.NewJob(1, "calculate-credit-score", nil)
			job.Retries = tt.jobRetries

			NewErrorHandler(logger.NewNoOpLogger()).HandleJobError(context.Background(), jobs, job, tt.err)

			if tt.wantFailed {
				require.Len(t, jobs.Failed(), 1)
				assert.Empty(t, jobs.Thrown())
				assert.Equal(t, tt.wantRetries, jobs.Failed()[0].Retries)
				return
			}
			require.Len(t, jobs.Thrown(), 1)
			assert.Empty(t, jobs.Failed())
			thrown := jobs.Thrown()[0]
			assert.Equal(t, tt.wantThrown, thrown.ErrorCode)

			var vars map[string]interface{}
			require.NoError(t, json.Unmarshal([]byte(thrown.Variables), &vars))
			assert.Equal(t, tt.wantThrown, vars["errorCode"])
		})
	}
}
