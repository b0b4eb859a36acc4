package scoring

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/common/errors"
	"github.com/FarmCreditInc/FarmCreditAI/internal/models"
)

// ProcessJSON decodes a serialized profile and scores it at the current time.
func ProcessJSON(data []byte) (*models.ScoreResult, error) {
	return NewEngine(time.Now()).ProcessJSON(data)
}

// ProcessJSON decodes a serialized profile and scores it. Decoding failures return an
// INVALID_PROFILE_JSON error; a panic during scoring is recovered as SCORING_FAILED.
func (e *Engine) ProcessJSON(data []byte) (*models.ScoreResult, error) {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil, errors.NewInvalidProfileJSONError(stderrors.New("profile must be a JSON object"))
	}

	var profile models.FarmerProfile
	if err := json.Unmarshal(data, &profile); err != nil {
		return nil, errors.NewInvalidProfileJSONError(err)
	}
	return e.SafeCalculate(&profile)
}

// SafeCalculate is Calculate with panics converted to a SCORING_FAILED error.
func (e *Engine) SafeCalculate(profile *models.FarmerProfile) (result *models.ScoreResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = errors.NewScoringFailedError(fmt.Sprintf("%v", r))
		}
	}()
	return e.Calculate(profile), nil
}
