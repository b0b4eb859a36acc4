package calculatecreditscore

import (
	"encoding/json"

	"github.com/FarmCreditInc/FarmCreditAI/internal/models"
)

// Input carries either an inline profile or a farmer id to load one by.
type Input struct {
	FarmerID string          `json:"farmerId"`
	Profile  json.RawMessage `json:"profile,omitempty"`
}

type Output struct {
	FarmerID     string              `json:"farmerId"`
	CreditScore  int                 `json:"creditScore"`
	CreditRating string              `json:"creditRating"`
	ScoreResult  *models.ScoreResult `json:"scoreResult"`
	EvaluatedAt  string              `json:"evaluatedAt"`
}
