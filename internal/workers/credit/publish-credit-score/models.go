package publishcreditscore

import "github.com/FarmCreditInc/FarmCreditAI/internal/models"

const EventTypeCreditScoreCalculated = "CreditScoreCalculated"

type Input struct {
	FarmerID    string              `json:"farmerId"`
	ScoreResult *models.ScoreResult `json:"scoreResult"`
	EvaluatedAt string              `json:"evaluatedAt,omitempty"`
}

type Output struct {
	Published bool   `json:"published"`
	MessageID string `json:"messageId,omitempty"`
	EventID   string `json:"eventId,omitempty"`
}

// CreditScoreEvent is the message body published to the topic.
type CreditScoreEvent struct {
	EventType       string                 `json:"eventType"`
	EventID         string                 `json:"eventId"`
	FarmerID        string                 `json:"farmerId"`
	CreditScore     int                    `json:"creditScore"`
	CreditRating    string                 `json:"creditRating"`
	ComponentScores models.ComponentScores `json:"componentScores"`
	EvaluatedAt     string                 `json:"evaluatedAt"`
	PublishedAt     string                 `json:"publishedAt"`
}
