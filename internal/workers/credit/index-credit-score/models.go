package indexcreditscore

import "github.com/FarmCreditInc/FarmCreditAI/internal/models"

type Input struct {
	FarmerID    string              `json:"farmerId"`
	ScoreResult *models.ScoreResult `json:"scoreResult"`
	EvaluatedAt string              `json:"evaluatedAt,omitempty"`
}

type Output struct {
	DocumentID string `json:"documentId"`
	Index      string `json:"index"`
	Indexed    bool   `json:"indexed"`
}

// AuditDocument is one scored evaluation as stored in the audit index.
type AuditDocument struct {
	DocumentID         string                 `json:"documentId"`
	FarmerID           string                 `json:"farmerId"`
	CreditScore        int                    `json:"creditScore"`
	CreditRating       string                 `json:"creditRating"`
	RawScore           int                    `json:"rawScore"`
	ComponentScores    models.ComponentScores `json:"componentScores"`
	EvaluatedAt        string                 `json:"evaluatedAt"`
	IndexedAt          string                 `json:"indexedAt"`
	ProcessInstanceKey int64                  `json:"processInstanceKey,omitempty"`
}
