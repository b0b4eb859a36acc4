package scoring

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/models"
)

const (
	maxFinancialHistory = 200
	maxTransactionScore = 60
	recentWindowDays    = 90
)

var (
	walletBands = bandTable{
		{gte, 100000, 50},
		{gte, 50000, 40},
		{gte, 10000, 30},
		{gte, 1000, 20},
		{gt, 0, 10},
	}
	txFrequencyBands = bandTable{
		{gte, 10, 20},
		{gte, 5, 15},
		{gte, 2, 10},
		{eq, 1, 5},
	}
	txAmountBands = bandTable{
		{gte, 50000, 20},
		{gte, 10000, 15},
		{gte, 1000, 10},
	}
	txRecencyBands = bandTable{
		{gte, 5, 20},
		{gte, 3, 15},
		{gte, 1, 10},
	}
)

func financialHistoryScore(p *models.FarmerProfile, now time.Time) int {
	score := walletBands.score(p.Farmer.MobileWalletBalance, 0)
	if p.Farmer.BVN != "" {
		score += 50
	}
	if p.Farmer.OtherSourcesOfIncome != "" {
		score += 40
	}
	score += transactionScore(p.TransactionHistory, now)
	return capAt(score, maxFinancialHistory)
}

func transactionScore(txs []models.TransactionHistory, now time.Time) int {
	if len(txs) == 0 {
		return 0
	}

	score := txFrequencyBands.score(float64(len(txs)), 0)

	var (
		total   float64
		counted int
		recent  int
	)
	for _, tx := range txs {
		if amount, ok := transactionAmount(tx.TransactionData); ok && amount > 0 {
			total += amount
			counted++
		}
		// Future-dated transactions have a negative age and count as recent.
		if at, ok := parseTimestamp(tx.CreatedAt); ok && wholeDays(at, now) <= recentWindowDays {
			recent++
		}
	}

	if counted > 0 {
		score += txAmountBands.score(total/float64(counted), 5)
	}
	score += txRecencyBands.score(float64(recent), 0)

	return capAt(score, maxTransactionScore)
}

// transactionAmount extracts "amount" from a payload that is either an object or a JSON string
// holding an object. Undecodable payloads and non-numeric amounts report false.
func transactionAmount(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}

	if raw[0] == '"' {
		var encoded string
		if err := json.Unmarshal(raw, &encoded); err != nil {
			return 0, false
		}
		raw = []byte(encoded)
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(raw, &payload); err != nil {
		return 0, false
	}
	field, ok := payload["amount"]
	if !ok {
		return 0, false
	}

	var amount float64
	if err := json.Unmarshal(field, &amount); err != nil {
		return 0, false
	}
	return amount, true
}
