// Package scoring computes a farmer's credit score from their profile records.
//
// Five independent scorers award capped points for personal/demographic, financial history,
// loan history, agricultural and geographical factors. Their sum (0-850) is rescaled linearly
// onto 300-850 and bucketed into a rating. Missing or malformed data never fails a calculation;
// each scorer substitutes its neutral default instead.
package scoring

import (
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/models"

	"github.com/shopspring/decimal"
)

const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

// MaxComponentPoints are the per-dimension caps; they sum to the raw maximum of 850.
var MaxComponentPoints = models.ComponentScores{
	PersonalDemographic: maxPersonalDemographic,
	FinancialHistory:    maxFinancialHistory,
	LoanHistory:         maxLoanHistory,
	AgriculturalFactors: maxAgriculturalFactors,
	Geographical:        maxGeographical,
}

var ratingBands = []struct {
	min    int
	rating string
}{
	{750, models.RatingExcellent},
	{670, models.RatingGood},
	{580, models.RatingFair},
	{500, models.RatingPoor},
}

// Engine evaluates profiles against a fixed clock. It holds no other state and is safe for
// concurrent use.
type Engine struct {
	now time.Time
}

// NewEngine returns an engine that measures ages and tenures relative to now.
func NewEngine(now time.Time) *Engine {
	return &Engine{now: now.UTC()}
}

// Now returns the evaluation time.
func (e *Engine) Now() time.Time {
	return e.now
}

// Calculate scores a profile at the current time.
func Calculate(profile *models.FarmerProfile) *models.ScoreResult {
	return NewEngine(time.Now()).Calculate(profile)
}

// Calculate scores profile. A nil profile is scored as an empty one.
func (e *Engine) Calculate(profile *models.FarmerProfile) *models.ScoreResult {
	if profile == nil {
		profile = &models.FarmerProfile{}
	}

	components := models.ComponentScores{
		PersonalDemographic: personalDemographicScore(profile, e.now),
		FinancialHistory:    financialHistoryScore(profile, e.now),
		LoanHistory:         loanHistoryScore(profile),
		AgriculturalFactors: agriculturalFactorsScore(profile, e.now),
		Geographical:        geographicalScore(profile),
	}

	raw := components.Total()
	final := ScaleRawScore(raw)

	return &models.ScoreResult{
		CreditScore:        final,
		CreditRating:       Rating(final),
		ComponentScores:    components,
		MaxComponentPoints: MaxComponentPoints,
		RawScore:           raw,
		MaxPossible:        MaxComponentPoints.Total(),
	}
}

// ScaleRawScore maps a raw score onto [300,850] and rounds half to even.
func ScaleRawScore(raw int) int {
	maxRaw := decimal.NewFromInt(int64(MaxComponentPoints.Total()))
	span := decimal.NewFromInt(MaxCreditScore - MinCreditScore)
	floor := decimal.NewFromInt(MinCreditScore)
	ceiling := decimal.NewFromInt(MaxCreditScore)

	scaled := floor.Add(decimal.NewFromInt(int64(raw)).Mul(span).Div(maxRaw))
	if scaled.LessThan(floor) {
		scaled = floor
	}
	if scaled.GreaterThan(ceiling) {
		scaled = ceiling
	}
	return int(scaled.RoundBank(0).IntPart())
}

// Rating buckets a final score.
func Rating(score int) string {
	for _, b := range ratingBands {
		if score >= b.min {
			return b.rating
		}
	}
	return models.RatingVeryPoor
}
