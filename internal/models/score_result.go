package models

// Credit ratings, highest first.
const (
	RatingExcellent = "Excellent"
	RatingGood      = "Good"
	RatingFair      = "Fair"
	RatingPoor      = "Poor"
	RatingVeryPoor  = "Very Poor"
)

// ComponentScores holds one value per scoring dimension. It is used both for the awarded points
// and for the dimension maxima.
type ComponentScores struct {
	PersonalDemographic int `json:"personal_demographic"`
	FinancialHistory    int `json:"financial_history"`
	LoanHistory         int `json:"loan_history"`
	AgriculturalFactors int `json:"agricultural_factors"`
	Geographical        int `json:"geographical"`
}

// Total sums the five dimensions.
func (c ComponentScores) Total() int {
	return c.PersonalDemographic + c.FinancialHistory + c.LoanHistory + c.AgriculturalFactors + c.Geographical
}

// ScoreResult is the outcome of one evaluation, with enough detail to explain the final score.
type ScoreResult struct {
	CreditScore        int             `json:"credit_score"`
	CreditRating       string          `json:"credit_rating"`
	ComponentScores    ComponentScores `json:"component_scores"`
	MaxComponentPoints ComponentScores `json:"max_component_points"`
	RawScore           int             `json:"raw_score"`
	MaxPossible        int             `json:"max_possible"`
}
