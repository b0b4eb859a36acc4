package scoring

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/models"

	"github.com/stretchr/testify/assert"
)

// ==========================
// Personal / Demographic
// ==========================

func TestPersonalDemographicScore_PrimeAgeUniversityScenario(t *testing.T) {
	profile := &models.FarmerProfile{
		Farmer: models.Farmer{
			Age:              40,
			CreatedAt:        "2019-05-01T08:30:00Z",
			HighestEducation: "UNIVERSITY of Ibadan",
		},
		NextOfKin: []models.NextOfKin{{ID: "nok"}},
	}
	assert.Equal(t, 100, personalDemographicScore(profile, testNow))
}

func TestAgeScore(t *testing.T) {
	tests := []struct {
		age  int
		want int
	}{
		{30, 25}, {55, 25}, {56, 20}, {65, 20}, {66, 10},
		{29, 15}, {19, 15}, {18, 10}, {0, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ageScore(tt.age), "age %d", tt.age)
	}
}

func TestRegistrationTenureBands(t *testing.T) {
	tests := []struct {
		name      string
		createdAt string
		want      int
	}{
		{"five years", "2020-06-01T00:00:00Z", 25},
		{"three years", "2022-01-01", 20},
		{"one year", "2024-06-01 09:00:00", 15},
		{"under a year", daysAgo(100), 5},
		{"missing", "", 5},
		{"unparseable", "15/06/2019", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tenureBands.score(registrationYears(tt.createdAt, testNow), 5))
		})
	}
}

func TestEducationScore(t *testing.T) {
	tests := map[string]int{
		"Bachelor's Degree":      20,
		"college of agriculture": 15,
		"National Diploma":       15,
		"Senior Secondary":       10,
		"High School":            10,
		"Primary":                5,
		"":                       5,
		"University Diploma":     20,
	}
	for education, want := range tests {
		assert.Equal(t, want, educationScore(education), education)
	}
}

// ==========================
// Financial History
// ==========================

func TestWalletBands_Monotonic(t *testing.T) {
	balances := []float64{0, 500, 1000, 10000, 50000, 100000, 1000000}
	want := []int{0, 10, 20, 30, 40, 50, 50}

	prev := -1
	for i, balance := range balances {
		profile := &models.FarmerProfile{Farmer: models.Farmer{MobileWalletBalance: balance}}
		got := financialHistoryScore(profile, testNow)
		assert.Equal(t, want[i], got, "balance %.0f", balance)
		assert.GreaterOrEqual(t, got, prev)
		prev = got
	}
}

func TestFinancialHistoryScore_IdentityAndIncome(t *testing.T) {
	profile := &models.FarmerProfile{Farmer: models.Farmer{BVN: "222", OtherSourcesOfIncome: "Poultry"}}
	assert.Equal(t, 90, financialHistoryScore(profile, testNow))
}

func TestFinancialHistoryScore_CappedAt200(t *testing.T) {
	assert.Equal(t, 200, financialHistoryScore(createStrongProfile(), testNow))
}

func TestTransactionScore(t *testing.T) {
	tx := func(data string, createdAt string) models.TransactionHistory {
		return models.TransactionHistory{TransactionData: json.RawMessage(data), CreatedAt: createdAt}
	}

	tests := []struct {
		name string
		txs  []models.TransactionHistory
		want int
	}{
		{"none", nil, 0},
		{
			"single old small transaction",
			[]models.TransactionHistory{tx(`{"amount": 500}`, daysAgo(400))},
			5 + 5,
		},
		{
			"string encoded payloads",
			[]models.TransactionHistory{
				tx(`"{\"amount\": 20000}"`, daysAgo(1)),
				tx(`"{\"amount\": 20000}"`, daysAgo(2)),
			},
			10 + 15 + 10,
		},
		{
			"undecodable and non-numeric amounts are absent",
			[]models.TransactionHistory{
				tx(`"not json"`, daysAgo(1)),
				tx(`{"amount": "lots"}`, daysAgo(1)),
				tx(`{"value": 10}`, daysAgo(1)),
			},
			10 + 0 + 15,
		},
		{
			"non-positive amounts excluded from average",
			[]models.TransactionHistory{
				tx(`{"amount": 0}`, ""),
				tx(`{"amount": -5000}`, ""),
				tx(`{"amount": 60000}`, ""),
			},
			10 + 20,
		},
		{
			"future dated counts as recent",
			[]models.TransactionHistory{tx(`{"amount": 1500}`, "2026-01-01T00:00:00Z")},
			5 + 10 + 10,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, transactionScore(tt.txs, testNow))
		})
	}
}

func TestTransactionScore_RecencyWindow(t *testing.T) {
	boundary := testNow.AddDate(0, 0, -90).Add(-12 * time.Hour)
	outside := testNow.AddDate(0, 0, -91)

	inWindow := []models.TransactionHistory{{CreatedAt: boundary.Format(time.RFC3339)}}
	outWindow := []models.TransactionHistory{{CreatedAt: outside.Format(time.RFC3339)}}

	assert.Equal(t, 5+10, transactionScore(inWindow, testNow))
	assert.Equal(t, 5, transactionScore(outWindow, testNow))
}

func TestTransactionAmount(t *testing.T) {
	tests := []struct {
		raw    string
		amount float64
		ok     bool
	}{
		{`{"amount": 12.5}`, 12.5, true},
		{`"{\"amount\": 99}"`, 99, true},
		{`  {"amount": 1e3} `, 1000, true},
		{``, 0, false},
		{`null`, 0, false},
		{`"garbage"`, 0, false},
		{`{"amount": null}`, 0, true},
		{`{"amount": true}`, 0, false},
		{`42`, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			amount, ok := transactionAmount(json.RawMessage(tt.raw))
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.amount, amount)
		})
	}
}

// ==========================
// Loan History
// ==========================

func TestLoanHistoryScore_NoContractsIsNeutral(t *testing.T) {
	assert.Equal(t, 75+50, loanHistoryScore(&models.FarmerProfile{}))
}

func TestRepaymentScore(t *testing.T) {
	contracts := []models.LoanContract{{ID: "c1"}}

	tests := []struct {
		name       string
		contracts  []models.LoanContract
		repayments []models.LoanRepayment
		want       int
	}{
		{
			name:      "two on-time repayments",
			contracts: contracts,
			repayments: []models.LoanRepayment{
				{LoanContractID: "c1", DueDate: "2025-01-31T00:00:00Z", DatePaid: "2025-01-20T00:00:00Z"},
				{LoanContractID: "c1", DueDate: "2025-02-28T00:00:00Z", DatePaid: "2025-02-27T00:00:00Z"},
			},
			want: 60 + 40 + 30,
		},
		{
			name:      "late repayment",
			contracts: contracts,
			repayments: []models.LoanRepayment{
				{LoanContractID: "c1", DueDate: "2025-01-01", DatePaid: "2025-01-05T12:00:00Z"},
			},
			want: 10 + 20 + 30,
		},
		{
			name:      "missing paid date keeps contract open but counts",
			contracts: contracts,
			repayments: []models.LoanRepayment{
				{LoanContractID: "c1", DueDate: "2025-01-31", DatePaid: "2025-01-30"},
				{LoanContractID: "c1", DueDate: "2025-02-28"},
			},
			want: 10 + 40 + 15,
		},
		{
			name:       "no repayments",
			contracts:  contracts,
			repayments: nil,
			want:       75,
		},
		{
			name:      "repayments not matching any contract",
			contracts: contracts,
			repayments: []models.LoanRepayment{
				{LoanContractID: "other", DueDate: "2025-01-31", DatePaid: "2025-01-30"},
				{DueDate: "2025-01-31", DatePaid: "2025-01-30"},
			},
			want: 75,
		},
		{
			name:      "contract without id is skipped",
			contracts: []models.LoanContract{{ID: ""}},
			repayments: []models.LoanRepayment{
				{LoanContractID: "", DueDate: "2025-01-31", DatePaid: "2025-01-30"},
			},
			want: 75,
		},
		{
			name:      "paid less than a day late is not on time",
			contracts: contracts,
			repayments: []models.LoanRepayment{
				{LoanContractID: "c1", DueDate: "2025-01-01T00:00:00Z", DatePaid: "2025-01-01T06:00:00Z"},
			},
			want: 10 + 40 + 30,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, repaymentScore(tt.contracts, tt.repayments))
		})
	}
}

func TestRepaymentScore_RatioBands(t *testing.T) {
	// 20 repayments, the first n on time, the rest one day late.
	build := func(onTime int) []models.LoanRepayment {
		rs := make([]models.LoanRepayment, 20)
		for i := range rs {
			paid := "2025-01-01"
			if i >= onTime {
				paid = "2025-01-02"
			}
			rs[i] = models.LoanRepayment{LoanContractID: "c1", DueDate: "2025-01-01", DatePaid: paid}
		}
		return rs
	}

	tests := []struct {
		onTime int
		ratio  int
		late   int
	}{
		{20, 60, 40},
		{19, 60, 30},
		{18, 50, 30},
		{16, 40, 30},
		{14, 30, 30},
		{12, 20, 30},
		{11, 10, 30},
	}
	for _, tt := range tests {
		got := repaymentScore([]models.LoanContract{{ID: "c1"}}, build(tt.onTime))
		assert.Equal(t, tt.ratio+tt.late+30, got, "on time %d/20", tt.onTime)
	}
}

func TestLoanHistoryScore_AddingRepaidLoanNeverLowers(t *testing.T) {
	profile := &models.FarmerProfile{
		LoanContracts: []models.LoanContract{{ID: "c1"}},
		LoanRepayments: []models.LoanRepayment{
			{LoanContractID: "c1", DueDate: "2025-01-01", DatePaid: "2025-01-05"},
		},
	}
	before := loanHistoryScore(profile)

	profile.LoanContracts = append(profile.LoanContracts, models.LoanContract{ID: "c2"})
	profile.LoanRepayments = append(profile.LoanRepayments,
		models.LoanRepayment{LoanContractID: "c2", DueDate: "2025-02-01", DatePaid: "2025-01-30"})
	after := loanHistoryScore(profile)

	assert.GreaterOrEqual(t, after, before)

	empty := &models.FarmerProfile{}
	repaid := &models.FarmerProfile{
		LoanContracts:  []models.LoanContract{{ID: "c1"}},
		LoanRepayments: []models.LoanRepayment{{LoanContractID: "c1", DueDate: "2025-02-01", DatePaid: "2025-01-30"}},
	}
	assert.GreaterOrEqual(t, loanHistoryScore(repaid), loanHistoryScore(empty))
}

func TestLoanHistoryScore_TwoOnTimeRepaymentsScenario(t *testing.T) {
	profile := &models.FarmerProfile{
		LoanContracts: []models.LoanContract{{ID: "c1"}},
		LoanRepayments: []models.LoanRepayment{
			{LoanContractID: "c1", DueDate: "2025-01-31", DatePaid: "2025-01-15"},
			{LoanContractID: "c1", DueDate: "2025-02-28", DatePaid: "2025-02-10"},
		},
	}
	score := loanHistoryScore(profile)
	assert.Equal(t, 130+50, score)
	assert.LessOrEqual(t, score, 250)
}

func TestDebtLoadScore(t *testing.T) {
	tests := []struct {
		name string
		apps []models.LoanApplication
		want int
	}{
		{"no applications", nil, 50},
		{"none approved", []models.LoanApplication{{Status: "pending"}, {Status: "Approved"}}, 50},
		{"approved without existing loans", []models.LoanApplication{{Status: "approved"}}, 100},
		{"existing 10000", []models.LoanApplication{{Status: "approved", ExistingLoans: true, TotalExistingLoanAmount: 10000}}, 80},
		{"existing 50000", []models.LoanApplication{{Status: "approved", ExistingLoans: true, TotalExistingLoanAmount: 50000}}, 60},
		{"existing 100000", []models.LoanApplication{{Status: "approved", ExistingLoans: true, TotalExistingLoanAmount: 100000}}, 40},
		{"existing 200000", []models.LoanApplication{{Status: "approved", ExistingLoans: true, TotalExistingLoanAmount: 200000}}, 20},
		{"existing above 200000", []models.LoanApplication{{Status: "approved", ExistingLoans: true, TotalExistingLoanAmount: 200001}}, 0},
		{
			"newest approved wins",
			[]models.LoanApplication{
				{Status: "approved", ExistingLoans: true, TotalExistingLoanAmount: 500000, CreatedAt: "2023-01-01T00:00:00Z"},
				{Status: "rejected", CreatedAt: "2025-01-01T00:00:00Z"},
				{Status: "approved", ExistingLoans: false, CreatedAt: "2024-01-01T00:00:00Z"},
			},
			100,
		},
		{
			"older approved does not replace",
			[]models.LoanApplication{
				{Status: "approved", ExistingLoans: false, CreatedAt: "2024-01-01T00:00:00Z"},
				{Status: "approved", ExistingLoans: true, TotalExistingLoanAmount: 500000, CreatedAt: "2023-01-01T00:00:00Z"},
			},
			100,
		},
		{
			"unparseable timestamp keeps first approved",
			[]models.LoanApplication{
				{Status: "approved", ExistingLoans: true, TotalExistingLoanAmount: 40000, CreatedAt: "2023-01-01"},
				{Status: "approved", ExistingLoans: false, CreatedAt: "soon"},
			},
			60,
		},
		{
			"equal timestamps keep first approved",
			[]models.LoanApplication{
				{Status: "approved", ExistingLoans: true, TotalExistingLoanAmount: 90000, CreatedAt: "2024-01-01"},
				{Status: "approved", ExistingLoans: false, CreatedAt: "2024-01-01T00:00:00Z"},
			},
			40,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, debtLoadScore(tt.apps))
		})
	}
}

// ==========================
// Agricultural Factors
// ==========================

func TestAgriculturalFactorsScore_NoFarmsIsNeutral(t *testing.T) {
	profile := &models.FarmerProfile{
		FarmProduction: []models.FarmProduction{{Type: "Maize", ExpectedYield: 100, ExpectedUnitProfit: 2000}},
	}
	assert.Equal(t, 50, agriculturalFactorsScore(profile, testNow))
}

func TestAgriculturalFactorsScore(t *testing.T) {
	assert.Equal(t, 80, agriculturalFactorsScore(createSampleProfile(), testNow))
	assert.Equal(t, 200, agriculturalFactorsScore(createStrongProfile(), testNow))
}

func TestFarmSizeAndDiversityBands(t *testing.T) {
	assert.Equal(t, 40, farmSizeBands.score(10, 0))
	assert.Equal(t, 30, farmSizeBands.score(5, 0))
	assert.Equal(t, 20, farmSizeBands.score(2, 0))
	assert.Equal(t, 10, farmSizeBands.score(0.5, 0))
	assert.Equal(t, 0, farmSizeBands.score(0, 0))

	production := []models.FarmProduction{{Type: "Maize"}, {Type: "Maize"}, {Type: ""}, {Type: "maize"}}
	assert.Equal(t, 2, distinctCropTypes(production))
}

func TestFarmingYears(t *testing.T) {
	tests := []struct {
		name  string
		farms []models.Farm
		want  int
	}{
		{"ten calendar years", []models.Farm{{StartDate: "2015-06-15"}}, 40},
		{"earliest start wins", []models.Farm{{StartDate: "2022-01-01"}, {StartDate: "2019-01-01T23:00:00Z"}}, 30},
		{"two years", []models.Farm{{StartDate: "2023-01-01"}}, 20},
		{"started this year", []models.Farm{{StartDate: "2025-06-01"}}, 10},
		{"started today", []models.Farm{{StartDate: "2025-06-15T01:00:00Z"}}, 0},
		{"future start", []models.Farm{{StartDate: "2026-01-01"}}, 0},
		{"unparseable", []models.Farm{{StartDate: "last spring"}}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, farmingTenureBands.score(farmingYears(tt.farms, testNow), 0))
		})
	}
}

func TestProductionScore(t *testing.T) {
	farms := []models.Farm{{NumberOfHarvests: 3}, {NumberOfHarvests: 2}}

	assert.Equal(t, 15+20, productionScore(farms, []models.FarmProduction{{ExpectedYield: 10}}))
	assert.Equal(t, 15, productionScore(farms, []models.FarmProduction{{ExpectedYield: 10}, {ExpectedYield: -20}}))
	assert.Equal(t, 15, productionScore(farms, nil))
	assert.Equal(t, 5, productionScore([]models.Farm{{NumberOfHarvests: 1}}, nil))
	assert.Equal(t, 40, productionScore([]models.Farm{{NumberOfHarvests: 12}}, []models.FarmProduction{{ExpectedYield: 1}}))
}

func TestProfitMarginScore(t *testing.T) {
	tests := []struct {
		profits []float64
		want    int
	}{
		{nil, 0},
		{[]float64{0, -10}, 0},
		{[]float64{1000}, 40},
		{[]float64{600, 400}, 30},
		{[]float64{100, -500}, 20},
		{[]float64{5, 3}, 10},
	}
	for _, tt := range tests {
		production := make([]models.FarmProduction, len(tt.profits))
		for i, p := range tt.profits {
			production[i] = models.FarmProduction{ExpectedUnitProfit: p}
		}
		assert.Equal(t, tt.want, profitMarginScore(production), "%v", tt.profits)
	}
}

// ==========================
// Geographical
// ==========================

func TestGeographicalScore(t *testing.T) {
	tests := []struct {
		name    string
		profile *models.FarmerProfile
		want    int
	}{
		{
			name:    "no addresses",
			profile: &models.FarmerProfile{Addresses: []models.Address{{ID: "a1", GeopoliticalZone: "South West"}}},
			want:    50,
		},
		{
			name: "farmer address with coordinates",
			profile: &models.FarmerProfile{
				Farmer:    models.Farmer{AddressID: "a1"},
				Addresses: []models.Address{{ID: "a1", GeopoliticalZone: "North East", Latitude: floatPtr(11.8), Longitude: floatPtr(13.1)}},
			},
			want: 30 + 40,
		},
		{
			name: "latitude without longitude",
			profile: &models.FarmerProfile{
				Farmer:    models.Farmer{AddressID: "a1"},
				Addresses: []models.Address{{ID: "a1", GeopoliticalZone: "north west", Latitude: floatPtr(12)}},
			},
			want: 40 + 20,
		},
		{
			name: "unknown zone defaults",
			profile: &models.FarmerProfile{
				Farmer:    models.Farmer{AddressID: "a1"},
				Addresses: []models.Address{{ID: "a1", GeopoliticalZone: "Lagos"}},
			},
			want: 30 + 20,
		},
		{
			name: "mean of 47.5 rounds to even",
			profile: &models.FarmerProfile{
				Farmer:    models.Farmer{AddressID: "a1"},
				Farms:     []models.Farm{{ID: "f1", AddressID: "a2"}},
				Addresses: []models.Address{{ID: "a1", GeopoliticalZone: "North Central"}, {ID: "a2", GeopoliticalZone: "South South"}},
			},
			want: 48 + 20,
		},
		{
			name: "mean of 52.5 rounds to even",
			profile: &models.FarmerProfile{
				Farmer:    models.Farmer{AddressID: "a1"},
				Farms:     []models.Farm{{ID: "f1", AddressID: "a2"}},
				Addresses: []models.Address{{ID: "a1", GeopoliticalZone: "North Central"}, {ID: "a2", GeopoliticalZone: "South West"}},
			},
			want: 52 + 20,
		},
		{
			name: "unknown zones excluded from mean",
			profile: &models.FarmerProfile{
				Farmer:    models.Farmer{AddressID: "a1"},
				Farms:     []models.Farm{{ID: "f1", AddressID: "a2"}},
				Addresses: []models.Address{{ID: "a1", GeopoliticalZone: "Atlantis"}, {ID: "a2", GeopoliticalZone: "South East", Longitude: floatPtr(7), Latitude: floatPtr(6)}},
			},
			want: 50 + 40,
		},
		{
			name: "first matching address wins",
			profile: &models.FarmerProfile{
				Farmer: models.Farmer{AddressID: "a1"},
				Addresses: []models.Address{
					{ID: "a1", GeopoliticalZone: "South West"},
					{ID: "a1", GeopoliticalZone: "North East"},
				},
			},
			want: 60 + 20,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, geographicalScore(tt.profile))
		})
	}
}
