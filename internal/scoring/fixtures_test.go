package scoring

import (
	"encoding/json"
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

var testNow = time.Date(2025, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestEngine() *Engine {
	return NewEngine(testNow)
}

func floatPtr(v float64) *float64 {
	return &v
}

func daysAgo(days int) string {
	return testNow.AddDate(0, 0, -days).Format(time.RFC3339)
}

func amountPayload(amount float64) json.RawMessage {
	data, _ := json.Marshal(map[string]float64{"amount": amount})
	return data
}

func onTimeRepayment(id, contractID, due string) models.LoanRepayment {
	return models.LoanRepayment{
		ID:             id,
		LoanContractID: contractID,
		DueDate:        due,
		DatePaid:       due[:10] + "T00:00:00Z",
	}
}

// createStrongProfile earns the maximum in every dimension.
func createStrongProfile() *models.FarmerProfile {
	txs := make([]models.TransactionHistory, 10)
	for i := range txs {
		txs[i] = models.TransactionHistory{
			ID:              "tx",
			FarmerID:        "farmer-1",
			TransactionData: amountPayload(60000),
			CreatedAt:       daysAgo(14),
		}
	}

	return &models.FarmerProfile{
		Farmer: models.Farmer{
			ID:                   "farmer-1",
			Age:                  40,
			CreatedAt:            "2019-06-01T00:00:00Z",
			HighestEducation:     "University Degree",
			MobileWalletBalance:  150000,
			BVN:                  "22212345678",
			OtherSourcesOfIncome: "Trading",
			AddressID:            "addr-1",
		},
		NextOfKin: []models.NextOfKin{{ID: "nok-1", FarmerID: "farmer-1", FullName: "Ada Obi"}},
		Farms: []models.Farm{
			{ID: "farm-1", FarmerID: "farmer-1", Size: 6, StartDate: "2010-01-01", NumberOfHarvests: 6, AddressID: "addr-1"},
			{ID: "farm-2", FarmerID: "farmer-1", Size: 4, StartDate: "2014-03-01", NumberOfHarvests: 4, AddressID: "addr-2"},
		},
		FarmProduction: []models.FarmProduction{
			{ID: "p1", FarmID: "farm-1", Type: "Maize", ExpectedYield: 1000, ExpectedUnitProfit: 1500},
			{ID: "p2", FarmID: "farm-1", Type: "Cassava", ExpectedYield: 1000, ExpectedUnitProfit: 1500},
			{ID: "p3", FarmID: "farm-2", Type: "Yam", ExpectedYield: 1000, ExpectedUnitProfit: 1500},
		},
		Addresses: []models.Address{
			{ID: "addr-1", GeopoliticalZone: "South West", Latitude: floatPtr(7.38), Longitude: floatPtr(3.94)},
			{ID: "addr-2", GeopoliticalZone: " south west "},
		},
		LoanApplications: []models.LoanApplication{
			{ID: "app-1", FarmerID: "farmer-1", Status: "approved", ExistingLoans: false, CreatedAt: "2024-01-01T00:00:00Z"},
		},
		LoanContracts: []models.LoanContract{
			{ID: "c1", LoanApplicationID: "app-1"},
			{ID: "c2", LoanApplicationID: "app-1"},
			{ID: "c3", LoanApplicationID: "app-1"},
		},
		LoanRepayments: []models.LoanRepayment{
			onTimeRepayment("r1", "c1", "2024-03-01T00:00:00Z"),
			onTimeRepayment("r2", "c2", "2024-04-01T00:00:00Z"),
			onTimeRepayment("r3", "c3", "2024-05-01T00:00:00Z"),
		},
		TransactionHistory: txs,
	}
}

// createSampleProfile mirrors a typical smallholder record with thin history.
func createSampleProfile() *models.FarmerProfile {
	return &models.FarmerProfile{
		Farmer: models.Farmer{
			ID:                   "123",
			Age:                  10,
			CreatedAt:            "2020-01-15T00:00:00Z",
			HighestEducation:     "Primary School",
			Gender:               "Male",
			MobileWalletBalance:  2,
			BVN:                  "12345678901",
			OtherSourcesOfIncome: "Trading",
		},
		NextOfKin: []models.NextOfKin{{ID: "456", FarmerID: "123", FullName: "Jane Doe"}},
		Farms: []models.Farm{
			{ID: "789", FarmerID: "123", Size: 1, StartDate: "2025-03-10", NumberOfHarvests: 0},
		},
		FarmProduction: []models.FarmProduction{
			{ID: "101", FarmID: "789", Type: "Maize", ExpectedYield: 2000, ExpectedUnitProfit: 5},
			{ID: "102", FarmID: "789", Type: "Cassava", ExpectedYield: 3000, ExpectedUnitProfit: 3},
		},
	}
}
