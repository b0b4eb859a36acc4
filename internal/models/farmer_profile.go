package models

import (
	"encoding/json"
	"fmt"
	"math"
)

// FarmerProfile is the aggregate of a farmer's records. JSON keys follow the source table names.
// Timestamps are raw strings; the scoring engine parses them and treats bad values as absent.
type FarmerProfile struct {
	Farmer             Farmer               `json:"farmers"`
	NextOfKin          []NextOfKin          `json:"farmer_next_of_kin"`
	Farms              []Farm               `json:"farms"`
	FarmProduction     []FarmProduction     `json:"farm_production"`
	Addresses          []Address            `json:"address"`
	LoanApplications   []LoanApplication    `json:"loan_application"`
	LoanContracts      []LoanContract       `json:"loan_contract"`
	LoanRepayments     []LoanRepayment      `json:"loan_repayments"`
	TransactionHistory []TransactionHistory `json:"transaction_history"`
}

type Farmer struct {
	ID                   string      `json:"id"`
	Age                  WholeNumber `json:"age"`
	CreatedAt            string      `json:"created_at,omitempty"`
	HighestEducation     string      `json:"highest_education"`
	Gender               string      `json:"gender,omitempty"`
	MobileWalletBalance  float64     `json:"mobile_wallet_balance"`
	BVN                  string      `json:"bvn"`
	OtherSourcesOfIncome string      `json:"other_sources_of_income"`
	AddressID            string      `json:"address_id,omitempty"`
}

type NextOfKin struct {
	ID       string `json:"id"`
	FarmerID string `json:"farmer_id"`
	FullName string `json:"full_name,omitempty"`
}

type Farm struct {
	ID               string      `json:"id"`
	FarmerID         string      `json:"farmer_id"`
	Size             float64     `json:"size"`
	StartDate        string      `json:"start_date,omitempty"`
	NumberOfHarvests WholeNumber `json:"number_of_harvests"`
	AddressID        string      `json:"address_id,omitempty"`
}

type FarmProduction struct {
	ID                 string  `json:"id"`
	FarmID             string  `json:"farm_id"`
	Type               string  `json:"type"`
	ExpectedYield      float64 `json:"expected_yield"`
	ExpectedUnitProfit float64 `json:"expected_unit_profit"`
}

// Address coordinates are nullable; a nil latitude or longitude means the location was never captured.
type Address struct {
	ID               string   `json:"id"`
	GeopoliticalZone string   `json:"geopolitical_zone"`
	Latitude         *float64 `json:"latitude"`
	Longitude        *float64 `json:"longitude"`
}

type LoanApplication struct {
	ID                      string  `json:"id"`
	FarmerID                string  `json:"farmer_id"`
	AmountRequested         float64 `json:"amount_requested"`
	ExistingLoans           bool    `json:"existing_loans"`
	TotalExistingLoanAmount float64 `json:"total_existing_loan_amount"`
	Status                  string  `json:"status"`
	CreatedAt               string  `json:"created_at,omitempty"`
}

type LoanContract struct {
	ID                string  `json:"id"`
	LoanApplicationID string  `json:"loan_application_id"`
	AmountDisbursed   float64 `json:"amount_disbursed"`
	InterestRate      float64 `json:"interest_rate"`
	CreatedAt         string  `json:"created_at,omitempty"`
}

type LoanRepayment struct {
	ID                      string  `json:"id"`
	LoanContractID          string  `json:"loan_contract_id"`
	PeriodicRepaymentAmount float64 `json:"periodic_repayment_amount"`
	InterestAmount          float64 `json:"interest_amount"`
	CreatedAt               string  `json:"created_at,omitempty"`
	DatePaid                string  `json:"date_paid,omitempty"`
	DueDate                 string  `json:"due_date,omitempty"`
}

// TransactionHistory.TransactionData holds either a JSON object or a JSON string that encodes one.
type TransactionHistory struct {
	ID              string          `json:"id"`
	FarmerID        string          `json:"farmer_id"`
	TransactionData json.RawMessage `json:"transaction_data,omitempty"`
	CreatedAt       string          `json:"created_at,omitempty"`
}

// WholeNumber is an integer field that also accepts whole-valued JSON numbers such as 40.0.
type WholeNumber int

func (n *WholeNumber) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil {
		return err
	}
	if f != math.Trunc(f) || math.Abs(f) > math.MaxInt32 {
		return fmt.Errorf("models: %s is not a whole number", data)
	}
	*n = WholeNumber(f)
	return nil
}
