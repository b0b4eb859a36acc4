package scoring

import (
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/models"
)

const (
	maxLoanHistory      = 250
	maxRepaymentScore   = 150
	neutralRepayment    = 75
	neutralDebtLoad     = 50
	approvedApplication = "approved"
)

var (
	onTimeRatioBands = bandTable{
		{gte, 0.95, 60},
		{gte, 0.9, 50},
		{gte, 0.8, 40},
		{gte, 0.7, 30},
		{gte, 0.6, 20},
	}
	daysLateBands = bandTable{
		{lte, 0, 40},
		{lte, 3, 30},
		{lte, 7, 20},
		{lte, 14, 10},
	}
	fullyRepaidBands = bandTable{
		{gte, 3, 50},
		{eq, 2, 40},
		{eq, 1, 30},
	}
	existingDebtBands = bandTable{
		{lte, 10000, 80},
		{lte, 50000, 60},
		{lte, 100000, 40},
		{lte, 200000, 20},
	}
)

func loanHistoryScore(p *models.FarmerProfile) int {
	score := neutralRepayment
	if len(p.LoanContracts) > 0 {
		score = repaymentScore(p.LoanContracts, p.LoanRepayments)
	}
	score += debtLoadScore(p.LoanApplications)
	return capAt(score, maxLoanHistory)
}

// repaymentTally accumulates repayment outcomes across all contracts.
type repaymentTally struct {
	onTime      int
	total       int
	daysLate    int
	fullyRepaid int
}

// repaymentScore returns the neutral 75 when no repayment can be matched to a contract.
func repaymentScore(contracts []models.LoanContract, repayments []models.LoanRepayment) int {
	if len(repayments) == 0 {
		return neutralRepayment
	}

	byContract := make(map[string][]models.LoanRepayment)
	for _, r := range repayments {
		if r.LoanContractID != "" {
			byContract[r.LoanContractID] = append(byContract[r.LoanContractID], r)
		}
	}

	var tally repaymentTally
	for _, c := range contracts {
		if c.ID == "" {
			continue
		}
		if rs, ok := byContract[c.ID]; ok {
			tally.addContract(rs)
		}
	}

	if tally.total == 0 {
		return neutralRepayment
	}

	ratio := float64(tally.onTime) / float64(tally.total)
	avgDaysLate := float64(tally.daysLate) / float64(tally.total)

	score := onTimeRatioBands.score(ratio, 10)
	score += daysLateBands.score(avgDaysLate, 0)
	score += fullyRepaidBands.score(float64(tally.fullyRepaid), 15)
	return capAt(score, maxRepaymentScore)
}

// addContract counts every repayment of a contract. A repayment missing either date still counts
// toward the total but keeps the contract from being fully repaid.
func (t *repaymentTally) addContract(rs []models.LoanRepayment) {
	allPaid := true
	for _, r := range rs {
		due, okDue := parseTimestamp(r.DueDate)
		paid, okPaid := parseTimestamp(r.DatePaid)
		if !okDue || !okPaid {
			allPaid = false
			continue
		}
		if !paid.After(due) {
			t.onTime++
		} else {
			t.daysLate += wholeDays(due, paid)
		}
	}

	t.total += len(rs)
	if allPaid && len(rs) > 0 {
		t.fullyRepaid++
	}
}

func debtLoadScore(apps []models.LoanApplication) int {
	latest := latestApproved(apps)
	if latest == nil {
		return neutralDebtLoad
	}
	if !latest.ExistingLoans {
		return 100
	}
	return existingDebtBands.score(latest.TotalExistingLoanAmount, 0)
}

// latestApproved picks the newest approved application. A later candidate replaces the current
// pick only when both timestamps parse and it is strictly newer.
func latestApproved(apps []models.LoanApplication) *models.LoanApplication {
	var (
		latest   *models.LoanApplication
		latestAt time.Time
		latestOK bool
	)
	for i := range apps {
		app := &apps[i]
		if app.Status != approvedApplication {
			continue
		}
		at, ok := parseTimestamp(app.CreatedAt)
		if latest == nil {
			latest, latestAt, latestOK = app, at, ok
			continue
		}
		if ok && latestOK && at.After(latestAt) {
			latest, latestAt = app, at
		}
	}
	return latest
}
