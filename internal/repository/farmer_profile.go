package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/common/errors"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/logger"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/metrics"
	"github.com/FarmCreditInc/FarmCreditAI/internal/models"

	"github.com/lib/pq"
	"github.com/redis/go-redis/v9"
)

const profileCachePrefix = "farmer:profile:"

// ProfileLoader is what the worker and the API need from the repository.
type ProfileLoader interface {
	Load(ctx context.Context, farmerID string) (*models.FarmerProfile, error)
}

// FarmerProfileRepository assembles a FarmerProfile from the farmer tables with an optional
// read-through Redis cache.
type FarmerProfileRepository struct {
	db       *sql.DB
	cache    *redis.Client
	cacheTTL time.Duration
	logger   logger.Logger
}

// NewFarmerProfileRepository accepts a nil cache, which disables caching.
func NewFarmerProfileRepository(db *sql.DB, cache *redis.Client, cacheTTL time.Duration, log logger.Logger) *FarmerProfileRepository {
	return &FarmerProfileRepository{
		db:       db,
		cache:    cache,
		cacheTTL: cacheTTL,
		logger:   log.WithFields(map[string]interface{}{"component": "profile-repository"}),
	}
}

func CacheKey(farmerID string) string {
	return profileCachePrefix + farmerID
}

// Load returns PROFILE_NOT_FOUND when the farmer row does not exist. Cache failures are logged and
// never fail the load.
func (r *FarmerProfileRepository) Load(ctx context.Context, farmerID string) (*models.FarmerProfile, error) {
	if profile := r.fromCache(ctx, farmerID); profile != nil {
		return profile, nil
	}

	profile, err := r.query(ctx, farmerID)
	if err != nil {
		return nil, err
	}

	r.store(ctx, farmerID, profile)
	return profile, nil
}

// Invalidate drops the cached profile so the next Load reads the database.
func (r *FarmerProfileRepository) Invalidate(ctx context.Context, farmerID string) error {
	if r.cache == nil {
		return nil
	}
	return r.cache.Del(ctx, CacheKey(farmerID)).Err()
}

func (r *FarmerProfileRepository) fromCache(ctx context.Context, farmerID string) *models.FarmerProfile {
	if r.cache == nil {
		return nil
	}

	val, err := r.cache.Get(ctx, CacheKey(farmerID)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			metrics.ProfileCacheLookups.WithLabelValues("miss").Inc()
		} else {
			metrics.ProfileCacheLookups.WithLabelValues("error").Inc()
			r.logger.Warn("profile cache read failed", map[string]interface{}{
				"farmerId": farmerID,
				"error":    err.Error(),
			})
		}
		return nil
	}

	var profile models.FarmerProfile
	if err := json.Unmarshal(val, &profile); err != nil {
		metrics.ProfileCacheLookups.WithLabelValues("error").Inc()
		r.logger.Warn("discarding undecodable cached profile", map[string]interface{}{
			"farmerId": farmerID,
			"error":    err.Error(),
		})
		return nil
	}

	metrics.ProfileCacheLookups.WithLabelValues("hit").Inc()
	return &profile
}

func (r *FarmerProfileRepository) store(ctx context.Context, farmerID string, profile *models.FarmerProfile) {
	if r.cache == nil {
		return
	}
	data, err := json.Marshal(profile)
	if err != nil {
		r.logger.Warn("profile cache encode failed", map[string]interface{}{
			"farmerId": farmerID,
			"error":    err.Error(),
		})
		return
	}
	if err := r.cache.Set(ctx, CacheKey(farmerID), data, r.cacheTTL).Err(); err != nil {
		r.logger.Warn("profile cache write failed", map[string]interface{}{
			"farmerId": farmerID,
			"error":    err.Error(),
		})
	}
}

func (r *FarmerProfileRepository) query(ctx context.Context, farmerID string) (*models.FarmerProfile, error) {
	farmer, err := r.loadFarmer(ctx, farmerID)
	if err != nil {
		return nil, err
	}

	profile := &models.FarmerProfile{Farmer: *farmer}

	if profile.NextOfKin, err = r.loadNextOfKin(ctx, farmerID); err != nil {
		return nil, err
	}
	if profile.Farms, err = r.loadFarms(ctx, farmerID); err != nil {
		return nil, err
	}

	farmIDs := make([]string, 0, len(profile.Farms))
	addressIDs := make([]string, 0, len(profile.Farms)+1)
	if farmer.AddressID != "" {
		addressIDs = append(addressIDs, farmer.AddressID)
	}
	for _, f := range profile.Farms {
		farmIDs = append(farmIDs, f.ID)
		if f.AddressID != "" {
			addressIDs = append(addressIDs, f.AddressID)
		}
	}

	if profile.FarmProduction, err = r.loadFarmProduction(ctx, farmIDs); err != nil {
		return nil, err
	}
	if profile.Addresses, err = r.loadAddresses(ctx, addressIDs); err != nil {
		return nil, err
	}
	if profile.LoanApplications, err = r.loadLoanApplications(ctx, farmerID); err != nil {
		return nil, err
	}

	applicationIDs := make([]string, 0, len(profile.LoanApplications))
	for _, a := range profile.LoanApplications {
		applicationIDs = append(applicationIDs, a.ID)
	}
	if profile.LoanContracts, err = r.loadLoanContracts(ctx, applicationIDs); err != nil {
		return nil, err
	}

	contractIDs := make([]string, 0, len(profile.LoanContracts))
	for _, c := range profile.LoanContracts {
		contractIDs = append(contractIDs, c.ID)
	}
	if profile.LoanRepayments, err = r.loadLoanRepayments(ctx, contractIDs); err != nil {
		return nil, err
	}
	if profile.TransactionHistory, err = r.loadTransactions(ctx, farmerID); err != nil {
		return nil, err
	}

	r.logger.Debug("profile loaded from database", map[string]interface{}{
		"farmerId":     farmerID,
		"farms":        len(profile.Farms),
		"contracts":    len(profile.LoanContracts),
		"transactions": len(profile.TransactionHistory),
	})

	return profile, nil
}

func (r *FarmerProfileRepository) loadFarmer(ctx context.Context, farmerID string) (*models.Farmer, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, age, created_at, highest_education, gender, mobile_wallet_balance,
		       bvn, other_sources_of_income, address_id
		FROM farmers WHERE id = $1`, farmerID)

	var (
		f                                         models.Farmer
		age                                       sql.NullInt64
		wallet                                    sql.NullFloat64
		createdAt, education, gender, bvn, income sql.NullString
		addressID                                 sql.NullString
	)
	err := row.Scan(&f.ID, &age, &createdAt, &education, &gender, &wallet, &bvn, &income, &addressID)
	if err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, errors.NewProfileNotFoundError(farmerID)
		}
		return nil, queryError("farmers", err)
	}

	f.Age = models.WholeNumber(age.Int64)
	f.CreatedAt = createdAt.String
	f.HighestEducation = education.String
	f.Gender = gender.String
	f.MobileWalletBalance = wallet.Float64
	f.BVN = bvn.String
	f.OtherSourcesOfIncome = income.String
	f.AddressID = addressID.String
	return &f, nil
}

func (r *FarmerProfileRepository) loadNextOfKin(ctx context.Context, farmerID string) ([]models.NextOfKin, error) {
	var out []models.NextOfKin
	err := r.queryRows(ctx, "farmer_next_of_kin", `
		SELECT id, farmer_id, full_name FROM farmer_next_of_kin WHERE farmer_id = $1`,
		func(rows *sql.Rows) error {
			var (
				n    models.NextOfKin
				name sql.NullString
			)
			if err := rows.Scan(&n.ID, &n.FarmerID, &name); err != nil {
				return err
			}
			n.FullName = name.String
			out = append(out, n)
			return nil
		}, farmerID)
	return out, err
}

func (r *FarmerProfileRepository) loadFarms(ctx context.Context, farmerID string) ([]models.Farm, error) {
	var out []models.Farm
	err := r.queryRows(ctx, "farms", `
		SELECT id, farmer_id, size, start_date, number_of_harvests, address_id
		FROM farms WHERE farmer_id = $1 ORDER BY start_date`,
		func(rows *sql.Rows) error {
			var (
				f                    models.Farm
				size                 sql.NullFloat64
				startDate, addressID sql.NullString
				harvests             sql.NullInt64
			)
			if err := rows.Scan(&f.ID, &f.FarmerID, &size, &startDate, &harvests, &addressID); err != nil {
				return err
			}
			f.Size = size.Float64
			f.StartDate = startDate.String
			f.NumberOfHarvests = models.WholeNumber(harvests.Int64)
			f.AddressID = addressID.String
			out = append(out, f)
			return nil
		}, farmerID)
	return out, err
}

func (r *FarmerProfileRepository) loadFarmProduction(ctx context.Context, farmIDs []string) ([]models.FarmProduction, error) {
	if len(farmIDs) == 0 {
		return nil, nil
	}
	var out []models.FarmProduction
	err := r.queryRows(ctx, "farm_production", `
		SELECT id, farm_id, type, expected_yield, expected_unit_profit
		FROM farm_production WHERE farm_id = ANY($1)`,
		func(rows *sql.Rows) error {
			var (
				p             models.FarmProduction
				cropType      sql.NullString
				yield, profit sql.NullFloat64
			)
			if err := rows.Scan(&p.ID, &p.FarmID, &cropType, &yield, &profit); err != nil {
				return err
			}
			p.Type = cropType.String
			p.ExpectedYield = yield.Float64
			p.ExpectedUnitProfit = profit.Float64
			out = append(out, p)
			return nil
		}, pq.Array(farmIDs))
	return out, err
}

func (r *FarmerProfileRepository) loadAddresses(ctx context.Context, addressIDs []string) ([]models.Address, error) {
	if len(addressIDs) == 0 {
		return nil, nil
	}
	var out []models.Address
	err := r.queryRows(ctx, "address", `
		SELECT id, geopolitical_zone, latitude, longitude
		FROM address WHERE id = ANY($1)`,
		func(rows *sql.Rows) error {
			var (
				a        models.Address
				zone     sql.NullString
				lat, lng sql.NullFloat64
			)
			if err := rows.Scan(&a.ID, &zone, &lat, &lng); err != nil {
				return err
			}
			a.GeopoliticalZone = zone.String
			if lat.Valid {
				a.Latitude = &lat.Float64
			}
			if lng.Valid {
				a.Longitude = &lng.Float64
			}
			out = append(out, a)
			return nil
		}, pq.Array(addressIDs))
	return out, err
}

func (r *FarmerProfileRepository) loadLoanApplications(ctx context.Context, farmerID string) ([]models.LoanApplication, error) {
	var out []models.LoanApplication
	err := r.queryRows(ctx, "loan_application", `
		SELECT id, farmer_id, amount_requested, existing_loans, total_existing_loan_amount, status, created_at
		FROM loan_application WHERE farmer_id = $1 ORDER BY created_at`,
		func(rows *sql.Rows) error {
			var (
				a                 models.LoanApplication
				requested, total  sql.NullFloat64
				existing          sql.NullBool
				status, createdAt sql.NullString
			)
			if err := rows.Scan(&a.ID, &a.FarmerID, &requested, &existing, &total, &status, &createdAt); err != nil {
				return err
			}
			a.AmountRequested = requested.Float64
			a.ExistingLoans = existing.Bool
			a.TotalExistingLoanAmount = total.Float64
			a.Status = status.String
			a.CreatedAt = createdAt.String
			out = append(out, a)
			return nil
		}, farmerID)
	return out, err
}

func (r *FarmerProfileRepository) loadLoanContracts(ctx context.Context, applicationIDs []string) ([]models.LoanContract, error) {
	if len(applicationIDs) == 0 {
		return nil, nil
	}
	var out []models.LoanContract
	err := r.queryRows(ctx, "loan_contract", `
		SELECT id, loan_application_id, amount_disbursed, interest_rate, created_at
		FROM loan_contract WHERE loan_application_id = ANY($1)`,
		func(rows *sql.Rows) error {
			var (
				c               models.LoanContract
				disbursed, rate sql.NullFloat64
				createdAt       sql.NullString
			)
			if err := rows.Scan(&c.ID, &c.LoanApplicationID, &disbursed, &rate, &createdAt); err != nil {
				return err
			}
			c.AmountDisbursed = disbursed.Float64
			c.InterestRate = rate.Float64
			c.CreatedAt = createdAt.String
			out = append(out, c)
			return nil
		}, pq.Array(applicationIDs))
	return out, err
}

func (r *FarmerProfileRepository) loadLoanRepayments(ctx context.Context, contractIDs []string) ([]models.LoanRepayment, error) {
	if len(contractIDs) == 0 {
		return nil, nil
	}
	var out []models.LoanRepayment
	err := r.queryRows(ctx, "loan_repayments", `
		SELECT id, loan_contract_id, periodic_repayment_amount, interest_amount, created_at, date_paid, due_date
		FROM loan_repayments WHERE loan_contract_id = ANY($1) ORDER BY due_date`,
		func(rows *sql.Rows) error {
			var (
				rp                           models.LoanRepayment
				amount, interest             sql.NullFloat64
				createdAt, datePaid, dueDate sql.NullString
			)
			if err := rows.Scan(&rp.ID, &rp.LoanContractID, &amount, &interest, &createdAt, &datePaid, &dueDate); err != nil {
				return err
			}
			rp.PeriodicRepaymentAmount = amount.Float64
			rp.InterestAmount = interest.Float64
			rp.CreatedAt = createdAt.String
			rp.DatePaid = datePaid.String
			rp.DueDate = dueDate.String
			out = append(out, rp)
			return nil
		}, pq.Array(contractIDs))
	return out, err
}

func (r *FarmerProfileRepository) loadTransactions(ctx context.Context, farmerID string) ([]models.TransactionHistory, error) {
	var out []models.TransactionHistory
	err := r.queryRows(ctx, "transaction_history", `
		SELECT id, farmer_id, transaction_data, created_at
		FROM transaction_history WHERE farmer_id = $1 ORDER BY created_at DESC`,
		func(rows *sql.Rows) error {
			var (
				tx        models.TransactionHistory
				data      []byte
				createdAt sql.NullString
			)
			if err := rows.Scan(&tx.ID, &tx.FarmerID, &data, &createdAt); err != nil {
				return err
			}
			if len(data) > 0 {
				tx.TransactionData = json.RawMessage(append([]byte(nil), data...))
			}
			tx.CreatedAt = createdAt.String
			out = append(out, tx)
			return nil
		}, farmerID)
	return out, err
}

func (r *FarmerProfileRepository) queryRows(ctx context.Context, table, query string, scan func(*sql.Rows) error, args ...interface{}) error {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return queryError(table, err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return queryError(table, fmt.Errorf("scan: %w", err))
		}
	}
	if err := rows.Err(); err != nil {
		return queryError(table, err)
	}
	return nil
}

func queryError(table string, err error) error {
	if stderrors.Is(err, context.DeadlineExceeded) {
		return errors.NewQueryTimeoutError(table)
	}
	return errors.NewQueryExecutionFailedError(table, err)
}
