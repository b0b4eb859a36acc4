package scoring

import (
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/models"
)

const (
	maxAgriculturalFactors = 200
	maxProductionScore     = 40
	neutralAgricultural    = 50
)

var (
	farmSizeBands = bandTable{
		{gte, 10, 40},
		{gte, 5, 30},
		{gte, 2, 20},
		{gt, 0, 10},
	}
	cropDiversityBands = bandTable{
		{gte, 3, 40},
		{eq, 2, 30},
		{eq, 1, 20},
	}
	farmingTenureBands = bandTable{
		{gte, 10, 40},
		{gte, 5, 30},
		{gte, 2, 20},
		{gt, 0, 10},
	}
	harvestBands = bandTable{
		{gte, 10, 20},
		{gte, 5, 15},
		{gte, 2, 10},
		{gte, 1, 5},
	}
	unitProfitBands = bandTable{
		{gte, 1000, 40},
		{gte, 500, 30},
		{gte, 100, 20},
		{gt, 0, 10},
	}
)

func agriculturalFactorsScore(p *models.FarmerProfile, now time.Time) int {
	if len(p.Farms) == 0 {
		return neutralAgricultural
	}

	var totalSize float64
	for _, f := range p.Farms {
		totalSize += f.Size
	}

	score := farmSizeBands.score(totalSize, 0)
	score += cropDiversityBands.score(float64(distinctCropTypes(p.FarmProduction)), 0)
	score += farmingTenureBands.score(farmingYears(p.Farms, now), 0)
	score += productionScore(p.Farms, p.FarmProduction)
	score += profitMarginScore(p.FarmProduction)

	return capAt(score, maxAgriculturalFactors)
}

func distinctCropTypes(production []models.FarmProduction) int {
	types := make(map[string]struct{})
	for _, prod := range production {
		if prod.Type != "" {
			types[prod.Type] = struct{}{}
		}
	}
	return len(types)
}

// farmingYears measures calendar days between the earliest parseable start date and today.
func farmingYears(farms []models.Farm, now time.Time) float64 {
	var (
		earliest time.Time
		found    bool
	)
	for _, f := range farms {
		start, ok := parseTimestamp(f.StartDate)
		if !ok {
			continue
		}
		start = utcDate(start)
		if !found || start.Before(earliest) {
			earliest, found = start, true
		}
	}
	if !found {
		return 0
	}
	return yearsSince(earliest, utcDate(now))
}

func productionScore(farms []models.Farm, production []models.FarmProduction) int {
	harvests := 0
	for _, f := range farms {
		harvests += int(f.NumberOfHarvests)
	}
	score := harvestBands.score(float64(harvests), 0)

	if len(production) > 0 {
		var totalYield float64
		for _, prod := range production {
			totalYield += prod.ExpectedYield
		}
		if totalYield/float64(len(production)) > 0 {
			score += 20
		}
	}
	return capAt(score, maxProductionScore)
}

func profitMarginScore(production []models.FarmProduction) int {
	var (
		total float64
		n     int
	)
	for _, prod := range production {
		if prod.ExpectedUnitProfit > 0 {
			total += prod.ExpectedUnitProfit
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return unitProfitBands.score(total/float64(n), 0)
}
