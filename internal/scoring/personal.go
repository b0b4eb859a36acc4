package scoring

import (
	"strings"
	"time"

	"github.com/FarmCreditInc/FarmCreditAI/internal/models"
)

const maxPersonalDemographic = 100

var tenureBands = bandTable{
	{gte, 5, 25},
	{gte, 3, 20},
	{gte, 1, 15},
}

// educationLevels is checked in order; the first keyword found in the lower-cased text wins.
var educationLevels = []struct {
	keywords []string
	points   int
}{
	{[]string{"university", "degree"}, 20},
	{[]string{"college", "diploma"}, 15},
	{[]string{"secondary", "high school"}, 10},
}

func personalDemographicScore(p *models.FarmerProfile, now time.Time) int {
	score := ageScore(int(p.Farmer.Age))
	score += tenureBands.score(registrationYears(p.Farmer.CreatedAt, now), 5)
	score += educationScore(p.Farmer.HighestEducation)
	if len(p.NextOfKin) > 0 {
		score += 30
	}
	return capAt(score, maxPersonalDemographic)
}

func ageScore(age int) int {
	if age >= 30 && age <= 55 {
		return 25
	} else if age > 55 && age <= 65 {
		return 20
	} else if age > 18 && age < 30 {
		return 15
	}
	return 10
}

// registrationYears is 0 when the registration timestamp is missing or unparseable.
func registrationYears(createdAt string, now time.Time) float64 {
	registered, ok := parseTimestamp(createdAt)
	if !ok {
		return 0
	}
	return yearsSince(registered, now)
}

func educationScore(education string) int {
	education = strings.ToLower(education)
	for _, level := range educationLevels {
		for _, kw := range level.keywords {
			if strings.Contains(education, kw) {
				return level.points
			}
		}
	}
	return 5
}
