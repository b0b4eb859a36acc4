package scoring

import (
	"strings"

	"github.com/FarmCreditInc/FarmCreditAI/internal/models"

	"github.com/shopspring/decimal"
)

const (
	maxGeographical     = 100
	neutralGeographical = 50
	unknownZoneRisk     = 30
)

// zoneRisk awards points per geopolitical zone; lower means riskier.
var zoneRisk = map[string]int{
	"north central": 45,
	"north east":    30,
	"north west":    40,
	"south east":    50,
	"south south":   50,
	"south west":    60,
}

func geographicalScore(p *models.FarmerProfile) int {
	addresses := referencedAddresses(p)
	if len(addresses) == 0 {
		return neutralGeographical
	}

	score := locationRisk(addresses)
	if anyHasCoordinates(addresses) {
		score += 40
	} else {
		score += 20
	}
	return capAt(score, maxGeographical)
}

// referencedAddresses resolves the farmer's address followed by each farm's, first match per id.
func referencedAddresses(p *models.FarmerProfile) []models.Address {
	var out []models.Address
	if addr, ok := findAddress(p.Addresses, p.Farmer.AddressID); ok {
		out = append(out, addr)
	}
	for _, f := range p.Farms {
		if addr, ok := findAddress(p.Addresses, f.AddressID); ok {
			out = append(out, addr)
		}
	}
	return out
}

func findAddress(addresses []models.Address, id string) (models.Address, bool) {
	if id == "" {
		return models.Address{}, false
	}
	for _, a := range addresses {
		if a.ID == id {
			return a, true
		}
	}
	return models.Address{}, false
}

// locationRisk is the mean zone risk over known zones, rounded half to even.
func locationRisk(addresses []models.Address) int {
	sum, n := 0, 0
	for _, a := range addresses {
		if risk, ok := zoneRisk[strings.ToLower(strings.TrimSpace(a.GeopoliticalZone))]; ok {
			sum += risk
			n++
		}
	}
	if n == 0 {
		return unknownZoneRisk
	}
	mean := decimal.NewFromInt(int64(sum)).Div(decimal.NewFromInt(int64(n)))
	return int(mean.RoundBank(0).IntPart())
}

func anyHasCoordinates(addresses []models.Address) bool {
	for _, a := range addresses {
		if a.Latitude != nil && a.Longitude != nil {
			return true
		}
	}
	return false
}
