package scoring

// op is the comparison a band applies to its limit.
type op int

const (
	gte op = iota
	gt
	lte
	eq
)

// band awards points when a value satisfies op against limit.
type band struct {
	op     op
	limit  float64
	points int
}

func (b band) matches(v float64) bool {
	switch b.op {
	case gte:
		return v >= b.limit
	case gt:
		return v > b.limit
	case lte:
		return v <= b.limit
	case eq:
		return v == b.limit
	}
	return false
}

// bandTable is evaluated top-down; the first matching band wins.
type bandTable []band

func (t bandTable) score(v float64, fallback int) int {
	for _, b := range t {
		if b.matches(v) {
			return b.points
		}
	}
	return fallback
}

func capAt(score, max int) int {
	if score > max {
		return max
	}
	if score < 0 {
		return 0
	}
	return score
}
