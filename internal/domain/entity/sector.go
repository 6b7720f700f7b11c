package entity

// RotationStrength classifies how dispersed sector weekly returns are.
type RotationStrength string

const (
	RotationWeak     RotationStrength = "weak"
	RotationModerate RotationStrength = "moderate"
	RotationStrong   RotationStrength = "strong"
	RotationUnknown  RotationStrength = "unknown"
)

// SectorSnapshot is one sector's performance over a 5-trading-day window.
type SectorSnapshot struct {
	Sector       string  `json:"sector"`
	Symbol       string  `json:"symbol"`
	WeeklyReturn float64 `json:"weekly_return"`
	CurrentPrice float64 `json:"current_price"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
}

// SectorRotation is the derived rotation aggregate. Leaders and Laggards are
// disjoint subsets of the WeeklyPerformance keys, ordered by weekly return
// descending and ascending respectively.
type SectorRotation struct {
	WeeklyPerformance map[string]SectorSnapshot `json:"weekly_performance"`
	Leaders           []string                  `json:"leaders"`
	Laggards          []string                  `json:"laggards"`
	Strength          RotationStrength          `json:"rotation_strength"`
}

// EmptySectorRotation is the capability's documented empty representation,
// returned when no source yields usable sector data.
func EmptySectorRotation() SectorRotation {
	return SectorRotation{
		WeeklyPerformance: map[string]SectorSnapshot{},
		Leaders:           []string{},
		Laggards:          []string{},
		Strength:          RotationUnknown,
	}
}

// Spread returns max weekly return minus min weekly return across all
// sectors, or 0 when fewer than one sector resolved.
func (r SectorRotation) Spread() float64 {
	first := true
	var min, max float64
	for _, s := range r.WeeklyPerformance {
		if first {
			min, max = s.WeeklyReturn, s.WeeklyReturn
			first = false
			continue
		}
		if s.WeeklyReturn < min {
			min = s.WeeklyReturn
		}
		if s.WeeklyReturn > max {
			max = s.WeeklyReturn
		}
	}
	if first {
		return 0
	}
	return max - min
}
