package collect

import (
	"sort"

	"premarket-brief/internal/domain/entity"
	"premarket-brief/pkg/config"
)

// minSectorsForRotation is the smallest resolved-sector count worth ranking.
const minSectorsForRotation = 3

// buildRotation ranks the resolved sectors and classifies the dispersion of
// their weekly returns. Leaders are the top three by weekly return; laggards
// are the bottom three, shrunk so the two sets never overlap (bottom two when
// fewer than five sectors resolved). Ties break on sector name so repeated
// runs over identical data rank identically.
func buildRotation(snapshots map[string]entity.SectorSnapshot, th config.Thresholds) entity.SectorRotation {
	if len(snapshots) == 0 {
		return entity.EmptySectorRotation()
	}

	names := make([]string, 0, len(snapshots))
	for name := range snapshots {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		a, b := snapshots[names[i]], snapshots[names[j]]
		if a.WeeklyReturn != b.WeeklyReturn {
			return a.WeeklyReturn > b.WeeklyReturn
		}
		return names[i] < names[j]
	})

	leaderCount := len(names)
	if leaderCount > 3 {
		leaderCount = 3
	}
	laggardCount := len(names) - leaderCount
	if laggardCount > 3 {
		laggardCount = 3
	}

	rotation := entity.SectorRotation{
		WeeklyPerformance: snapshots,
		Leaders:           append([]string{}, names[:leaderCount]...),
		Laggards:          []string{},
	}
	// Laggards run worst-first.
	for i := len(names) - 1; i >= len(names)-laggardCount; i-- {
		rotation.Laggards = append(rotation.Laggards, names[i])
	}

	rotation.Strength = classifyStrength(rotation.Spread(), th)
	return rotation
}

// classifyStrength buckets the max-minus-min weekly return spread.
func classifyStrength(spread float64, th config.Thresholds) entity.RotationStrength {
	switch {
	case spread > th.RotationStrong:
		return entity.RotationStrong
	case spread > th.RotationModerate:
		return entity.RotationModerate
	default:
		return entity.RotationWeak
	}
}
