package model

import "fmt"

// Segment is the product-defined user bracket that decides which dashboard
// widgets matter most. Exactly two segments exist.
type Segment string

const (
	// SegmentExplorer is the game/reward-oriented bracket: ranking and
	// badges lead the dashboard.
	SegmentExplorer Segment = "explorer"

	// SegmentScholar is the productivity-oriented bracket: today's plan and
	// pending work lead the dashboard.
	SegmentScholar Segment = "scholar"
)

// ParseSegment parses a string into a Segment.
func ParseSegment(s string) (Segment, error) {
	switch Segment(s) {
	case SegmentExplorer:
		return SegmentExplorer, nil
	case SegmentScholar:
		return SegmentScholar, nil
	default:
		return "", fmt.Errorf("unknown segment: %s", s)
	}
}

// PriorityOrder returns the fixed entity ordering for a segment. The order
// controls both cache hydration sequence and the sequence in which fetched
// results are merged and published; it does not affect fetch issuance, which
// is always concurrent. Unknown segments fall back to the explorer ordering.
func PriorityOrder(s Segment) []EntityType {
	switch s {
	case SegmentScholar:
		return []EntityType{
			EntitySchedule,
			EntityTasks,
			EntityStats,
			EntityRanking,
			EntityAchievements,
		}
	default:
		return []EntityType{
			EntityRanking,
			EntityAchievements,
			EntityTasks,
			EntitySchedule,
			EntityStats,
		}
	}
}
