package model

import "testing"

func TestPriorityOrder(t *testing.T) {
	t.Run("explorer leads with ranking and achievements", func(t *testing.T) {
		order := PriorityOrder(SegmentExplorer)
		if order[0] != EntityRanking || order[1] != EntityAchievements {
			t.Errorf("unexpected explorer order: %v", order)
		}
	})

	t.Run("scholar leads with schedule and tasks", func(t *testing.T) {
		order := PriorityOrder(SegmentScholar)
		if order[0] != EntitySchedule || order[1] != EntityTasks {
			t.Errorf("unexpected scholar order: %v", order)
		}
	})

	t.Run("every order covers all entity types exactly once", func(t *testing.T) {
		for _, seg := range []Segment{SegmentExplorer, SegmentScholar} {
			order := PriorityOrder(seg)
			if len(order) != len(EntityTypes()) {
				t.Fatalf("%s: expected %d entries, got %d", seg, len(EntityTypes()), len(order))
			}
			seen := make(map[EntityType]bool)
			for _, et := range order {
				if seen[et] {
					t.Errorf("%s: duplicate entity %s", seg, et)
				}
				seen[et] = true
			}
		}
	})

	t.Run("unknown segment falls back to explorer order", func(t *testing.T) {
		fallback := PriorityOrder(Segment("other"))
		explorer := PriorityOrder(SegmentExplorer)
		for i := range explorer {
			if fallback[i] != explorer[i] {
				t.Fatalf("fallback order diverges at %d: %v", i, fallback)
			}
		}
	})
}

func TestParseSegment(t *testing.T) {
	if _, err := ParseSegment("explorer"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseSegment("scholar"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if _, err := ParseSegment("adult"); err == nil {
		t.Error("expected error for unknown segment")
	}
}
