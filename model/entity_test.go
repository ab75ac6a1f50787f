package model

import (
	"testing"
	"time"
)

func TestTTL(t *testing.T) {
	tests := []struct {
		entity   EntityType
		expected time.Duration
	}{
		{EntityRanking, 5 * time.Minute},
		{EntitySchedule, 15 * time.Minute},
		{EntityTasks, 10 * time.Minute},
		{EntityAchievements, 60 * time.Minute},
		{EntityStats, 30 * time.Minute},
	}

	for _, tc := range tests {
		if got := TTL(tc.entity); got != tc.expected {
			t.Errorf("TTL(%s) = %v, want %v", tc.entity, got, tc.expected)
		}
	}

	if got := TTL(EntityType("bogus")); got != 0 {
		t.Errorf("TTL(bogus) = %v, want 0", got)
	}
}

func TestParseEntityType(t *testing.T) {
	t.Run("parses all known types", func(t *testing.T) {
		for _, want := range EntityTypes() {
			got, err := ParseEntityType(string(want))
			if err != nil {
				t.Fatalf("unexpected error for %s: %v", want, err)
			}
			if got != want {
				t.Errorf("expected %s, got %s", want, got)
			}
		}
	})

	t.Run("rejects unknown type", func(t *testing.T) {
		if _, err := ParseEntityType("leaderboard"); err == nil {
			t.Error("expected error for unknown entity type")
		}
	})
}

func TestEntityTypesCount(t *testing.T) {
	if len(EntityTypes()) != 5 {
		t.Fatalf("expected 5 entity types, got %d", len(EntityTypes()))
	}
	for _, et := range EntityTypes() {
		if !et.Valid() {
			t.Errorf("entity type %s should be valid", et)
		}
	}
}
