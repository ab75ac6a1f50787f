// Package model defines the dashboard domain: entity types, typed payloads,
// user segments with their priority orderings, and the merged snapshot.
package model

import (
	"fmt"
	"time"
)

// EntityType identifies one of the five independent dashboard data categories.
type EntityType string

const (
	EntityRanking      EntityType = "ranking"
	EntitySchedule     EntityType = "schedule"
	EntityTasks        EntityType = "tasks"
	EntityAchievements EntityType = "achievements"
	EntityStats        EntityType = "stats"
)

// EntityTypes returns all entity types in declaration order.
// This is an enumeration order, not a priority order; see PriorityOrder.
func EntityTypes() []EntityType {
	return []EntityType{
		EntityRanking,
		EntitySchedule,
		EntityTasks,
		EntityAchievements,
		EntityStats,
	}
}

// ttls holds the cache validity duration per entity type.
var ttls = map[EntityType]time.Duration{
	EntityRanking:      5 * time.Minute,
	EntitySchedule:     15 * time.Minute,
	EntityTasks:        10 * time.Minute,
	EntityAchievements: 60 * time.Minute,
	EntityStats:        30 * time.Minute,
}

// TTL returns the cache time-to-live for the given entity type.
// Unknown entity types get zero, which callers treat as "always expired".
func TTL(t EntityType) time.Duration {
	return ttls[t]
}

// Valid reports whether t is one of the known entity types.
func (t EntityType) Valid() bool {
	_, ok := ttls[t]
	return ok
}

// ParseEntityType parses a string into an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	t := EntityType(s)
	if !t.Valid() {
		return "", fmt.Errorf("unknown entity type: %s", s)
	}
	return t, nil
}
