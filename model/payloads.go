package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// Payload is implemented by every typed dashboard payload.
type Payload interface {
	EntityType() EntityType
}

// Ranking is the subject's position in their current league.
type Ranking struct {
	Points     int    `json:"points"`
	Position   int    `json:"position"`
	League     string `json:"league"`
	CohortSize int    `json:"cohort_size"`
}

// EntityType implements Payload.
func (Ranking) EntityType() EntityType { return EntityRanking }

// ScheduleSlot is a single planned lesson or activity.
type ScheduleSlot struct {
	Subject  string    `json:"subject"`
	StartsAt time.Time `json:"starts_at"`
	Duration int       `json:"duration_minutes"`
	Done     bool      `json:"done"`
}

// Schedule is the subject's upcoming lesson plan.
type Schedule struct {
	Day   string         `json:"day"`
	Slots []ScheduleSlot `json:"slots"`
}

// EntityType implements Payload.
func (Schedule) EntityType() EntityType { return EntitySchedule }

// TaskItem is one pending exercise or assignment.
type TaskItem struct {
	ID      string     `json:"id"`
	Title   string     `json:"title"`
	Subject string     `json:"subject"`
	DueAt   *time.Time `json:"due_at,omitempty"`
}

// TaskList is the subject's pending work.
type TaskList struct {
	Items []TaskItem `json:"items"`
}

// EntityType implements Payload.
func (TaskList) EntityType() EntityType { return EntityTasks }

// Achievement is a single earned or in-progress badge.
type Achievement struct {
	ID       string     `json:"id"`
	Name     string     `json:"name"`
	Progress float64    `json:"progress"` // 0.0 to 1.0
	EarnedAt *time.Time `json:"earned_at,omitempty"`
}

// AchievementList is the subject's badge collection.
type AchievementList struct {
	Badges []Achievement `json:"badges"`
}

// EntityType implements Payload.
func (AchievementList) EntityType() EntityType { return EntityAchievements }

// DayStat is one day's activity summary.
type DayStat struct {
	Date      string `json:"date"` // YYYY-MM-DD
	Minutes   int    `json:"minutes"`
	Exercises int    `json:"exercises"`
}

// WeeklyStats is the subject's activity over the trailing week.
type WeeklyStats struct {
	Days      []DayStat `json:"days"`
	Streak    int       `json:"streak"`
	GoalMet   bool      `json:"goal_met"`
	GoalRatio float64   `json:"goal_ratio"`
}

// EntityType implements Payload.
func (WeeklyStats) EntityType() EntityType { return EntityStats }

// DecodePayload unmarshals raw JSON into the typed payload for the given
// entity type.
func DecodePayload(t EntityType, raw []byte) (Payload, error) {
	var (
		p   Payload
		err error
	)
	switch t {
	case EntityRanking:
		var v Ranking
		err = json.Unmarshal(raw, &v)
		p = v
	case EntitySchedule:
		var v Schedule
		err = json.Unmarshal(raw, &v)
		p = v
	case EntityTasks:
		var v TaskList
		err = json.Unmarshal(raw, &v)
		p = v
	case EntityAchievements:
		var v AchievementList
		err = json.Unmarshal(raw, &v)
		p = v
	case EntityStats:
		var v WeeklyStats
		err = json.Unmarshal(raw, &v)
		p = v
	default:
		return nil, fmt.Errorf("unknown entity type: %s", t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return p, nil
}
