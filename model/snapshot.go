package model

import "time"

// Snapshot is the merged dashboard view model for one subject. Each entity
// holds the most recent successfully obtained value; a failed fetch never
// clears or downgrades an entity.
type Snapshot struct {
	Ranking      *Ranking         `json:"ranking,omitempty"`
	Schedule     *Schedule        `json:"schedule,omitempty"`
	Tasks        *TaskList        `json:"tasks,omitempty"`
	Achievements *AchievementList `json:"achievements,omitempty"`
	Stats        *WeeklyStats     `json:"stats,omitempty"`

	// LastUpdated is the time of the last completed fetch cycle.
	LastUpdated time.Time `json:"last_updated,omitzero"`

	// SessionKey identifies the fetch cycle that produced the last merge.
	SessionKey string `json:"session_key,omitempty"`
}

// Apply merges a payload into the snapshot, replacing that entity's value.
func (s *Snapshot) Apply(p Payload) {
	switch v := p.(type) {
	case Ranking:
		s.Ranking = &v
	case *Ranking:
		s.Ranking = v
	case Schedule:
		s.Schedule = &v
	case *Schedule:
		s.Schedule = v
	case TaskList:
		s.Tasks = &v
	case *TaskList:
		s.Tasks = v
	case AchievementList:
		s.Achievements = &v
	case *AchievementList:
		s.Achievements = v
	case WeeklyStats:
		s.Stats = &v
	case *WeeklyStats:
		s.Stats = v
	}
}

// Get returns the current value for an entity type, or false when the
// snapshot has never held one.
func (s *Snapshot) Get(t EntityType) (Payload, bool) {
	switch t {
	case EntityRanking:
		if s.Ranking != nil {
			return *s.Ranking, true
		}
	case EntitySchedule:
		if s.Schedule != nil {
			return *s.Schedule, true
		}
	case EntityTasks:
		if s.Tasks != nil {
			return *s.Tasks, true
		}
	case EntityAchievements:
		if s.Achievements != nil {
			return *s.Achievements, true
		}
	case EntityStats:
		if s.Stats != nil {
			return *s.Stats, true
		}
	}
	return nil, false
}

// Clone returns a copy of the snapshot safe to hand to subscribers. Payload
// pointers are duplicated so later merges don't mutate published views.
func (s *Snapshot) Clone() Snapshot {
	out := Snapshot{
		LastUpdated: s.LastUpdated,
		SessionKey:  s.SessionKey,
	}
	if s.Ranking != nil {
		v := *s.Ranking
		out.Ranking = &v
	}
	if s.Schedule != nil {
		v := *s.Schedule
		out.Schedule = &v
	}
	if s.Tasks != nil {
		v := *s.Tasks
		out.Tasks = &v
	}
	if s.Achievements != nil {
		v := *s.Achievements
		out.Achievements = &v
	}
	if s.Stats != nil {
		v := *s.Stats
		out.Stats = &v
	}
	return out
}
