package model

import "time"

type ChoreType string

const (
	ChoreOneTime ChoreType = "ONE_TIME"
	ChoreDaily   ChoreType = "DAILY"
	ChoreWeekly  ChoreType = "WEEKLY"
)

func (t ChoreType) Valid() bool {
	switch t {
	case ChoreOneTime, ChoreDaily, ChoreWeekly:
		return true
	}
	return false
}

type Chore struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	PointsValue int       `json:"points_value"`
	AssignedTo  int64     `json:"assigned_to"`
	ChoreType   ChoreType `json:"chore_type"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type ChoreCompletion struct {
	ID           int64     `json:"id"`
	ChoreID      int64     `json:"chore_id"`
	ProfileID    int64     `json:"profile_id"`
	PeriodKey    string    `json:"period_key"`
	PointsEarned int       `json:"points_earned"`
	CompletedAt  time.Time `json:"completed_at"`
}
