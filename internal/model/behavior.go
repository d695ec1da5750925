package model

import "time"

type BehaviorAction string

const (
	BehaviorGood BehaviorAction = "GOOD"
	BehaviorBad  BehaviorAction = "BAD"
)

// BehaviorLog is append-only. PointsChange is the configured delta;
// PointsApplied is what reached the balance after clamping at zero.
type BehaviorLog struct {
	ID            int64          `json:"id"`
	ProfileID     int64          `json:"profile_id"`
	LoggedBy      *int64         `json:"logged_by"`
	ActionType    BehaviorAction `json:"action_type"`
	PointsChange  int            `json:"points_change"`
	PointsApplied int            `json:"points_applied"`
	Note          string         `json:"note"`
	CreatedAt     time.Time      `json:"created_at"`
}
