package model

import "time"

type Reward struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Cost        int       `json:"cost"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
}

type RedemptionStatus string

const (
	RedemptionPending  RedemptionStatus = "PENDING"
	RedemptionApproved RedemptionStatus = "APPROVED"
	RedemptionRejected RedemptionStatus = "REJECTED"
)

// RewardSummary is the reward block embedded in redemption JSON.
type RewardSummary struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Icon  string `json:"icon"`
	Cost  int    `json:"cost"`
}

type Redemption struct {
	ID          int64            `json:"id"`
	RewardID    int64            `json:"reward_id"`
	ProfileID   int64            `json:"profile_id"`
	User        UserSummary      `json:"user"`
	Reward      RewardSummary    `json:"reward"`
	Status      RedemptionStatus `json:"status"`
	PointsSpent int              `json:"points_spent"`
	RequestKey  *string          `json:"request_key,omitempty"`
	ClaimedAt   time.Time        `json:"claimed_at"`
	ProcessedAt *time.Time       `json:"processed_at"`
}
