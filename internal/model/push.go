package model

import "time"

// PushSubscription is one browser or device registered for web push.
type PushSubscription struct {
	ID         int64     `json:"id"`
	ProfileID  int64     `json:"profile_id"`
	Endpoint   string    `json:"endpoint"`
	P256dhKey  string    `json:"p256dh_key"`
	AuthKey    string    `json:"auth_key"`
	DeviceName string    `json:"device_name"`
	CreatedAt  time.Time `json:"created_at"`
}
