package model

import "time"

type Role string

const (
	RoleParent Role = "PARENT"
	RoleKid    Role = "KID"
)

func (r Role) Valid() bool {
	return r == RoleParent || r == RoleKid
}

// UserSummary is the identity block nested in profile and redemption JSON.
type UserSummary struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
}

type Profile struct {
	ID        int64       `json:"id"`
	User      UserSummary `json:"user"`
	Role      Role        `json:"role"`
	Points    int         `json:"points"`
	ParentID  *int64      `json:"parent"`
	CreatedAt time.Time   `json:"created_at"`
}

func (p *Profile) IsKidOf(parentID int64) bool {
	return p.Role == RoleKid && p.ParentID != nil && *p.ParentID == parentID
}

type RefreshToken struct {
	JTI       string     `json:"jti"`
	ProfileID int64      `json:"profile_id"`
	ExpiresAt time.Time  `json:"expires_at"`
	RevokedAt *time.Time `json:"revoked_at"`
	CreatedAt time.Time  `json:"created_at"`
}
