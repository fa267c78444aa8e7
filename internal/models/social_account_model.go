package models

import (
	"time"
)

type SocialAccount struct {
	ID          int64             `db:"id" json:"id"`
	UserID      int64             `db:"user_id" json:"user_id"`
	Platform    string            `db:"platform" json:"platform"`
	ProfileID   string            `db:"profile_id" json:"profile_id"`
	AccountName string            `db:"account_name" json:"account_name"`
	Handle      string            `db:"handle" json:"handle"`
	Status      string            `db:"status" json:"status"`
	IsPrimary   bool              `db:"is_primary" json:"is_primary"`
	Metadata    map[string]string `db:"metadata" json:"metadata"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time         `db:"updated_at" json:"updated_at"`
}

const (
	AccountStatusActive       = "active"
	AccountStatusInactive     = "inactive"
	AccountStatusError        = "error"
	AccountStatusDisconnected = "disconnected"
)

const (
	PlatformFacebook  = "facebook"
	PlatformTwitter   = "twitter"
	PlatformInstagram = "instagram"
	PlatformLinkedin  = "linkedin"
	PlatformTiktok    = "tiktok"
	PlatformYoutube   = "youtube"
)
