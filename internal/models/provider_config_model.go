package models

import "time"

// ProviderConfig holds a user's credentials for one publishing backend
// variant. Tokens are AES-GCM encrypted before they reach the repository.
type ProviderConfig struct {
	ID          int64     `db:"id" json:"id"`
	UserID      int64     `db:"user_id" json:"user_id"`
	Variant     string    `db:"variant" json:"variant"`
	APIKey      string    `db:"api_key" json:"-"`
	AccessToken string    `db:"access_token" json:"-"`
	Status      string    `db:"status" json:"status"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

const (
	ProviderConfigStatusActive = "active"
	ProviderConfigStatusError  = "error"
)
