package models

import "time"

type User struct {
	ID             int64     `db:"id" json:"id"`
	GoogleID       string    `db:"google_id" json:"google_id"`
	Email          string    `db:"email" json:"email"`
	Name           string    `db:"name" json:"name"`
	ProfilePicture string    `db:"profile_picture" json:"profile_picture"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

type MediaAsset struct {
	ID        int64     `db:"id"`
	UserID    int64     `db:"user_id"`
	FileName  string    `db:"file_name"`
	FileType  string    `db:"file_type"`
	FileURL   string    `db:"file_url"`
	CreatedAt time.Time `db:"created_at"`
}

type ApiKey struct {
	ID        int64     `db:"id" json:"id"`
	UserID    int64     `db:"user_id" json:"user_id"`
	KeyHash   string    `db:"key_hash" json:"-"`
	Prefix    string    `db:"prefix" json:"prefix"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
