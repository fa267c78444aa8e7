package models

import (
	"time"
)

type Campaign struct {
	ID           int64             `db:"id" json:"id"`
	UserID       int64             `db:"user_id" json:"user_id"`
	Name         string            `db:"name" json:"name"`
	Description  string            `db:"description" json:"description"`
	CampaignType string            `db:"campaign_type" json:"campaign_type"`
	Status       string            `db:"status" json:"status"`
	StartDate    time.Time         `db:"start_date" json:"start_date"`
	EndDate      time.Time         `db:"end_date" json:"end_date"`
	Platforms    []string          `db:"platforms" json:"platforms"`
	Goals        map[string]string `db:"goals" json:"goals"`
	CreatedAt    time.Time         `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time         `db:"updated_at" json:"updated_at"`
}

const (
	CampaignStatusDraft     = "draft"
	CampaignStatusActive    = "active"
	CampaignStatusPaused    = "paused"
	CampaignStatusCompleted = "completed"
	CampaignStatusArchived  = "archived"
)
