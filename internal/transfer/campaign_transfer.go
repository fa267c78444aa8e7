package transfer

import "time"

type CampaignCreation struct {
	Name         string            `json:"name"`
	Description  string            `json:"description"`
	CampaignType string            `json:"campaign_type"`
	Status       string            `json:"status"`
	StartDate    time.Time         `json:"start_date"`
	EndDate      time.Time         `json:"end_date"`
	Platforms    []string          `json:"platforms"`
	Goals        map[string]string `json:"goals"`
}

type CampaignUpdate struct {
	Name        *string           `json:"name"`
	Description *string           `json:"description"`
	Status      *string           `json:"status"`
	StartDate   *time.Time        `json:"start_date"`
	EndDate     *time.Time        `json:"end_date"`
	Platforms   []string          `json:"platforms"`
	Goals       map[string]string `json:"goals"`
}

type ProviderConfigCreation struct {
	Variant     string `json:"variant"`
	APIKey      string `json:"api_key"`
	AccessToken string `json:"access_token"`
}

type AccountRegistration struct {
	Platform    string            `json:"platform"`
	ProfileID   string            `json:"profile_id"`
	AccountName string            `json:"account_name"`
	Handle      string            `json:"handle"`
	IsPrimary   bool              `json:"is_primary"`
	Metadata    map[string]string `json:"metadata"`
}
