// Package provider abstracts the third-party publishing backends that
// deliver posts to social platforms. Every backend variant implements the
// same narrow, idempotent-biased contract; callers stay variant-agnostic by
// resolving instances through the Registry.
package provider

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"
)

type Identity struct {
	ID    string          `json:"id"`
	Name  string          `json:"name"`
	Email string          `json:"email"`
	Raw   json.RawMessage `json:"-"`
}

// Profile is one destination identity connected on the provider side.
type Profile struct {
	ID       string            `json:"id"`
	Platform string            `json:"platform"`
	Username string            `json:"username"`
	Name     string            `json:"name"`
	Active   bool              `json:"active"`
	Metadata map[string]string `json:"metadata"`
}

type Media struct {
	Photos    []string `json:"photos,omitempty"`
	Videos    []string `json:"videos,omitempty"`
	Link      string   `json:"link,omitempty"`
	Thumbnail string   `json:"thumbnail,omitempty"`
}

type CreatePostInput struct {
	ProfileIDs  []string
	Text        string
	Media       *Media
	ScheduledAt *time.Time // nil publishes immediately
}

// TargetResult is the outcome for a single target profile of a create call.
// One logical call produces N independent remote outcomes; partial success
// is a valid result and must never be collapsed into a single boolean.
type TargetResult struct {
	ProfileID      string
	ProviderPostID string
	Err            *Error
}

type UpdatePostInput struct {
	Text        *string
	Media       *Media
	ScheduledAt *time.Time
}

// MetricSnapshot is the canonical metric shape all provider analytics
// vocabularies normalize into. The raw payload is kept for audit.
type MetricSnapshot struct {
	Likes       int64           `json:"likes"`
	Comments    int64           `json:"comments"`
	Shares      int64           `json:"shares"`
	Clicks      int64           `json:"clicks"`
	Reach       int64           `json:"reach"`
	Impressions int64           `json:"impressions"`
	Raw         json.RawMessage `json:"-"`
	RetrievedAt time.Time       `json:"retrieved_at"`
}

type Credentials struct {
	APIKey      string
	AccessToken string
}

func (c Credentials) Empty() bool {
	return c.APIKey == "" && c.AccessToken == ""
}

// Fingerprint identifies a credential set without exposing it. Changing
// either secret changes the fingerprint, which forces a fresh provider
// instance out of the registry cache.
func (c Credentials) Fingerprint() string {
	sum := sha256.Sum256([]byte(c.APIKey + "\x00" + c.AccessToken))
	return hex.EncodeToString(sum[:])
}

// Provider is the capability contract every publishing backend satisfies.
// Mutating operations tolerate retries: update and delete treat an unknown
// id as already resolved where the remote API reports it as such.
type Provider interface {
	Authenticate(ctx context.Context) (*Identity, error)
	ListProfiles(ctx context.Context) ([]Profile, error)
	CreatePost(ctx context.Context, input CreatePostInput) ([]TargetResult, error)
	UpdatePost(ctx context.Context, providerPostID string, input UpdatePostInput) error
	DeletePost(ctx context.Context, providerPostID string) error
	GetPostAnalytics(ctx context.Context, providerPostID string) (*MetricSnapshot, error)
	// TestConnection never returns an error; connectivity failure is a
	// false result because it is used for health probing.
	TestConnection(ctx context.Context) bool
}
