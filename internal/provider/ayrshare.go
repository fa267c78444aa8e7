package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// VariantAyrshare is the default publishing backend. Ayrshare addresses
// targets by platform key, supports remote scheduling and per-post
// analytics across every platform it covers.
const VariantAyrshare = "ayrshare"

// Recognized metadata keys carried over from Ayrshare profile payloads.
var ayrshareProfileMetaKeys = []string{"refId", "profileKey", "title", "verified"}

type ayrshareProvider struct {
	apiKey  string
	baseURL string
	hc      *http.Client
}

// NewAyrshareFactory returns a registry factory for the Ayrshare variant.
func NewAyrshareFactory(baseURL string) Factory {
	return func(creds Credentials) (Provider, error) {
		if creds.APIKey == "" {
			return nil, &ConfigurationError{Variant: VariantAyrshare, Reason: "API key is required"}
		}
		return &ayrshareProvider{
			apiKey:  creds.APIKey,
			baseURL: baseURL,
			hc:      &http.Client{Timeout: requestTimeout},
		}, nil
	}
}

func (p *ayrshareProvider) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.apiKey}
}

func (p *ayrshareProvider) Authenticate(ctx context.Context) (*Identity, error) {
	raw, err := doJSON(ctx, p.hc, http.MethodGet, p.baseURL+"/user", p.headers(), nil, nil)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &Error{Kind: KindPermanent, Message: fmt.Sprintf("decode user response: %v", err), Raw: raw}
	}

	return &Identity{
		ID:    pickString(payload, "refId", "id"),
		Name:  pickString(payload, "title", "name"),
		Email: pickString(payload, "email"),
		Raw:   raw,
	}, nil
}

func (p *ayrshareProvider) ListProfiles(ctx context.Context) ([]Profile, error) {
	raw, err := doJSON(ctx, p.hc, http.MethodGet, p.baseURL+"/profiles", p.headers(), nil, nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Profiles []map[string]any `json:"profiles"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &Error{Kind: KindPermanent, Message: fmt.Sprintf("decode profiles response: %v", err), Raw: raw}
	}

	profiles := make([]Profile, 0, len(payload.Profiles))
	for _, entry := range payload.Profiles {
		profiles = append(profiles, Profile{
			ID:       pickString(entry, "id", "profileKey"),
			Platform: pickString(entry, "platform", "type"),
			Username: pickString(entry, "username", "handle"),
			Name:     pickString(entry, "name", "displayName"),
			Active:   pickBool(entry, true, "active", "isActive"),
			Metadata: recognizedMeta(entry, ayrshareProfileMetaKeys),
		})
	}
	return profiles, nil
}

func (p *ayrshareProvider) CreatePost(ctx context.Context, input CreatePostInput) ([]TargetResult, error) {
	body := map[string]any{
		"post":      input.Text,
		"platforms": input.ProfileIDs,
	}
	if input.Media != nil {
		if len(input.Media.Photos) > 0 {
			body["mediaUrls"] = input.Media.Photos
		}
		if len(input.Media.Videos) > 0 {
			body["videoUrls"] = input.Media.Videos
		}
		if input.Media.Link != "" {
			body["link"] = input.Media.Link
		}
	}
	if input.ScheduledAt != nil {
		body["scheduleDate"] = input.ScheduledAt.UTC().Format(time.RFC3339)
	}

	raw, err := doJSON(ctx, p.hc, http.MethodPost, p.baseURL+"/post", p.headers(), nil, body)
	if err != nil {
		return nil, err
	}

	var payload struct {
		ID      string `json:"id"`
		Status  string `json:"status"`
		PostIDs []struct {
			Platform string `json:"platform"`
			ID       string `json:"id"`
			Status   string `json:"status"`
			Message  string `json:"message"`
		} `json:"postIds"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &Error{Kind: KindPermanent, Message: fmt.Sprintf("decode post response: %v", err), Raw: raw}
	}

	// Ayrshare reports one entry per target platform; match them back to the
	// requested profile ids so partial success stays visible per target.
	byPlatform := make(map[string]int, len(payload.PostIDs))
	for i, entry := range payload.PostIDs {
		byPlatform[entry.Platform] = i
	}

	results := make([]TargetResult, 0, len(input.ProfileIDs))
	for _, profileID := range input.ProfileIDs {
		result := TargetResult{ProfileID: profileID}
		if i, ok := byPlatform[profileID]; ok {
			entry := payload.PostIDs[i]
			if entry.Status == "error" {
				result.Err = &Error{Kind: KindValidation, Message: entry.Message, Raw: raw}
			} else {
				result.ProviderPostID = entry.ID
				if result.ProviderPostID == "" {
					result.ProviderPostID = payload.ID
				}
			}
		} else if payload.Status == "error" {
			result.Err = &Error{Kind: KindPermanent, Message: "post rejected by provider", Raw: raw}
		} else {
			result.ProviderPostID = payload.ID
		}
		results = append(results, result)
	}
	return results, nil
}

func (p *ayrshareProvider) UpdatePost(ctx context.Context, providerPostID string, input UpdatePostInput) error {
	body := map[string]any{"id": providerPostID}
	if input.Text != nil {
		body["post"] = *input.Text
	}
	if input.ScheduledAt != nil {
		body["scheduleDate"] = input.ScheduledAt.UTC().Format(time.RFC3339)
	}
	if input.Media != nil && len(input.Media.Photos) > 0 {
		body["mediaUrls"] = input.Media.Photos
	}

	_, err := doJSON(ctx, p.hc, http.MethodPut, p.baseURL+"/post", p.headers(), nil, body)
	return err
}

func (p *ayrshareProvider) DeletePost(ctx context.Context, providerPostID string) error {
	body := map[string]any{"id": providerPostID}
	_, err := doJSON(ctx, p.hc, http.MethodDelete, p.baseURL+"/post", p.headers(), nil, body)
	return err
}

func (p *ayrshareProvider) GetPostAnalytics(ctx context.Context, providerPostID string) (*MetricSnapshot, error) {
	body := map[string]any{"id": providerPostID}
	raw, err := doJSON(ctx, p.hc, http.MethodPost, p.baseURL+"/analytics/post", p.headers(), nil, body)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &Error{Kind: KindPermanent, Message: fmt.Sprintf("decode analytics response: %v", err), Raw: raw}
	}

	// Ayrshare nests per-platform metric objects; fold them into one
	// canonical snapshot so every platform vocabulary lands in the same shape.
	snapshot := &MetricSnapshot{Raw: raw, RetrievedAt: time.Now().UTC()}
	foldAyrshareMetrics(snapshot, payload)
	for _, v := range payload {
		if nested, ok := v.(map[string]any); ok {
			if analytics, ok := nested["analytics"].(map[string]any); ok {
				foldAyrshareMetrics(snapshot, analytics)
			} else {
				foldAyrshareMetrics(snapshot, nested)
			}
		}
	}
	return snapshot, nil
}

func foldAyrshareMetrics(s *MetricSnapshot, m map[string]any) {
	s.Likes += pickInt(m, "likeCount", "likes", "favoriteCount")
	s.Comments += pickInt(m, "commentsCount", "commentCount", "comments")
	s.Shares += pickInt(m, "sharesCount", "shareCount", "shares", "retweetCount")
	s.Clicks += pickInt(m, "clickCount", "clicks")
	s.Reach += pickInt(m, "reachCount", "reach")
	s.Impressions += pickInt(m, "impressionsCount", "impressions", "viewCount", "views")
}

func (p *ayrshareProvider) TestConnection(ctx context.Context) bool {
	_, err := p.Authenticate(ctx)
	return err == nil
}

func recognizedMeta(entry map[string]any, keys []string) map[string]string {
	meta := make(map[string]string)
	for _, key := range keys {
		switch v := entry[key].(type) {
		case string:
			meta[key] = v
		case bool:
			meta[key] = fmt.Sprintf("%t", v)
		case float64:
			meta[key] = fmt.Sprintf("%v", v)
		}
	}
	return meta
}
