package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// VariantBuffer is the alternative publishing backend. Buffer addresses
// targets by profile id and creates one update per profile.
const VariantBuffer = "buffer"

var bufferProfileMetaKeys = []string{"timezone", "service_id", "default", "disabled"}

type bufferProvider struct {
	accessToken string
	baseURL     string
	hc          *http.Client
}

// NewBufferFactory returns a registry factory for the Buffer variant.
func NewBufferFactory(baseURL string) Factory {
	return func(creds Credentials) (Provider, error) {
		if creds.AccessToken == "" {
			return nil, &ConfigurationError{Variant: VariantBuffer, Reason: "access token is required"}
		}
		return &bufferProvider{
			accessToken: creds.AccessToken,
			baseURL:     baseURL,
			hc:          &http.Client{Timeout: requestTimeout},
		}, nil
	}
}

func (p *bufferProvider) params() url.Values {
	params := url.Values{}
	params.Set("access_token", p.accessToken)
	return params
}

func (p *bufferProvider) Authenticate(ctx context.Context) (*Identity, error) {
	raw, err := doJSON(ctx, p.hc, http.MethodGet, p.baseURL+"/user.json", nil, p.params(), nil)
	if err != nil {
		return nil, err
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &Error{Kind: KindPermanent, Message: fmt.Sprintf("decode user response: %v", err), Raw: raw}
	}

	return &Identity{
		ID:    pickString(payload, "id", "_id"),
		Name:  pickString(payload, "name"),
		Email: pickString(payload, "email"),
		Raw:   raw,
	}, nil
}

func (p *bufferProvider) ListProfiles(ctx context.Context) ([]Profile, error) {
	raw, err := doJSON(ctx, p.hc, http.MethodGet, p.baseURL+"/profiles.json", nil, p.params(), nil)
	if err != nil {
		return nil, err
	}

	var entries []map[string]any
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, &Error{Kind: KindPermanent, Message: fmt.Sprintf("decode profiles response: %v", err), Raw: raw}
	}

	profiles := make([]Profile, 0, len(entries))
	for _, entry := range entries {
		profiles = append(profiles, Profile{
			ID:       pickString(entry, "id", "_id"),
			Platform: pickString(entry, "service"),
			Username: pickString(entry, "username", "formatted_username"),
			Name:     pickString(entry, "formatted_service", "service_username"),
			Active:   !pickBool(entry, false, "disabled"),
			Metadata: recognizedMeta(entry, bufferProfileMetaKeys),
		})
	}
	return profiles, nil
}

func (p *bufferProvider) CreatePost(ctx context.Context, input CreatePostInput) ([]TargetResult, error) {
	body := map[string]any{
		"text":        input.Text,
		"profile_ids": input.ProfileIDs,
	}
	if input.Media != nil {
		media := map[string]any{}
		if len(input.Media.Photos) > 0 {
			media["photo"] = input.Media.Photos[0]
		}
		if input.Media.Link != "" {
			media["link"] = input.Media.Link
		}
		if input.Media.Thumbnail != "" {
			media["thumbnail"] = input.Media.Thumbnail
		}
		if len(media) > 0 {
			body["media"] = media
		}
	}
	if input.ScheduledAt != nil {
		body["scheduled_at"] = strconv.FormatInt(input.ScheduledAt.UTC().Unix(), 10)
	} else {
		body["now"] = true
	}

	raw, err := doJSON(ctx, p.hc, http.MethodPost, p.baseURL+"/updates/create.json", nil, p.params(), body)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Success bool `json:"success"`
		Updates []struct {
			ID        string `json:"id"`
			ProfileID string `json:"profile_id"`
			Status    string `json:"status"`
		} `json:"updates"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &Error{Kind: KindPermanent, Message: fmt.Sprintf("decode create response: %v", err), Raw: raw}
	}

	// Buffer creates one update per profile; profiles missing from the
	// response were rejected.
	byProfile := make(map[string]string, len(payload.Updates))
	for _, update := range payload.Updates {
		byProfile[update.ProfileID] = update.ID
	}

	results := make([]TargetResult, 0, len(input.ProfileIDs))
	for _, profileID := range input.ProfileIDs {
		result := TargetResult{ProfileID: profileID}
		if id, ok := byProfile[profileID]; ok {
			result.ProviderPostID = id
		} else {
			message := payload.Message
			if message == "" {
				message = "profile rejected by provider"
			}
			result.Err = &Error{Kind: KindValidation, Message: message, Raw: raw}
		}
		results = append(results, result)
	}
	return results, nil
}

func (p *bufferProvider) UpdatePost(ctx context.Context, providerPostID string, input UpdatePostInput) error {
	body := map[string]any{}
	if input.Text != nil {
		body["text"] = *input.Text
	}
	if input.ScheduledAt != nil {
		body["scheduled_at"] = strconv.FormatInt(input.ScheduledAt.UTC().Unix(), 10)
	}
	if input.Media != nil && len(input.Media.Photos) > 0 {
		body["media"] = map[string]any{"photo": input.Media.Photos[0]}
	}

	endpoint := fmt.Sprintf("%s/updates/%s/update.json", p.baseURL, providerPostID)
	_, err := doJSON(ctx, p.hc, http.MethodPost, endpoint, nil, p.params(), body)
	return err
}

func (p *bufferProvider) DeletePost(ctx context.Context, providerPostID string) error {
	endpoint := fmt.Sprintf("%s/updates/%s/destroy.json", p.baseURL, providerPostID)
	_, err := doJSON(ctx, p.hc, http.MethodPost, endpoint, nil, p.params(), nil)
	return err
}

func (p *bufferProvider) GetPostAnalytics(ctx context.Context, providerPostID string) (*MetricSnapshot, error) {
	endpoint := fmt.Sprintf("%s/updates/%s.json", p.baseURL, providerPostID)
	raw, err := doJSON(ctx, p.hc, http.MethodGet, endpoint, nil, p.params(), nil)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Statistics map[string]any `json:"statistics"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, &Error{Kind: KindPermanent, Message: fmt.Sprintf("decode update response: %v", err), Raw: raw}
	}
	stats := payload.Statistics
	if stats == nil {
		stats = map[string]any{}
	}

	// Buffer's metric vocabulary varies by platform (favorites/retweets on
	// Twitter, likes/shares elsewhere); normalize both spellings.
	return &MetricSnapshot{
		Likes:       pickInt(stats, "likes", "favorites"),
		Comments:    pickInt(stats, "comments", "replies"),
		Shares:      pickInt(stats, "shares", "retweets"),
		Clicks:      pickInt(stats, "clicks"),
		Reach:       pickInt(stats, "reach"),
		Impressions: pickInt(stats, "impressions", "views"),
		Raw:         raw,
		RetrievedAt: time.Now().UTC(),
	}, nil
}

func (p *bufferProvider) TestConnection(ctx context.Context) bool {
	_, err := p.Authenticate(ctx)
	return err == nil
}
