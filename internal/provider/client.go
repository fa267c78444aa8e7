package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

const requestTimeout = 30 * time.Second

// doJSON issues one JSON request against a provider API and maps any failure
// into the canonical taxonomy. Bodies of error responses are preserved raw
// so callers can audit what the backend actually said.
func doJSON(ctx context.Context, hc *http.Client, method, rawURL string, headers map[string]string, params url.Values, body any) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &Error{Kind: KindValidation, Message: fmt.Sprintf("encode request: %v", err)}
		}
		reader = bytes.NewReader(payload)
	}

	if len(params) > 0 {
		rawURL = rawURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, rawURL, reader)
	if err != nil {
		return nil, &Error{Kind: KindValidation, Message: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := hc.Do(req)
	if err != nil {
		slog.Info(err.Error())
		return nil, wrapTransport(err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		slog.Info(err.Error())
		return nil, wrapTransport(err)
	}

	if resp.StatusCode >= 400 {
		return nil, &Error{
			Kind:       classifyStatus(resp.StatusCode),
			Message:    errorMessage(data, resp.StatusCode),
			StatusCode: resp.StatusCode,
			Raw:        json.RawMessage(data),
		}
	}

	if len(data) == 0 {
		return json.RawMessage("{}"), nil
	}
	return json.RawMessage(data), nil
}

func errorMessage(body []byte, status int) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err == nil {
		for _, key := range []string{"message", "error", "detail"} {
			if msg, ok := payload[key].(string); ok && msg != "" {
				return msg
			}
		}
	}
	if len(body) > 0 {
		return string(body)
	}
	return fmt.Sprintf("provider responded with status %d", status)
}

// pickString walks fallback keys the way provider payload vocabularies
// drift between API versions.
func pickString(m map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := m[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

func pickInt(m map[string]any, keys ...string) int64 {
	for _, key := range keys {
		switch v := m[key].(type) {
		case float64:
			return int64(v)
		case int64:
			return v
		case json.Number:
			if n, err := v.Int64(); err == nil {
				return n
			}
		}
	}
	return 0
}

func pickBool(m map[string]any, fallback bool, keys ...string) bool {
	for _, key := range keys {
		if v, ok := m[key].(bool); ok {
			return v
		}
	}
	return fallback
}
