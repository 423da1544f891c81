package alphavantage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"market_backend/internal/feature/marketdata/adapters"
	"market_backend/internal/feature/marketdata/adapters/alphavantage/dto"
	"market_backend/internal/feature/marketdata/domain"
	platformhttp "market_backend/internal/platform/http"
)

// Client issues /query calls. It is shared by the equity and digital currency providers.
type Client struct {
	cfg  Config
	http platformhttp.HTTPClient
}

// NewClient は指定された設定とHTTPクライアントでClientを生成します。
func NewClient(cfg Config, client platformhttp.HTTPClient) *Client {
	return &Client{cfg: cfg.withDefaults(), http: client}
}

// query calls /query and rejects the marker payloads Alpha Vantage sends with HTTP 200.
// Errors are tagged with the calling provider's id.
func (c *Client) query(ctx context.Context, provider string, params url.Values) (json.RawMessage, error) {
	params.Set("apikey", c.cfg.APIKey)
	u := fmt.Sprintf("%s/query?%s", c.cfg.BaseURL, params.Encode())

	var body json.RawMessage
	if err := platformhttp.GetJSON(ctx, c.http, u, nil, &body); err != nil {
		return nil, adapters.WrapError(provider, err)
	}
	var env dto.Envelope
	if err := decode(provider, body, &env); err != nil {
		return nil, err
	}
	if msg := stringField(env, dto.FieldErrorMessage); msg != "" {
		return nil, domain.NewProviderError(provider, domain.ErrNotFound, errors.New(msg))
	}
	for _, f := range []string{dto.FieldNote, dto.FieldInformation} {
		msg := stringField(env, f)
		if msg == "" {
			continue
		}
		if isRateLimitNotice(msg) {
			return nil, domain.NewProviderError(provider, domain.ErrRateLimited, errors.New(msg))
		}
		return nil, domain.NewProviderError(provider, domain.ErrUpstreamUnavailable, errors.New(msg))
	}
	return body, nil
}

// decode maps a raw body onto one typed response variant.
func decode(provider string, body json.RawMessage, out any) error {
	if err := json.Unmarshal(body, out); err != nil {
		return adapters.WrapError(provider, fmt.Errorf("decode: %w", err))
	}
	return nil
}

func stringField(env dto.Envelope, key string) string {
	raw, ok := env[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

func isRateLimitNotice(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "call frequency") ||
		strings.Contains(m, "rate limit") ||
		strings.Contains(m, "requests per")
}
