package keepa

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"bookscout/internal/apierr"
	"bookscout/internal/config"
	"bookscout/internal/isbn"
	"bookscout/internal/model"
)

const (
	statsWindowDays = 180
	offerDepth      = 20
	domainUS        = 1
)

// Client talks to the Keepa product API.
type Client struct {
	logger     *slog.Logger
	httpClient *http.Client
	apiKey     string
	baseURL    string

	now func() time.Time
}

// NewClient creates a new Keepa client from the given configuration.
func NewClient(logger *slog.Logger, cfg config.KeepaConfig) *Client {
	return &Client{
		logger:     logger,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		now:        time.Now,
	}
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type response struct {
	TokensLeft     int       `json:"tokensLeft"`
	TokensConsumed int       `json:"tokensConsumed"`
	Error          *apiError `json:"error"`
	Products       []product `json:"products"`
}

// Product looks up sell-side data for an ISBN. Lookup failures collapse to
// (nil, nil) after logging: most ISBNs have no Amazon listing and callers
// treat absence as a normal outcome. Only a missing API key is an error.
func (c *Client) Product(ctx context.Context, code string) (*model.ProductRecord, error) {
	if c.apiKey == "" {
		return nil, apierr.New(apierr.KindConfig, "keepa api key is not configured")
	}

	normalized := isbn.Normalize(code)
	params := url.Values{}
	params.Set("key", c.apiKey)
	params.Set("domain", strconv.Itoa(domainUS))
	params.Set("code", normalized)
	params.Set("stats", strconv.Itoa(statsWindowDays))
	params.Set("offers", strconv.Itoa(offerDepth))
	params.Set("history", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/product?"+params.Encode(), nil)
	if err != nil {
		return nil, nil
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Warn("keepa request failed", "code", normalized, "error", err)
		return nil, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.logger.Warn("keepa returned non-2xx", "code", normalized, "status", resp.StatusCode)
		return nil, nil
	}

	var out response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		c.logger.Warn("keepa response undecodable", "code", normalized, "error", err)
		return nil, nil
	}
	if out.Error != nil {
		c.logger.Warn("keepa reported an error", "code", normalized, "type", out.Error.Type, "message", out.Error.Message)
		return nil, nil
	}
	if len(out.Products) == 0 {
		return nil, nil
	}

	c.logger.Debug("keepa lookup done", "code", normalized, "tokensLeft", out.TokensLeft, "tokensConsumed", out.TokensConsumed)
	return buildRecord(&out.Products[0], c.now()), nil
}
