package ebay

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"bookscout/internal/apierr"
	"bookscout/internal/config"
)

const (
	defaultMaxRetries = 2
	initialBackoff    = time.Second
	maxBackoff        = 30 * time.Second
	tokenExpiryBuffer = 5 * time.Minute
	itemCacheTTL      = 24 * time.Hour

	booksCategoryID = "267"
	marketplaceID   = "EBAY_US"
	oauthScope      = "https://api.ebay.com/oauth/api_scope"
)

// Client talks to the eBay Browse and OAuth APIs. It owns the cached
// application token, the item-detail cache and the retry policy; construct
// one per process (or per test, with a fake clock and transport).
type Client struct {
	logger       *slog.Logger
	httpClient   *http.Client
	clientID     string
	clientSecret string
	baseURL      string
	authURL      string

	maxRetries int

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error

	tokenMu     sync.Mutex
	accessToken string
	tokenExpiry time.Time
	tokenGroup  singleflight.Group

	cacheMu sync.RWMutex
	items   map[string]cachedItem
	itemTTL time.Duration
}

// NewClient creates a new eBay client from the given configuration.
func NewClient(logger *slog.Logger, cfg config.EbayConfig) *Client {
	return &Client{
		logger:       logger,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		clientID:     cfg.ClientID,
		clientSecret: cfg.ClientSecret,
		baseURL:      cfg.BaseURL,
		authURL:      cfg.AuthURL,
		maxRetries:   defaultMaxRetries,
		now:          time.Now,
		sleep:        sleepContext,
		items:        make(map[string]cachedItem),
		itemTTL:      itemCacheTTL,
	}
}

// doFetch wraps every outbound call with the retry policy: 429 responses
// honor Retry-After, 5xx and transport failures use the shared doubling
// backoff, and anything else passes through for the caller to interpret.
// The backoff delay is shared across branches within one call.
func (c *Client) doFetch(ctx context.Context, build func() (*http.Request, error)) (*http.Response, error) {
	backoff := initialBackoff
	for attempt := 0; ; attempt++ {
		req, err := build()
		if err != nil {
			return nil, err
		}

		resp, err := c.httpClient.Do(req)
		switch {
		case err != nil:
			if attempt >= c.maxRetries {
				return nil, apierr.Wrap(apierr.KindTransport, err, "request failed after %d retries", c.maxRetries)
			}
			c.logger.Warn("request failed, retrying", "error", err, "backoff", backoff)
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff = nextBackoff(backoff)

		case resp.StatusCode == http.StatusTooManyRequests:
			delay := backoff
			if ra := retryAfter(resp); ra > 0 {
				delay = ra
			}
			drainBody(resp)
			if attempt >= c.maxRetries {
				return nil, apierr.WithStatus(apierr.KindRateLimit, resp.StatusCode, "retry budget exhausted")
			}
			c.logger.Warn("rate limited, retrying", "delay", delay)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
			backoff = nextBackoff(backoff)

		case resp.StatusCode >= 500:
			status := resp.StatusCode
			drainBody(resp)
			if attempt >= c.maxRetries {
				return nil, apierr.WithStatus(apierr.KindUpstream, status, "server error after %d retries", c.maxRetries)
			}
			c.logger.Warn("server error, retrying", "status", status, "backoff", backoff)
			if err := c.sleep(ctx, backoff); err != nil {
				return nil, err
			}
			backoff = nextBackoff(backoff)

		default:
			return resp, nil
		}
	}
}

func nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		next = maxBackoff
	}
	return next
}

// retryAfter parses the Retry-After header as whole seconds.
func retryAfter(resp *http.Response) time.Duration {
	h := resp.Header.Get("Retry-After")
	if h == "" {
		return 0
	}
	secs, err := strconv.Atoi(h)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}

func drainBody(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
