package ebay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"bookscout/internal/apierr"
)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// Token returns a valid application token, refreshing it when the cached
// one is within the expiry buffer. Concurrent callers share one in-flight
// token request instead of issuing duplicates.
func (c *Client) Token(ctx context.Context) (string, error) {
	if c.clientID == "" || c.clientSecret == "" {
		return "", apierr.New(apierr.KindConfig, "ebay client credentials are not configured")
	}

	c.tokenMu.Lock()
	if c.accessToken != "" && c.now().Before(c.tokenExpiry.Add(-tokenExpiryBuffer)) {
		token := c.accessToken
		c.tokenMu.Unlock()
		return token, nil
	}
	c.tokenMu.Unlock()

	v, err, _ := c.tokenGroup.Do("oauth", func() (interface{}, error) {
		return c.fetchToken(ctx)
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// fetchToken performs the client-credentials grant against the OAuth
// endpoint and caches the result with its expiry.
func (c *Client) fetchToken(ctx context.Context) (string, error) {
	form := url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {oauthScope},
	}
	body := form.Encode()

	resp, err := c.doFetch(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, strings.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.clientID, c.clientSecret)
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		return req, nil
	})
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", apierr.WithStatus(apierr.KindAuth, resp.StatusCode, "oauth token request rejected")
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", apierr.Wrap(apierr.KindUpstream, err, "failed to decode token response")
	}
	if tr.AccessToken == "" {
		return "", apierr.New(apierr.KindAuth, "oauth response carried no access token")
	}

	c.tokenMu.Lock()
	c.accessToken = tr.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	c.tokenMu.Unlock()

	c.logger.Debug("ebay token refreshed", "expiresIn", tr.ExpiresIn)
	return tr.AccessToken, nil
}
