package ebay

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	"bookscout/internal/apierr"
)

type cachedItem struct {
	item      ItemSummary
	fetchedAt time.Time
}

// Item fetches a listing's full detail, serving repeat lookups from the
// in-process cache for 24 hours. A 404 returns (nil, nil): an unknown item
// is a valid outcome, not an error. The cache only saves upstream calls;
// price and rank truth always comes from the product-data client.
func (c *Client) Item(ctx context.Context, itemID string) (*ItemSummary, error) {
	if item, ok := c.lookupCached(itemID); ok {
		return item, nil
	}

	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/buy/browse/v1/item/" + url.PathEscape(itemID)
	resp, err := c.doFetch(ctx, func() (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("X-EBAY-C-MARKETPLACE-ID", marketplaceID)
		return req, nil
	})
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, apierr.WithStatus(apierr.KindAuth, resp.StatusCode, "item request rejected")
	case resp.StatusCode != http.StatusOK:
		return nil, apierr.WithStatus(apierr.KindUpstream, resp.StatusCode, "item request failed")
	}

	var item ItemSummary
	if err := json.NewDecoder(resp.Body).Decode(&item); err != nil {
		return nil, apierr.Wrap(apierr.KindUpstream, err, "failed to decode item response")
	}

	c.cacheMu.Lock()
	c.items[itemID] = cachedItem{item: item, fetchedAt: c.now()}
	c.cacheMu.Unlock()

	return &item, nil
}

// lookupCached returns a cached item if present and fresh; expired entries
// are evicted lazily here rather than by a background sweep.
func (c *Client) lookupCached(itemID string) (*ItemSummary, bool) {
	c.cacheMu.RLock()
	entry, ok := c.items[itemID]
	c.cacheMu.RUnlock()
	if !ok {
		return nil, false
	}

	if c.now().Sub(entry.fetchedAt) >= c.itemTTL {
		c.cacheMu.Lock()
		delete(c.items, itemID)
		c.cacheMu.Unlock()
		return nil, false
	}

	item := entry.item
	return &item, true
}

// SweepExpired drops every expired cache entry and reports how many were
// removed. Intended for a periodic schedule; correctness never depends on it.
func (c *Client) SweepExpired() int {
	c.cacheMu.Lock()
	defer c.cacheMu.Unlock()

	removed := 0
	now := c.now()
	for id, entry := range c.items {
		if now.Sub(entry.fetchedAt) >= c.itemTTL {
			delete(c.items, id)
			removed++
		}
	}
	return removed
}
