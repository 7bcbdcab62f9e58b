package ebay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"bookscout/internal/apierr"
	"bookscout/internal/config"
	"bookscout/internal/model"
)

// conditionIDs maps the normalized condition buckets to eBay's numeric
// condition codes for books.
var conditionIDs = map[model.Condition]string{
	model.ConditionNew:        "1000",
	model.ConditionLikeNew:    "2750",
	model.ConditionVeryGood:   "4000",
	model.ConditionGood:       "5000",
	model.ConditionAcceptable: "6000",
}

// SearchOptions narrows a book search. Zero values mean "no constraint",
// except the fixed-price restriction which is always applied.
type SearchOptions struct {
	Limit      int
	MinCents   int
	MaxCents   int
	Conditions []model.Condition
	Sellers    []string
	MaxAgeDays int
}

// OptionsFromConfig translates the configured scan parameters into
// search options.
func OptionsFromConfig(cfg config.ScanConfig) SearchOptions {
	opts := SearchOptions{
		Limit:      cfg.Limit,
		MinCents:   cfg.MinPriceCents,
		MaxCents:   cfg.MaxPriceCents,
		Sellers:    cfg.Sellers,
		MaxAgeDays: cfg.MaxAgeDays,
	}
	for _, c := range cfg.Conditions {
		opts.Conditions = append(opts.Conditions, model.Condition(c))
	}
	return opts
}

// Search queries the Browse API for fixed-price book listings, newest
// listed first.
func (c *Client) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	token, err := c.Token(ctx)
	if err != nil {
		return nil, err
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("category_ids", booksCategoryID)
	params.Set("filter", buildFilter(opts, c.now()))
	params.Set("sort", "newlyListed")
	params.Set("limit", strconv.Itoa(limit))

	endpoint := c.baseURL + "/buy/browse/v1/item_summary/search?" + params.Encode()
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
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, apierr.WithStatus(apierr.KindAuth, resp.StatusCode, "search request rejected")
	case resp.StatusCode != http.StatusOK:
		return nil, apierr.WithStatus(apierr.KindUpstream, resp.StatusCode, "search request failed")
	}

	var sr searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, apierr.Wrap(apierr.KindUpstream, err, "failed to decode search response")
	}

	c.logger.Info("ebay search completed", "query", query, "total", sr.Total, "returned", len(sr.ItemSummaries))
	return &SearchResult{Total: sr.Total, Items: sr.ItemSummaries}, nil
}

// buildFilter assembles the Browse filter expression: price bounds (only
// the finite ones), condition codes, the seller allow-list, a listing-age
// cutoff and the fixed-price restriction.
func buildFilter(opts SearchOptions, now time.Time) string {
	var parts []string

	if opts.MinCents > 0 || opts.MaxCents > 0 {
		lo, hi := "", ""
		if opts.MinCents > 0 {
			lo = centsToPrice(opts.MinCents)
		}
		if opts.MaxCents > 0 {
			hi = centsToPrice(opts.MaxCents)
		}
		parts = append(parts, fmt.Sprintf("price:[%s..%s]", lo, hi), "priceCurrency:USD")
	}

	if len(opts.Conditions) > 0 {
		ids := make([]string, 0, len(opts.Conditions))
		for _, cond := range opts.Conditions {
			if id, ok := conditionIDs[cond]; ok {
				ids = append(ids, id)
			}
		}
		if len(ids) > 0 {
			parts = append(parts, "conditionIds:{"+strings.Join(ids, "|")+"}")
		}
	}

	if len(opts.Sellers) > 0 {
		parts = append(parts, "sellers:{"+strings.Join(opts.Sellers, "|")+"}")
	}

	if opts.MaxAgeDays > 0 {
		cutoff := now.UTC().AddDate(0, 0, -opts.MaxAgeDays).Format(time.RFC3339)
		parts = append(parts, fmt.Sprintf("itemStartDate:[%s..]", cutoff))
	}

	parts = append(parts, "buyingOptions:{FIXED_PRICE}")
	return strings.Join(parts, ",")
}

func centsToPrice(cents int) string {
	return decimal.New(int64(cents), -2).StringFixed(2)
}
