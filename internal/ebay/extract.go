package ebay

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"bookscout/internal/isbn"
	"bookscout/internal/model"
)

var titleISBNPattern = regexp.MustCompile(`\b(\d{13}|\d{10})\b`)

// ExtractISBN applies the identifier heuristics in decreasing order of
// trust: the explicit ISBN field, then the GTIN, then a free-text aspect
// naming an ISBN, then a standalone 10 or 13 digit run in the title. The
// first satisfied rule wins.
func ExtractISBN(item *ItemSummary) (string, bool) {
	for _, raw := range item.ISBN {
		if s := isbn.Normalize(raw); isbnLength(s) {
			return s, true
		}
	}

	if s := isbn.Normalize(item.Gtin); isbnLength(s) {
		return s, true
	}

	for _, aspect := range item.LocalizedAspects {
		if !strings.Contains(strings.ToLower(aspect.Name), "isbn") {
			continue
		}
		if s := isbn.Normalize(aspect.Value); isbnLength(s) {
			return s, true
		}
	}

	if m := titleISBNPattern.FindString(item.Title); m != "" {
		return m, true
	}
	return "", false
}

func isbnLength(s string) bool {
	return len(s) == 10 || len(s) == 13
}

// DealFromItem projects a listing into the dashboard Deal shape. The
// decimal price strings are converted to integer cents exactly once, here.
func DealFromItem(item *ItemSummary) model.Deal {
	price := amountCents(item.Price)
	shipping := 0
	if len(item.ShippingOptions) > 0 {
		shipping = amountCents(item.ShippingOptions[0].ShippingCost)
	}

	deal := model.Deal{
		ItemID:        item.ItemID,
		Title:         item.Title,
		TotalCents:    price + shipping,
		Condition:     item.Condition,
		ShippingCents: shipping,
		ItemURL:       item.ItemWebURL,
		Status:        model.StatusNew,
	}

	if item.Seller != nil {
		deal.Seller = item.Seller.Username
		if item.Seller.FeedbackPercentage != "" {
			if v, err := strconv.ParseFloat(item.Seller.FeedbackPercentage, 64); err == nil {
				deal.SellerFeedback = &v
			}
		}
	}
	if item.Image != nil && item.Image.ImageURL != "" {
		u := item.Image.ImageURL
		deal.ImageURL = &u
	}
	return deal
}

func amountCents(a *Amount) int {
	if a == nil || a.Value == "" {
		return 0
	}
	d, err := decimal.NewFromString(a.Value)
	if err != nil {
		return 0
	}
	return int(d.Shift(2).Round(0).IntPart())
}
