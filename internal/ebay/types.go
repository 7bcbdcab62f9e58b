package ebay

// Amount is a decimal money value as eBay transmits it. It is converted to
// integer cents at the projection boundary and never handled as a float.
type Amount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

// Seller identifies the listing seller.
type Seller struct {
	Username           string `json:"username"`
	FeedbackPercentage string `json:"feedbackPercentage"`
}

// Image is a listing image reference.
type Image struct {
	ImageURL string `json:"imageUrl"`
}

// ShippingOption is one shipping choice; the first option's cost is used.
type ShippingOption struct {
	ShippingCost *Amount `json:"shippingCost"`
}

// LocalizedAspect is a free-text item attribute, e.g. "ISBN-13: 978...".
type LocalizedAspect struct {
	Type  string `json:"type"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

// ItemSummary is a marketplace listing as returned by search and detail
// lookups, carrying the identifier hints the ISBN heuristic inspects.
type ItemSummary struct {
	ItemID           string            `json:"itemId"`
	Title            string            `json:"title"`
	Price            *Amount           `json:"price"`
	Condition        string            `json:"condition"`
	ConditionID      string            `json:"conditionId"`
	Seller           *Seller           `json:"seller"`
	Image            *Image            `json:"image"`
	ShippingOptions  []ShippingOption  `json:"shippingOptions"`
	ItemWebURL       string            `json:"itemWebUrl"`
	ISBN             []string          `json:"isbn"`
	Gtin             string            `json:"gtin"`
	LocalizedAspects []LocalizedAspect `json:"localizedAspects"`
}

type searchResponse struct {
	Total         int           `json:"total"`
	Limit         int           `json:"limit"`
	Offset        int           `json:"offset"`
	ItemSummaries []ItemSummary `json:"itemSummaries"`
}

// SearchResult is a page of listings matching a book search.
type SearchResult struct {
	Total int
	Items []ItemSummary
}
