package model

import "time"

// Condition is the normalized listing condition bucket used for searches.
type Condition string

const (
	ConditionNew        Condition = "NEW"
	ConditionLikeNew    Condition = "LIKE_NEW"
	ConditionVeryGood   Condition = "VERY_GOOD"
	ConditionGood       Condition = "GOOD"
	ConditionAcceptable Condition = "ACCEPTABLE"
)

// Deal status values used by the dashboard triage flow.
const (
	StatusNew      = "new"
	StatusBought   = "bought"
	StatusRejected = "rejected"
)

// Deal is the UI-facing projection of a marketplace listing. All monetary
// amounts are integer cents; enrichment fields stay nil until a product
// lookup succeeds for the listing's ISBN.
type Deal struct {
	ItemID         string    `db:"item_id" json:"itemId"`
	Title          string    `db:"title" json:"title"`
	TotalCents     int       `db:"total_cents" json:"totalCents"`
	Condition      string    `db:"condition" json:"condition"`
	Seller         string    `db:"seller" json:"seller"`
	SellerFeedback *float64  `db:"seller_feedback_pct" json:"sellerFeedbackPct,omitempty"`
	ImageURL       *string   `db:"image_url" json:"imageUrl,omitempty"`
	ShippingCents  int       `db:"shipping_cents" json:"shippingCents"`
	ItemURL        string    `db:"item_url" json:"itemUrl"`
	ISBN           *string   `db:"isbn" json:"isbn,omitempty"`
	ASIN           *string   `db:"asin" json:"asin,omitempty"`
	BuyBoxCents    *int      `db:"buy_box_cents" json:"buyBoxPrice,omitempty"`
	SalesRank      *int      `db:"sales_rank" json:"salesRank,omitempty"`
	SalesRankDrops *int      `db:"sales_rank_drops30" json:"salesRankDrops30,omitempty"`
	FBAProfitCents *int      `db:"fba_profit_cents" json:"fbaProfit,omitempty"`
	FBMProfitCents *int      `db:"fbm_profit_cents" json:"fbmProfit,omitempty"`
	FBAROI         *int      `db:"fba_roi" json:"fbaRoi,omitempty"`
	Decision       *string   `db:"decision" json:"decision,omitempty"`
	DecisionReason *string   `db:"decision_reason" json:"decisionReason,omitempty"`
	Score          *int      `db:"score" json:"score,omitempty"`
	Status         string    `db:"status" json:"status"`
	FirstSeen      time.Time `db:"first_seen" json:"firstSeen"`
}

// ProductRecord holds the sell-side signals for one ISBN/ASIN as flattened
// from the product-data API. Nil pointers mean "no data", never zero.
type ProductRecord struct {
	ASIN             string
	Title            string
	SalesRank        *int
	BuyBoxCents      *int
	NewCents         *int
	UsedCents        *int
	Avg90Cents       *int
	NewOfferCount    int
	UsedOfferCount   int
	FBAOfferCount    int
	Rating           *int // 0-50, i.e. 0.0-5.0 stars
	ReviewCount      *int
	SalesRankDrops30 *int
	SalesRankDrops90 *int
	SalesDays30      *int
	SalesDays90      *int
	OutOfStockPct90  *int
	Category         string
	ImageURL         *string
	AmazonPresent    bool
	LastUpdate       time.Time
}

// FeeBreakdown is the fee-netted profit result for both fulfillment models.
// Amounts are cents, ROI values are integer percent.
type FeeBreakdown struct {
	ReferralFee    int `json:"referralFee"`
	FulfillmentFee int `json:"fulfillmentFee"`
	InboundCents   int `json:"inboundShipping"`
	ClosingFee     int `json:"closingFee"`
	MerchantShip   int `json:"merchantShipping"`
	MarketplaceFee int `json:"marketplaceFee"`
	TotalCost      int `json:"totalCost"`
	FBAProfit      int `json:"fbaProfit"`
	FBMProfit      int `json:"fbmProfit"`
	FBAROI         int `json:"fbaRoi"`
	FBMROI         int `json:"fbmRoi"`
}

// Verdict is the classification outcome for a candidate.
type Verdict string

const (
	VerdictBuy    Verdict = "BUY"
	VerdictReview Verdict = "REVIEW"
	VerdictReject Verdict = "REJECT"
)

// Decision is the scored buy/review/reject classification of one candidate.
type Decision struct {
	Verdict Verdict `json:"verdict"`
	Reason  string  `json:"reason"`
	Score   int     `json:"score"`
}
