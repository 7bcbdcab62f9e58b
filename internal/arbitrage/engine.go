package arbitrage

import (
	"log/slog"
	"math"

	"bookscout/internal/config"
	"bookscout/internal/model"
)

// Engine holds the fee policy and decision thresholds used to turn a buy
// price plus sell-side signals into a scored buy/no-buy classification.
type Engine struct {
	logger *slog.Logger
	fees   config.FeeConfig
	policy config.DecisionConfig
}

// NewEngine creates a new instance of the Engine.
func NewEngine(logger *slog.Logger, fees config.FeeConfig, policy config.DecisionConfig) *Engine {
	return &Engine{logger: logger, fees: fees, policy: policy}
}

// DecisionInput carries the signals the classifier looks at. Nil pointers
// mean the signal is unknown and the corresponding rules are skipped.
type DecisionInput struct {
	ProfitCents    int
	ROI            int
	SalesRank      *int
	SalesRankDrops *int
	FBAOffers      int
	AmazonPresent  bool
}

// CalculateFees computes fee-netted profit and ROI for both fulfillment
// models. Amounts are cents; ROI is rounded integer percent.
func (e *Engine) CalculateFees(buyCents, sellCents int) model.FeeBreakdown {
	referral := roundRate(sellCents, e.fees.ReferralRate)
	marketplace := roundRate(buyCents, e.fees.MarketplaceRate)
	totalCost := buyCents + marketplace

	fbaProfit := sellCents - referral - e.fees.FBAFulfillmentCents - e.fees.InboundCents - totalCost
	fbmProfit := sellCents - referral - e.fees.FBMClosingCents - e.fees.FBMShippingCents - totalCost

	return model.FeeBreakdown{
		ReferralFee:    referral,
		FulfillmentFee: e.fees.FBAFulfillmentCents,
		InboundCents:   e.fees.InboundCents,
		ClosingFee:     e.fees.FBMClosingCents,
		MerchantShip:   e.fees.FBMShippingCents,
		MarketplaceFee: marketplace,
		TotalCost:      totalCost,
		FBAProfit:      fbaProfit,
		FBMProfit:      fbmProfit,
		FBAROI:         roi(fbaProfit, totalCost),
		FBMROI:         roi(fbmProfit, totalCost),
	}
}

// MakeDecision runs the two-stage policy: ordered knockout rules first,
// then additive scoring. The first matching knockout supplies the reason.
func (e *Engine) MakeDecision(in DecisionInput) model.Decision {
	if reason, ok := e.knockout(in); ok {
		return model.Decision{Verdict: model.VerdictReject, Reason: reason, Score: 0}
	}

	score := 50
	switch {
	case in.ProfitCents >= 1000:
		score += 20
	case in.ProfitCents >= 500:
		score += 10
	}
	switch {
	case in.ROI >= 100:
		score += 15
	case in.ROI >= 50:
		score += 10
	}
	if in.SalesRank != nil {
		switch {
		case *in.SalesRank < 100000:
			score += 15
		case *in.SalesRank < 500000:
			score += 10
		case *in.SalesRank < 1000000:
			score += 5
		}
	}
	if in.SalesRankDrops != nil {
		switch {
		case *in.SalesRankDrops >= 10:
			score += 10
		case *in.SalesRankDrops >= 5:
			score += 5
		}
	}
	switch {
	case in.FBAOffers > 10:
		score -= 10
	case in.FBAOffers > 5:
		score -= 5
	}

	if score > 100 {
		score = 100
	} else if score < 0 {
		score = 0
	}

	switch {
	case score >= e.policy.BuyScore:
		return model.Decision{Verdict: model.VerdictBuy, Reason: "strong opportunity", Score: score}
	case score >= e.policy.ReviewScore:
		return model.Decision{Verdict: model.VerdictReview, Reason: "needs review", Score: score}
	default:
		return model.Decision{Verdict: model.VerdictReject, Reason: "below threshold", Score: score}
	}
}

// knockout evaluates the hard disqualifiers in precedence order. The order
// decides which reason the operator sees, so it must not be reshuffled.
func (e *Engine) knockout(in DecisionInput) (string, bool) {
	switch {
	case in.ProfitCents < e.policy.MinProfitCents:
		return "profit too low", true
	case in.ROI < e.policy.MinROI:
		return "ROI too low", true
	case in.SalesRank != nil && *in.SalesRank > e.policy.MaxSalesRank:
		return "rank too high", true
	case in.SalesRankDrops != nil && *in.SalesRankDrops < e.policy.MinSalesDrops30:
		return "no velocity", true
	case in.AmazonPresent:
		return "amazon is selling", true
	}
	return "", false
}

// Evaluate composes the fee math and the classifier for one candidate
// against its product record. The FBA numbers drive the decision.
func (e *Engine) Evaluate(buyCents int, rec *model.ProductRecord) (model.FeeBreakdown, model.Decision) {
	sell, ok := sellPrice(rec)
	if !ok {
		e.logger.Debug("no sell-side price for candidate", "asin", rec.ASIN)
		return model.FeeBreakdown{}, model.Decision{Verdict: model.VerdictReject, Reason: "no sell price", Score: 0}
	}

	fees := e.CalculateFees(buyCents, sell)
	decision := e.MakeDecision(DecisionInput{
		ProfitCents:    fees.FBAProfit,
		ROI:            fees.FBAROI,
		SalesRank:      rec.SalesRank,
		SalesRankDrops: rec.SalesRankDrops30,
		FBAOffers:      rec.FBAOfferCount,
		AmazonPresent:  rec.AmazonPresent,
	})
	return fees, decision
}

// sellPrice picks the price the item would realistically sell at: buy box
// first, then lowest used, then lowest new.
func sellPrice(rec *model.ProductRecord) (int, bool) {
	for _, p := range []*int{rec.BuyBoxCents, rec.UsedCents, rec.NewCents} {
		if p != nil && *p > 0 {
			return *p, true
		}
	}
	return 0, false
}

func roundRate(cents int, rate float64) int {
	return int(math.Round(float64(cents) * rate))
}

func roi(profit, totalCost int) int {
	if totalCost <= 0 {
		return 0
	}
	return int(math.Round(float64(profit) / float64(totalCost) * 100))
}
