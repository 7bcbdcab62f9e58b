package arbitrage

import (
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"

	"bookscout/internal/config"
	"bookscout/internal/model"
)

func newTestEngine() *Engine {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	return NewEngine(logger, config.DefaultFees(), config.DefaultDecision())
}

func intPtr(v int) *int { return &v }

func TestEngine_CalculateFees(t *testing.T) {
	engine := newTestEngine()

	fees := engine.CalculateFees(1000, 3000)

	assert.Equal(t, 450, fees.ReferralFee)
	assert.Equal(t, 130, fees.MarketplaceFee)
	assert.Equal(t, 1130, fees.TotalCost)
	// 3000 - 450 - 354 - 50 - 1130
	assert.Equal(t, 1016, fees.FBAProfit)
	// 3000 - 450 - 180 - 399 - 1130
	assert.Equal(t, 841, fees.FBMProfit)
	assert.Equal(t, 90, fees.FBAROI)
	assert.Equal(t, 74, fees.FBMROI)
}

func TestEngine_CalculateFees_ZeroCost(t *testing.T) {
	engine := newTestEngine()

	fees := engine.CalculateFees(0, 3000)
	assert.Equal(t, 0, fees.TotalCost)
	assert.Equal(t, 0, fees.FBAROI)
	assert.Equal(t, 0, fees.FBMROI)
}

func TestEngine_MakeDecision_Knockouts(t *testing.T) {
	engine := newTestEngine()

	t.Run("profit too low wins over later rules", func(t *testing.T) {
		d := engine.MakeDecision(DecisionInput{
			ProfitCents:   250,
			ROI:           50,
			SalesRank:     intPtr(5000000),
			AmazonPresent: true,
		})
		assert.Equal(t, model.VerdictReject, d.Verdict)
		assert.Equal(t, "profit too low", d.Reason)
		assert.Equal(t, 0, d.Score)
	})

	t.Run("roi too low", func(t *testing.T) {
		d := engine.MakeDecision(DecisionInput{ProfitCents: 500, ROI: 10})
		assert.Equal(t, model.VerdictReject, d.Verdict)
		assert.Equal(t, "ROI too low", d.Reason)
	})

	t.Run("rank too high", func(t *testing.T) {
		d := engine.MakeDecision(DecisionInput{ProfitCents: 500, ROI: 50, SalesRank: intPtr(3000001)})
		assert.Equal(t, "rank too high", d.Reason)
	})

	t.Run("no velocity", func(t *testing.T) {
		d := engine.MakeDecision(DecisionInput{ProfitCents: 500, ROI: 50, SalesRankDrops: intPtr(1)})
		assert.Equal(t, "no velocity", d.Reason)
	})

	t.Run("amazon is selling", func(t *testing.T) {
		d := engine.MakeDecision(DecisionInput{ProfitCents: 500, ROI: 50, AmazonPresent: true})
		assert.Equal(t, "amazon is selling", d.Reason)
	})

	t.Run("unknown rank and drops do not knock out", func(t *testing.T) {
		d := engine.MakeDecision(DecisionInput{ProfitCents: 500, ROI: 50})
		assert.NotEqual(t, model.VerdictReject, d.Verdict)
	})
}

func TestEngine_MakeDecision_Scoring(t *testing.T) {
	engine := newTestEngine()

	t.Run("clamped buy", func(t *testing.T) {
		// 50 + 20 + 15 + 15 + 10 = 110, clamped to 100.
		d := engine.MakeDecision(DecisionInput{
			ProfitCents:    1200,
			ROI:            120,
			SalesRank:      intPtr(50000),
			SalesRankDrops: intPtr(12),
			FBAOffers:      2,
		})
		assert.Equal(t, model.VerdictBuy, d.Verdict)
		assert.Equal(t, "strong opportunity", d.Reason)
		assert.Equal(t, 100, d.Score)
	})

	t.Run("review band", func(t *testing.T) {
		// 50 + 10 + 10 - 10 = 60
		d := engine.MakeDecision(DecisionInput{
			ProfitCents: 600,
			ROI:         60,
			FBAOffers:   12,
		})
		assert.Equal(t, model.VerdictReview, d.Verdict)
		assert.Equal(t, "needs review", d.Reason)
		assert.Equal(t, 60, d.Score)
	})

	t.Run("reject below threshold", func(t *testing.T) {
		// 50 - 10 = 40
		d := engine.MakeDecision(DecisionInput{
			ProfitCents: 400,
			ROI:         40,
			SalesRank:   intPtr(2000000),
			FBAOffers:   11,
		})
		assert.Equal(t, model.VerdictReject, d.Verdict)
		assert.Equal(t, "below threshold", d.Reason)
		assert.Equal(t, 40, d.Score)
	})
}

func TestEngine_Evaluate(t *testing.T) {
	engine := newTestEngine()

	t.Run("buy box drives the decision", func(t *testing.T) {
		rec := &model.ProductRecord{
			ASIN:             "B000TEST",
			BuyBoxCents:      intPtr(3000),
			SalesRank:        intPtr(50000),
			SalesRankDrops30: intPtr(12),
			FBAOfferCount:    2,
		}
		fees, d := engine.Evaluate(1000, rec)
		assert.Equal(t, 1016, fees.FBAProfit)
		assert.Equal(t, model.VerdictBuy, d.Verdict)
	})

	t.Run("falls back to used price", func(t *testing.T) {
		rec := &model.ProductRecord{ASIN: "B000TEST", UsedCents: intPtr(3000)}
		fees, _ := engine.Evaluate(1000, rec)
		assert.Equal(t, 1016, fees.FBAProfit)
	})

	t.Run("no sell price rejects", func(t *testing.T) {
		rec := &model.ProductRecord{ASIN: "B000TEST"}
		_, d := engine.Evaluate(1000, rec)
		assert.Equal(t, model.VerdictReject, d.Verdict)
		assert.Equal(t, "no sell price", d.Reason)
	})
}
