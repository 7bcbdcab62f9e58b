package keepa

import (
	"math"
	"strings"
	"time"

	"bookscout/internal/model"
)

// Keepa csv/stats metric indices used here.
const (
	csvAmazon       = 0
	csvNew          = 1
	csvUsed         = 2
	csvSalesRank    = 3
	csvCountNew     = 11
	csvCountUsed    = 12
	csvRating       = 16
	csvCountReviews = 17
	csvBuyBox       = 18
)

// Keepa timestamps are minutes since its custom epoch.
const keepaEpochOffsetMinutes = 21564000

const imageCDN = "https://images-na.ssl-images-amazon.com/images/I/"

type categoryTreeItem struct {
	CatID int64  `json:"catId"`
	Name  string `json:"name"`
}

type stats struct {
	Current                []int `json:"current"`
	Avg90                  []int `json:"avg90"`
	OutOfStockPercentage90 []int `json:"outOfStockPercentage90"`
	BuyBoxPrice            int   `json:"buyBoxPrice"`
	BuyBoxIsAmazon         bool  `json:"buyBoxIsAmazon"`
	OfferCountFBA          int   `json:"offerCountFBA"`
	SalesRankDrops30       *int  `json:"salesRankDrops30"`
	SalesRankDrops90       *int  `json:"salesRankDrops90"`
	TotalOfferCount        int   `json:"totalOfferCount"`
}

type product struct {
	ASIN         string             `json:"asin"`
	Title        string             `json:"title"`
	CategoryTree []categoryTreeItem `json:"categoryTree"`
	ImagesCSV    string             `json:"imagesCSV"`
	LastUpdate   int64              `json:"lastUpdate"`
	CSV          [][]int            `json:"csv"`
	Stats        *stats             `json:"stats"`
}

// buildRecord flattens Keepa's sparse representation into typed current
// values: prefer the precomputed snapshot, fall back to the last series
// entry, and treat negatives as "no data" rather than literal quantities.
func buildRecord(p *product, now time.Time) *model.ProductRecord {
	rec := &model.ProductRecord{
		ASIN:       p.ASIN,
		Title:      p.Title,
		LastUpdate: keepaTime(p.LastUpdate),
	}

	rec.SalesRank = currentOrLast(p, csvSalesRank)
	rec.NewCents = currentOrLast(p, csvNew)
	rec.UsedCents = currentOrLast(p, csvUsed)
	rec.Rating = currentOrLast(p, csvRating)
	rec.ReviewCount = currentOrLast(p, csvCountReviews)
	rec.NewOfferCount = clampCount(currentOrLast(p, csvCountNew))
	rec.UsedOfferCount = clampCount(currentOrLast(p, csvCountUsed))

	amazonPrice := currentOrLast(p, csvAmazon)
	rec.AmazonPresent = amazonPrice != nil && *amazonPrice > 0

	if p.Stats != nil {
		st := p.Stats
		rec.FBAOfferCount = clampCount(&st.OfferCountFBA)
		rec.Avg90Cents = statValue(st.Avg90, csvUsed)
		rec.SalesRankDrops90 = nonNegative(st.SalesRankDrops90)
		rec.OutOfStockPct90 = percentValue(st.OutOfStockPercentage90, csvAmazon)
		if st.BuyBoxIsAmazon {
			rec.AmazonPresent = true
		}

		// Zero means no buy box, not a free book.
		if st.BuyBoxPrice > 0 {
			v := st.BuyBoxPrice
			rec.BuyBoxCents = &v
		} else if v := statValue(st.Current, csvBuyBox); v != nil && *v > 0 {
			rec.BuyBoxCents = v
		}
	}

	rec.SalesRankDrops30 = rankDrops30(p.Stats)
	if series := salesSeries(p); series != nil {
		rec.SalesDays30 = salesDays(series, 30, now)
		rec.SalesDays90 = salesDays(series, 90, now)
	}

	if tok := firstImageToken(p.ImagesCSV); tok != "" {
		u := imageCDN + tok
		rec.ImageURL = &u
	}
	if n := len(p.CategoryTree); n > 0 {
		rec.Category = p.CategoryTree[n-1].Name
	}
	return rec
}

// rankDrops30 prefers the API's own 30-day counter and otherwise estimates
// a month from the 90-day one. A heuristic proxy for unit sales, kept as-is.
func rankDrops30(st *stats) *int {
	if st == nil {
		return nil
	}
	if v := nonNegative(st.SalesRankDrops30); v != nil {
		return v
	}
	if v := nonNegative(st.SalesRankDrops90); v != nil {
		est := int(math.Round(float64(*v) / 3))
		return &est
	}
	return nil
}

// salesDays counts the distinct calendar days inside the trailing window
// on which the sales rank improved against the most recent prior
// observation, carrying in the last rank from just before the window.
func salesDays(series []int, windowDays int, now time.Time) *int {
	if len(series) < 2 {
		return nil
	}
	cutoff := now.AddDate(0, 0, -windowDays)

	prev := -1
	days := make(map[string]struct{})
	for i := 0; i+1 < len(series); i += 2 {
		ts := keepaTime(int64(series[i]))
		rank := series[i+1]
		if rank <= 0 {
			continue
		}
		if ts.Before(cutoff) {
			prev = rank
			continue
		}
		if prev > 0 && rank < prev {
			days[ts.Format("2006-01-02")] = struct{}{}
		}
		prev = rank
	}
	n := len(days)
	return &n
}

func salesSeries(p *product) []int {
	if csvSalesRank >= len(p.CSV) {
		return nil
	}
	return p.CSV[csvSalesRank]
}

func currentOrLast(p *product, idx int) *int {
	if p.Stats != nil {
		if v := statValue(p.Stats.Current, idx); v != nil {
			return v
		}
	}
	if idx >= len(p.CSV) {
		return nil
	}
	series := p.CSV[idx]
	if len(series) < 2 {
		return nil
	}
	v := series[len(series)-1]
	if v < 0 {
		return nil
	}
	return &v
}

func statValue(values []int, idx int) *int {
	if idx >= len(values) {
		return nil
	}
	v := values[idx]
	if v < 0 {
		return nil
	}
	return &v
}

// percentValue is statValue restricted to the 0-100 range.
func percentValue(values []int, idx int) *int {
	v := statValue(values, idx)
	if v == nil || *v > 100 {
		return nil
	}
	return v
}

func nonNegative(v *int) *int {
	if v == nil || *v < 0 {
		return nil
	}
	return v
}

func clampCount(v *int) int {
	if v == nil || *v < 0 {
		return 0
	}
	return *v
}

func keepaTime(minutes int64) time.Time {
	return time.Unix((minutes+keepaEpochOffsetMinutes)*60, 0).UTC()
}

func firstImageToken(imagesCSV string) string {
	if imagesCSV == "" {
		return ""
	}
	return strings.SplitN(imagesCSV, ",", 2)[0]
}
