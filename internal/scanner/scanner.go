package scanner

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"bookscout/internal/ebay"
	"bookscout/internal/model"
)

// Listings is the marketplace side of the pipeline.
type Listings interface {
	Search(ctx context.Context, query string, opts ebay.SearchOptions) (*ebay.SearchResult, error)
	Item(ctx context.Context, itemID string) (*ebay.ItemSummary, error)
}

// Products is the sell-side data source.
type Products interface {
	Product(ctx context.Context, code string) (*model.ProductRecord, error)
}

// Evaluator turns a buy price plus a product record into fees and a decision.
type Evaluator interface {
	Evaluate(buyCents int, rec *model.ProductRecord) (model.FeeBreakdown, model.Decision)
}

// Store persists scan results for the dashboard. Optional.
type Store interface {
	SaveDeal(ctx context.Context, deal model.Deal) error
}

// EventSink receives scan progress events. Optional.
type EventSink interface {
	Publish(event Event)
}

// Event is one scan progress notification for the dashboard stream.
type Event struct {
	ScanID string      `json:"scanId"`
	Type   string      `json:"type"`
	Deal   *model.Deal `json:"deal,omitempty"`
	Total  int         `json:"total,omitempty"`
}

const (
	EventScanStarted  = "scan_started"
	EventDealScored   = "deal_scored"
	EventScanFinished = "scan_finished"
)

// ScanResult is what a scan hands back to the route layer.
type ScanResult struct {
	ScanID string       `json:"scanId"`
	Total  int          `json:"total"`
	Deals  []model.Deal `json:"deals"`
}

// Scanner composes the listing client, product client and decision engine
// into the per-candidate enrichment pipeline.
type Scanner struct {
	logger   *slog.Logger
	listings Listings
	products Products
	engine   Evaluator
	repo     Store
	events   EventSink

	isbnProbeLimit int
	enrichLimit    int
}

// NewScanner creates a new Scanner. repo and events may be nil.
func NewScanner(logger *slog.Logger, listings Listings, products Products, engine Evaluator, repo Store, events EventSink, isbnProbeLimit, enrichLimit int) *Scanner {
	if isbnProbeLimit <= 0 {
		isbnProbeLimit = 20
	}
	if enrichLimit <= 0 {
		enrichLimit = 8
	}
	return &Scanner{
		logger:         logger,
		listings:       listings,
		products:       products,
		engine:         engine,
		repo:           repo,
		events:         events,
		isbnProbeLimit: isbnProbeLimit,
		enrichLimit:    enrichLimit,
	}
}

// Scan searches the marketplace and enriches a bounded prefix of the
// candidates: at most isbnProbeLimit listings get an ISBN discovery pass
// and at most enrichLimit of those get a product lookup and a decision.
// A search failure aborts the scan; per-candidate failures do not, and
// unenrichable candidates are still returned unscored.
func (s *Scanner) Scan(ctx context.Context, query string, opts ebay.SearchOptions) (*ScanResult, error) {
	scanID := uuid.NewString()

	result, err := s.listings.Search(ctx, query, opts)
	if err != nil {
		return nil, err
	}
	s.publish(Event{ScanID: scanID, Type: EventScanStarted, Total: result.Total})

	deals := make([]model.Deal, 0, len(result.Items))
	for i := range result.Items {
		item := &result.Items[i]
		deal := ebay.DealFromItem(item)
		if i < s.isbnProbeLimit {
			if code, ok := s.ResolveISBN(ctx, item); ok {
				deal.ISBN = &code
			}
		}
		deals = append(deals, deal)
	}

	enriched := 0
	for i := range deals {
		if enriched >= s.enrichLimit {
			break
		}
		deal := &deals[i]
		if deal.ISBN == nil {
			continue
		}

		rec, err := s.products.Product(ctx, *deal.ISBN)
		if err != nil {
			s.logger.Warn("product lookup failed", "scanId", scanID, "isbn", *deal.ISBN, "error", err)
			continue
		}
		if rec == nil {
			continue
		}
		enriched++

		fees, decision := s.engine.Evaluate(deal.TotalCents, rec)
		attach(deal, rec, fees, decision)
		s.publish(Event{ScanID: scanID, Type: EventDealScored, Deal: deal})
	}
	if enriched == 0 {
		s.logger.Info("no candidates enriched, returning raw listings", "scanId", scanID, "candidates", len(deals))
	}

	s.persist(ctx, scanID, deals)
	s.publish(Event{ScanID: scanID, Type: EventScanFinished, Total: result.Total})

	return &ScanResult{ScanID: scanID, Total: result.Total, Deals: deals}, nil
}

// ResolveISBN tries the listing's own identifier hints first and falls
// back to a detail fetch, which carries the aspects the summary omits.
func (s *Scanner) ResolveISBN(ctx context.Context, item *ebay.ItemSummary) (string, bool) {
	if code, ok := ebay.ExtractISBN(item); ok {
		return code, true
	}

	detail, err := s.listings.Item(ctx, item.ItemID)
	if err != nil {
		s.logger.Warn("item detail fetch failed", "itemId", item.ItemID, "error", err)
		return "", false
	}
	if detail == nil {
		return "", false
	}
	return ebay.ExtractISBN(detail)
}

// attach copies enrichment onto the deal. The resolved ISBN is left alone:
// once set it is never replaced by a lower-confidence value.
func attach(deal *model.Deal, rec *model.ProductRecord, fees model.FeeBreakdown, decision model.Decision) {
	asin := rec.ASIN
	deal.ASIN = &asin
	deal.BuyBoxCents = rec.BuyBoxCents
	deal.SalesRank = rec.SalesRank
	deal.SalesRankDrops = rec.SalesRankDrops30

	fbaProfit := fees.FBAProfit
	fbmProfit := fees.FBMProfit
	fbaROI := fees.FBAROI
	deal.FBAProfitCents = &fbaProfit
	deal.FBMProfitCents = &fbmProfit
	deal.FBAROI = &fbaROI

	verdict := string(decision.Verdict)
	reason := decision.Reason
	score := decision.Score
	deal.Decision = &verdict
	deal.DecisionReason = &reason
	deal.Score = &score
}

func (s *Scanner) persist(ctx context.Context, scanID string, deals []model.Deal) {
	if s.repo == nil {
		return
	}
	for i := range deals {
		if err := s.repo.SaveDeal(ctx, deals[i]); err != nil {
			s.logger.Error("failed to persist deal", "scanId", scanID, "itemId", deals[i].ItemID, "error", err)
		}
	}
}

func (s *Scanner) publish(event Event) {
	if s.events != nil {
		s.events.Publish(event)
	}
}
