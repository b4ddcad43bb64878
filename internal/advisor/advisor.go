package advisor

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strings"

	"github.com/dropskill/dropskill/internal/knowledge"
)

// Scoring policy constants.
const (
	// maxScored caps how many candidates are scored at all. The cap is
	// applied BEFORE scoring, so upstream sort order decides which products
	// ever get considered.
	maxScored = 10

	// maxReturned caps the recommendation list.
	maxReturned = 5

	// nameMatchBonus is added when the query appears in the product name.
	nameMatchBonus = 0.2

	// highDemandThreshold separates "High demand" from "Good seller"
	// reasons, and gates gap candidates in Insights.
	highDemandThreshold = 0.7

	// gapScanWindow is how many catalog entries Insights inspects for gaps.
	gapScanWindow = 10

	// maxGaps caps the gap list.
	maxGaps = 5

	// minHealthyProducts is the store size below which a conversion risk is
	// flagged.
	minHealthyProducts = 5
)

// Engine produces recommendations, chat replies, and insights. Stateless
// across calls except for the injected knowledge store.
type Engine struct {
	knowledge *knowledge.Store
	logger    *slog.Logger
}

// New creates an Engine. The knowledge store is injected rather than
// constructed here so a single instance backs all request handlers.
func New(ks *knowledge.Store, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{knowledge: ks, logger: logger}
}

// Recommendations scores catalog candidates against a query and the seller's
// current store. Candidates already imported into the store are excluded,
// then only the first maxScored remaining candidates (caller order) are
// scored: demand score plus a name-match bonus, clamped to 1.0.
func (e *Engine) Recommendations(query string, store *StoreContext, candidates []ProductCandidate) RecommendationResult {
	// Retrieved context is not surfaced in the response today; it is logged
	// so the retrieval path stays observable.
	contextText := e.knowledge.ContextForQuery(query)
	e.logger.Debug("knowledge context retrieved", "query", query, "context_bytes", len(contextText))

	excluded := make(map[int64]struct{})
	if store != nil {
		for _, id := range store.ProductIDs {
			excluded[id] = struct{}{}
		}
	}

	eligible := make([]ProductCandidate, 0, len(candidates))
	for _, c := range candidates {
		if _, ok := excluded[c.ID]; !ok {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) > maxScored {
		eligible = eligible[:maxScored]
	}

	queryLower := strings.ToLower(query)

	scored := make([]Recommendation, 0, len(eligible))
	for _, c := range eligible {
		score := c.DemandScore
		if strings.Contains(strings.ToLower(c.Name), queryLower) {
			score += nameMatchBonus
		}

		// Reason is chosen on the pre-clamp score; the clamp only ever
		// lowers values already above the threshold.
		reason := "Good seller"
		if score >= highDemandThreshold {
			reason = fmt.Sprintf("High demand in %s", c.Category)
		}

		scored = append(scored, Recommendation{
			ProductID: c.ID,
			Name:      c.Name,
			Category:  c.Category,
			Price:     c.Price,
			Score:     math.Min(score, 1.0),
			Reason:    reason,
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})

	// The insight counts everything scored, not just the returned top 5.
	total := len(scored)
	if len(scored) > maxReturned {
		scored = scored[:maxReturned]
	}

	return RecommendationResult{
		Recommendations:  scored,
		Insights:         fmt.Sprintf("Found %d products matching '%s'", total, query),
		SuggestedActions: []string{"Import trending products", "Review pricing", "Share store link"},
	}
}

// Chat classifies the message into one of four intents and returns a
// templated reply. First matching rule wins; history is accepted but not
// consulted.
func (e *Engine) Chat(message string, history []ChatTurn, chatCtx ChatContext) ChatReply {
	_ = history

	msg := strings.ToLower(message)

	user := chatCtx.UserName
	if user == "" {
		user = "there"
	}

	var text string
	switch {
	case strings.Contains(msg, "price") || strings.Contains(msg, "pricing"):
		text = fmt.Sprintf("Hi %s! For pricing, aim for 30-50%% margins on tech accessories. Use .99 endings for budget items.", user)
	case strings.Contains(msg, "product") || strings.Contains(msg, "sell") || strings.Contains(msg, "recommend"):
		text = fmt.Sprintf("Hi %s! Top sellers: phone cases, chargers, earbuds. Check products with demand score >0.7!", user)
	case strings.Contains(msg, "marketing") || strings.Contains(msg, "promote"):
		text = fmt.Sprintf("Hi %s! Share your store on social media, offer launch discounts, and ask for reviews!", user)
	default:
		text = fmt.Sprintf("Hi %s! I can help with products, pricing, and marketing. What would you like to know?", user)
	}

	return ChatReply{
		Response:          text,
		SuggestedProducts: nil,
		ActionItems:       []string{"Import products", "Set prices", "Promote store"},
	}
}

// Insights reports store health: high-demand catalog products the store is
// missing, fixed optimization tips, and a conversion risk flag for small
// stores. Only the first gapScanWindow entries of allProducts are inspected,
// so callers should pass the catalog sorted by demand descending.
func (e *Engine) Insights(storeName string, storeProducts, allProducts []ProductCandidate) InsightReport {
	owned := make(map[int64]struct{}, len(storeProducts))
	for _, p := range storeProducts {
		owned[p.ID] = struct{}{}
	}

	window := allProducts
	if len(window) > gapScanWindow {
		window = window[:gapScanWindow]
	}

	gaps := make([]ProductGap, 0, maxGaps)
	for _, p := range window {
		if len(gaps) == maxGaps {
			break
		}
		if _, ok := owned[p.ID]; ok {
			continue
		}
		if p.DemandScore < highDemandThreshold {
			continue
		}
		gaps = append(gaps, ProductGap{
			ProductID: p.ID,
			Name:      p.Name,
			Reason:    "High demand",
		})
	}

	risks := []string{}
	if len(storeProducts) < minHealthyProducts {
		risks = append(risks, "Add more products for better conversion")
	}

	return InsightReport{
		Summary:          fmt.Sprintf("'%s' has %d products", storeName, len(storeProducts)),
		ProductGaps:      gaps,
		OptimizationTips: []string{"Add more products", "Feature best sellers", "Update descriptions"},
		Risks:            risks,
	}
}
