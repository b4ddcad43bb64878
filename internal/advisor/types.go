package advisor

// ProductCandidate is a catalog product considered for recommendation or
// gap analysis. Supplied by the caller; the engine never loads products
// itself.
type ProductCandidate struct {
	ID          int64
	Name        string
	Category    string
	Price       float64
	DemandScore float64 // caller-supplied popularity estimate in [0,1]
}

// StoreContext is the minimal summary of a seller's store consulted during
// recommendation. Only ProductIDs affects results (exclusion filtering).
type StoreContext struct {
	Name         string
	ProductCount int
	ProductIDs   []int64
}

// Recommendation is a single scored product suggestion.
type Recommendation struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	Category  string  `json:"category"`
	Price     float64 `json:"price"`
	Score     float64 `json:"score"`
	Reason    string  `json:"reason"`
}

// RecommendationResult is the full response of Recommendations.
type RecommendationResult struct {
	Recommendations  []Recommendation `json:"recommendations"`
	Insights         string           `json:"insights"`
	SuggestedActions []string         `json:"suggested_actions"`
}

// ChatTurn is one prior message in a conversation. History is accepted for
// forward compatibility but not consulted by the current reply logic.
type ChatTurn struct {
	Role string `json:"role"`
	Text string `json:"text"`
}

// StoreStats carries optional store figures into the chat context. Present
// in the contract for forward compatibility; the reply rules don't read it.
type StoreStats struct {
	Name     string `json:"name"`
	Products int    `json:"products"`
	Orders   int    `json:"orders"`
}

// ChatContext is the per-request context for Chat.
type ChatContext struct {
	UserName string
	Store    *StoreStats
}

// ChatReply is the assistant's response. SuggestedProducts is never
// populated by the current logic; it exists as an extension point and
// marshals as null.
type ChatReply struct {
	Response          string   `json:"response"`
	SuggestedProducts []int64  `json:"suggested_products"`
	ActionItems       []string `json:"action_items"`
}

// ProductGap is a high-demand catalog product missing from a store.
type ProductGap struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Reason    string `json:"reason"`
}

// InsightReport is the store health summary produced by Insights.
type InsightReport struct {
	Summary          string       `json:"summary"`
	ProductGaps      []ProductGap `json:"product_gaps"`
	OptimizationTips []string     `json:"optimization_tips"`
	Risks            []string     `json:"risks"`
}
