package models

// Market type tags assigned by the classifier. Nothing outside this set is
// ever persisted; rows that resolve to anything else are skipped.
const (
	MarketForex       = "forex"
	MarketIndices     = "indices"
	MarketCommodities = "commodities"
	MarketCrypto      = "crypto"
)

// ValidMarketType reports whether t is one of the four persistable tags.
func ValidMarketType(t string) bool {
	switch t {
	case MarketForex, MarketIndices, MarketCommodities, MarketCrypto:
		return true
	}
	return false
}

// Trade outcome labels, derived from the sign of the reported profit.
const (
	OutcomeWin       = "Win"
	OutcomeLoss      = "Loss"
	OutcomeBreakeven = "Breakeven"
)

// CanonicalTrade is the unified, persistence-ready representation of one
// trade, regardless of which broker export it came from. Each format parser
// hands the pipeline raw field values; the shared finalization step fills the
// derived metrics.
//
// Date and the two time fields are already expressed in the user's target
// timezone. Pair is uppercased with broker suffixes stripped.
type CanonicalTrade struct {
	ID         int64   `json:"id"`
	AccountID  int64   `json:"accountId"`
	Date       string  `json:"date"`      // YYYY-MM-DD
	TradeTime  string  `json:"tradeTime"` // HH:mm
	ExitTime   string  `json:"exitTime"`  // HH:mm, empty for open trades
	Pair       string  `json:"pair"`
	Position   string  `json:"position"` // "buy" | "sell"
	LotSize    float64 `json:"lotSize"`
	EntryPrice float64 `json:"entryPrice"`
	ExitPrice  float64 `json:"exitPrice"`
	SLPrice    float64 `json:"slPrice"`
	TakeProfit float64 `json:"takeProfit"`
	Commission float64 `json:"commission"`
	Swap       float64 `json:"swap"`
	ProfitLoss float64 `json:"profitLoss"`

	// Derived metrics. RR and risk values are nullable: a zero stop loss or
	// missing take profit legitimately yields no figure rather than zero.
	PipValue    float64  `json:"pipValue"`
	StopLoss    float64  `json:"stopLoss"` // distance in pips/points, not a price
	HoldTime    int      `json:"holdTime"` // minutes
	Outcome     string   `json:"outcome"`
	ActualRR    *float64 `json:"actualRR"`
	PlannedRR   *float64 `json:"plannedRR"`
	ActualRisk  *float64 `json:"actualRisk"`
	PlannedRisk *float64 `json:"plannedRisk"`

	PositionID string `json:"positionId"`
	MarketType string `json:"market_type"`
}
