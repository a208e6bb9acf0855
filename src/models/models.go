package models

import "fmt"

// PairRecord is a known symbol and its market classification. Records are
// created on first sighting during an import and reused by later imports, so
// a user's manual reclassification (e.g. tagging BTCUSD as crypto) sticks.
type PairRecord struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	MarketType string `json:"market_type"`
}

// Account is the owner of imported trades. Timezone holds the broker-local
// zone chosen during the most recent committed import.
type Account struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	BaseCurrency string `json:"base_currency"`
	Timezone     string `json:"timezone"`
	// MultipliersJSON optionally overrides the default BrokerMultipliers.
	MultipliersJSON string `json:"-"`
}

// SkipRecord is the diagnostic emitted for a rejected row. It is surfaced in
// the import preview and never persisted.
type SkipRecord struct {
	Row    int               `json:"row"`
	Reason string            `json:"reason"`
	Record map[string]string `json:"record"`
	Symbol string            `json:"symbol"`
}

// DedupeKey builds the composite identity used for duplicate rejection, both
// as the in-memory set key and as the UNIQUE constraint on the trades table.
func DedupeKey(accountID int64, date, tradeTime, pair, position, positionID string) string {
	return fmt.Sprintf("%d-%s-%s-%s-%s-%s", accountID, date, tradeTime, pair, position, positionID)
}

// Key is DedupeKey applied to a trade's own fields.
func (t *CanonicalTrade) Key() string {
	return DedupeKey(t.AccountID, t.Date, t.TradeTime, t.Pair, t.Position, t.PositionID)
}
