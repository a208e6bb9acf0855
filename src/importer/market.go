package importer

import (
	"fmt"
	"strings"

	"github.com/username/tradevault/backend/src/logger"
	"github.com/username/tradevault/backend/src/models"
)

// Symbols auto-classified for first sightings. Crypto is never inferred here:
// it only arises from pre-existing pair records the user has reclassified.
var knownIndexSymbols = map[string]bool{
	"SPX500": true,
	"US30":   true,
	"NDX100": true,
	"NAS100": true,
	"US100":  true,
}

var knownCommoditySymbols = map[string]bool{
	"XAUUSD": true,
	"XAGUSD": true,
}

// DefaultMarketType is the heuristic classification for a symbol nobody has
// seen before.
func DefaultMarketType(symbol string) string {
	switch {
	case knownIndexSymbols[symbol]:
		return models.MarketIndices
	case knownCommoditySymbols[symbol]:
		return models.MarketCommodities
	default:
		return models.MarketForex
	}
}

// MarketClassifier assigns a market type to each symbol in an import batch.
// It works against the in-memory pair list loaded at batch start and pushes
// new or backfilled records through the store as it goes, so a classification
// made for row 3 is already visible to row 300 and to the next import.
type MarketClassifier struct {
	store PairStore
	pairs map[string]*models.PairRecord
}

func NewMarketClassifier(store PairStore, known []models.PairRecord) *MarketClassifier {
	pairs := make(map[string]*models.PairRecord, len(known))
	for i := range known {
		p := known[i]
		pairs[strings.ToUpper(p.Name)] = &p
	}
	return &MarketClassifier{store: store, pairs: pairs}
}

// Classify returns the market type for an uppercased, suffix-stripped symbol,
// creating and persisting a PairRecord on first sighting. A record with a
// market type outside the known set is a row-level error; the caller skips
// the row.
func (c *MarketClassifier) Classify(symbol string) (string, error) {
	if symbol == "" {
		return "", fmt.Errorf("empty symbol")
	}

	if existing, ok := c.pairs[symbol]; ok {
		if existing.MarketType == "" {
			// Legacy record from before market types existed; backfill it.
			existing.MarketType = DefaultMarketType(symbol)
			if err := c.store.UpdateMarketType(existing.ID, existing.MarketType); err != nil {
				logger.L.Warn("Failed to backfill pair market type", "symbol", symbol, "error", err)
			}
		}
		if !models.ValidMarketType(existing.MarketType) {
			return "", fmt.Errorf("invalid market type '%s' for symbol %s", existing.MarketType, symbol)
		}
		return existing.MarketType, nil
	}

	record := &models.PairRecord{
		Name:       symbol,
		MarketType: DefaultMarketType(symbol),
	}
	if err := c.store.Insert(record); err != nil {
		logger.L.Warn("Failed to persist new pair", "symbol", symbol, "error", err)
	}
	c.pairs[symbol] = record
	logger.L.Debug("New pair classified", "symbol", symbol, "marketType", record.MarketType)
	return record.MarketType, nil
}

// Pairs returns the classifier's current view of the pair list, including
// records created during this batch.
func (c *MarketClassifier) Pairs() []models.PairRecord {
	out := make([]models.PairRecord, 0, len(c.pairs))
	for _, p := range c.pairs {
		out = append(out, *p)
	}
	return out
}
