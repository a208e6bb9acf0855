package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseBrokerMultipliersEmpty(t *testing.T) {
	t.Parallel()

	m := ParseBrokerMultipliers("")
	assert.Equal(t, 10.0, m.Forex)
	assert.Equal(t, 0.0001, m.PipSize.Forex)
	assert.Equal(t, 100.0, m.CommoditiesExceptions["XAUUSD"])
	assert.Equal(t, 50.0, m.CommoditiesExceptions["XAGUSD"])
}

func TestParseBrokerMultipliersPartialOverride(t *testing.T) {
	t.Parallel()

	m := ParseBrokerMultipliers(`{"forex": 7.5, "pipSize": {"indices": 0.1}}`)

	assert.Equal(t, 7.5, m.Forex)
	assert.Equal(t, 0.1, m.PipSize.Indices)

	// Everything unspecified falls back to the defaults.
	assert.Equal(t, 1.0, m.Indices)
	assert.Equal(t, 0.0001, m.PipSize.Forex)
	assert.Equal(t, 100.0, m.CommoditiesExceptions["XAUUSD"])
}

func TestParseBrokerMultipliersInvalidJSON(t *testing.T) {
	t.Parallel()

	m := ParseBrokerMultipliers("{not json")
	assert.Equal(t, 10.0, m.Forex)
	assert.Equal(t, 1.0, m.PipSize.Indices)
}

func TestDedupeKey(t *testing.T) {
	t.Parallel()

	trade := &CanonicalTrade{
		AccountID:  1,
		Date:       "2024-03-15",
		TradeTime:  "10:30",
		Pair:       "EURUSD",
		Position:   "buy",
		PositionID: "9001",
	}
	assert.Equal(t, "1-2024-03-15-10:30-EURUSD-buy-9001", trade.Key())
	assert.Equal(t, trade.Key(), DedupeKey(1, "2024-03-15", "10:30", "EURUSD", "buy", "9001"))
}

func TestValidMarketType(t *testing.T) {
	t.Parallel()

	for _, mt := range []string{MarketForex, MarketIndices, MarketCommodities, MarketCrypto} {
		assert.True(t, ValidMarketType(mt), mt)
	}
	assert.False(t, ValidMarketType("bonds"))
	assert.False(t, ValidMarketType(""))
}
