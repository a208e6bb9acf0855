package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/tradevault/backend/src/models"
)

func ptr(v float64) *float64 { return &v }

func TestProcessEmpty(t *testing.T) {
	t.Parallel()

	stats := NewStatsProcessor().Process(nil)
	assert.Equal(t, 0, stats.TotalTrades)
	assert.Equal(t, 0.0, stats.WinRate)
	assert.Equal(t, 0.0, stats.AverageRR)
	assert.Empty(t, stats.ByMarket)
	assert.Empty(t, stats.ByPair)
}

func TestProcessAggregates(t *testing.T) {
	t.Parallel()

	trades := []models.CanonicalTrade{
		{Pair: "EURUSD", MarketType: models.MarketForex, Outcome: models.OutcomeWin, ProfitLoss: 500, PipValue: 50, ActualRR: ptr(2.0)},
		{Pair: "EURUSD", MarketType: models.MarketForex, Outcome: models.OutcomeLoss, ProfitLoss: -250, PipValue: -25, ActualRR: ptr(-1.0)},
		{Pair: "US30", MarketType: models.MarketIndices, Outcome: models.OutcomeWin, ProfitLoss: 100, PipValue: 10},
		{Pair: "GBPUSD", MarketType: models.MarketForex, Outcome: models.OutcomeBreakeven, ProfitLoss: 0, PipValue: 0},
	}

	stats := NewStatsProcessor().Process(trades)

	assert.Equal(t, 4, stats.TotalTrades)
	assert.Equal(t, 2, stats.Wins)
	assert.Equal(t, 1, stats.Losses)
	assert.Equal(t, 1, stats.Breakevens)

	// Breakevens do not count toward the win rate.
	assert.InDelta(t, 66.67, stats.WinRate, 0.01)
	assert.InDelta(t, 350, stats.NetProfit, 0.001)
	assert.InDelta(t, 35, stats.TotalPips, 0.001)

	// Average over the trades that carry an RR, not over all trades.
	assert.InDelta(t, 0.5, stats.AverageRR, 0.001)

	require.Contains(t, stats.ByMarket, models.MarketForex)
	assert.Equal(t, 3, stats.ByMarket[models.MarketForex].Trades)
	assert.InDelta(t, 250, stats.ByMarket[models.MarketForex].NetProfit, 0.001)

	require.Contains(t, stats.ByPair, "EURUSD")
	assert.Equal(t, 2, stats.ByPair["EURUSD"].Trades)
	assert.Equal(t, 1, stats.ByPair["EURUSD"].Wins)
	assert.InDelta(t, 250, stats.ByPair["EURUSD"].NetProfit, 0.001)
}
