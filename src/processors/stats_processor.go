package processors

import (
	"github.com/username/tradevault/backend/src/models"
	"github.com/username/tradevault/backend/src/utils"
)

// JournalStats is the aggregate view the journal's dashboard renders.
type JournalStats struct {
	TotalTrades int     `json:"totalTrades"`
	Wins        int     `json:"wins"`
	Losses      int     `json:"losses"`
	Breakevens  int     `json:"breakevens"`
	WinRate     float64 `json:"winRate"` // percent of decided trades
	NetProfit   float64 `json:"netProfit"`
	TotalPips   float64 `json:"totalPips"`
	AverageRR   float64 `json:"averageRR"` // mean of recorded actual RRs

	ByMarket map[string]*MarketStats `json:"byMarket"`
	ByPair   map[string]*PairStats   `json:"byPair"`
}

type MarketStats struct {
	Trades    int     `json:"trades"`
	NetProfit float64 `json:"netProfit"`
}

type PairStats struct {
	Trades    int     `json:"trades"`
	Wins      int     `json:"wins"`
	NetProfit float64 `json:"netProfit"`
}

type StatsProcessor struct{}

func NewStatsProcessor() *StatsProcessor {
	return &StatsProcessor{}
}

// Process aggregates the stored trades of one account into dashboard
// statistics. Breakevens count toward totals but not toward the win rate.
func (p *StatsProcessor) Process(trades []models.CanonicalTrade) *JournalStats {
	stats := &JournalStats{
		ByMarket: make(map[string]*MarketStats),
		ByPair:   make(map[string]*PairStats),
	}

	var rrSum float64
	var rrCount int

	for i := range trades {
		t := &trades[i]
		stats.TotalTrades++
		stats.NetProfit += t.ProfitLoss
		stats.TotalPips += t.PipValue

		switch t.Outcome {
		case models.OutcomeWin:
			stats.Wins++
		case models.OutcomeLoss:
			stats.Losses++
		default:
			stats.Breakevens++
		}

		if t.ActualRR != nil {
			rrSum += *t.ActualRR
			rrCount++
		}

		market := stats.ByMarket[t.MarketType]
		if market == nil {
			market = &MarketStats{}
			stats.ByMarket[t.MarketType] = market
		}
		market.Trades++
		market.NetProfit += t.ProfitLoss

		pair := stats.ByPair[t.Pair]
		if pair == nil {
			pair = &PairStats{}
			stats.ByPair[t.Pair] = pair
		}
		pair.Trades++
		pair.NetProfit += t.ProfitLoss
		if t.Outcome == models.OutcomeWin {
			pair.Wins++
		}
	}

	decided := stats.Wins + stats.Losses
	if decided > 0 {
		stats.WinRate = utils.RoundFloat(float64(stats.Wins)/float64(decided)*100, 2)
	}
	if rrCount > 0 {
		stats.AverageRR = utils.RoundFloat(rrSum/float64(rrCount), 2)
	}

	return stats
}
