package importer

import (
	"math"
	"strconv"
	"strings"

	"github.com/username/tradevault/backend/src/logger"
	"github.com/username/tradevault/backend/src/models"
)

// Two pip-size tables exist on purpose. The generic one serves MT5/cTrader
// imports, where no broker-reported pip column exists; the CSV-aware one uses
// the broker pipSize configuration (indices default 1.0 instead of 0.01) so
// its results can be reconciled against the CSV's own Pips column. Do not
// merge them: their defaults differ and both are observable in stored trades.

// PipSize is the generic per-market pip size. Forex honors the broker
// configuration when present; everything else uses 0.01.
func PipSize(marketType, symbol string, m *models.BrokerMultipliers) float64 {
	if m == nil {
		m = models.DefaultBrokerMultipliers()
	}
	if marketType == models.MarketForex {
		if strings.HasSuffix(symbol, "JPY") {
			return m.PipSize.ForexJPY
		}
		return m.PipSize.Forex
	}
	return 0.01
}

// CsvPipSize is the CSV-reconciled pip size: forex as above, other markets
// from the broker pipSize table (indices default 1.0).
func CsvPipSize(marketType, symbol string, m *models.BrokerMultipliers) float64 {
	if m == nil {
		m = models.DefaultBrokerMultipliers()
	}
	switch marketType {
	case models.MarketForex:
		if strings.HasSuffix(symbol, "JPY") {
			return m.PipSize.ForexJPY
		}
		return m.PipSize.Forex
	case models.MarketIndices:
		return m.PipSize.Indices
	case models.MarketCommodities:
		return m.PipSize.Commodities
	case models.MarketCrypto:
		return m.PipSize.Crypto
	default:
		return m.PipSize.Forex
	}
}

// PipValue computes the generic pip gain of a closed trade. Sell positions
// flip the sign; indices are divided by 10 to match the reporting convention
// the journal has always used for index trades.
func PipValue(entry, exit float64, position, marketType, symbol string, m *models.BrokerMultipliers) float64 {
	size := PipSize(marketType, symbol, m)
	if size == 0 {
		return 0
	}
	pips := (exit - entry) / size
	if position == "sell" {
		pips = -pips
	}
	if marketType == models.MarketIndices {
		pips /= 10
	}
	return pips
}

// CsvPipValue computes the pip gain for CSV imports and reconciles it against
// the broker-reported Pips column when one is present (csvPips != 0):
//
//   - indices where csvPips/computed is ~100: the broker reported points
//     scaled by 100, prefer csvPips/100
//   - indices where the ratio is ~10: our computed value is off by the x10
//     reporting convention, divide it by 10
//   - forex differing by more than 0.1 pips: trust the broker outright
//   - anything else: keep the computed value and log the mismatch
func CsvPipValue(entry, exit float64, position, marketType, symbol string, csvPips float64, m *models.BrokerMultipliers) float64 {
	size := CsvPipSize(marketType, symbol, m)
	if size == 0 {
		return 0
	}
	computed := (exit - entry) / size
	if position == "sell" {
		computed = -computed
	}
	if marketType == models.MarketForex {
		computed *= 10
	}

	if csvPips == 0 {
		return computed
	}

	if marketType == models.MarketIndices && computed != 0 {
		ratio := math.Abs(csvPips / computed)
		if ratio >= 90 && ratio <= 110 {
			return csvPips / 100
		}
		if ratio >= 9 && ratio <= 11 {
			return computed / 10
		}
	}
	if marketType == models.MarketForex && math.Abs(csvPips-computed) > 0.1 {
		return csvPips
	}

	if math.Abs(csvPips-computed) > 0.1 {
		logger.L.Debug("Pip value mismatch against broker-reported pips",
			"symbol", symbol, "computed", computed, "csvPips", csvPips)
	}
	return computed
}

// StopLossDistance is the stop distance in pips for forex and raw points for
// everything else. A zero/absent stop yields 0.
func StopLossDistance(entry, slPrice float64, marketType, symbol string, m *models.BrokerMultipliers) float64 {
	if slPrice == 0 {
		return 0
	}
	distance := math.Abs(entry - slPrice)
	if marketType == models.MarketForex {
		size := PipSize(marketType, symbol, m)
		if size == 0 {
			return 0
		}
		return distance / size
	}
	return distance
}

// marketMultiplier resolves the per-point account-currency multiplier for a
// market, honoring the XAU/XAG commodity contract exceptions.
func marketMultiplier(marketType, symbol string, m *models.BrokerMultipliers) float64 {
	switch marketType {
	case models.MarketForex:
		return m.Forex
	case models.MarketIndices:
		return m.Indices
	case models.MarketCommodities:
		if v, ok := m.CommoditiesExceptions[symbol]; ok {
			return v
		}
		return m.Commodities
	case models.MarketCrypto:
		return m.Crypto
	}
	return 0
}

// validatePrice is a market-aware plausibility check. Out-of-range prices
// only warn; a forex price that is non-positive or NaN fails hard because no
// downstream arithmetic can survive it.
func validatePrice(price float64, marketType, symbol string) bool {
	if marketType == models.MarketForex {
		if math.IsNaN(price) || price <= 0 {
			return false
		}
		if price < 0.1 || price > 10 {
			logger.L.Warn("Forex price outside typical range", "symbol", symbol, "price", price)
		}
		return true
	}
	if math.IsNaN(price) {
		return false
	}
	if marketType == models.MarketIndices && (price < 1000 || price > 50000) {
		logger.L.Warn("Index price outside typical range", "symbol", symbol, "price", price)
	}
	return true
}

// MarketRisk converts the stop distance into an account-currency amount:
// pips (forex) or points (everything else) times the per-point multiplier
// times the lot size. Returns nil when the inputs cannot produce a
// meaningful figure: invalid prices, a stop of exactly 0, or a non-positive
// lot. CAD-based accounts get the fixed conversion applied.
func MarketRisk(entry, slPrice, lotSize float64, marketType, symbol, baseCurrency string, m *models.BrokerMultipliers) *float64 {
	if m == nil {
		m = models.DefaultBrokerMultipliers()
	}
	if slPrice == 0 || lotSize <= 0 {
		return nil
	}
	if !validatePrice(entry, marketType, symbol) || !validatePrice(slPrice, marketType, symbol) {
		return nil
	}

	var risk float64
	if marketType == models.MarketForex {
		size := PipSize(marketType, symbol, m)
		if size == 0 {
			return nil
		}
		pips := math.Abs(entry-slPrice) / size
		risk = pips * marketMultiplier(marketType, symbol, m) * lotSize
	} else {
		points := math.Abs(entry - slPrice)
		risk = points * marketMultiplier(marketType, symbol, m) * lotSize
	}

	if baseCurrency == "CAD" {
		risk *= models.CADConversionRate
	}
	return &risk
}

// rrBound clamps reward:risk ratios; anything past it is noise from
// near-zero stops.
const rrBound = 10.0

// Minimum risk floors applied before dividing in ActualRR.
const (
	minRiskPointsDefault = 0.5
	minRiskPipsForex     = 5.0
)

// PlannedRR is the take-profit reward over the stop-loss risk, from the
// prices the trader planned with. Nil when either the stop or the take
// profit is absent. Clamped to [-10, 10] and rounded to 2 decimals.
func PlannedRR(entry, slPrice, takeProfit float64, marketType, symbol string, m *models.BrokerMultipliers) *float64 {
	if slPrice == 0 || takeProfit == 0 {
		return nil
	}
	if math.IsNaN(entry) || math.IsNaN(slPrice) || math.IsNaN(takeProfit) {
		return nil
	}
	risk := math.Abs(entry - slPrice)
	if risk == 0 {
		return nil
	}
	reward := math.Abs(takeProfit - entry)
	rr := clampRR(reward / risk)
	rr = PreciseRound(rr, 2)
	return &rr
}

// ActualRR is the realized reward over the planned risk, signed by position
// direction: a buy that exits below entry produces a negative ratio. The
// risk denominator is floored (5 pips forex, 0.5 points elsewhere) so a stop
// sitting on top of the entry cannot explode the ratio. Clamped to [-10, 10]
// and rounded to 2 decimals.
func ActualRR(entry, slPrice, exit float64, position, marketType, symbol string, m *models.BrokerMultipliers) *float64 {
	if slPrice == 0 {
		return nil
	}
	if math.IsNaN(entry) || math.IsNaN(slPrice) || math.IsNaN(exit) {
		return nil
	}

	var risk, reward float64
	if position == "sell" {
		risk = slPrice - entry
		reward = entry - exit
	} else {
		risk = entry - slPrice
		reward = exit - entry
	}

	floor := minRiskPointsDefault
	if marketType == models.MarketForex {
		size := PipSize(marketType, symbol, m)
		floor = minRiskPipsForex * size
	}
	if risk < floor {
		risk = floor
	}
	if risk == 0 {
		return nil
	}

	rr := clampRR(reward / risk)
	rr = PreciseRound(rr, 2)
	return &rr
}

func clampRR(rr float64) float64 {
	if rr > rrBound {
		return rrBound
	}
	if rr < -rrBound {
		return -rrBound
	}
	return rr
}

// PreciseRound rounds to the given number of decimals via the value's decimal
// string representation: the absolute value's fractional part is padded or
// truncated to decimals+2 digits and reparsed before the arithmetic round.
// The string stage matters — it pins values sitting on .xx5 boundaries that a
// bare math.Round(x*100)/100 would misround through binary representation
// error. Replacing this with a single floating rounding call changes stored
// RR values.
func PreciseRound(value float64, decimals int) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return value
	}
	neg := value < 0
	abs := math.Abs(value)

	s := strconv.FormatFloat(abs, 'f', -1, 64)
	intPart := s
	fracPart := ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		intPart = s[:i]
		fracPart = s[i+1:]
	}
	want := decimals + 2
	if len(fracPart) > want {
		fracPart = fracPart[:want]
	}
	for len(fracPart) < want {
		fracPart += "0"
	}
	padded, err := strconv.ParseFloat(intPart+"."+fracPart, 64)
	if err != nil {
		padded = abs
	}

	ratio := math.Pow(10, float64(decimals))
	out := math.Round(padded*ratio) / ratio
	if neg {
		out = -out
	}
	return out
}

// Outcome labels a trade from the sign of its reported profit.
func Outcome(profitLoss float64) string {
	switch {
	case profitLoss > 0:
		return models.OutcomeWin
	case profitLoss < 0:
		return models.OutcomeLoss
	default:
		return models.OutcomeBreakeven
	}
}
