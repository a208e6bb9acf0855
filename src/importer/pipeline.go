package importer

import (
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/username/tradevault/backend/src/models"
)

// Context carries the per-batch state every parser and the shared
// finalization step need: timezone pair, multiplier configuration, the
// classifier and dedupe index, and the id sequence. One Context serves one
// file import and is not reused.
type Context struct {
	AccountID    int64
	Format       string
	BaseCurrency string

	SourceTimezone string
	TargetTimezone string
	SourceLoc      *time.Location
	TargetLoc      *time.Location

	Multipliers *models.BrokerMultipliers
	Classifier  *MarketClassifier
	Dedupe      *DedupeIndex

	// Manual header overrides for the cTrader fallback flow.
	HeaderOverrides HeaderMapping

	idSeq int64
}

// NewContext resolves the timezone pair and wires up the collaborators.
// Unknown zone names are a file-level error: nothing row-shaped exists yet.
func NewContext(accountID int64, format, sourceTZ, targetTZ, baseCurrency string,
	multipliers *models.BrokerMultipliers, classifier *MarketClassifier, dedupe *DedupeIndex) (*Context, error) {

	sourceLoc, err := time.LoadLocation(sourceTZ)
	if err != nil {
		return nil, fmt.Errorf("unknown source timezone '%s': %w", sourceTZ, err)
	}
	targetLoc, err := time.LoadLocation(targetTZ)
	if err != nil {
		return nil, fmt.Errorf("unknown target timezone '%s': %w", targetTZ, err)
	}
	if multipliers == nil {
		multipliers = models.DefaultBrokerMultipliers()
	}

	return &Context{
		AccountID:      accountID,
		Format:         format,
		BaseCurrency:   baseCurrency,
		SourceTimezone: sourceTZ,
		TargetTimezone: targetTZ,
		SourceLoc:      sourceLoc,
		TargetLoc:      targetLoc,
		Multipliers:    multipliers,
		Classifier:     classifier,
		Dedupe:         dedupe,
		idSeq:          time.Now().UnixMilli(),
	}, nil
}

// nextID hands out synthetic time-based trade ids, unique within and across
// batches on the same machine.
func (c *Context) nextID() int64 {
	return atomic.AddInt64(&c.idSeq, 1)
}

// RawRow is one extracted table row: canonical field name -> raw cell value,
// plus the 1-based row number for diagnostics.
type RawRow struct {
	Row    int
	Fields map[string]string
}

func (r RawRow) get(field string) string {
	return strings.TrimSpace(r.Fields[field])
}

// FinalizeRow runs the shared normalization steps on one extracted row:
// symbol cleanup, position resolution, datetime conversion, market
// classification, metric derivation, duplicate rejection. It returns either
// a canonical trade or the skip diagnostic — never both, never neither.
func FinalizeRow(ctx *Context, raw RawRow) (*models.CanonicalTrade, *models.SkipRecord) {
	skip := func(reason, symbol string) (*models.CanonicalTrade, *models.SkipRecord) {
		return nil, &models.SkipRecord{
			Row:    raw.Row,
			Reason: reason,
			Record: raw.Fields,
			Symbol: symbol,
		}
	}

	symbol := CleanSymbol(raw.get(FieldSymbol))
	if symbol == "" {
		return skip("Missing symbol", "")
	}

	profitLoss := ParseBrokerFloat(raw.get(FieldProfitLoss))

	position, err := ResolvePosition(raw.get(FieldPosition), profitLoss)
	if err != nil {
		return skip(fmt.Sprintf("Invalid position: %v", err), symbol)
	}

	entryDT, err := ParseDatetime(raw.get(FieldEntryDatetime), ctx.Format, ctx.SourceLoc, ctx.TargetLoc)
	if err != nil {
		return skip(fmt.Sprintf("Invalid entry datetime: %v", err), symbol)
	}

	// A missing exit datetime is a legitimately open/unspecified exit, not
	// an error.
	var exitDT *NormalizedDatetime
	if rawExit := raw.get(FieldExitDatetime); rawExit != "" {
		exitDT, err = ParseDatetime(rawExit, ctx.Format, ctx.SourceLoc, ctx.TargetLoc)
		if err != nil {
			return skip(fmt.Sprintf("Invalid exit datetime: %v", err), symbol)
		}
	}

	marketType, err := ctx.Classifier.Classify(symbol)
	if err != nil {
		return skip(fmt.Sprintf("Invalid market type: %v", err), symbol)
	}

	lotSize := ParseBrokerFloat(raw.get(FieldLotSize))
	entryPrice := ParseBrokerFloat(raw.get(FieldEntryPrice))
	exitPrice := ParseBrokerFloat(raw.get(FieldExitPrice))
	slPrice := ParseBrokerFloat(raw.get(FieldSLPrice))
	takeProfit := ParseBrokerFloat(raw.get(FieldTakeProfit))
	commission := ParseBrokerFloat(raw.get(FieldCommission))
	swap := ParseBrokerFloat(raw.get(FieldSwap))
	csvPips := ParseBrokerFloat(raw.get(FieldPips))

	var pipValue float64
	if ctx.Format == FormatCSV {
		pipValue = CsvPipValue(entryPrice, exitPrice, position, marketType, symbol, csvPips, ctx.Multipliers)
	} else {
		pipValue = PipValue(entryPrice, exitPrice, position, marketType, symbol, ctx.Multipliers)
	}

	plannedRisk := MarketRisk(entryPrice, slPrice, lotSize, marketType, symbol, ctx.BaseCurrency, ctx.Multipliers)

	trade := &models.CanonicalTrade{
		ID:         ctx.nextID(),
		AccountID:  ctx.AccountID,
		Date:       entryDT.Date,
		TradeTime:  entryDT.Time,
		Pair:       symbol,
		Position:   position,
		LotSize:    lotSize,
		EntryPrice: entryPrice,
		ExitPrice:  exitPrice,
		SLPrice:    slPrice,
		TakeProfit: takeProfit,
		Commission: commission,
		Swap:       swap,
		ProfitLoss: profitLoss,

		PipValue:    pipValue,
		StopLoss:    StopLossDistance(entryPrice, slPrice, marketType, symbol, ctx.Multipliers),
		HoldTime:    HoldTimeMinutes(entryDT, exitDT),
		Outcome:     Outcome(profitLoss),
		PlannedRR:   PlannedRR(entryPrice, slPrice, takeProfit, marketType, symbol, ctx.Multipliers),
		ActualRR:    ActualRR(entryPrice, slPrice, exitPrice, position, marketType, symbol, ctx.Multipliers),
		PlannedRisk: plannedRisk,
		ActualRisk:  actualRisk(profitLoss),

		PositionID: raw.get(FieldPositionID),
		MarketType: marketType,
	}
	if exitDT != nil {
		trade.ExitTime = exitDT.Time
	}

	if !ctx.Dedupe.TryAccept(trade) {
		return skip("Duplicate trade", symbol)
	}
	return trade, nil
}

// actualRisk is the account-currency amount the trade actually lost; wins and
// breakevens have no realized risk figure.
func actualRisk(profitLoss float64) *float64 {
	if profitLoss >= 0 {
		return nil
	}
	v := -profitLoss
	return &v
}

// CleanSymbol uppercases a broker symbol and strips decoration suffixes
// brokers append to instrument names (EURUSD.r, GBPUSD#, XAUUSD!m).
func CleanSymbol(raw string) string {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if i := strings.IndexAny(s, ".#!"); i >= 0 {
		s = s[:i]
	}
	return s
}

var buyTokens = map[string]bool{
	"buy": true, "long": true, "b": true, "bought": true,
}

var sellTokens = map[string]bool{
	"sell": true, "short": true, "s": true, "sold": true,
}

// ResolvePosition turns a broker side token into "buy" or "sell". Sources
// that record the outcome (win/loss) instead of the side fall back to the
// profit sign. Anything else rejects the row.
func ResolvePosition(token string, profitLoss float64) (string, error) {
	t := strings.ToLower(strings.TrimSpace(token))
	if t == "" {
		return "", fmt.Errorf("empty position value")
	}
	switch {
	case buyTokens[t]:
		return "buy", nil
	case sellTokens[t]:
		return "sell", nil
	case t == "win" || t == "loss":
		if profitLoss >= 0 {
			return "buy", nil
		}
		return "sell", nil
	}
	return "", fmt.Errorf("unrecognized position value '%s'", token)
}

// ParseBrokerFloat parses numbers the way broker exports actually write
// them: thousands separators, comma decimals, stray spaces. Empty or
// unparseable values become 0 — absent prices are modeled as zero throughout
// the metrics.
func ParseBrokerFloat(raw string) float64 {
	s := strings.TrimSpace(raw)
	if s == "" || s == "-" {
		return 0
	}
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	if strings.Contains(s, ",") && strings.Contains(s, ".") {
		s = strings.ReplaceAll(s, ",", "")
	} else if strings.Contains(s, ",") {
		// Without a dot a comma is ambiguous. Several commas, or a single
		// comma followed by exactly three digits, read as thousands
		// separators; anything else is a decimal comma.
		last := strings.LastIndexByte(s, ',')
		if strings.Count(s, ",") > 1 || len(s)-last-1 == 3 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
