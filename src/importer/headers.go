package importer

import (
	"fmt"
	"sort"
	"strings"
)

// Canonical field names the pipeline consumes. Parsers populate RawRow maps
// keyed by these.
const (
	FieldEntryDatetime = "entry_datetime"
	FieldExitDatetime  = "exit_datetime"
	FieldSymbol        = "symbol"
	FieldPosition      = "position"
	FieldLotSize       = "lot_size"
	FieldEntryPrice    = "entry_price"
	FieldExitPrice     = "exit_price"
	FieldSLPrice       = "sl_price"
	FieldTakeProfit    = "take_profit"
	FieldCommission    = "commission"
	FieldSwap          = "swap"
	FieldProfitLoss    = "profit_loss"
	FieldPips          = "pips"
	FieldPositionID    = "position_id"
)

// RequiredFields must resolve to a column for every format, or the import of
// that file halts before any row is processed.
var RequiredFields = []string{FieldEntryDatetime, FieldPosition, FieldSymbol}

// HeaderMapping maps a canonical field name to its column index in the
// source table.
type HeaderMapping map[string]int

// formatSpec describes how one format's headers resolve to canonical fields.
// Order matters: the first unmapped field whose alias list accepts a header
// wins it, which is how duplicated "Time"/"Price" columns in MT5 reports land
// on entry vs exit fields.
type formatSpec struct {
	order   []string
	aliases map[string][]string
}

var csvSpec = formatSpec{
	order: []string{
		FieldEntryDatetime, FieldExitDatetime, FieldSymbol, FieldPosition,
		FieldLotSize, FieldEntryPrice, FieldExitPrice, FieldSLPrice,
		FieldTakeProfit, FieldCommission, FieldSwap, FieldProfitLoss,
		FieldPips, FieldPositionID,
	},
	aliases: map[string][]string{
		FieldEntryDatetime: {"Open Time", "Open Date", "Opening Time", "Entry Time", "Time", "Date"},
		FieldExitDatetime:  {"Close Time", "Closing Time", "Exit Time"},
		FieldSymbol:        {"Symbol", "Pair", "Instrument", "Market"},
		FieldPosition:      {"Type", "Side", "Position", "Direction", "Action", "Buy/Sell", "Result"},
		FieldLotSize:       {"Lots", "Lot Size", "Volume", "Size", "Quantity"},
		FieldEntryPrice:    {"Open Price", "Entry Price", "Opening Price"},
		FieldExitPrice:     {"Close Price", "Exit Price", "Closing Price"},
		FieldSLPrice:       {"S/L", "S / L", "SL", "Stop Loss"},
		FieldTakeProfit:    {"T/P", "T / P", "TP", "Take Profit"},
		FieldCommission:    {"Commission", "Comm"},
		FieldSwap:          {"Swap", "Rollover"},
		FieldProfitLoss:    {"Profit", "P/L", "Profit/Loss", "Net Profit", "PnL"},
		FieldPips:          {"Pips", "Pips Gained"},
		FieldPositionID:    {"Position ID", "Order", "Order ID", "Ticket", "Deal", "ID"},
	},
}

// MT5 reports label the position identifier column "Position" and the side
// column "Type", so position_id resolves ahead of position here.
var mt5Spec = formatSpec{
	order: []string{
		FieldEntryDatetime, FieldExitDatetime, FieldPositionID, FieldSymbol,
		FieldPosition, FieldLotSize, FieldEntryPrice, FieldExitPrice,
		FieldSLPrice, FieldTakeProfit, FieldCommission, FieldSwap,
		FieldProfitLoss, FieldPips,
	},
	aliases: map[string][]string{
		FieldEntryDatetime: {"Time", "Open Time"},
		FieldExitDatetime:  {"Time", "Close Time"},
		FieldPositionID:    {"Position", "Ticket", "Order", "Deal"},
		FieldSymbol:        {"Symbol"},
		FieldPosition:      {"Type"},
		FieldLotSize:       {"Volume", "Lots"},
		FieldEntryPrice:    {"Price", "Open Price"},
		FieldExitPrice:     {"Price", "Close Price"},
		FieldSLPrice:       {"S/L", "S / L", "SL"},
		FieldTakeProfit:    {"T/P", "T / P", "TP"},
		FieldCommission:    {"Commission"},
		FieldSwap:          {"Swap"},
		FieldProfitLoss:    {"Profit"},
		FieldPips:          {"Pips"},
	},
}

// ctraderAliases feed the fuzzy scorer rather than exact matching; headers in
// real cTrader statements carry decorations like "Opening time (UTC-4)".
var ctraderSpec = formatSpec{
	order: []string{
		FieldEntryDatetime, FieldExitDatetime, FieldSymbol, FieldPosition,
		FieldLotSize, FieldEntryPrice, FieldExitPrice, FieldSLPrice,
		FieldTakeProfit, FieldCommission, FieldSwap, FieldProfitLoss,
		FieldPips, FieldPositionID,
	},
	aliases: map[string][]string{
		FieldEntryDatetime: {"Opening time", "Open time", "Entry time"},
		FieldExitDatetime:  {"Closing time", "Close time", "Exit time"},
		FieldSymbol:        {"Symbol", "Instrument"},
		FieldPosition:      {"Opening direction", "Direction", "Side", "Type"},
		FieldLotSize:       {"Closing volume", "Volume", "Lots", "Quantity"},
		FieldEntryPrice:    {"Entry price", "Opening price"},
		FieldExitPrice:     {"Closing price", "Close price", "Exit price"},
		FieldSLPrice:       {"Stop loss", "SL"},
		FieldTakeProfit:    {"Take profit", "TP"},
		FieldCommission:    {"Commission"},
		FieldSwap:          {"Swap", "Rollover"},
		FieldProfitLoss:    {"Net USD", "Net profit", "Profit"},
		FieldPips:          {"Pips"},
		FieldPositionID:    {"Position ID", "Order ID", "Deal ID"},
	},
}

func specForFormat(format string) (formatSpec, error) {
	switch format {
	case FormatCSV:
		return csvSpec, nil
	case FormatMT5:
		return mt5Spec, nil
	case FormatCtrader:
		return ctraderSpec, nil
	}
	return formatSpec{}, fmt.Errorf("no header spec for format: %s", format)
}

// MapHeaders resolves raw column headers to canonical fields for the exact
// matching formats (CSV and MT5). A header satisfies a field when it appears
// in the field's alias list, or when the lowercased header contains the field
// name with underscores removed. The first header satisfying an unmapped
// field wins it; mapped fields are never re-matched.
//
// Generic "Price"/"Price_1"/"Price_2" columns are resolved up front: the
// first maps to entry_price and the second to exit_price, overriding whatever
// the alias pass would have chosen.
//
// The second return value lists required fields that failed to resolve.
func MapHeaders(format string, headers []string) (HeaderMapping, []string, error) {
	spec, err := specForFormat(format)
	if err != nil {
		return nil, nil, err
	}

	mapping := HeaderMapping{}
	usedCols := map[int]bool{}

	// Generic price column override, a CSV-only convention. MT5 resolves its
	// repeated "Price" columns through alias order instead.
	if format == FormatCSV {
		var priceCols []int
		for i, h := range headers {
			if isGenericPriceHeader(h) {
				priceCols = append(priceCols, i)
			}
		}
		if len(priceCols) >= 1 {
			mapping[FieldEntryPrice] = priceCols[0]
			usedCols[priceCols[0]] = true
		}
		if len(priceCols) >= 2 {
			mapping[FieldExitPrice] = priceCols[1]
			usedCols[priceCols[1]] = true
		}
	}

	for col, header := range headers {
		if usedCols[col] {
			continue
		}
		for _, field := range spec.order {
			if _, done := mapping[field]; done {
				continue
			}
			if headerMatchesField(header, field, spec.aliases[field]) {
				mapping[field] = col
				usedCols[col] = true
				break
			}
		}
	}

	return mapping, missingRequired(mapping), nil
}

// MapHeadersFuzzy resolves cTrader headers against the cTrader alias lists
// using the positional similarity score. Fields resolve in fixed order and
// lock; each header can serve at most one field. Entries in overrides (field
// name -> column index) take precedence over scoring, which is how the
// manual-mapping fallback feeds back into the core.
func MapHeadersFuzzy(headers []string, overrides HeaderMapping) (HeaderMapping, []string) {
	mapping := HeaderMapping{}
	usedCols := map[int]bool{}

	for field, col := range overrides {
		if col >= 0 && col < len(headers) {
			mapping[field] = col
			usedCols[col] = true
		}
	}

	for _, field := range ctraderSpec.order {
		if _, done := mapping[field]; done {
			continue
		}
		bestCol := -1
		bestScore := 0.0
		for col, header := range headers {
			if usedCols[col] {
				continue
			}
			for _, alias := range ctraderSpec.aliases[field] {
				score := FuzzyMatch(alias, header)
				if score > bestScore {
					bestScore = score
					bestCol = col
				}
			}
		}
		if bestCol >= 0 && bestScore >= FuzzyThreshold {
			mapping[field] = bestCol
			usedCols[bestCol] = true
		}
	}

	return mapping, missingRequired(mapping)
}

func missingRequired(mapping HeaderMapping) []string {
	var missing []string
	for _, field := range RequiredFields {
		if _, ok := mapping[field]; !ok {
			missing = append(missing, field)
		}
	}
	sort.Strings(missing)
	return missing
}

func headerMatchesField(header, field string, aliases []string) bool {
	trimmed := strings.TrimSpace(header)
	for _, alias := range aliases {
		if strings.EqualFold(trimmed, alias) {
			return true
		}
	}
	compact := strings.ReplaceAll(field, "_", "")
	return strings.Contains(strings.ToLower(trimmed), compact)
}

// isGenericPriceHeader recognizes the ambiguous "Price" column and its
// numbered variants ("Price_1", "Price 2", ...).
func isGenericPriceHeader(header string) bool {
	h := strings.ToLower(strings.TrimSpace(header))
	if h == "price" {
		return true
	}
	for _, sep := range []string{"_", " "} {
		if rest, ok := strings.CutPrefix(h, "price"+sep); ok {
			if rest != "" && strings.Trim(rest, "0123456789") == "" {
				return true
			}
		}
	}
	return false
}
