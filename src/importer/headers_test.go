package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapHeadersCSV(t *testing.T) {
	t.Parallel()

	headers := []string{
		"Open Time", "Close Time", "Symbol", "Type", "Lots",
		"Open Price", "Close Price", "S/L", "T/P",
		"Commission", "Swap", "Profit", "Pips", "Ticket",
	}

	mapping, missing, err := MapHeaders(FormatCSV, headers)
	require.NoError(t, err)
	assert.Empty(t, missing)

	assert.Equal(t, 0, mapping[FieldEntryDatetime])
	assert.Equal(t, 1, mapping[FieldExitDatetime])
	assert.Equal(t, 2, mapping[FieldSymbol])
	assert.Equal(t, 3, mapping[FieldPosition])
	assert.Equal(t, 4, mapping[FieldLotSize])
	assert.Equal(t, 5, mapping[FieldEntryPrice])
	assert.Equal(t, 6, mapping[FieldExitPrice])
	assert.Equal(t, 7, mapping[FieldSLPrice])
	assert.Equal(t, 8, mapping[FieldTakeProfit])
	assert.Equal(t, 11, mapping[FieldProfitLoss])
	assert.Equal(t, 12, mapping[FieldPips])
	assert.Equal(t, 13, mapping[FieldPositionID])
}

func TestMapHeadersGenericPriceColumns(t *testing.T) {
	t.Parallel()

	headers := []string{"Time", "Symbol", "Type", "Price_1", "Price_2"}

	mapping, missing, err := MapHeaders(FormatCSV, headers)
	require.NoError(t, err)
	assert.Empty(t, missing)

	// Numbered generic price columns override the alias pass: first is the
	// entry, second is the exit.
	assert.Equal(t, 3, mapping[FieldEntryPrice])
	assert.Equal(t, 4, mapping[FieldExitPrice])
	assert.Equal(t, 0, mapping[FieldEntryDatetime])
}

func TestMapHeadersGenericPriceIsCSVOnly(t *testing.T) {
	t.Parallel()

	headers := []string{"Time", "Position", "Symbol", "Type", "Price_1", "Price_2"}

	mapping, _, err := MapHeaders(FormatCSV, headers)
	require.NoError(t, err)
	assert.Equal(t, 4, mapping[FieldEntryPrice])
	assert.Equal(t, 5, mapping[FieldExitPrice])

	// MT5 reports never number their price columns; the override must not
	// kick in there.
	mapping, _, err = MapHeaders(FormatMT5, headers)
	require.NoError(t, err)
	assert.NotContains(t, mapping, FieldEntryPrice)
	assert.NotContains(t, mapping, FieldExitPrice)
}

func TestMapHeadersMT5DuplicateColumns(t *testing.T) {
	t.Parallel()

	// Real MT5 reports repeat "Time" and "Price" for the open and close legs
	// and use "Position" for the ticket number.
	headers := []string{
		"Time", "Position", "Symbol", "Type", "Volume", "Price",
		"S / L", "T / P", "Time", "Price", "Commission", "Swap", "Profit",
	}

	mapping, missing, err := MapHeaders(FormatMT5, headers)
	require.NoError(t, err)
	assert.Empty(t, missing)

	assert.Equal(t, 0, mapping[FieldEntryDatetime])
	assert.Equal(t, 8, mapping[FieldExitDatetime])
	assert.Equal(t, 1, mapping[FieldPositionID])
	assert.Equal(t, 3, mapping[FieldPosition])
	assert.Equal(t, 5, mapping[FieldEntryPrice])
	assert.Equal(t, 9, mapping[FieldExitPrice])
	assert.Equal(t, 6, mapping[FieldSLPrice])
	assert.Equal(t, 7, mapping[FieldTakeProfit])
}

func TestMapHeadersMissingRequired(t *testing.T) {
	t.Parallel()

	mapping, missing, err := MapHeaders(FormatCSV, []string{"Open Time", "Type", "Profit"})
	require.NoError(t, err)

	assert.NotContains(t, mapping, FieldSymbol)
	assert.Equal(t, []string{FieldSymbol}, missing)
}

func TestMapHeadersUnknownFormat(t *testing.T) {
	t.Parallel()

	_, _, err := MapHeaders("xlsx", []string{"Symbol"})
	assert.Error(t, err)
}

func TestMapHeadersFuzzy(t *testing.T) {
	t.Parallel()

	headers := []string{
		"Symbol", "Opening time (UTC-4)", "Closing time (UTC-4)",
		"Opening direction", "Closing volume", "Entry price",
		"Closing price", "Net USD",
	}

	mapping, missing := MapHeadersFuzzy(headers, nil)
	assert.Empty(t, missing)

	assert.Equal(t, 0, mapping[FieldSymbol])
	assert.Equal(t, 1, mapping[FieldEntryDatetime])
	assert.Equal(t, 2, mapping[FieldExitDatetime])
	assert.Equal(t, 3, mapping[FieldPosition])
	assert.Equal(t, 4, mapping[FieldLotSize])
	assert.Equal(t, 5, mapping[FieldEntryPrice])
	assert.Equal(t, 6, mapping[FieldExitPrice])
	assert.Equal(t, 7, mapping[FieldProfitLoss])
}

func TestMapHeadersFuzzyUnmapped(t *testing.T) {
	t.Parallel()

	_, missing := MapHeadersFuzzy([]string{"Alpha", "Beta", "Gamma"}, nil)
	assert.Equal(t, []string{FieldEntryDatetime, FieldPosition, FieldSymbol}, missing)
}

func TestMapHeadersFuzzyOverrides(t *testing.T) {
	t.Parallel()

	headers := []string{"Col A", "Col B", "Col C", "Net USD"}

	overrides := HeaderMapping{
		FieldEntryDatetime: 0,
		FieldSymbol:        1,
		FieldPosition:      2,
	}
	mapping, missing := MapHeadersFuzzy(headers, overrides)

	assert.Empty(t, missing)
	assert.Equal(t, 0, mapping[FieldEntryDatetime])
	assert.Equal(t, 1, mapping[FieldSymbol])
	assert.Equal(t, 2, mapping[FieldPosition])
	assert.Equal(t, 3, mapping[FieldProfitLoss])
}

func TestMapHeadersFuzzyOverrideOutOfRange(t *testing.T) {
	t.Parallel()

	_, missing := MapHeadersFuzzy([]string{"Symbol"}, HeaderMapping{FieldEntryDatetime: 9})
	assert.Contains(t, missing, FieldEntryDatetime)
}
