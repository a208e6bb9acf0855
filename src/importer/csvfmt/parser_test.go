package csvfmt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/tradevault/backend/src/importer"
	"github.com/username/tradevault/backend/src/models"
)

type fakePairStore struct{}

func (fakePairStore) Insert(pair *models.PairRecord) error               { return nil }
func (fakePairStore) UpdateMarketType(id int64, marketType string) error { return nil }

func newTestContext(t *testing.T) *importer.Context {
	t.Helper()
	classifier := importer.NewMarketClassifier(fakePairStore{}, nil)
	ctx, err := importer.NewContext(1, importer.FormatCSV, "UTC", "UTC", "USD",
		nil, classifier, importer.NewDedupeIndex(1, nil))
	require.NoError(t, err)
	return ctx
}

const sampleCSV = `Open Time,Close Time,Symbol,Type,Lots,Open Price,Close Price,S/L,T/P,Commission,Swap,Profit,Pips,Ticket
2024-03-15 10:30:00,2024-03-15 11:30:00,EURUSD,buy,1,1.10000,1.10500,1.09500,1.11000,-7,0,500,50,9001
2024-03-15 12:00:00,2024-03-15 12:45:00,GBPUSD,sell,0.5,1.26500,1.26000,1.27000,1.25500,-3.5,0,250,50,9002
,,,,,,,,,,,,,
2024-03-15 13:00:00,2024-03-15 13:30:00,EURUSD,hold,1,1.10000,1.10100,0,0,0,0,100,10,9003
`

func TestParseCSV(t *testing.T) {
	t.Parallel()

	result, err := NewParser().Parse(strings.NewReader(sampleCSV), newTestContext(t))
	require.NoError(t, err)

	require.Len(t, result.Trades, 2)
	require.Len(t, result.Skipped, 1)

	first := result.Trades[0]
	assert.Equal(t, "EURUSD", first.Pair)
	assert.Equal(t, "buy", first.Position)
	assert.Equal(t, "2024-03-15", first.Date)
	assert.Equal(t, "10:30", first.TradeTime)
	assert.Equal(t, "9001", first.PositionID)
	assert.Equal(t, 60, first.HoldTime)
	assert.Equal(t, models.OutcomeWin, first.Outcome)
	assert.InDelta(t, 50, first.PipValue, 0.01)

	second := result.Trades[1]
	assert.Equal(t, "GBPUSD", second.Pair)
	assert.Equal(t, "sell", second.Position)
	assert.Equal(t, 45, second.HoldTime)

	assert.Contains(t, result.Skipped[0].Reason, "Invalid position")
	assert.Equal(t, 5, result.Skipped[0].Row)
}

func TestParseCSVSemicolonDelimited(t *testing.T) {
	t.Parallel()

	csv := strings.ReplaceAll(sampleCSV, ",", ";")
	result, err := NewParser().Parse(strings.NewReader(csv), newTestContext(t))
	require.NoError(t, err)

	require.Len(t, result.Trades, 2)
	assert.Equal(t, "EURUSD", result.Trades[0].Pair)
	assert.Equal(t, "GBPUSD", result.Trades[1].Pair)
}

func TestParseCSVMissingRequiredColumn(t *testing.T) {
	t.Parallel()

	csv := "Open Time,Type,Profit\n2024-03-15 10:30:00,buy,500\n"
	_, err := NewParser().Parse(strings.NewReader(csv), newTestContext(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "symbol")
}

func TestParseCSVDuplicateRows(t *testing.T) {
	t.Parallel()

	csv := `Open Time,Symbol,Type,Profit,Ticket
2024-03-15 10:30:00,EURUSD,buy,500,9001
2024-03-15 10:30:00,EURUSD,buy,500,9001
`
	result, err := NewParser().Parse(strings.NewReader(csv), newTestContext(t))
	require.NoError(t, err)

	assert.Len(t, result.Trades, 1)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "Duplicate trade", result.Skipped[0].Reason)
}

func TestParseCSVReimportIsIdempotent(t *testing.T) {
	t.Parallel()

	first, err := NewParser().Parse(strings.NewReader(sampleCSV), newTestContext(t))
	require.NoError(t, err)
	require.Len(t, first.Trades, 2)

	// Second pass over the same file, with the first pass's accepted trades
	// standing in for previously committed rows.
	classifier := importer.NewMarketClassifier(fakePairStore{}, nil)
	ctx, err := importer.NewContext(1, importer.FormatCSV, "UTC", "UTC", "USD",
		nil, classifier, importer.NewDedupeIndex(1, first.Trades))
	require.NoError(t, err)

	second, err := NewParser().Parse(strings.NewReader(sampleCSV), ctx)
	require.NoError(t, err)

	assert.Empty(t, second.Trades)
	duplicates := 0
	for _, s := range second.Skipped {
		if s.Reason == "Duplicate trade" {
			duplicates++
		}
	}
	assert.Equal(t, 2, duplicates)
}

func TestParseCSVEmptyFile(t *testing.T) {
	t.Parallel()

	_, err := NewParser().Parse(strings.NewReader(""), newTestContext(t))
	assert.Error(t, err)
}
