package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFuzzyMatchIdentical(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 100.0, FuzzyMatch("Symbol", "Symbol"))
	assert.Equal(t, 100.0, FuzzyMatch("Open Time", "open_time"))
	assert.Equal(t, 100.0, FuzzyMatch("Net USD", "net usd"))
}

func TestFuzzyMatchEmpty(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, FuzzyMatch("", "Symbol"))
	assert.Equal(t, 0.0, FuzzyMatch("Symbol", ""))
	assert.Equal(t, 0.0, FuzzyMatch("---", "Symbol"))
}

func TestFuzzyMatchDecoratedHeader(t *testing.T) {
	t.Parallel()

	// Real cTrader exports decorate headers with the report timezone.
	score := FuzzyMatch("Opening time", "Opening time (UTC-4)")
	assert.GreaterOrEqual(t, score, float64(FuzzyThreshold))

	score = FuzzyMatch("Closing time", "Closing time (UTC-4)")
	assert.GreaterOrEqual(t, score, float64(FuzzyThreshold))
}

func TestFuzzyMatchUnrelatedHeaders(t *testing.T) {
	t.Parallel()

	score := FuzzyMatch("Opening direction", "Random Unrelated Header")
	assert.Less(t, score, float64(FuzzyThreshold))

	score = FuzzyMatch("Symbol", "Commission")
	assert.Less(t, score, float64(FuzzyThreshold))
}

func TestFuzzyMatchBonusCapped(t *testing.T) {
	t.Parallel()

	// Both bonuses apply but the score never exceeds 100.
	score := FuzzyMatch("Open time", "Open time")
	assert.Equal(t, 100.0, score)

	score = FuzzyMatch("Opening time", "Opening times")
	assert.LessOrEqual(t, score, 100.0)
	assert.GreaterOrEqual(t, score, float64(FuzzyThreshold))
}
