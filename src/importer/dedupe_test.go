package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/username/tradevault/backend/src/models"
)

func sampleTrade(positionID string) *models.CanonicalTrade {
	return &models.CanonicalTrade{
		AccountID:  1,
		Date:       "2024-03-15",
		TradeTime:  "10:30",
		Pair:       "EURUSD",
		Position:   "buy",
		PositionID: positionID,
	}
}

func TestDedupeRejectsStoredTrade(t *testing.T) {
	t.Parallel()

	existing := []models.CanonicalTrade{*sampleTrade("123")}
	idx := NewDedupeIndex(1, existing)

	assert.False(t, idx.TryAccept(sampleTrade("123")))
	assert.True(t, idx.TryAccept(sampleTrade("456")))
}

func TestDedupeRejectsRepeatWithinBatch(t *testing.T) {
	t.Parallel()

	idx := NewDedupeIndex(1, nil)

	assert.True(t, idx.TryAccept(sampleTrade("123")))
	assert.False(t, idx.TryAccept(sampleTrade("123")))
	assert.Equal(t, 1, idx.Len())
}

func TestDedupeDistinguishesFields(t *testing.T) {
	t.Parallel()

	idx := NewDedupeIndex(1, nil)
	assert.True(t, idx.TryAccept(sampleTrade("123")))

	other := sampleTrade("123")
	other.TradeTime = "10:31"
	assert.True(t, idx.TryAccept(other))

	sell := sampleTrade("123")
	sell.Position = "sell"
	assert.True(t, idx.TryAccept(sell))
}

func TestDedupeFieldScanFallback(t *testing.T) {
	t.Parallel()

	// Even if the seeded key set were empty, the stored-list scan catches the
	// duplicate.
	existing := []models.CanonicalTrade{*sampleTrade("123")}
	idx := &DedupeIndex{keys: map[string]struct{}{}, existing: existing}

	assert.False(t, idx.TryAccept(sampleTrade("123")))
}
