package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/tradevault/backend/src/models"
)

// memPairStore is the in-memory PairStore used across the package tests.
type memPairStore struct {
	inserted  []models.PairRecord
	backfills map[int64]string
}

func newMemPairStore() *memPairStore {
	return &memPairStore{backfills: map[int64]string{}}
}

func (s *memPairStore) Insert(pair *models.PairRecord) error {
	pair.ID = int64(len(s.inserted) + 1)
	s.inserted = append(s.inserted, *pair)
	return nil
}

func (s *memPairStore) UpdateMarketType(id int64, marketType string) error {
	s.backfills[id] = marketType
	return nil
}

func TestDefaultMarketType(t *testing.T) {
	t.Parallel()

	assert.Equal(t, models.MarketIndices, DefaultMarketType("US30"))
	assert.Equal(t, models.MarketIndices, DefaultMarketType("NAS100"))
	assert.Equal(t, models.MarketCommodities, DefaultMarketType("XAUUSD"))
	assert.Equal(t, models.MarketForex, DefaultMarketType("EURUSD"))
	assert.Equal(t, models.MarketForex, DefaultMarketType("SOMETHING"))
}

func TestClassifyNewSymbolPersists(t *testing.T) {
	t.Parallel()

	store := newMemPairStore()
	c := NewMarketClassifier(store, nil)

	mt, err := c.Classify("XAUUSD")
	require.NoError(t, err)
	assert.Equal(t, models.MarketCommodities, mt)

	require.Len(t, store.inserted, 1)
	assert.Equal(t, "XAUUSD", store.inserted[0].Name)
	assert.Equal(t, models.MarketCommodities, store.inserted[0].MarketType)

	// Second sighting comes from the in-memory map, no second insert.
	mt, err = c.Classify("XAUUSD")
	require.NoError(t, err)
	assert.Equal(t, models.MarketCommodities, mt)
	assert.Len(t, store.inserted, 1)
}

func TestClassifyRespectsExistingRecord(t *testing.T) {
	t.Parallel()

	store := newMemPairStore()
	known := []models.PairRecord{{ID: 7, Name: "BTCUSD", MarketType: models.MarketCrypto}}
	c := NewMarketClassifier(store, known)

	mt, err := c.Classify("BTCUSD")
	require.NoError(t, err)
	assert.Equal(t, models.MarketCrypto, mt)
	assert.Empty(t, store.inserted)
}

func TestClassifyBackfillsLegacyRecord(t *testing.T) {
	t.Parallel()

	store := newMemPairStore()
	known := []models.PairRecord{{ID: 3, Name: "US30", MarketType: ""}}
	c := NewMarketClassifier(store, known)

	mt, err := c.Classify("US30")
	require.NoError(t, err)
	assert.Equal(t, models.MarketIndices, mt)
	assert.Equal(t, models.MarketIndices, store.backfills[3])
}

func TestClassifyInvalidMarketType(t *testing.T) {
	t.Parallel()

	store := newMemPairStore()
	known := []models.PairRecord{{ID: 1, Name: "EURUSD", MarketType: "bonds"}}
	c := NewMarketClassifier(store, known)

	_, err := c.Classify("EURUSD")
	assert.Error(t, err)

	_, err = c.Classify("")
	assert.Error(t, err)
}

func TestClassifierPairsIncludesBatchRecords(t *testing.T) {
	t.Parallel()

	store := newMemPairStore()
	c := NewMarketClassifier(store, []models.PairRecord{{ID: 1, Name: "EURUSD", MarketType: models.MarketForex}})

	_, err := c.Classify("GBPUSD")
	require.NoError(t, err)

	names := map[string]bool{}
	for _, p := range c.Pairs() {
		names[p.Name] = true
	}
	assert.True(t, names["EURUSD"])
	assert.True(t, names["GBPUSD"])
}
