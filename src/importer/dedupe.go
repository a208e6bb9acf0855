package importer

import (
	"github.com/username/tradevault/backend/src/models"
)

// DedupeIndex rejects re-imports of trades the account has already stored,
// plus repeats inside the same batch. It is seeded from the stored trade list
// at batch start, mutated only by TryAccept, and thrown away when the import
// finishes.
type DedupeIndex struct {
	keys     map[string]struct{}
	existing []models.CanonicalTrade
}

func NewDedupeIndex(accountID int64, existing []models.CanonicalTrade) *DedupeIndex {
	idx := &DedupeIndex{
		keys:     make(map[string]struct{}, len(existing)),
		existing: existing,
	}
	for i := range existing {
		t := existing[i]
		idx.keys[models.DedupeKey(accountID, t.Date, t.TradeTime, t.Pair, t.Position, t.PositionID)] = struct{}{}
	}
	return idx
}

// TryAccept reports whether the trade is new. Accepted trades join the key
// set so a second occurrence in the same file is rejected too. Besides the
// key lookup, the stored list is scanned field by field: if key construction
// ever drifts between the set and the database rows, the scan still catches
// the duplicate.
func (d *DedupeIndex) TryAccept(t *models.CanonicalTrade) bool {
	key := t.Key()
	if _, seen := d.keys[key]; seen {
		return false
	}
	for i := range d.existing {
		e := &d.existing[i]
		if e.Date == t.Date && e.TradeTime == t.TradeTime && e.Pair == t.Pair &&
			e.Position == t.Position && e.PositionID == t.PositionID {
			return false
		}
	}
	d.keys[key] = struct{}{}
	return true
}

// Len reports how many distinct keys the index currently tracks.
func (d *DedupeIndex) Len() int {
	return len(d.keys)
}
