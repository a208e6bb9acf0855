package importer

import (
	"fmt"
	"strings"
	"time"
)

// Broker export datetime layouts. cTrader statements use either the slashed
// European layout or the ISO-ish dashed one depending on report settings.
const (
	layoutCSV           = "2006-01-02 15:04:05"
	layoutMT5           = "2006.01.02 15:04:05"
	layoutCtraderSlash  = "02/01/2006 15:04:05"
	layoutCtraderSlashF = "02/01/2006 15:04:05.000"
	layoutCtraderDash   = "2006-01-02 15:04:05"
)

// NormalizedDatetime is a broker timestamp re-expressed in the user's target
// timezone. Instant keeps the parsed moment for hold-time arithmetic.
type NormalizedDatetime struct {
	Date    string // YYYY-MM-DD
	Time    string // HH:mm
	Instant time.Time
}

// ParseDatetime interprets raw as wall-clock time in the source timezone and
// re-expresses the same instant in the target timezone. An unparseable value
// is a row-level failure: the caller skips the row and keeps going.
func ParseDatetime(raw, format string, source, target *time.Location) (*NormalizedDatetime, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("empty datetime")
	}

	var layouts []string
	switch format {
	case FormatCSV:
		layouts = []string{layoutCSV}
	case FormatMT5:
		layouts = []string{layoutMT5}
	case FormatCtrader:
		datePart := raw
		if i := strings.IndexByte(raw, ' '); i > 0 {
			datePart = raw[:i]
		}
		if strings.Contains(datePart, "/") {
			layouts = []string{layoutCtraderSlash, layoutCtraderSlashF}
		} else {
			layouts = []string{layoutCtraderDash}
		}
	default:
		return nil, fmt.Errorf("unknown format: %s", format)
	}

	var parsed time.Time
	var err error
	for _, layout := range layouts {
		parsed, err = time.ParseInLocation(layout, raw, source)
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("could not parse datetime '%s': %w", raw, err)
	}

	local := parsed.In(target)
	return &NormalizedDatetime{
		Date:    local.Format("2006-01-02"),
		Time:    local.Format("15:04"),
		Instant: local,
	}, nil
}

// HoldTimeMinutes is the floor-rounded number of minutes a position stayed
// open. Either side missing (open trade, unparseable exit) yields 0.
func HoldTimeMinutes(entry, exit *NormalizedDatetime) int {
	if entry == nil || exit == nil {
		return 0
	}
	minutes := int(exit.Instant.Sub(entry.Instant).Minutes())
	if minutes < 0 {
		return 0
	}
	return minutes
}
