package models

import "encoding/json"

// CADConversionRate converts account-currency risk figures to CAD when the
// account's base currency is CAD. Fixed by product decision, not a live rate.
const CADConversionRate = 1.35

// PipSizes holds the per-market pip/point size used when converting a price
// distance to pips. The CSV-reconciled metrics use this table directly; the
// generic metrics only consult the forex entries and use 0.01 elsewhere.
type PipSizes struct {
	Forex       float64 `json:"forex"`
	ForexJPY    float64 `json:"forex_jpy"`
	Indices     float64 `json:"indices"`
	Commodities float64 `json:"commodities"`
	Crypto      float64 `json:"crypto"`
}

// BrokerMultipliers is the per-broker configuration for turning a pip/point
// distance into an account-currency amount per lot. XAUUSD and XAGUSD carry
// their own multipliers because metal contracts are sized differently from
// the generic commodities contract.
type BrokerMultipliers struct {
	Forex                 float64            `json:"forex"`
	Indices               float64            `json:"indices"`
	Commodities           float64            `json:"commodities"`
	CommoditiesExceptions map[string]float64 `json:"commodities_exceptions"`
	Crypto                float64            `json:"crypto"`
	PipSize               PipSizes           `json:"pipSize"`
}

// DefaultBrokerMultipliers returns the documented fallback configuration,
// used whenever an account carries no multiplier override.
func DefaultBrokerMultipliers() *BrokerMultipliers {
	return &BrokerMultipliers{
		Forex:       10.0,
		Indices:     1.0,
		Commodities: 1.0,
		CommoditiesExceptions: map[string]float64{
			"XAGUSD": 50.0,
			"XAUUSD": 100.0,
		},
		Crypto: 1.0,
		PipSize: PipSizes{
			Forex:       0.0001,
			ForexJPY:    0.01,
			Indices:     1.0,
			Commodities: 0.01,
			Crypto:      0.01,
		},
	}
}

// ParseBrokerMultipliers decodes an account's multiplier override, filling
// any zero field from the defaults so a partial override stays usable.
func ParseBrokerMultipliers(raw string) *BrokerMultipliers {
	defaults := DefaultBrokerMultipliers()
	if raw == "" {
		return defaults
	}
	var m BrokerMultipliers
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return defaults
	}
	if m.Forex == 0 {
		m.Forex = defaults.Forex
	}
	if m.Indices == 0 {
		m.Indices = defaults.Indices
	}
	if m.Commodities == 0 {
		m.Commodities = defaults.Commodities
	}
	if m.Crypto == 0 {
		m.Crypto = defaults.Crypto
	}
	if m.CommoditiesExceptions == nil {
		m.CommoditiesExceptions = defaults.CommoditiesExceptions
	}
	if m.PipSize.Forex == 0 {
		m.PipSize.Forex = defaults.PipSize.Forex
	}
	if m.PipSize.ForexJPY == 0 {
		m.PipSize.ForexJPY = defaults.PipSize.ForexJPY
	}
	if m.PipSize.Indices == 0 {
		m.PipSize.Indices = defaults.PipSize.Indices
	}
	if m.PipSize.Commodities == 0 {
		m.PipSize.Commodities = defaults.PipSize.Commodities
	}
	if m.PipSize.Crypto == 0 {
		m.PipSize.Crypto = defaults.PipSize.Crypto
	}
	return &m
}
