package models

import "time"

// Company is one roster entry. IDs are 1-based and follow the roster file order.
type Company struct {
	ID     int
	Name   string
	Symbol string
}

// PriceBar is one daily OHLCV bar as returned by the market data provider.
type PriceBar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// CompanyInfo holds descriptive metadata for a ticker. Zero values mean unknown.
type CompanyInfo struct {
	MarketCap      float64 `json:"market_cap"`
	Volume         float64 `json:"volume"`
	Sector         string  `json:"sector"`
	Recommendation string  `json:"recommendation"`
}
