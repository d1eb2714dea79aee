package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// Freshness sources for detail responses.
const (
	SourceCache = "cache"
	SourceLive  = "live"
)

// CompanyDetail is the full view of one company served by the detail endpoint.
type CompanyDetail struct {
	ID             int         `json:"id"`
	Name           string      `json:"name"`
	Symbol         string      `json:"symbol"`
	CurrentPrice   null.Float  `json:"current_price"`
	PredictedPrice null.Float  `json:"predicted_price"`
	LastDayPrice   null.Float  `json:"last_day_price"`
	MarketCap      string      `json:"market_cap"`
	Volume         string      `json:"volume"`
	Sector         string      `json:"sector"`
	Recommendation string      `json:"recommendation"` // analyst consensus key, e.g. "buy"
	Signal         null.String `json:"signal"`         // Buy, Sell or Hold from the model
	Historical     Series      `json:"historical"`
	Forecast       Series      `json:"forecast"`
	Freshness      Freshness   `json:"freshness"`
}

// Series is a pair of parallel date/price arrays.
type Series struct {
	Dates  []string     `json:"dates"`
	Prices []null.Float `json:"prices"`
}

// Freshness tells the client where the prices came from and when they were computed.
type Freshness struct {
	Source     string    `json:"source"`
	ComputedAt time.Time `json:"computed_at"`
}

// CompanyDetailRequest binds the detail path parameter.
type CompanyDetailRequest struct {
	ID int `param:"id" json:"id" validate:"gte=0"`
}

// RefreshTrigger is the message accepted on the refresh topic.
type RefreshTrigger struct {
	Reason      string `json:"reason"`
	RequestedAt string `json:"requested_at"` // RFC3339, YYYY-MM-DD or unix seconds
}
