package cache

import (
	"context"
	"encoding/json"
	"time"

	"FinCast/internal/domain/models"
)

// InfoCache stores company metadata per ticker as JSON in a BytesCache.
type InfoCache struct {
	store BytesCache
	ttl   time.Duration
}

func NewInfoCache(store BytesCache, ttl time.Duration) *InfoCache {
	return &InfoCache{store: store, ttl: ttl}
}

func infoKey(ticker string) string { return "info:" + ticker }

// Get returns the cached metadata. Decode failures count as a miss.
func (c *InfoCache) Get(ctx context.Context, ticker string) (models.CompanyInfo, bool, error) {
	var info models.CompanyInfo
	b, ok, err := c.store.GetBytes(ctx, infoKey(ticker))
	if err != nil || !ok {
		return info, false, err
	}
	if err := json.Unmarshal(b, &info); err != nil {
		return info, false, nil
	}
	return info, true, nil
}

func (c *InfoCache) Set(ctx context.Context, ticker string, info models.CompanyInfo) error {
	b, err := json.Marshal(info)
	if err != nil {
		return err
	}
	return c.store.SetBytes(ctx, infoKey(ticker), b, c.ttl)
}
