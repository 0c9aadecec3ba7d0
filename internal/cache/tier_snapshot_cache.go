package cache

import (
	"time"

	tierdomain "github.com/smallbiznis/vendorcredit/internal/tier/domain"
	"go.uber.org/fx"
)

var Module = fx.Module("cache",
	fx.Provide(NewTierSnapshotCache),
)

const snapshotKey = "active"

// TierSnapshotCache holds the active tier set read by calculations. Tier
// writes invalidate it; readers tolerate a stale copy until the TTL lapses.
type TierSnapshotCache interface {
	Get() (tierdomain.Snapshot, bool)
	Set(snapshot tierdomain.Snapshot, ttl time.Duration)
	Invalidate()
}

type tierSnapshotCache struct {
	store Cache[string, tierdomain.Snapshot]
}

func NewTierSnapshotCache() TierSnapshotCache {
	return &tierSnapshotCache{store: NewTTLCache[string, tierdomain.Snapshot]()}
}

func (c *tierSnapshotCache) Get() (tierdomain.Snapshot, bool) {
	return c.store.Get(snapshotKey)
}

func (c *tierSnapshotCache) Set(snapshot tierdomain.Snapshot, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.store.Set(snapshotKey, snapshot, ttl)
}

func (c *tierSnapshotCache) Invalidate() {
	c.store.Delete(snapshotKey)
}
