package app

import (
	"context"

	"hbnb/internal/domain"
)

// evictor centralizes read-side cache eviction so every mutating path,
// facade or relation manager, drops the keys the QueryService may hold.
// A nil cache makes every evict a no-op.
type evictor struct{ cache domain.Cache }

func (e evictor) evict(ctx context.Context, keys ...string) {
	if e.cache == nil {
		return
	}
	for _, k := range keys {
		_ = e.cache.Del(ctx, k)
	}
}

func (e evictor) evictUser(ctx context.Context, id string) {
	e.evict(ctx, "user:"+id, "user_places:"+id)
}

func (e evictor) evictPlace(ctx context.Context, id string) {
	e.evict(ctx, "place:"+id, "place_reviews:"+id)
}
