package app

import (
	"context"
	"slices"
	"time"

	"hbnb/internal/domain"
)

// QueryService is the cached read side. Every method falls back to the
// stores on a miss and repopulates the cache; a nil cache degrades to
// uncached reads.
type QueryService struct {
	stores Stores
	cache  domain.Cache
	ttl    time.Duration
}

func NewQueryService(st Stores, cache domain.Cache, ttl time.Duration) *QueryService {
	return &QueryService{stores: st, cache: cache, ttl: ttl}
}

func (s *QueryService) cacheGet(ctx context.Context, key string, dst any) bool {
	if s.cache == nil {
		return false
	}
	ok, _ := s.cache.Get(ctx, key, dst)
	return ok
}

func (s *QueryService) cacheSet(ctx context.Context, key string, v any) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Set(ctx, key, v, int(s.ttl.Seconds()))
}

func (s *QueryService) GetPlace(ctx context.Context, id string) (domain.Place, error) {
	key := "place:" + id
	var p domain.Place
	if s.cacheGet(ctx, key, &p) {
		return p, nil
	}
	p, ok, err := s.stores.Places.Get(ctx, id)
	if err != nil {
		return domain.Place{}, err
	}
	if !ok {
		return domain.Place{}, domain.NotFoundf("place with id %s not found", id)
	}
	s.cacheSet(ctx, key, p)
	return p, nil
}

func (s *QueryService) GetUser(ctx context.Context, id string) (domain.User, error) {
	key := "user:" + id
	var u domain.User
	if s.cacheGet(ctx, key, &u) {
		return u, nil
	}
	u, ok, err := s.stores.Users.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, domain.NotFoundf("user with id %s not found", id)
	}
	s.cacheSet(ctx, key, u)
	return u, nil
}

// ReviewsForPlace resolves the place's reviews list, dropping ids whose
// record no longer exists.
func (s *QueryService) ReviewsForPlace(ctx context.Context, placeID string) ([]domain.Review, error) {
	key := "place_reviews:" + placeID
	var cached []domain.Review
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}
	p, ok, err := s.stores.Places.Get(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NotFoundf("place with id %s not found", placeID)
	}
	out := make([]domain.Review, 0, len(p.Reviews))
	for _, rid := range p.Reviews {
		r, ok, err := s.stores.Reviews.Get(ctx, rid)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, r)
	}
	// copy before caching so callers mutating the result don't poison the cache
	s.cacheSet(ctx, key, slices.Clone(out))
	return out, nil
}

// PlacesForOwner resolves the authoritative owner_id link.
func (s *QueryService) PlacesForOwner(ctx context.Context, ownerID string) ([]domain.Place, error) {
	key := "user_places:" + ownerID
	var cached []domain.Place
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}
	ps, err := s.stores.Places.GetByAttribute(ctx, "owner_id", ownerID)
	if err != nil {
		return nil, err
	}
	if ps == nil {
		ps = []domain.Place{}
	}
	s.cacheSet(ctx, key, slices.Clone(ps))
	return ps, nil
}

// PlacesWithAmenity scans all places for membership of the given name.
func (s *QueryService) PlacesWithAmenity(ctx context.Context, name string) ([]domain.Place, error) {
	key := "amenity_places:" + name
	var cached []domain.Place
	if s.cacheGet(ctx, key, &cached) {
		return cached, nil
	}
	ps, err := s.stores.Places.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Place, 0)
	for _, p := range ps {
		if domain.Contains(p.Amenities, name) {
			out = append(out, p)
		}
	}
	s.cacheSet(ctx, key, slices.Clone(out))
	return out, nil
}
