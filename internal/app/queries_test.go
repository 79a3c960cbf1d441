package app_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"hbnb/internal/app"
	"hbnb/internal/domain"
)

// fakeCache is an in-process stand-in for the redis adapter.
type fakeCache struct {
	data map[string][]byte
	hits int
	sets int
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) Get(_ context.Context, key string, dst any) (bool, error) {
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	c.hits++
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) Set(_ context.Context, key string, v any, _ int) error {
	b, _ := json.Marshal(v)
	c.data[key] = b
	c.sets++
	return nil
}

func (c *fakeCache) Del(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func TestQueryService_GetPlaceCacheAside(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	svc := app.NewServices(memStores(), app.Options{BcryptCost: 4, Cache: cache, CacheTTL: time.Minute})

	owner, _ := svc.Users.Create(ctx, validUser("ana@example.com"))
	p, _ := svc.Relations.CreatePlaceForUser(ctx, owner.ID, placeInput("Loft"))

	got, err := svc.Queries.GetPlace(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPlace miss path: %v", err)
	}
	if got.ID != p.ID || cache.sets == 0 {
		t.Fatalf("miss did not populate the cache: sets=%d", cache.sets)
	}

	again, err := svc.Queries.GetPlace(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPlace hit path: %v", err)
	}
	if cache.hits != 1 || again.Title != p.Title {
		t.Fatalf("expected a cache hit, hits=%d", cache.hits)
	}

	if _, err := svc.Queries.GetPlace(ctx, "missing"); !domain.IsNotFound(err) {
		t.Fatalf("unknown id: want not found, got %v", err)
	}
}

func TestQueryService_MutationsInvalidate(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	svc := app.NewServices(memStores(), app.Options{BcryptCost: 4, Cache: cache, CacheTTL: time.Minute})

	owner, _ := svc.Users.Create(ctx, validUser("ana@example.com"))
	author, _ := svc.Users.Create(ctx, validUser("bob@example.com"))
	p, _ := svc.Relations.CreatePlaceForUser(ctx, owner.ID, placeInput("Loft"))

	// warm the reviews cache with the empty list
	rs, err := svc.Queries.ReviewsForPlace(ctx, p.ID)
	if err != nil || len(rs) != 0 {
		t.Fatalf("warmup: %v %v", rs, err)
	}

	rv, err := svc.Relations.CreateReviewForPlace(ctx, p.ID, author.ID, app.ReviewInput{Text: "great", Rating: 5})
	if err != nil {
		t.Fatalf("create review: %v", err)
	}

	// the write evicted the stale entry, so the fresh read sees the review
	rs, err = svc.Queries.ReviewsForPlace(ctx, p.ID)
	if err != nil {
		t.Fatalf("ReviewsForPlace: %v", err)
	}
	if len(rs) != 1 || rs[0].ID != rv.ID {
		t.Fatalf("stale cache served after mutation: %+v", rs)
	}
}

func TestQueryService_FacadeUpdateEvictsStaleEntry(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	svc := app.NewServices(memStores(), app.Options{BcryptCost: 4, Cache: cache, CacheTTL: time.Minute})

	owner, _ := svc.Users.Create(ctx, validUser("ana@example.com"))
	p, _ := svc.Relations.CreatePlaceForUser(ctx, owner.ID, placeInput("Loft"))

	// warm the place entry, then retitle through the facade
	if _, err := svc.Queries.GetPlace(ctx, p.ID); err != nil {
		t.Fatalf("warmup: %v", err)
	}
	in := placeInput("Penthouse")
	if _, err := svc.Places.Update(ctx, p.ID, in); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := svc.Queries.GetPlace(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPlace: %v", err)
	}
	if got.Title != "Penthouse" {
		t.Fatalf("stale cache served after facade update: got title %q", got.Title)
	}

	// same discipline on the user facade
	if _, err := svc.Queries.GetUser(ctx, owner.ID); err != nil {
		t.Fatalf("warmup user: %v", err)
	}
	uin := validUser("ana@example.com")
	uin.FirstName = "Alba"
	uin.Password = ""
	if _, err := svc.Users.Update(ctx, owner.ID, uin); err != nil {
		t.Fatalf("update user: %v", err)
	}
	u, err := svc.Queries.GetUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("GetUser: %v", err)
	}
	if u.FirstName != "Alba" {
		t.Fatalf("stale cache served after user update: got %q", u.FirstName)
	}
}

func TestQueryService_FacadeReviewDeleteEvictsListing(t *testing.T) {
	ctx := context.Background()
	cache := newFakeCache()
	svc := app.NewServices(memStores(), app.Options{BcryptCost: 4, Cache: cache, CacheTTL: time.Minute})

	owner, _ := svc.Users.Create(ctx, validUser("ana@example.com"))
	p, _ := svc.Relations.CreatePlaceForUser(ctx, owner.ID, placeInput("Loft"))
	rv, _ := svc.Relations.CreateReviewForPlace(ctx, p.ID, owner.ID, app.ReviewInput{Text: "x", Rating: 3})

	rs, err := svc.Queries.ReviewsForPlace(ctx, p.ID)
	if err != nil || len(rs) != 1 {
		t.Fatalf("warmup: %v %v", rs, err)
	}

	// record-level delete through the facade; the place list keeps the
	// dangling id, but the cached listing must not survive
	if err := svc.Reviews.Delete(ctx, rv.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	rs, err = svc.Queries.ReviewsForPlace(ctx, p.ID)
	if err != nil {
		t.Fatalf("ReviewsForPlace: %v", err)
	}
	if len(rs) != 0 {
		t.Fatalf("stale review listing served after facade delete: %+v", rs)
	}
}

func TestQueryService_NilCacheDegradesToStore(t *testing.T) {
	ctx := context.Background()
	svc := app.NewServices(memStores(), app.Options{BcryptCost: 4})

	owner, _ := svc.Users.Create(ctx, validUser("ana@example.com"))
	p, _ := svc.Relations.CreatePlaceForUser(ctx, owner.ID, placeInput("Loft"))
	_, _ = svc.Relations.AddAmenityToPlace(ctx, p.ID, "WiFi")

	got, err := svc.Queries.GetUser(ctx, owner.ID)
	if err != nil || got.ID != owner.ID {
		t.Fatalf("GetUser without cache: %v %v", got, err)
	}
	ps, err := svc.Queries.PlacesWithAmenity(ctx, "WiFi")
	if err != nil || len(ps) != 1 {
		t.Fatalf("PlacesWithAmenity without cache: %v %v", ps, err)
	}
	owned, err := svc.Queries.PlacesForOwner(ctx, owner.ID)
	if err != nil || len(owned) != 1 || owned[0].ID != p.ID {
		t.Fatalf("PlacesForOwner without cache: %v %v", owned, err)
	}
}
