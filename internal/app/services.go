package app

import (
	"time"

	"hbnb/internal/domain"
)

func timeNow() time.Time { return time.Now().UTC() }

// Stores bundles the four entity stores of one backend. Both backends
// (memstore and mysql) satisfy it, so everything above this point is
// backend-agnostic.
type Stores struct {
	Users     domain.ListStore[domain.User]
	Places    domain.ListStore[domain.Place]
	Amenities domain.ListStore[domain.Amenity]
	Reviews   domain.ListStore[domain.Review]
}

// Services is the wired application layer handed to transports.
type Services struct {
	Users     *UserService
	Places    *PlaceService
	Amenities *AmenityService
	Reviews   *ReviewService
	Relations *RelationManager
	Queries   *QueryService
}

type Options struct {
	BcryptCost int
	Cache      domain.Cache
	CacheTTL   time.Duration
}

func NewServices(st Stores, opts Options) *Services {
	users := NewUserService(st.Users, opts.BcryptCost, opts.Cache)
	places := NewPlaceService(st.Places, opts.Cache)
	amenities := NewAmenityService(st.Amenities, opts.Cache)
	reviews := NewReviewService(st.Reviews, opts.Cache)
	rel := NewRelationManager(st, opts.Cache)
	return &Services{
		Users:     users,
		Places:    places,
		Amenities: amenities,
		Reviews:   reviews,
		Relations: rel,
		Queries:   NewQueryService(st, opts.Cache, opts.CacheTTL),
	}
}
