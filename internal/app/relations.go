package app

import (
	"context"
	"slices"

	"github.com/rs/zerolog/log"

	"hbnb/internal/adapters/observability"
	"hbnb/internal/domain"
)

// RelationManager owns every operation that touches more than one entity:
// stamping linkage fields on create, maintaining the denormalized lists,
// and the delete cascades. It is written once against the store ports, so
// the same code runs over both backends.
type RelationManager struct {
	stores Stores
	ev     evictor
}

func NewRelationManager(st Stores, cache domain.Cache) *RelationManager {
	return &RelationManager{stores: st, ev: evictor{cache: cache}}
}

// CreatePlaceForUser stamps ownership from the stored user and links the
// new place id into the owner's places list exactly once.
func (m *RelationManager) CreatePlaceForUser(ctx context.Context, userID string, in PlaceInput) (domain.Place, error) {
	owner, ok, err := m.stores.Users.Get(ctx, userID)
	if err != nil {
		return domain.Place{}, err
	}
	if !ok {
		return domain.Place{}, domain.NotFoundf("user with id %s not found", userID)
	}
	existing, err := m.stores.Places.GetByAttribute(ctx, "title", in.Title)
	if err != nil {
		return domain.Place{}, err
	}
	if len(existing) > 0 {
		return domain.Place{}, domain.Conflictf("place %q already exists, choose another title", in.Title)
	}
	p := domain.NewPlace(in.Title, in.Description, in.Price, in.Latitude, in.Longitude, owner.ID, owner.FirstName)
	if err := p.Validate(); err != nil {
		return domain.Place{}, err
	}
	if err := m.stores.Places.Add(ctx, p); err != nil {
		return domain.Place{}, err
	}
	if err := m.stores.Users.ListAppend(ctx, owner.ID, domain.FieldPlaces, p.ID); err != nil {
		return domain.Place{}, err
	}
	m.ev.evictUser(ctx, owner.ID)
	return p, nil
}

// DeletePlaceAndAssociated removes a place together with everything hung
// off it, in a fixed order: unlink from the owner's list, delete each
// linked review, then delete the place itself. A failure partway leaves
// the earlier steps applied; there is no rollback.
func (m *RelationManager) DeletePlaceAndAssociated(ctx context.Context, placeID string) error {
	p, ok, err := m.stores.Places.Get(ctx, placeID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFoundf("place with id %s not found", placeID)
	}
	owner, ok, err := m.stores.Users.Get(ctx, p.OwnerID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFoundf("user with id %s not found", p.OwnerID)
	}
	if err := m.stores.Users.ListRemove(ctx, owner.ID, domain.FieldPlaces, p.ID); err != nil {
		return err
	}
	for _, rid := range p.Reviews {
		if err := m.stores.Reviews.Delete(ctx, rid); err != nil {
			return err
		}
	}
	if err := m.stores.Places.Delete(ctx, p.ID); err != nil {
		return err
	}
	observability.ObserveCascade("place")
	log.Info().Str("place_id", p.ID).Int("reviews", len(p.Reviews)).Msg("place cascade delete")
	m.ev.evictPlace(ctx, p.ID)
	m.ev.evictUser(ctx, owner.ID)
	return nil
}

// DeleteUserAndAssociated cascades over a snapshot of the user's places
// list, so list mutations made by the per-place cascade do not disturb
// the iteration, then deletes the user.
func (m *RelationManager) DeleteUserAndAssociated(ctx context.Context, userID string) error {
	u, ok, err := m.stores.Users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFoundf("user with id %s not found", userID)
	}
	for _, pid := range slices.Clone(u.Places) {
		if err := m.DeletePlaceAndAssociated(ctx, pid); err != nil {
			return err
		}
	}
	if err := m.stores.Users.Delete(ctx, u.ID); err != nil {
		return err
	}
	observability.ObserveCascade("user")
	log.Info().Str("user_id", u.ID).Int("places", len(u.Places)).Msg("user cascade delete")
	m.ev.evictUser(ctx, u.ID)
	return nil
}

// AddAmenityToPlace attaches an amenity name to a place and ensures a
// global amenity record of that name exists, creating one when needed.
func (m *RelationManager) AddAmenityToPlace(ctx context.Context, placeID, name string) (domain.Amenity, error) {
	p, ok, err := m.stores.Places.Get(ctx, placeID)
	if err != nil {
		return domain.Amenity{}, err
	}
	if !ok {
		return domain.Amenity{}, domain.NotFoundf("place with id %s not found", placeID)
	}
	if domain.Contains(p.Amenities, name) {
		return domain.Amenity{}, domain.Conflictf("amenity %q is already attached to place %s", name, placeID)
	}
	if err := domain.ValidateAmenityName(name); err != nil {
		return domain.Amenity{}, err
	}
	if err := m.stores.Places.ListAppend(ctx, p.ID, domain.FieldAmenities, name); err != nil {
		return domain.Amenity{}, err
	}
	m.ev.evictPlace(ctx, p.ID)
	m.ev.evict(ctx, "amenity_places:"+name)

	as, err := m.stores.Amenities.GetByAttribute(ctx, "name", name)
	if err != nil {
		return domain.Amenity{}, err
	}
	if len(as) > 0 {
		return as[0], nil
	}
	a := domain.NewAmenity(name)
	if err := m.stores.Amenities.Add(ctx, a); err != nil {
		// a concurrent attach may have created it; re-read on conflict
		if domain.IsConflict(err) {
			if as, rerr := m.stores.Amenities.GetByAttribute(ctx, "name", name); rerr == nil && len(as) > 0 {
				return as[0], nil
			}
		}
		return domain.Amenity{}, err
	}
	return a, nil
}

// DeleteAmenityFromPlace detaches the name from the place's list. The
// global amenity record stays; only the membership goes away.
func (m *RelationManager) DeleteAmenityFromPlace(ctx context.Context, placeID, name string) error {
	p, ok, err := m.stores.Places.Get(ctx, placeID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFoundf("place with id %s not found", placeID)
	}
	if !domain.Contains(p.Amenities, name) {
		return domain.NotFoundf("amenity %q is not attached to place %s", name, placeID)
	}
	if err := m.stores.Places.ListRemove(ctx, p.ID, domain.FieldAmenities, name); err != nil {
		return err
	}
	m.ev.evictPlace(ctx, p.ID)
	m.ev.evict(ctx, "amenity_places:"+name)
	return nil
}

// CreateReviewForPlace stamps the place and author linkage from the stored
// records and links the new review id into the place's reviews list.
func (m *RelationManager) CreateReviewForPlace(ctx context.Context, placeID, userID string, in ReviewInput) (domain.Review, error) {
	p, ok, err := m.stores.Places.Get(ctx, placeID)
	if err != nil {
		return domain.Review{}, err
	}
	if !ok {
		return domain.Review{}, domain.NotFoundf("place with id %s not found", placeID)
	}
	u, ok, err := m.stores.Users.Get(ctx, userID)
	if err != nil {
		return domain.Review{}, err
	}
	if !ok {
		return domain.Review{}, domain.NotFoundf("user with id %s not found", userID)
	}
	r := domain.NewReview(in.Text, in.Rating, p.ID, p.Title, u.ID, u.FirstName)
	if err := r.Validate(); err != nil {
		return domain.Review{}, err
	}
	if err := m.stores.Reviews.Add(ctx, r); err != nil {
		return domain.Review{}, err
	}
	if err := m.stores.Places.ListAppend(ctx, p.ID, domain.FieldReviews, r.ID); err != nil {
		return domain.Review{}, err
	}
	m.ev.evictPlace(ctx, p.ID)
	return r, nil
}

// DeleteReviewFromPlace unlinks the review id from the place, then deletes
// the review record.
func (m *RelationManager) DeleteReviewFromPlace(ctx context.Context, placeID, reviewID string) error {
	p, ok, err := m.stores.Places.Get(ctx, placeID)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFoundf("place with id %s not found", placeID)
	}
	if !domain.Contains(p.Reviews, reviewID) {
		return domain.NotFoundf("review with id %s is not attached to place %s", reviewID, placeID)
	}
	if err := m.stores.Places.ListRemove(ctx, p.ID, domain.FieldReviews, reviewID); err != nil {
		return err
	}
	if err := m.stores.Reviews.Delete(ctx, reviewID); err != nil {
		return err
	}
	m.ev.evictPlace(ctx, p.ID)
	return nil
}

// ReviewsForPlace resolves the place's reviews list to full records,
// skipping ids whose record is gone.
func (m *RelationManager) ReviewsForPlace(ctx context.Context, placeID string) ([]domain.Review, error) {
	p, ok, err := m.stores.Places.Get(ctx, placeID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.NotFoundf("place with id %s not found", placeID)
	}
	out := make([]domain.Review, 0, len(p.Reviews))
	for _, rid := range p.Reviews {
		r, ok, err := m.stores.Reviews.Get(ctx, rid)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

// PlacesWithAmenity scans all places for membership of the given name.
func (m *RelationManager) PlacesWithAmenity(ctx context.Context, name string) ([]domain.Place, error) {
	ps, err := m.stores.Places.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Place, 0)
	for _, p := range ps {
		if domain.Contains(p.Amenities, name) {
			out = append(out, p)
		}
	}
	return out, nil
}
