package app

import (
	"context"

	"hbnb/internal/domain"
)

// PlaceInput is the plain payload accepted by the place facade. OwnerID
// and OwnerFirstName are stamped by the RelationManager, never supplied
// by callers directly.
type PlaceInput struct {
	Title          string  `json:"title"`
	Description    string  `json:"description"`
	Price          float64 `json:"price"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	OwnerID        string  `json:"owner_id,omitempty"`
	OwnerFirstName string  `json:"owner_first_name,omitempty"`
}

// PlaceService validates and persists places.
type PlaceService struct {
	repo domain.ListStore[domain.Place]
	ev   evictor
}

func NewPlaceService(repo domain.ListStore[domain.Place], cache domain.Cache) *PlaceService {
	return &PlaceService{repo: repo, ev: evictor{cache: cache}}
}

// Create checks title uniqueness and field constraints before any write.
func (s *PlaceService) Create(ctx context.Context, in PlaceInput) (domain.Place, error) {
	existing, err := s.repo.GetByAttribute(ctx, "title", in.Title)
	if err != nil {
		return domain.Place{}, err
	}
	if len(existing) > 0 {
		return domain.Place{}, domain.Conflictf("place %q already exists, choose another title", in.Title)
	}
	p := domain.NewPlace(in.Title, in.Description, in.Price, in.Latitude, in.Longitude, in.OwnerID, in.OwnerFirstName)
	if err := p.Validate(); err != nil {
		return domain.Place{}, err
	}
	if err := s.repo.Add(ctx, p); err != nil {
		return domain.Place{}, err
	}
	return p, nil
}

func (s *PlaceService) Get(ctx context.Context, id string) (domain.Place, error) {
	p, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Place{}, err
	}
	if !ok {
		return domain.Place{}, domain.NotFoundf("place with id %s not found", id)
	}
	return p, nil
}

func (s *PlaceService) GetAll(ctx context.Context) ([]domain.Place, error) {
	return s.repo.GetAll(ctx)
}

// Update rewrites the caller-editable fields; ownership and the
// denormalized lists are preserved. A title held by a different place is
// rejected.
func (s *PlaceService) Update(ctx context.Context, id string, in PlaceInput) (domain.Place, error) {
	p, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Place{}, err
	}
	if !ok {
		return domain.Place{}, domain.NotFoundf("place with id %s not found", id)
	}
	if in.Title != p.Title {
		others, err := s.repo.GetByAttribute(ctx, "title", in.Title)
		if err != nil {
			return domain.Place{}, err
		}
		if len(others) > 0 {
			return domain.Place{}, domain.Conflictf("place %q already exists, choose another title", in.Title)
		}
	}
	p.Title = in.Title
	p.Description = in.Description
	p.Price = in.Price
	p.Latitude = in.Latitude
	p.Longitude = in.Longitude
	if err := p.Validate(); err != nil {
		return domain.Place{}, err
	}
	p = p.Touch(timeNow())
	if err := s.repo.Update(ctx, p); err != nil {
		return domain.Place{}, err
	}
	s.ev.evictPlace(ctx, p.ID)
	s.ev.evict(ctx, "user_places:"+p.OwnerID)
	return p, nil
}

// Delete removes the place record only; reviews and the owner's list are
// untouched. Cascading deletion lives on the RelationManager.
func (s *PlaceService) Delete(ctx context.Context, id string) error {
	p, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFoundf("place with id %s not found", id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.ev.evictPlace(ctx, p.ID)
	s.ev.evict(ctx, "user_places:"+p.OwnerID)
	return nil
}

// PlacesForOwner resolves the authoritative owner link (owner_id), not
// the owner's denormalized list.
func (s *PlaceService) PlacesForOwner(ctx context.Context, ownerID string) ([]domain.Place, error) {
	return s.repo.GetByAttribute(ctx, "owner_id", ownerID)
}
