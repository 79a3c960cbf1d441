package app

import (
	"context"

	"hbnb/internal/domain"
)

// AmenityInput is the plain payload accepted by the amenity facade.
type AmenityInput struct {
	Name string `json:"name"`
}

// AmenityService validates and persists globally-named amenities.
type AmenityService struct {
	repo domain.ListStore[domain.Amenity]
	ev   evictor
}

func NewAmenityService(repo domain.ListStore[domain.Amenity], cache domain.Cache) *AmenityService {
	return &AmenityService{repo: repo, ev: evictor{cache: cache}}
}

func (s *AmenityService) Create(ctx context.Context, in AmenityInput) (domain.Amenity, error) {
	existing, err := s.repo.GetByAttribute(ctx, "name", in.Name)
	if err != nil {
		return domain.Amenity{}, err
	}
	if len(existing) > 0 {
		return domain.Amenity{}, domain.Conflictf("amenity %q already exists", in.Name)
	}
	a := domain.NewAmenity(in.Name)
	if err := a.Validate(); err != nil {
		return domain.Amenity{}, err
	}
	if err := s.repo.Add(ctx, a); err != nil {
		return domain.Amenity{}, err
	}
	return a, nil
}

func (s *AmenityService) Get(ctx context.Context, id string) (domain.Amenity, error) {
	a, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Amenity{}, err
	}
	if !ok {
		return domain.Amenity{}, domain.NotFoundf("amenity with id %s not found", id)
	}
	return a, nil
}

func (s *AmenityService) GetByName(ctx context.Context, name string) (domain.Amenity, error) {
	as, err := s.repo.GetByAttribute(ctx, "name", name)
	if err != nil {
		return domain.Amenity{}, err
	}
	if len(as) == 0 {
		return domain.Amenity{}, domain.NotFoundf("amenity %q not found", name)
	}
	return as[0], nil
}

func (s *AmenityService) GetAll(ctx context.Context) ([]domain.Amenity, error) {
	return s.repo.GetAll(ctx)
}

func (s *AmenityService) Update(ctx context.Context, id string, in AmenityInput) (domain.Amenity, error) {
	a, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Amenity{}, err
	}
	if !ok {
		return domain.Amenity{}, domain.NotFoundf("amenity with id %s not found", id)
	}
	if in.Name != a.Name {
		others, err := s.repo.GetByAttribute(ctx, "name", in.Name)
		if err != nil {
			return domain.Amenity{}, err
		}
		if len(others) > 0 {
			return domain.Amenity{}, domain.Conflictf("amenity %q already exists", in.Name)
		}
	}
	oldName := a.Name
	a.Name = in.Name
	if err := a.Validate(); err != nil {
		return domain.Amenity{}, err
	}
	a = a.Touch(timeNow())
	if err := s.repo.Update(ctx, a); err != nil {
		return domain.Amenity{}, err
	}
	s.ev.evict(ctx, "amenity_places:"+oldName, "amenity_places:"+a.Name)
	return a, nil
}

// Delete removes the global amenity record. Place membership lists are
// deliberately left alone (names there are maintained by convention
// only), so a deleted amenity's name can linger on places.
func (s *AmenityService) Delete(ctx context.Context, id string) error {
	a, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFoundf("amenity with id %s not found", id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.ev.evict(ctx, "amenity_places:"+a.Name)
	return nil
}
