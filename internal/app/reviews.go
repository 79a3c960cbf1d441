package app

import (
	"context"

	"hbnb/internal/domain"
)

// ReviewInput is the plain payload accepted by the review facade. The
// linkage fields (PlaceID, PlaceName, UserID, UserFirstName) are stamped
// by the RelationManager.
type ReviewInput struct {
	Text          string `json:"text"`
	Rating        int    `json:"rating"`
	PlaceID       string `json:"place_id,omitempty"`
	PlaceName     string `json:"place_name,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	UserFirstName string `json:"user_first_name,omitempty"`
}

// ReviewService validates and persists reviews.
type ReviewService struct {
	repo domain.ListStore[domain.Review]
	ev   evictor
}

func NewReviewService(repo domain.ListStore[domain.Review], cache domain.Cache) *ReviewService {
	return &ReviewService{repo: repo, ev: evictor{cache: cache}}
}

func (s *ReviewService) Create(ctx context.Context, in ReviewInput) (domain.Review, error) {
	r := domain.NewReview(in.Text, in.Rating, in.PlaceID, in.PlaceName, in.UserID, in.UserFirstName)
	if err := r.Validate(); err != nil {
		return domain.Review{}, err
	}
	if err := s.repo.Add(ctx, r); err != nil {
		return domain.Review{}, err
	}
	return r, nil
}

func (s *ReviewService) Get(ctx context.Context, id string) (domain.Review, error) {
	r, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Review{}, err
	}
	if !ok {
		return domain.Review{}, domain.NotFoundf("review with id %s not found", id)
	}
	return r, nil
}

func (s *ReviewService) GetAll(ctx context.Context) ([]domain.Review, error) {
	return s.repo.GetAll(ctx)
}

// Update rewrites text and rating; the linkage and cached names are
// frozen at creation time.
func (s *ReviewService) Update(ctx context.Context, id string, in ReviewInput) (domain.Review, error) {
	r, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.Review{}, err
	}
	if !ok {
		return domain.Review{}, domain.NotFoundf("review with id %s not found", id)
	}
	r.Text = in.Text
	r.Rating = in.Rating
	if err := r.Validate(); err != nil {
		return domain.Review{}, err
	}
	r = r.Touch(timeNow())
	if err := s.repo.Update(ctx, r); err != nil {
		return domain.Review{}, err
	}
	s.ev.evict(ctx, "place_reviews:"+r.PlaceID)
	return r, nil
}

// Delete removes the review record only; the place's reviews list is the
// RelationManager's to maintain.
func (s *ReviewService) Delete(ctx context.Context, id string) error {
	r, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFoundf("review with id %s not found", id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.ev.evict(ctx, "place_reviews:"+r.PlaceID)
	return nil
}

// ReviewsForUser resolves the authoritative user link on reviews.
func (s *ReviewService) ReviewsForUser(ctx context.Context, userID string) ([]domain.Review, error) {
	return s.repo.GetByAttribute(ctx, "user_id", userID)
}
