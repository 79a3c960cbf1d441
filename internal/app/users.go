package app

import (
	"context"
	"fmt"

	"golang.org/x/crypto/bcrypt"

	"hbnb/internal/domain"
)

// UserInput is the plain payload accepted by the user facade.
type UserInput struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	IsAdmin   bool   `json:"is_admin"`
}

// UserService validates and persists users. It knows nothing about
// places or reviews; cross-entity linkage is the RelationManager's job.
type UserService struct {
	repo domain.ListStore[domain.User]
	cost int
	ev   evictor
}

func NewUserService(repo domain.ListStore[domain.User], bcryptCost int, cache domain.Cache) *UserService {
	if bcryptCost <= 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{repo: repo, cost: bcryptCost, ev: evictor{cache: cache}}
}

// Create checks email uniqueness and field constraints before any write.
func (s *UserService) Create(ctx context.Context, in UserInput) (domain.User, error) {
	existing, err := s.repo.GetByAttribute(ctx, "email", in.Email)
	if err != nil {
		return domain.User{}, err
	}
	if len(existing) > 0 {
		return domain.User{}, domain.Conflictf("user with email %s already exists", in.Email)
	}
	if in.Password == "" {
		return domain.User{}, domain.Invalidf("password must not be empty")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	u := domain.NewUser(in.FirstName, in.LastName, in.Email, string(hash), in.IsAdmin)
	if err := u.Validate(); err != nil {
		return domain.User{}, err
	}
	if err := s.repo.Add(ctx, u); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (s *UserService) Get(ctx context.Context, id string) (domain.User, error) {
	u, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, domain.NotFoundf("user with id %s not found", id)
	}
	return u, nil
}

func (s *UserService) GetAll(ctx context.Context) ([]domain.User, error) {
	return s.repo.GetAll(ctx)
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	us, err := s.repo.GetByAttribute(ctx, "email", email)
	if err != nil {
		return domain.User{}, err
	}
	if len(us) == 0 {
		return domain.User{}, domain.NotFoundf("user with email %s not found", email)
	}
	return us[0], nil
}

// Update re-validates the whole record and rejects an email already held
// by a different user.
func (s *UserService) Update(ctx context.Context, id string, in UserInput) (domain.User, error) {
	u, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return domain.User{}, err
	}
	if !ok {
		return domain.User{}, domain.NotFoundf("user with id %s not found", id)
	}
	if in.Email != u.Email {
		others, err := s.repo.GetByAttribute(ctx, "email", in.Email)
		if err != nil {
			return domain.User{}, err
		}
		if len(others) > 0 {
			return domain.User{}, domain.Conflictf("user with email %s already exists", in.Email)
		}
	}
	u.FirstName = in.FirstName
	u.LastName = in.LastName
	u.Email = in.Email
	if in.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.cost)
		if err != nil {
			return domain.User{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}
	if err := u.Validate(); err != nil {
		return domain.User{}, err
	}
	u = u.Touch(timeNow())
	if err := s.repo.Update(ctx, u); err != nil {
		return domain.User{}, err
	}
	s.ev.evictUser(ctx, u.ID)
	return u, nil
}

// Delete removes the user record only; owned places survive. Cascading
// deletion lives on the RelationManager.
func (s *UserService) Delete(ctx context.Context, id string) error {
	_, ok, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return domain.NotFoundf("user with id %s not found", id)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.ev.evictUser(ctx, id)
	return nil
}

// VerifyPassword reports whether the plaintext matches the stored hash.
func (s *UserService) VerifyPassword(u domain.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) == nil
}
