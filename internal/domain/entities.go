package domain

import (
	"net/mail"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ListField names a denormalized list attribute on an entity.
type ListField string

const (
	FieldPlaces    ListField = "places"    // user: owned place ids
	FieldAmenities ListField = "amenities" // place: amenity names
	FieldReviews   ListField = "reviews"   // place: review ids
)

// Entity is the minimal contract every stored record satisfies.
type Entity interface {
	EntityID() string
	Kind() string
	// Attribute returns the string form of a scalar attribute, for
	// exact-match lookups. ok is false for unknown attributes.
	Attribute(name string) (value string, ok bool)
}

// Record is an Entity with value semantics: list rewrites and timestamp
// bumps produce an updated copy instead of mutating in place, so a read
// from a whole-object store never aliases the stored record.
type Record[E any] interface {
	Entity
	// List returns the named denormalized list. ok is false when the
	// entity type does not carry that field.
	List(field ListField) (values []string, ok bool)
	WithList(field ListField, values []string) E
	Touch(now time.Time) E
}

func newID() string { return uuid.NewString() }

func stamp() (string, time.Time) {
	return newID(), time.Now().UTC().Truncate(time.Microsecond)
}

// User is an account holder. Places caches the ids of owned places; the
// authoritative link is each place's OwnerID.
type User struct {
	ID           string    `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	IsAdmin      bool      `json:"is_admin"`
	Places       []string  `json:"places"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func NewUser(firstName, lastName, email, passwordHash string, isAdmin bool) User {
	id, now := stamp()
	return User{
		ID:           id,
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		PasswordHash: passwordHash,
		IsAdmin:      isAdmin,
		Places:       []string{},
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func (u User) EntityID() string { return u.ID }
func (u User) Kind() string     { return "user" }

func (u User) Attribute(name string) (string, bool) {
	switch name {
	case "id":
		return u.ID, true
	case "email":
		return u.Email, true
	case "first_name":
		return u.FirstName, true
	case "last_name":
		return u.LastName, true
	}
	return "", false
}

func (u User) List(field ListField) ([]string, bool) {
	if field == FieldPlaces {
		return u.Places, true
	}
	return nil, false
}

func (u User) WithList(field ListField, values []string) User {
	if field == FieldPlaces {
		u.Places = values
	}
	return u
}

func (u User) Touch(now time.Time) User {
	u.UpdatedAt = now.UTC().Truncate(time.Microsecond)
	return u
}

func (u User) Validate() error {
	if err := requireLen("first_name", u.FirstName, 50); err != nil {
		return err
	}
	if err := requireLen("last_name", u.LastName, 50); err != nil {
		return err
	}
	if err := requireLen("email", u.Email, 50); err != nil {
		return err
	}
	if _, err := mail.ParseAddress(u.Email); err != nil {
		return Invalidf("email %q is not a valid address", u.Email)
	}
	if u.PasswordHash == "" {
		return Invalidf("password must not be empty")
	}
	return nil
}

// Place is a property listing. Amenities holds names (membership by name,
// not id); Reviews caches review ids, the authoritative link being each
// review's PlaceID.
type Place struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Price          float64   `json:"price"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	OwnerFirstName string    `json:"owner_first_name"`
	OwnerID        string    `json:"owner_id"`
	Reviews        []string  `json:"reviews"`
	Amenities      []string  `json:"amenities"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func NewPlace(title, description string, price, lat, lon float64, ownerID, ownerFirstName string) Place {
	id, now := stamp()
	return Place{
		ID:             id,
		Title:          title,
		Description:    description,
		Price:          price,
		Latitude:       lat,
		Longitude:      lon,
		OwnerFirstName: ownerFirstName,
		OwnerID:        ownerID,
		Reviews:        []string{},
		Amenities:      []string{},
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (p Place) EntityID() string { return p.ID }
func (p Place) Kind() string     { return "place" }

func (p Place) Attribute(name string) (string, bool) {
	switch name {
	case "id":
		return p.ID, true
	case "title":
		return p.Title, true
	case "owner_id":
		return p.OwnerID, true
	}
	return "", false
}

func (p Place) List(field ListField) ([]string, bool) {
	switch field {
	case FieldAmenities:
		return p.Amenities, true
	case FieldReviews:
		return p.Reviews, true
	}
	return nil, false
}

func (p Place) WithList(field ListField, values []string) Place {
	switch field {
	case FieldAmenities:
		p.Amenities = values
	case FieldReviews:
		p.Reviews = values
	}
	return p
}

func (p Place) Touch(now time.Time) Place {
	p.UpdatedAt = now.UTC().Truncate(time.Microsecond)
	return p
}

func (p Place) Validate() error {
	if n := len(p.Title); n == 0 || n >= 100 {
		return Invalidf("title must not be empty and be less than 100 characters")
	}
	if n := len(p.Description); n == 0 || n >= 500 {
		return Invalidf("description must not be empty and be less than 500 characters")
	}
	if p.Price < 0 {
		return Invalidf("price must not be negative")
	}
	if p.Latitude < -90 || p.Latitude > 90 {
		return Invalidf("latitude must be within -90.0 and 90.0")
	}
	if p.Longitude < -180 || p.Longitude > 180 {
		return Invalidf("longitude must be within -180.0 and 180.0")
	}
	if err := requireLen("owner_first_name", p.OwnerFirstName, 99); err != nil {
		return err
	}
	if err := requireLen("owner_id", p.OwnerID, 99); err != nil {
		return err
	}
	return nil
}

// Amenity is globally keyed by its unique name; no foreign key ties it to
// any place.
type Amenity struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewAmenity(name string) Amenity {
	id, now := stamp()
	return Amenity{ID: id, Name: name, CreatedAt: now, UpdatedAt: now}
}

func (a Amenity) EntityID() string { return a.ID }
func (a Amenity) Kind() string     { return "amenity" }

func (a Amenity) Attribute(name string) (string, bool) {
	switch name {
	case "id":
		return a.ID, true
	case "name":
		return a.Name, true
	}
	return "", false
}

func (a Amenity) List(ListField) ([]string, bool)      { return nil, false }
func (a Amenity) WithList(ListField, []string) Amenity { return a }
func (a Amenity) Touch(now time.Time) Amenity {
	a.UpdatedAt = now.UTC().Truncate(time.Microsecond)
	return a
}

func (a Amenity) Validate() error { return ValidateAmenityName(a.Name) }

// ValidateAmenityName checks the shared name constraint used both for
// amenity records and for membership entries on a place.
func ValidateAmenityName(name string) error {
	if n := len(strings.TrimSpace(name)); n == 0 || n >= 50 {
		return Invalidf("name must not be empty and less than 50 characters")
	}
	return nil
}

// Review is a rating of a place by a user. PlaceName and UserFirstName are
// cached at creation time.
type Review struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	Rating        int       `json:"rating"`
	PlaceID       string    `json:"place_id"`
	PlaceName     string    `json:"place_name"`
	UserID        string    `json:"user_id"`
	UserFirstName string    `json:"user_first_name"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewReview(text string, rating int, placeID, placeName, userID, userFirstName string) Review {
	id, now := stamp()
	return Review{
		ID:            id,
		Text:          text,
		Rating:        rating,
		PlaceID:       placeID,
		PlaceName:     placeName,
		UserID:        userID,
		UserFirstName: userFirstName,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func (r Review) EntityID() string { return r.ID }
func (r Review) Kind() string     { return "review" }

func (r Review) Attribute(name string) (string, bool) {
	switch name {
	case "id":
		return r.ID, true
	case "place_id":
		return r.PlaceID, true
	case "user_id":
		return r.UserID, true
	}
	return "", false
}

func (r Review) List(ListField) ([]string, bool)     { return nil, false }
func (r Review) WithList(ListField, []string) Review { return r }
func (r Review) Touch(now time.Time) Review {
	r.UpdatedAt = now.UTC().Truncate(time.Microsecond)
	return r
}

func (r Review) Validate() error {
	if n := len(r.Text); n == 0 || n > 1024 {
		return Invalidf("text must not be empty and be at most 1024 characters")
	}
	if r.Rating < 1 || r.Rating > 5 {
		return Invalidf("rating must be between 1 and 5")
	}
	if err := requireLen("place_id", r.PlaceID, 50); err != nil {
		return err
	}
	if err := requireLen("place_name", r.PlaceName, 50); err != nil {
		return err
	}
	if err := requireLen("user_id", r.UserID, 50); err != nil {
		return err
	}
	if err := requireLen("user_first_name", r.UserFirstName, 50); err != nil {
		return err
	}
	return nil
}

func requireLen(field, v string, max int) error {
	if n := len(v); n == 0 || n > max {
		return Invalidf("%s must not be empty and be at most %d characters", field, max)
	}
	return nil
}

// Contains reports membership in a denormalized list.
func Contains(list []string, v string) bool { return slices.Contains(list, v) }
