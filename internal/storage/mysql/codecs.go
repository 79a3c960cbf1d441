package mysql

import (
	"database/sql"
	"encoding/json"

	"hbnb/internal/domain"
)

func marshalList(l []string) []byte {
	if l == nil {
		l = []string{}
	}
	b, _ := json.Marshal(l)
	return b
}

func unmarshalList(raw []byte, dst *[]string) error {
	*dst = []string{}
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, dst)
}

// Users returns the user store bound to the users table.
func Users(db *sql.DB) *Store[domain.User] {
	return NewStore(db, Codec[domain.User]{
		Table: "users",
		Columns: []string{
			"first_name", "last_name", "email", "password_hash",
			"is_admin", "places", "created_at", "updated_at",
		},
		Args: func(u domain.User) []any {
			return []any{
				u.FirstName, u.LastName, u.Email, u.PasswordHash,
				u.IsAdmin, marshalList(u.Places), u.CreatedAt, u.UpdatedAt,
			}
		},
		Scan: func(s scanner) (domain.User, error) {
			var u domain.User
			var places []byte
			if err := s.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email,
				&u.PasswordHash, &u.IsAdmin, &places, &u.CreatedAt, &u.UpdatedAt); err != nil {
				return u, err
			}
			return u, unmarshalList(places, &u.Places)
		},
		Attrs: map[string]string{
			"id":         "id",
			"email":      "email",
			"first_name": "first_name",
			"last_name":  "last_name",
		},
		Lists: map[domain.ListField]string{domain.FieldPlaces: "places"},
	})
}

// Places returns the place store bound to the places table.
func Places(db *sql.DB) *Store[domain.Place] {
	return NewStore(db, Codec[domain.Place]{
		Table: "places",
		Columns: []string{
			"title", "description", "price", "latitude", "longitude",
			"owner_first_name", "owner_id", "reviews", "amenities",
			"created_at", "updated_at",
		},
		Args: func(p domain.Place) []any {
			return []any{
				p.Title, p.Description, p.Price, p.Latitude, p.Longitude,
				p.OwnerFirstName, p.OwnerID, marshalList(p.Reviews),
				marshalList(p.Amenities), p.CreatedAt, p.UpdatedAt,
			}
		},
		Scan: func(s scanner) (domain.Place, error) {
			var p domain.Place
			var reviews, amenities []byte
			if err := s.Scan(&p.ID, &p.Title, &p.Description, &p.Price,
				&p.Latitude, &p.Longitude, &p.OwnerFirstName, &p.OwnerID,
				&reviews, &amenities, &p.CreatedAt, &p.UpdatedAt); err != nil {
				return p, err
			}
			if err := unmarshalList(reviews, &p.Reviews); err != nil {
				return p, err
			}
			return p, unmarshalList(amenities, &p.Amenities)
		},
		Attrs: map[string]string{
			"id":       "id",
			"title":    "title",
			"owner_id": "owner_id",
		},
		Lists: map[domain.ListField]string{
			domain.FieldReviews:   "reviews",
			domain.FieldAmenities: "amenities",
		},
	})
}

// Amenities returns the amenity store bound to the amenities table.
func Amenities(db *sql.DB) *Store[domain.Amenity] {
	return NewStore(db, Codec[domain.Amenity]{
		Table:   "amenities",
		Columns: []string{"name", "created_at", "updated_at"},
		Args: func(a domain.Amenity) []any {
			return []any{a.Name, a.CreatedAt, a.UpdatedAt}
		},
		Scan: func(s scanner) (domain.Amenity, error) {
			var a domain.Amenity
			err := s.Scan(&a.ID, &a.Name, &a.CreatedAt, &a.UpdatedAt)
			return a, err
		},
		Attrs: map[string]string{"id": "id", "name": "name"},
	})
}

// Reviews returns the review store bound to the reviews table.
func Reviews(db *sql.DB) *Store[domain.Review] {
	return NewStore(db, Codec[domain.Review]{
		Table: "reviews",
		// text is kept backtick-quoted everywhere; MySQL treats it as a keyword.
		Columns: []string{
			"`text`", "rating", "place_id", "place_name", "user_id",
			"user_first_name", "created_at", "updated_at",
		},
		Args: func(r domain.Review) []any {
			return []any{
				r.Text, r.Rating, r.PlaceID, r.PlaceName, r.UserID,
				r.UserFirstName, r.CreatedAt, r.UpdatedAt,
			}
		},
		Scan: func(s scanner) (domain.Review, error) {
			var r domain.Review
			err := s.Scan(&r.ID, &r.Text, &r.Rating, &r.PlaceID, &r.PlaceName,
				&r.UserID, &r.UserFirstName, &r.CreatedAt, &r.UpdatedAt)
			return r, err
		},
		Attrs: map[string]string{
			"id":       "id",
			"place_id": "place_id",
			"user_id":  "user_id",
		},
	})
}
