package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"hbnb/internal/app"
	"hbnb/internal/domain"
)

type Handlers struct{ Svc *app.Services }

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })

	s.mux.Route("/v1/users", func(r chi.Router) {
		r.Post("/", h.createUser)
		r.Get("/", h.listUsers)
		r.Get("/{id}", h.getUser)
		r.Put("/{id}", h.updateUser)
		r.Delete("/{id}", h.deleteUser)
		r.Get("/{id}/places", h.listUserPlaces)
		r.Get("/{id}/reviews", h.listUserReviews)
		r.Post("/{id}/places", h.createPlaceForUser)
	})

	s.mux.Route("/v1/places", func(r chi.Router) {
		r.Get("/", h.listPlaces)
		r.Get("/{id}", h.getPlace)
		r.Put("/{id}", h.updatePlace)
		r.Delete("/{id}", h.deletePlace)
		r.Get("/{id}/reviews", h.listPlaceReviews)
		r.Post("/{id}/reviews", h.createReviewForPlace)
		r.Delete("/{id}/reviews/{reviewID}", h.deleteReviewFromPlace)
		r.Post("/{id}/amenities", h.addAmenityToPlace)
		r.Delete("/{id}/amenities/{name}", h.deleteAmenityFromPlace)
	})

	s.mux.Route("/v1/amenities", func(r chi.Router) {
		r.Post("/", h.createAmenity)
		r.Get("/", h.listAmenities)
		r.Get("/{id}", h.getAmenity)
		r.Put("/{id}", h.updateAmenity)
		r.Delete("/{id}", h.deleteAmenity)
	})

	s.mux.Route("/v1/reviews", func(r chi.Router) {
		r.Get("/", h.listReviews)
		r.Get("/{id}", h.getReview)
		r.Put("/{id}", h.updateReview)
	})
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeError maps the tagged domain error kinds onto HTTP statuses.
func writeError(w http.ResponseWriter, err error) {
	switch domain.KindOf(err) {
	case domain.KindNotFound:
		writeProblem(w, http.StatusNotFound, "Not Found", err.Error())
	case domain.KindConflict:
		writeProblem(w, http.StatusConflict, "Conflict", err.Error())
	case domain.KindValidation:
		writeProblem(w, http.StatusBadRequest, "Invalid Input", err.Error())
	default:
		log.Error().Err(err).Msg("internal error")
		writeProblem(w, http.StatusInternalServerError, "Internal Server Error", "")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("write JSON response failed")
	}
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Input", "malformed JSON body")
		return false
	}
	return true
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

// writeCacheable emits v with a weak ETag and honors If-None-Match.
func writeCacheable(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

// ---- users ----

func (h *Handlers) createUser(w http.ResponseWriter, r *http.Request) {
	var in app.UserInput
	if !decode(w, r, &in) {
		return
	}
	u, err := h.Svc.Users.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, u)
}

func (h *Handlers) listUsers(w http.ResponseWriter, r *http.Request) {
	us, err := h.Svc.Users.GetAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, us)
}

func (h *Handlers) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.Svc.Queries.GetUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handlers) updateUser(w http.ResponseWriter, r *http.Request) {
	var in app.UserInput
	if !decode(w, r, &in) {
		return
	}
	u, err := h.Svc.Users.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

func (h *Handlers) deleteUser(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Relations.DeleteUserAndAssociated(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) listUserPlaces(w http.ResponseWriter, r *http.Request) {
	ps, err := h.Svc.Queries.PlacesForOwner(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handlers) listUserReviews(w http.ResponseWriter, r *http.Request) {
	rs, err := h.Svc.Reviews.ReviewsForUser(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if rs == nil {
		rs = []domain.Review{}
	}
	writeJSON(w, http.StatusOK, rs)
}

// ---- places ----

func (h *Handlers) createPlaceForUser(w http.ResponseWriter, r *http.Request) {
	var in app.PlaceInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.Svc.Relations.CreatePlaceForUser(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// listPlaces returns all places, or only those carrying the amenity named
// in the ?amenity= query.
func (h *Handlers) listPlaces(w http.ResponseWriter, r *http.Request) {
	if name := r.URL.Query().Get("amenity"); name != "" {
		ps, err := h.Svc.Queries.PlacesWithAmenity(r.Context(), name)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, ps)
		return
	}
	ps, err := h.Svc.Places.GetAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *Handlers) getPlace(w http.ResponseWriter, r *http.Request) {
	p, err := h.Svc.Queries.GetPlace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, p)
}

func (h *Handlers) updatePlace(w http.ResponseWriter, r *http.Request) {
	var in app.PlaceInput
	if !decode(w, r, &in) {
		return
	}
	p, err := h.Svc.Places.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *Handlers) deletePlace(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Relations.DeletePlaceAndAssociated(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- reviews ----

func (h *Handlers) listPlaceReviews(w http.ResponseWriter, r *http.Request) {
	rs, err := h.Svc.Queries.ReviewsForPlace(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeCacheable(w, r, rs)
}

func (h *Handlers) createReviewForPlace(w http.ResponseWriter, r *http.Request) {
	var in app.ReviewInput
	if !decode(w, r, &in) {
		return
	}
	if in.UserID == "" {
		in.UserID = r.Header.Get("X-Acting-User")
	}
	if in.UserID == "" {
		writeProblem(w, http.StatusBadRequest, "Invalid Input", "user_id is required")
		return
	}
	rv, err := h.Svc.Relations.CreateReviewForPlace(r.Context(), chi.URLParam(r, "id"), in.UserID, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rv)
}

func (h *Handlers) deleteReviewFromPlace(w http.ResponseWriter, r *http.Request) {
	err := h.Svc.Relations.DeleteReviewFromPlace(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "reviewID"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) listReviews(w http.ResponseWriter, r *http.Request) {
	rs, err := h.Svc.Reviews.GetAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rs)
}

func (h *Handlers) getReview(w http.ResponseWriter, r *http.Request) {
	rv, err := h.Svc.Reviews.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

func (h *Handlers) updateReview(w http.ResponseWriter, r *http.Request) {
	var in app.ReviewInput
	if !decode(w, r, &in) {
		return
	}
	rv, err := h.Svc.Reviews.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rv)
}

// ---- amenities ----

func (h *Handlers) createAmenity(w http.ResponseWriter, r *http.Request) {
	var in app.AmenityInput
	if !decode(w, r, &in) {
		return
	}
	a, err := h.Svc.Amenities.Create(r.Context(), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handlers) listAmenities(w http.ResponseWriter, r *http.Request) {
	as, err := h.Svc.Amenities.GetAll(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, as)
}

func (h *Handlers) getAmenity(w http.ResponseWriter, r *http.Request) {
	a, err := h.Svc.Amenities.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handlers) updateAmenity(w http.ResponseWriter, r *http.Request) {
	var in app.AmenityInput
	if !decode(w, r, &in) {
		return
	}
	a, err := h.Svc.Amenities.Update(r.Context(), chi.URLParam(r, "id"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func (h *Handlers) deleteAmenity(w http.ResponseWriter, r *http.Request) {
	if err := h.Svc.Amenities.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) addAmenityToPlace(w http.ResponseWriter, r *http.Request) {
	var in app.AmenityInput
	if !decode(w, r, &in) {
		return
	}
	a, err := h.Svc.Relations.AddAmenityToPlace(r.Context(), chi.URLParam(r, "id"), in.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *Handlers) deleteAmenityFromPlace(w http.ResponseWriter, r *http.Request) {
	err := h.Svc.Relations.DeleteAmenityFromPlace(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
