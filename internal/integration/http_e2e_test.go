//go:build integration || !unit

package integration

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	httpserver "hbnb/internal/adapters/http_server"
	"hbnb/internal/app"
	"hbnb/internal/domain"
	"hbnb/internal/storage/memstore"
)

func fileStores(t *testing.T, dir string) app.Stores {
	t.Helper()
	users, err := memstore.NewWithFile[domain.User](filepath.Join(dir, "users.json"))
	if err != nil {
		t.Fatalf("users store: %v", err)
	}
	places, err := memstore.NewWithFile[domain.Place](filepath.Join(dir, "places.json"))
	if err != nil {
		t.Fatalf("places store: %v", err)
	}
	amenities, err := memstore.NewWithFile[domain.Amenity](filepath.Join(dir, "amenities.json"))
	if err != nil {
		t.Fatalf("amenities store: %v", err)
	}
	reviews, err := memstore.NewWithFile[domain.Review](filepath.Join(dir, "reviews.json"))
	if err != nil {
		t.Fatalf("reviews store: %v", err)
	}
	return app.Stores{Users: users, Places: places, Amenities: amenities, Reviews: reviews}
}

func serve(t *testing.T, stores app.Stores) *httptest.Server {
	t.Helper()
	svc := app.NewServices(stores, app.Options{BcryptCost: 4})
	srv := httpserver.New(0)
	srv.MountHandlers(&httpserver.Handlers{Svc: svc})
	ts := httptest.NewServer(srv.Mux())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url string, in, out any) int {
	t.Helper()
	b, _ := json.Marshal(in)
	res, err := http.Post(url, "application/json", bytes.NewReader(b))
	if err != nil {
		t.Fatalf("POST %s: %v", url, err)
	}
	defer res.Body.Close()
	if out != nil && res.StatusCode < 300 {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return res.StatusCode
}

func get(t *testing.T, url string, out any) int {
	t.Helper()
	res, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer res.Body.Close()
	if out != nil && res.StatusCode < 300 {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			t.Fatalf("decode %s: %v", url, err)
		}
	}
	return res.StatusCode
}

// Full lifecycle over the HTTP surface against the file-backed store,
// including a restart: a second server over the same data directory must
// see everything the first one wrote.
func TestHTTP_EndToEnd_FileBackend(t *testing.T) {
	dir := t.TempDir()
	ts := serve(t, fileStores(t, dir))

	var owner domain.User
	if code := post(t, ts.URL+"/v1/users", app.UserInput{
		FirstName: "Ana", LastName: "Lima", Email: "ana@example.com", Password: "secret",
	}, &owner); code != http.StatusCreated {
		t.Fatalf("create user: %d", code)
	}

	var author domain.User
	if code := post(t, ts.URL+"/v1/users", app.UserInput{
		FirstName: "Bob", LastName: "Reis", Email: "bob@example.com", Password: "secret",
	}, &author); code != http.StatusCreated {
		t.Fatalf("create author: %d", code)
	}

	var place domain.Place
	if code := post(t, ts.URL+"/v1/users/"+owner.ID+"/places", app.PlaceInput{
		Title: "Loft", Description: "Nice loft", Price: 80, Latitude: 41, Longitude: 29,
	}, &place); code != http.StatusCreated {
		t.Fatalf("create place: %d", code)
	}

	var rv domain.Review
	if code := post(t, ts.URL+"/v1/places/"+place.ID+"/reviews", app.ReviewInput{
		Text: "great stay", Rating: 5, UserID: author.ID,
	}, &rv); code != http.StatusCreated {
		t.Fatalf("create review: %d", code)
	}

	var am domain.Amenity
	if code := post(t, ts.URL+"/v1/places/"+place.ID+"/amenities", app.AmenityInput{Name: "WiFi"}, &am); code != http.StatusCreated {
		t.Fatalf("attach amenity: %d", code)
	}

	ts.Close()

	// restart over the same snapshots
	ts2 := serve(t, fileStores(t, dir))

	var p2 domain.Place
	if code := get(t, ts2.URL+"/v1/places/"+place.ID, &p2); code != http.StatusOK {
		t.Fatalf("get place after restart: %d", code)
	}
	if p2.OwnerID != owner.ID || len(p2.Reviews) != 1 || p2.Reviews[0] != rv.ID {
		t.Fatalf("place state lost across restart: %+v", p2)
	}
	if len(p2.Amenities) != 1 || p2.Amenities[0] != "WiFi" {
		t.Fatalf("amenity membership lost: %v", p2.Amenities)
	}

	var rs []domain.Review
	if code := get(t, ts2.URL+"/v1/places/"+place.ID+"/reviews", &rs); code != http.StatusOK {
		t.Fatalf("list reviews after restart: %d", code)
	}
	if len(rs) != 1 || rs[0].UserFirstName != "Bob" {
		t.Fatalf("reviews lost across restart: %+v", rs)
	}

	var u2 domain.User
	if code := get(t, ts2.URL+"/v1/users/"+owner.ID, &u2); code != http.StatusOK {
		t.Fatalf("get owner after restart: %d", code)
	}
	if len(u2.Places) != 1 || u2.Places[0] != place.ID {
		t.Fatalf("owner list lost across restart: %v", u2.Places)
	}

	// the cascade still works on the reloaded data
	req, _ := http.NewRequest(http.MethodDelete, ts2.URL+"/v1/users/"+owner.ID, nil)
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete user: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusNoContent {
		t.Fatalf("delete user: %d", res.StatusCode)
	}
	if code := get(t, ts2.URL+"/v1/places/"+place.ID, nil); code != http.StatusNotFound {
		t.Fatalf("owned place survived cascade: %d", code)
	}
	if code := get(t, ts2.URL+"/v1/reviews/"+rv.ID, nil); code != http.StatusNotFound {
		t.Fatalf("review survived cascade: %d", code)
	}
}
