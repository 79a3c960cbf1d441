// Command seed provisions the initial admin account and the stock amenity
// catalog against whichever backend STORAGE_BACKEND selects. Safe to run
// repeatedly: records that already exist are left alone.
package main

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"

	"hbnb/internal/adapters/observability"
	"hbnb/internal/app"
	"hbnb/internal/domain"
	"hbnb/internal/shared"
	"hbnb/internal/storage/memstore"
	mysqlstore "hbnb/internal/storage/mysql"
)

var stockAmenities = []string{
	"WiFi", "Air conditioning", "Heating", "Kitchen", "Washer",
	"Free parking", "Pool", "Hot tub", "Pets allowed", "Workspace",
}

func main() {
	ctx := context.Background()
	cfg := shared.Load()

	log.Logger = observability.NewLogger(cfg.AppEnv)
	log.Info().Str("backend", cfg.Backend).Int("workers", cfg.SeedWorkers).Msg("seed starting")

	stores, err := openStores(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("storage init failed")
	}

	svc := app.NewServices(stores, app.Options{BcryptCost: cfg.BcryptCost})

	email := env("SEED_ADMIN_EMAIL", "admin@hbnb.io")
	password := env("SEED_ADMIN_PASSWORD", "")
	if password == "" {
		log.Fatal().Msg("SEED_ADMIN_PASSWORD is required")
	}

	if _, err := svc.Users.Create(ctx, app.UserInput{
		FirstName: env("SEED_ADMIN_FIRST_NAME", "Admin"),
		LastName:  env("SEED_ADMIN_LAST_NAME", "HBnB"),
		Email:     email,
		Password:  password,
		IsAdmin:   true,
	}); err != nil {
		if !domain.IsConflict(err) {
			log.Fatal().Err(err).Msg("create admin failed")
		}
		log.Info().Str("email", email).Msg("admin already exists")
	} else {
		log.Info().Str("email", email).Msg("admin created")
	}

	sem := semaphore.NewWeighted(int64(cfg.SeedWorkers))
	var wg sync.WaitGroup

	for _, name := range stockAmenities {
		// acquire before launching the goroutine; release inside it
		if err := sem.Acquire(ctx, 1); err != nil {
			log.Fatal().Err(err).Msg("semaphore acquire failed")
		}

		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			defer sem.Release(1)

			if _, err := svc.Amenities.Create(ctx, app.AmenityInput{Name: name}); err != nil {
				if domain.IsConflict(err) {
					log.Info().Str("name", name).Msg("amenity already exists")
					return
				}
				log.Warn().Str("name", name).Err(err).Msg("seed amenity failed")
				return
			}
			log.Info().Str("name", name).Msg("amenity created")
		}(name)
	}

	wg.Wait()
	log.Info().Msg("seed completed")
}

func env(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func openStores(cfg shared.Config) (app.Stores, error) {
	switch cfg.Backend {
	case "mysql":
		db, err := sql.Open("mysql", cfg.MySQLDSN)
		if err != nil {
			return app.Stores{}, err
		}
		if err := db.Ping(); err != nil {
			return app.Stores{}, err
		}
		return app.Stores{
			Users:     mysqlstore.Users(db),
			Places:    mysqlstore.Places(db),
			Amenities: mysqlstore.Amenities(db),
			Reviews:   mysqlstore.Reviews(db),
		}, nil
	case "file":
		if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
			return app.Stores{}, err
		}
		users, err := memstore.NewWithFile[domain.User](filepath.Join(cfg.DataDir, "users.json"))
		if err != nil {
			return app.Stores{}, err
		}
		places, err := memstore.NewWithFile[domain.Place](filepath.Join(cfg.DataDir, "places.json"))
		if err != nil {
			return app.Stores{}, err
		}
		amenities, err := memstore.NewWithFile[domain.Amenity](filepath.Join(cfg.DataDir, "amenities.json"))
		if err != nil {
			return app.Stores{}, err
		}
		reviews, err := memstore.NewWithFile[domain.Review](filepath.Join(cfg.DataDir, "reviews.json"))
		if err != nil {
			return app.Stores{}, err
		}
		return app.Stores{Users: users, Places: places, Amenities: amenities, Reviews: reviews}, nil
	default:
		return app.Stores{
			Users:     memstore.New[domain.User](),
			Places:    memstore.New[domain.Place](),
			Amenities: memstore.New[domain.Amenity](),
			Reviews:   memstore.New[domain.Review](),
		}, nil
	}
}
