package main

import (
	"database/sql"
	"net/http"
	"os"
	"path/filepath"

	_ "github.com/go-sql-driver/mysql"
	"github.com/rs/zerolog/log"

	server "hbnb/internal/adapters/http_server"
	"hbnb/internal/adapters/observability"
	redisad "hbnb/internal/adapters/redis"
	"hbnb/internal/app"
	"hbnb/internal/domain"
	"hbnb/internal/shared"
	"hbnb/internal/storage/memstore"
	mysqlstore "hbnb/internal/storage/mysql"
)

func main() {
	cfg := shared.Load()

	// set global logger (console in dev, JSON otherwise)
	log.Logger = observability.NewLogger(cfg.AppEnv)

	observability.Serve()

	stores, err := openStores(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("storage init failed")
	}
	log.Info().Str("backend", cfg.Backend).Msg("storage ready")

	var cache domain.Cache
	if cfg.RedisAddr != "" {
		cache = redisad.New(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
		log.Info().Str("addr", cfg.RedisAddr).Msg("redis cache enabled")
	}

	svc := app.NewServices(stores, app.Options{
		BcryptCost: cfg.BcryptCost,
		Cache:      cache,
		CacheTTL:   cfg.CacheTTL,
	})

	// http
	srv := server.New(cfg.RateRPS)
	reg := observability.InitRegistry()
	srv.Mount("/metrics", observability.MetricsHandler(reg))
	srv.MountHandlers(&server.Handlers{Svc: svc})

	log.Info().Str("addr", cfg.HTTPAddr).Msg("API listening")
	httpSrv := &http.Server{Addr: cfg.HTTPAddr, Handler: srv.Mux()}

	if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("http server failed")
	}
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
	default: // memory
		return app.Stores{
			Users:     memstore.New[domain.User](),
			Places:    memstore.New[domain.Place](),
			Amenities: memstore.New[domain.Amenity](),
			Reviews:   memstore.New[domain.Review](),
		}, nil
	}
}
