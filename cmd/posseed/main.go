package main

import (
	"context"
	"flag"
	"time"

	"foodpos/internal/config"
	"foodpos/internal/database"
	"foodpos/internal/logging"
	"foodpos/internal/seed"
	"foodpos/internal/service"
)

func main() {
	seedFile := flag.String("f", "seed.yaml", "seed file")
	cfg := config.New()
	log := logging.New(cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	f, err := seed.Load(*seedFile)
	if err != nil {
		log.WithError(err).Fatal("failed to load seed file")
	}

	db, err := database.NewDB(ctx, cfg.DatabaseURI)
	if err != nil {
		log.WithError(err).Fatal("failed to connect to DB")
	}
	defer database.CloseDB(db, log)

	if err := database.InitSchema(ctx, db); err != nil {
		log.WithError(err).Fatal("failed to init DB schema")
	}

	// The server's active-menu cache must see the seeded catalog.
	menuCache := service.ConnectMenuCache(ctx, cfg.RedisAddr, time.Minute, log)

	st, err := seed.Apply(ctx, f,
		service.NewCatalogService(db, menuCache, log),
		service.NewUserService(db, log),
		service.NewSettingsService(db, log),
		log,
	)
	if err != nil {
		log.WithError(err).Fatal("seeding failed")
	}

	log.WithField("categories", st.Categories).
		WithField("menus", st.Menus).
		WithField("variations", st.Variations).
		WithField("users", st.Users).
		Info("seed applied")
}
