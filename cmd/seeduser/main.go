// cmd/seeduser creates a dashboard user directly in the configured database.
// Usage: go run ./cmd/seeduser -username bursar -name "Ravi Shankar" -role cashier -password s3cret
// Without flags it loads the three demo accounts.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"feedesk/internal/access"
	"feedesk/internal/config"
	"feedesk/internal/infra"
	"feedesk/internal/repository"
	"feedesk/internal/seed"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	username := flag.String("username", "", "login name")
	password := flag.String("password", "", "initial password")
	name := flag.String("name", "", "display name")
	email := flag.String("email", "", "optional email, also accepted at login")
	role := flag.String("role", string(access.Cashier), "admin | principal | cashier")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if cfg.StoreDriver == infra.DriverMemory {
		log.Fatal().Msg("STORE_DRIVER is memory; point it at postgres or mysql")
	}
	db, err := infra.NewDatabase(cfg.StoreDriver, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if *username == "" {
		if err := seed.Demo(ctx, repository.NewGormStores(db)); err != nil {
			log.Fatal().Err(err).Msg("seed failed")
		}
		return
	}

	r, ok := access.ParseRole(*role)
	if !ok {
		log.Fatal().Str("role", *role).Msg("unknown role")
	}
	if len(*password) < 4 {
		log.Fatal().Msg("password must have at least 4 characters")
	}
	created, err := seed.User(ctx, repository.NewUserRepository(db), seed.DemoUser{
		Username: *username,
		Password: *password,
		Name:     *name,
		Email:    *email,
		Role:     r,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("create user failed")
	}
	if !created {
		log.Warn().Str("username", *username).Msg("username already exists, nothing changed")
		return
	}
	log.Info().Str("username", *username).Str("role", string(r)).Msg("user created")
}
