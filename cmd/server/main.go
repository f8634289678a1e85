package main

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/jhchabran/broadsheet"
	"github.com/jhchabran/broadsheet/authentication"
	"github.com/jhchabran/broadsheet/cmd"
	"github.com/jhchabran/broadsheet/pgstore"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, reading config from the environment")
	}

	cfg := cmd.DefaultConfig()
	err := cfg.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot read configuration")
	}
	logger := cmd.SetupLogger(cfg)

	// setup database
	pg := pgstore.New(cfg.DatabaseString())

	// setup the token service
	tokens := authentication.NewTokenService([]byte(cfg.TokenSecret))

	// fire the server
	s := broadsheet.NewServer(&broadsheet.ServerConfig{
		Addr:     cfg.Addr,
		TokenTTL: time.Duration(cfg.TokenTTLMinutes) * time.Minute,
	}, logger, pg, tokens)
	err = s.Prepare()
	if err != nil {
		logger.Fatal().Err(err).Msg("Cannot prepare server")
	}

	logger.Info().Str("addr", cfg.Addr).Msg("Listening")
	err = s.Start()
	if err != nil {
		logger.Fatal().Err(err).Msg("Cannot start server")
	}
}
