package main

import (
	"flag"
	"log"

	"github.com/odsie/odsie/internal/api"
	"github.com/odsie/odsie/internal/auth"
	"github.com/odsie/odsie/internal/config"
	"github.com/odsie/odsie/internal/database"
	"github.com/odsie/odsie/internal/files"
	"github.com/odsie/odsie/internal/notify"
	"github.com/odsie/odsie/internal/patients"
	"github.com/odsie/odsie/internal/payments"
	"github.com/odsie/odsie/internal/records"
	"github.com/odsie/odsie/internal/storage"
	"github.com/odsie/odsie/internal/store"
)

const version = "0.1.0"

func initializeAPI(configPath string) (*api.Api, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}

	st := store.New(db, cfg.Database.Type)
	tokens := auth.NewTokenManager(cfg.JWT.Secret, cfg.JWT.TTL)

	var objects files.ObjectStore
	if cfg.Storage.Endpoint != "" {
		s3, err := storage.NewS3Client(
			cfg.Storage.Endpoint, cfg.Storage.Region, cfg.Storage.Bucket,
			cfg.Storage.AccessKey, cfg.Storage.SecretKey,
		)
		if err != nil {
			return nil, err
		}
		objects = s3
	} else {
		log.Println("storage.endpoint not set, file uploads disabled")
	}

	var email notify.EmailSender
	if sender := notify.NewSMTPSender(cfg.Email.Host, cfg.Email.Port, cfg.Email.User, cfg.Email.Password, cfg.Email.From); sender != nil {
		email = sender
	}
	notifier := notify.New(st, email)

	deps := api.Deps{
		Store:    st,
		Tokens:   tokens,
		Auth:     auth.NewService(st, st, tokens),
		Patients: patients.NewService(st, notifier, cfg.FrontendURL),
		Records:  records.NewService(st),
		Files:    files.NewService(st, objects),
		Payments: payments.NewService(st),
		Notify:   notifier,
	}

	return api.NewApi(*cfg, deps), nil
}

func main() {
	configPath := flag.String("config", "app.yml", "Path to configuration file")
	flag.Parse()

	log.Printf("Starting ODSIE API v%s with config: %s", version, *configPath)

	app, err := initializeAPI(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	log.Fatal(app.Serve())
}
