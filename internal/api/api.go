// Package api exposes the clinical records service over HTTP.
package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator"

	"github.com/odsie/odsie/internal/auth"
	"github.com/odsie/odsie/internal/config"
	"github.com/odsie/odsie/internal/files"
	"github.com/odsie/odsie/internal/models"
	"github.com/odsie/odsie/internal/notify"
	"github.com/odsie/odsie/internal/patients"
	"github.com/odsie/odsie/internal/payments"
	"github.com/odsie/odsie/internal/records"
	"github.com/odsie/odsie/internal/store"
)

type Api struct {
	Config config.Config
	Router *chi.Mux

	store    *store.Store
	tokens   *auth.TokenManager
	auth     *auth.Service
	patients *patients.Service
	records  *records.Service
	files    *files.Service
	payments *payments.Service
	notify   *notify.Notifier
	validate *validator.Validate
}

// Deps carries the wired services into the HTTP layer.
type Deps struct {
	Store    *store.Store
	Tokens   *auth.TokenManager
	Auth     *auth.Service
	Patients *patients.Service
	Records  *records.Service
	Files    *files.Service
	Payments *payments.Service
	Notify   *notify.Notifier
}

func NewApi(cfg config.Config, deps Deps) *Api {
	api := &Api{
		Config:   cfg,
		Router:   chi.NewRouter(),
		store:    deps.Store,
		tokens:   deps.Tokens,
		auth:     deps.Auth,
		patients: deps.Patients,
		records:  deps.Records,
		files:    deps.Files,
		payments: deps.Payments,
		notify:   deps.Notify,
		validate: validator.New(),
	}
	api.setupRoutes()
	return api
}

func (api *Api) setupRoutes() {
	r := api.Router

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{api.Config.FrontendURL, "http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Heartbeat("/heartbeat"))

	// Public routes
	r.Post("/auth/register", api.RegisterHandler)
	r.Post("/auth/login", api.LoginHandler)
	r.Get("/patients/qr/{token}", api.AccessByQRHandler)

	// Authenticated routes
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware(api.tokens))

		r.Get("/auth/me", api.MeHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRoles(models.RoleAdmin))
			r.Get("/users", api.ListUsersHandler)
			r.Get("/users/search", api.SearchUsersHandler)
			r.Get("/users/{id}", api.GetUserHandler)
			r.Put("/users/{id}", api.UpdateUserHandler)
			r.Patch("/users/{id}/status", api.SetUserStatusHandler)
			r.Delete("/users/{id}", api.DeleteUserHandler)

			r.Post("/payments", api.CreatePaymentHandler)
			r.Get("/payments", api.ListPaymentsHandler)
			r.Get("/payments/statistics", api.PaymentStatisticsHandler)
			r.Patch("/payments/{id}/pay", api.SettlePaymentHandler)

			r.Get("/activity", api.ListActivityHandler)
			r.Get("/activity/statistics", api.ActivityStatisticsHandler)
			r.Get("/users/{id}/activity", api.UserActivityHandler)
			r.Get("/patients/{id}/activity", api.PatientActivityHandler)
		})

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRoles(models.RoleAdmin, models.RoleDoctor))
			r.Get("/patients", api.ListPatientsHandler)
		})

		r.Get("/patients/me", api.MyPatientProfileHandler)
		r.Get("/patients/{id}", api.GetPatientHandler)
		r.Put("/patients/{id}", api.UpdatePatientHandler)
		r.Post("/patients/{id}/qr", api.GenerateQRHandler)
		r.Post("/patients/{id}/qr/regenerate", api.RegenerateQRHandler)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireRoles(models.RoleDoctor))
			r.Post("/records", api.CreateRecordHandler)
			r.Post("/records/{id}/sign", api.SignRecordHandler)
		})
		r.Get("/patients/{id}/records", api.ListRecordsHandler)
		r.Get("/records/{id}", api.GetRecordHandler)
		r.Put("/records/{id}", api.UpdateRecordHandler)
		r.With(auth.RequireRoles(models.RoleAdmin)).Delete("/records/{id}", api.DeleteRecordHandler)

		r.Post("/patients/{id}/files", api.UploadFileHandler)
		r.Get("/patients/{id}/files", api.ListFilesHandler)
		r.Get("/files/{id}/download", api.FileDownloadURLHandler)
		r.Delete("/files/{id}", api.DeleteFileHandler)

		r.Get("/patients/{id}/payments", api.PatientPaymentsHandler)
		r.Get("/patients/{id}/payments/pending", api.PatientPendingPaymentsHandler)

		r.Get("/notifications", api.ListNotificationsHandler)
		r.Patch("/notifications/{id}/read", api.MarkNotificationReadHandler)
		r.Post("/notifications/read-all", api.MarkAllNotificationsReadHandler)
	})
}

// Serve blocks on the HTTP listener.
func (api *Api) Serve() error {
	addr := fmt.Sprintf("0.0.0.0:%d", api.Config.APIPort)
	log.Printf("[API] starting server on %s", addr)
	return http.ListenAndServe(addr, api.Router)
}
