package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-api/internal/config"
	"github.com/jwalitptl/clinic-api/internal/email"
	"github.com/jwalitptl/clinic-api/internal/event"
	adminHandler "github.com/jwalitptl/clinic-api/internal/handler/admin"
	appointmentHandler "github.com/jwalitptl/clinic-api/internal/handler/appointment"
	doctorHandler "github.com/jwalitptl/clinic-api/internal/handler/doctor"
	patientHandler "github.com/jwalitptl/clinic-api/internal/handler/patient"
	prescriptionHandler "github.com/jwalitptl/clinic-api/internal/handler/prescription"
	"github.com/jwalitptl/clinic-api/internal/middleware"
	mongorepo "github.com/jwalitptl/clinic-api/internal/repository/mongo"
	"github.com/jwalitptl/clinic-api/internal/repository/postgres"
	"github.com/jwalitptl/clinic-api/internal/router"
	adminService "github.com/jwalitptl/clinic-api/internal/service/admin"
	appointmentService "github.com/jwalitptl/clinic-api/internal/service/appointment"
	doctorService "github.com/jwalitptl/clinic-api/internal/service/doctor"
	patientService "github.com/jwalitptl/clinic-api/internal/service/patient"
	prescriptionService "github.com/jwalitptl/clinic-api/internal/service/prescription"
	"github.com/jwalitptl/clinic-api/pkg/auth"
	"github.com/jwalitptl/clinic-api/pkg/logger"
	redisbroker "github.com/jwalitptl/clinic-api/pkg/messaging/redis"
	"github.com/jwalitptl/clinic-api/pkg/metrics"
	"github.com/jwalitptl/clinic-api/pkg/security"
)

func main() {
	log.Logger = *logger.NewLogger(nil).Zerolog()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	mongoDB, err := mongorepo.NewDB(cfg.Mongo)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to mongo")
	}

	broker, err := redisbroker.NewRedisBroker(cfg.Redis.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	m := metrics.New("clinic")

	// Repositories
	adminRepo := postgres.NewAdminRepository(db, m)
	doctorRepo := postgres.NewDoctorRepository(db, m)
	patientRepo := postgres.NewPatientRepository(db, m)
	appointmentRepo := postgres.NewAppointmentRepository(db, m)
	prescriptionRepo := mongorepo.NewPrescriptionRepository(mongoDB, m)

	// Shared infrastructure
	hasher := security.NewBcryptHasher(12)
	tokens := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.Expiry())

	var emailSvc email.Sender
	if cfg.SMTP.Enabled {
		emailSvc = email.NewSMTPSender(cfg.SMTP)
	} else {
		emailSvc = email.NewNoopSender()
	}

	// Services
	adminSvc := adminService.NewService(adminRepo, hasher, tokens)
	doctorSvc := doctorService.NewService(doctorRepo, appointmentRepo, hasher, tokens, cfg.Clinic.SlotTemplate)
	patientSvc := patientService.NewService(patientRepo, hasher, tokens)
	appointmentSvc := appointmentService.NewService(appointmentRepo, doctorRepo, broker, emailSvc, m)
	prescriptionSvc := prescriptionService.NewService(prescriptionRepo, appointmentRepo)

	if user := os.Getenv("ADMIN_USERNAME"); user != "" {
		if err := adminSvc.Bootstrap(context.Background(), user, os.Getenv("ADMIN_PASSWORD")); err != nil {
			log.Fatal().Err(err).Msg("failed to bootstrap admin account")
		}
	}

	listenerCtx, stopListener := context.WithCancel(context.Background())
	defer stopListener()
	listener := event.NewListener(broker, appointmentService.EventChannel, event.LogEvents)
	go func() {
		if err := listener.Run(listenerCtx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("event listener stopped")
		}
	}()

	authMiddleware := middleware.NewAuthMiddleware(tokens)

	r := router.New(router.DefaultConfig(), m,
		adminHandler.NewHandler(adminSvc),
		doctorHandler.NewHandler(doctorSvc, authMiddleware),
		patientHandler.NewHandler(patientSvc, authMiddleware),
		appointmentHandler.NewHandler(appointmentSvc, authMiddleware),
		prescriptionHandler.NewHandler(prescriptionSvc, authMiddleware),
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
