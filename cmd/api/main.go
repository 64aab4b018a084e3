package main

import (
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/cotizapp/cotiz/internal/activity"
	"github.com/cotizapp/cotiz/internal/config"
	"github.com/cotizapp/cotiz/internal/cotisation"
	"github.com/cotizapp/cotiz/internal/cotisation/ledger"
	"github.com/cotizapp/cotiz/internal/database"
	"github.com/cotizapp/cotiz/internal/mailer"
	"github.com/cotizapp/cotiz/internal/member"
	"github.com/cotizapp/cotiz/internal/monthly"
	"github.com/cotizapp/cotiz/internal/notification"
	"github.com/cotizapp/cotiz/internal/plan"
	"github.com/cotizapp/cotiz/internal/proof"
	"github.com/cotizapp/cotiz/internal/scheduler"
	mw "github.com/cotizapp/cotiz/pkg/middleware"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize database connection
	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	log.Println("Connected to database successfully")

	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Allocation strategy factory (Factory Pattern)
	allocationFactory := ledger.NewAllocationFactory()

	// Member feature
	memberRepo := member.NewRepository(db)
	memberService := member.NewService(memberRepo)
	memberHandler := member.NewHandler(memberService)

	// Mailer (receipts, reminders, proof decisions)
	mail := mailer.New(cfg.ResendAPIKey, cfg.EmailFrom, memberService)

	// Cotisation feature; the notifier is wired after the notification
	// service exists.
	cotisationRepo := cotisation.NewRepository(db)
	notificationRepo := notification.NewRepository(db)
	cotisationService := cotisation.NewService(cotisationRepo, allocationFactory, nil, mail)
	notificationService := notification.NewService(notificationRepo, cotisationService, mail)
	cotisationService.SetNotifier(notificationService)
	cotisationHandler := cotisation.NewHandler(cotisationService)
	notificationHandler := notification.NewHandler(notificationService)

	// Activity feature
	activityRepo := activity.NewRepository(db)
	activityService := activity.NewService(activityRepo, cotisationService, memberService)
	activityHandler := activity.NewHandler(activityService)

	// Monthly feature
	monthlyRepo := monthly.NewRepository(db)
	monthlyService := monthly.NewService(monthlyRepo, cotisationService, memberService)
	monthlyHandler := monthly.NewHandler(monthlyService)

	// Proof feature
	proofRepo := proof.NewRepository(db)
	proofService := proof.NewService(proofRepo, cotisationService, mail)
	proofService.SetStaleDays(cfg.ReminderDays)
	proofHandler := proof.NewHandler(proofService)

	// Payment plan feature
	planRepo := plan.NewRepository(db)
	planService := plan.NewService(planRepo)
	planHandler := plan.NewHandler(planService)

	// Background jobs
	if cfg.EnableScheduler {
		jobs := scheduler.New(cotisationService, planService, activityService, monthlyService, proofService)
		if err := jobs.Start(cfg.SweepSchedule); err != nil {
			log.Fatalf("Failed to start scheduler: %v", err)
		}
		defer jobs.Stop()
	}

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/swagger", httpSwagger.WrapHandler)

	// API routes; JWT auth in production, header-based identities in dev
	r.Route("/api/v1", func(r chi.Router) {
		if cfg.EnableAuth {
			r.Use(mw.Auth(cfg.JWTSecret))
		} else {
			r.Use(mw.TestMemberMiddleware)
		}

		// Mount feature routers
		r.Mount("/members", memberHandler.Routes())
		r.Mount("/cotisations", cotisationHandler.Routes())
		r.Mount("/activities", activityHandler.Routes())
		r.Mount("/monthly", monthlyHandler.Routes())
		r.Mount("/proofs", proofHandler.Routes())
		r.Mount("/plans", planHandler.Routes())
		r.Mount("/notifications", notificationHandler.Routes())
	})

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
