package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"edusaas-checkout-api/config"
	"edusaas-checkout-api/database"
	"edusaas-checkout-api/handlers"
	"edusaas-checkout-api/logging"
	"edusaas-checkout-api/metrics"
	"edusaas-checkout-api/middleware"
	"edusaas-checkout-api/queue"
	"edusaas-checkout-api/services/activation"
	"edusaas-checkout-api/services/checkout"
	"edusaas-checkout-api/services/email"
	"edusaas-checkout-api/services/pricing"
	"edusaas-checkout-api/services/submission"
	"edusaas-checkout-api/store"
	"edusaas-checkout-api/worker"
)

func main() {
	cfg := config.Load()
	logger := *logging.New(cfg.Log, cfg.Server.Dev)
	logger.Info().Int("cpus", runtime.NumCPU()).Msg("Server starting")

	metrics.MustRegister()

	catalog := pricing.DefaultCatalog()
	if cfg.Catalog.File != "" {
		loaded, err := pricing.LoadCatalog(cfg.Catalog.File)
		if err != nil {
			logger.Fatal().Err(err).Str("file", cfg.Catalog.File).Msg("Failed to load plan catalog")
		}
		catalog = loaded
		logger.Info().Str("file", cfg.Catalog.File).Msg("Plan catalog loaded")
	}

	bgCtx, stopBackground := context.WithCancel(context.Background())
	defer stopBackground()

	var redisClient *redis.Client
	if !cfg.Redis.Disabled {
		redisClient = connectRedis(bgCtx, cfg.Redis.URL, logger)
		defer redisClient.Close()
	}

	var db *database.Connection
	if cfg.Preferences.Backend == "mysql" {
		db = connectDatabase(cfg.Database, logger)
		defer db.Close()
	}

	backend := preferenceBackend(bgCtx, cfg, db, redisClient, logger)

	submitter := submissionClient(cfg.Submission, logger)
	emailService := email.NewSMTPService(cfg.SMTP)
	activator := activation.NewService(cfg.Activation.Secret, cfg.Activation.Issuer, cfg.Activation.TokenDuration)

	registry := checkout.NewRegistry(cfg.Session.IdleTimeout, logger)
	go registry.Run(bgCtx, cfg.Session.SweepInterval)

	var jobs handlers.JobEnqueuer
	var jobQueue *queue.Queue
	var jobWorker *worker.Worker
	if redisClient != nil {
		jobQueue = queue.NewQueue(redisClient, cfg.Redis.QueueName, logger)
		jobs = jobQueue

		concurrency := cfg.Redis.WorkerConcurrency
		if concurrency < 1 {
			concurrency = 1
		} else if concurrency > 8 {
			concurrency = 8
		}
		jobWorker = worker.NewWorker(jobQueue, submitter, emailService, logger)
		jobWorker.Start(concurrency)
	}

	var pinger handlers.Pinger
	if db != nil {
		pinger = db.GetDB()
	}

	visitors := handlers.NewVisitors(cfg.Session, logger)
	api := handlers.Handlers{
		Plans:        handlers.NewPlanHandler(catalog, backend, visitors, logger),
		Preferences:  handlers.NewPreferenceHandler(backend, visitors, logger),
		Checkout:     handlers.NewCheckoutHandler(catalog, registry, backend, activator, jobs, visitors, logger),
		Cards:        handlers.NewCardHandler(logger),
		Testimonials: handlers.NewTestimonialHandler(submitter, logger),
		Newsletter:   handlers.NewNewsletterHandler(submitter, jobs, cfg.Server.Dev, logger),
		Health:       handlers.NewHealthHandler(pinger, redisClient, registry),
	}

	router := mux.NewRouter()
	router.Use(middleware.SecurityHeadersMiddleware)
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	router.Use(middleware.Logging(logger))

	router.Handle("/metrics", middleware.IPWhitelistMiddleware(cfg.Server.MetricsAllowedIPs, logger)(promhttp.Handler())).
		Methods(http.MethodGet)

	if jobQueue != nil {
		internal := router.PathPrefix("/internal").Subrouter()
		internal.Use(middleware.IPWhitelistMiddleware(cfg.Server.InternalAllowedIPs, logger))
		handlers.RegisterInternal(internal, handlers.NewJobsHandler(jobQueue, logger))
	}

	apiRouter := router.PathPrefix("/api").Subrouter()
	if redisClient != nil {
		apiRouter.Use(middleware.NewRateLimiter(redisClient, logger).RateLimitMiddleware())
	}
	api.Register(apiRouter)

	srv := &http.Server{
		Addr:           fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:        router,
		ReadTimeout:    15 * time.Second,
		WriteTimeout:   30 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	go func() {
		logger.Info().Str("port", cfg.Server.Port).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("Server error")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
	logger.Info().Msg("Shutdown signal received, gracefully shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Server forced to shutdown")
	}

	if jobWorker != nil {
		logger.Info().Msg("Stopping job worker...")
		jobWorker.Stop()
	}
	stopBackground()

	logger.Info().Msg("Server exited properly")
}

func connectRedis(ctx context.Context, url string, logger zerolog.Logger) *redis.Client {
	var client *redis.Client
	var err error
	for retries := 0; retries < 5; retries++ {
		client, err = store.Connect(ctx, url)
		if err == nil {
			logger.Info().Msg("Successfully connected to Redis")
			return client
		}
		retryDelay := time.Duration(retries+1) * time.Second
		logger.Warn().Err(err).Int("attempt", retries+1).Dur("retry_in", retryDelay).Msg("Failed to connect to Redis")
		time.Sleep(retryDelay)
	}
	logger.Fatal().Err(err).Msg("Failed to connect to Redis after retries")
	return nil
}

func connectDatabase(cfg database.DatabaseConfig, logger zerolog.Logger) *database.Connection {
	var db *database.Connection
	var err error
	for retries := 0; retries < 5; retries++ {
		db, err = database.NewConnection(cfg, logger)
		if err == nil {
			logger.Info().Msg("Successfully connected to database")
			return db
		}
		retryDelay := time.Duration(retries+1) * time.Second
		logger.Warn().Err(err).Int("attempt", retries+1).Dur("retry_in", retryDelay).Msg("Failed to connect to database")
		time.Sleep(retryDelay)
	}
	logger.Fatal().Err(err).Msg("Failed to connect to database after retries")
	return nil
}

func preferenceBackend(ctx context.Context, cfg *config.Config, db *database.Connection, redisClient *redis.Client, logger zerolog.Logger) store.Backend {
	switch cfg.Preferences.Backend {
	case "mysql":
		prefs := database.NewPreferenceStore(db)
		schemaCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := prefs.EnsureSchema(schemaCtx); err != nil {
			logger.Fatal().Err(err).Msg("Failed to prepare preference table")
		}
		logger.Info().Msg("Using MySQL preference store")
		return prefs
	case "redis":
		if redisClient != nil {
			logger.Info().Msg("Using Redis preference store")
			return store.NewRedis(redisClient, "prefs:", cfg.Preferences.TTL)
		}
		logger.Warn().Msg("Redis is disabled, using in-memory preference store")
	}
	return store.NewMemory()
}

func submissionClient(cfg config.SubmissionConfig, logger zerolog.Logger) submission.Client {
	if cfg.Mode == "http" {
		logger.Info().Str("base_url", cfg.APIBaseURL).Msg("Using submission backend")
		return submission.NewHTTPClient(cfg.APIBaseURL, logger)
	}
	logger.Info().Dur("delay", cfg.Delay).Bool("fail", cfg.Fail).Bool("auto_approve", cfg.AutoApprove).
		Msg("Using simulated submission backend")
	sim := submission.NewSimulated(cfg.Delay, cfg.Fail)
	sim.AutoApprove = cfg.AutoApprove
	return sim
}
