package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"stylesnap/internal/cache"
	"stylesnap/internal/http/handlers"
	httpapi "stylesnap/internal/http/httpapi"
	"stylesnap/internal/infra"
	"stylesnap/internal/infra/geoip"
	"stylesnap/internal/ledger"
	"stylesnap/internal/middleware"
	"stylesnap/internal/providers/replicate"
	"stylesnap/internal/providers/stripe"
	"stylesnap/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	sqlRunner := infra.NewSQLRunner(dbpool, logger)

	creditLedger := ledger.New(sqlRunner, cfg.FreeTrialCredits)
	if err := creditLedger.EnsureSchema(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to ensure ledger schema")
	}

	var uploads storage.UploadStore
	if cfg.UseS3() {
		uploads, err = storage.NewS3Store(storage.S3Config{
			Endpoint:      cfg.S3Endpoint,
			Region:        cfg.S3Region,
			AccessKey:     cfg.S3AccessKey,
			SecretKey:     cfg.S3SecretKey,
			Bucket:        cfg.S3Bucket,
			PublicBaseURL: cfg.S3PublicBaseURL,
			UsePathStyle:  cfg.S3UsePathStyle,
		})
	} else {
		uploads, err = storage.NewFileStore(cfg.UploadDir)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to initialize upload storage")
	}

	var sessions *cache.Cache
	if cfg.RedisURL != "" {
		sessions, err = cache.New(ctx, cfg.RedisURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect redis")
		}
		defer sessions.Close()
	}

	var country middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	} else if resolver != nil {
		country = resolver.CountryCode
	}

	app := &handlers.App{
		Config: cfg,
		Logger: logger,
		Ledger: creditLedger,
		Images: replicate.NewClient(replicate.Options{
			BaseURL:      cfg.ReplicateBaseURL,
			APIToken:     cfg.ReplicateAPIToken,
			ModelVersion: cfg.ReplicateModel,
		}),
		Payments: stripe.NewClient(stripe.Options{
			BaseURL:   cfg.StripeBaseURL,
			SecretKey: cfg.StripeSecretKey,
		}),
		Uploads:  uploads,
		Sessions: sessions,
		Country:  country,
	}

	router := httpapi.NewRouter(app)
	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
