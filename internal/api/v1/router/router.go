package router

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	awsmiddleware "github.com/aws/smithy-go/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"app/internal/api/v1/handler"
	"app/internal/config"
	"app/internal/middleware"
	"app/internal/model"
	"app/internal/provider"
	"app/internal/repository"
	"app/internal/service"
	"app/internal/util"

	"github.com/jackc/pgx/v5/pgxpool"
)

// New builds the HTTP handler with all routes, services and middleware
// wired, and returns the database pool for lifecycle management.
func New(cfg *config.Config, logger zerolog.Logger) (http.Handler, *pgxpool.Pool, error) {
	logger.Info().Str("environment", cfg.Environment).Msg("Router initializing")

	// 1. Open DB connection pool and run migrations
	pool, err := repository.NewPool(context.Background(), cfg.DBConnectionString)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to open DB connection")
		return nil, nil, err
	}

	// 2. S3 client for media uploads
	s3Config, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.S3Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")),
		awsconfig.WithAPIOptions([]func(*awsmiddleware.Stack) error{removeDisableGzip()}),
	)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to load S3 config")
		return nil, nil, err
	}
	s3Client := s3.NewFromConfig(s3Config, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3URL)
		o.UsePathStyle = true
	})

	// 3. Redis for best-effort analytics caching. Optional.
	var redisClient *redis.Client
	if cfg.RedisAddr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	// 4. Validator
	validate := validator.New(validator.WithRequiredStructEnabled())

	// 5. Providers
	transcriber := provider.NewDeepgramClient(cfg.DeepgramAPIKey, cfg.DeepgramBaseURL, time.Duration(cfg.TranscriptionTimeoutSec)*time.Second)
	generator := provider.NewGeminiGenerator(cfg.GeminiAPIKey, cfg.GeminiModel)
	resolver := provider.NewMediaResolver(cfg.ResolverBaseURL, time.Duration(cfg.ResolverTimeoutSec)*time.Second)
	twitterClient := provider.NewTwitterClient(cfg.TwitterBaseURL, cfg.TwitterAccessToken, cfg.TwitterUsername)

	// 6. Initialize repositories & services & handlers
	userRepo := repository.NewUserRepo(pool)
	jobRepo := repository.NewJobRepo(pool)
	postRepo := repository.NewPostRepo(pool)
	webhookRepo := repository.NewWebhookRepo(pool)

	userSvc := service.NewUserService(userRepo, logger)
	jobSvc := service.NewJobService(jobRepo, userSvc, logger, func() string { return util.GenerateID("job") })
	pipelineTimeout := time.Duration(cfg.TranscriptionTimeoutSec+cfg.GenerationTimeoutSec+cfg.ResolverTimeoutSec) * time.Second
	pipelineSvc := service.NewPipelineService(jobSvc, resolver, transcriber, generator, logger, pipelineTimeout)
	billingSvc := service.NewBillingService(userSvc, userRepo, webhookRepo, cfg.BillingWebhookSecret, logger)
	postSvc := service.NewPostService(jobSvc, postRepo, twitterClient, logger, func() string { return util.GenerateID("post") })
	analyticsSvc := service.NewAnalyticsService(postSvc, twitterClient, redisClient, logger)
	storageSvc := service.NewStorageService(s3Client, cfg.S3Bucket, logger)

	jobHandler := handler.NewJobHandler(jobSvc, userSvc, pipelineSvc, validate)
	userHandler := handler.NewUserHandler(userSvc)
	uploadHandler := handler.NewUploadHandler(storageSvc)
	twitterHandler := handler.NewTwitterHandler(postSvc, validate)
	analyticsHandler := handler.NewAnalyticsHandler(analyticsSvc)
	webhookHandler := handler.NewWebhookHandler(billingSvc)

	// 7. Initialize middleware
	authMiddleware := middleware.AuthMiddleware(cfg.JWTSecret)
	quotaMiddleware := middleware.QuotaMiddleware(userSvc, cfg.UpgradeURL)
	postToXMiddleware := middleware.FeatureMiddleware(userSvc, model.FeaturePostToX, cfg.UpgradeURL)
	analyticsMiddleware := middleware.FeatureMiddleware(userSvc, model.FeatureAnalytics, cfg.UpgradeURL)

	// 8. Create ServeMux router
	mux := http.NewServeMux()

	// Create a subrouter for API v1 with the /v1 prefix
	apiV1Mux := http.NewServeMux()
	jobHandler.RegisterRoutes(apiV1Mux, authMiddleware, quotaMiddleware)
	userHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	uploadHandler.RegisterRoutes(apiV1Mux, authMiddleware)
	twitterHandler.RegisterRoutes(apiV1Mux, authMiddleware, postToXMiddleware)
	analyticsHandler.RegisterRoutes(apiV1Mux, authMiddleware, analyticsMiddleware)
	webhookHandler.RegisterRoutes(apiV1Mux)

	// Mount the API v1 routes under /v1
	mux.Handle("/v1/", http.StripPrefix("/v1", apiV1Mux))

	// Redirect root-level requests to /v1/{path}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/v1/") {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/v1"+r.URL.Path, http.StatusMovedPermanently)
	})

	// 9. Apply CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		Debug:            false,
	})

	return middleware.LoggerMiddleware(c.Handler(mux)), pool, nil
}

// removeDisableGzip is a workaround for S3 signature errors with some
// S3-compatible services.
// See: https://github.com/supabase/storage/issues/577
func removeDisableGzip() func(*awsmiddleware.Stack) error {
	return func(stack *awsmiddleware.Stack) error {
		if _, ok := stack.Finalize.Get("DisableAcceptEncodingGzip"); ok {
			_, err := stack.Finalize.Remove("DisableAcceptEncodingGzip")
			return err
		}
		return nil
	}
}
