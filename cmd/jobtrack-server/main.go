package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sqs"

	"github.com/fieldserve/jobtrack-backend/internal/core"
	"github.com/fieldserve/jobtrack-backend/internal/events"
	"github.com/fieldserve/jobtrack-backend/internal/lifecycle"
	"github.com/fieldserve/jobtrack-backend/internal/metrics"
	"github.com/fieldserve/jobtrack-backend/internal/server"
	"github.com/fieldserve/jobtrack-backend/internal/state"
	"github.com/fieldserve/jobtrack-backend/internal/sweeper"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg := server.LoadConfig()
	if cfg.APIKey == "" && !cfg.AllowInsecureNoAuth {
		logger.Error("refusing to start without API authentication",
			"hint", "set JOBTRACK_API_KEY or JOBTRACK_ALLOW_INSECURE_NO_AUTH=true for local development")
		os.Exit(1)
	}
	if cfg.AllowInsecureNoAuth {
		logger.Warn("RUNNING WITHOUT AUTHENTICATION - intended for local development only. Set JOBTRACK_API_KEY for any shared or production environment.")
	}

	table, err := core.NewPolicyTable(cfg.Workflow)
	if err != nil {
		logger.Error("invalid workflow configuration", "workflow", cfg.Workflow, "error", err)
		os.Exit(1)
	}

	// Configure AWS SDK
	awsCfg, err := buildAWSConfig(cfg)
	if err != nil {
		logger.Error("failed to configure AWS", "error", err)
		os.Exit(1)
	}

	// Create DynamoDB state store
	dynamoClient := dynamodb.NewFromConfig(awsCfg)
	store := state.NewDynamoDBStore(dynamoClient, cfg.DynamoDBTable)
	if err := store.EnsureTable(context.Background()); err != nil {
		logger.Error("failed to ensure DynamoDB table", "error", err)
		os.Exit(1)
	}
	logger.Info("DynamoDB state store ready", "table", cfg.DynamoDBTable)

	// Transition-event publisher (optional)
	var publisher core.EventPublisher = lifecycle.NopPublisher{}
	if cfg.EventsQueue != "" {
		publisher = events.NewSQSPublisher(sqs.NewFromConfig(awsCfg), cfg.EventsQueue)
		logger.Info("transition events enabled", "queue", cfg.EventsQueue)
	}

	svc := lifecycle.New(store, table, publisher, logger, "dynamodb")
	defer svc.Close()

	// Seed the first admin so a fresh install can mint users via the API.
	if cfg.BootstrapAdminID != "" {
		if _, err := svc.BootstrapAdmin(context.Background(), cfg.BootstrapAdminID); err != nil {
			logger.Error("failed to seed bootstrap admin", "user_id", cfg.BootstrapAdminID, "error", err)
			os.Exit(1)
		}
	}

	metrics.Init(core.Version, cfg.Workflow)
	logger.Info("lifecycle service ready", "workflow", cfg.Workflow, "region", cfg.AWSRegion)

	// Start background overdue sweep
	sweep, err := sweeper.New(store, cfg.SweepSchedule, cfg.SweepOverdueAfter, logger)
	if err != nil {
		logger.Error("invalid sweep schedule", "schedule", cfg.SweepSchedule, "error", err)
		os.Exit(1)
	}
	sweep.Start()
	defer sweep.Stop()

	// Create HTTP server
	router := server.NewRouter(svc, logger, cfg)
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	// Start server
	go func() {
		logger.Info("jobtrack server listening", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down...")
	sweep.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
}

func buildAWSConfig(cfg server.Config) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.AWSRegion),
	}

	// For LocalStack or custom endpoints
	if cfg.AWSEndpointURL != "" {
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               cfg.AWSEndpointURL,
					HostnameImmutable: true,
					PartitionID:       "aws",
				}, nil
			},
		)
		opts = append(opts,
			config.WithEndpointResolverWithOptions(customResolver),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "test")),
		)
	}

	return config.LoadDefaultConfig(context.Background(), opts...)
}
