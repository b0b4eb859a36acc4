// cmd/worker-manager/main.go
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

	"go.uber.org/zap"

	"github.com/FarmCreditInc/FarmCreditAI/internal/api"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/aws"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/camunda"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/config"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/database"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/logger"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/observability"
	"github.com/FarmCreditInc/FarmCreditAI/internal/common/validation"
	"github.com/FarmCreditInc/FarmCreditAI/internal/repository"

	ccs "github.com/FarmCreditInc/FarmCreditAI/internal/workers/credit/calculate-credit-score"
	ics "github.com/FarmCreditInc/FarmCreditAI/internal/workers/credit/index-credit-score"
	pcs "github.com/FarmCreditInc/FarmCreditAI/internal/workers/credit/publish-credit-score"

	"github.com/redis/go-redis/v9"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		bootLog := logger.New("info", "console")
		bootLog.Fatal("config load failed", zap.Error(err))
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Environment),
	)

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		zapLog.Warn("observability disabled", zap.Error(err))
	}
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init Zeebe Client with retry ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: true,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")

	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")

	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Elasticsearch with retry ---
	var esClient *database.ElasticsearchClient
	err = retryWithBackoff(func() error {
		var err error
		esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return err
		}
		return esClient.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "Elasticsearch connection")

	if err != nil {
		zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
	}
	zapLog.Info("Elasticsearch connected successfully")

	// --- Init Redis with retry ---
	rdb := database.NewRedis(cfg.Database.Redis)
	err = retryWithBackoff(func() error {
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")

	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init SNS publisher ---
	var publisher pcs.SNSService
	if cfg.Integrations.AWS.SNS.Enabled {
		snsClient, err := aws.NewSNSClient(ctx, cfg.Integrations.AWS.Region)
		if err != nil {
			zapLog.Fatal("sns client failed", zap.Error(err))
		}
		publisher = snsClient
		zapLog.Info("SNS publisher initialized", zap.String("topicArn", cfg.Integrations.AWS.SNS.TopicARN))
	}

	// --- Shared scoring dependencies ---
	var cache *redis.Client
	if cfg.Scoring.ProfileCacheTTL > 0 {
		cache = rdb.Client
	}
	profiles := repository.NewFarmerProfileRepository(pg.DB, cache, config.GetDuration(cfg.Scoring.ProfileCacheTTL), log)

	validator, err := validation.NewProfileValidator()
	if err != nil {
		zapLog.Fatal("profile schema failed to compile", zap.Error(err))
	}

	// --- Register credit workers ---
	workers := camunda.NewWorkerGroup(zeebe.GetClient(), zapLog)

	calculate := ccs.NewHandler(ccs.LoadConfigFrom(cfg), profiles, validator, obs, log)
	workers.Start(ccs.TaskType, config.GetWorkerConfig(cfg, ccs.TaskType), calculate.Handle)

	index := ics.NewHandler(ics.LoadConfigFrom(cfg), esClient.Client, obs, log)
	workers.Start(ics.TaskType, config.GetWorkerConfig(cfg, ics.TaskType), index.Handle)

	publish := pcs.NewHandler(pcs.LoadConfigFrom(cfg), publisher, obs, log)
	workers.Start(pcs.TaskType, config.GetWorkerConfig(cfg, pcs.TaskType), publish.Handle)

	zapLog.Info("Credit workers registered", zap.Strings("running", workers.Running()))

	// --- HTTP API ---
	var httpServer *http.Server
	if cfg.Server.Enabled {
		server := api.NewServer(cfg.App.Name, validator, profiles, obs, log)
		server.AddReadinessCheck("postgres", pg.Ping)
		server.AddReadinessCheck("redis", rdb.Ping)
		server.AddReadinessCheck("elasticsearch", esClient.Ping)
		server.AddReadinessCheck("zeebe", zeebe.HealthCheck)

		httpServer = server.HTTPServer(
			fmt.Sprintf(":%d", cfg.Server.Port),
			config.GetDuration(cfg.Server.ReadTimeout),
			config.GetDuration(cfg.Server.WriteTimeout),
		)

		go func() {
			zapLog.Info("Credit score API listening", zap.String("addr", httpServer.Addr))
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				zapLog.Error("Credit score API failed", zap.Error(err))
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			zapLog.Error("Error stopping API server", zap.Error(err))
		}
	}

	workers.Close()

	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}
