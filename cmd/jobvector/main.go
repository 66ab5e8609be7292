package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/jobvector/jobvector/internal/api"
	"github.com/jobvector/jobvector/internal/cache"
	"github.com/jobvector/jobvector/internal/clients/gemini"
	"github.com/jobvector/jobvector/internal/config"
	"github.com/jobvector/jobvector/internal/logger"
	"github.com/jobvector/jobvector/internal/metrics"
	"github.com/jobvector/jobvector/internal/repositories"
	"github.com/jobvector/jobvector/internal/services"
	log "github.com/sirupsen/logrus"
)

// newEnricher wires the AI provider when keys are configured; without keys
// the service runs on deterministic offline placeholders.
func newEnricher(ctx context.Context, cfg *config.Config) (*services.Enricher, *services.SkillGapAnalyzer) {

	keys := cfg.AI.KeyList()
	if len(keys) == 0 {
		log.Warn("no AI keys configured, running in offline placeholder mode")
		return services.NewEnricher(nil), services.NewSkillGapAnalyzer(nil)
	}

	provider, err := gemini.NewProvider(ctx, keys, cfg.AI.Model, cfg.AI.ThrottleDelay)
	if err != nil {
		log.Fatalf("can't create AI provider: %v", err)
	}
	return services.NewEnricher(provider), services.NewSkillGapAnalyzer(provider)
}

func main() {

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Get()

	logger.Setup(cfg.Logger)
	defer logger.Cleanup()

	metrics.StartMetricsServer(cfg.API.MetricsPort)

	dbContext, err := repositories.NewDbContext(cfg.DB.ConnectionString)
	if err != nil {
		log.Fatalf("can't create db context: %v", err)
	}
	defer dbContext.Close()

	err = dbContext.Migrate()
	if err != nil {
		log.Fatalf("can't migrate db context: %v", err)
	}

	jobs := repositories.NewJobsRepository(dbContext.DB)
	failedJobs := repositories.NewFailedJobsRepository(dbContext.DB)

	var jobsCache *cache.JobsCache
	if cfg.Cache.RedisURL != "" {
		redisClient, err := cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			log.Fatalf("can't connect to redis: %v", err)
		}
		defer redisClient.Close()
		jobsCache = cache.NewJobsCache(redisClient, cfg.Cache.TTL)
	} else {
		log.Warn("no redis url configured, job cache disabled")
	}

	enricher, gapAnalyzer := newEnricher(ctx, cfg)
	searchService := services.NewSearchService(jobs)

	bus := EventBus.New()
	worker, err := services.NewIngestWorker(bus, enricher, jobs, failedJobs, jobsCache)
	if err != nil {
		log.Fatalf("can't create ingest worker: %v", err)
	}
	defer worker.Stop()

	cleaner, err := services.NewJobsCleaner(jobs, cfg.Jobs.ExpirationInDays)
	if err != nil {
		log.Fatalf("can't create jobs cleaner: %v", err)
	}
	defer cleaner.Stop()

	backfiller, err := services.NewBackfiller(jobs, failedJobs, enricher, cfg.Jobs.MaxBackfillAttempts)
	if err != nil {
		log.Fatalf("can't create backfiller: %v", err)
	}
	defer backfiller.Stop()

	backoff, err := cfg.AI.BackoffSchedule()
	if err != nil {
		log.Fatalf("invalid retry backoff: %v", err)
	}

	server := api.NewServer(
		api.Config{Port: cfg.API.Port, RetryBackoff: backoff},
		api.Dependencies{
			Bus:      bus,
			Jobs:     jobs,
			Cache:    jobsCache,
			Enricher: enricher,
			Search:   searchService,
			Gaps:     gapAnalyzer,
		})
	go func() {
		if err := server.Start(); err != nil {
			log.Fatalf("api server failed: %v", err)
		}
	}()

	<-ctx.Done()

	log.Info("Shutting down services...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Errorf("api server shutdown failed: %v", err)
	}
	log.Info("Services stopped.")
}
