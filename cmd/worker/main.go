package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/adchat-ai/backend/internal/config"
	"github.com/adchat-ai/backend/internal/db"
	"github.com/adchat-ai/backend/internal/events"
	"github.com/adchat-ai/backend/internal/models"
	"github.com/adchat-ai/backend/internal/repositories"
	"github.com/adchat-ai/backend/internal/services"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	log, _ := zap.NewProduction()
	defer log.Sync()

	cfg := config.Load()
	cfg.Validate(log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pool, err := db.NewPostgresPool(ctx, cfg.PostgresDSN, log)
	if err != nil {
		log.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer pool.Close()

	rdb, err := db.NewRedisClient(ctx, cfg.RedisURL, log)
	if err != nil {
		log.Fatal("failed to connect to redis", zap.Error(err))
	}
	defer rdb.Close()

	adRepo := repositories.NewAdRepo(pool)

	gemini, err := services.NewGeminiClient(ctx, cfg, log)
	if err != nil {
		log.Fatal("failed to create gemini client", zap.Error(err))
	}

	// Aggregate ad events into daily counters for the admin dashboard.
	subscriber := events.NewRedisSubscriber(rdb, log)
	if err := subscriber.Subscribe(ctx, events.StreamAds, func(event events.Event) {
		countAdEvent(ctx, rdb, event, log)
	}); err != nil {
		log.Error("failed to subscribe to ad events", zap.Error(err))
	}

	log.Info("worker started",
		zap.Duration("backfill_interval", cfg.BackfillInterval),
		zap.Int("backfill_batch", cfg.BackfillBatchSize))

	backfillTicker := time.NewTicker(cfg.BackfillInterval)
	defer backfillTicker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	// One pass on startup so a fresh catalog is searchable immediately.
	runEmbeddingBackfill(ctx, adRepo, gemini, cfg, log)

	for {
		select {
		case <-backfillTicker.C:
			runEmbeddingBackfill(ctx, adRepo, gemini, cfg, log)
		case <-sigCh:
			log.Info("shutting down worker")
			cancel()
			return
		case <-ctx.Done():
			return
		}
	}
}

// runEmbeddingBackfill embeds ads that were inserted without a vector and
// writes them back in batches.
func runEmbeddingBackfill(ctx context.Context, adRepo *repositories.AdRepo, gemini *services.GeminiClient, cfg *config.Config, log *zap.Logger) {
	ads, err := adRepo.ListMissingEmbeddings(ctx, cfg.BackfillBatchSize)
	if err != nil {
		log.Error("failed to list ads missing embeddings", zap.Error(err))
		return
	}
	if len(ads) == 0 {
		return
	}

	var updated int
	for start := 0; start < len(ads); start += cfg.EmbedBatchSize {
		end := start + cfg.EmbedBatchSize
		if end > len(ads) {
			end = len(ads)
		}
		batch := ads[start:end]

		texts := make([]string, 0, len(batch))
		for _, ad := range batch {
			texts = append(texts, embeddingDocText(ad))
		}

		vectors, err := gemini.EmbedTexts(ctx, texts)
		if err != nil {
			log.Error("embedding batch failed", zap.Int("batch_size", len(batch)), zap.Error(err))
			return
		}
		if len(vectors) != len(batch) {
			log.Error("embedding count mismatch",
				zap.Int("want", len(batch)), zap.Int("got", len(vectors)))
			return
		}

		for i, ad := range batch {
			if err := adRepo.UpdateEmbedding(ctx, ad.ID, vectors[i]); err != nil {
				log.Error("failed to store embedding", zap.Int("ad_id", ad.ID), zap.Error(err))
				continue
			}
			updated++
		}
	}

	log.Info("embedding backfill pass done",
		zap.Int("candidates", len(ads)), zap.Int("updated", updated))
}

// embeddingDocText is the document-side text that ad embeddings are built
// from. Queries embed the raw user message against it.
func embeddingDocText(ad models.Ad) string {
	return fmt.Sprintf("%s\n%s\n%s", ad.Title, ad.Description, strings.Join(ad.Keywords, ", "))
}

func countAdEvent(ctx context.Context, rdb *redis.Client, event events.Event, log *zap.Logger) {
	var key string
	switch event.Type {
	case events.EventAdViewed:
		key = "stats:ad_views:" + time.Now().UTC().Format("2006-01-02")
	case events.EventAdClickTracked:
		key = "stats:ad_clicks:" + time.Now().UTC().Format("2006-01-02")
	default:
		return
	}
	if err := rdb.Incr(ctx, key).Err(); err != nil {
		log.Debug("failed to bump ad counter", zap.String("key", key), zap.Error(err))
	}
}
