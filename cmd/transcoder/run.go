package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/romariotrain/transcode-worker/internal/config"
	"github.com/romariotrain/transcode-worker/internal/events"
	"github.com/romariotrain/transcode-worker/internal/hls"
	"github.com/romariotrain/transcode-worker/internal/job"
	"github.com/romariotrain/transcode-worker/internal/lease"
	"github.com/romariotrain/transcode-worker/internal/metadata"
	"github.com/romariotrain/transcode-worker/internal/queue"
	pg "github.com/romariotrain/transcode-worker/internal/storage/postgres"
	"github.com/romariotrain/transcode-worker/internal/transcode"
	"github.com/romariotrain/transcode-worker/internal/transfer"
	"github.com/romariotrain/transcode-worker/internal/worker"
)

func run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", "transcoder").
		Logger()

	desc, err := job.Parse(cfg.SourceKey)
	if err != nil {
		return err
	}
	desc.SourceBucket = cfg.SourceBucket
	desc.DestinationBucket = cfg.DestinationBucket

	logger = logger.With().Str("content_id", desc.ContentID).Logger()

	// Dependencies
	storageClient, err := minio.New(cfg.StorageEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: cfg.StorageUseSSL,
		Region: cfg.StorageRegion,
	})
	if err != nil {
		return fmt.Errorf("storage client: %w", err)
	}

	redisClient := goredis.NewClient(&goredis.Options{
		Addr:     cfg.QueueAddr,
		Password: cfg.QueuePassword,
		DB:       cfg.QueueDB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	defer redisClient.Close()

	db, err := pg.Connect(ctx, cfg.MetadataDSN())
	if err != nil {
		return fmt.Errorf("db connect: %w", err)
	}
	defer db.Close()

	contentRepo := pg.NewContentRepo(db)
	outboxRepo := pg.NewOutboxRepo(db)
	syncer := metadata.NewSyncer(contentRepo, outboxRepo, logger)

	hostname, _ := os.Hostname()
	ownerID := fmt.Sprintf("%s-%s", hostname, uuid.NewString())
	leases := lease.NewManager(
		lease.NewRedisTable(redisClient, cfg.LeaseTable),
		cfg.LeaseTTL, cfg.HeartbeatInterval, ownerID, logger,
	)

	var drainer worker.EventDrainer
	if cfg.EventsEnabled() {
		producer, err := events.NewProducer(events.ProducerConfig{
			Brokers: cfg.KafkaBrokers,
			Topic:   cfg.KafkaTopic,
			Logger:  logger,
		})
		if err != nil {
			return fmt.Errorf("kafka producer: %w", err)
		}
		defer producer.Close()
		drainer = events.NewDrainer(outboxRepo, producer, logger)
	}

	w := worker.New(worker.Params{
		Job:           desc,
		Environment:   cfg.Environment,
		ReceiptHandle: cfg.ReceiptHandle,
		ScratchDir:    cfg.ScratchDir,
		Contents:      syncer,
		Leases:        leases,
		Transfer:      transfer.NewStore(storageClient, logger),
		Encoder:       transcode.NewEngine(cfg.FFmpegPath, cfg.FFprobePath, hls.Ladder(), hls.Options{}, logger),
		Queue:         queue.NewClient(redisClient, cfg.QueueKey, logger),
		Drainer:       drainer,
		Logger:        logger,
	})

	return w.Run(ctx)
}
