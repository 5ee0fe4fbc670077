package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

var ErrMissingConfig = errors.New("missing required configuration")

// Config carries every process input. All clients are constructed from
// it once at startup; nothing reads the environment after Load.
type Config struct {
	Environment string

	StorageEndpoint  string
	StorageRegion    string
	StorageAccessKey string
	StorageSecretKey string
	StorageUseSSL    bool

	SourceBucket      string
	SourceKey         string
	DestinationBucket string

	QueueAddr     string
	QueuePassword string
	QueueDB       int
	QueueKey      string
	ReceiptHandle string

	LeaseTable        string
	LeaseTTL          time.Duration
	HeartbeatInterval time.Duration

	DatabaseURL  string
	DatabaseName string

	KafkaBrokers []string
	KafkaTopic   string

	FFmpegPath  string
	FFprobePath string
	ScratchDir  string
}

// Load reads the environment and fails fast when any required input is
// missing, before any side effect occurs.
func Load() (Config, error) {
	cfg := Config{
		Environment: valueOrDefault(os.Getenv("ENVIRONMENT"), "production"),

		StorageEndpoint:  os.Getenv("STORAGE_ENDPOINT"),
		StorageRegion:    os.Getenv("STORAGE_REGION"),
		StorageAccessKey: os.Getenv("STORAGE_ACCESS_KEY"),
		StorageSecretKey: os.Getenv("STORAGE_SECRET_KEY"),
		StorageUseSSL:    strings.EqualFold(os.Getenv("STORAGE_USE_SSL"), "true"),

		SourceBucket:      os.Getenv("SOURCE_BUCKET"),
		SourceKey:         os.Getenv("SOURCE_KEY"),
		DestinationBucket: os.Getenv("DESTINATION_BUCKET"),

		QueueAddr:     os.Getenv("QUEUE_ADDR"),
		QueuePassword: os.Getenv("QUEUE_PASSWORD"),
		QueueDB:       parseInt(os.Getenv("QUEUE_DB"), 0),
		QueueKey:      valueOrDefault(os.Getenv("QUEUE_KEY"), "video:encode:jobs"),
		ReceiptHandle: os.Getenv("RECEIPT_HANDLE"),

		LeaseTable:        os.Getenv("LEASE_TABLE"),
		LeaseTTL:          parseDuration(os.Getenv("LEASE_TTL"), 90*time.Second),
		HeartbeatInterval: parseDuration(os.Getenv("HEARTBEAT_INTERVAL"), 30*time.Second),

		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		KafkaTopic: os.Getenv("KAFKA_TOPIC"),

		FFmpegPath:  valueOrDefault(os.Getenv("FFMPEG_PATH"), "ffmpeg"),
		FFprobePath: valueOrDefault(os.Getenv("FFPROBE_PATH"), "ffprobe"),
		ScratchDir:  valueOrDefault(os.Getenv("SCRATCH_DIR"), os.TempDir()),
	}

	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		cfg.KafkaBrokers = strings.Split(brokers, ",")
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	required := []struct {
		name  string
		value string
	}{
		{"STORAGE_ENDPOINT", c.StorageEndpoint},
		{"STORAGE_REGION", c.StorageRegion},
		{"STORAGE_ACCESS_KEY", c.StorageAccessKey},
		{"STORAGE_SECRET_KEY", c.StorageSecretKey},
		{"SOURCE_BUCKET", c.SourceBucket},
		{"SOURCE_KEY", c.SourceKey},
		{"DESTINATION_BUCKET", c.DestinationBucket},
		{"QUEUE_ADDR", c.QueueAddr},
		{"RECEIPT_HANDLE", c.ReceiptHandle},
		{"LEASE_TABLE", c.LeaseTable},
		{"DATABASE_URL", c.DatabaseURL},
		{"DATABASE_NAME", c.DatabaseName},
	}

	var missing []string
	for _, r := range required {
		if r.value == "" {
			missing = append(missing, r.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingConfig, strings.Join(missing, ", "))
	}

	if c.HeartbeatInterval >= c.LeaseTTL {
		return fmt.Errorf("%w: HEARTBEAT_INTERVAL must be smaller than LEASE_TTL", ErrMissingConfig)
	}

	return nil
}

// MetadataDSN combines the connection string with the database name,
// which arrive as separate inputs.
func (c Config) MetadataDSN() string {
	return strings.TrimRight(c.DatabaseURL, "/") + "/" + c.DatabaseName
}

// EventsEnabled reports whether terminal-transition events should be
// published; without a broker the outbox rows are left for the
// platform's publisher.
func (c Config) EventsEnabled() bool {
	return len(c.KafkaBrokers) > 0 && c.KafkaTopic != ""
}

func valueOrDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func parseInt(v string, def int) int {
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func parseDuration(v string, def time.Duration) time.Duration {
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}
