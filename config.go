package tilekit

import (
	"errors"
	"io/fs"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/hupe1980/tilekit/snapshot"
)

// EnvPrefix prefixes every environment variable read by LoadConfig.
const EnvPrefix = "TILEKIT_"

// Config is the environment-driven configuration of a Kit.
type Config struct {
	// MemoryLimitBytes caps native column memory across all tile sets. 0 disables the cap.
	MemoryLimitBytes int64 `env:"MEMORY_LIMIT_BYTES" envDefault:"0"`
	// InitialCapacity is the tile capacity used by NewTileSet when none is given.
	InitialCapacity int  `env:"INITIAL_CAPACITY" envDefault:"1024"`
	HeapMemory      bool `env:"HEAP_MEMORY" envDefault:"false"`

	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"`

	// SnapshotIOLimit throttles snapshot writes in bytes per second. 0 is unlimited.
	SnapshotIOLimit     int64  `env:"SNAPSHOT_IO_LIMIT" envDefault:"0"`
	SnapshotCompression string `env:"SNAPSHOT_COMPRESSION" envDefault:"zstd"`

	MetricsNamespace string `env:"METRICS_NAMESPACE" envDefault:"tilekit"`
}

// LoadConfig reads the configuration from the process environment after
// loading the given dotenv files. With no files, a missing .env in the working
// directory is ignored.
func LoadConfig(files ...string) (Config, error) {
	if err := godotenv.Load(files...); err != nil {
		if len(files) > 0 || !errors.Is(err, fs.ErrNotExist) {
			return Config{}, err
		}
	}
	return env.ParseAsWithOptions[Config](env.Options{Prefix: EnvPrefix})
}

// ParseConfig reads the configuration from environ instead of the process
// environment. Keys carry the TILEKIT_ prefix.
func ParseConfig(environ map[string]string) (Config, error) {
	return env.ParseAsWithOptions[Config](env.Options{
		Prefix:      EnvPrefix,
		Environment: environ,
	})
}

// Options converts the configuration into Kit options.
func (c Config) Options() ([]Option, error) {
	if c.MemoryLimitBytes < 0 {
		return nil, &ErrInvalidConfig{Field: "MEMORY_LIMIT_BYTES", Value: formatInt(c.MemoryLimitBytes)}
	}
	if c.SnapshotIOLimit < 0 {
		return nil, &ErrInvalidConfig{Field: "SNAPSHOT_IO_LIMIT", Value: formatInt(c.SnapshotIOLimit)}
	}
	if c.InitialCapacity <= 0 {
		return nil, &ErrInvalidConfig{Field: "INITIAL_CAPACITY", Value: formatInt(int64(c.InitialCapacity))}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return nil, &ErrInvalidConfig{Field: "LOG_LEVEL", Value: c.LogLevel, cause: err}
	}
	var logger *Logger
	switch strings.ToLower(c.LogFormat) {
	case "text", "":
		logger = NewTextLogger(level)
	case "json":
		logger = NewJSONLogger(level)
	case "none":
		logger = NoopLogger()
	default:
		return nil, &ErrInvalidConfig{Field: "LOG_FORMAT", Value: c.LogFormat}
	}

	compression, err := snapshot.ParseCompression(c.SnapshotCompression)
	if err != nil {
		return nil, &ErrInvalidConfig{Field: "SNAPSHOT_COMPRESSION", Value: c.SnapshotCompression, cause: err}
	}

	opts := []Option{
		WithLogger(logger),
		WithMemoryLimit(c.MemoryLimitBytes),
		WithDefaultCapacity(c.InitialCapacity),
		WithSnapshotIOLimit(c.SnapshotIOLimit),
		WithCompression(compression),
		WithMetricsNamespace(c.MetricsNamespace),
	}
	if c.HeapMemory {
		opts = append(opts, WithHeapMemory())
	}
	return opts, nil
}
