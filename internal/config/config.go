package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Auth
	APIKey string `yaml:"api_key"`

	// Worker pool
	WorkerCount        int `yaml:"worker_count"`
	MaxQueueSize       int `yaml:"max_queue_size"`
	MaxConcurrentPages int `yaml:"max_concurrent_pages"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// Parsing
	StripCategories bool `yaml:"strip_categories"`
	Debug           bool `yaml:"debug"`
	MaxDepth        int  `yaml:"max_depth"`

	// Splitting
	Adapter     string   `yaml:"adapter"`
	AdaptersDir string   `yaml:"adapters_dir"`
	Exporter    string   `yaml:"exporter"`
	Languages   []string `yaml:"languages"`
	Namespaces  []int    `yaml:"namespaces"`
	Equality    bool     `yaml:"equality"`
	StopOnError bool     `yaml:"stop_on_error"`

	// Storage
	SQLitePath string `yaml:"sqlite_path"`
	OutputDir  string `yaml:"output_dir"`

	LogLevel string `yaml:"log_level"`
}

const (
	defaultPort               = "8090"
	defaultWorkerCount        = 2
	defaultMaxQueueSize       = 100
	defaultMaxConcurrentPages = 8
	defaultMaxUploadBytes     = 1 << 30 // 1GB, dumps are large
	defaultJobTTL             = 1 * time.Hour
	defaultMaxDepth           = 64
)

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Port:               defaultPort,
		WorkerCount:        defaultWorkerCount,
		MaxQueueSize:       defaultMaxQueueSize,
		MaxConcurrentPages: defaultMaxConcurrentPages,
		MaxUploadBytes:     defaultMaxUploadBytes,
		JobTTL:             defaultJobTTL,
		MaxDepth:           defaultMaxDepth,
		AdaptersDir:        "adapters",
		OutputDir:          "out",
		LogLevel:           "info",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// WIKIGEST_CONFIG if set, then environment variables.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv("WIKIGEST_CONFIG"); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return cfg, err
		}
	}

	cfg.Port = envOr("PORT", cfg.Port)
	cfg.APIKey = envOr("WIKIGEST_API_KEY", cfg.APIKey)

	cfg.WorkerCount = envInt("WORKER_COUNT", cfg.WorkerCount)
	cfg.MaxQueueSize = envInt("MAX_QUEUE_SIZE", cfg.MaxQueueSize)
	cfg.MaxConcurrentPages = envInt("MAX_CONCURRENT_PAGES", cfg.MaxConcurrentPages)
	cfg.MaxUploadBytes = envInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes)
	cfg.JobTTL = envDuration("JOB_TTL", cfg.JobTTL)

	cfg.StripCategories = envBool("STRIP_CATEGORIES", cfg.StripCategories)
	cfg.Debug = envBool("PARSER_DEBUG", cfg.Debug)
	cfg.MaxDepth = envInt("MAX_DEPTH", cfg.MaxDepth)

	cfg.Adapter = envOr("ADAPTER", cfg.Adapter)
	cfg.AdaptersDir = envOr("ADAPTERS_DIR", cfg.AdaptersDir)
	cfg.Exporter = envOr("EXPORTER", cfg.Exporter)
	cfg.Languages = envList("LANGUAGES", cfg.Languages)
	cfg.Namespaces = envInts("NAMESPACES", cfg.Namespaces)
	cfg.Equality = envBool("EQUALITY", cfg.Equality)
	cfg.StopOnError = envBool("STOP_ON_ERROR", cfg.StopOnError)

	cfg.SQLitePath = envOr("SQLITE_PATH", cfg.SQLitePath)
	cfg.OutputDir = envOr("OUTPUT_DIR", cfg.OutputDir)
	cfg.LogLevel = envOr("LOG_LEVEL", cfg.LogLevel)

	cfg.clamp()
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) clamp() {
	if c.WorkerCount <= 0 {
		c.WorkerCount = defaultWorkerCount
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = defaultMaxQueueSize
	}
	if c.MaxConcurrentPages <= 0 {
		c.MaxConcurrentPages = defaultMaxConcurrentPages
	}
	if c.MaxUploadBytes <= 0 {
		c.MaxUploadBytes = defaultMaxUploadBytes
	}
	if c.JobTTL <= 0 {
		c.JobTTL = defaultJobTTL
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = defaultMaxDepth
	}
}

// Validate checks what the HTTP server needs to start.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Port, validation.Required, is.Port),
		validation.Field(&c.APIKey, validation.Required.Error("WIKIGEST_API_KEY is required")),
		validation.Field(&c.WorkerCount, validation.Min(1), validation.Max(64)),
		validation.Field(&c.MaxConcurrentPages, validation.Min(1)),
		validation.Field(&c.MaxDepth, validation.Min(1)),
		validation.Field(&c.LogLevel, validation.In("debug", "info", "warn", "error")),
	)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

// envList reads a comma separated list.
func envList(key string, fallback []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func envInts(key string, fallback []int) []int {
	list := envList(key, nil)
	if list == nil {
		return fallback
	}
	out := make([]int, 0, len(list))
	for _, s := range list {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fallback
		}
		out = append(out, n)
	}
	return out
}
