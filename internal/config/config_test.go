package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("WIKIGEST_CONFIG", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != defaultPort {
		t.Errorf("expected port %s, got %s", defaultPort, cfg.Port)
	}
	if cfg.MaxDepth != defaultMaxDepth {
		t.Errorf("expected max depth %d, got %d", defaultMaxDepth, cfg.MaxDepth)
	}
	if cfg.JobTTL != defaultJobTTL {
		t.Errorf("expected job ttl %v, got %v", defaultJobTTL, cfg.JobTTL)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("WIKIGEST_CONFIG", "")
	t.Setenv("PORT", "9000")
	t.Setenv("LANGUAGES", "Deutsch, Polski ,")
	t.Setenv("NAMESPACES", "0,14")
	t.Setenv("STRIP_CATEGORIES", "true")
	t.Setenv("JOB_TTL", "5m")
	t.Setenv("WORKER_COUNT", "-3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9000" {
		t.Errorf("expected port 9000, got %s", cfg.Port)
	}
	if len(cfg.Languages) != 2 || cfg.Languages[0] != "Deutsch" || cfg.Languages[1] != "Polski" {
		t.Errorf("unexpected languages %q", cfg.Languages)
	}
	if len(cfg.Namespaces) != 2 || cfg.Namespaces[1] != 14 {
		t.Errorf("unexpected namespaces %v", cfg.Namespaces)
	}
	if !cfg.StripCategories {
		t.Error("expected strip categories")
	}
	if cfg.JobTTL != 5*time.Minute {
		t.Errorf("expected 5m, got %v", cfg.JobTTL)
	}
	if cfg.WorkerCount != defaultWorkerCount {
		t.Errorf("expected negative worker count to be clamped, got %d", cfg.WorkerCount)
	}
}

func TestLoad_BadNamespacesKeepFallback(t *testing.T) {
	t.Setenv("WIKIGEST_CONFIG", "")
	t.Setenv("NAMESPACES", "0,main")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Namespaces != nil {
		t.Errorf("expected no namespaces, got %v", cfg.Namespaces)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wikigest.yaml")
	body := "port: \"7000\"\nadapter: dewiktionary\nmax_depth: 12\njob_ttl: 2h\nlanguages: [Deutsch]\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WIKIGEST_CONFIG", path)
	t.Setenv("PORT", "7001")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "7001" {
		t.Errorf("expected env to win over file, got %s", cfg.Port)
	}
	if cfg.Adapter != "dewiktionary" || cfg.MaxDepth != 12 {
		t.Errorf("unexpected file values %+v", cfg)
	}
	if cfg.JobTTL != 2*time.Hour {
		t.Errorf("expected 2h, got %v", cfg.JobTTL)
	}
	if len(cfg.Languages) != 1 || cfg.Languages[0] != "Deutsch" {
		t.Errorf("unexpected languages %q", cfg.Languages)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("WIKIGEST_CONFIG", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Error("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err == nil {
		t.Error("expected missing api key to fail validation")
	}

	cfg.APIKey = "secret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}

	cfg.LogLevel = "loud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected bad log level to fail validation")
	}

	cfg.LogLevel = "info"
	cfg.Port = "http"
	if err := cfg.Validate(); err == nil {
		t.Error("expected bad port to fail validation")
	}
}
