package config

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

// inDir runs the test from an empty directory so no stray .env or
// config.yaml is picked up.
func inDir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(wd) })
}

func clearCredentials(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"client_id", "client_secret", "user_agent",
		"REDDIT_CLIENT_ID", "REDDIT_CLIENT_SECRET", "REDDIT_USER_AGENT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	inDir(t, t.TempDir())
	clearCredentials(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Scrape.Sort != "top" || cfg.Scrape.TimeFilter != "year" || cfg.Scrape.Limit != 999 || cfg.Scrape.Threshold != 5 {
		t.Errorf("scrape defaults = %+v", cfg.Scrape)
	}
	if !cfg.Scrape.Normalize || !cfg.Scrape.Parallel || cfg.Scrape.ReservedWorkers != 2 {
		t.Errorf("scrape defaults = %+v", cfg.Scrape)
	}
	if cfg.Server.OutputDir != "output" {
		t.Errorf("server output dir = %q", cfg.Server.OutputDir)
	}
	if cfg.Reddit.Timeout != 30*time.Second || cfg.Redis.TTL != time.Hour {
		t.Errorf("durations = %v, %v", cfg.Reddit.Timeout, cfg.Redis.TTL)
	}

	err = cfg.Validate()
	if !errors.Is(err, ErrMissingCredentials) {
		t.Fatalf("Validate err = %v, want ErrMissingCredentials", err)
	}
	for _, name := range []string{"client_id", "client_secret", "user_agent"} {
		if !strings.Contains(err.Error(), name) {
			t.Errorf("error %q does not name %s", err, name)
		}
	}
}

func TestLoadCredentialsFromDotEnv(t *testing.T) {
	dir := t.TempDir()
	inDir(t, dir)
	clearCredentials(t)

	env := "client_id=abc\nclient_secret=shh\nuser_agent=scraper/1.0\n"
	if err := os.WriteFile(".env", []byte(env), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv sets these for the rest of the process
	t.Cleanup(func() {
		for _, key := range []string{"client_id", "client_secret", "user_agent"} {
			os.Unsetenv(key)
		}
	})

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if cfg.Reddit.ClientID != "abc" || cfg.Reddit.ClientSecret != "shh" || cfg.Reddit.UserAgent != "scraper/1.0" {
		t.Errorf("reddit config = %+v", cfg.Reddit)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	inDir(t, t.TempDir())
	clearCredentials(t)

	yaml := "scrape:\n  sort: new\n  limit: 50\nsqlite:\n  path: rows.db\n"
	if err := os.WriteFile("config.yaml", []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SCRAPE_THRESHOLD", "10")
	t.Setenv("REDDIT_CLIENT_ID", "from-env")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Scrape.Sort != "new" || cfg.Scrape.Limit != 50 || cfg.Scrape.Threshold != 10 {
		t.Errorf("scrape = %+v", cfg.Scrape)
	}
	if cfg.SQLite.Path != "rows.db" {
		t.Errorf("sqlite path = %q", cfg.SQLite.Path)
	}
	if cfg.Reddit.ClientID != "from-env" {
		t.Errorf("client id = %q", cfg.Reddit.ClientID)
	}
}
