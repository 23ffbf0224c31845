package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"NATS_URL", "NATS_SUBJECT_PREFIX", "ESSENTIAL_COLUMNS", "MIGRATE_ON_START", "MAX_UPLOAD_BYTES", "API_RATE_LIMIT_RPS"} {
		t.Setenv(key, "")
	}

	cfg := Load()
	if cfg.NATSURL != "" {
		t.Fatalf("expected live updates disabled by default, got %q", cfg.NATSURL)
	}
	if cfg.NATSSubjectPrefix != "display.updates" {
		t.Fatalf("expected default subject prefix display.updates, got %q", cfg.NATSSubjectPrefix)
	}
	if len(cfg.EssentialColumns) != 1 || cfg.EssentialColumns[0] != "case_number" {
		t.Fatalf("expected default essential columns [case_number], got %v", cfg.EssentialColumns)
	}
	if !cfg.MigrateOnStart {
		t.Fatalf("expected migrate on start by default")
	}
	if cfg.MaxUploadBytes != 16<<20 {
		t.Fatalf("expected default max upload 16MiB, got %d", cfg.MaxUploadBytes)
	}
	if cfg.APIRateLimitRPS != 0 {
		t.Fatalf("expected rate limit disabled by default, got %v", cfg.APIRateLimitRPS)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	t.Setenv("ESSENTIAL_COLUMNS", " case_number, order_index ,,")
	t.Setenv("MIGRATE_ON_START", "false")
	t.Setenv("API_RATE_LIMIT_RPS", "2.5")
	t.Setenv("API_RATE_LIMIT_BURST", "5")
	t.Setenv("NOTIFIER_BUFFER", "not-a-number")

	cfg := Load()
	if len(cfg.EssentialColumns) != 2 || cfg.EssentialColumns[1] != "order_index" {
		t.Fatalf("expected essential columns override, got %v", cfg.EssentialColumns)
	}
	if cfg.MigrateOnStart {
		t.Fatalf("expected migrate on start disabled")
	}
	if cfg.APIRateLimitRPS != 2.5 || cfg.APIRateLimitBurst != 5 {
		t.Fatalf("expected rate limit 2.5/5, got %v/%d", cfg.APIRateLimitRPS, cfg.APIRateLimitBurst)
	}
	if cfg.NotifierBuffer != 64 {
		t.Fatalf("expected invalid buffer to fall back to 64, got %d", cfg.NotifierBuffer)
	}
}
