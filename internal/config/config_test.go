package config

import "testing"

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("SEED_ADMIN_PASSWORD", "")

	cfg := Load()
	if cfg.AuthSecret != "" {
		t.Fatalf("expected empty AUTH_SECRET when unset, got %q", cfg.AuthSecret)
	}
	if cfg.SeedAdminPassword != "" {
		t.Fatalf("expected empty SEED_ADMIN_PASSWORD when unset, got %q", cfg.SeedAdminPassword)
	}
}

func TestLoadParsesListsAndFlags(t *testing.T) {
	t.Setenv("ALLOWED_ORIGINS", " https://studio.example , ,http://localhost:3000")
	t.Setenv("SEED_DEFAULT_PARTNERS", "false")
	t.Setenv("ACCESS_TOKEN_TTL_MINUTES", "-4")

	cfg := Load()
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[0] != "https://studio.example" {
		t.Fatalf("unexpected origins %#v", cfg.AllowedOrigins)
	}
	if cfg.SeedDefaultPartners {
		t.Fatalf("expected SEED_DEFAULT_PARTNERS=false to disable seeding")
	}
	if cfg.AccessTokenTTLMinutes != 10080 {
		t.Fatalf("expected invalid ttl to fall back to 7 days, got %d", cfg.AccessTokenTTLMinutes)
	}
}
