package main

import (
	"context"
	"testing"

	"studioledger/backend/internal/cache"
	"studioledger/backend/internal/config"
	"studioledger/backend/internal/httpapi"
	"studioledger/backend/internal/lock"
	"studioledger/backend/internal/logging"
	"studioledger/backend/internal/service"
	"studioledger/backend/internal/store/memory"
)

const strongSecret = "0123456789abcdef0123456789abcdef"

func TestValidateSecurityConfigRejectsWeakValues(t *testing.T) {
	cases := []config.Config{
		{AuthSecret: "short"},
		{AuthSecret: strongSecret, SeedAdminEmail: "admin@studio.test", SeedAdminPassword: "short"},
		{AuthSecret: strongSecret, SeedAdminEmail: "admin@studio.test", SeedAdminPassword: "aaaaaaaaaaaaaa"},
		{AuthSecret: strongSecret, SeedAdminEmail: "admin@studio.test", SeedAdminPassword: "abcdefghijklm"},
		{AuthSecret: strongSecret, SeedAdminEmail: "admin@studio.test", SeedAdminPassword: "Password1234"},
	}
	for _, cfg := range cases {
		if err := validateSecurityConfig(cfg); err == nil {
			t.Fatalf("expected weak security config to be rejected: %+v", cfg)
		}
	}
}

func TestValidateSecurityConfigAcceptsStrongValues(t *testing.T) {
	if err := validateSecurityConfig(config.Config{AuthSecret: strongSecret}); err != nil {
		t.Fatalf("expected config without seed admin to pass, got %v", err)
	}
	err := validateSecurityConfig(config.Config{
		AuthSecret:        strongSecret,
		SeedAdminEmail:    "admin@studio.test",
		SeedAdminPassword: "t4ble-Lamp-orbit",
	})
	if err != nil {
		t.Fatalf("expected strong config to pass, got %v", err)
	}
}

func TestBootstrapSeedsOnce(t *testing.T) {
	ctx := context.Background()
	repo := memory.New()
	logger := logging.Discard()
	svc := service.New(repo, logger)
	auth := httpapi.NewAuthManager(httpapi.AuthConfig{Secret: strongSecret}, repo, cache.NewMemoryRevocations(), logger)
	cfg := config.Config{
		SeedDefaultPartners: true,
		SeedAdminEmail:      "admin@studio.test",
		SeedAdminPassword:   "t4ble-Lamp-orbit",
	}
	locker := lock.NewLocal()

	for i := 0; i < 2; i++ {
		if err := bootstrap(ctx, cfg, locker, svc, auth, logger); err != nil {
			t.Fatalf("bootstrap run %d: %v", i+1, err)
		}
	}

	partners, err := svc.ListPartners(ctx)
	if err != nil {
		t.Fatalf("list partners: %v", err)
	}
	if len(partners) != len(service.DefaultPartners) {
		t.Fatalf("expected %d seeded partners, got %d", len(service.DefaultPartners), len(partners))
	}
	users, err := auth.ListUsers(ctx)
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	if len(users) != 1 || users[0].Role != "admin" {
		t.Fatalf("expected one admin user, got %+v", users)
	}

	release, err := locker.Acquire(ctx, seedLockKey, seedLockTTL)
	if err != nil {
		t.Fatalf("seed lock should be released after bootstrap: %v", err)
	}
	_ = release(ctx)
}
