package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LOG_COLLECTOR_URL", "")
	t.Setenv("LOG_SHIPPING_ENABLED", "")
	t.Setenv("WEBHOOK_LINKEDIN_URL", "")

	cfg := Load()
	if cfg.Env != "dev" {
		t.Fatalf("expected dev env, got %q", cfg.Env)
	}
	if cfg.LogShipping {
		t.Fatalf("shipping must default off without a collector")
	}
	if cfg.WebhookTimeout != 10*time.Second {
		t.Fatalf("unexpected webhook timeout %s", cfg.WebhookTimeout)
	}
	if _, ok := cfg.Webhooks["LinkedIn"]; ok {
		t.Fatalf("expected no LinkedIn webhook")
	}
}

func TestLoadShippingFollowsCollector(t *testing.T) {
	t.Setenv("LOG_COLLECTOR_URL", "http://collector:9000/logs")
	t.Setenv("LOG_SHIPPING_ENABLED", "")
	if !Load().LogShipping {
		t.Fatalf("expected shipping on when a collector is set")
	}

	t.Setenv("LOG_SHIPPING_ENABLED", "false")
	if Load().LogShipping {
		t.Fatalf("expected explicit flag to disable shipping")
	}
}

func TestLoadWebhooksAndEnv(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("WEBHOOK_COMPANY_DETAILS_URL", " http://n8n/webhook/company ")
	t.Setenv("WEBHOOK_TIMEOUT", "bogus")

	cfg := Load()
	if cfg.Env != "production" {
		t.Fatalf("expected production, got %q", cfg.Env)
	}
	if cfg.Webhooks["CompanyDetails"] != "http://n8n/webhook/company" {
		t.Fatalf("unexpected webhook map: %v", cfg.Webhooks)
	}
	if cfg.WebhookTimeout != 10*time.Second {
		t.Fatalf("invalid duration should fall back to default, got %s", cfg.WebhookTimeout)
	}
}

func TestParseEnvLine(t *testing.T) {
	cases := []struct {
		in       string
		key, val string
		ok       bool
	}{
		{"PORT=9090", "PORT", "9090", true},
		{`export DATABASE_URL="postgres://x"`, "DATABASE_URL", "postgres://x", true},
		{"# comment", "", "", false},
		{"novalue", "", "", false},
		{"=x", "", "", false},
	}
	for _, tc := range cases {
		key, val, ok := parseEnvLine(tc.in)
		if key != tc.key || val != tc.val || ok != tc.ok {
			t.Fatalf("parseEnvLine(%q) = %q, %q, %v", tc.in, key, val, ok)
		}
	}
}
