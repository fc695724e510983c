package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Application != "corebank" {
		t.Fatalf("application=%q", cfg.Application)
	}
	if cfg.GRPC.Addr != ":9090" {
		t.Fatalf("grpc.addr=%q", cfg.GRPC.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yml")
	body := `
application: "accountd"
grpc:
  addr: ":7001"
auth:
  clients:
    - id: "transaction-service"
      secret: "s3cret"
      scopes: ["account:read", "account:write"]
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Application != "accountd" || cfg.GRPC.Addr != ":7001" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	// Untouched sections keep their defaults.
	if cfg.HTTP.Addr != ":8080" {
		t.Fatalf("http.addr=%q, want default", cfg.HTTP.Addr)
	}
	if len(cfg.Auth.Clients) != 1 || cfg.Auth.Clients[0].ID != "transaction-service" {
		t.Fatalf("clients=%+v", cfg.Auth.Clients)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.GRPC.Addr = ""
	cfg.Kafka.Enabled = true
	cfg.Kafka.Brokers = nil

	err = cfg.Validate()
	if err == nil {
		t.Fatalf("expected validation failure")
	}
	if !strings.Contains(err.Error(), "grpc.addr") || !strings.Contains(err.Error(), "kafka.brokers") {
		t.Fatalf("error=%v", err)
	}
}
