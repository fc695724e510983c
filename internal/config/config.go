// Package config loads service configuration: baked-in defaults overridden
// by an optional YAML file. All three binaries share one schema and read the
// sections they need.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/rawbytes"
)

var DefaultConfig = []byte(`
application: "corebank"

logger:
  level: "info"

is_prod_mode: false

http:
  addr: ":8080"

grpc:
  addr: ":9090"

postgres:
  dsn: ""
  migrate: true

kafka:
  enabled: false
  brokers:
    - "localhost:9092"

auth:
  token_url: "http://localhost:8080/v1/oauth/token"
  client_id: ""
  client_secret: ""
  clients: []

targets:
  account_addr: "localhost:9090"
  transaction_addr: "localhost:9091"
  call_timeout_ms: 10000
`)

type Config struct {
	Application string   `koanf:"application"`
	Logger      Logger   `koanf:"logger"`
	IsProdMode  bool     `koanf:"is_prod_mode"`
	HTTP        HTTP     `koanf:"http"`
	GRPC        GRPC     `koanf:"grpc"`
	Postgres    Postgres `koanf:"postgres"`
	Kafka       Kafka    `koanf:"kafka"`
	Auth        Auth     `koanf:"auth"`
	Targets     Targets  `koanf:"targets"`
}

type Logger struct {
	Level string `koanf:"level"`
}

type HTTP struct {
	Addr string `koanf:"addr"`
}

type GRPC struct {
	Addr string `koanf:"addr"`
}

type Postgres struct {
	DSN     string `koanf:"dsn"`
	Migrate bool   `koanf:"migrate"`
}

type Kafka struct {
	Enabled bool     `koanf:"enabled"`
	Brokers []string `koanf:"brokers"`
}

type Auth struct {
	TokenURL     string   `koanf:"token_url"`
	ClientID     string   `koanf:"client_id"`
	ClientSecret string   `koanf:"client_secret"`
	Clients      []Client `koanf:"clients"`
}

// Client is a registered service principal for the token endpoint.
type Client struct {
	ID     string   `koanf:"id"`
	Secret string   `koanf:"secret"`
	Scopes []string `koanf:"scopes"`
}

type Targets struct {
	AccountAddr     string `koanf:"account_addr"`
	TransactionAddr string `koanf:"transaction_addr"`
	CallTimeoutMS   int    `koanf:"call_timeout_ms"`
}

// Load reads defaults, then the optional file at path.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if err := k.Load(rawbytes.Provider(DefaultConfig), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return cfg, nil
}

// Validate checks the fields every binary needs.
func (c *Config) Validate() error {
	var problems []string
	if c.Application == "" {
		problems = append(problems, "application: cannot be empty")
	}
	if c.Logger.Level == "" {
		problems = append(problems, "logger.level: cannot be empty")
	}
	if c.GRPC.Addr == "" {
		problems = append(problems, "grpc.addr: cannot be empty")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		problems = append(problems, "kafka.brokers: cannot be empty when kafka is enabled")
	}
	if c.Targets.CallTimeoutMS < 0 {
		problems = append(problems, "targets.call_timeout_ms: cannot be negative")
	}
	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return nil
}
