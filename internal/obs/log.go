package obs

import (
	"os"

	"go.uber.org/zap"
)

// NewLogger builds the shared structured logger for a service binary.
func NewLogger(level, service string, prod bool) *zap.Logger {
	cfg := zap.NewProductionConfig()
	if !prod {
		cfg = zap.NewDevelopmentConfig()
	}
	_ = cfg.Level.UnmarshalText([]byte(level))
	cfg.OutputPaths = []string{"stdout"}
	cfg.InitialFields = map[string]any{"service": service}
	if host, err := os.Hostname(); err == nil {
		cfg.InitialFields["host"] = host
	}
	logger, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}
