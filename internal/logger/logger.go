// Package logger builds the zap logger used across the client.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a development-style zap logger at the given level. Unknown
// level strings default to info.
func New(level string) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()

	switch level {
	case "debug":
		cfg.Level.SetLevel(zap.DebugLevel)
	case "info":
		cfg.Level.SetLevel(zap.InfoLevel)
	case "warn":
		cfg.Level.SetLevel(zap.WarnLevel)
	case "error":
		cfg.Level.SetLevel(zap.ErrorLevel)
	default:
		cfg.Level.SetLevel(zap.InfoLevel)
	}

	lgr, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logger: build failed: %w", err)
	}
	return lgr, nil
}
