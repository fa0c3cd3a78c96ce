package bootstrap

import (
	"element-scout/internal/config"
	"fmt"

	"go.uber.org/zap"
)

// newLogger writes to stderr so log lines do not interleave with console output on stdout.
func newLogger(config *config.Config) (*zap.Logger, error) {
	var zapConfig zap.Config

	if config.AppConfig.Debug {
		zapConfig = zap.NewDevelopmentConfig()
	} else {
		zapConfig = zap.NewProductionConfig()
	}

	zapConfig.DisableStacktrace = true
	zapConfig.OutputPaths = []string{"stderr"}

	level, err := zap.ParseAtomicLevel(config.AppConfig.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("parse LOG_LEVEL: %w", err)
	}
	zapConfig.Level = level

	logger, err := zapConfig.Build(zap.Fields(zap.String("service", serviceName)))
	if err != nil {
		return nil, err
	}

	return logger, nil
}
