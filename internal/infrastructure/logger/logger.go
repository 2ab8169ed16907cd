package logger

import (
	"log"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/custodialabs/payment-service/internal/config"
)

// MustInit builds the process logger from the log_config section.
func MustInit(cfg *config.LogConfig) *zap.Logger {
	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zapcore.InfoLevel
	}

	var zcfg zap.Config
	if cfg.LogFormat == "console" {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	if cfg.LogOutput != "" {
		zcfg.OutputPaths = []string{cfg.LogOutput}
	}

	l, err := zcfg.Build()
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	zap.ReplaceGlobals(l)
	return l
}
