package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/jmgilman/go/drives/errors"
)

// NewLogger builds a zap logger from cfg. The console format uses zap's
// development encoder; anything else logs JSON.
func NewLogger(cfg LogConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		return nil, errors.WithContext(
			errors.Wrap(err, errors.CodeInvalidConfig, "invalid log level"),
			"level", cfg.Level,
		)
	}

	var zc zap.Config
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return nil, errors.Wrap(err, errors.CodeInternal, "failed to build logger")
	}
	return logger, nil
}
