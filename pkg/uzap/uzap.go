package uzap

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Dev   bool
	Level string
}

func NewConfig() (Config, error) {
	c := Config{}

	if os.Getenv("MODBOT_DEV_MODE") != "" {
		c.Dev = true
	}

	c.Level = os.Getenv("MODBOT_LOG_LEVEL")

	return c, nil
}

func New(c Config) (*zap.Logger, error) {
	var zc zap.Config
	if c.Dev {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	if c.Level != "" {
		lvl, err := zapcore.ParseLevel(c.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", c.Level, err)
		}
		zc.Level = zap.NewAtomicLevelAt(lvl)
	}

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}

	return logger, nil
}
