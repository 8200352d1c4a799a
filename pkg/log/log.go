package log

import (
	"fmt"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var logger *zap.Logger

func InitProd() *zap.Logger {
	return initLogger(zap.NewProductionConfig())
}

func InitDev() *zap.Logger {
	return initLogger(zap.NewDevelopmentConfig())
}

// InitFile builds a production logger that additionally writes JSON lines
// into a rotated file.
func InitFile(path string) *zap.Logger {
	config := zap.NewProductionConfig()
	rotated := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    100,
		MaxBackups: 5,
		MaxAge:     28,
		Compress:   true,
	}
	fileCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(config.EncoderConfig),
		zapcore.AddSync(rotated),
		config.Level,
	)
	return initLogger(config, zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, fileCore)
	}))
}

func initLogger(config zap.Config, opts ...zap.Option) *zap.Logger {
	var err error
	opts = append(opts, zap.AddStacktrace(zap.WarnLevel))
	logger, err = config.Build(opts...)
	if err != nil {
		fmt.Printf("Failed to init zap logger: %v", err)
		os.Exit(1)
	}
	zap.ReplaceGlobals(logger)
	return logger
}

func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}
