// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package observability

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LoggerConfig selects the level and encoding of the process logger.
type LoggerConfig struct {
	Level  string // debug, info, warn, error
	Format string // json or console
	Writer io.Writer
}

// NewLogger builds a zap logger. Writer defaults to stderr so that stdout
// stays free for command output.
func NewLogger(cfg LoggerConfig) (*zap.Logger, error) {
	levelName := cfg.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := zapcore.ParseLevel(levelName)
	if err != nil {
		return nil, err
	}

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoderConfig := zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stderr
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(writer), level)
	return zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)), nil
}
