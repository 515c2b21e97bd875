// Package logger provides structured logging built on the standard slog package.
// It offers environment presets, configurable output formats, and a set of
// pre-built attribute helpers for common logging scenarios.
//
// # Basic Usage
//
// Create loggers using the factory function with configuration options:
//
//	import "github.com/behaviorsense/encoderd/core/logger"
//
//	// Development: text format, debug level
//	log := logger.New(logger.WithDevelopment("encoderd"))
//
//	// Production: JSON format, info level
//	log := logger.New(
//		logger.WithProduction("encoderd"),
//		logger.WithLevel(slog.LevelWarn),
//	)
//
//	log.Info("server starting",
//		logger.Component("server"),
//		logger.Event("startup"),
//	)
//
// # Environment Configuration
//
// A Config struct with env tags is provided for loading logger settings
// from the environment:
//
//	var cfg logger.Config
//	config.MustLoad(&cfg)
//	log := logger.NewFromConfig(cfg)
//
// # Attribute Helpers
//
// Helpers follow the empty-Attr pattern for nil safety, so calls like
// logger.Error(err) are safe without explicit nil checks:
//
//	log.Error("encode failed",
//		logger.Error(err),
//		logger.Component("encoder"),
//		logger.Model("motion"),
//		logger.Latency(time.Since(start)),
//	)
package logger
