// Package logging provides structured logging configuration for wsfeed.
//
// This package wraps log/slog so every wsfeed component logs the same way.
// Components accept a *slog.Logger through an option; when none is given they
// fall back to Nop().
//
//	logger := logging.New(logging.Config{
//	    Level:  logging.ParseLevel(cfg.Log.Level),
//	    Format: logging.ParseFormat(cfg.Log.Format),
//	})
//	logger.Info("connected", "target", target)
//
// NewWithFile additionally mirrors every record as JSON into a log file.
package logging
