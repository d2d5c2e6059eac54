// Package logger builds the process-wide slog.Logger and provides shared
// attribute helpers so log keys stay consistent across components.
//
// Components never construct loggers themselves; the entry point builds one
// and injects it through each package's WithLogger option:
//
//	log := logger.NewFromConfig(cfg, logger.WithAttr(slog.String("service", "campsignal")))
//	logger.SetAsDefault(log)
//
// Attribute helpers keep field names uniform:
//
//	log.LogAttrs(ctx, slog.LevelWarn, "cache degraded to miss",
//	    logger.CacheKey(key),
//	    logger.Error(err),
//	)
package logger
