// Package logging builds the process logger on uber/zap.
//
// Two encodings are supported: "json" for machine parsing and "console" for local
// development. Components take a *zap.Logger; use Component to tag one:
//
//	logger, err := logging.New(logging.DefaultConfig())
//	bridgeLog := logger.Component("bridge")
//	bridgeLog.Info("bridge started", zap.Int("workers", 8))
package logging
