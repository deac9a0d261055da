// Package logger provides structured logging for the ytplayer engine.
//
// Features:
//   - Multiple log levels (TRACE, DEBUG, INFO, WARN, ERROR)
//   - Component-based filtering
//   - Multiple output formats (text, JSON, color)
//   - Thread-safe operations
//   - Configuration from YTPLAYER_LOG_* environment variables
//
// Usage:
//
//	log := logger.WithComponent(logger.ComponentDash)
//	log.Debug("probing initialization url", map[string]interface{}{
//		"hops": 2,
//	})
//
//	config := logger.DefaultConfig()
//	config.Level = logger.DEBUG
//	config.Format = logger.FormatJSON
//	logger.SetGlobalLogger(logger.New(config))
//
// Components:
//   - ComponentApp: engine wiring
//   - ComponentDownloader: HTTP requests
//   - ComponentPlayerCode: player code discovery and download
//   - ComponentCipher: function extraction
//   - ComponentPlayer: manager caches and deobfuscation
//   - ComponentDash: manifest synthesis and probing
//   - ComponentJavaScript: script compilation and execution
package logger
