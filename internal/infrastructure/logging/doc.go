// Package logging wraps log/slog with the conventions hearthd uses
// everywhere: JSON output in production, text during development, and a
// service/version attribute pair stamped on every record.
//
// Configuration comes from the logging section of config.yaml:
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Typical use:
//
//	log := logging.New(cfg.Logging, version)
//	log.Info("api listening", "port", cfg.API.Port)
//
// Never log secrets. Tokens, password hashes, and JWT signing material
// must not appear in records at any level.
package logging
