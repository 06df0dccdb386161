// Package config loads and validates hearthd configuration.
//
// Configuration comes from a YAML file, with HEARTH_* environment
// variables overriding individual values. Load reads the file once at
// startup; nothing re-reads it at runtime.
//
//	cfg, err := config.Load("configs/config.yaml")
//	if err != nil {
//	    return err
//	}
//
// Secrets (the JWT signing key, broker passwords, API tokens) belong in
// environment variables rather than the file, and the file itself
// should be chmodded 0600 when they do appear in it.
package config
