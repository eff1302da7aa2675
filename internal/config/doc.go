// Package config loads fiber project configuration.
//
// The configuration lives in fiber.json, fiber.yaml or fiber.yml at the
// project root. The first of those found wins. Durations are written as
// Go duration strings.
//
// # Configuration File Structure
//
//	scheduler:
//	  frameBudget: 16ms
//	  minBudget: 1ms
//	  idleInterval: 4ms
//	  maxQueued: 16
//	server:
//	  host: localhost
//	  port: 3000
//	  wsPath: /ws
//	  metricsPath: /metrics
//	  writeTimeout: 10s
//	  pingInterval: 30s
//	log:
//	  level: info
//	  format: text
//
// # Usage
//
//	cfg, err := config.Load(".")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	srv, err := server.New(app, cfg.ServerConfig())
package config
