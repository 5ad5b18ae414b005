// Package config manages application configuration for the Ludoteca API.
//
// Configuration is read from environment variables into tagged structs using
// caarlos0/env. A local .env file is merged first when present:
//
//	cfg, err := config.Load()
//	if err != nil { ... }
//	if err := cfg.Validate(); err != nil { ... }
//
// # Configuration Groups
//
//   - ServerConfig: HTTP server settings (port, timeouts, CORS, idempotency)
//   - DatabaseConfig: SurrealDB connection settings and startup migrations
//   - JWTConfig: access token signing and refresh token lifetime
//   - RentalConfig: loan period, per-user rental cap, pending request TTL
//   - RateLimitConfig: per-client request rate
//   - JobsConfig: background job intervals and cron schedules
//   - BootstrapConfig: first administrator account
//
// Validate reports every problem at once, joined with errors.Join.
package config
