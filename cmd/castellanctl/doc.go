// Package main provides castellanctl, the CLI for the castellan threat
// modeling server.
//
// Castellan keeps threat models under review and pushes the action items of
// approved models to external trackers. The server couples a review state
// machine to a pluggable export pipeline; exports are idempotent, so any
// trigger can safely be repeated.
//
// # Architecture
//
// The server is organized into several packages:
//
//   - pkg/server: HTTP server and routing
//   - pkg/server/endpoints: REST API endpoint handlers
//   - pkg/server/store: Store interfaces and GORM implementations
//   - pkg/review: Review state machine
//   - pkg/export: Export pipeline (registry, orchestrator, dispatcher)
//   - pkg/export/jira: Built-in jira exporter
//   - pkg/model: Database models
//   - pkg/db: Database connection utilities
//   - pkg/audit: Audit logging
//   - pkg/config: Configuration management
//
// # Quick Start
//
//	# Run database migrations
//	castellanctl db migrate
//
//	# Start the server
//	export CASTELLAN_JWT_SECRET=...
//	castellanctl server
//
//	# Re-export a model's action items
//	castellanctl export --model 4f5c...
//
// # Environment Variables
//
//   - DATABASE_URL: PostgreSQL connection string
//   - CASTELLAN_JWT_SECRET: HMAC secret for API bearer tokens
//   - CASTELLAN_CONFIG_PATH: Config directory (default /etc/castellan/config)
//   - CASTELLAN_LOG_LEVEL: Log level (debug enables SQL logging)
//   - JIRA_USER, JIRA_API_TOKEN: Jira exporter credentials
package main
