// Package config loads castellan configuration from file and environment.
//
// Configuration is read from castellan.yml in the config directory, with
// CASTELLAN_* environment variables taking precedence. Each attribute tracks
// where its value came from for the `castellanctl configuration` command.
package config
