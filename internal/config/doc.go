// Package config loads, normalizes, and validates mbtagger configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads an optional env file, and honours
// environment overrides such as MBTAGGER_CONTACT. The Config type centralizes
// every knob the CLI needs, including the matching constants that become the
// reconciler's immutable Policy.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
