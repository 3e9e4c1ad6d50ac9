// Package config loads, normalizes, and validates yodel configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the YODEL_DOWNLOADS_DIR
// environment override. The Config type centralizes every knob the daemon and
// CLI need: where finished tracks land, where covers and scratch files live,
// how the fetch tool is invoked, and where push notifications go.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
