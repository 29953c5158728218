// Package config loads, normalizes, and validates reelharvest configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// APIFY_TOKEN. The Config type centralizes every knob the harvest pipeline and
// CLI need, from ranking weights to the per-entry folder layout, so components
// receive explicit values instead of reading ambient state.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
