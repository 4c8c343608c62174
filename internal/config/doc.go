// Package config loads, normalizes, and validates crate configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// CRATE_DATA_DIR and CRATE_NTFY_TOPIC. The Config type centralizes the knobs
// the pending release core needs: minimum release age, feed sync interval and
// preferred-term scores.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
