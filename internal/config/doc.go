// Package config loads, normalizes, and validates symphonia configuration.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files and honours environment fallbacks such as SYMPHONIA_FFI_LIBRARY.
// Commands obtain every setting through this package so they receive
// sanitized paths, canonical backend and log names, and clear validation
// errors.
package config
