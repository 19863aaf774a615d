// Package probe identifies the container format of a media source and opens
// the matching format reader.
package probe
