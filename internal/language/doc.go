// Package language normalizes the language codes containers attach to
// tracks.
//
// MP4 stores ISO 639-2/T codes, Matroska stores ISO 639-2/B codes or
// BCP 47 tags, and ffprobe passes through whatever the container held. All
// of them are reduced to ISO 639-2/T here so tracks from different sources
// compare equal.
package language
