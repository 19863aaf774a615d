// Package ffprobe runs ffprobe and decodes its JSON report.
//
// The report is the reference the compare command checks probed tracks
// against. Inspect executes the binary; Parse decodes an existing report.
package ffprobe
