// Package crosscheck compares the tracks a format reader reports with an
// ffprobe report of the same file and lists the disagreements.
package crosscheck
