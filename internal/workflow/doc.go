// Package workflow runs the single-shot check against a media file: open a
// source, probe it into a format reader, and pull exactly one packet.
//
// A Runner pairs an Opener (the pure Go probe or the native FFI library)
// with a logger and an optional history recorder. Every run gets a uuid run
// id that flows through the log context and into the history store. Each
// failure carries the media error kind of the step that failed (open, probe,
// decode or end_of_stream) so callers can branch on it; the reader is always
// closed before Run returns.
package workflow
