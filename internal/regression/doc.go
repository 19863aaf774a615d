// Package regression compares a format reader against a YAML expectation
// file.
//
// An expectation lists the container's format info, every track with its
// codec parameters, and the first packets rendered as
// "n, track_id, pts, dts, dur, data_len" lines. Verify reports every
// difference as a Mismatch instead of stopping at the first one; Record
// produces an expectation from a live reader so new fixtures can be
// captured with `symphonia verify --record`.
package regression
