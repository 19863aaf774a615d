// Package flv reads Flash Video files. Video is reported as track 1 and
// audio as track 2, both with a millisecond time base.
package flv
