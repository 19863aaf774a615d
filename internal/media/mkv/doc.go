// Package mkv reads Matroska and WebM files.
//
// The reader walks the EBML element tree directly: the segment header
// (Info, Tracks) is parsed up front and clusters are streamed one element
// at a time, so memory use is bounded by the largest block.
package mkv
