// Package isomp4 reads ISO Base Media files (MP4, M4A, MOV) with
// github.com/abema/go-mp4. The sample tables of every track are flattened into
// one list ordered by file offset, so packets come out in the order they are
// stored in mdat.
package isomp4
