package main

import (
	"symphonia/internal/media"
)

// Process exit codes. Each failing step of the check workflow has its own
// code so scripts can tell them apart.
const (
	exitOK          = 0
	exitFailure     = 1
	exitOpen        = 2
	exitProbe       = 3
	exitDecode      = 4
	exitEndOfStream = 5
)

func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	switch media.KindOf(err) {
	case media.KindOpen:
		return exitOpen
	case media.KindProbe:
		return exitProbe
	case media.KindDecode:
		return exitDecode
	case media.KindEndOfStream:
		return exitEndOfStream
	default:
		return exitFailure
	}
}
