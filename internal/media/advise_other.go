//go:build !linux

package media

import "os"

func adviseSequential(*os.File) {}
