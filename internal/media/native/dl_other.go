//go:build !(linux || darwin || freebsd)

package native

func open(string) (*Library, error) { return nil, ErrUnsupported }

func closeHandle(uintptr) error { return nil }
