//go:build linux || darwin || freebsd

package native

import "github.com/ebitengine/purego"

func open(path string) (*Library, error) {
	handle, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_GLOBAL)
	if err != nil {
		return nil, err
	}
	lib := &Library{path: path, handle: handle}
	if err := bind(handle, &lib.fns); err != nil {
		_ = purego.Dlclose(handle)
		return nil, err
	}
	return lib, nil
}

func bind(handle uintptr, fns *functions) error {
	for _, name := range []string{
		"sm_io_media_source_stream_new_file",
		"sm_probe",
		"sm_format_next_packet",
	} {
		if _, err := purego.Dlsym(handle, name); err != nil {
			return err
		}
	}
	purego.RegisterLibFunc(&fns.newFile, handle, "sm_io_media_source_stream_new_file")
	purego.RegisterLibFunc(&fns.probe, handle, "sm_probe")
	purego.RegisterLibFunc(&fns.nextPacket, handle, "sm_format_next_packet")
	return nil
}

func closeHandle(handle uintptr) error {
	if handle == 0 {
		return nil
	}
	return purego.Dlclose(handle)
}
