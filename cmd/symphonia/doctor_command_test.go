package main

import (
	"strings"
	"testing"

	"symphonia/internal/config"
	"symphonia/internal/testsupport"
)

func TestDoctorNativeBackend(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithStubbedFFprobe("{}"))
	stdout, _, err := runCLI(t, env, "doctor")
	if err != nil {
		t.Fatalf("doctor failed: %v\n%s", err, stdout)
	}
	requireContains(t, stdout, "== Configuration ==")
	requireContains(t, stdout, "[OK] "+env.configPath)
	requireContains(t, stdout, "isomp4, matroska, ogg, flv, wave")
	requireContains(t, stdout, "(0 runs)")
	if !strings.Contains(stdout, "FFI library:") {
		t.Fatalf("expected ffi library line in %q", stdout)
	}
}

func TestDoctorFailsWhenFFIBackendMissing(t *testing.T) {
	env := setupCLITestEnv(t, testsupport.WithBackend(config.BackendFFI))
	env.cfg.Native.LibraryPath = env.baseDir + "/libsymphonia_ffi_missing.so"
	writeTestConfig(t, env.configPath, env.cfg)

	stdout, _, err := runCLI(t, env, "doctor")
	if err == nil {
		t.Fatalf("expected doctor to fail, output:\n%s", stdout)
	}
	requireContains(t, stdout, "[ERROR]")
}
