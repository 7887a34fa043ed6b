package whisper

import (
	"fmt"
	"os"
	"path/filepath"
)

// Shared objects the engine needs, in the order the dynamic loader
// resolves them: base math kernels first, then the CPU backend, then the
// ggml umbrella, and finally the whisper library. Later entries resolve
// symbols from earlier ones.
var requiredLibraries = []string{
	"libggml-base.so",
	"libggml-cpu.so",
	"libggml.so",
	"libwhisper.so",
}

// verifyNativeLibraries checks that every shared object the engine
// depends on is present in dir. The dynamic loader only honors the search
// path the process was started with, so LD_LIBRARY_PATH (or an rpath)
// must include dir before exec; verifying up front turns a cryptic dlopen
// failure at first inference into an actionable startup error.
func verifyNativeLibraries(dir string) error {
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: library directory not found: %s (run the artifact download script first)", ErrLibraryLoad, dir)
	}

	for _, lib := range requiredLibraries {
		if !sharedObjectPresent(dir, lib) {
			return fmt.Errorf("%w: missing %s in %s", ErrLibraryLoad, lib, dir)
		}
	}
	return nil
}

// sharedObjectPresent accepts both bare and versioned sonames
// (libggml.so and libggml.so.0).
func sharedObjectPresent(dir, name string) bool {
	if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
		return true
	}
	matches, err := filepath.Glob(filepath.Join(dir, name+".*"))
	return err == nil && len(matches) > 0
}
