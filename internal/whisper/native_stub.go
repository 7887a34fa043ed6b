//go:build !whispercpp

package whisper

import "fmt"

func newNativeEngine(modelPath string) (inferenceEngine, error) {
	return nil, fmt.Errorf("%w: binary built without the whispercpp build tag", ErrModelInit)
}
