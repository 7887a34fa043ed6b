package whisper

import (
	"fmt"
	"sort"
)

// ModelConfig describes one downloadable engine build: the artifact
// directory holding its shared libraries and quantized model file, and the
// approximate RAM the loaded context needs.
type ModelConfig struct {
	Dir       string
	ModelFile string
	SizeMB    int
	RAMMB     int
}

var modelConfigs = map[string]ModelConfig{
	"base": {
		Dir:       "whisper_base_xeon",
		ModelFile: "ggml-base-q5_1.bin",
		SizeMB:    60,
		RAMMB:     1000,
	},
	"small": {
		Dir:       "whisper_small_xeon",
		ModelFile: "ggml-small-q5_1.bin",
		SizeMB:    181,
		RAMMB:     500,
	},
	"medium": {
		Dir:       "whisper_medium_xeon",
		ModelFile: "ggml-medium-q5_1.bin",
		SizeMB:    1500,
		RAMMB:     2000,
	},
}

func lookupModelConfig(size string) (ModelConfig, error) {
	mc, ok := modelConfigs[size]
	if !ok {
		return ModelConfig{}, fmt.Errorf("unsupported model size %q, must be one of %v", size, ModelSizes())
	}
	return mc, nil
}

// KnownModelSize reports whether size has an entry in the model table.
func KnownModelSize(size string) bool {
	_, ok := modelConfigs[size]
	return ok
}

// ModelSizes returns the supported model sizes in stable order.
func ModelSizes() []string {
	sizes := make([]string, 0, len(modelConfigs))
	for s := range modelConfigs {
		sizes = append(sizes, s)
	}
	sort.Strings(sizes)
	return sizes
}
