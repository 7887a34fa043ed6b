package whisper

import "math"

// preflightConfig holds the validation thresholds. Both values are
// empirically tuned; they arrive from configuration, not constants.
type preflightConfig struct {
	SilencePeak float64
	NoiseStdDev float64
}

// validateSamples reports whether decoded audio can produce meaningful
// text, and the reason when it cannot. Invalid audio is not an error at the
// façade level — it degrades to an empty transcription with a diagnostic
// instead of spending inference time on it.
func validateSamples(samples []float32, cfg preflightConfig) (reason string, ok bool) {
	if len(samples) == 0 {
		return "empty (0 samples)", false
	}

	peak := peakAmplitude(samples)
	if peak < cfg.SilencePeak {
		return "silent or very low volume", false
	}

	if stdDev(samples) < cfg.NoiseStdDev {
		return "constant noise", false
	}

	return "", true
}

// normalizeSamples scales samples back into [-1, 1] in place when the
// decoder produced values outside that range.
func normalizeSamples(samples []float32) {
	peak := peakAmplitude(samples)
	if peak <= 1.0 {
		return
	}
	scale := float32(1.0 / peak)
	for i := range samples {
		samples[i] *= scale
	}
}

func peakAmplitude(samples []float32) float64 {
	var peak float64
	for _, s := range samples {
		if a := math.Abs(float64(s)); a > peak {
			peak = a
		}
	}
	return peak
}

func stdDev(samples []float32) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	mean := sum / float64(len(samples))

	var variance float64
	for _, s := range samples {
		d := float64(s) - mean
		variance += d * d
	}
	return math.Sqrt(variance / float64(len(samples)))
}
