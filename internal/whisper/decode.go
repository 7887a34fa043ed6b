package whisper

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-audio/wav"
	"github.com/google/uuid"
)

// sampleRate is the only rate the engine accepts.
const sampleRate = 16000

// decodeToSamples converts any supported container into mono 16kHz float32
// samples through an intermediate WAV artifact. The artifact is removed
// before returning on every path.
func decodeToSamples(ctx context.Context, path, tempDir string) ([]float32, float64, error) {
	wavPath := filepath.Join(tempDir, uuid.NewString()+"_16k.wav")
	defer os.Remove(wavPath)

	if err := resampleToWAV(ctx, path, wavPath, 0, 0); err != nil {
		return nil, 0, err
	}
	return readWAVSamples(wavPath)
}

// resampleToWAV runs ffmpeg to produce a mono 16kHz s16le WAV at dst.
// When duration > 0 only the [start, start+duration) window of the source
// is materialized; otherwise the whole file is converted.
func resampleToWAV(ctx context.Context, src, dst string, start, duration float64) error {
	args := []string{"-y", "-loglevel", "error", "-i", src}
	if duration > 0 {
		args = append(args,
			"-ss", strconv.FormatFloat(start, 'f', -1, 64),
			"-t", strconv.FormatFloat(duration, 'f', -1, 64),
		)
	}
	args = append(args,
		"-ar", strconv.Itoa(sampleRate),
		"-ac", "1",
		"-c:a", "pcm_s16le",
		dst,
	)

	cmd := exec.CommandContext(ctx, "ffmpeg", args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return fmt.Errorf("ffmpeg: %s", detail)
	}
	return nil
}

// readWAVSamples decodes a 16-bit PCM WAV file into [-1, 1] float samples
// and returns them with the audio duration in seconds.
func readWAVSamples(path string) ([]float32, float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open wav: %w", err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, 0, fmt.Errorf("decode wav: %w", err)
	}
	if buf == nil || buf.Format == nil || buf.Format.SampleRate == 0 {
		return nil, 0, fmt.Errorf("decode wav: no audio data in %s", path)
	}

	samples := make([]float32, len(buf.Data))
	for i, v := range buf.Data {
		samples[i] = float32(v) / 32768
	}
	duration := float64(len(samples)) / float64(buf.Format.SampleRate)
	return samples, duration, nil
}
