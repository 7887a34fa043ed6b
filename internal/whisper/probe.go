package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

const defaultProbeTimeout = 10 * time.Second

type ffprobeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
	Streams []struct {
		Duration string `json:"duration"`
	} `json:"streams"`
}

// probeDuration asks ffprobe for the media duration in seconds. The probe
// runs under a bounded timeout and fails independently of transcription;
// callers degrade to treating the audio as short when it errors.
func probeDuration(ctx context.Context, path string, timeout time.Duration) (float64, error) {
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "ffprobe",
		"-v", "error",
		"-print_format", "json",
		"-show_format",
		"-show_streams",
		"-i", path,
	)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail == "" {
			detail = err.Error()
		}
		return 0, fmt.Errorf("%w: ffprobe: %s", ErrDurationProbe, detail)
	}

	return parseProbeDuration(stdout.Bytes())
}

// parseProbeDuration extracts a positive duration from ffprobe's JSON
// output, preferring the container-level value with per-stream durations
// as fallback.
func parseProbeDuration(data []byte) (float64, error) {
	if strings.TrimSpace(string(data)) == "" {
		return 0, fmt.Errorf("%w: ffprobe returned empty output", ErrDurationProbe)
	}

	var out ffprobeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return 0, fmt.Errorf("%w: parse ffprobe output: %v", ErrDurationProbe, err)
	}

	if d, err := strconv.ParseFloat(out.Format.Duration, 64); err == nil && d > 0 {
		return d, nil
	}
	for _, s := range out.Streams {
		if d, err := strconv.ParseFloat(s.Duration, 64); err == nil && d > 0 {
			return d, nil
		}
	}

	return 0, fmt.Errorf("%w: no duration in ffprobe output", ErrDurationProbe)
}
