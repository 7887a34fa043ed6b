package whisper

import (
	"errors"
	"math"
	"testing"
)

func TestParseProbeDuration(t *testing.T) {
	cases := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{
			name:  "container duration",
			input: `{"format":{"duration":"12.34"},"streams":[{"duration":"12.30"}]}`,
			want:  12.34,
		},
		{
			name:  "stream fallback",
			input: `{"format":{},"streams":[{"duration":""},{"duration":"7.5"}]}`,
			want:  7.5,
		},
		{
			name:    "empty output",
			input:   "",
			wantErr: true,
		},
		{
			name:    "whitespace only",
			input:   "  \n ",
			wantErr: true,
		},
		{
			name:    "malformed json",
			input:   `{"format":`,
			wantErr: true,
		},
		{
			name:    "no duration anywhere",
			input:   `{"format":{},"streams":[{}]}`,
			wantErr: true,
		},
		{
			name:    "zero duration rejected",
			input:   `{"format":{"duration":"0"}}`,
			wantErr: true,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseProbeDuration([]byte(tc.input))
			if tc.wantErr {
				if !errors.Is(err, ErrDurationProbe) {
					t.Fatalf("expected ErrDurationProbe, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if math.Abs(got-tc.want) > 1e-9 {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}
