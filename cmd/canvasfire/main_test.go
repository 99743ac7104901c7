package main

import (
	"testing"

	"github.com/linuxmatters/canvasfire/internal/config"
)

func TestOutputPath(t *testing.T) {
	testCases := []struct {
		audio, output, want string
	}{
		{"song.mp3", "", "song.mp4"},
		{"music/track.flac", "", "music/track.mp4"},
		{"noext", "", "noext.mp4"},
		{"song.wav", "out/canvas.mp4", "out/canvas.mp4"},
	}

	for _, tc := range testCases {
		if got := outputPath(tc.audio, tc.output); got != tc.want {
			t.Errorf("outputPath(%q, %q) = %q, want %q", tc.audio, tc.output, got, tc.want)
		}
	}
}

func TestApplyFlags(t *testing.T) {
	saved := CLI
	t.Cleanup(func() { CLI = saved })

	opts := config.Defaults()
	opts.FPS = 48

	CLI.Duration = 9
	CLI.FPS = 0
	CLI.Intensity = 1.5
	CLI.Title = "Episode 42"
	applyFlags(opts)

	if opts.Duration != 9 || opts.Intensity != 1.5 {
		t.Errorf("flags not applied: %+v", opts)
	}
	if opts.FPS != 48 {
		t.Errorf("unset flag overrode file value: fps = %d", opts.FPS)
	}
	if !opts.Poster.Enabled || opts.Poster.Title != "Episode 42" {
		t.Errorf("title should enable the poster: %+v", opts.Poster)
	}
}
