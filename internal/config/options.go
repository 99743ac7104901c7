package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Options holds the user-tunable generation settings
type Options struct {
	Duration  float64 `yaml:"duration"`  // Seconds of audio to use and of video to produce
	FPS       int     `yaml:"fps"`       // Output frame rate
	Intensity float64 `yaml:"intensity"` // Effect strength multiplier
	Seed      uint64  `yaml:"seed"`      // Particle generator seed, 0 picks one at random

	FFmpeg FFmpegOptions `yaml:"ffmpeg"`
	Poster PosterOptions `yaml:"poster"`
}

// FFmpegOptions configures the external video writer
type FFmpegOptions struct {
	BinaryPath string `yaml:"binary_path"`
	Encoder    string `yaml:"encoder"` // none, auto, nvenc, qsv, vaapi, vulkan, videotoolbox
	Preset     string `yaml:"preset"`
	CRF        int    `yaml:"crf"`
	Mute       bool   `yaml:"mute"` // Skip muxing the source audio
}

// PosterOptions configures the still poster written beside the video
type PosterOptions struct {
	Enabled bool   `yaml:"enabled"`
	Title   string `yaml:"title"`
}

// Defaults returns the built-in option set
func Defaults() *Options {
	return &Options{
		Duration:  DefaultDuration,
		FPS:       DefaultFPS,
		Intensity: DefaultIntensity,
		FFmpeg: FFmpegOptions{
			BinaryPath: "ffmpeg",
			Encoder:    "none",
			Preset:     "medium",
			CRF:        20,
		},
	}
}

// Load reads options from path, or from the first config file found when
// path is empty. A missing file yields the defaults.
func Load(path string) (*Options, error) {
	opts := Defaults()

	explicit := path != ""
	if !explicit {
		path = findConfigFile()
	}
	if path == "" {
		return opts, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return opts, nil
		}
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, opts); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	return opts, nil
}

// Save writes the options as YAML
func (o *Options) Save(path string) error {
	data, err := yaml.Marshal(o)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clamp pulls duration, fps and intensity into their supported ranges and
// reports whether anything changed.
func (o *Options) Clamp() bool {
	changed := false

	if d := clampFloat(o.Duration, MinDuration, MaxDuration); d != o.Duration {
		o.Duration = d
		changed = true
	}
	if f := clampInt(o.FPS, MinFPS, MaxFPS); f != o.FPS {
		o.FPS = f
		changed = true
	}
	if i := clampFloat(o.Intensity, MinIntensity, MaxIntensity); i != o.Intensity {
		o.Intensity = i
		changed = true
	}

	return changed
}

// NumFrames is the number of frames the options produce
func (o *Options) NumFrames() int {
	return int(o.Duration * float64(o.FPS))
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func findConfigFile() string {
	candidates := []string{
		"./canvasfire.yaml",
		"./canvasfire.yml",
	}
	if dir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(dir, "canvasfire", "config.yaml"))
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}
