package features

import (
	"errors"
	"fmt"

	"github.com/linuxmatters/canvasfire/internal/audio"
	"github.com/linuxmatters/canvasfire/internal/config"
)

// ErrEmptyClip is returned when there is no audio to analyse
var ErrEmptyClip = errors.New("audio clip is empty")

// Params controls the analysis resolution
type Params struct {
	FFTSize   int
	HopSize   int
	NumMels   int
	NumMFCC   int
	NumChroma int
	TopDB     float64
	StartBPM  float64
	Tightness float64
	MaxLag    float64
}

// DefaultParams returns the analysis settings used for canvas generation
func DefaultParams() Params {
	return Params{
		FFTSize:   config.FFTSize,
		HopSize:   config.HopSize,
		NumMels:   config.NumMels,
		NumMFCC:   config.NumMFCC,
		NumChroma: config.NumChroma,
		TopDB:     config.TopDB,
		StartBPM:  config.StartBPM,
		Tightness: config.BeatTightness,
		MaxLag:    config.MaxTempoLag,
	}
}

// Series is the family of frame-aligned descriptors derived from one clip.
// Each analysis series spans the clip duration independently and may differ
// in length; Beats is an ascending list of times in seconds and may be empty.
type Series struct {
	MFCC       [][]float64 // [frame][coefficient]
	Chroma     [][]float64 // [frame][pitch class], C first
	Onset      []float64   // [frame]
	Beats      []float64
	Tempo      float64 // BPM, 0 when no beat was found
	Duration   float64 // Seconds
	SampleRate int
	HopSize    int
}

// Extract derives the feature series for clip
func Extract(clip *audio.Clip, p Params) (*Series, error) {
	if clip == nil || len(clip.Samples) == 0 || clip.SampleRate <= 0 {
		return nil, ErrEmptyClip
	}

	spec, err := STFT(clip.Samples, clip.SampleRate, p.FFTSize, p.HopSize)
	if err != nil {
		return nil, fmt.Errorf("spectrogram: %w", err)
	}

	logMel := MelSpectrogram(spec, p.NumMels)
	PowerToDB(logMel, p.TopDB)

	onset := OnsetStrength(logMel, p.FFTSize, p.HopSize)

	tracker := &BeatTracker{
		SampleRate: clip.SampleRate,
		HopSize:    p.HopSize,
		StartBPM:   p.StartBPM,
		Tightness:  p.Tightness,
		MaxLag:     p.MaxLag,
	}
	tempo, beats := tracker.Track(onset)

	return &Series{
		MFCC:       MFCC(logMel, p.NumMFCC),
		Chroma:     Chroma(spec, p.NumChroma),
		Onset:      onset,
		Beats:      beats,
		Tempo:      tempo,
		Duration:   clip.Duration(),
		SampleRate: clip.SampleRate,
		HopSize:    p.HopSize,
	}, nil
}

// NumFrames returns the analysis frame count of the longest series
func (s *Series) NumFrames() int {
	return max(len(s.MFCC), len(s.Chroma), len(s.Onset))
}
