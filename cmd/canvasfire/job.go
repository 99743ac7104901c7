package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/linuxmatters/canvasfire/internal/audio"
	"github.com/linuxmatters/canvasfire/internal/config"
	"github.com/linuxmatters/canvasfire/internal/encoder"
	"github.com/linuxmatters/canvasfire/internal/features"
	"github.com/linuxmatters/canvasfire/internal/logging"
	"github.com/linuxmatters/canvasfire/internal/renderer"
	"github.com/linuxmatters/canvasfire/internal/sequencer"
	"github.com/linuxmatters/canvasfire/internal/ui"
)

// previewEvery is how often a rendered frame is handed to the preview
const previewEvery = 6

// hooks receive progress as the job runs
type hooks struct {
	analysed func(ui.AnalysisComplete)
	rendered func(ui.RenderProgress)
	encoded  func(ui.EncodeProgress)
}

// job is one canvas generation from the command line
type job struct {
	audioPath  string
	coverPath  string
	outputPath string
	opts       *config.Options
	preview    bool
}

// run loads the inputs, renders the frame sequence and writes the video,
// followed by the optional poster
func (j *job) run(ctx context.Context, h hooks) (*ui.RenderComplete, error) {
	start := time.Now()
	log := logging.WithComponent("canvasfire")
	opts := j.opts

	// Reject an unknown encoder name before loading anything
	accel, err := encoder.ParseHWAccel(opts.FFmpeg.Encoder)
	if err != nil {
		return nil, err
	}

	cover, err := renderer.LoadCover(j.coverPath, config.Width)
	if err != nil {
		return nil, err
	}

	clip, err := audio.Load(j.audioPath, opts.Duration)
	if err != nil {
		return nil, err
	}
	log.Debug().
		Str("audio", j.audioPath).
		Int("sample_rate", clip.SampleRate).
		Int("channels", clip.Channels).
		Float64("duration", clip.Duration()).
		Msg("audio loaded")

	seq, err := sequencer.Generate(ctx, sequencer.Request{
		Clip:      clip,
		Cover:     cover,
		FPS:       opts.FPS,
		Intensity: opts.Intensity,
		Seed:      opts.Seed,
		Params:    features.DefaultParams(),
		Logger:    logging.NewLogger(),
		OnAnalysed: func(c *audio.Clip, s *features.Series, took time.Duration) {
			prof := audio.Analyze(c, opts.FPS)
			h.analysed(ui.AnalysisComplete{
				Duration:     c.Length(),
				SampleRate:   c.SampleRate,
				Channels:     c.Channels,
				PeakDB:       prof.PeakDB(),
				RMSDB:        prof.RMSDB(),
				DynamicRange: prof.DynamicRange,
				Tempo:        s.Tempo,
				Beats:        len(s.Beats),
				Envelope:     prof.Envelope,
				TotalFrames:  sequencer.NumFrames(s.Duration, opts.FPS),
				AnalysisTime: took,
			})
		},
	}, func(p sequencer.Progress) {
		msg := ui.RenderProgress{
			Frame:       p.Frame,
			TotalFrames: p.TotalFrames,
			Elapsed:     p.Elapsed,
			Beat:        p.Beat,
			Onset:       p.Onset,
		}
		if j.preview && (p.Frame%previewEvery == 0 || p.Frame == p.TotalFrames) {
			msg.FrameData = p.Image
		}
		h.rendered(msg)
	})
	if err != nil {
		return nil, err
	}

	hw := encoder.SelectBestEncoder(ctx, opts.FFmpeg.BinaryPath, accel)
	encoderName := "libx264"
	if hw != nil {
		encoderName = hw.Name
	}

	wcfg := encoder.Config{
		BinaryPath: opts.FFmpeg.BinaryPath,
		OutputPath: j.outputPath,
		Width:      config.Width,
		Height:     config.Height,
		Framerate:  opts.FPS,
		Duration:   seq.Duration(),
		HWEncoder:  hw,
		Preset:     opts.FFmpeg.Preset,
		CRF:        opts.FFmpeg.CRF,
	}
	if !opts.FFmpeg.Mute {
		wcfg.AudioPath = j.audioPath
	}

	w, err := encoder.New(wcfg, logging.NewLogger())
	if err != nil {
		return nil, err
	}

	encodeStart := time.Now()
	res, err := w.Write(ctx, seq.Frames, func(p encoder.Progress) {
		h.encoded(ui.EncodeProgress{
			Frame:       p.Frame,
			TotalFrames: len(seq.Frames),
			FPS:         p.FPS,
			Speed:       p.Speed,
			EncoderName: encoderName,
			Elapsed:     time.Since(encodeStart),
		})
	})
	if err != nil {
		return nil, fmt.Errorf("writing video: %w", err)
	}
	encodeTime := time.Since(encodeStart)
	log.Info().Str("output", res.Path).Int("frames", res.Frames).Msg(res.Message)

	var posterPath string
	var posterTime time.Duration
	if opts.Poster.Enabled {
		posterStart := time.Now()
		posterPath = strings.TrimSuffix(j.outputPath, filepath.Ext(j.outputPath)) + ".png"
		if err := renderer.SavePoster(posterPath, res.LastFrame, opts.Poster.Title); err != nil {
			return nil, fmt.Errorf("saving poster: %w", err)
		}
		posterTime = time.Since(posterStart)
	}

	var size int64
	if info, err := os.Stat(res.Path); err == nil {
		size = info.Size()
	}

	return &ui.RenderComplete{
		OutputFile:   res.Path,
		PosterFile:   posterPath,
		FileSize:     size,
		TotalFrames:  res.Frames,
		FPS:          opts.FPS,
		Seed:         seq.Seed,
		EncoderName:  encoderName,
		AnalysisTime: seq.AnalysisTime,
		RenderTime:   seq.RenderTime,
		EncodeTime:   encodeTime,
		PosterTime:   posterTime,
		TotalTime:    time.Since(start),
	}, nil
}
