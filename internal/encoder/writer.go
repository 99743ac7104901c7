package encoder

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

// Config holds the writer configuration
type Config struct {
	BinaryPath string     // ffmpeg executable, looked up on PATH when bare
	OutputPath string     // Path to output MP4 file
	Width      int        // Video width in pixels
	Height     int        // Video height in pixels
	Framerate  int        // Frames per second
	AudioPath  string     // Optional source audio to mux; empty for a silent video
	Duration   float64    // Seconds of audio to keep when muxing
	HWEncoder  *HWEncoder // nil for software encoding
	Preset     string     // libx264 preset
	CRF        int        // Quality; lower is better
}

// Result describes a finished write
type Result struct {
	Message   string
	Path      string
	Frames    int
	LastFrame *image.RGBA
}

// Progress is one ffmpeg progress report
type Progress struct {
	Frame int
	FPS   float64
	Speed string
	Done  bool
}

// Writer encodes RGBA frame sequences to H.264 MP4 by piping raw BGR24
// video into an ffmpeg subprocess
type Writer struct {
	config Config
	logger zerolog.Logger
}

// New validates config and returns a writer
func New(config Config, logger zerolog.Logger) (*Writer, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions: %dx%d", config.Width, config.Height)
	}
	if config.Framerate <= 0 {
		return nil, fmt.Errorf("invalid framerate: %d", config.Framerate)
	}
	if config.OutputPath == "" {
		return nil, errors.New("output path cannot be empty")
	}
	if config.BinaryPath == "" {
		config.BinaryPath = "ffmpeg"
	}
	if config.Preset == "" {
		config.Preset = "medium"
	}

	return &Writer{
		config: config,
		logger: logger.With().Str("component", "ffmpeg").Logger(),
	}, nil
}

// Args returns the ffmpeg command line used for writing
func (w *Writer) Args() []string {
	c := w.config

	args := []string{"-y", "-hide_banner", "-loglevel", "error", "-progress", "pipe:2", "-nostats"}
	args = append(args, hwInputArgs(c.HWEncoder)...)
	args = append(args,
		"-f", "rawvideo",
		"-pix_fmt", "bgr24",
		"-s", fmt.Sprintf("%dx%d", c.Width, c.Height),
		"-r", strconv.Itoa(c.Framerate),
		"-i", "pipe:0",
	)

	if c.AudioPath != "" {
		if c.Duration > 0 {
			args = append(args, "-t", strconv.FormatFloat(c.Duration, 'f', 3, 64))
		}
		args = append(args, "-i", c.AudioPath, "-map", "0:v:0", "-map", "1:a:0", "-c:a", "aac", "-b:a", "192k", "-shortest")
	}

	args = append(args, videoCodecArgs(c.HWEncoder, c.Preset, c.CRF)...)
	args = append(args, "-movflags", "+faststart", c.OutputPath)
	return args
}

// Write encodes frames in order. An empty sequence writes nothing and
// succeeds with an explanatory message. The output directory is created if
// needed. onProgress may be nil.
func (w *Writer) Write(ctx context.Context, frames []*image.RGBA, onProgress func(Progress)) (*Result, error) {
	if len(frames) == 0 {
		return &Result{Message: "No frames to write"}, nil
	}

	for i, f := range frames {
		if b := f.Bounds(); b.Dx() != w.config.Width || b.Dy() != w.config.Height {
			return nil, fmt.Errorf("frame %d is %dx%d, want %dx%d", i, b.Dx(), b.Dy(), w.config.Width, w.config.Height)
		}
	}

	binary, err := exec.LookPath(w.config.BinaryPath)
	if err != nil {
		return nil, fmt.Errorf("ffmpeg not found: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(w.config.OutputPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory: %w", err)
	}

	args := w.Args()
	w.logger.Debug().Str("cmd", binary).Strs("args", args).Int("frames", len(frames)).Msg("executing ffmpeg")

	cmd := exec.CommandContext(ctx, binary, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start ffmpeg: %w", err)
	}

	var (
		wg      sync.WaitGroup
		errTail []string
	)
	wg.Add(1)
	go func() {
		defer wg.Done()
		errTail = w.streamOutput(stderr, onProgress)
	}()

	writeErr := w.feed(ctx, stdin, frames)
	stdin.Close()

	wg.Wait()
	waitErr := cmd.Wait()

	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if waitErr != nil {
		if len(errTail) > 0 {
			return nil, fmt.Errorf("ffmpeg failed: %w: %s", waitErr, strings.Join(errTail, "; "))
		}
		return nil, fmt.Errorf("ffmpeg failed: %w", waitErr)
	}
	if writeErr != nil {
		return nil, writeErr
	}

	w.logger.Debug().Str("output", w.config.OutputPath).Msg("ffmpeg execution completed")

	return &Result{
		Message:   "Video saved to " + w.config.OutputPath,
		Path:      w.config.OutputPath,
		Frames:    len(frames),
		LastFrame: frames[len(frames)-1],
	}, nil
}

// feed writes each frame to ffmpeg as packed BGR24
func (w *Writer) feed(ctx context.Context, stdin io.Writer, frames []*image.RGBA) error {
	buf := make([]byte, BGR24Size(w.config.Width, w.config.Height))
	out := bufio.NewWriterSize(stdin, len(buf))

	for i, f := range frames {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := ConvertToBGR24(f, buf); err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}
		if _, err := out.Write(buf); err != nil {
			return fmt.Errorf("writing frame %d: %w", i, err)
		}
	}
	if err := out.Flush(); err != nil {
		return fmt.Errorf("flushing frames: %w", err)
	}
	return nil
}

// streamOutput parses ffmpeg -progress blocks and keeps the last few
// non-progress lines for error reporting
func (w *Writer) streamOutput(r io.Reader, onProgress func(Progress)) []string {
	const tailSize = 5

	scanner := bufio.NewScanner(r)
	var (
		p    Progress
		tail []string
	)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, "=")

		switch {
		case ok && key == "frame":
			p.Frame, _ = strconv.Atoi(value)
		case ok && key == "fps":
			p.FPS, _ = strconv.ParseFloat(value, 64)
		case ok && key == "speed":
			p.Speed = value
		case ok && key == "progress":
			p.Done = value == "end"
			if onProgress != nil {
				onProgress(p)
			}
			p = Progress{}
		case ok && !strings.ContainsAny(key, " \t:"):
			// Other progress keys
		case line != "":
			w.logger.Debug().Str("line", line).Msg("ffmpeg")
			tail = append(tail, line)
			if len(tail) > tailSize {
				tail = tail[1:]
			}
		}
	}

	return tail
}
