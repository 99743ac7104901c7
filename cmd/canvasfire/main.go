package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/linuxmatters/canvasfire/internal/audio"
	"github.com/linuxmatters/canvasfire/internal/cli"
	"github.com/linuxmatters/canvasfire/internal/config"
	"github.com/linuxmatters/canvasfire/internal/encoder"
	"github.com/linuxmatters/canvasfire/internal/logging"
	"github.com/linuxmatters/canvasfire/internal/ui"
)

// version is set via ldflags at build time
// Local dev builds: "dev"
// Release builds: git tag (e.g. "v0.1.0")
var version = "dev"

var CLI struct {
	Audio  string `arg:"" name:"audio" help:"Input audio file (wav, mp3, flac)" optional:""`
	Cover  string `arg:"" name:"cover" help:"Cover image (jpeg, png, gif, bmp, webp)" optional:""`
	Output string `arg:"" name:"output" help:"Output MP4 file (default: audio name with .mp4)" optional:""`

	Config    string  `help:"YAML options file" type:"path"`
	Duration  float64 `help:"Seconds of audio to animate, 5 to 9" group:"canvas"`
	FPS       int     `name:"fps" help:"Frame rate, 24 to 60" group:"canvas"`
	Intensity float64 `help:"Effect strength, 0.1 to 2.0" group:"canvas"`
	Seed      uint64  `help:"Particle seed for reproducible output" group:"canvas"`
	Encoder   string  `help:"Video encoder: none, auto, nvenc, qsv, vaapi, vulkan, videotoolbox" group:"output"`
	Mute      bool    `help:"Write the video without the source audio" group:"output"`
	Poster    bool    `help:"Also save the last frame as a PNG poster" group:"output"`
	Title     string  `help:"Caption drawn on the poster (implies --poster)" group:"output"`
	NoPreview bool    `help:"Disable the canvas preview while rendering"`
	Plain     bool    `help:"Plain output instead of the interactive progress view"`
	Encoders  bool    `help:"List available hardware encoders and exit"`
	Verbose   bool    `short:"v" help:"Debug logging to stderr"`
	Version   bool    `help:"Show version information"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("canvasfire"),
		kong.Description(cli.AppDescription),
		kong.Vars{"version": version},
		kong.UsageOnError(),
		kong.ExplicitGroups([]kong.Group{
			{Key: "canvas", Title: "Canvas"},
			{Key: "output", Title: "Output"},
		}),
		kong.Help(cli.StyledHelpPrinter(kong.HelpOptions{Compact: true})),
	)

	if CLI.Version {
		cli.PrintVersion(version)
		os.Exit(0)
	}

	logging.Init(CLI.Verbose)

	opts, err := config.Load(CLI.Config)
	if err != nil {
		cli.PrintError(err.Error())
		os.Exit(1)
	}
	applyFlags(opts)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if CLI.Encoders {
		printEncoders(ctx, opts)
		return
	}

	if CLI.Audio == "" || CLI.Cover == "" {
		cli.PrintError("<audio> and <cover> are required")
		os.Exit(1)
	}
	for _, path := range []string{CLI.Audio, CLI.Cover} {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			cli.PrintError(fmt.Sprintf("input file does not exist: %s", path))
			os.Exit(1)
		}
	}

	if opts.Clamp() {
		cli.PrintWarning(fmt.Sprintf("settings clamped to %.1fs, %d fps, intensity %.2f", opts.Duration, opts.FPS, opts.Intensity))
	}

	j := &job{
		audioPath:  CLI.Audio,
		coverPath:  CLI.Cover,
		outputPath: outputPath(CLI.Audio, CLI.Output),
		opts:       opts,
		preview:    !CLI.NoPreview && !CLI.Plain,
	}

	if CLI.Plain {
		err = runPlain(ctx, j)
	} else {
		err = runInteractive(ctx, j)
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			cli.PrintError("cancelled")
		} else {
			cli.PrintError(err.Error())
		}
		os.Exit(1)
	}
}

// applyFlags copies explicitly set flags over the loaded options
func applyFlags(opts *config.Options) {
	if CLI.Duration != 0 {
		opts.Duration = CLI.Duration
	}
	if CLI.FPS != 0 {
		opts.FPS = CLI.FPS
	}
	if CLI.Intensity != 0 {
		opts.Intensity = CLI.Intensity
	}
	if CLI.Seed != 0 {
		opts.Seed = CLI.Seed
	}
	if CLI.Encoder != "" {
		opts.FFmpeg.Encoder = CLI.Encoder
	}
	if CLI.Mute {
		opts.FFmpeg.Mute = true
	}
	if CLI.Poster {
		opts.Poster.Enabled = true
	}
	if CLI.Title != "" {
		opts.Poster.Title = CLI.Title
		opts.Poster.Enabled = true
	}
}

// outputPath returns output, or the audio path with an .mp4 extension
func outputPath(audioPath, output string) string {
	if output != "" {
		return output
	}
	return strings.TrimSuffix(audioPath, filepath.Ext(audioPath)) + ".mp4"
}

func runInteractive(ctx context.Context, j *job) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(j.opts.FPS, !j.preview)
	p := tea.NewProgram(model)

	hooks := hooks{
		analysed: func(msg ui.AnalysisComplete) { p.Send(msg) },
		rendered: func(msg ui.RenderProgress) { p.Send(msg) },
		encoded:  func(msg ui.EncodeProgress) { p.Send(msg) },
	}

	var (
		result *ui.RenderComplete
		runErr error
		done   = make(chan struct{})
	)
	go func() {
		defer close(done)
		result, runErr = j.run(ctx, hooks)
		if runErr != nil {
			p.Quit()
			return
		}
		p.Send(*result)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-done
		return fmt.Errorf("running UI: %w", err)
	}

	// The UI exits early on ctrl+c
	cancel()
	<-done

	return runErr
}

func runPlain(ctx context.Context, j *job) error {
	cli.PrintBanner()

	var analysis ui.AnalysisComplete
	hooks := hooks{
		analysed: func(msg ui.AnalysisComplete) {
			analysis = msg
			cli.PrintInfo("Audio", fmt.Sprintf("%.2fs, %d Hz, %d ch, peak %.1f dB", msg.Duration.Seconds(), msg.SampleRate, msg.Channels, msg.PeakDB))
			if msg.Tempo > 0 {
				cli.PrintInfo("Tempo", fmt.Sprintf("%.1f BPM, %d beats", msg.Tempo, msg.Beats))
			}
			cli.PrintInfo("Frames", fmt.Sprintf("%d at %d fps", msg.TotalFrames, j.opts.FPS))
		},
		rendered: func(ui.RenderProgress) {},
		encoded:  func(ui.EncodeProgress) {},
	}

	res, err := j.run(ctx, hooks)
	if err != nil {
		return err
	}

	cli.PrintSuccess(fmt.Sprintf("Video saved to %s", res.OutputFile))
	cli.PrintSummary(cli.Summary{
		Output:   res.OutputFile,
		Poster:   res.PosterFile,
		Frames:   res.TotalFrames,
		FPS:      res.FPS,
		Duration: float64(res.TotalFrames) / float64(res.FPS),
		Tempo:    analysis.Tempo,
		Beats:    analysis.Beats,
		Seed:     res.Seed,
		Encoder:  res.EncoderName,
		Size:     res.FileSize,
		Elapsed:  res.TotalTime,
	})
	return nil
}

func printEncoders(ctx context.Context, opts *config.Options) {
	cli.PrintBanner()
	cli.PrintSection("Video encoders")
	cli.PrintBox(strings.TrimRight(encoder.GetEncoderStatus(ctx, opts.FFmpeg.BinaryPath), "\n"))
	cli.PrintInfo("Supported audio", strings.Join(audio.SupportedExtensions(), ", "))
}
