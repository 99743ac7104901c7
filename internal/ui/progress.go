package ui

import (
	"fmt"
	"image"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/linuxmatters/canvasfire/internal/cli"
)

// Fire colour palette 🔥
var (
	fireYellow  = cli.FireYellow
	fireOrange  = cli.FireOrange
	fireRed     = cli.FireRed
	fireCrimson = cli.FireCrimson
	warmGray    = cli.WarmGray
)

// Phase represents the current processing phase
type Phase int

const (
	PhaseAnalysis Phase = iota
	PhaseRendering
	PhaseEncoding
	PhaseComplete
)

func (p Phase) String() string {
	switch p {
	case PhaseAnalysis:
		return "Analysing Audio"
	case PhaseRendering:
		return "Rendering Frames"
	case PhaseEncoding:
		return "Encoding Video"
	case PhaseComplete:
		return "Complete"
	}
	return "Unknown"
}

// AnalysisComplete carries the audio summary once features are extracted
type AnalysisComplete struct {
	Duration     time.Duration
	SampleRate   int
	Channels     int
	PeakDB       float64
	RMSDB        float64
	DynamicRange float64
	Tempo        float64 // BPM, 0 when no beat was found
	Beats        int
	Envelope     []float64 // Loudness per video frame
	TotalFrames  int
	AnalysisTime time.Duration
}

// RenderProgress reports one composed frame
type RenderProgress struct {
	Frame       int
	TotalFrames int
	Elapsed     time.Duration
	Beat        bool
	Onset       float64
	FrameData   *image.RGBA
}

// EncodeProgress reports the video writer's position
type EncodeProgress struct {
	Frame       int
	TotalFrames int
	FPS         float64
	Speed       string
	EncoderName string
	Elapsed     time.Duration
}

// RenderComplete signals the end of the run
type RenderComplete struct {
	OutputFile   string
	PosterFile   string
	FileSize     int64
	TotalFrames  int
	FPS          int
	Seed         uint64
	EncoderName  string
	AnalysisTime time.Duration
	RenderTime   time.Duration
	EncodeTime   time.Duration
	PosterTime   time.Duration
	TotalTime    time.Duration
}

// progressQuitMsg is sent when it's time to quit after showing completion
type progressQuitMsg struct{}

// Model implements the Bubbletea model for a whole canvas run
type Model struct {
	progressBar progress.Model
	summaryBar  progress.Model
	phase       Phase
	fps         int

	analysis *AnalysisComplete
	render   RenderProgress
	encode   EncodeProgress
	complete *RenderComplete

	startTime       time.Time
	renderStartTime time.Time
	encodeStartTime time.Time

	width           int
	height          int
	noPreview       bool
	cachedPreview   string
	cachedFrameNum  int
	completionDelay time.Duration
	quitting        bool
}

// NewModel creates the progress UI for a run at fps
func NewModel(fps int, noPreview bool) *Model {
	// Fire gradient: deep red → orange → yellow
	p := progress.New(
		progress.WithGradient(string(fireCrimson), string(fireYellow)),
		progress.WithWidth(40),
		progress.WithoutPercentage(),
	)

	summaryBar := progress.New(
		progress.WithGradient(string(fireCrimson), string(fireYellow)),
		progress.WithWidth(30),
		progress.WithoutPercentage(),
	)

	return &Model{
		progressBar:     p,
		summaryBar:      summaryBar,
		phase:           PhaseAnalysis,
		fps:             max(fps, 1),
		startTime:       time.Now(),
		completionDelay: 2 * time.Second,
		noPreview:       noPreview,
	}
}

// Phase returns the current processing phase
func (m *Model) Phase() Phase {
	return m.phase
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.progressBar.Width = min(msg.Width-30, 50)
		return m, nil

	case AnalysisComplete:
		m.analysis = &msg
		m.phase = PhaseRendering
		m.renderStartTime = time.Now()
		return m, nil

	case RenderProgress:
		m.render = msg
		return m, nil

	case EncodeProgress:
		if m.phase != PhaseEncoding {
			m.phase = PhaseEncoding
			m.encodeStartTime = time.Now()
		}
		m.encode = msg
		return m, nil

	case RenderComplete:
		m.complete = &msg
		m.phase = PhaseComplete
		m.quitting = true

		return m, tea.Tick(m.completionDelay, func(t time.Time) tea.Msg {
			return progressQuitMsg{}
		})

	case progressQuitMsg:
		return m, tea.Quit

	case tea.KeyMsg:
		if m.complete != nil {
			return m, tea.Quit
		}
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	}

	return m, nil
}

// View renders the UI
func (m *Model) View() string {
	if m.phase == PhaseComplete {
		return m.CompletionSummary()
	}
	return m.renderProgress()
}

// CompletionSummary returns the final summary for printing after the
// program exits. It is empty until the run completes.
func (m *Model) CompletionSummary() string {
	if m.complete == nil {
		return ""
	}
	return m.renderComplete()
}

func (m *Model) renderProgress() string {
	var s strings.Builder

	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(fireYellow).
		Render(cli.AppTitle)

	s.WriteString(title)
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Foreground(fireOrange).Render(m.phase.String()))
	s.WriteString("\n\n")

	switch m.phase {
	case PhaseAnalysis:
		elapsed := time.Since(m.startTime)
		s.WriteString(lipgloss.NewStyle().Faint(true).Render(
			fmt.Sprintf("Extracting MFCC, chroma, onsets and beats...  │  Elapsed: %s", formatDuration(elapsed))))
		s.WriteString("\n")
	case PhaseRendering:
		m.renderFrameProgress(&s, m.render.Frame, m.render.TotalFrames, m.render.Elapsed, m.renderStartTime)
	case PhaseEncoding:
		m.renderFrameProgress(&s, m.encode.Frame, m.encode.TotalFrames, m.encode.Elapsed, m.encodeStartTime)
		if m.encode.EncoderName != "" || m.encode.Speed != "" {
			s.WriteString("\n")
			s.WriteString(lipgloss.NewStyle().Foreground(warmGray).Render(
				fmt.Sprintf("Encoder: %s  │  ffmpeg: %.0f fps, %s", m.encode.EncoderName, m.encode.FPS, m.encode.Speed)))
		}
	}

	s.WriteString("\n")
	m.renderAudioProfile(&s)

	if m.phase == PhaseRendering && m.analysis != nil {
		s.WriteString("\n\n")
		m.renderLiveView(&s)
	}

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(fireRed).
		Padding(1, 2).
		Render(s.String())
}

func (m *Model) renderFrameProgress(s *strings.Builder, frame, total int, elapsed time.Duration, start time.Time) {
	if total == 0 {
		s.WriteString(lipgloss.NewStyle().Faint(true).Render("Starting...\n"))
		return
	}

	percent := min(float64(frame)/float64(total), 1)
	s.WriteString("Progress: ")
	s.WriteString(m.progressBar.ViewAs(percent))
	s.WriteString(fmt.Sprintf("  %d%%", int(percent*100)))
	s.WriteString("\n\n")

	if elapsed == 0 {
		elapsed = time.Since(start)
	}

	var estimatedTotal, eta time.Duration
	var speed float64
	if percent > 0 {
		estimatedTotal = time.Duration(float64(elapsed) / percent)
		eta = estimatedTotal - elapsed

		videoSoFar := time.Duration(frame) * time.Second / time.Duration(m.fps)
		if elapsed > 0 {
			speed = float64(videoSoFar) / float64(elapsed)
		}
	}

	s.WriteString(lipgloss.NewStyle().Faint(true).Render(
		fmt.Sprintf("Time: %s / %s  │  Speed: %.1fx realtime  │  ETA: %s",
			formatDuration(elapsed),
			formatDuration(estimatedTotal),
			speed,
			formatDuration(eta))))
	s.WriteString("\n")
	s.WriteString(lipgloss.NewStyle().Faint(true).Italic(true).Render(
		fmt.Sprintf("Frame %d of %d", frame, total)))
	s.WriteString("\n")
}

func (m *Model) renderAudioProfile(s *strings.Builder) {
	labelStyle := lipgloss.NewStyle().Faint(true)
	headerStyle := lipgloss.NewStyle().Faint(true).Bold(true)

	s.WriteString(headerStyle.Render("Audio"))
	s.WriteString(" │ ")

	a := m.analysis
	if a == nil {
		s.WriteString(lipgloss.NewStyle().Faint(true).Italic(true).Render("Analysing..."))
		return
	}

	s.WriteString(fmt.Sprintf("%.1fs", a.Duration.Seconds()))
	for _, kv := range [][2]string{
		{"Peak:", fmt.Sprintf("%.1f dB", a.PeakDB)},
		{"RMS:", fmt.Sprintf("%.1f dB", a.RMSDB)},
		{"Tempo:", formatTempo(a.Tempo, a.Beats)},
	} {
		s.WriteString("  ")
		s.WriteString(labelStyle.Render(kv[0]))
		s.WriteString(" ")
		s.WriteString(kv[1])
	}
}

// renderLiveView draws the loudness strip around the current frame, a beat
// marker and the preview
func (m *Model) renderLiveView(s *strings.Builder) {
	s.WriteString(lipgloss.NewStyle().Foreground(fireOrange).Render("Live Canvas:"))
	s.WriteString("\n")

	width := 64
	if m.width > 10 {
		width = min(m.width-10, 64)
	}
	s.WriteString(renderLevels(m.analysis.Envelope, m.render.Frame-1, width))
	s.WriteString("\n")

	beat := lipgloss.NewStyle().Faint(true).Render("○ beat")
	if m.render.Beat {
		beat = lipgloss.NewStyle().Bold(true).Foreground(fireYellow).Render("● BEAT")
	}
	s.WriteString(beat)
	s.WriteString(lipgloss.NewStyle().Foreground(warmGray).Render(fmt.Sprintf("  onset %.2f", m.render.Onset)))

	if m.noPreview {
		return
	}
	if m.render.FrameData != nil && m.render.Frame != m.cachedFrameNum {
		m.cachedPreview = RenderPreview(DownsampleFrame(m.render.FrameData, DefaultPreviewConfig()))
		m.cachedFrameNum = m.render.Frame
	}
	if m.cachedPreview != "" {
		s.WriteString("\n")
		s.WriteString(m.cachedPreview)
	}
}

func (m *Model) renderComplete() string {
	c := m.complete
	var s strings.Builder

	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(fireYellow).Render("✓ Canvas Complete!"))
	s.WriteString("\n\n")

	dimLabel := lipgloss.NewStyle().Faint(true)
	s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render("Output:   "), c.OutputFile))
	if c.PosterFile != "" {
		s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render("Poster:   "), c.PosterFile))
	}
	if c.EncoderName != "" {
		s.WriteString(fmt.Sprintf("%s%s\n", dimLabel.Render("Encoder:  "), c.EncoderName))
	}

	fps := max(c.FPS, 1)
	videoDuration := time.Duration(c.TotalFrames) * time.Second / time.Duration(fps)
	s.WriteString(fmt.Sprintf("%s%d frames at %d fps, %.2fs\n", dimLabel.Render("Video:    "), c.TotalFrames, fps, videoDuration.Seconds()))
	s.WriteString(fmt.Sprintf("%s%d\n", dimLabel.Render("Seed:     "), c.Seed))
	s.WriteString(fmt.Sprintf("%s%s\n\n", dimLabel.Render("Size:     "), formatBytes(c.FileSize)))

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(fireOrange)
	labelStyle := lipgloss.NewStyle().Faint(true)
	highlightValueStyle := lipgloss.NewStyle().Foreground(fireOrange)

	if a := m.analysis; a != nil {
		s.WriteString(headerStyle.Render("Audio"))
		s.WriteString("\n")
		rows := [][2]string{
			{"Duration:", fmt.Sprintf("%.1fs", a.Duration.Seconds())},
			{"Sample Rate:", fmt.Sprintf("%d Hz, %d ch", a.SampleRate, a.Channels)},
			{"Peak Level:", fmt.Sprintf("%.1f dB", a.PeakDB)},
			{"RMS Level:", fmt.Sprintf("%.1f dB", a.RMSDB)},
			{"Dynamic Range:", fmt.Sprintf("%.1f dB", a.DynamicRange)},
			{"Tempo:", formatTempo(a.Tempo, a.Beats)},
		}
		for _, r := range rows {
			s.WriteString(fmt.Sprintf("  %s%s\n", labelStyle.Render(fmt.Sprintf("%-18s", r[0])), r[1]))
		}
		s.WriteString("\n")
	}

	s.WriteString(headerStyle.Render("Performance"))
	s.WriteString("\n")

	totalMs := max(c.TotalTime.Milliseconds(), 1)
	stage := func(label string, d time.Duration) {
		ratio := float64(d.Milliseconds()) / float64(totalMs)
		s.WriteString(fmt.Sprintf("  %s%s (~%2d%%)  %s\n",
			labelStyle.Render(fmt.Sprintf("%-18s", label)),
			fmt.Sprintf("~%-6s", formatDuration(d)),
			int(ratio*100),
			m.summaryBar.ViewAs(min(ratio, 1))))
	}

	stage("Analysis:", c.AnalysisTime)
	stage("Compositing:", c.RenderTime)
	stage("Video encoding:", c.EncodeTime)
	if c.PosterTime > 0 {
		stage("Poster:", c.PosterTime)
	}
	if other := c.TotalTime - c.AnalysisTime - c.RenderTime - c.EncodeTime - c.PosterTime; other > 0 {
		stage("Runtime:", other)
	}

	s.WriteString(fmt.Sprintf("  %s%s", labelStyle.Render(fmt.Sprintf("%-18s", "Total time:")), highlightValueStyle.Render(formatDuration(c.TotalTime))))

	return lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(fireOrange).
		Padding(1, 1).
		Render(s.String()) + "\n"
}

func formatTempo(bpm float64, beats int) string {
	if bpm <= 0 {
		return "no beats"
	}
	return fmt.Sprintf("%.1f BPM (%d beats)", bpm, beats)
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatBytes(bytes int64) string {
	if bytes <= 0 {
		return "0 B"
	}
	return cli.FormatBytes(bytes)
}

// renderLevels draws width values of levels centred on index cursor as a
// two-row fire-coloured strip. The cursor column is drawn in yellow.
func renderLevels(levels []float64, cursor, width int) string {
	if len(levels) == 0 || width <= 0 {
		return ""
	}

	blocks := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}
	fireColors := []lipgloss.Color{
		lipgloss.Color("#8B0000"), // Dark red (ember)
		lipgloss.Color("#B22222"), // Firebrick
		lipgloss.Color("#DC143C"), // Crimson
		lipgloss.Color("#FF4500"), // Orange-red
		lipgloss.Color("#FF6347"), // Tomato
		lipgloss.Color("#FF8C00"), // Dark orange
		lipgloss.Color("#FFA500"), // Orange
		lipgloss.Color("#FFD700"), // Gold/Yellow
	}

	peak := 0.0
	for _, v := range levels {
		peak = max(peak, v)
	}
	if peak == 0 {
		peak = 1
	}

	start := max(min(cursor-width/2, len(levels)-width), 0)
	end := min(start+width, len(levels))
	window := levels[start:end]

	cell := func(v float64, top bool, hot bool) string {
		n := v / peak
		var idx int
		switch {
		case top && n <= 0.5:
			return " "
		case top:
			idx = int((n - 0.5) * 2 * float64(len(blocks)-1))
		case n >= 0.5:
			idx = len(blocks) - 1
		default:
			idx = int(n * 2 * float64(len(blocks)-1))
		}
		idx = min(max(idx, 0), len(blocks)-1)

		c := fireColors[min(max(int(n*float64(len(fireColors)-1)), 0), len(fireColors)-1)]
		if hot {
			c = fireYellow
		}
		return lipgloss.NewStyle().Foreground(c).Render(string(blocks[idx]))
	}

	var result strings.Builder
	for _, top := range []bool{true, false} {
		for i, v := range window {
			result.WriteString(cell(v, top, start+i == cursor))
		}
		if top {
			result.WriteString("\n")
		}
	}
	return result.String()
}
