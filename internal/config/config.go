package config

// Canvas settings (9:16 portrait)
const (
	Width  = 540
	Height = 960
)

// Analysis settings
const (
	FFTSize   = 2048 // STFT window length in samples
	HopSize   = 512  // STFT hop in samples
	NumMels   = 128  // Mel bands feeding MFCC and onset strength
	NumMFCC   = 20   // Cepstral coefficients kept per frame
	NumChroma = 12   // Pitch classes
	TopDB     = 80.0 // Dynamic range floor for log-mel power
)

// Beat tracking
const (
	StartBPM      = 120.0 // Centre of the tempo prior
	BeatTightness = 100.0 // Penalty weight for deviating from the tempo period
	MaxTempoLag   = 4.0   // Longest autocorrelation lag considered, in seconds
)

// Layer constants
const (
	OverlayWeight   = 0.3  // Colour overlay share in the final blend
	ColorScale      = 25.0 // MFCC to 8-bit channel multiplier
	PulseZoom       = 0.05 // Beat pulse zoom per unit intensity
	BeatWindow      = 0.1  // Seconds either side of a beat that trigger a pulse
	ParticleDensity = 50   // Particles per unit intensity
	RadiusScale     = 5.0  // Onset strength to particle radius multiplier
)

// Boundary parameter ranges applied by the CLI and config file layer
const (
	MinDuration  = 5.0
	MaxDuration  = 9.0
	MinFPS       = 24
	MaxFPS       = 60
	MinIntensity = 0.1
	MaxIntensity = 2.0

	DefaultDuration  = 7.0
	DefaultFPS       = 30
	DefaultIntensity = 1.0
)

// Appearance
const (
	// Brand yellow #F8B31D, used for poster captions
	TextColorR = 248
	TextColorG = 179
	TextColorB = 29

	PosterMargin              = 30  // Pixels from the edges for poster caption text
	PosterTextRotationDegrees = 3.0 // Clockwise caption tilt
)
