package cli

import "github.com/charmbracelet/lipgloss"

// Branding shared by the CLI and the progress UI
const (
	AppTitle       = "Canvasfire 🔥"
	AppDescription = "Turn a song and its cover art into a looping 9:16 canvas video that moves with the music."
)

// Fire colour palette 🔥
// Shared fire theme colours for consistent branding across CLI and TUI
var (
	// Core fire colours (dark to bright)
	FireYellow  = lipgloss.Color("#FFD700") // Bright yellow
	FireOrange  = lipgloss.Color("#FF8C00") // Deep orange
	FireRed     = lipgloss.Color("#FF4500") // Orange-red
	FireCrimson = lipgloss.Color("#DC143C") // Deep crimson

	// Accent colours
	WarmGray = lipgloss.Color("#B8860B") // Dark goldenrod for subtle text
)
