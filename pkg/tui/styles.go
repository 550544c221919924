package tui

import "github.com/charmbracelet/lipgloss"

// Color palette
var (
	ColorPurple      = lipgloss.Color("#7D56F4")
	ColorGreen       = lipgloss.Color("#25A065")
	ColorBlue        = lipgloss.Color("#4285F4")
	ColorRed         = lipgloss.Color("#E05252")
	ColorYellow      = lipgloss.Color("#E5C07B")
	ColorGray        = lipgloss.Color("#626262")
	ColorGrayDim     = lipgloss.Color("#404040")
	ColorWhite       = lipgloss.Color("#FFFFFF")
	ColorOffWhite    = lipgloss.Color("#D0D0D0")
	ColorSelectionBg = lipgloss.Color("#2D3B4D")
	ColorCyan        = lipgloss.Color("#56B6C2")
)

// Header styles
var (
	HeaderStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)

	HeaderCountStyle = lipgloss.NewStyle().
				Foreground(ColorGray)

	FooterStyle = lipgloss.NewStyle().
			Foreground(ColorGray)

	StatusStyle = lipgloss.NewStyle().
			Foreground(ColorCyan)

	ErrorStyle = lipgloss.NewStyle().
			Foreground(ColorRed)

	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorYellow)
)

// Tree item styles
var (
	SelectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorWhite).
			Background(ColorSelectionBg)

	CompleteStyle = lipgloss.NewStyle().
			Foreground(ColorGreen)

	OnTrackStyle = lipgloss.NewStyle().
			Foreground(ColorBlue)

	LateStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorRed)

	IncompleteStyle = lipgloss.NewStyle().
			Foreground(ColorOffWhite)

	DepthIndent = "  "
)

// Detail panel styles
var (
	DetailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorWhite)

	DetailSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPurple)

	DetailLabelStyle = lipgloss.NewStyle().
				Foreground(ColorGray).
				Width(12)

	DetailValueStyle = lipgloss.NewStyle().
				Foreground(ColorOffWhite)
)

// Modal styles
var (
	ModalStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorPurple).
			Padding(1, 2)

	ModalTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple)
)

// Search styles
var (
	ColorSearchRowBg  = lipgloss.Color("#1E1A2E")
	ColorSearchCharBg = lipgloss.Color("#2E2545")

	SearchBarStyle = lipgloss.NewStyle().
			Foreground(ColorWhite)

	SearchRowStyle = lipgloss.NewStyle().
			Background(ColorSearchRowBg)

	SearchCharStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPurple).
			Background(ColorSearchCharBg)

	SearchCharSelectedStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(ColorPurple).
				Background(ColorSelectionBg)

	SearchCountStyle = lipgloss.NewStyle().
				Foreground(ColorGray)
)

// Status icons
const (
	IconDone        = "✓"
	IconOnTrack     = "◐"
	IconLate        = "!"
	IconUnscheduled = "○"
	IconExpanded    = "▼"
	IconCollapsed   = "▶"
)
