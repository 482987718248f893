package formatter

import (
	"fmt"
	"strings"

	"rdburn/internal/calc"
	"rdburn/internal/domain"

	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

// Predefined lipgloss styles.
var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// ImpactStyle returns the style for a scope change impact level.
func ImpactStyle(impact domain.ImpactLevel) lipgloss.Style {
	switch impact {
	case domain.ImpactHigh:
		return StyleRed
	case domain.ImpactMedium:
		return StyleYellow
	default:
		return StyleDim
	}
}

// ConfidenceIndicator returns a colored confidence marker such as "● HIGH".
func ConfidenceIndicator(c calc.Confidence) string {
	switch c {
	case calc.ConfidenceHigh:
		return StyleGreen.Render("● HIGH")
	case calc.ConfidenceMedium:
		return StyleYellow.Render("● MEDIUM")
	default:
		return StyleRed.Render("● LOW")
	}
}

// DeltaStyle colors a signed hours delta: red for scope growth, green
// for reduction.
func DeltaStyle(delta float64) lipgloss.Style {
	switch {
	case delta > 0:
		return StyleRed
	case delta < 0:
		return StyleGreen
	default:
		return StyleDim
	}
}

// Header renders a section header with an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

// Dim renders text in the muted color.
func Dim(text string) string {
	return StyleDim.Render(text)
}

// Bold renders text in bold with the foreground color.
func Bold(text string) string {
	return StyleBold.Render(text)
}
