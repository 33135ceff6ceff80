package report

import (
	"github.com/mgutz/ansi"
)

// Colorizer colors the terminal summary output. With color disabled every
// colorizer returns its input unchanged.
type Colorizer struct {
	titleColorizer func(string) string
	totalColorizer func(string) string
}

// NewColorizer creates a new Colorizer.
func NewColorizer(shouldColor bool) *Colorizer {
	if !shouldColor {
		identity := func(s string) string { return s }

		return &Colorizer{
			titleColorizer: identity,
			totalColorizer: identity,
		}
	}

	return &Colorizer{
		titleColorizer: ansi.ColorFunc("cyan+bh"),
		totalColorizer: ansi.ColorFunc("green+bh"),
	}
}
