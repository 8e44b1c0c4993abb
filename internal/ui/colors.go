package ui

import "github.com/drew/databoard/internal/results"

// ANSI color codes
const (
	ColorReset  = "\033[0m"
	ColorRed    = "\033[31m"
	ColorGreen  = "\033[32m"
	ColorYellow = "\033[33m"
	ColorBlue   = "\033[94m" // Bright blue - more readable on dark backgrounds
	ColorGray   = "\033[90m"
	ColorBold   = "\033[1m"
)

// Colors wraps text in ANSI codes when enabled
type Colors struct {
	enabled bool
}

// NewColors creates a new Colors instance
func NewColors(enabled bool) *Colors {
	return &Colors{enabled: enabled}
}

// Enabled reports whether escape codes are emitted
func (c *Colors) Enabled() bool {
	return c.enabled
}

func (c *Colors) wrap(code, s string) string {
	if !c.enabled {
		return s
	}
	return code + s + ColorReset
}

// Red returns red colored text
func (c *Colors) Red(s string) string { return c.wrap(ColorRed, s) }

// Green returns green colored text
func (c *Colors) Green(s string) string { return c.wrap(ColorGreen, s) }

// Yellow returns yellow colored text
func (c *Colors) Yellow(s string) string { return c.wrap(ColorYellow, s) }

// Blue returns blue colored text
func (c *Colors) Blue(s string) string { return c.wrap(ColorBlue, s) }

// Gray returns gray colored text
func (c *Colors) Gray(s string) string { return c.wrap(ColorGray, s) }

// Bold returns bold text
func (c *Colors) Bold(s string) string { return c.wrap(ColorBold, s) }

// KindColor colors text by error kind. Missing inputs are warnings, anything
// else is a failure.
func (c *Colors) KindColor(kind results.Kind, text string) string {
	switch kind {
	case results.KindFileNotFound, results.KindEmptyResult:
		return c.Yellow(text)
	case "":
		return c.Green(text)
	default:
		return c.Red(text)
	}
}

// Symbol returns a colored check or cross
func (c *Colors) Symbol(ok bool) string {
	if ok {
		return c.Green("✓")
	}
	return c.Red("✗")
}
