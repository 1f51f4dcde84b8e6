package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"

	"github.com/desertthunder/mist/internal/config"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

// ApplyColorMode sets the global color profile. Auto honours NO_COLOR and whether stdout
// is a terminal.
func ApplyColorMode(mode config.ColorMode) {
	lipgloss.SetColorProfile(profileFor(mode, os.Stdout))
}

func profileFor(mode config.ColorMode, out io.Writer) termenv.Profile {
	switch mode {
	case config.ColorOff:
		return termenv.Ascii
	case config.ColorForce:
		return termenv.ANSI256
	}
	if os.Getenv("NO_COLOR") != "" || !IsTerminal(out) {
		return termenv.Ascii
	}
	return termenv.EnvColorProfile()
}

// IsTerminal reports whether w is an interactive terminal.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// Title renders a heading.
func Title(s string) string { return styles.title.Render(s) }

// OK renders a success marker or message.
func OK(s string) string { return styles.ok.Render(s) }

// Error renders an error message.
func Error(s string) string { return styles.err.Render(s) }

// Warn renders a warning.
func Warn(s string) string { return styles.warn.Render(s) }

// Muted renders secondary text.
func Muted(s string) string { return styles.help.Render(s) }
