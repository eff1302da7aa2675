package errors

import (
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/muesli/termenv"
)

// output renders styled text for stderr. Its profile is detected from
// the terminal, so colors drop out when stderr is redirected.
var output = termenv.NewOutput(os.Stderr)

// DisableColors turns off styled output.
func DisableColors() {
	setProfile(termenv.Ascii)
}

// EnableColors restores styling detected from the terminal.
func EnableColors() {
	output = termenv.NewOutput(os.Stderr)
}

func setProfile(p termenv.Profile) {
	output = termenv.NewOutput(os.Stderr, termenv.WithProfile(p))
}

func styled(text, color string, strong bool) string {
	s := output.String(text)
	if color != "" {
		s = s.Foreground(output.Color(color))
	}
	if strong {
		s = s.Bold()
	}
	return s.String()
}

func red(text string) string   { return styled(text, "1", false) }
func cyan(text string) string  { return styled(text, "6", false) }
func white(text string) string { return styled(text, "7", false) }
func gray(text string) string  { return styled(text, "8", false) }
func bold(text string) string  { return styled(text, "", true) }

// Format returns a formatted error message for terminal display.
func (e *FiberError) Format() string {
	var b strings.Builder

	b.WriteString("\n")
	if e.Code != "" {
		b.WriteString(red(bold("ERROR ")))
		b.WriteString(white(bold(e.Code + ": ")))
	} else {
		b.WriteString(red(bold("ERROR: ")))
	}
	b.WriteString(white(e.Message))
	b.WriteString("\n\n")

	if e.Detail != "" {
		for _, line := range wrapText(e.Detail, 70) {
			b.WriteString("  ")
			b.WriteString(line)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if e.Wrapped != nil {
		b.WriteString("  ")
		b.WriteString(gray("Caused by: "))
		b.WriteString(e.Wrapped.Error())
		b.WriteString("\n\n")
	}

	if e.Suggestion != "" {
		b.WriteString("  ")
		b.WriteString(cyan("Hint: "))
		b.WriteString(e.Suggestion)
		b.WriteString("\n\n")
	}

	return b.String()
}

// FormatCompact returns a compact single-line error format.
func (e *FiberError) FormatCompact() string {
	var b strings.Builder
	if e.Code != "" {
		b.WriteString(e.Code)
		b.WriteString(": ")
	}
	b.WriteString(e.Message)
	if e.Detail != "" {
		b.WriteString(" (")
		b.WriteString(e.Detail)
		b.WriteString(")")
	}
	return b.String()
}

// wrapText wraps text to the specified width.
func wrapText(text string, width int) []string {
	if text == "" {
		return nil
	}
	if len(text) <= width {
		return []string{text}
	}

	var lines []string
	var current strings.Builder
	for _, word := range strings.Fields(text) {
		if current.Len() > 0 && current.Len()+len(word)+1 > width {
			lines = append(lines, current.String())
			current.Reset()
		}
		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		lines = append(lines, current.String())
	}
	return lines
}

// Fprint writes a formatted error to w.
func Fprint(w io.Writer, err error) {
	var fe *FiberError
	if stderrors.As(err, &fe) {
		fmt.Fprint(w, fe.Format())
		return
	}
	fmt.Fprintf(w, "\n%s %s\n\n", red(bold("ERROR:")), err.Error())
}

// PrintError prints a formatted error to stderr.
func PrintError(err error) {
	Fprint(os.Stderr, err)
}
