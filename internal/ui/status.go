package ui

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const (
	statusLineTemplateConstant  = "%s %s: %s\n"
	successMarkerConstant       = "[ok]"
	warningMarkerConstant       = "[warn]"
	fatalMarkerConstant         = "[fatal]"
	infoMarkerConstant          = "[info]"
	successColorConstant        = "2"
	warningColorConstant        = "3"
	fatalColorConstant          = "1"
	infoColorConstant           = "4"
	stageColorConstant          = "6"
	statusLineMessageTrimCutset = " \t\r\n"
)

// StatusLevel classifies a status line.
type StatusLevel int

// Status levels rendered by StatusPrinter.
const (
	StatusSuccess StatusLevel = iota
	StatusWarning
	StatusFatal
	StatusInfo
)

// StatusPrinter writes one colored line per operation outcome.
// Colors are dropped automatically when the writer is not a terminal.
type StatusPrinter struct {
	writer       io.Writer
	markerStyles map[StatusLevel]lipgloss.Style
	stageStyle   lipgloss.Style
}

// NewStatusPrinter constructs a StatusPrinter for the writer, defaulting to standard output.
func NewStatusPrinter(writer io.Writer) *StatusPrinter {
	if writer == nil {
		writer = os.Stdout
	}
	renderer := lipgloss.NewRenderer(writer)
	return &StatusPrinter{
		writer: writer,
		markerStyles: map[StatusLevel]lipgloss.Style{
			StatusSuccess: renderer.NewStyle().Foreground(lipgloss.Color(successColorConstant)).Bold(true),
			StatusWarning: renderer.NewStyle().Foreground(lipgloss.Color(warningColorConstant)).Bold(true),
			StatusFatal:   renderer.NewStyle().Foreground(lipgloss.Color(fatalColorConstant)).Bold(true),
			StatusInfo:    renderer.NewStyle().Foreground(lipgloss.Color(infoColorConstant)),
		},
		stageStyle: renderer.NewStyle().Foreground(lipgloss.Color(stageColorConstant)),
	}
}

// Print renders "<marker> <stage>: <message>".
func (printer *StatusPrinter) Print(level StatusLevel, stage string, message string) {
	if printer == nil {
		return
	}
	markerStyle, known := printer.markerStyles[level]
	if !known {
		markerStyle = printer.markerStyles[StatusInfo]
	}
	fmt.Fprintf(
		printer.writer,
		statusLineTemplateConstant,
		markerStyle.Render(statusMarker(level)),
		printer.stageStyle.Render(stage),
		strings.Trim(message, statusLineMessageTrimCutset),
	)
}

// Writer exposes the destination so related output lands in the same stream.
func (printer *StatusPrinter) Writer() io.Writer {
	if printer == nil {
		return io.Discard
	}
	return printer.writer
}

func statusMarker(level StatusLevel) string {
	switch level {
	case StatusSuccess:
		return successMarkerConstant
	case StatusWarning:
		return warningMarkerConstant
	case StatusFatal:
		return fatalMarkerConstant
	default:
		return infoMarkerConstant
	}
}
