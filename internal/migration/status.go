package migration

import (
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/layerize/internal/ui"
)

const (
	logFieldStageConstant     = "stage"
	logFieldOutcomeConstant   = "outcome"
	logFieldOperationConstant = "operation"
	logFieldOutputConstant    = "output"
)

// ConsoleStatusReporter prints one colored line per result and mirrors it to the logger.
type ConsoleStatusReporter struct {
	printer *ui.StatusPrinter
	logger  *zap.Logger
}

// NewConsoleStatusReporter constructs a reporter. Either collaborator may be nil.
func NewConsoleStatusReporter(printer *ui.StatusPrinter, logger *zap.Logger) *ConsoleStatusReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ConsoleStatusReporter{printer: printer, logger: logger}
}

// Report implements StatusReporter.
func (reporter *ConsoleStatusReporter) Report(result StageResult) {
	if reporter.printer != nil {
		reporter.printer.Print(statusLevelFor(result.Outcome), string(result.Stage), result.Detail)
	}

	fields := []zap.Field{
		zap.String(logFieldStageConstant, string(result.Stage)),
		zap.String(logFieldOutcomeConstant, result.Outcome.String()),
	}
	if len(result.Operation) > 0 {
		fields = append(fields, zap.String(logFieldOperationConstant, result.Operation))
	}
	trimmedOutput := strings.TrimSpace(result.Output)
	if len(trimmedOutput) > 0 {
		fields = append(fields, zap.String(logFieldOutputConstant, trimmedOutput))
	}

	switch result.Outcome {
	case OutcomeFatal:
		reporter.logger.Error(result.Detail, fields...)
	case OutcomeWarning:
		reporter.logger.Warn(result.Detail, fields...)
	default:
		reporter.logger.Debug(result.Detail, fields...)
	}
}

func statusLevelFor(outcome Outcome) ui.StatusLevel {
	switch outcome {
	case OutcomeWarning:
		return ui.StatusWarning
	case OutcomeFatal:
		return ui.StatusFatal
	default:
		return ui.StatusSuccess
	}
}
