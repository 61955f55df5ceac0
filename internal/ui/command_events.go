package ui

import (
	"time"

	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/temirov/layerize/internal/execshell"
)

const (
	logFieldElapsedConstant = "elapsed"
)

// ConsoleCommandEventLogger renders dotnet and git lifecycle events as human-readable log lines.
// Completion lines carry the time elapsed since the matching start; commands run one at a time.
type ConsoleCommandEventLogger struct {
	logger    *zap.Logger
	formatter execshell.CommandMessageFormatter
	clock     clock.Clock
	startedAt time.Time
}

// NewConsoleCommandEventLogger constructs a console event logger backed by the provided zap logger.
func NewConsoleCommandEventLogger(logger *zap.Logger) *ConsoleCommandEventLogger {
	return NewConsoleCommandEventLoggerWithClock(logger, clock.WallClock)
}

// NewConsoleCommandEventLoggerWithClock constructs a console event logger measuring elapsed time with eventClock.
func NewConsoleCommandEventLoggerWithClock(logger *zap.Logger, eventClock clock.Clock) *ConsoleCommandEventLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	if eventClock == nil {
		eventClock = clock.WallClock
	}
	return &ConsoleCommandEventLogger{logger: logger, formatter: execshell.CommandMessageFormatter{}, clock: eventClock}
}

// CommandStarted implements execshell.CommandEventObserver.
func (eventLogger *ConsoleCommandEventLogger) CommandStarted(command execshell.ShellCommand) {
	if eventLogger == nil {
		return
	}
	eventLogger.startedAt = eventLogger.clock.Now()
	eventLogger.logger.Info(eventLogger.formatter.BuildStartedMessage(command))
}

// CommandCompleted implements execshell.CommandEventObserver. Non-zero exits are logged as warnings.
func (eventLogger *ConsoleCommandEventLogger) CommandCompleted(command execshell.ShellCommand, result execshell.ExecutionResult) {
	if eventLogger == nil {
		return
	}
	elapsedField := eventLogger.elapsedField()
	if result.ExitCode == 0 {
		eventLogger.logger.Info(eventLogger.formatter.BuildSuccessMessage(command), elapsedField)
		return
	}
	eventLogger.logger.Warn(eventLogger.formatter.BuildFailureMessage(command, result), elapsedField)
}

// CommandExecutionFailed implements execshell.CommandEventObserver.
func (eventLogger *ConsoleCommandEventLogger) CommandExecutionFailed(command execshell.ShellCommand, failure error) {
	if eventLogger == nil {
		return
	}
	eventLogger.logger.Error(eventLogger.formatter.BuildExecutionFailureMessage(command, failure), eventLogger.elapsedField())
}

func (eventLogger *ConsoleCommandEventLogger) elapsedField() zap.Field {
	if eventLogger.startedAt.IsZero() {
		return zap.Skip()
	}
	elapsed := eventLogger.clock.Now().Sub(eventLogger.startedAt)
	eventLogger.startedAt = time.Time{}
	return zap.Duration(logFieldElapsedConstant, elapsed)
}
