package execshell

// CommandEventObserver receives lifecycle notifications for each dotnet or git invocation.
type CommandEventObserver interface {
	// CommandStarted is called before the process starts.
	CommandStarted(command ShellCommand)
	// CommandCompleted is called once the process exits, whatever its exit code.
	CommandCompleted(command ShellCommand, result ExecutionResult)
	// CommandExecutionFailed is called when the process could not start or was interrupted.
	CommandExecutionFailed(command ShellCommand, failure error)
}

type noopCommandEventObserver struct{}

func (noopCommandEventObserver) CommandStarted(ShellCommand) {}

func (noopCommandEventObserver) CommandCompleted(ShellCommand, ExecutionResult) {}

func (noopCommandEventObserver) CommandExecutionFailed(ShellCommand, error) {}
