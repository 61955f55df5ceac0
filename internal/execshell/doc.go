// Package execshell runs the external tools a migration depends on.
//
// ShellExecutor wraps a CommandRunner with structured logging, per-command
// timeouts and lifecycle events. Non-zero exit codes are reported as
// CommandFailedError and interrupted runs as CommandExecutionError. Both
// carry the captured output, which FailureResult extracts.
package execshell
