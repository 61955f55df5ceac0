// Package utils exposes reusable helpers consumed by the CLI.
//
// It houses ConfigurationLoader, LoggerFactory and CommandContextAccessor,
// which integrate Viper, environment variables and zap logging.
package utils
