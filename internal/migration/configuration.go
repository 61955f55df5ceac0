package migration

import (
	"strings"
	"time"
)

const (
	configurationRootKeyConstant           = "root"
	configurationLegacyProjectKeyConstant  = "legacy_project"
	configurationRootNamespaceKeyConstant  = "root_namespace"
	configurationManifestKeyConstant       = "manifest"
	configurationBuildToolKeyConstant      = "build_tool"
	configurationVCSToolKeyConstant        = "vcs_tool"
	configurationAssumeYesKeyConstant      = "assume_yes"
	configurationDefaultAnswerKeyConstant  = "default_answer"
	configurationCommandTimeoutKeyConstant = "command_timeout"
	configurationReportFileKeyConstant     = "report_file"
	configurationKeySeparatorConstant      = "."
	defaultSolutionRootConstant            = "."
	defaultReportFileConstant              = "layerize-report.yaml"
	// DefaultAnswerYes accepts prompts on an empty reply.
	DefaultAnswerYes                       = "yes"
	// DefaultAnswerNo declines prompts on an empty reply.
	DefaultAnswerNo                        = "no"
)

// CommandConfiguration captures persisted configuration for the migration commands.
type CommandConfiguration struct {
	Root           string        `mapstructure:"root"`
	LegacyProject  string        `mapstructure:"legacy_project"`
	RootNamespace  string        `mapstructure:"root_namespace"`
	Manifest       string        `mapstructure:"manifest"`
	BuildTool      string        `mapstructure:"build_tool"`
	VCSTool        string        `mapstructure:"vcs_tool"`
	AssumeYes      bool          `mapstructure:"assume_yes"`
	DefaultAnswer  string        `mapstructure:"default_answer"`
	CommandTimeout time.Duration `mapstructure:"command_timeout"`
	ReportFile     string        `mapstructure:"report_file"`
}

// DefaultCommandConfiguration returns baseline configuration values for the migration commands.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Root:           defaultSolutionRootConstant,
		BuildTool:      defaultBuildToolNameConstant,
		VCSTool:        defaultVersionControlToolNameConstant,
		AssumeYes:      false,
		DefaultAnswer:  DefaultAnswerNo,
		CommandTimeout: 0,
		ReportFile:     defaultReportFileConstant,
	}
}

// DefaultConfigurationValues produces Viper defaults for the migration commands under rootKey.
func DefaultConfigurationValues(rootKey string) map[string]any {
	defaults := DefaultCommandConfiguration()
	prefix := rootKey + configurationKeySeparatorConstant
	return map[string]any{
		prefix + configurationRootKeyConstant:           defaults.Root,
		prefix + configurationLegacyProjectKeyConstant:  defaults.LegacyProject,
		prefix + configurationRootNamespaceKeyConstant:  defaults.RootNamespace,
		prefix + configurationManifestKeyConstant:       defaults.Manifest,
		prefix + configurationBuildToolKeyConstant:      defaults.BuildTool,
		prefix + configurationVCSToolKeyConstant:        defaults.VCSTool,
		prefix + configurationAssumeYesKeyConstant:      defaults.AssumeYes,
		prefix + configurationDefaultAnswerKeyConstant:  defaults.DefaultAnswer,
		prefix + configurationCommandTimeoutKeyConstant: defaults.CommandTimeout,
		prefix + configurationReportFileKeyConstant:     defaults.ReportFile,
	}
}

// Sanitize trims configured values and restores defaults for empty required entries.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := configuration
	sanitized.Root = strings.TrimSpace(configuration.Root)
	if len(sanitized.Root) == 0 {
		sanitized.Root = defaults.Root
	}
	sanitized.LegacyProject = strings.TrimSpace(configuration.LegacyProject)
	sanitized.RootNamespace = strings.TrimSpace(configuration.RootNamespace)
	sanitized.Manifest = strings.TrimSpace(configuration.Manifest)
	sanitized.BuildTool = strings.TrimSpace(configuration.BuildTool)
	if len(sanitized.BuildTool) == 0 {
		sanitized.BuildTool = defaults.BuildTool
	}
	sanitized.VCSTool = strings.TrimSpace(configuration.VCSTool)
	if len(sanitized.VCSTool) == 0 {
		sanitized.VCSTool = defaults.VCSTool
	}
	sanitized.DefaultAnswer = strings.ToLower(strings.TrimSpace(configuration.DefaultAnswer))
	if sanitized.DefaultAnswer != DefaultAnswerYes {
		sanitized.DefaultAnswer = DefaultAnswerNo
	}
	if sanitized.CommandTimeout < 0 {
		sanitized.CommandTimeout = 0
	}
	sanitized.ReportFile = strings.TrimSpace(configuration.ReportFile)
	return sanitized
}
