package migration

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/layerize/internal/filesystem"
)

const (
	manifestGlobPatternConstant               = "*.sln"
	manifestExtensionConstant                 = ".sln"
	probeManifestOperationConstant            = "manifest"
	probeLegacyProjectOperationConstant       = "legacy project"
	probeToolchainOperationConstant           = "build toolchain"
	probeVersionControlOperationConstant      = "version control"
	manifestFoundTemplateConstant             = "Found solution manifest %s"
	manifestMissingTemplateConstant           = "No solution manifest found in %s"
	manifestConfiguredMissingTemplateConstant = "Solution manifest %s not found in %s"
	manifestAmbiguousTemplateConstant         = "Several solution manifests found in %s; using %s"
	manifestLookupFailedTemplateConstant      = "Unable to search %s for a solution manifest: %v"
	legacyProjectFoundTemplateConstant        = "Found legacy project directory %s"
	legacyProjectMissingTemplateConstant      = "Legacy project directory %s does not exist"
	legacyProjectUnknownMessageConstant       = "Legacy project name could not be determined; pass --legacy-project"
	legacyProjectNotDirTemplateConstant       = "Legacy project path %s is not a directory"
	toolchainVersionTemplateConstant          = "%s %s is available"
	toolchainMissingTemplateConstant          = "%s is not available: %v"
	versionControlVersionTemplateConstant     = "%s %s is available"
	versionControlMissingTemplateConstant     = "%s is not available; files will be copied instead of moved"
	versionControlFailureTemplateConstant     = "%s is not available (%v); files will be copied instead of moved"
	defaultBuildToolNameConstant              = "dotnet"
	defaultVersionControlToolNameConstant     = "git"
	logMessageProbeCompletedConstant          = "Environment probe completed"
	logFieldManifestConstant                  = "manifest"
	logFieldLegacyProjectConstant             = "legacy_project"
	logFieldVCSAvailableConstant              = "vcs_available"
)

// ProbeInputs describe what the prober checks.
type ProbeInputs struct {
	SolutionRoot      string
	ManifestName      string
	LegacyProjectName string
}

// ProbeResult summarizes the environment checks.
type ProbeResult struct {
	OK                bool
	MissingTools      []string
	VCSAvailable      bool
	ManifestPath      string
	LegacyProjectName string
	ToolchainVersion  string
	Results           []StageResult
}

// EnvironmentProber verifies preconditions before anything is mutated.
type EnvironmentProber struct {
	fileSystem             filesystem.FileSystem
	toolchain              Toolchain
	versionControl         VersionControl
	buildToolName          string
	versionControlToolName string
	logger                 *zap.Logger
}

// NewEnvironmentProber constructs a prober. versionControl may be nil.
func NewEnvironmentProber(fileSystem filesystem.FileSystem, toolchain Toolchain, versionControl VersionControl, buildToolName string, versionControlToolName string, logger *zap.Logger) *EnvironmentProber {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(strings.TrimSpace(buildToolName)) == 0 {
		buildToolName = defaultBuildToolNameConstant
	}
	if len(strings.TrimSpace(versionControlToolName)) == 0 {
		versionControlToolName = defaultVersionControlToolNameConstant
	}
	return &EnvironmentProber{
		fileSystem:             fileSystem,
		toolchain:              toolchain,
		versionControl:         versionControl,
		buildToolName:          buildToolName,
		versionControlToolName: versionControlToolName,
		logger:                 logger,
	}
}

// Probe checks the manifest, the legacy project directory and both tools. A missing
// manifest or legacy directory fails fast.
func (prober *EnvironmentProber) Probe(executionContext context.Context, inputs ProbeInputs) ProbeResult {
	probeResult := ProbeResult{}

	manifestName, manifestResult := prober.locateManifest(inputs)
	probeResult.Results = append(probeResult.Results, manifestResult)
	if manifestResult.Outcome == OutcomeFatal {
		return probeResult
	}
	probeResult.ManifestPath = manifestName

	legacyProjectName := strings.TrimSpace(inputs.LegacyProjectName)
	if len(legacyProjectName) == 0 {
		legacyProjectName = strings.TrimSuffix(manifestName, filepath.Ext(manifestName))
	}
	legacyResult := prober.checkLegacyProject(inputs.SolutionRoot, legacyProjectName)
	probeResult.Results = append(probeResult.Results, legacyResult)
	if legacyResult.Outcome == OutcomeFatal {
		return probeResult
	}
	probeResult.LegacyProjectName = legacyProjectName

	toolchainVersion, toolchainError := prober.toolchain.Version(executionContext)
	if toolchainError != nil {
		probeResult.MissingTools = append(probeResult.MissingTools, prober.buildToolName)
		probeResult.Results = append(probeResult.Results, fatalResult(StageProbing, probeToolchainOperationConstant, fmt.Sprintf(toolchainMissingTemplateConstant, prober.buildToolName, toolchainError)))
	} else {
		probeResult.ToolchainVersion = toolchainVersion
		probeResult.Results = append(probeResult.Results, successResult(StageProbing, probeToolchainOperationConstant, fmt.Sprintf(toolchainVersionTemplateConstant, prober.buildToolName, toolchainVersion)))
	}

	probeResult.Results = append(probeResult.Results, prober.checkVersionControl(executionContext, &probeResult))
	probeResult.OK = firstFatal(probeResult.Results) == nil

	prober.logger.Debug(
		logMessageProbeCompletedConstant,
		zap.String(logFieldManifestConstant, probeResult.ManifestPath),
		zap.String(logFieldLegacyProjectConstant, probeResult.LegacyProjectName),
		zap.Bool(logFieldVCSAvailableConstant, probeResult.VCSAvailable),
	)
	return probeResult
}

func (prober *EnvironmentProber) locateManifest(inputs ProbeInputs) (string, StageResult) {
	configuredManifest := strings.TrimSpace(inputs.ManifestName)
	if len(configuredManifest) > 0 {
		if !prober.fileSystem.Exists(filepath.Join(inputs.SolutionRoot, configuredManifest)) {
			return "", fatalResult(StageProbing, probeManifestOperationConstant, fmt.Sprintf(manifestConfiguredMissingTemplateConstant, configuredManifest, inputs.SolutionRoot))
		}
		return configuredManifest, successResult(StageProbing, probeManifestOperationConstant, fmt.Sprintf(manifestFoundTemplateConstant, configuredManifest))
	}

	matches, globError := prober.fileSystem.Glob(filepath.Join(inputs.SolutionRoot, manifestGlobPatternConstant))
	if globError != nil {
		return "", fatalResult(StageProbing, probeManifestOperationConstant, fmt.Sprintf(manifestLookupFailedTemplateConstant, inputs.SolutionRoot, globError))
	}
	if len(matches) == 0 {
		return "", fatalResult(StageProbing, probeManifestOperationConstant, fmt.Sprintf(manifestMissingTemplateConstant, inputs.SolutionRoot))
	}

	manifestNames := make([]string, 0, len(matches))
	for _, match := range matches {
		manifestNames = append(manifestNames, filepath.Base(match))
	}
	sort.Strings(manifestNames)

	if len(manifestNames) == 1 {
		return manifestNames[0], successResult(StageProbing, probeManifestOperationConstant, fmt.Sprintf(manifestFoundTemplateConstant, manifestNames[0]))
	}

	selectedManifest := manifestNames[0]
	preferredManifest := strings.TrimSpace(inputs.LegacyProjectName) + manifestExtensionConstant
	for _, manifestName := range manifestNames {
		if manifestName == preferredManifest {
			selectedManifest = manifestName
			break
		}
	}
	return selectedManifest, warningResult(StageProbing, probeManifestOperationConstant, fmt.Sprintf(manifestAmbiguousTemplateConstant, inputs.SolutionRoot, selectedManifest), "")
}

func (prober *EnvironmentProber) checkLegacyProject(solutionRoot string, legacyProjectName string) StageResult {
	if len(legacyProjectName) == 0 {
		return fatalResult(StageProbing, probeLegacyProjectOperationConstant, legacyProjectUnknownMessageConstant)
	}

	legacyDirectory := filepath.Join(solutionRoot, legacyProjectName)
	legacyInfo, statError := prober.fileSystem.Stat(legacyDirectory)
	if statError != nil {
		return fatalResult(StageProbing, probeLegacyProjectOperationConstant, fmt.Sprintf(legacyProjectMissingTemplateConstant, legacyDirectory))
	}
	if !legacyInfo.IsDir() {
		return fatalResult(StageProbing, probeLegacyProjectOperationConstant, fmt.Sprintf(legacyProjectNotDirTemplateConstant, legacyDirectory))
	}
	return successResult(StageProbing, probeLegacyProjectOperationConstant, fmt.Sprintf(legacyProjectFoundTemplateConstant, legacyDirectory))
}

func (prober *EnvironmentProber) checkVersionControl(executionContext context.Context, probeResult *ProbeResult) StageResult {
	if prober.versionControl == nil {
		probeResult.MissingTools = append(probeResult.MissingTools, prober.versionControlToolName)
		return warningResult(StageProbing, probeVersionControlOperationConstant, fmt.Sprintf(versionControlMissingTemplateConstant, prober.versionControlToolName), "")
	}

	versionControlVersion, versionError := prober.versionControl.Version(executionContext)
	if versionError != nil {
		probeResult.MissingTools = append(probeResult.MissingTools, prober.versionControlToolName)
		return warningResult(StageProbing, probeVersionControlOperationConstant, fmt.Sprintf(versionControlFailureTemplateConstant, prober.versionControlToolName, versionError), "")
	}

	probeResult.VCSAvailable = true
	return successResult(StageProbing, probeVersionControlOperationConstant, fmt.Sprintf(versionControlVersionTemplateConstant, prober.versionControlToolName, versionControlVersion))
}
