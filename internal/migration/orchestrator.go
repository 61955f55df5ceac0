package migration

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/juju/clock"
	"go.uber.org/zap"

	"github.com/temirov/layerize/internal/filesystem"
)

const (
	toolchainNotConfiguredMessageConstant  = "build toolchain not configured"
	fileSystemNotConfiguredMessageConstant = "file system not configured"
	migrationAbortedMessageConstant        = "migration aborted"
	abortedAtTemplateConstant              = "%w during %s: %s"
	planOperationConstant                  = "plan"
	planFailedTemplateConstant             = "Unable to build migration plan: %v"
	branchOperationConstant                = "branch"
	branchCreatedTemplateConstant          = "Created branch %s"
	branchFailedTemplateConstant           = "Unable to create branch %s: %v"
	branchSkippedTemplateConstant          = "Branch %s not created; version control is unavailable"
	cancelledTemplateConstant              = "Migration cancelled: %v"
	cancellationOperationConstant          = "cancellation"
	reportOperationConstant                = "report"
	reportFileFailedTemplateConstant       = "Unable to write report file: %v"
	reportRenderFailedTemplateConstant     = "Unable to print migration report: %v"
	logMessageStageStartedConstant         = "Stage started"
	logMessageMigrationFinishedConstant    = "Migration finished"
	logFieldStateConstant                  = "state"
	logFieldReportFileConstant             = "report_file"
)

// ErrMigrationAborted is returned when a run ends in the Aborted state.
var ErrMigrationAborted = errors.New(migrationAbortedMessageConstant)

// ErrToolchainNotConfigured indicates the orchestrator was built without a toolchain.
var ErrToolchainNotConfigured = errors.New(toolchainNotConfiguredMessageConstant)

// ErrFileSystemNotConfigured indicates the orchestrator was built without a file system.
var ErrFileSystemNotConfigured = errors.New(fileSystemNotConfiguredMessageConstant)

// Settings carries the values every stage needs. It is resolved once by the command layer.
type Settings struct {
	SolutionRoot           string
	LegacyProjectName      string
	RootNamespace          string
	ManifestName           string
	BranchName             string
	BuildToolName          string
	VersionControlToolName string
	ReportFileName         string
}

// Dependencies are the collaborators of a run. VersionControl, Confirmer, Clock, Reporter and
// Output are optional.
type Dependencies struct {
	Logger         *zap.Logger
	Toolchain      Toolchain
	VersionControl VersionControl
	FileSystem     filesystem.FileSystem
	Confirmer      Confirmer
	Clock          clock.Clock
	Reporter       StatusReporter
	Output         io.Writer
}

// Orchestrator drives the migration state machine in a single forward pass.
type Orchestrator struct {
	settings     Settings
	dependencies Dependencies
}

// NewOrchestrator validates dependencies and fills in defaults.
func NewOrchestrator(settings Settings, dependencies Dependencies) (*Orchestrator, error) {
	if dependencies.Toolchain == nil {
		return nil, ErrToolchainNotConfigured
	}
	if dependencies.FileSystem == nil {
		return nil, ErrFileSystemNotConfigured
	}
	if dependencies.Logger == nil {
		dependencies.Logger = zap.NewNop()
	}
	if dependencies.Clock == nil {
		dependencies.Clock = clock.WallClock
	}
	if dependencies.Reporter == nil {
		dependencies.Reporter = noopStatusReporter{}
	}
	if dependencies.Output == nil {
		dependencies.Output = io.Discard
	}
	return &Orchestrator{settings: settings, dependencies: dependencies}, nil
}

type runState struct {
	report         *MigrationReport
	plan           *MigrationPlan
	versionControl VersionControl
}

// Run executes every stage. The returned report is complete even when the run aborts, in
// which case the error wraps ErrMigrationAborted.
func (orchestrator *Orchestrator) Run(executionContext context.Context) (*MigrationReport, error) {
	solutionRoot := filepath.Clean(orchestrator.settings.SolutionRoot)
	state := &runState{report: NewMigrationReport(solutionRoot, orchestrator.dependencies.Clock.Now())}

	stages := []struct {
		name StageName
		run  func(context.Context, *runState) []StageResult
	}{
		{name: StageProbing, run: orchestrator.probe},
		{name: StageBackingUp, run: orchestrator.backup},
		{name: StageScaffolding, run: orchestrator.scaffold},
		{name: StageRelocating, run: orchestrator.relocate},
		{name: StageRewriting, run: orchestrator.rewrite},
		{name: StageWiring, run: orchestrator.wire},
		{name: StageVerifying, run: orchestrator.verify},
		{name: StageFinalizing, run: orchestrator.finalize},
	}

	var abortError error
	for _, stage := range stages {
		state.report.State = RunState(stage.name)
		orchestrator.dependencies.Logger.Debug(logMessageStageStartedConstant, zap.String(logFieldStageConstant, string(stage.name)))

		stageResults := stage.run(executionContext, state)
		if contextError := executionContext.Err(); contextError != nil && firstFatal(stageResults) == nil {
			stageResults = append(stageResults, fatalResult(stage.name, cancellationOperationConstant, fmt.Sprintf(cancelledTemplateConstant, contextError)))
		}
		orchestrator.record(state.report, stageResults...)

		if fatal := firstFatal(stageResults); fatal != nil {
			state.report.State = RunStateAborted
			state.report.FollowUps = AbortFollowUpActions(state.report.Backup)
			abortError = fmt.Errorf(abortedAtTemplateConstant, ErrMigrationAborted, stage.name, fatal.Detail)
			break
		}
	}
	if abortError == nil {
		state.report.State = RunStateCompleted
	}

	orchestrator.finish(state.report)
	return state.report, abortError
}

func (orchestrator *Orchestrator) record(report *MigrationReport, results ...StageResult) {
	for _, result := range results {
		report.Record(result)
		orchestrator.dependencies.Reporter.Report(result)
	}
}

func (orchestrator *Orchestrator) probe(executionContext context.Context, state *runState) []StageResult {
	prober := NewEnvironmentProber(
		orchestrator.dependencies.FileSystem,
		orchestrator.dependencies.Toolchain,
		orchestrator.dependencies.VersionControl,
		orchestrator.settings.BuildToolName,
		orchestrator.settings.VersionControlToolName,
		orchestrator.dependencies.Logger,
	)
	probeResult := prober.Probe(executionContext, ProbeInputs{
		SolutionRoot:      state.report.SolutionRoot,
		ManifestName:      orchestrator.settings.ManifestName,
		LegacyProjectName: orchestrator.settings.LegacyProjectName,
	})
	if probeResult.VCSAvailable {
		state.versionControl = orchestrator.dependencies.VersionControl
	}
	state.report.ToolchainVersion = probeResult.ToolchainVersion
	state.report.MissingTools = probeResult.MissingTools
	if !probeResult.OK {
		return probeResult.Results
	}

	state.report.ManifestPath = probeResult.ManifestPath
	plan, planError := BuildPlan(PlanInputs{
		SolutionRoot:      state.report.SolutionRoot,
		LegacyProjectName: probeResult.LegacyProjectName,
		RootNamespace:     orchestrator.settings.RootNamespace,
		ManifestPath:      probeResult.ManifestPath,
	})
	if planError == nil {
		planError = ValidatePlan(plan)
	}
	if planError != nil {
		return append(probeResult.Results, fatalResult(StageProbing, planOperationConstant, fmt.Sprintf(planFailedTemplateConstant, planError)))
	}
	state.plan = plan
	return probeResult.Results
}

func (orchestrator *Orchestrator) backup(executionContext context.Context, state *runState) []StageResult {
	manager := NewBackupManager(orchestrator.dependencies.FileSystem, orchestrator.dependencies.Clock, orchestrator.dependencies.Confirmer, orchestrator.dependencies.Logger)
	record, backupResult := manager.Backup(executionContext, state.plan.Resolve(state.plan.LegacyProject.Path))
	if backupResult.Outcome == OutcomeFatal {
		return []StageResult{backupResult}
	}
	state.report.Backup = &record

	stageResults := []StageResult{backupResult}
	if branchName := strings.TrimSpace(orchestrator.settings.BranchName); len(branchName) > 0 {
		stageResults = append(stageResults, createBranch(executionContext, state.versionControl, branchName))
	}
	return stageResults
}

func createBranch(executionContext context.Context, versionControl VersionControl, branchName string) StageResult {
	if versionControl == nil {
		return warningResult(StageBackingUp, branchOperationConstant, fmt.Sprintf(branchSkippedTemplateConstant, branchName), "")
	}
	if branchError := versionControl.CreateBranch(executionContext, branchName); branchError != nil {
		return warningResult(StageBackingUp, branchOperationConstant, fmt.Sprintf(branchFailedTemplateConstant, branchName, branchError), "")
	}
	return successResult(StageBackingUp, branchOperationConstant, fmt.Sprintf(branchCreatedTemplateConstant, branchName))
}

func (orchestrator *Orchestrator) scaffold(executionContext context.Context, state *runState) []StageResult {
	scaffolder := NewScaffolder(orchestrator.dependencies.Toolchain, orchestrator.dependencies.FileSystem, orchestrator.dependencies.Logger)
	outcome := scaffolder.Scaffold(executionContext, state.plan)
	state.report.CreatedProjects = outcome.CreatedProjects
	state.report.FailedProjects = outcome.FailedProjects
	return outcome.Results
}

func (orchestrator *Orchestrator) relocate(executionContext context.Context, state *runState) []StageResult {
	relocator := NewRelocator(orchestrator.dependencies.FileSystem, state.versionControl, orchestrator.dependencies.Confirmer, orchestrator.dependencies.Logger)
	return relocator.Relocate(executionContext, state.plan).Results
}

func (orchestrator *Orchestrator) rewrite(executionContext context.Context, state *runState) []StageResult {
	apiProject, _ := state.plan.ProjectForLayer(LayerAPI)
	rewriter := NewTextRewriter(orchestrator.dependencies.FileSystem, nil, orchestrator.dependencies.Logger)
	return rewriter.RewriteNamespaces(executionContext, state.plan.Resolve(apiProject.Path), state.plan.LegacyProject.Name, apiProject.Name).Results
}

func (orchestrator *Orchestrator) wire(executionContext context.Context, state *runState) []StageResult {
	wirer := NewReferenceWirer(orchestrator.dependencies.Toolchain, orchestrator.dependencies.Logger)
	return wirer.WireReferences(executionContext, state.plan)
}

func (orchestrator *Orchestrator) verify(executionContext context.Context, state *runState) []StageResult {
	verifier := NewVerifier(orchestrator.dependencies.Toolchain, orchestrator.dependencies.Logger)
	verification := verifier.Verify(executionContext, state.plan.ManifestPath)
	state.report.Verification = &verification
	return verification.Results(state.plan.ManifestPath)
}

func (orchestrator *Orchestrator) finalize(executionContext context.Context, state *runState) []StageResult {
	finalizer := NewFinalizer(orchestrator.dependencies.Toolchain, orchestrator.dependencies.Confirmer, orchestrator.dependencies.Logger)
	return finalizer.Finalize(executionContext, state.plan, state.report)
}

func (orchestrator *Orchestrator) finish(report *MigrationReport) {
	report.FinishedAt = orchestrator.dependencies.Clock.Now()

	reportFileName := strings.TrimSpace(orchestrator.settings.ReportFileName)
	reportPath := ""
	if len(reportFileName) > 0 {
		reportPath = reportFileName
		if !filepath.IsAbs(reportPath) {
			reportPath = filepath.Join(report.SolutionRoot, reportPath)
		}
		if writeError := WriteReportFile(orchestrator.dependencies.FileSystem, reportPath, report); writeError != nil {
			orchestrator.record(report, warningResult(StageFinalizing, reportOperationConstant, fmt.Sprintf(reportFileFailedTemplateConstant, writeError), ""))
			reportPath = ""
		}
	}

	if renderError := RenderReport(orchestrator.dependencies.Output, report); renderError != nil {
		orchestrator.dependencies.Logger.Warn(fmt.Sprintf(reportRenderFailedTemplateConstant, renderError))
	}
	if len(reportPath) > 0 {
		fmt.Fprintf(orchestrator.dependencies.Output, reportFileWrittenTemplateConstant, reportPath)
	}

	orchestrator.dependencies.Logger.Info(
		logMessageMigrationFinishedConstant,
		zap.String(logFieldStateConstant, string(report.State)),
		zap.String(logFieldReportFileConstant, reportPath),
	)
}
