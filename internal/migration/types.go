package migration

import (
	"time"
)

const (
	outcomeSuccessLabelConstant = "success"
	outcomeWarningLabelConstant = "warning"
	outcomeFatalLabelConstant   = "fatal"
	outcomeUnknownLabelConstant = "unknown"
)

// Outcome classifies a single StageResult.
type Outcome int

// Supported outcomes. Informational results are successes with a detail.
const (
	OutcomeSuccess Outcome = iota
	OutcomeWarning
	OutcomeFatal
)

// String returns the lower-case label of the outcome.
func (outcome Outcome) String() string {
	switch outcome {
	case OutcomeSuccess:
		return outcomeSuccessLabelConstant
	case OutcomeWarning:
		return outcomeWarningLabelConstant
	case OutcomeFatal:
		return outcomeFatalLabelConstant
	default:
		return outcomeUnknownLabelConstant
	}
}

// MarshalYAML renders the outcome label in exported reports.
func (outcome Outcome) MarshalYAML() (any, error) {
	return outcome.String(), nil
}

// StageName identifies a pipeline stage.
type StageName string

// Pipeline stages in execution order.
const (
	StageProbing     StageName = "Probing"
	StageBackingUp   StageName = "BackingUp"
	StageScaffolding StageName = "Scaffolding"
	StageRelocating  StageName = "Relocating"
	StageRewriting   StageName = "Rewriting"
	StageWiring      StageName = "Wiring"
	StageVerifying   StageName = "Verifying"
	StageFinalizing  StageName = "Finalizing"
)

// RunState is the orchestrator state. Every StageName is also a RunState.
type RunState string

// Terminal states.
const (
	RunStateCompleted RunState = "Completed"
	RunStateAborted   RunState = "Aborted"
)

// StageResult is the outcome of one operation within a stage.
type StageResult struct {
	Stage     StageName `yaml:"stage"`
	Outcome   Outcome   `yaml:"outcome"`
	Detail    string    `yaml:"detail"`
	Output    string    `yaml:"output,omitempty"`
	Operation string    `yaml:"operation,omitempty"`
}

// BackupRecord describes the backup taken before any mutation.
type BackupRecord struct {
	OriginalPath string    `yaml:"original_path"`
	BackupPath   string    `yaml:"backup_path"`
	CreatedAt    time.Time `yaml:"created_at"`
}

// MoveStatus is the per-operation state recorded by the Relocator.
type MoveStatus string

// Relocation statuses.
const (
	MoveStatusMoved    MoveStatus = "moved"
	MoveStatusStripped MoveStatus = "stripped"
	MoveStatusSkipped  MoveStatus = "skipped"
	MoveStatusFailed   MoveStatus = "failed"
)

// MoveMethod records how a relocation was carried out.
type MoveMethod string

// Relocation methods.
const (
	MoveMethodNone           MoveMethod = ""
	MoveMethodVersionControl MoveMethod = "vcs"
	MoveMethodCopy           MoveMethod = "copy"
	MoveMethodRename         MoveMethod = "rename"
	MoveMethodDelete         MoveMethod = "delete"
)

// MoveOutcome pairs a planned FileMoveOperation with what happened to it.
type MoveOutcome struct {
	Operation FileMoveOperation
	Status    MoveStatus
	Method    MoveMethod
}

// PhaseName identifies a verification phase.
type PhaseName string

// Verification phases in execution order.
const (
	PhaseRestore PhaseName = "restore"
	PhaseBuild   PhaseName = "build"
	PhaseTest    PhaseName = "test"
)

// PhaseResult is the outcome of one verification phase.
type PhaseResult struct {
	Phase     PhaseName `yaml:"phase"`
	Attempted bool      `yaml:"attempted"`
	Passed    bool      `yaml:"passed"`
	ExitCode  int       `yaml:"exit_code"`
	Output    string    `yaml:"output,omitempty"`
}

// VerificationReport always lists every phase, attempted or not.
type VerificationReport struct {
	Phases []PhaseResult `yaml:"phases"`
}

// Phase returns the named phase result.
func (report VerificationReport) Phase(name PhaseName) (PhaseResult, bool) {
	for _, phase := range report.Phases {
		if phase.Phase == name {
			return phase, true
		}
	}
	return PhaseResult{}, false
}

// Passed reports whether every phase was attempted and passed.
func (report VerificationReport) Passed() bool {
	if len(report.Phases) == 0 {
		return false
	}
	for _, phase := range report.Phases {
		if !phase.Attempted || !phase.Passed {
			return false
		}
	}
	return true
}

// MigrationReport accumulates everything a run produced.
type MigrationReport struct {
	State            RunState            `yaml:"state"`
	StartedAt        time.Time           `yaml:"started_at"`
	FinishedAt       time.Time           `yaml:"finished_at"`
	SolutionRoot     string              `yaml:"solution_root"`
	ManifestPath     string              `yaml:"manifest,omitempty"`
	ToolchainVersion string              `yaml:"toolchain_version,omitempty"`
	MissingTools     []string            `yaml:"missing_tools,omitempty"`
	Backup           *BackupRecord       `yaml:"backup,omitempty"`
	CreatedProjects  []string            `yaml:"created_projects,omitempty"`
	FailedProjects   []string            `yaml:"failed_projects,omitempty"`
	Verification     *VerificationReport `yaml:"verification,omitempty"`
	Results          []StageResult       `yaml:"results"`
	FollowUps        []string            `yaml:"follow_ups,omitempty"`
}

// NewMigrationReport starts an empty report.
func NewMigrationReport(solutionRoot string, startedAt time.Time) *MigrationReport {
	return &MigrationReport{
		State:        RunState(StageProbing),
		StartedAt:    startedAt,
		SolutionRoot: solutionRoot,
	}
}

// Record appends results in order.
func (report *MigrationReport) Record(results ...StageResult) {
	report.Results = append(report.Results, results...)
}

// Problems returns the Warning and Fatal results in the order they were recorded.
func (report *MigrationReport) Problems() []StageResult {
	problems := make([]StageResult, 0)
	for _, result := range report.Results {
		if result.Outcome != OutcomeSuccess {
			problems = append(problems, result)
		}
	}
	return problems
}

// HasFatal reports whether any Fatal result was recorded.
func (report *MigrationReport) HasFatal() bool {
	return firstFatal(report.Results) != nil
}

func firstFatal(results []StageResult) *StageResult {
	for resultIndex := range results {
		if results[resultIndex].Outcome == OutcomeFatal {
			return &results[resultIndex]
		}
	}
	return nil
}

func successResult(stage StageName, operation string, detail string) StageResult {
	return StageResult{Stage: stage, Outcome: OutcomeSuccess, Operation: operation, Detail: detail}
}

func warningResult(stage StageName, operation string, detail string, output string) StageResult {
	return StageResult{Stage: stage, Outcome: OutcomeWarning, Operation: operation, Detail: detail, Output: output}
}

func fatalResult(stage StageName, operation string, detail string) StageResult {
	return StageResult{Stage: stage, Outcome: OutcomeFatal, Operation: operation, Detail: detail}
}
