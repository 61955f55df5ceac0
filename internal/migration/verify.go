package migration

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/layerize/internal/execshell"
)

const (
	phasePassedTemplateConstant       = "%s passed for %s"
	phaseFailedTemplateConstant       = "%s failed for %s (exit code %d)"
	phaseNotAttemptedTemplateConstant = "%s not attempted because %s failed"
	logMessageVerificationConstant    = "Verification completed"
	logFieldPassedConstant            = "passed"
	unknownExitCodeConstant           = -1
)

type phaseRunner func(executionContext context.Context, manifest string) (execshell.ExecutionResult, error)

type verificationPhase struct {
	name     PhaseName
	blocking bool
	run      phaseRunner
}

// Verifier runs restore, build and test against the manifest.
type Verifier struct {
	toolchain Toolchain
	logger    *zap.Logger
}

// NewVerifier constructs a Verifier.
func NewVerifier(toolchain Toolchain, logger *zap.Logger) *Verifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Verifier{toolchain: toolchain, logger: logger}
}

// Verify always returns a report listing every phase. A failed restore or build marks the
// remaining phases as not attempted.
func (verifier *Verifier) Verify(executionContext context.Context, manifest string) VerificationReport {
	phases := verifier.phases()
	report := VerificationReport{Phases: make([]PhaseResult, 0, len(phases))}

	blockingFailure := PhaseName("")
	for _, phase := range phases {
		if len(blockingFailure) > 0 {
			report.Phases = append(report.Phases, PhaseResult{Phase: phase.name, ExitCode: unknownExitCodeConstant})
			continue
		}

		executionResult, phaseError := phase.run(executionContext, manifest)
		phaseResult := PhaseResult{
			Phase:     phase.name,
			Attempted: true,
			Passed:    phaseError == nil,
			ExitCode:  executionResult.ExitCode,
			Output:    executionResult.CombinedOutput(),
		}
		if phaseError != nil {
			phaseResult.Output = failureOutput(executionResult, phaseError)
			if phaseResult.ExitCode == 0 {
				phaseResult.ExitCode = unknownExitCodeConstant
			}
		}
		report.Phases = append(report.Phases, phaseResult)
		if phaseError != nil && phase.blocking {
			blockingFailure = phase.name
		}
	}

	verifier.logger.Debug(logMessageVerificationConstant, zap.Bool(logFieldPassedConstant, report.Passed()))
	return report
}

func (verifier *Verifier) phases() []verificationPhase {
	return []verificationPhase{
		{name: PhaseRestore, blocking: true, run: verifier.toolchain.Restore},
		{name: PhaseBuild, blocking: true, run: verifier.toolchain.Build},
		{name: PhaseTest, blocking: false, run: verifier.toolchain.Test},
	}
}

// Results converts the report into stage results. Failed and skipped phases are Warnings.
func (report VerificationReport) Results(manifest string) []StageResult {
	results := make([]StageResult, 0, len(report.Phases))
	blockingFailure := PhaseName("")
	for _, phase := range report.Phases {
		switch {
		case !phase.Attempted:
			results = append(results, warningResult(StageVerifying, string(phase.Phase), fmt.Sprintf(phaseNotAttemptedTemplateConstant, phase.Phase, blockingFailure), ""))
		case phase.Passed:
			results = append(results, successResult(StageVerifying, string(phase.Phase), fmt.Sprintf(phasePassedTemplateConstant, phase.Phase, manifest)))
		default:
			blockingFailure = phase.Phase
			results = append(results, warningResult(StageVerifying, string(phase.Phase), fmt.Sprintf(phaseFailedTemplateConstant, phase.Phase, manifest, phase.ExitCode), phase.Output))
		}
	}
	return results
}
