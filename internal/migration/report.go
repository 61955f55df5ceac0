package migration

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/temirov/layerize/internal/filesystem"
	"github.com/temirov/layerize/internal/ui"
)

const (
	reportTitleTemplateConstant        = "Migration %s\n"
	reportBackupTemplateConstant       = "Backup: %s\n"
	reportNoBackupMessageConstant      = "Backup: none"
	reportCreatedTemplateConstant      = "Created projects: %s\n"
	reportFailedTemplateConstant       = "Projects not created: %s\n"
	reportNoneConstant                 = "none"
	reportToolchainTemplateConstant    = "Toolchain version: %s\n"
	reportMissingToolsTemplateConstant = "Missing tools: %s\n"
	reportListSeparatorConstant        = ", "
	reportNoProblemsMessageConstant    = "No warnings or failures."
	reportProblemsHeaderConstant       = "Warnings and failures:"
	reportVerificationHeaderConstant   = "Verification:"
	reportFollowUpsHeaderConstant      = "Follow-up actions:"
	reportFollowUpTemplateConstant     = "%d. %s\n"
	reportFileWrittenTemplateConstant  = "Report written to %s\n"
	reportYesConstant                  = "yes"
	reportNoConstant                   = "no"
	reportNotApplicableConstant        = "-"
	reportStageColumnConstant          = "STAGE"
	reportOutcomeColumnConstant        = "OUTCOME"
	reportOperationColumnConstant      = "OPERATION"
	reportDetailColumnConstant         = "DETAIL"
	reportPhaseColumnConstant          = "PHASE"
	reportAttemptedColumnConstant      = "ATTEMPTED"
	reportPassedColumnConstant         = "PASSED"
	reportExitCodeColumnConstant       = "EXIT CODE"
	reportFilePermissionsConstant      = 0o644
	reportMarshalErrorTemplateConstant = "unable to encode migration report: %w"
	reportWriteErrorTemplateConstant   = "unable to write migration report %s: %w"
)

// RenderReport prints the consolidated report. It never omits a Warning or Fatal result.
func RenderReport(writer io.Writer, report *MigrationReport) error {
	var builder strings.Builder
	builder.WriteString(fmt.Sprintf(reportTitleTemplateConstant, report.State))
	if len(report.ToolchainVersion) > 0 {
		builder.WriteString(fmt.Sprintf(reportToolchainTemplateConstant, report.ToolchainVersion))
	}
	if len(report.MissingTools) > 0 {
		builder.WriteString(fmt.Sprintf(reportMissingToolsTemplateConstant, joinOrNone(report.MissingTools)))
	}
	if report.Backup != nil {
		builder.WriteString(fmt.Sprintf(reportBackupTemplateConstant, report.Backup.BackupPath))
	} else {
		builder.WriteString(reportNoBackupMessageConstant + "\n")
	}
	builder.WriteString(fmt.Sprintf(reportCreatedTemplateConstant, joinOrNone(report.CreatedProjects)))
	if len(report.FailedProjects) > 0 {
		builder.WriteString(fmt.Sprintf(reportFailedTemplateConstant, joinOrNone(report.FailedProjects)))
	}
	if _, writeError := io.WriteString(writer, builder.String()); writeError != nil {
		return writeError
	}

	problems := report.Problems()
	if len(problems) == 0 {
		if _, writeError := fmt.Fprintln(writer, reportNoProblemsMessageConstant); writeError != nil {
			return writeError
		}
	} else {
		if _, writeError := fmt.Fprintln(writer, reportProblemsHeaderConstant); writeError != nil {
			return writeError
		}
		problemRows := make([][]string, 0, len(problems))
		for _, problem := range problems {
			problemRows = append(problemRows, []string{string(problem.Stage), problem.Outcome.String(), problem.Operation, problem.Detail})
		}
		if tableError := ui.WriteTable(writer, []string{reportStageColumnConstant, reportOutcomeColumnConstant, reportOperationColumnConstant, reportDetailColumnConstant}, problemRows); tableError != nil {
			return tableError
		}
	}

	if report.Verification != nil {
		if _, writeError := fmt.Fprintln(writer, reportVerificationHeaderConstant); writeError != nil {
			return writeError
		}
		phaseRows := make([][]string, 0, len(report.Verification.Phases))
		for _, phase := range report.Verification.Phases {
			exitCode := reportNotApplicableConstant
			if phase.Attempted {
				exitCode = strconv.Itoa(phase.ExitCode)
			}
			phaseRows = append(phaseRows, []string{string(phase.Phase), yesNo(phase.Attempted), yesNo(phase.Passed), exitCode})
		}
		if tableError := ui.WriteTable(writer, []string{reportPhaseColumnConstant, reportAttemptedColumnConstant, reportPassedColumnConstant, reportExitCodeColumnConstant}, phaseRows); tableError != nil {
			return tableError
		}
	}

	if len(report.FollowUps) > 0 {
		if _, writeError := fmt.Fprintln(writer, reportFollowUpsHeaderConstant); writeError != nil {
			return writeError
		}
		for followUpIndex, followUp := range report.FollowUps {
			if _, writeError := fmt.Fprintf(writer, reportFollowUpTemplateConstant, followUpIndex+1, followUp); writeError != nil {
				return writeError
			}
		}
	}
	return nil
}

// WriteReportFile exports the report as YAML.
func WriteReportFile(fileSystem filesystem.FileSystem, reportPath string, report *MigrationReport) error {
	encodedReport, marshalError := yaml.Marshal(report)
	if marshalError != nil {
		return fmt.Errorf(reportMarshalErrorTemplateConstant, marshalError)
	}
	if writeError := fileSystem.WriteFileAtomic(reportPath, encodedReport, reportFilePermissionsConstant); writeError != nil {
		return fmt.Errorf(reportWriteErrorTemplateConstant, reportPath, writeError)
	}
	return nil
}

func joinOrNone(values []string) string {
	if len(values) == 0 {
		return reportNoneConstant
	}
	return strings.Join(values, reportListSeparatorConstant)
}

func yesNo(value bool) string {
	if value {
		return reportYesConstant
	}
	return reportNoConstant
}
