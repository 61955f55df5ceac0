package migration

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/layerize/internal/filesystem"
	"github.com/temirov/layerize/internal/ui"
)

const (
	planCommandUseConstant              = "plan"
	planCommandShortDescriptionConstant = "Print the migration plan without changing anything"
	planCommandLongDescriptionConstant  = "plan resolves the solution manifest and the legacy project, then prints the projects, moves, references and packages a migration would apply. No file is modified and no external tool is run."
	planProjectsHeaderConstant          = "Projects:"
	planMovesHeaderConstant             = "Moves:"
	planEdgesHeaderConstant             = "References:"
	planPackagesHeaderConstant          = "Packages:"
	planNameColumnConstant              = "NAME"
	planKindColumnConstant              = "KIND"
	planPathColumnConstant              = "PATH"
	planLayerColumnConstant             = "LAYER"
	planSourceColumnConstant            = "SOURCE"
	planDestinationColumnConstant       = "DESTINATION"
	planTypeColumnConstant              = "TYPE"
	planFromColumnConstant              = "FROM"
	planToColumnConstant                = "TO"
	planProjectColumnConstant           = "PROJECT"
	planPackageColumnConstant           = "PACKAGE"
	planFileTypeConstant                = "file"
	planDirectoryTypeConstant           = "directory"
	planStripTypeConstant               = "remove placeholder"
	planReplaceSuffixConstant           = ", replaces placeholder"
	planSummaryTemplateConstant         = "Solution %s (manifest %s, legacy project %s)\n"
	planDiscoveryFailedTemplateConstant = "unable to resolve migration inputs: %s"
	planBuildFailedTemplateConstant     = "unable to build migration plan: %w"
	logMessagePlanRenderedConstant      = "Migration plan rendered"
)

// PlanCommandBuilder assembles the plan Cobra command.
type PlanCommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
	WorkingDirectory      string
	FileSystem            filesystem.FileSystem
}

// Build constructs the plan command.
func (builder *PlanCommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:           planCommandUseConstant,
		Short:         planCommandShortDescriptionConstant,
		Long:          planCommandLongDescriptionConstant,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          builder.run,
	}
	registerMigrationFlags(command, builder.resolveConfiguration())
	return command, nil
}

func (builder *PlanCommandBuilder) run(command *cobra.Command, arguments []string) error {
	options, optionsError := resolveCommandOptions(command, arguments, builder.resolveConfiguration(), builder.WorkingDirectory)
	if optionsError != nil {
		return optionsError
	}
	logger := resolveLogger(builder.LoggerProvider)

	fileSystem := builder.FileSystem
	if fileSystem == nil {
		fileSystem = filesystem.NewOSFileSystem()
	}

	prober := NewEnvironmentProber(fileSystem, nil, nil, options.buildToolName, options.vcsToolName, logger)
	probeInputs := ProbeInputs{SolutionRoot: options.solutionRoot, ManifestName: options.manifestName, LegacyProjectName: options.legacyProjectName}
	manifestName, manifestResult := prober.locateManifest(probeInputs)
	if manifestResult.Outcome == OutcomeFatal {
		return fmt.Errorf(planDiscoveryFailedTemplateConstant, manifestResult.Detail)
	}
	if manifestResult.Outcome == OutcomeWarning {
		logger.Warn(manifestResult.Detail)
	}

	legacyProjectName := options.legacyProjectName
	if len(legacyProjectName) == 0 {
		legacyProjectName = strings.TrimSuffix(manifestName, filepath.Ext(manifestName))
	}
	if legacyResult := prober.checkLegacyProject(options.solutionRoot, legacyProjectName); legacyResult.Outcome == OutcomeFatal {
		return fmt.Errorf(planDiscoveryFailedTemplateConstant, legacyResult.Detail)
	}

	plan, planError := BuildPlan(PlanInputs{
		SolutionRoot:      options.solutionRoot,
		LegacyProjectName: legacyProjectName,
		RootNamespace:     options.rootNamespace,
		ManifestPath:      manifestName,
	})
	if planError == nil {
		planError = ValidatePlan(plan)
	}
	if planError != nil {
		return fmt.Errorf(planBuildFailedTemplateConstant, planError)
	}

	logger.Debug(logMessagePlanRenderedConstant, zap.String(logFieldSolutionRootConstant, plan.SolutionRoot))
	return RenderPlan(command.OutOrStdout(), plan)
}

func (builder *PlanCommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

// RenderPlan prints the plan as tables in execution order.
func RenderPlan(writer io.Writer, plan *MigrationPlan) error {
	if _, writeError := fmt.Fprintf(writer, planSummaryTemplateConstant, plan.SolutionRoot, plan.ManifestPath, plan.LegacyProject.Name); writeError != nil {
		return writeError
	}

	projectRows := make([][]string, 0, len(plan.Projects))
	for _, project := range plan.Projects {
		projectRows = append(projectRows, []string{project.Name, project.Kind, project.Path, string(project.Layer)})
	}
	moveRows := make([][]string, 0, len(plan.Moves))
	for _, move := range plan.Moves {
		moveRows = append(moveRows, []string{move.Source, move.Destination, describeMove(move)})
	}
	edgeRows := make([][]string, 0, len(plan.Edges))
	for _, edge := range plan.Edges {
		edgeRows = append(edgeRows, []string{edge.From, edge.To})
	}
	packageRows := make([][]string, 0, len(plan.Packages))
	for _, packageSpec := range plan.Packages {
		packageRows = append(packageRows, []string{packageSpec.Project, packageSpec.Identifier})
	}

	sections := []struct {
		title  string
		header []string
		rows   [][]string
	}{
		{title: planProjectsHeaderConstant, header: []string{planNameColumnConstant, planKindColumnConstant, planPathColumnConstant, planLayerColumnConstant}, rows: projectRows},
		{title: planMovesHeaderConstant, header: []string{planSourceColumnConstant, planDestinationColumnConstant, planTypeColumnConstant}, rows: moveRows},
		{title: planEdgesHeaderConstant, header: []string{planFromColumnConstant, planToColumnConstant}, rows: edgeRows},
		{title: planPackagesHeaderConstant, header: []string{planProjectColumnConstant, planPackageColumnConstant}, rows: packageRows},
	}
	for _, section := range sections {
		if _, writeError := fmt.Fprintln(writer, section.title); writeError != nil {
			return writeError
		}
		if tableError := ui.WriteTable(writer, section.header, section.rows); tableError != nil {
			return tableError
		}
	}
	return nil
}

func describeMove(move FileMoveOperation) string {
	if move.IsStripOnly() {
		return planStripTypeConstant
	}
	moveType := planFileTypeConstant
	if move.IsDirectory {
		moveType = planDirectoryTypeConstant
	}
	if move.StripDemoArtifact {
		moveType += planReplaceSuffixConstant
	}
	return moveType
}
