package migration

import (
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

const (
	projectFileExtensionConstant          = ".csproj"
	sourceDirectoryConstant               = "src"
	testsDirectoryConstant                = "tests"
	apiSuffixConstant                     = ".Api"
	applicationSuffixConstant             = ".Application"
	domainSuffixConstant                  = ".Domain"
	infrastructureSuffixConstant          = ".Infrastructure"
	testsSuffixConstant                   = ".Tests"
	webAPIKindConstant                    = "webapi"
	classLibraryKindConstant              = "classlib"
	testProjectKindConstant               = "xunit"
	programFileConstant                   = "Program.cs"
	settingsFileConstant                  = "appsettings.json"
	developmentSettingsFileConstant       = "appsettings.Development.json"
	controllersDirectoryConstant          = "Controllers"
	propertiesDirectoryConstant           = "Properties"
	demoModelFileConstant                 = "WeatherForecast.cs"
	entityFrameworkPackageConstant        = "Microsoft.EntityFrameworkCore"
	entityFrameworkDesignPackageConstant  = "Microsoft.EntityFrameworkCore.Design"
	webApplicationTestingPackageConstant  = "Microsoft.AspNetCore.Mvc.Testing"
	mockingPackageConstant                = "Moq"
	solutionRootFieldNameConstant         = "solution_root"
	legacyProjectFieldNameConstant        = "legacy_project"
	rootNamespaceFieldNameConstant        = "root_namespace"
	identifierMessageConstant             = "must be a non-empty identifier without path separators or whitespace"
	requiredValueMessageConstant          = "value required"
	planInvalidInputTemplateConstant      = "%s: %s"
	duplicateProjectTemplateConstant      = "duplicate project %q"
	emptyProjectNameMessageConstant       = "project with empty name"
	undeclaredEdgeTemplateConstant        = "edge %s -> %s references undeclared project %q"
	selfEdgeTemplateConstant              = "edge %s -> %s references itself"
	duplicateEdgeTemplateConstant         = "duplicate edge %s -> %s"
	cyclicEdgesTemplateConstant           = "edges form a cycle through %s"
	edgeOrderTemplateConstant             = "edge %s -> %s is wired before the references of %s"
	undeclaredPackageTemplateConstant     = "package %s targets undeclared project %q"
	duplicateDestinationTemplateConstant  = "duplicate destination %q"
	emptyDestinationMessageConstant       = "move with empty destination"
	identifierForbiddenCharactersConstant = "/\\ \t\r\n"
)

// ErrInvalidPlan wraps every ValidatePlan failure.
var ErrInvalidPlan = errors.New("invalid migration plan")

// Layer names the architectural layer a project belongs to.
type Layer string

// Layers of the target layout.
const (
	LayerAPI            Layer = "api"
	LayerApplication    Layer = "application"
	LayerDomain         Layer = "domain"
	LayerInfrastructure Layer = "infrastructure"
	LayerTest           Layer = "test"
)

// ProjectSpec describes one project of the target layout. Name is its identity.
type ProjectSpec struct {
	Name  string
	Kind  string
	Path  string
	Layer Layer
}

// ProjectFile returns the project file path relative to the solution root.
func (project ProjectSpec) ProjectFile() string {
	return path.Join(project.Path, project.Name+projectFileExtensionConstant)
}

// FileMoveOperation relocates one file or directory. An empty Source marks a strip-only
// operation that deletes the template placeholder at Destination.
type FileMoveOperation struct {
	Source            string
	Destination       string
	IsDirectory       bool
	StripDemoArtifact bool
}

// IsStripOnly reports whether the operation only removes a placeholder.
func (operation FileMoveOperation) IsStripOnly() bool {
	return len(operation.Source) == 0
}

// ReferenceEdge declares that From references To.
type ReferenceEdge struct {
	From string
	To   string
}

// PackageSpec installs a package into a project after wiring.
type PackageSpec struct {
	Project    string
	Identifier string
}

// MigrationPlan is built once and read-only afterwards. All paths are slash-separated and
// relative to SolutionRoot.
type MigrationPlan struct {
	SolutionRoot  string
	ManifestPath  string
	RootNamespace string
	LegacyProject ProjectSpec
	Projects      []ProjectSpec
	Moves         []FileMoveOperation
	Edges         []ReferenceEdge
	Packages      []PackageSpec
}

// Resolve converts a plan-relative path into a path on disk.
func (plan *MigrationPlan) Resolve(relativePath string) string {
	if len(relativePath) == 0 {
		return plan.SolutionRoot
	}
	return filepath.Join(plan.SolutionRoot, filepath.FromSlash(relativePath))
}

// Project looks up a project by name.
func (plan *MigrationPlan) Project(name string) (ProjectSpec, bool) {
	for _, project := range plan.Projects {
		if project.Name == name {
			return project, true
		}
	}
	return ProjectSpec{}, false
}

// ProjectForLayer returns the first project declared for the layer.
func (plan *MigrationPlan) ProjectForLayer(layer Layer) (ProjectSpec, bool) {
	for _, project := range plan.Projects {
		if project.Layer == layer {
			return project, true
		}
	}
	return ProjectSpec{}, false
}

// PlanInputs are the values the Plan Builder depends on.
type PlanInputs struct {
	SolutionRoot      string
	LegacyProjectName string
	RootNamespace     string
	ManifestPath      string
}

// PlanInputError reports an unusable plan input.
type PlanInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError PlanInputError) Error() string {
	return fmt.Sprintf(planInvalidInputTemplateConstant, inputError.FieldName, inputError.Message)
}

// BuildPlan produces the fixed layered layout for a legacy project. It does not touch disk.
func BuildPlan(inputs PlanInputs) (*MigrationPlan, error) {
	solutionRoot := strings.TrimSpace(inputs.SolutionRoot)
	if len(solutionRoot) == 0 {
		return nil, PlanInputError{FieldName: solutionRootFieldNameConstant, Message: requiredValueMessageConstant}
	}

	legacyProjectName := strings.TrimSpace(inputs.LegacyProjectName)
	if !isPlainIdentifier(legacyProjectName) {
		return nil, PlanInputError{FieldName: legacyProjectFieldNameConstant, Message: identifierMessageConstant}
	}

	rootNamespace := strings.TrimSpace(inputs.RootNamespace)
	if len(rootNamespace) == 0 {
		rootNamespace = legacyProjectName
	}
	if !isPlainIdentifier(rootNamespace) {
		return nil, PlanInputError{FieldName: rootNamespaceFieldNameConstant, Message: identifierMessageConstant}
	}

	apiProject := ProjectSpec{Name: rootNamespace + apiSuffixConstant, Kind: webAPIKindConstant, Layer: LayerAPI}
	applicationProject := ProjectSpec{Name: rootNamespace + applicationSuffixConstant, Kind: classLibraryKindConstant, Layer: LayerApplication}
	domainProject := ProjectSpec{Name: rootNamespace + domainSuffixConstant, Kind: classLibraryKindConstant, Layer: LayerDomain}
	infrastructureProject := ProjectSpec{Name: rootNamespace + infrastructureSuffixConstant, Kind: classLibraryKindConstant, Layer: LayerInfrastructure}
	testProject := ProjectSpec{Name: rootNamespace + testsSuffixConstant, Kind: testProjectKindConstant, Layer: LayerTest}

	apiProject.Path = path.Join(sourceDirectoryConstant, apiProject.Name)
	applicationProject.Path = path.Join(sourceDirectoryConstant, applicationProject.Name)
	domainProject.Path = path.Join(sourceDirectoryConstant, domainProject.Name)
	infrastructureProject.Path = path.Join(sourceDirectoryConstant, infrastructureProject.Name)
	testProject.Path = path.Join(testsDirectoryConstant, testProject.Name)

	legacyProject := ProjectSpec{Name: legacyProjectName, Kind: webAPIKindConstant, Path: legacyProjectName, Layer: LayerAPI}

	plan := &MigrationPlan{
		SolutionRoot:  filepath.Clean(solutionRoot),
		ManifestPath:  strings.TrimSpace(inputs.ManifestPath),
		RootNamespace: rootNamespace,
		LegacyProject: legacyProject,
		Projects:      []ProjectSpec{apiProject, applicationProject, domainProject, infrastructureProject, testProject},
		Edges: []ReferenceEdge{
			{From: applicationProject.Name, To: domainProject.Name},
			{From: infrastructureProject.Name, To: domainProject.Name},
			{From: infrastructureProject.Name, To: applicationProject.Name},
			{From: apiProject.Name, To: applicationProject.Name},
		},
		Packages: []PackageSpec{
			{Project: infrastructureProject.Name, Identifier: entityFrameworkPackageConstant},
			{Project: infrastructureProject.Name, Identifier: entityFrameworkDesignPackageConstant},
			{Project: testProject.Name, Identifier: webApplicationTestingPackageConstant},
			{Project: testProject.Name, Identifier: mockingPackageConstant},
		},
	}

	for _, fileName := range []string{programFileConstant, settingsFileConstant, developmentSettingsFileConstant} {
		plan.Moves = append(plan.Moves, FileMoveOperation{
			Source:            path.Join(legacyProject.Path, fileName),
			Destination:       path.Join(apiProject.Path, fileName),
			StripDemoArtifact: true,
		})
	}
	for _, directoryName := range []string{controllersDirectoryConstant, propertiesDirectoryConstant} {
		plan.Moves = append(plan.Moves, FileMoveOperation{
			Source:            path.Join(legacyProject.Path, directoryName),
			Destination:       path.Join(apiProject.Path, directoryName),
			IsDirectory:       true,
			StripDemoArtifact: true,
		})
	}
	plan.Moves = append(plan.Moves, FileMoveOperation{
		Destination:       path.Join(apiProject.Path, demoModelFileConstant),
		StripDemoArtifact: true,
	})

	return plan, nil
}

// ValidatePlan checks name uniqueness, edge endpoints, package targets and destinations. The edge
// list must be acyclic and ordered so that every edge follows the edges of its target project.
// Every failure wraps ErrInvalidPlan.
func ValidatePlan(plan *MigrationPlan) error {
	declaredProjects := make(map[string]struct{}, len(plan.Projects))
	for _, project := range plan.Projects {
		if len(project.Name) == 0 {
			return fmt.Errorf("%w: %s", ErrInvalidPlan, emptyProjectNameMessageConstant)
		}
		if _, duplicate := declaredProjects[project.Name]; duplicate {
			return fmt.Errorf("%w: "+duplicateProjectTemplateConstant, ErrInvalidPlan, project.Name)
		}
		declaredProjects[project.Name] = struct{}{}
	}

	seenEdges := make(map[ReferenceEdge]struct{}, len(plan.Edges))
	dependencies := make(map[string][]string, len(plan.Edges))
	for _, edge := range plan.Edges {
		for _, endpoint := range []string{edge.From, edge.To} {
			if _, declared := declaredProjects[endpoint]; !declared {
				return fmt.Errorf("%w: "+undeclaredEdgeTemplateConstant, ErrInvalidPlan, edge.From, edge.To, endpoint)
			}
		}
		if edge.From == edge.To {
			return fmt.Errorf("%w: "+selfEdgeTemplateConstant, ErrInvalidPlan, edge.From, edge.To)
		}
		if _, duplicate := seenEdges[edge]; duplicate {
			return fmt.Errorf("%w: "+duplicateEdgeTemplateConstant, ErrInvalidPlan, edge.From, edge.To)
		}
		seenEdges[edge] = struct{}{}
		dependencies[edge.From] = append(dependencies[edge.From], edge.To)
	}

	if cycleMember, hasCycle := findCycle(plan.Projects, dependencies); hasCycle {
		return fmt.Errorf("%w: "+cyclicEdgesTemplateConstant, ErrInvalidPlan, cycleMember)
	}

	lastOutgoingEdge := make(map[string]int, len(plan.Edges))
	for edgeIndex, edge := range plan.Edges {
		lastOutgoingEdge[edge.From] = edgeIndex
	}
	for edgeIndex, edge := range plan.Edges {
		if targetIndex, hasReferences := lastOutgoingEdge[edge.To]; hasReferences && targetIndex > edgeIndex {
			return fmt.Errorf("%w: "+edgeOrderTemplateConstant, ErrInvalidPlan, edge.From, edge.To, edge.To)
		}
	}

	for _, packageSpec := range plan.Packages {
		if _, declared := declaredProjects[packageSpec.Project]; !declared {
			return fmt.Errorf("%w: "+undeclaredPackageTemplateConstant, ErrInvalidPlan, packageSpec.Identifier, packageSpec.Project)
		}
	}

	seenDestinations := make(map[string]struct{}, len(plan.Moves))
	for _, operation := range plan.Moves {
		if len(operation.Destination) == 0 {
			return fmt.Errorf("%w: %s", ErrInvalidPlan, emptyDestinationMessageConstant)
		}
		if _, duplicate := seenDestinations[operation.Destination]; duplicate {
			return fmt.Errorf("%w: "+duplicateDestinationTemplateConstant, ErrInvalidPlan, operation.Destination)
		}
		seenDestinations[operation.Destination] = struct{}{}
	}
	return nil
}

const (
	visitStateUnvisited = iota
	visitStateActive
	visitStateDone
)

func findCycle(projects []ProjectSpec, dependencies map[string][]string) (string, bool) {
	visitStates := make(map[string]int, len(projects))
	var visit func(name string) (string, bool)
	visit = func(name string) (string, bool) {
		switch visitStates[name] {
		case visitStateActive:
			return name, true
		case visitStateDone:
			return "", false
		}
		visitStates[name] = visitStateActive
		for _, dependency := range dependencies[name] {
			if cycleMember, hasCycle := visit(dependency); hasCycle {
				return cycleMember, true
			}
		}
		visitStates[name] = visitStateDone
		return "", false
	}

	for _, project := range projects {
		if cycleMember, hasCycle := visit(project.Name); hasCycle {
			return cycleMember, true
		}
	}
	return "", false
}

func isPlainIdentifier(candidate string) bool {
	if len(candidate) == 0 {
		return false
	}
	if strings.ContainsAny(candidate, identifierForbiddenCharactersConstant) {
		return false
	}
	return candidate != "." && candidate != ".."
}
