package pathutils

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

const (
	tildeSymbolConstant                  = "~"
	workingDirectoryRequiredMessageConst = "working directory is required to resolve relative paths"
)

// ErrWorkingDirectoryRequired indicates a relative path was supplied without a base directory.
var ErrWorkingDirectoryRequired = errors.New(workingDirectoryRequiredMessageConst)

// HomeDirectoryProvider resolves the current user's home directory path.
type HomeDirectoryProvider func() (string, error)

// RootResolver turns user-supplied directory arguments into absolute, cleaned paths.
type RootResolver struct {
	homeDirectoryProvider HomeDirectoryProvider
}

// NewRootResolver constructs a RootResolver using the operating system home lookup.
func NewRootResolver() RootResolver {
	return NewRootResolverWithProvider(os.UserHomeDir)
}

// NewRootResolverWithProvider constructs a RootResolver with a custom home directory provider.
func NewRootResolverWithProvider(provider HomeDirectoryProvider) RootResolver {
	if provider == nil {
		provider = os.UserHomeDir
	}
	return RootResolver{homeDirectoryProvider: provider}
}

// Resolve expands a leading tilde, anchors relative paths at workingDirectory and cleans the result.
// An empty candidate resolves to the working directory itself.
func (resolver RootResolver) Resolve(candidatePath string, workingDirectory string) (string, error) {
	trimmedCandidate := strings.TrimSpace(candidatePath)
	expandedCandidate, expansionError := resolver.expandHome(trimmedCandidate)
	if expansionError != nil {
		return "", expansionError
	}
	if filepath.IsAbs(expandedCandidate) {
		return filepath.Clean(expandedCandidate), nil
	}

	trimmedWorkingDirectory := strings.TrimSpace(workingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return "", ErrWorkingDirectoryRequired
	}
	return filepath.Abs(filepath.Join(trimmedWorkingDirectory, expandedCandidate))
}

func (resolver RootResolver) expandHome(candidatePath string) (string, error) {
	if candidatePath != tildeSymbolConstant &&
		!strings.HasPrefix(candidatePath, tildeSymbolConstant+"/") &&
		!strings.HasPrefix(candidatePath, tildeSymbolConstant+string(os.PathSeparator)) {
		return candidatePath, nil
	}
	homeDirectory, homeError := resolver.homeDirectoryProvider()
	if homeError != nil {
		return "", homeError
	}
	return filepath.Join(homeDirectory, strings.TrimPrefix(candidatePath, tildeSymbolConstant)), nil
}
