package migration

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/layerize/internal/filesystem"
)

const (
	declarationPatternPrefixConstant     = `\b(namespace|using)(\s+)(static\s+)?`
	wordBoundaryPatternConstant          = `\b`
	rewriteSummaryOperationConstant      = "namespaces"
	rewriteChangedTemplateConstant       = "Rewrote namespaces in %s"
	rewriteSummaryTemplateConstant       = "Rewrote %d file(s) under %s"
	rewriteNothingTemplateConstant       = "No namespace references to rewrite under %s"
	rewriteSameNameTemplateConstant      = "Namespace %s is unchanged; nothing to rewrite"
	rewriteMissingNamesMessageConstant   = "Namespace rewrite skipped: old and new names are required"
	rewriteTargetMissingTemplateConstant = "Rewrite target %s does not exist"
	rewriteReadFailedTemplateConstant    = "Unable to read %s: %v"
	rewriteWriteFailedTemplateConstant   = "Unable to write %s: %v"
	rewriteWalkFailedTemplateConstant    = "Unable to walk %s: %v"
	rewriteCancelledTemplateConstant     = "Rewrite cancelled: %v"
	logMessageRewriteCompletedConstant   = "Namespace rewrite completed"
	logFieldChangedFilesConstant         = "changed_files"
	logFieldTargetConstant               = "target"
	defaultRewriteFileModeConstant       = 0o644
)

var (
	defaultRewriteExtensions  = []string{".cs", ".cshtml", ".razor"}
	skippedRewriteDirectories = map[string]struct{}{"bin": {}, "obj": {}, ".git": {}}
)

// RewriteOutcome is what the TextRewriter returns.
type RewriteOutcome struct {
	Results      []StageResult
	ChangedFiles []string
}

// TextRewriter rewrites namespace and using declarations in relocated sources.
type TextRewriter struct {
	fileSystem filesystem.FileSystem
	extensions map[string]struct{}
	logger     *zap.Logger
}

// NewTextRewriter constructs a TextRewriter. Empty extensions select .cs, .cshtml and .razor.
func NewTextRewriter(fileSystem filesystem.FileSystem, extensions []string, logger *zap.Logger) *TextRewriter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(extensions) == 0 {
		extensions = defaultRewriteExtensions
	}
	extensionSet := make(map[string]struct{}, len(extensions))
	for _, extension := range extensions {
		extensionSet[strings.ToLower(extension)] = struct{}{}
	}
	return &TextRewriter{fileSystem: fileSystem, extensions: extensionSet, logger: logger}
}

// RewriteNamespaces replaces "namespace old" and "using old" with the new name in every
// matching file under targetDirectory. Files are only written when their content changes.
func (rewriter *TextRewriter) RewriteNamespaces(executionContext context.Context, targetDirectory string, oldName string, newName string) RewriteOutcome {
	outcome := RewriteOutcome{}

	oldName = strings.TrimSpace(oldName)
	newName = strings.TrimSpace(newName)
	if len(oldName) == 0 || len(newName) == 0 {
		outcome.Results = append(outcome.Results, warningResult(StageRewriting, rewriteSummaryOperationConstant, rewriteMissingNamesMessageConstant, ""))
		return outcome
	}
	if oldName == newName {
		outcome.Results = append(outcome.Results, successResult(StageRewriting, rewriteSummaryOperationConstant, fmt.Sprintf(rewriteSameNameTemplateConstant, oldName)))
		return outcome
	}

	targetInfo, statError := rewriter.fileSystem.Stat(targetDirectory)
	if statError != nil || !targetInfo.IsDir() {
		outcome.Results = append(outcome.Results, warningResult(StageRewriting, rewriteSummaryOperationConstant, fmt.Sprintf(rewriteTargetMissingTemplateConstant, targetDirectory), ""))
		return outcome
	}

	declarationPattern := compileDeclarationPattern(oldName)
	walkError := rewriter.fileSystem.WalkDir(targetDirectory, func(currentPath string, entry fs.DirEntry, entryError error) error {
		if entryError != nil {
			outcome.Results = append(outcome.Results, warningResult(StageRewriting, currentPath, fmt.Sprintf(rewriteReadFailedTemplateConstant, currentPath, entryError), ""))
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if contextError := executionContext.Err(); contextError != nil {
			return contextError
		}
		if entry.IsDir() {
			if _, skipped := skippedRewriteDirectories[entry.Name()]; skipped && currentPath != targetDirectory {
				return fs.SkipDir
			}
			return nil
		}
		if _, eligible := rewriter.extensions[strings.ToLower(filepath.Ext(currentPath))]; !eligible {
			return nil
		}

		changed, result := rewriter.rewriteFile(currentPath, entry, declarationPattern, newName)
		if result != nil {
			outcome.Results = append(outcome.Results, *result)
		}
		if changed {
			outcome.ChangedFiles = append(outcome.ChangedFiles, currentPath)
		}
		return nil
	})

	if walkError != nil {
		if contextError := executionContext.Err(); contextError != nil {
			outcome.Results = append(outcome.Results, fatalResult(StageRewriting, rewriteSummaryOperationConstant, fmt.Sprintf(rewriteCancelledTemplateConstant, contextError)))
			return outcome
		}
		outcome.Results = append(outcome.Results, warningResult(StageRewriting, rewriteSummaryOperationConstant, fmt.Sprintf(rewriteWalkFailedTemplateConstant, targetDirectory, walkError), ""))
	}

	if len(outcome.ChangedFiles) == 0 {
		outcome.Results = append(outcome.Results, successResult(StageRewriting, rewriteSummaryOperationConstant, fmt.Sprintf(rewriteNothingTemplateConstant, targetDirectory)))
	} else {
		outcome.Results = append(outcome.Results, successResult(StageRewriting, rewriteSummaryOperationConstant, fmt.Sprintf(rewriteSummaryTemplateConstant, len(outcome.ChangedFiles), targetDirectory)))
	}

	rewriter.logger.Debug(logMessageRewriteCompletedConstant, zap.String(logFieldTargetConstant, targetDirectory), zap.Int(logFieldChangedFilesConstant, len(outcome.ChangedFiles)))
	return outcome
}

func (rewriter *TextRewriter) rewriteFile(filePath string, entry fs.DirEntry, declarationPattern *regexp.Regexp, newName string) (bool, *StageResult) {
	originalContent, readError := rewriter.fileSystem.ReadFile(filePath)
	if readError != nil {
		result := warningResult(StageRewriting, filePath, fmt.Sprintf(rewriteReadFailedTemplateConstant, filePath, readError), "")
		return false, &result
	}

	rewrittenContent, replacements := rewriteDeclarations(string(originalContent), declarationPattern, newName)
	if replacements == 0 {
		return false, nil
	}

	fileMode := fs.FileMode(defaultRewriteFileModeConstant)
	if fileInfo, infoError := entry.Info(); infoError == nil {
		fileMode = fileInfo.Mode().Perm()
	}
	if writeError := rewriter.fileSystem.WriteFileAtomic(filePath, []byte(rewrittenContent), fileMode); writeError != nil {
		result := warningResult(StageRewriting, filePath, fmt.Sprintf(rewriteWriteFailedTemplateConstant, filePath, writeError), "")
		return false, &result
	}

	result := successResult(StageRewriting, filePath, fmt.Sprintf(rewriteChangedTemplateConstant, filePath))
	return true, &result
}

func compileDeclarationPattern(oldName string) *regexp.Regexp {
	return regexp.MustCompile(declarationPatternPrefixConstant + regexp.QuoteMeta(oldName) + wordBoundaryPatternConstant)
}

// rewriteDeclarations replaces the identifier captured at the end of each match. Matches whose
// identifier already reads as newName are left alone so repeated runs converge.
func rewriteDeclarations(content string, declarationPattern *regexp.Regexp, newName string) (string, int) {
	matchIndexes := declarationPattern.FindAllStringSubmatchIndex(content, -1)
	if len(matchIndexes) == 0 {
		return content, 0
	}

	var builder strings.Builder
	builder.Grow(len(content))
	replacements := 0
	previousEnd := 0
	for _, matchIndex := range matchIndexes {
		identifierStart := declarationIdentifierStart(matchIndex)
		if startsWithIdentifier(content[identifierStart:], newName) {
			continue
		}
		builder.WriteString(content[previousEnd:identifierStart])
		builder.WriteString(newName)
		previousEnd = matchIndex[1]
		replacements++
	}
	if replacements == 0 {
		return content, 0
	}
	builder.WriteString(content[previousEnd:])
	return builder.String(), replacements
}

// declarationIdentifierStart returns the offset right after the keyword, its whitespace and an
// optional "static" modifier.
func declarationIdentifierStart(matchIndex []int) int {
	identifierStart := matchIndex[5]
	if matchIndex[6] >= 0 {
		identifierStart = matchIndex[7]
	}
	return identifierStart
}

func startsWithIdentifier(text string, identifier string) bool {
	if !strings.HasPrefix(text, identifier) {
		return false
	}
	if len(text) == len(identifier) {
		return true
	}
	return !isIdentifierCharacter(text[len(identifier)])
}

func isIdentifierCharacter(character byte) bool {
	switch {
	case character >= 'a' && character <= 'z':
		return true
	case character >= 'A' && character <= 'Z':
		return true
	case character >= '0' && character <= '9':
		return true
	default:
		return character == '_'
	}
}
