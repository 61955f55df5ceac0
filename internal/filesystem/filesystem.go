// Package filesystem isolates the file operations a migration performs so
// stages can be exercised against temporary trees.
package filesystem

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	jujuutils "github.com/juju/utils/v4"
	jujufs "github.com/juju/utils/v4/fs"
)

const (
	copyFileSourceIsDirectoryTemplate = "cannot copy %s as a file: it is a directory"
	copyTreeErrorTemplate             = "copy %s to %s: %w"
	atomicWriteErrorTemplate          = "write %s: %w"
)

// FileSystem exposes the file operations used by the migration stages.
type FileSystem interface {
	Stat(path string) (fs.FileInfo, error)
	Exists(path string) bool
	MkdirAll(path string, permissions fs.FileMode) error
	Remove(path string) error
	RemoveAll(path string) error
	Rename(sourcePath string, destinationPath string) error
	ReadFile(path string) ([]byte, error)
	WriteFileAtomic(path string, contents []byte, permissions fs.FileMode) error
	CopyFile(sourcePath string, destinationPath string) error
	CopyTree(sourcePath string, destinationPath string) error
	WalkDir(root string, walkFunction fs.WalkDirFunc) error
	Glob(pattern string) ([]string, error)
}

// OSFileSystem implements FileSystem against the host operating system.
type OSFileSystem struct{}

// NewOSFileSystem constructs an OSFileSystem.
func NewOSFileSystem() OSFileSystem {
	return OSFileSystem{}
}

// Stat delegates to os.Stat.
func (OSFileSystem) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// Exists reports whether anything is present at path.
func (OSFileSystem) Exists(path string) bool {
	_, statError := os.Lstat(path)
	return statError == nil
}

// MkdirAll delegates to os.MkdirAll.
func (OSFileSystem) MkdirAll(path string, permissions fs.FileMode) error {
	return os.MkdirAll(path, permissions)
}

// Remove deletes a file or an empty directory.
func (OSFileSystem) Remove(path string) error {
	return os.Remove(path)
}

// RemoveAll deletes path and everything beneath it.
func (OSFileSystem) RemoveAll(path string) error {
	return os.RemoveAll(path)
}

// Rename delegates to os.Rename.
func (OSFileSystem) Rename(sourcePath string, destinationPath string) error {
	return os.Rename(sourcePath, destinationPath)
}

// ReadFile delegates to os.ReadFile.
func (OSFileSystem) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// WriteFileAtomic replaces path with contents through a temporary file and rename,
// so readers observe either the old or the new contents.
func (OSFileSystem) WriteFileAtomic(path string, contents []byte, permissions fs.FileMode) error {
	if writeError := jujuutils.AtomicWriteFile(path, contents, permissions); writeError != nil {
		return fmt.Errorf(atomicWriteErrorTemplate, path, writeError)
	}
	return nil
}

// CopyFile copies a regular file, preserving its permission bits.
func (fileSystem OSFileSystem) CopyFile(sourcePath string, destinationPath string) error {
	sourceInfo, statError := os.Stat(sourcePath)
	if statError != nil {
		return statError
	}
	if sourceInfo.IsDir() {
		return fmt.Errorf(copyFileSourceIsDirectoryTemplate, sourcePath)
	}
	contents, readError := os.ReadFile(sourcePath)
	if readError != nil {
		return readError
	}
	return fileSystem.WriteFileAtomic(destinationPath, contents, sourceInfo.Mode().Perm())
}

// CopyTree recursively copies sourcePath to destinationPath, which must not exist.
// Symbolic links are copied as links.
func (OSFileSystem) CopyTree(sourcePath string, destinationPath string) error {
	if copyError := jujufs.Copy(sourcePath, destinationPath); copyError != nil {
		return fmt.Errorf(copyTreeErrorTemplate, sourcePath, destinationPath, copyError)
	}
	return nil
}

// WalkDir delegates to filepath.WalkDir.
func (OSFileSystem) WalkDir(root string, walkFunction fs.WalkDirFunc) error {
	return filepath.WalkDir(root, walkFunction)
}

// Glob delegates to filepath.Glob.
func (OSFileSystem) Glob(pattern string) ([]string, error) {
	return filepath.Glob(pattern)
}
