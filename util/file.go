package util

import (
	"os"
	"path/filepath"

	homedir "github.com/mitchellh/go-homedir"

	"github.com/worklift/worklift/internal/errors"
)

// FileExists returns true if the given path exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// IsFile returns true if the path exists and is a file.
func IsFile(path string) bool {
	fileInfo, err := os.Stat(path)
	return err == nil && !fileInfo.IsDir()
}

// IsDir returns true if the path exists and is a directory.
func IsDir(path string) bool {
	fileInfo, err := os.Stat(path)
	return err == nil && fileInfo.IsDir()
}

// EnsureDirectory creates a directory at this path if it does not exist, or errors if the path exists and is a file.
func EnsureDirectory(path string) error {
	if FileExists(path) && IsFile(path) {
		return errors.Errorf("path %s is a file, expected a directory", path)
	} else if !FileExists(path) {
		return errors.New(os.MkdirAll(path, 0700))
	}

	return nil
}

// ExpandPath returns an absolute version of the given path with a leading `~`
// expanded to the current user home directory.
func ExpandPath(path string) (string, error) {
	expanded, err := homedir.Expand(path)
	if err != nil {
		return "", errors.New(err)
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", errors.New(err)
	}

	return filepath.Clean(absPath), nil
}
