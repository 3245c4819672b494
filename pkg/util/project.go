package util

import (
	"fmt"
	"os"
	"path/filepath"
)

// ValidateProjectPath validates and cleans a scan root path
// Returns the cleaned absolute path or an error
func ValidateProjectPath(projectPath string) (string, error) {
	projectPath = filepath.Clean(projectPath)

	info, err := os.Stat(projectPath)
	if err != nil {
		return "", fmt.Errorf("cannot access path '%s': %w", projectPath, err)
	}

	if !info.IsDir() {
		return "", fmt.Errorf("path '%s' is not a directory", projectPath)
	}

	absPath, err := filepath.Abs(projectPath)
	if err != nil {
		return projectPath, nil // Return cleaned path if we can't get absolute
	}

	return absPath, nil
}

// DisplayName derives a short human-readable project name from a directory
// path, used in notifications and pickers.
func DisplayName(dir string) string {
	name := filepath.Base(filepath.Clean(dir))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "project"
	}
	return name
}
