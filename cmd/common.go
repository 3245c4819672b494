package cmd

import (
	"fmt"
	"os"

	"golang.org/x/term"

	"previewd/pkg/config"
	"previewd/pkg/util"
)

// loadConfigOrExit loads the configuration and exits with an error message if it fails
func loadConfigOrExit() *config.Config {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}

// resolveRoots validates the root path arguments, defaulting to the current
// directory when none are given.
func resolveRoots(args []string) ([]string, error) {
	if len(args) == 0 {
		args = []string{"."}
	}
	roots := make([]string, 0, len(args))
	for _, arg := range args {
		path, err := util.ValidateProjectPath(arg)
		if err != nil {
			return nil, err
		}
		roots = append(roots, path)
	}
	return roots, nil
}

func isTerminal() bool {
	if os.Getenv("CI") != "" || os.Getenv("TERM") == "dumb" {
		return false
	}
	return term.IsTerminal(int(os.Stdout.Fd()))
}
