// Package state persists the last successfully previewed directory per
// workspace so later sessions can skip onboarding.
package state

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"previewd/pkg/config"
)

// Remembered is what a prior session decided for a workspace.
type Remembered struct {
	Directory string    `json:"directory"`
	ChosenAt  time.Time `json:"chosen_at"`
}

// WorkspaceKey derives a stable identifier for a set of scan roots. Order
// does not matter.
func WorkspaceKey(roots []string) string {
	sorted := append([]string(nil), roots...)
	sort.Strings(sorted)
	sum := sha256.Sum256([]byte(strings.Join(sorted, "\x00")))
	return hex.EncodeToString(sum[:])[:16]
}

func statePath(key string) string {
	return filepath.Join(config.GetConfigDir(), config.LocalStateDir, key+".json")
}

// Load returns the remembered choice for a workspace, or nil when none is
// stored or the file is unreadable.
func Load(key string) *Remembered {
	data, err := os.ReadFile(statePath(key))
	if err != nil {
		return nil
	}
	var r Remembered
	if err := json.Unmarshal(data, &r); err != nil || r.Directory == "" {
		return nil
	}
	return &r
}

// Save records the chosen directory for a workspace.
func Save(key, directory string) error {
	path := statePath(key)
	if err := os.MkdirAll(filepath.Dir(path), config.PermDirectory); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(Remembered{Directory: directory, ChosenAt: time.Now()}, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, config.PermStateFile)
}

// Clear removes the remembered choice for a workspace.
func Clear(key string) error {
	if err := os.Remove(statePath(key)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
