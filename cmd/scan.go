package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"previewd/pkg/scan"
)

var (
	scanTitleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#01FAC6")).Bold(true)
	scanLabelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	scanValueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	scanMutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	scanSignalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#40BDA3"))
)

// scanCmd lists ranked candidates without launching anything.
var scanCmd = &cobra.Command{
	Use:   "scan [ROOT_PATH...]",
	Short: "List candidate projects without starting a preview",
	Args:  cobra.ArbitraryArgs,
	Run:   runScan,
}

func runScan(cmd *cobra.Command, args []string) {
	roots, err := resolveRoots(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	scanner := scan.NewScanner()
	candidates := scanner.Scan(scan.Options{Roots: roots})

	if jsonOutput || !isTerminal() {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(candidates)
		return
	}

	if len(candidates) == 0 {
		fmt.Println(scanMutedStyle.Render("No candidate projects found."))
		return
	}

	fmt.Println(scanTitleStyle.Render("Candidate Projects:"))
	for i, c := range candidates {
		fmt.Printf("\n  %s %s\n", scanLabelStyle.Render(fmt.Sprintf("%d.", i+1)), scanValueStyle.Render(c.Directory))
		fmt.Printf("     Framework:  %s\n", scanValueStyle.Render(string(c.Framework)))
		fmt.Printf("     Confidence: %s\n", scanValueStyle.Render(fmt.Sprintf("%d", c.Confidence)))
		if c.DevCommand != "" {
			fmt.Printf("     Dev command: %s\n", scanValueStyle.Render(c.DevCommand))
		}
		if c.EntryHTML != "" {
			fmt.Printf("     Entry HTML: %s\n", scanValueStyle.Render(c.EntryHTML))
		}
		if len(c.Reasons) > 0 {
			fmt.Printf("     Signals:    %s\n", scanSignalStyle.Render(strings.Join(c.Reasons, ", ")))
		}
	}
	fmt.Println()
}
