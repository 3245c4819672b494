package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"previewd/cmd/ui/chooser"
	"previewd/cmd/ui/spinner"
	"previewd/pkg/bridge"
	"previewd/pkg/logutil"
	"previewd/pkg/notify"
	"previewd/pkg/orchestrator"
	"previewd/pkg/scan"
)

const Version = "1.0.0"

var (
	jsonOutput      bool
	skipInteractive bool
	verbose         bool
	bridgeAddr      string

	logoStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#01FAC6")).Bold(true)
	tipMsgStyle    = lipgloss.NewStyle().PaddingLeft(1).Foreground(lipgloss.Color("190")).Italic(true)
	endingMsgStyle = lipgloss.NewStyle().PaddingLeft(1).Foreground(lipgloss.Color("170")).Bold(true)
)

const Logo = `
██████╗ ██████╗ ███████╗██╗   ██╗██╗███████╗██╗    ██╗██████╗
██╔══██╗██╔══██╗██╔════╝██║   ██║██║██╔════╝██║    ██║██╔══██╗
██████╔╝██████╔╝█████╗  ██║   ██║██║█████╗  ██║ █╗ ██║██║  ██║
██╔═══╝ ██╔══██╗██╔══╝  ╚██╗ ██╔╝██║██╔══╝  ██║███╗██║██║  ██║
██║     ██║  ██║███████╗ ╚████╔╝ ██║███████╗╚███╔███╔╝██████╔╝
╚═╝     ╚═╝  ╚═╝╚══════╝  ╚═══╝  ╚═╝╚══════╝ ╚══╝╚══╝ ╚═════╝
`

var rootCmd = &cobra.Command{
	Use:   "previewd [ROOT_PATH...]",
	Short: "Discover and preview frontend projects",
	Long: Logo + `
Previewd scans a workspace for runnable frontend projects, launches the best
candidate's dev server (or serves its files directly), and keeps a local
bridge open so editors and tools can follow the preview URL.`,
	Version: Version,
	Args:    cobra.ArbitraryArgs,
	Run:     runRootCommand,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runRootCommand(cmd *cobra.Command, args []string) {
	logutil.Init(verbose)

	roots, err := resolveRoots(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	cfg := loadConfigOrExit()
	interactive := !jsonOutput && !skipInteractive && isTerminal()

	hub := bridge.NewHub()
	orch := orchestrator.New(orchestrator.Options{
		Roots:    roots,
		Notifier: hub,
		Desktop:  notify.Notifier{Enabled: cfg.Notifications},
	})
	srv := bridge.NewServer(hub, orch)
	addr, err := srv.Start(bridgeAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error starting bridge: %v\n", err)
		os.Exit(1)
	}

	if interactive {
		fmt.Printf("%s\n", logoStyle.Render(Logo))
	}

	ctx := context.Background()
	startupWithSpinner(ctx, orch, interactive)

	if interactive && orch.Status().Phase == orchestrator.PhaseOnboarding {
		promptForCandidate(ctx, orch)
	}

	status := orch.Status()
	if status.Current != nil {
		if interactive {
			fmt.Printf("\n%s\n", endingMsgStyle.Render("Preview ready: "+status.Current.ExternalURL))
			fmt.Printf("%s\n", tipMsgStyle.Render("Bridge listening on "+addr))
		} else {
			fmt.Printf("%s\n", status.Current.ExternalURL)
		}
		if cfg.Browser == "system" {
			_ = browser.OpenURL(status.Current.ExternalURL)
		}
	} else if interactive {
		fmt.Printf("\n%s\n", tipMsgStyle.Render("No preview running. Bridge listening on "+addr))
	}

	waitForShutdown()
	srv.Stop()
	orch.Stop()
}

// startupWithSpinner runs the startup decision sequence, animating a spinner
// when attached to a terminal.
func startupWithSpinner(ctx context.Context, orch *orchestrator.Orchestrator, interactive bool) {
	if !interactive {
		orch.Startup(ctx)
		return
	}

	spinnerProgram := tea.NewProgram(spinner.New("Scanning for projects..."))
	go func() {
		if _, err := spinnerProgram.Run(); err != nil {
			if err.Error() != "program was killed" {
				fmt.Fprintf(os.Stderr, "Error running spinner: %v\n", err)
			}
		}
	}()

	orch.Startup(ctx)
	spinnerProgram.Quit()
	spinnerProgram.Wait()
}

// promptForCandidate shows the interactive picker and launches the choice.
func promptForCandidate(ctx context.Context, orch *orchestrator.Orchestrator) {
	candidates := orch.Candidates()
	if len(candidates) == 0 {
		fmt.Println(tipMsgStyle.Render("No candidate projects found under the given roots."))
		return
	}

	items := make([]chooser.Item, 0, len(candidates))
	for _, c := range candidates {
		items = append(items, chooser.Item{
			Title: c.Directory,
			Desc:  describeCandidate(&c),
		})
	}

	dir, err := chooser.ShowMenu(items, "Pick a project to preview")
	if err != nil {
		fmt.Println(tipMsgStyle.Render("No project selected."))
		return
	}

	if err := orch.Choose(ctx, dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error launching preview: %v\n", err)
	}
}

func describeCandidate(c *scan.Candidate) string {
	desc := fmt.Sprintf("%s, confidence %d", c.Framework, c.Confidence)
	if c.DevCommand != "" {
		desc += ", " + c.DevCommand
	}
	return desc
}

func waitForShutdown() {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
}

func init() {
	rootCmd.SetVersionTemplate("previewd version {{.Version}}\n")

	rootCmd.AddCommand(scanCmd)

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output results as JSON (disables interactive mode)")
	rootCmd.PersistentFlags().BoolVar(&skipInteractive, "no-interactive", false, "Skip interactive prompts (for CI/automation)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")
	rootCmd.Flags().StringVar(&bridgeAddr, "bridge-addr", "", "Bridge listen address (default 127.0.0.1:0)")
}
