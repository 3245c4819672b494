package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"previewd/pkg/config"
)

var (
	configStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#01FAC6")).Bold(true)
	configLabelStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true)
	configValueStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("170"))
	configMutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	configErrorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	configSuccessStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage previewd configuration",
	Long:  `Manage browser behavior, notifications, and the code-generation backend.`,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "Show the current configuration",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOrExit()

		if jsonOutput {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			_ = enc.Encode(cfg)
			return
		}

		fmt.Println(configStyle.Render("Previewd Configuration:"))
		fmt.Printf("  %s: %s\n", configLabelStyle.Render("Browser"), configValueStyle.Render(cfg.Browser))
		fmt.Printf("  %s: %s\n", configLabelStyle.Render("Notifications"), configValueStyle.Render(fmt.Sprintf("%t", cfg.Notifications)))
		if cfg.Backend.BaseURL == "" {
			fmt.Printf("  %s: %s\n", configLabelStyle.Render("Backend"), configMutedStyle.Render("not configured"))
		} else {
			fmt.Printf("  %s: %s\n", configLabelStyle.Render("Backend"), configValueStyle.Render(cfg.Backend.BaseURL))
			if cfg.Backend.Token != "" {
				fmt.Printf("  %s: %s\n", configLabelStyle.Render("Token"), configValueStyle.Render(maskToken(cfg.Backend.Token)))
			}
		}
		fmt.Println()
	},
}

var configSetBackendCmd = &cobra.Command{
	Use:   "set-backend <url> [token]",
	Short: "Set the code-generation backend URL and token",
	Long: `Set the backend service previewd forwards accepted placements to.

If token is not provided as an argument, you will be prompted to enter it securely.`,
	Args: cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOrExit()
		cfg.Backend.BaseURL = args[0]

		if len(args) == 2 {
			cfg.Backend.Token = args[1]
		} else {
			fmt.Print("Enter backend token (empty to keep current): ")
			tokenBytes, err := term.ReadPassword(int(syscall.Stdin))
			fmt.Println()
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s\n", configErrorStyle.Render(fmt.Sprintf("Error reading token: %v", err)))
				os.Exit(1)
			}
			if token := strings.TrimSpace(string(tokenBytes)); token != "" {
				cfg.Backend.Token = token
			}
		}

		saveConfigOrExit(cfg)
		fmt.Printf("%s\n", configSuccessStyle.Render("✓ Backend configuration saved"))
	},
}

var configSetBrowserCmd = &cobra.Command{
	Use:   "set-browser <system|none>",
	Short: "Control whether the preview URL opens in the system browser",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mode := strings.ToLower(args[0])
		if mode != "system" && mode != "none" {
			fmt.Fprintf(os.Stderr, "%s\n", configErrorStyle.Render("Browser mode must be 'system' or 'none'"))
			os.Exit(1)
		}

		cfg := loadConfigOrExit()
		cfg.Browser = mode
		saveConfigOrExit(cfg)
		fmt.Printf("%s\n", configSuccessStyle.Render(fmt.Sprintf("✓ Browser mode set to %s", mode)))
	},
}

var configSetNotificationsCmd = &cobra.Command{
	Use:   "set-notifications <on|off>",
	Short: "Toggle desktop notifications",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		var enabled bool
		switch strings.ToLower(args[0]) {
		case "on", "true":
			enabled = true
		case "off", "false":
			enabled = false
		default:
			fmt.Fprintf(os.Stderr, "%s\n", configErrorStyle.Render("Notifications must be 'on' or 'off'"))
			os.Exit(1)
		}

		cfg := loadConfigOrExit()
		cfg.Notifications = enabled
		saveConfigOrExit(cfg)
		fmt.Printf("%s\n", configSuccessStyle.Render(fmt.Sprintf("✓ Notifications %s", args[0])))
	},
}

func saveConfigOrExit(cfg *config.Config) {
	if err := config.SaveConfig(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", configErrorStyle.Render(fmt.Sprintf("Error saving config: %v", err)))
		os.Exit(1)
	}
}

func maskToken(token string) string {
	if len(token) < 10 {
		return "********"
	}
	return "****" + token[len(token)-4:]
}

func init() {
	rootCmd.AddCommand(configCmd)

	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configSetBackendCmd)
	configCmd.AddCommand(configSetBrowserCmd)
	configCmd.AddCommand(configSetNotificationsCmd)
}
