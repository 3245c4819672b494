package cmd

import (
	"fmt"
	"os"

	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"previewd/pkg/logutil"
	"previewd/pkg/scan"
	"previewd/pkg/staticserve"
	"previewd/pkg/util"
	"previewd/pkg/watcher"
)

var serveCmd = &cobra.Command{
	Use:   "serve [DIR]",
	Short: "Serve a directory with the inline static server",
	Long: `Serve a known-static directory over the inline file server, skipping the
scanner and dev-command launch entirely. File changes under the root print a
fresh cache-busted URL.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runServeCommand,
}

func runServeCommand(cmd *cobra.Command, args []string) {
	logutil.Init(verbose)

	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}

	cfg := loadConfigOrExit()
	interactive := !jsonOutput && isTerminal()

	srv, w, url, err := startStaticPreview(dir, func(busted string) {
		if interactive {
			fmt.Println(tipMsgStyle.Render("Changed: " + busted))
		} else {
			fmt.Println(busted)
		}
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer srv.Stop()
	defer w.Stop()

	if interactive {
		fmt.Printf("%s\n", endingMsgStyle.Render("Serving "+dir+" at "+url))
	} else {
		fmt.Printf("%s\n", url)
	}
	if cfg.Browser == "system" {
		_ = browser.OpenURL(url)
	}

	waitForShutdown()
}

// startStaticPreview starts the inline static server for dir, watching the
// root so onReload receives a cache-busted URL after each change burst.
func startStaticPreview(dir string, onReload func(url string)) (*staticserve.Server, *watcher.Watcher, string, error) {
	abs, err := util.ValidateProjectPath(dir)
	if err != nil {
		return nil, nil, "", err
	}

	entry, _ := scan.FindEntryHTML(abs)
	srv := staticserve.New(abs, entry)
	url, err := srv.Start()
	if err != nil {
		return nil, nil, "", err
	}

	w := watcher.New()
	if err := w.Watch(abs, func() { onReload(watcher.CacheBust(url)) }); err != nil {
		srv.Stop()
		return nil, nil, "", err
	}

	return srv, w, url, nil
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
