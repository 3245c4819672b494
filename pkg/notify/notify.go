// Package notify sends desktop notifications for preview lifecycle events.
package notify

import (
	"github.com/gen2brain/beeep"

	"previewd/pkg/logutil"
)

const appTitle = "previewd"

// Notifier sends desktop notifications when enabled. The zero value is a
// disabled notifier.
type Notifier struct {
	Enabled bool
}

// Ready announces a successfully started preview.
func (n Notifier) Ready(project, url string) {
	n.send("Preview ready", project+" at "+url)
}

// Failed announces a launch failure.
func (n Notifier) Failed(reason string) {
	n.send("Preview failed", reason)
}

func (n Notifier) send(title, body string) {
	if !n.Enabled {
		return
	}
	if err := beeep.Notify(appTitle+": "+title, body, ""); err != nil {
		logutil.NewLogger("notify").Debug("notification failed", "error", err)
	}
}
