// Package orchestrator ties the pipeline together: scan, pick, launch,
// watch, and notify. It owns the scanner, runner, watcher, and static-server
// singletons and drives every UI phase transition.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"previewd/pkg/config"
	"previewd/pkg/launch"
	"previewd/pkg/logutil"
	"previewd/pkg/metrics"
	"previewd/pkg/notify"
	"previewd/pkg/runner"
	"previewd/pkg/scan"
	"previewd/pkg/state"
	"previewd/pkg/staticserve"
	"previewd/pkg/util"
	"previewd/pkg/watcher"
)

// UIPhase is the client-visible state of the preview surface.
type UIPhase string

const (
	// PhaseDefault shows the running preview.
	PhaseDefault UIPhase = "default"

	// PhaseOnboarding prompts the user to pick or confirm a directory.
	PhaseOnboarding UIPhase = "onboarding"

	// PhaseLoading covers scanning and launch attempts.
	PhaseLoading UIPhase = "loading"
)

// Launch modes reported in status and metrics.
const (
	ModeDevServer    = "dev-server"
	ModeStaticTool   = "http-static-tool"
	ModeInlineStatic = "inline-static"
)

// Notifier receives pipeline events. Implementations must not block; the
// bridge hub fans these out to connected clients.
type Notifier interface {
	DevURL(url string)
	Phase(phase UIPhase)
	Error(message string)
}

// NopNotifier discards all events.
type NopNotifier struct{}

func (NopNotifier) DevURL(string) {}
func (NopNotifier) Phase(UIPhase) {}
func (NopNotifier) Error(string)  {}

// LaunchResult describes the currently presented preview.
type LaunchResult struct {
	Directory   string `json:"directory"`
	ExternalURL string `json:"external_url"`
	Mode        string `json:"mode"`

	// WatchRoot is set for modes that need the reload watcher; dev servers
	// bring their own HMR.
	WatchRoot string `json:"watch_root,omitempty"`
}

// Status is the snapshot served by the bridge /status endpoint.
type Status struct {
	Phase   UIPhase       `json:"phase"`
	Current *LaunchResult `json:"current,omitempty"`
}

// Options configures an Orchestrator.
type Options struct {
	Roots    []string
	Exclude  []string
	Notifier Notifier
	Desktop  notify.Notifier

	// Resolver forwards to the runner for port-forwarding setups.
	Resolver runner.ExternalURLResolver
}

// Orchestrator drives the preview lifecycle for one workspace.
type Orchestrator struct {
	roots        []string
	exclude      []string
	workspaceKey string

	scanner  *scan.Scanner
	runner   *runner.Runner
	watcher  *watcher.Watcher
	notifier Notifier
	desktop  notify.Notifier
	logger   *slog.Logger

	// reverifyTimeout bounds the background re-probe after a URL is posted.
	reverifyTimeout time.Duration

	mu          sync.Mutex
	phase       UIPhase
	current     *LaunchResult
	static      *staticserve.Server
	placeholder *staticserve.Placeholder
}

func New(opts Options) *Orchestrator {
	notifier := opts.Notifier
	if notifier == nil {
		notifier = NopNotifier{}
	}
	r := runner.New()
	r.Resolver = opts.Resolver
	return &Orchestrator{
		roots:           opts.Roots,
		exclude:         opts.Exclude,
		workspaceKey:    state.WorkspaceKey(opts.Roots),
		scanner:         scan.NewScanner(),
		runner:          r,
		watcher:         watcher.New(),
		notifier:        notifier,
		desktop:         opts.Desktop,
		logger:          logutil.NewLogger("orchestrator"),
		phase:           PhaseLoading,
		reverifyTimeout: config.DefaultReverifyTimeout,
	}
}

// Startup runs the session-start decision sequence: resume the remembered
// directory if it still qualifies, otherwise scan and either auto-start a
// clear winner or fall back to onboarding.
func (o *Orchestrator) Startup(ctx context.Context) {
	o.setPhase(PhaseLoading)

	if remembered := state.Load(o.workspaceKey); remembered != nil {
		if c := o.scanner.Rescore(remembered.Directory); c != nil && !c.Excluded() {
			o.logger.Debug("resuming remembered directory", "dir", remembered.Directory)
			if o.silentStart(ctx, c) == nil {
				return
			}
		}
		// The remembered directory no longer works; forget it so the next
		// session does not retry a dead choice.
		_ = state.Clear(o.workspaceKey)
	}

	candidates := o.Candidates()
	switch {
	case len(candidates) == 0:
		o.setPhase(PhaseOnboarding)
	case len(candidates) == 1 || candidates[0].Confidence >= config.AutoStartThreshold:
		if err := o.silentStart(ctx, &candidates[0]); err != nil {
			// Auto-start failures still need an explanation on the preview
			// surface, not just the onboarding transition.
			o.fail(err)
		}
	default:
		o.setPhase(PhaseOnboarding)
	}
}

// Candidates scans the workspace and returns the ranked list.
func (o *Orchestrator) Candidates() []scan.Candidate {
	return o.scanner.Scan(scan.Options{Roots: o.roots, Exclude: o.exclude})
}

// Choose launches an explicitly picked directory. A placeholder page is
// presented immediately so the preview surface reacts before the dev server
// finishes starting.
func (o *Orchestrator) Choose(ctx context.Context, dir string) error {
	c := o.scanner.Rescore(dir)
	if c == nil {
		c = &scan.Candidate{Directory: dir}
	}

	o.setPhase(PhaseLoading)
	o.showPlaceholder()

	result, err := o.launch(ctx, c)
	o.hidePlaceholder()
	if err != nil {
		o.fail(err)
		return err
	}

	o.present(result)
	if saveErr := state.Save(o.workspaceKey, dir); saveErr != nil {
		o.logger.Debug("failed to persist choice", "error", saveErr)
	}
	return nil
}

// silentStart launches a candidate without a placeholder; the caller decides
// whether the returned error is surfaced or absorbed by a fallback.
func (o *Orchestrator) silentStart(ctx context.Context, c *scan.Candidate) error {
	result, err := o.launch(ctx, c)
	if err != nil {
		o.logger.Debug("silent start failed", "dir", c.Directory, "error", err)
		return err
	}
	o.present(result)
	if saveErr := state.Save(o.workspaceKey, c.Directory); saveErr != nil {
		o.logger.Debug("failed to persist choice", "error", saveErr)
	}
	return nil
}

// launch attempts the candidate's selected command, then degrades to the
// inline static server when no command exists or the command launch fails
// while the directory is still servable as files.
func (o *Orchestrator) launch(ctx context.Context, c *scan.Candidate) (*LaunchResult, error) {
	o.teardownCurrent()

	cmd, ok := launch.Select(c)
	if ok {
		mode := ModeDevServer
		if strings.Contains(cmd.Source, "static file server") {
			mode = ModeStaticTool
		}

		handle, err := o.runner.Start(ctx, c.Directory, cmd.Command, scan.PortHints(c.Directory))
		if err == nil {
			metrics.LaunchesTotal.WithLabelValues(mode, "success").Inc()
			result := &LaunchResult{
				Directory:   c.Directory,
				ExternalURL: handle.ExternalURL,
				Mode:        mode,
			}
			if mode == ModeStaticTool {
				result.WatchRoot = c.Directory
			}
			return result, nil
		}

		metrics.LaunchesTotal.WithLabelValues(mode, "failure").Inc()
		o.logger.Debug("command launch failed", "command", cmd.Command, "error", err)
		if c.EntryHTML == "" {
			return nil, err
		}
		// Fall through to inline static serving.
	}

	if c.EntryHTML == "" && !hasServableHTML(c) {
		metrics.LaunchesTotal.WithLabelValues(ModeInlineStatic, "failure").Inc()
		return nil, errNotServable(c.Directory)
	}

	srv := staticserve.New(c.Directory, c.EntryHTML)
	url, err := srv.Start()
	if err != nil {
		metrics.LaunchesTotal.WithLabelValues(ModeInlineStatic, "failure").Inc()
		return nil, err
	}

	o.mu.Lock()
	o.static = srv
	o.mu.Unlock()

	metrics.LaunchesTotal.WithLabelValues(ModeInlineStatic, "success").Inc()
	return &LaunchResult{
		Directory:   c.Directory,
		ExternalURL: url,
		Mode:        ModeInlineStatic,
		WatchRoot:   c.Directory,
	}, nil
}

// hasServableHTML retries HTML entry discovery for candidates scored before
// an index file appeared, filling in EntryHTML on success.
func hasServableHTML(c *scan.Candidate) bool {
	if c.EntryHTML != "" {
		return true
	}
	if entry, ok := scan.FindEntryHTML(c.Directory); ok {
		c.EntryHTML = entry
		return true
	}
	return false
}

func errNotServable(dir string) error {
	return fmt.Errorf("%s has no runnable dev command and no servable HTML entry", dir)
}

// present publishes the launch result, arranges the reload watcher for
// static modes, and re-verifies the URL in the background. A preview that
// dies right after presenting drops the session back to onboarding instead
// of leaving a dead frame.
func (o *Orchestrator) present(result *LaunchResult) {
	o.mu.Lock()
	o.current = result
	o.mu.Unlock()

	if result.WatchRoot != "" {
		if err := o.watcher.Watch(result.WatchRoot, func() { o.reload() }); err != nil {
			o.logger.Debug("watcher setup failed", "error", err)
		}
	}

	o.notifier.DevURL(result.ExternalURL)
	o.setPhase(PhaseDefault)
	o.desktop.Ready(util.DisplayName(result.Directory), result.ExternalURL)

	o.reverify(result)
}

// reverify re-probes a posted URL in the background. Runs after every URL
// post, initial start and reload alike; a preview that died drops the
// session back to onboarding instead of leaving a dead frame.
func (o *Orchestrator) reverify(result *LaunchResult) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), o.reverifyTimeout)
		defer cancel()
		if err := runner.VerifyURL(ctx, result.ExternalURL); err != nil {
			o.mu.Lock()
			stillCurrent := o.current == result
			o.mu.Unlock()
			if stillCurrent {
				o.logger.Debug("preview became unreachable", "url", result.ExternalURL, "error", err)
				o.fail(err)
			}
		}
	}()
}

// reload pushes a cache-busted URL so embedded frames refetch everything,
// then re-checks that the preview behind it is still alive.
func (o *Orchestrator) reload() {
	o.mu.Lock()
	current := o.current
	o.mu.Unlock()
	if current == nil {
		return
	}
	metrics.ReloadsTotal.Inc()
	o.notifier.DevURL(watcher.CacheBust(current.ExternalURL))
	o.reverify(current)
}

func (o *Orchestrator) fail(err error) {
	o.teardownCurrent()
	o.notifier.Error(err.Error())
	o.setPhase(PhaseOnboarding)
	o.desktop.Failed(err.Error())
}

// Stop tears everything down. Safe to call multiple times.
func (o *Orchestrator) Stop() {
	o.teardownCurrent()
	o.hidePlaceholder()
}

func (o *Orchestrator) teardownCurrent() {
	o.watcher.Stop()
	o.runner.StopActive()

	o.mu.Lock()
	srv := o.static
	o.static = nil
	o.current = nil
	o.mu.Unlock()

	if srv != nil {
		srv.Stop()
	}
}

// Status returns the current phase and launch result for the bridge.
func (o *Orchestrator) Status() Status {
	o.mu.Lock()
	defer o.mu.Unlock()
	return Status{Phase: o.phase, Current: o.current}
}

func (o *Orchestrator) setPhase(phase UIPhase) {
	o.mu.Lock()
	o.phase = phase
	o.mu.Unlock()
	o.notifier.Phase(phase)
}

func (o *Orchestrator) showPlaceholder() {
	o.mu.Lock()
	if o.placeholder == nil {
		o.placeholder = &staticserve.Placeholder{}
	}
	p := o.placeholder
	o.mu.Unlock()

	if url, err := p.Start(); err == nil {
		o.notifier.DevURL(url)
	}
}

func (o *Orchestrator) hidePlaceholder() {
	o.mu.Lock()
	p := o.placeholder
	o.mu.Unlock()
	if p != nil {
		p.Stop()
	}
}
