// Package runner spawns dev-server processes, discovers the URL they bind,
// and verifies reachability before reporting success.
package runner

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"previewd/pkg/config"
	"previewd/pkg/logutil"
)

// StartError carries the stage at which a launch failed plus a tail of the
// process output for diagnostics.
type StartError struct {
	Stage   string
	Message string
	LogTail string
	Err     error
}

func (e *StartError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Stage, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Stage, e.Message)
}

func (e *StartError) Unwrap() error { return e.Err }

// ExternalURLResolver maps a local preview URL to the address a client
// outside this machine should use. Identity when unset.
type ExternalURLResolver func(localURL string) string

// Handle represents one running (or served) preview process.
type Handle struct {
	// URL is the verified local URL, loopback host, trailing slash.
	URL string

	// ExternalURL is URL passed through the resolver.
	ExternalURL string

	// Dir is the project directory the process runs in.
	Dir string

	logs     *logSink
	stopOnce sync.Once
	stop     func()
}

// Stop terminates the process group. Safe to call multiple times.
func (h *Handle) Stop() { h.stopOnce.Do(h.stop) }

// LogTail returns the last captured lines of process output.
func (h *Handle) LogTail(n int) string { return h.logs.Tail(n) }

// Runner owns at most one preview process at a time. Starting a new preview
// stops the previous one first.
type Runner struct {
	// Resolver maps local URLs to externally reachable ones. Optional.
	Resolver ExternalURLResolver

	// DiscoveryTimeout bounds the wait for a URL to appear in process output
	// or via the port sweep.
	DiscoveryTimeout time.Duration

	// ReachTimeout bounds reachability verification of a discovered URL.
	ReachTimeout time.Duration

	logger *slog.Logger

	mu     sync.Mutex
	active *Handle
}

func New() *Runner {
	return &Runner{
		DiscoveryTimeout: config.DefaultURLDiscoveryTimeout,
		ReachTimeout:     config.DefaultReachabilityTimeout,
		logger:           logutil.NewLogger("runner"),
	}
}

// Active returns the current handle, or nil.
func (r *Runner) Active() *Handle {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// StopActive stops the running preview, if any. The active reference is
// cleared before termination begins so a concurrent Start never adopts a
// dying process.
func (r *Runner) StopActive() {
	r.mu.Lock()
	h := r.active
	r.active = nil
	r.mu.Unlock()
	if h != nil {
		h.Stop()
	}
}

// managedProcess pairs a spawned command with a channel closed when the
// process exits.
type managedProcess struct {
	pid     int
	done    chan struct{}
	exitErr error
}

// Start launches the command in dir, waits for a preview URL, and verifies
// it responds. Any previously active preview is stopped first. The returned
// handle keeps the process running until Stop.
func (r *Runner) Start(ctx context.Context, dir, command string, portHints []int) (*Handle, error) {
	r.StopActive()

	r.logger.Debug("spawning preview process", "dir", dir, "command", command)

	cmd := shellCommand(command)
	cmd.Dir = dir
	cmd.Env = previewEnv()

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &StartError{Stage: "spawn", Message: "stdout pipe", Err: err}
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, &StartError{Stage: "spawn", Message: "stderr pipe", Err: err}
	}
	if err := cmd.Start(); err != nil {
		return nil, &StartError{Stage: "spawn", Message: "failed to start command", Err: err}
	}

	sink := newLogSink()
	urlCh := make(chan string, 1)
	var readers sync.WaitGroup
	readers.Add(2)
	go func() { defer readers.Done(); scanOutput(stdout, sink, urlCh) }()
	go func() { defer readers.Done(); scanOutput(stderr, sink, urlCh) }()

	// Wait must not run until both pipes hit EOF or tail output is lost.
	proc := &managedProcess{pid: cmd.Process.Pid, done: make(chan struct{})}
	go func() {
		readers.Wait()
		proc.exitErr = cmd.Wait()
		close(proc.done)
	}()

	handle := &Handle{Dir: dir, logs: sink}
	handle.stop = func() {
		r.logger.Debug("stopping preview process", "pid", proc.pid)
		_ = terminateGroup(proc.pid)
		select {
		case <-proc.done:
		case <-time.After(config.DefaultStopGracePeriod):
			_ = killGroup(proc.pid)
			select {
			case <-proc.done:
			case <-time.After(time.Second):
			}
		}
		r.mu.Lock()
		if r.active == handle {
			r.active = nil
		}
		r.mu.Unlock()
	}

	rawURL, err := r.discoverURL(ctx, proc, urlCh, portHints, sink)
	if err != nil {
		handle.Stop()
		return nil, err
	}

	localURL, err := NormalizeLocalURL(rawURL)
	if err != nil {
		handle.Stop()
		return nil, &StartError{Stage: "discover-url", Message: "bad preview URL", LogTail: sink.Tail(20), Err: err}
	}

	verifyCtx, cancel := context.WithTimeout(ctx, r.ReachTimeout)
	err = verifyReachable(verifyCtx, localURL)
	cancel()
	if err != nil {
		handle.Stop()
		return nil, &StartError{Stage: "verify", Message: "preview URL never became reachable", LogTail: sink.Tail(20), Err: err}
	}

	handle.URL = localURL
	handle.ExternalURL = localURL
	if r.Resolver != nil {
		handle.ExternalURL = r.Resolver(localURL)
	}

	r.mu.Lock()
	r.active = handle
	r.mu.Unlock()

	r.logger.Debug("preview ready", "url", handle.URL)
	return handle, nil
}

// discoverURL races three sources: a URL scraped from process output, a
// successful port probe, and early process exit. The first winner decides.
func (r *Runner) discoverURL(ctx context.Context, proc *managedProcess, urlCh <-chan string, portHints []int, sink *logSink) (string, error) {
	discCtx, cancel := context.WithTimeout(ctx, r.DiscoveryTimeout)
	defer cancel()

	portCh := make(chan string, 1)
	go sweepPorts(discCtx, portList(portHints), portCh)

	select {
	case u := <-urlCh:
		return u, nil
	case u := <-portCh:
		return u, nil
	case <-proc.done:
		return "", &StartError{
			Stage:   "spawn",
			Message: "process exited before a preview URL was found",
			LogTail: sink.Tail(20),
			Err:     proc.exitErr,
		}
	case <-discCtx.Done():
		return "", &StartError{
			Stage:   "discover-url",
			Message: "timed out waiting for a preview URL",
			LogTail: sink.Tail(20),
			Err:     discCtx.Err(),
		}
	}
}

// previewEnv layers preview-friendly overrides on the inherited environment:
// bind loopback, suppress browser auto-open, disable color codes that would
// garble URL scraping.
func previewEnv() []string {
	return append(os.Environ(),
		"HOST=127.0.0.1",
		"BROWSER=none",
		"NO_COLOR=1",
		"FORCE_COLOR=0",
	)
}

// scanOutput copies process output into the sink line by line and pushes the
// first URL it can extract.
func scanOutput(r io.Reader, sink *logSink, urlCh chan<- string) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)
	found := false
	for scanner.Scan() {
		line := scanner.Text()
		sink.Append(line)
		if found {
			continue
		}
		if u, ok := ExtractURL(line); ok {
			found = true
			select {
			case urlCh <- u:
			default:
			}
		}
	}
}

// logSink retains a bounded amount of process output for diagnostics.
type logSink struct {
	mu    sync.Mutex
	lines []string
}

const maxSinkLines = 500

func newLogSink() *logSink { return &logSink{} }

func (s *logSink) Append(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, line)
	if len(s.lines) > maxSinkLines {
		s.lines = s.lines[len(s.lines)-maxSinkLines:]
	}
}

// Tail returns the last n lines joined with newlines.
func (s *logSink) Tail(n int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n > len(s.lines) {
		n = len(s.lines)
	}
	var buf bytes.Buffer
	for _, line := range s.lines[len(s.lines)-n:] {
		buf.WriteString(line)
		buf.WriteByte('\n')
	}
	return strings.TrimRight(buf.String(), "\n")
}
