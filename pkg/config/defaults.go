package config

import "time"

// Timeouts & Durations
const (
	// DefaultURLDiscoveryTimeout bounds the whole URL discovery race: log
	// scraping, port guessing, and the deadline timer all share it.
	DefaultURLDiscoveryTimeout = 30 * time.Second

	// DefaultReachabilityTimeout bounds reachability verification of a
	// discovered URL before the launch is declared successful.
	DefaultReachabilityTimeout = 12 * time.Second

	// DefaultReachabilityRetryDelay is the delay between reachability probes
	DefaultReachabilityRetryDelay = 500 * time.Millisecond

	// DefaultReverifyTimeout bounds the background re-probe of a URL that
	// was already posted to clients, after the initial start or a reload.
	DefaultReverifyTimeout = 10 * time.Second

	// DefaultStopGracePeriod is how long a child process gets to exit after
	// a graceful terminate signal before the whole group is force-killed.
	DefaultStopGracePeriod = 3 * time.Second

	// DefaultPortSweepInterval is the delay between port-guess sweeps while
	// waiting for a dev server to bind.
	DefaultPortSweepInterval = 500 * time.Millisecond

	// DefaultPortProbeTimeout is the dial timeout for a single port probe
	DefaultPortProbeTimeout = 400 * time.Millisecond

	// DefaultReloadDebounce coalesces bursts of filesystem events into a
	// single preview refresh.
	DefaultReloadDebounce = 200 * time.Millisecond

	// DefaultScanCacheTTL is how long a scan result stays valid; rapid UI
	// interactions within the window reuse the cached candidate list.
	DefaultScanCacheTTL = 15 * time.Second
)

// Scan bounds
const (
	// MaxScanDepth is the maximum directory depth for the fallback walk
	MaxScanDepth = 5

	// MaxManifestResults caps glob-based package.json discovery per root
	MaxManifestResults = 1200

	// MaxHTMLResults caps glob-based HTML discovery per root
	MaxHTMLResults = 300

	// MaxPathDepth is the path depth (segments from the filesystem root)
	// beyond which a candidate is deprioritized.
	MaxPathDepth = 6
)

// Confidence scoring weights. Empirically calibrated; treat as tunable
// constants, not semantic contracts.
const (
	ScoreDevScript      = 8
	ScoreKnownDevServer = 3
	ScoreConfigHint     = 3
	ScoreConfigHintCap  = 6
	ScoreFrontendDeps   = 6
	ScoreInstalledDeps  = 4
	ScoreRootIndexHTML  = 6
	ScoreDeepHTML       = 3
	ScoreEntryFile      = 2
	ScoreFrontendName   = 2
	ScoreBackendOnly    = -4
	ScoreDeepPath       = -1

	// ScoreHardExclude marks a directory that must never be offered as a
	// preview candidate (e.g. it is itself an editor extension).
	ScoreHardExclude = -1000

	// AutoStartThreshold is the confidence at or above which the top
	// candidate is launched without prompting.
	AutoStartThreshold = 12
)

// HTML ranking weights for deep entry discovery
const (
	HTMLBaseScore      = 100
	HTMLIndexBonus     = 40
	HTMLPublicBonus    = 10
	HTMLDepthPenalty   = 10
	HTMLHarnessPenalty = -50
)

// CommonDevPorts are probed, in order, while waiting for a dev server that
// never prints a recognizable URL. Framework port hints are tried first.
var CommonDevPorts = []int{3000, 5173, 8080, 4321, 4200, 8000, 5000, 3001, 4173, 6006, 8081, 9000, 1234}

// Path Constants
const (
	// LocalConfigDir is the base directory for previewd configuration
	LocalConfigDir = ".previewd"

	// LocalConfigFile is the filename for the main config
	LocalConfigFile = "config.json"

	// LocalStateDir is the directory name for per-workspace state files
	LocalStateDir = "state"
)

// File Permissions
const (
	// PermConfigFile is the file permission for config files (may hold a token)
	PermConfigFile = 0600

	// PermStateFile is the file permission for state files
	PermStateFile = 0644

	// PermDirectory is the file permission for directories
	PermDirectory = 0755
)

// Bridge defaults
const (
	// DefaultBridgeAddr binds the control/notification server to an
	// OS-assigned loopback port.
	DefaultBridgeAddr = "127.0.0.1:0"
)
