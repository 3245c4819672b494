package runner

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"

	"previewd/pkg/config"
)

// probeClient is tuned for fast local probes: no keep-alives needed, short
// overall timeout per request.
var probeClient = &http.Client{Timeout: 2 * time.Second}

// portList merges framework port hints with the common dev-server ports,
// hints first, de-duplicated.
func portList(hints []int) []int {
	seen := map[int]bool{}
	var ports []int
	for _, p := range append(append([]int{}, hints...), config.CommonDevPorts...) {
		if !seen[p] {
			seen[p] = true
			ports = append(ports, p)
		}
	}
	return ports
}

// sweepPorts repeatedly probes the candidate ports on both loopback names
// until one accepts a connection or the context ends. On a hit it sends the
// derived URL and returns.
func sweepPorts(ctx context.Context, ports []int, found chan<- string) {
	ticker := time.NewTicker(config.DefaultPortSweepInterval)
	defer ticker.Stop()

	for {
		for _, port := range ports {
			if ctx.Err() != nil {
				return
			}
			for _, host := range []string{"127.0.0.1", "localhost"} {
				if dialPort(host, port) {
					select {
					case found <- fmt.Sprintf("http://127.0.0.1:%d/", port):
					default:
					}
					return
				}
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func dialPort(host string, port int) bool {
	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", host, port), config.DefaultPortProbeTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

// VerifyURL re-checks that a preview URL still responds. Used when resuming
// a previously presented preview.
func VerifyURL(ctx context.Context, baseURL string) error {
	return verifyReachable(ctx, baseURL)
}

// verifyReachable confirms that a discovered URL actually serves content
// before the launch is declared successful. It probes the URL itself plus
// index.html and the vite dev-client path, HEAD first with a GET fallback,
// retrying until the context deadline.
func verifyReachable(ctx context.Context, baseURL string) error {
	paths := []string{"", "index.html", "@vite/client"}

	attempt := func() error {
		for _, suffix := range paths {
			target := baseURL + suffix
			if probeOnce(ctx, http.MethodHead, target) || probeOnce(ctx, http.MethodGet, target) {
				return nil
			}
		}
		return fmt.Errorf("no response from %s", baseURL)
	}

	policy := backoff.WithContext(backoff.NewConstantBackOff(config.DefaultReachabilityRetryDelay), ctx)
	return backoff.Retry(attempt, policy)
}

// probeOnce reports whether the target produced any HTTP response at all; a
// 404 still proves a server is listening.
func probeOnce(ctx context.Context, method, target string) bool {
	req, err := http.NewRequestWithContext(ctx, method, target, nil)
	if err != nil {
		return false
	}
	resp, err := probeClient.Do(req)
	if err != nil {
		return false
	}
	_ = resp.Body.Close()
	return true
}
