package runner

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

// urlPatterns are tried in order on every output chunk. Specific framework
// banners come first; the generic loopback-URL pattern is the last resort.
// Patterns with a capture group yield group 1, the rest yield the whole
// match.
var urlPatterns = []*regexp.Regexp{
	// vite / sveltekit / astro / nuxt banner
	regexp.MustCompile(`(?i)Local:\s+(https?://\S+)`),
	// next.js 12 "ready - started server on 0.0.0.0:3000, url: http://localhost:3000"
	regexp.MustCompile(`(?i)ready\s*-\s*started server on\s+\S+,?\s*url:\s*(https?://\S+)`),
	regexp.MustCompile(`(?i)url:\s*(https?://\S+)`),
	regexp.MustCompile(`(?i)started server on\s+(https?://\S+)`),
	regexp.MustCompile(`(?i)server (?:is )?(?:running|listening) (?:at|on):?\s+(https?://\S+)`),
	regexp.MustCompile(`(?i)listening (?:at|on):?\s+(https?://\S+)`),
	// generic loopback / zero-address / IPv6 variants
	regexp.MustCompile(`https?://(?:localhost|127\.0\.0\.1|0\.0\.0\.0|\[::1?\]):\d+[^\s'"]*`),
}

// ExtractURL scans a chunk of dev-server output for a bound URL. Pure
// function; process plumbing feeds it chunks and stops calling once a URL
// is found.
func ExtractURL(text string) (string, bool) {
	for _, pattern := range urlPatterns {
		match := pattern.FindStringSubmatch(text)
		if match == nil {
			continue
		}
		raw := match[0]
		if len(match) > 1 {
			raw = match[1]
		}
		raw = strings.TrimRight(raw, `.,;)'"`)
		return raw, true
	}
	return "", false
}

// NormalizeLocalURL rewrites zero-address, IPv6, and localhost hosts to the
// loopback literal and guarantees a trailing slash on the path.
func NormalizeLocalURL(raw string) (string, error) {
	parsed, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("unparseable preview URL %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", fmt.Errorf("unsupported preview URL scheme %q", parsed.Scheme)
	}

	switch parsed.Hostname() {
	case "0.0.0.0", "::", "::1", "localhost":
		host := "127.0.0.1"
		if port := parsed.Port(); port != "" {
			host += ":" + port
		}
		parsed.Host = host
	}

	if !strings.HasSuffix(parsed.Path, "/") {
		parsed.Path += "/"
	}

	return parsed.String(), nil
}
