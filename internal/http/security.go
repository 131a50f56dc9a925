package http

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
)

// securityMetrics counts security events for request logging.
type securityMetrics struct {
	rateLimitHits      int64
	suspiciousRequests int64
}

// trustedProxies are the networks allowed to set forwarding headers.
// The API runs behind a reverse proxy on the same host or LAN.
var trustedProxies = []*net.IPNet{
	mustCIDR("127.0.0.0/8"),
	mustCIDR("10.0.0.0/8"),
	mustCIDR("172.16.0.0/12"),
	mustCIDR("192.168.0.0/16"),
}

func mustCIDR(cidr string) *net.IPNet {
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		panic(fmt.Sprintf("parse trusted proxy CIDR %s: %v", cidr, err))
	}
	return network
}

func isTrustedProxy(ip net.IP) bool {
	for _, network := range trustedProxies {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// extractClientIP resolves the client address, honoring X-Forwarded-For
// and X-Real-IP only when the direct peer is a trusted proxy.
func extractClientIP(r *http.Request) string {
	directIP, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		directIP = r.RemoteAddr
	}

	parsed := net.ParseIP(directIP)
	if parsed == nil || !isTrustedProxy(parsed) {
		return directIP
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first := strings.TrimSpace(strings.Split(xff, ",")[0])
		if net.ParseIP(first) != nil {
			return first
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		if net.ParseIP(xri) != nil {
			return xri
		}
	}

	return directIP
}

// probePatterns flag traversal, credential-file and injection probes in
// the path or query. The API has no file-serving or HTML surface, so
// any of these in a URL is scanner traffic worth logging.
var probePatterns = []string{
	"../", "..\\", "etc/passwd",
	".env", ".git", ".ssh",
	"union select", "<script", "javascript:", "eval(",
}

// scannerAgents are user-agent fragments of common probing tools. Plain
// curl and script clients are fine; shortcuts and cron jobs use them.
var scannerAgents = []string{
	"sqlmap", "nikto", "nmap", "masscan",
	"gobuster", "dirb", "scanner",
}

// detectSuspiciousRequest reports whether the request looks like probe
// traffic. Detection only feeds logging and metrics; suspicious
// requests are still served (or 404ed) normally.
func detectSuspiciousRequest(r *http.Request, metrics *securityMetrics) bool {
	suspicious := false

	target := strings.ToLower(r.URL.Path)
	if q := r.URL.RawQuery; q != "" {
		// Match against the decoded form so encoding does not hide probes.
		if unescaped, err := url.QueryUnescape(q); err == nil {
			q = unescaped
		}
		target += "?" + strings.ToLower(q)
	}
	for _, pattern := range probePatterns {
		if strings.Contains(target, pattern) {
			suspicious = true
			break
		}
	}

	agent := strings.ToLower(r.Header.Get("User-Agent"))
	for _, fragment := range scannerAgents {
		if strings.Contains(agent, fragment) {
			suspicious = true
			break
		}
	}

	switch r.Method {
	case "TRACE", "TRACK", "CONNECT":
		suspicious = true
	}

	// No legitimate endpoint takes anywhere near this much URL.
	if len(r.URL.String()) > 2048 {
		suspicious = true
	}

	// A long forwarding chain means someone is playing with headers.
	if xff := r.Header.Get("X-Forwarded-For"); strings.Count(xff, ",") > 5 {
		suspicious = true
	}

	if suspicious && metrics != nil {
		atomic.AddInt64(&metrics.suspiciousRequests, 1)
	}

	return suspicious
}
