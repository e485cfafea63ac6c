package middleware

import (
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// TrustedProxies configures how c.RealIP() resolves the client address.
// Forwarding headers are honored only when the direct peer is inside one of
// trustedCIDRs, and only entries that parse as IP addresses are used;
// otherwise the peer address is the client. The rate limiter,
// audit log and session records all key on this value, so a spoofed
// X-Forwarded-For from the open internet must not be believed.
func TrustedProxies(e *echo.Echo, trustedCIDRs []string) error {
	extractor, err := NewIPExtractor(trustedCIDRs)
	if err != nil {
		return err
	}
	e.IPExtractor = extractor
	return nil
}

// NewIPExtractor parses trustedCIDRs and returns the extractor. An invalid
// CIDR is a configuration error.
func NewIPExtractor(trustedCIDRs []string) (echo.IPExtractor, error) {
	var trusted []*net.IPNet
	for _, cidr := range trustedCIDRs {
		cidr = strings.TrimSpace(cidr)
		if cidr == "" {
			continue
		}
		_, network, err := net.ParseCIDR(cidr)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q: %w", cidr, err)
		}
		trusted = append(trusted, network)
	}

	return func(req *http.Request) string {
		peer := peerIP(req.RemoteAddr)
		if !isTrusted(peer, trusted) {
			return peer
		}

		// Walk X-Forwarded-For from the right: each trusted hop appended the
		// address it received from, so the first untrusted entry is the
		// client. Anything left of it was written by the client.
		if xff := req.Header.Values(echo.HeaderXForwardedFor); len(xff) > 0 {
			hops := strings.Split(strings.Join(xff, ","), ",")
			client := ""
			for i := len(hops) - 1; i >= 0; i-- {
				ip := parseIP(hops[i])
				if ip == "" {
					return peer
				}
				client = ip
				if !isTrusted(ip, trusted) {
					break
				}
			}
			if client != "" {
				return client
			}
		}

		// X-Real-IP is set by nginx and Railway to the address they saw.
		if realIP := parseIP(req.Header.Get(echo.HeaderXRealIP)); realIP != "" {
			return realIP
		}
		return peer
	}, nil
}

// parseIP returns the canonical form of s, or "" when s is not an IP
// address. The canonical form always fits the 45-character ip columns.
func parseIP(s string) string {
	ip := net.ParseIP(strings.TrimSpace(s))
	if ip == nil {
		return ""
	}
	return ip.String()
}

// peerIP strips the port from a RemoteAddr.
func peerIP(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return remoteAddr
	}
	return host
}

func isTrusted(ipStr string, trusted []*net.IPNet) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	for _, network := range trusted {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}
