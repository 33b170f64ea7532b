package safety

import (
	"log/slog"
	"net"
	"net/url"
)

// Validator rejects fetch targets that could be used to reach internal
// infrastructure (SSRF). The check runs against resolved addresses, not
// just hostname literals, so DNS rebinding to an internal address is
// caught too.
type Validator struct {
	lookupIP func(host string) ([]net.IP, error)
}

func NewValidator() *Validator {
	return &Validator{lookupIP: net.LookupIP}
}

// NewValidatorWithResolver injects a resolver, used in tests.
func NewValidatorWithResolver(lookupIP func(host string) ([]net.IP, error)) *Validator {
	return &Validator{lookupIP: lookupIP}
}

var blockedHosts = map[string]bool{
	"localhost": true,
	"127.0.0.1": true,
	"::1":       true,
	"0.0.0.0":   true,
}

// IsSafe reports whether a URL may be fetched. Non-HTTP(S) schemes,
// empty hostnames, localhost literals, and any resolved address that is
// private, loopback, link-local, or unspecified are rejected. A
// resolution failure counts as unsafe.
func (v *Validator) IsSafe(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		slog.Warn("Rejected non-HTTP(S) URL scheme", "scheme", parsed.Scheme, "url", rawURL)
		return false
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return false
	}

	if blockedHosts[hostname] {
		slog.Warn("Rejected localhost URL", "url", rawURL)
		return false
	}

	ips, err := v.lookupIP(hostname)
	if err != nil || len(ips) == 0 {
		slog.Warn("Could not resolve hostname", "url", rawURL, "error", err)
		return false
	}

	for _, ip := range ips {
		if isRestricted(ip) {
			slog.Warn("Rejected private/reserved address", "url", rawURL, "ip", ip.String())
			return false
		}
	}

	return true
}

func isRestricted(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsInterfaceLocalMulticast() ||
		ip.IsUnspecified() ||
		isReserved(ip)
}

// isReserved covers ranges the net package has no predicate for:
// carrier-grade NAT, benchmarking, documentation, and the class E block.
func isReserved(ip net.IP) bool {
	for _, cidr := range reservedBlocks {
		if cidr.Contains(ip) {
			return true
		}
	}
	return false
}

var reservedBlocks = mustParseCIDRs(
	"100.64.0.0/10",  // carrier-grade NAT
	"192.0.0.0/24",   // IETF protocol assignments
	"192.0.2.0/24",   // TEST-NET-1
	"198.18.0.0/15",  // benchmarking
	"198.51.100.0/24", // TEST-NET-2
	"203.0.113.0/24", // TEST-NET-3
	"240.0.0.0/4",    // class E, reserved
	"2001:db8::/32",  // IPv6 documentation
)

func mustParseCIDRs(blocks ...string) []*net.IPNet {
	nets := make([]*net.IPNet, 0, len(blocks))
	for _, block := range blocks {
		_, cidr, err := net.ParseCIDR(block)
		if err != nil {
			panic(err)
		}
		nets = append(nets, cidr)
	}
	return nets
}
