package http

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"
)

// IPConfig lists the reverse proxies whose forwarding headers are trusted.
// The zero value and nil trust nobody.
type IPConfig struct {
	trusted []netip.Prefix
}

// NewIPConfig parses trusted proxy entries. An entry is a CIDR range or a
// single address.
func NewIPConfig(trustedProxies []string) (*IPConfig, error) {
	cfg := &IPConfig{}
	for _, entry := range trustedProxies {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		if prefix, err := netip.ParsePrefix(entry); err == nil {
			cfg.trusted = append(cfg.trusted, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(entry)
		if err != nil {
			return nil, fmt.Errorf("invalid trusted proxy %q", entry)
		}
		addr = addr.Unmap()
		cfg.trusted = append(cfg.trusted, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return cfg, nil
}

// MustIPConfig is NewIPConfig for fixed values; it panics on a bad entry
func MustIPConfig(trustedProxies ...string) *IPConfig {
	cfg, err := NewIPConfig(trustedProxies)
	if err != nil {
		panic(err)
	}
	return cfg
}

// Trusts reports whether addr is a trusted proxy
func (c *IPConfig) Trusts(addr netip.Addr) bool {
	if c == nil || !addr.IsValid() {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range c.trusted {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// ExtractClientIP returns the address the login throttle and rate limits key on.
//
// Forwarding headers are read only when the peer is a trusted proxy.
// X-Forwarded-For is walked from the right and the first hop that is not a
// trusted proxy wins, so a client cannot pick its own address by prepending
// entries. X-Real-IP is the fallback, then the peer address itself.
func ExtractClientIP(r *http.Request, config *IPConfig) string {
	peer := remoteAddr(r)
	peerAddr, err := netip.ParseAddr(peer)
	if err != nil || !config.Trusts(peerAddr) {
		return peer
	}

	if xff := r.Header.Values("X-Forwarded-For"); len(xff) > 0 {
		if ip, ok := fromForwardedFor(strings.Join(xff, ","), config); ok {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		if addr, err := netip.ParseAddr(xri); err == nil {
			return addr.Unmap().String()
		}
	}

	return peer
}

func fromForwardedFor(header string, config *IPConfig) (string, bool) {
	hops := strings.Split(header, ",")
	leftmost := ""
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			return "", false
		}
		addr = addr.Unmap()
		if !config.Trusts(addr) {
			return addr.String(), true
		}
		leftmost = addr.String()
	}
	// every hop is a trusted proxy
	return leftmost, leftmost != ""
}

func remoteAddr(r *http.Request) string {
	if r.RemoteAddr == "" {
		return "unknown"
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr.Unmap().String()
	}
	return host
}
