package middleware

import (
	"net"
	"net/http"
	"strings"

	"github.com/cloudlaunch/cloudlaunch-go/pkg/config"
)

// ClientIP returns the address of the caller. X-Forwarded-For is only
// honoured when the direct peer is a trusted proxy, and then the right-most
// untrusted hop is taken.
func ClientIP(r *http.Request, cfg *config.Config) net.IP {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	peer := net.ParseIP(host)
	if cfg == nil || !cfg.IsTrustedProxy(host) {
		return peer
	}

	hops := strings.Split(r.Header.Get("X-Forwarded-For"), ",")
	for i := len(hops) - 1; i >= 0; i-- {
		hop := strings.TrimSpace(hops[i])
		if hop == "" {
			continue
		}
		if !cfg.IsTrustedProxy(hop) {
			if ip := net.ParseIP(hop); ip != nil {
				return ip
			}
			return peer
		}
	}
	return peer
}
