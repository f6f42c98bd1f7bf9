// Package httputil holds small HTTP helpers shared by the data and mirror
// servers.
package httputil

import (
	"net"
	"net/http"
)

// ClientIP returns the peer address of the request without the port. Both
// servers bind directly to the operator's network, so proxy headers are
// deliberately not consulted.
func ClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
