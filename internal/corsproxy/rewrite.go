package corsproxy

import (
	"strings"

	"github.com/vrpill/vrcwatch/vrchat"
)

// Rewrite returns the vrchat.ProxyHandler that routes a client through the
// relay listening at relayBase.
func Rewrite(relayBase string) vrchat.ProxyHandler {
	base := strings.TrimSpace(relayBase)
	if base == "" {
		return nil
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return vrchat.PrefixProxy(base)
}
