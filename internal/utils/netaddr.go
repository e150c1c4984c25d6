package utils

import (
	"net"
	"strings"
)

// LANAddresses returns the non-loopback IPv4 addresses of this host, so the
// startup log can say where tablets on the warehouse network reach the UI.
func LANAddresses() []string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return nil
	}
	var ips []string
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() && ipnet.IP.To4() != nil {
			ips = append(ips, ipnet.IP.String())
		}
	}
	return preferRoutable(ips)
}

// preferRoutable drops link-local (169.254.x.x) addresses when at least one
// routable address exists
func preferRoutable(ips []string) []string {
	hasRoutable := false
	for _, ip := range ips {
		if !strings.HasPrefix(ip, "169.254.") {
			hasRoutable = true
			break
		}
	}
	if !hasRoutable {
		return ips
	}
	out := make([]string, 0, len(ips))
	for _, ip := range ips {
		if !strings.HasPrefix(ip, "169.254.") {
			out = append(out, ip)
		}
	}
	return out
}
