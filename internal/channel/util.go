package channel

import "net"

// localAddressRouting returns the string form of the local interface
// address whose subnet contains peerIP, or "" if none matches. Used by
// each channel type's SSDPLocation resolver (spec.md §3) to advertise
// the address actually reachable from the requesting peer rather than
// a single fixed address that might be wrong on a multi-homed host.
func localAddressRouting(peerIP net.IP) string {
	ifaces, err := net.Interfaces()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, a := range addrs {
			ipNet, ok := a.(*net.IPNet)
			if !ok {
				continue
			}
			if ipNet.Contains(peerIP) {
				return ipNet.IP.String()
			}
		}
	}
	return ""
}
