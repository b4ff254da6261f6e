// Package ssdp implements the minimal SSDP discovery responder named
// in spec.md §6: it listens for M-SEARCH requests on the standard SSDP
// multicast group, asks the channel-type registry for each
// transport's SSDPLocation(peerIP), and unicasts one HTTP-over-UDP
// response advertising each transport that has something to offer the
// requesting peer. No wire codec from the wider Flockwave/Skybrush
// ecosystem is reproduced here beyond the handful of SSDP header lines
// the protocol itself requires (an explicit Non-goal per spec.md §1 is
// encoding of specific wire formats; SSDP's own response header lines
// are the discovery mechanism itself, not one of those excluded codecs).
package ssdp

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"
	"time"
)

// MulticastAddr is the standard SSDP multicast group and port.
const MulticastAddr = "239.255.255.250:1900"

// ChannelTypeSource lets Responder enumerate registered channel types
// without depending on the concrete *registry.ChannelTypeRegistry type.
type ChannelTypeSource interface {
	IDs() []string
	SSDPLocation(typeID string, peerIP net.IP) (location string, ok bool)
}

// Responder answers M-SEARCH discovery requests for "flockwave" devices.
type Responder struct {
	channelTypes ChannelTypeSource
	logger       *slog.Logger

	serverToken string
}

// NewResponder constructs a Responder. serverToken is the SSDP
// "SERVER:" header value (e.g. "flockd/1.0 UPnP/1.1").
func NewResponder(channelTypes ChannelTypeSource, serverToken string, logger *slog.Logger) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	if serverToken == "" {
		serverToken = "flockd/1.0 UPnP/1.1"
	}
	return &Responder{channelTypes: channelTypes, serverToken: serverToken, logger: logger}
}

// ListenAndServe joins the SSDP multicast group and answers M-SEARCH
// requests until ctx is cancelled.
func (r *Responder) ListenAndServe(ctx context.Context) error {
	addr, err := net.ResolveUDPAddr("udp4", MulticastAddr)
	if err != nil {
		return fmt.Errorf("ssdp: resolve multicast address: %w", err)
	}

	conn, err := net.ListenMulticastUDP("udp4", nil, addr)
	if err != nil {
		return fmt.Errorf("ssdp: join multicast group: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	buf := make([]byte, 4096)
	for {
		n, peer, err := conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.Debug("ssdp: read failed", "error", err)
			continue
		}
		if isMSearch(buf[:n]) {
			r.respond(peer)
		}
	}
}

func isMSearch(data []byte) bool {
	line, _, _ := strings.Cut(string(data), "\r\n")
	return strings.HasPrefix(strings.ToUpper(line), "M-SEARCH")
}

// respond unicasts one "HTTP/1.1 200 OK" M-SEARCH response per channel
// type that has something to advertise to peer.
func (r *Responder) respond(peer *net.UDPAddr) {
	conn, err := net.DialUDP("udp4", nil, peer)
	if err != nil {
		r.logger.Debug("ssdp: dial peer for response", "peer", peer, "error", err)
		return
	}
	defer conn.Close()

	for _, typeID := range r.channelTypes.IDs() {
		location, ok := r.channelTypes.SSDPLocation(typeID, peer.IP)
		if !ok {
			continue
		}
		resp := r.buildResponse(typeID, location)
		if _, err := conn.Write([]byte(resp)); err != nil {
			r.logger.Debug("ssdp: write response", "peer", peer, "channelType", typeID, "error", err)
		}
	}
}

func (r *Responder) buildResponse(typeID, location string) string {
	var b strings.Builder
	w := bufio.NewWriter(&b)
	fmt.Fprintf(w, "HTTP/1.1 200 OK\r\n")
	fmt.Fprintf(w, "CACHE-CONTROL: max-age=1800\r\n")
	fmt.Fprintf(w, "DATE: %s\r\n", time.Now().UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT"))
	fmt.Fprintf(w, "EXT:\r\n")
	fmt.Fprintf(w, "LOCATION: %s\r\n", location)
	fmt.Fprintf(w, "SERVER: %s\r\n", r.serverToken)
	fmt.Fprintf(w, "ST: urn:flockwave:service:%s:1\r\n", typeID)
	fmt.Fprintf(w, "USN: uuid:flockd::urn:flockwave:service:%s:1\r\n", typeID)
	fmt.Fprintf(w, "\r\n")
	w.Flush()
	return b.String()
}
