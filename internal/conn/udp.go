package conn

import (
	"context"
	"log/slog"
	"net"
)

// PacketConnection adapts net.PacketConn (UDP, multicast UDP) to the
// Connection interface. Unlike StreamConnection it exposes
// ReadPacket/WritePacket rather than a line-oriented reader, since
// datagram framing has no concept of a newline terminator.
type PacketConnection struct {
	BaseConnection

	dial func(ctx context.Context) (net.PacketConn, error)
	pc   net.PacketConn
}

// NewUDPConnection builds a PacketConnection bound to a local UDP
// address.
func NewUDPConnection(localAddr string, logger *slog.Logger) *PacketConnection {
	return &PacketConnection{
		BaseConnection: NewBase(logger),
		dial: func(ctx context.Context) (net.PacketConn, error) {
			return net.ListenPacket("udp", localAddr)
		},
	}
}

// NewMulticastUDPConnection builds a PacketConnection that joins a
// multicast group on the named interface. The heavy lifting (group
// membership) is done by internal/ssdp, which needs finer control over
// the socket than a generic Connection exposes; this wraps whatever
// net.PacketConn the caller already built so it participates in the
// same state machine and reconnection discipline as every other link.
func NewMulticastUDPConnection(open func(ctx context.Context) (net.PacketConn, error), logger *slog.Logger) *PacketConnection {
	return &PacketConnection{BaseConnection: NewBase(logger), dial: open}
}

// Open binds/joins the packet connection and transitions to Connected.
func (p *PacketConnection) Open(ctx context.Context) error {
	if p.State() != Disconnected {
		return nil
	}
	p.SetState(Connecting)
	pc, err := p.dial(ctx)
	if err != nil {
		p.SetState(Disconnected)
		return err
	}
	p.pc = pc
	p.SetState(Connected)
	return nil
}

// Close closes the packet connection.
func (p *PacketConnection) Close(ctx context.Context) error {
	if p.State() == Disconnected {
		return nil
	}
	p.SetState(Disconnecting)
	var err error
	if p.pc != nil {
		err = p.pc.Close()
		p.pc = nil
	}
	p.SetState(Disconnected)
	return err
}

// ReadPacket reads one datagram, funnelling I/O errors through
// HandleError.
func (p *PacketConnection) ReadPacket(ctx context.Context, buf []byte) (int, net.Addr, error) {
	if p.pc == nil {
		return 0, nil, net.ErrClosed
	}
	n, addr, err := p.pc.ReadFrom(buf)
	if err != nil {
		if handled := p.HandleError(ctx, p.Close, err); handled != nil {
			return n, addr, handled
		}
		return n, addr, nil
	}
	return n, addr, nil
}

// WritePacket writes one datagram to addr, funnelling I/O errors
// through HandleError.
func (p *PacketConnection) WritePacket(ctx context.Context, buf []byte, addr net.Addr) (int, error) {
	if p.pc == nil {
		return 0, net.ErrClosed
	}
	n, err := p.pc.WriteTo(buf, addr)
	if err != nil {
		if handled := p.HandleError(ctx, p.Close, err); handled != nil {
			return n, handled
		}
		return n, nil
	}
	return n, nil
}
