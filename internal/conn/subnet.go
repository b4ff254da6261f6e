package conn

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
)

// ErrNoMatchingInterface is returned when no local interface address
// lies within the requested subnet.
var ErrNoMatchingInterface = errors.New("conn: no local interface in subnet")

// ErrAmbiguousInterface is returned when more than one local interface
// address lies within the requested subnet.
var ErrAmbiguousInterface = errors.New("conn: more than one local interface in subnet")

// ErrLoopbackBroadcast is returned when the matched address is
// loopback but broadcast was requested — broadcasting on loopback is
// never meaningful.
var ErrLoopbackBroadcast = errors.New("conn: matched interface is loopback, cannot broadcast")

// Delegate is what SubnetConnection constructs once it has picked the
// unique local address within the subnet.
type Delegate func(addr net.IP, port int) (Connection, error)

// InterfaceLister abstracts net.Interfaces/Addrs for testability.
type InterfaceLister func() ([]net.Addr, error)

// SubnetConnection resolves the unique local interface whose address
// lies within a given IPv4 subnet, constructs a delegate connection via
// a caller-supplied factory, and mirrors the delegate's state.
type SubnetConnection struct {
	BaseConnection

	subnet    *net.IPNet
	port      int
	broadcast bool
	factory   Delegate
	lister    InterfaceLister

	delegate Connection
	dispose  func()
}

// NewSubnetConnection constructs a SubnetConnection. lister defaults to
// enumerating net.InterfaceAddrs when nil.
func NewSubnetConnection(subnet *net.IPNet, port int, broadcast bool, factory Delegate, lister InterfaceLister, logger *slog.Logger) *SubnetConnection {
	if lister == nil {
		lister = net.InterfaceAddrs
	}
	return &SubnetConnection{
		BaseConnection: NewBase(logger),
		subnet:         subnet,
		port:           port,
		broadcast:      broadcast,
		factory:        factory,
		lister:         lister,
	}
}

// resolve picks the unique interface address within s.subnet.
func (s *SubnetConnection) resolve() (net.IP, error) {
	addrs, err := s.lister()
	if err != nil {
		return nil, fmt.Errorf("conn: enumerate interfaces: %w", err)
	}

	var matches []net.IP
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok {
			continue
		}
		if ipNet.IP.To4() == nil {
			continue
		}
		if s.subnet.Contains(ipNet.IP) {
			matches = append(matches, ipNet.IP)
		}
	}

	switch len(matches) {
	case 0:
		return nil, ErrNoMatchingInterface
	case 1:
		ip := matches[0]
		if s.broadcast && ip.IsLoopback() {
			return nil, ErrLoopbackBroadcast
		}
		return ip, nil
	default:
		return nil, ErrAmbiguousInterface
	}
}

// Open resolves the matching interface, constructs the delegate, and
// mirrors its state transitions 1:1 onto this SubnetConnection.
func (s *SubnetConnection) Open(ctx context.Context) error {
	if s.State() != Disconnected {
		return nil
	}
	s.SetState(Connecting)

	ip, err := s.resolve()
	if err != nil {
		s.SetState(Disconnected)
		return err
	}

	delegate, err := s.factory(ip, s.port)
	if err != nil {
		s.SetState(Disconnected)
		return err
	}
	s.delegate = delegate
	s.dispose = delegate.StateChanged().Connect(func(sender any, sc StateChange) {
		s.SetState(sc.New)
	})

	return delegate.Open(ctx)
}

// Close tears down the delegate and stops mirroring its state.
func (s *SubnetConnection) Close(ctx context.Context) error {
	if s.delegate == nil {
		return nil
	}
	err := s.delegate.Close(ctx)
	if s.dispose != nil {
		s.dispose()
		s.dispose = nil
	}
	s.delegate = nil
	return err
}
