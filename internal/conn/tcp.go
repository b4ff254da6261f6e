package conn

import (
	"context"
	"io"
	"log/slog"
	"net"
)

// NewTCPConnection builds a StreamConnection that dials a TCP address
// on Open.
func NewTCPConnection(address string, logger *slog.Logger) *StreamConnection {
	dialer := &net.Dialer{}
	return NewStreamConnection(func(ctx context.Context) (io.ReadWriteCloser, error) {
		c, err := dialer.DialContext(ctx, "tcp", address)
		if err != nil {
			return nil, err
		}
		return c, nil
	}, logger)
}
