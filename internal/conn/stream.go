package conn

import (
	"bufio"
	"context"
	"io"
	"log/slog"
	"sync"
)

// StreamConnection adapts an io.ReadWriteCloser (a serial port, a MIDI
// port, an already-dialed socket, ...) to the Connection interface. It
// is the common base for the file, serial, and MIDI-port connections,
// which differ only in how they obtain the underlying stream.
type StreamConnection struct {
	BaseConnection

	mu     sync.Mutex
	stream io.ReadWriteCloser
	reader *bufio.Reader

	dial func(ctx context.Context) (io.ReadWriteCloser, error)
}

// NewStreamConnection constructs a StreamConnection whose underlying
// stream is produced by dial on Open.
func NewStreamConnection(dial func(ctx context.Context) (io.ReadWriteCloser, error), logger *slog.Logger) *StreamConnection {
	return &StreamConnection{BaseConnection: NewBase(logger), dial: dial}
}

// Open dials the stream and transitions to Connected on success.
func (s *StreamConnection) Open(ctx context.Context) error {
	if s.State() != Disconnected {
		return nil
	}
	s.SetState(Connecting)

	stream, err := s.dial(ctx)
	if err != nil {
		s.SetState(Disconnected)
		return err
	}

	s.mu.Lock()
	s.stream = stream
	s.reader = bufio.NewReader(stream)
	s.mu.Unlock()

	s.SetState(Connected)
	return nil
}

// Close closes the underlying stream and transitions to Disconnected.
func (s *StreamConnection) Close(ctx context.Context) error {
	if s.State() == Disconnected {
		return nil
	}
	s.SetState(Disconnecting)

	s.mu.Lock()
	stream := s.stream
	s.stream = nil
	s.reader = nil
	s.mu.Unlock()

	var err error
	if stream != nil {
		err = stream.Close()
	}
	s.SetState(Disconnected)
	return err
}

// ReadLine reads a single newline-terminated line, funnelling any I/O
// error through HandleError.
func (s *StreamConnection) ReadLine(ctx context.Context) (string, error) {
	s.mu.Lock()
	r := s.reader
	s.mu.Unlock()
	if r == nil {
		return "", io.ErrClosedPipe
	}

	line, err := r.ReadString('\n')
	if err != nil {
		if handled := s.HandleError(ctx, s.Close, err); handled != nil {
			return "", handled
		}
		return "", err
	}
	return line, nil
}

// Write writes p to the underlying stream, funnelling any I/O error
// through HandleError.
func (s *StreamConnection) Write(ctx context.Context, p []byte) (int, error) {
	s.mu.Lock()
	stream := s.stream
	s.mu.Unlock()
	if stream == nil {
		return 0, io.ErrClosedPipe
	}

	n, err := stream.Write(p)
	if err != nil {
		if handled := s.HandleError(ctx, s.Close, err); handled != nil {
			return n, handled
		}
		return n, nil
	}
	return n, nil
}
