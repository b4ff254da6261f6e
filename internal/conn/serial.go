package conn

import (
	"context"
	"io"
	"log/slog"
)

// SerialPortOpener opens a serial device by name, returning a stream.
// A real implementation wires this to a serial port library (e.g.
// go.bug.st/serial); the kernel itself only depends on this interface,
// so it can be exercised in tests with an in-memory pipe instead of
// real hardware — the same pattern the reconnection supervisor's
// ProbeFunc analogue uses in the teacher's connwatch package.
type SerialPortOpener func(ctx context.Context, device string, baud int) (io.ReadWriteCloser, error)

// NewSerialConnection builds a StreamConnection over a serial device
// opened by opener.
func NewSerialConnection(opener SerialPortOpener, device string, baud int, logger *slog.Logger) *StreamConnection {
	return NewStreamConnection(func(ctx context.Context) (io.ReadWriteCloser, error) {
		return opener(ctx, device, baud)
	}, logger)
}

// MIDIPortOpener opens a MIDI port by name.
type MIDIPortOpener func(ctx context.Context, port string) (io.ReadWriteCloser, error)

// NewMIDIPortConnection builds a StreamConnection over a MIDI port
// (used for e.g. LTC/MTC timecode clocks), opened by opener.
func NewMIDIPortConnection(opener MIDIPortOpener, port string, logger *slog.Logger) *StreamConnection {
	return NewStreamConnection(func(ctx context.Context) (io.ReadWriteCloser, error) {
		return opener(ctx, port)
	}, logger)
}
