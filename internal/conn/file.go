package conn

import (
	"context"
	"io"
	"log/slog"
	"os"
)

// NewFileConnection opens path as a read/write stream on Open. Used
// for FIFOs, device nodes, and similar file-backed links.
func NewFileConnection(path string, flag int, logger *slog.Logger) *StreamConnection {
	return NewStreamConnection(func(ctx context.Context) (io.ReadWriteCloser, error) {
		return os.OpenFile(path, flag, 0)
	}, logger)
}
