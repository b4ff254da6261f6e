package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/flockwave/flockd/internal/fwmsg"
)

func TestRunVersionFlag(t *testing.T) {
	var buf bytes.Buffer
	code := run([]string{"-version"}, &buf)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if !strings.Contains(buf.String(), "flockctl") {
		t.Fatalf("expected version output to mention flockctl, got %q", buf.String())
	}
}

func TestRunUnknownFlag(t *testing.T) {
	var buf bytes.Buffer
	code := run([]string{"-nonsense"}, &buf)
	if code != 2 {
		t.Fatalf("expected exit code 2 for flag parse failure, got %d", code)
	}
}

func TestRunMissingTypeUsage(t *testing.T) {
	var buf bytes.Buffer
	code := run([]string{"-addr", "localhost:0"}, &buf)
	if code != 2 {
		t.Fatalf("expected exit code 2 when -type is omitted, got %d", code)
	}
	if !strings.Contains(buf.String(), "usage") {
		t.Fatalf("expected usage message, got %q", buf.String())
	}
}

func TestRunInvalidBodyJSON(t *testing.T) {
	var buf bytes.Buffer
	code := run([]string{"-type", "CLK-LIST", "-body", "not json"}, &buf)
	if code != 2 {
		t.Fatalf("expected exit code 2 for invalid -body JSON, got %d", code)
	}
}

func TestRunDialFailure(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	addr := ln.Addr().String()
	ln.Close() // nothing listening now

	var buf bytes.Buffer
	code := run([]string{"-addr", addr, "-type", "CLK-LIST", "-timeout", "200ms"}, &buf)
	if code != 1 {
		t.Fatalf("expected exit code 1 on dial failure, got %d", code)
	}
}

// TestRunSendsAndPrintsResponse starts a one-shot TCP server that echoes
// back a CLK-LIST response to whatever it receives, and checks flockctl
// prints the decoded envelope.
func TestRunSendsAndPrintsResponse(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	done := make(chan struct{})
	go func() {
		defer close(done)
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()

		scanner := bufio.NewScanner(conn)
		if !scanner.Scan() {
			return
		}
		var req fwmsg.Envelope
		if err := json.Unmarshal(scanner.Bytes(), &req); err != nil {
			return
		}

		resp := fwmsg.Envelope{
			Version:       fwmsg.ProtocolVersion,
			ID:            "server-1",
			CorrelationID: req.ID,
			Body:          fwmsg.Body{"type": "CLK-LIST", "ids": []string{"system"}},
		}
		raw, _ := json.Marshal(resp)
		conn.Write(append(raw, '\n'))
	}()

	var buf bytes.Buffer
	code := run([]string{"-addr", ln.Addr().String(), "-type", "CLK-LIST", "-timeout", "2s"}, &buf)
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d (output: %s)", code, buf.String())
	}
	if !strings.Contains(buf.String(), "CLK-LIST") {
		t.Fatalf("expected printed response to mention CLK-LIST, got %q", buf.String())
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("server goroutine did not finish")
	}
}
