// Package main is the entry point for flockctl, a tiny CLI client that
// dials a running flockd instance's TCP channel and sends one Flockwave
// message (spec.md §6's "inbound bytes -> parsed JSON message" transport
// contract, the client side of it), printing whatever comes back.
//
// Grounded on cmd/thane's "ask" one-shot subcommand (cmd/thane/main.go's
// runAsk: parse a question, build one request, print the answer, exit)
// adapted from an in-process agent call to a networked Flockwave
// round-trip over internal/channel.TCPTransport's newline-delimited JSON
// framing.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/flockwave/flockd/internal/buildinfo"
	"github.com/flockwave/flockd/internal/fwmsg"
	"github.com/flockwave/flockd/internal/hub"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

// run implements the launcher so tests can exercise it without calling
// os.Exit directly, mirroring cmd/flockd's run(args, out) shape.
func run(args []string, out io.Writer) int {
	fs := flag.NewFlagSet("flockctl", flag.ContinueOnError)
	fs.SetOutput(out)
	addr := fs.String("addr", "localhost:5001", "address of the server's TCP channel")
	msgType := fs.String("type", "", "message body \"type\" to send, e.g. CLK-LIST")
	bodyJSON := fs.String("body", "{}", "extra body fields as a JSON object, merged under \"type\"")
	timeout := fs.Duration("timeout", 5*time.Second, "how long to wait for a response")
	versionFlag := fs.Bool("version", false, "print version and exit")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	if *versionFlag {
		fmt.Fprintf(out, "flockctl (%s)\n", buildinfo.String())
		return 0
	}

	if *msgType == "" {
		fmt.Fprintln(out, "usage: flockctl -type <MESSAGE-TYPE> [-body <json>] [-addr host:port]")
		return 2
	}

	var extra map[string]any
	if err := json.Unmarshal([]byte(*bodyJSON), &extra); err != nil {
		fmt.Fprintf(out, "flockctl: invalid -body JSON: %v\n", err)
		return 2
	}

	reply, err := send(*addr, *msgType, extra, *timeout)
	if err != nil {
		fmt.Fprintf(out, "flockctl: %v\n", err)
		return 1
	}

	encoded, err := json.MarshalIndent(reply, "", "  ")
	if err != nil {
		fmt.Fprintf(out, "flockctl: encode response: %v\n", err)
		return 1
	}
	fmt.Fprintln(out, string(encoded))
	return 0
}

// send dials addr, writes one newline-delimited Flockwave message built
// from msgType/extra, and returns the first line the server writes back.
func send(addr, msgType string, extra map[string]any, timeout time.Duration) (*fwmsg.Envelope, error) {
	conn, err := net.DialTimeout("tcp", addr, timeout)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	body := fwmsg.Body{"type": msgType}
	for k, v := range extra {
		body[k] = v
	}
	req := hub.NewBuilder().CreateMessage(body)

	raw, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	if err := conn.SetDeadline(time.Now().Add(timeout)); err != nil {
		return nil, fmt.Errorf("set deadline: %w", err)
	}
	if _, err := conn.Write(append(raw, '\n')); err != nil {
		return nil, fmt.Errorf("write request: %w", err)
	}

	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read response: %w", err)
		}
		return nil, fmt.Errorf("read response: connection closed with no reply")
	}

	var resp fwmsg.Envelope
	if err := json.Unmarshal(scanner.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}
