// Package flog centralises the server kernel's log/slog setup: a
// custom TRACE level below Debug for wire-level forensics (schema
// rejections, dropped broadcasts, watchdog retries) and the level-name
// parsing every entry point shares. Every component in this kernel
// logs through a *slog.Logger obtained here rather than reaching for
// fmt.Println, matching the teacher's config.ParseLogLevel /
// ReplaceLogLevelNames + slog.NewTextHandler wiring.
package flog

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// LevelTrace is a custom log level below Debug, reused throughout the
// kernel for high-volume forensic detail (every schema rejection,
// every dropped broadcast, every watchdog retry) that would otherwise
// drown out Debug-level messages.
const LevelTrace = slog.Level(-8)

// ParseLevel converts a string to a slog.Level. Supported values:
// trace, debug, info, warn, error (case-insensitive); "" defaults to
// info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "trace":
		return LevelTrace, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q (valid: trace, debug, info, warn, error)", s)
	}
}

// ReplaceLevelNames is a slog.HandlerOptions.ReplaceAttr hook that
// renders LevelTrace as "TRACE" instead of slog's default "DEBUG-4".
func ReplaceLevelNames(_ []string, a slog.Attr) slog.Attr {
	if a.Key == slog.LevelKey {
		if level, ok := a.Value.Any().(slog.Level); ok && level == LevelTrace {
			a.Value = slog.StringValue("TRACE")
		}
	}
	return a
}

// New builds the kernel's standard logger: a text handler at the
// given level with TRACE rendered by name, writing to w.
func New(w io.Writer, levelName string) (*slog.Logger, error) {
	level, err := ParseLevel(levelName)
	if err != nil {
		return nil, err
	}
	h := slog.NewTextHandler(w, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: ReplaceLevelNames,
	})
	return slog.New(h), nil
}
