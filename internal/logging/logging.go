// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging configures the process-wide slog logger: text output
// to stderr plus an append-only app.log under the data root.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Setup builds the logger and installs it as the slog default. The
// returned closer flushes and closes the log file. An empty dataRoot
// logs to stderr only.
func Setup(dataRoot, level string) (*slog.Logger, func() error, error) {
	var w io.Writer = os.Stderr
	closer := func() error { return nil }

	if dataRoot != "" {
		dir := filepath.Join(dataRoot, "logs")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, fmt.Errorf("creating logs directory: %w", err)
		}
		file, err := os.OpenFile(filepath.Join(dir, "app.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("opening app.log: %w", err)
		}
		w = io.MultiWriter(os.Stderr, file)
		closer = file.Close
	}

	log := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{
		Level: levelFromString(level),
	}))
	slog.SetDefault(log)
	return log, closer, nil
}

func levelFromString(value string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
