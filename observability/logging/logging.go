package logging

import (
	"io"
	"log"
	"log/slog"
	"os"
	"strings"
)

// Environment tags that run the daemon at info level. Anything else,
// including an empty Env in the config, is treated as a development setup
// and logs at debug.
var productionEnvs = map[string]bool{
	"prod":       true,
	"production": true,
}

// Setup installs the process-wide structured logger for the ledger daemon.
// Output is one JSON object per line on stdout with the service name and
// environment stamped on every record; log collection is the supervisor's
// job, so no files or rotation are handled here. The returned logger becomes
// the slog default and the stdlib logger is bridged into the same handler so
// dependency output keeps the JSON shape.
func Setup(service, env string) *slog.Logger {
	return setup(os.Stdout, service, env)
}

func setup(w io.Writer, service, env string) *slog.Logger {
	env = strings.TrimSpace(env)
	level := slog.LevelDebug
	if productionEnvs[strings.ToLower(env)] {
		level = slog.LevelInfo
	}

	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})

	attrs := []slog.Attr{slog.String("service", strings.TrimSpace(service))}
	if env != "" {
		attrs = append(attrs, slog.String("env", env))
	}
	stamped := handler.WithAttrs(attrs)

	base := slog.New(stamped)
	slog.SetDefault(base)

	bridge := slog.NewLogLogger(stamped, slog.LevelInfo)
	log.SetOutput(bridge.Writer())
	log.SetFlags(0)
	log.SetPrefix("")

	return base
}
