package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/victorbjor/security-bot/internal/probe"
	"github.com/victorbjor/security-bot/pkg/logger"
)

// Default configuration constants.
const (
	defaultListenFor = 30 * time.Second
	defaultTimeout   = 30 * time.Second
	defaultRunLimit  = 10 * time.Minute
)

func main() {
	var (
		baseURL   = flag.String("url", "http://localhost:8000", "Base URL of the service")
		listenFor = flag.Duration("listen", defaultListenFor, "How long to subscribe to the verdict stream")
		renameTo  = flag.String("rename", "", "Rename the current top threat entry to this name")
		timeout   = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		verbose   = flag.Bool("verbose", false, "Log each verdict as it arrives")
	)
	flag.Parse()

	if err := logger.Init(); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		return
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), defaultRunLimit)
	defer cancel()

	cfg := &probe.Config{
		BaseURL:   *baseURL,
		ListenFor: *listenFor,
		RenameTo:  *renameTo,
		Timeout:   *timeout,
		Verbose:   *verbose,
	}

	if err := probe.Run(ctx, cfg); err != nil {
		os.Stderr.WriteString("Probe failed: " + err.Error() + "\n")
		os.Exit(1)
	}
}
