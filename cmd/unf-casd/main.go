// Command unf-casd serves a configured report store over gRPC so that
// several machines can publish and fetch UNF reports by CID.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"

	"xdao.co/unf/config"
	"xdao.co/unf/internal/logging"
	"xdao.co/unf/storage/casregistry"

	_ "xdao.co/unf/storage/grpccas"
	_ "xdao.co/unf/storage/ipfs"
	_ "xdao.co/unf/storage/localfs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr, nil)
	stop()
	os.Exit(code)
}

// run parses args and serves until ctx is done. When ready is non-nil the
// bound listen address is sent on it once the server accepts connections.
func run(ctx context.Context, args []string, stdout, stderr io.Writer, ready chan<- string) int {
	fs := flag.NewFlagSet("unf-casd", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "Configuration file (default ~/.config/unf/config.toml)")
	listen := fs.String("listen", "", "Listen address (overrides daemon.listen)")
	backend := fs.String("backend", "", "Store backend to serve (overrides daemon.backend)")
	lockPath := fs.String("lock", "", "Lock file (overrides daemon.lock_path)")
	logLevel := fs.String("log-level", "", "Log level override")
	listBackends := fs.Bool("list-backends", false, "List supported backends and exit")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 0 {
		fmt.Fprintf(stderr, "unexpected arguments: %v\n", fs.Args())
		return 2
	}

	if *listBackends {
		for _, b := range casregistry.List(casregistry.UsageDaemon) {
			if b.Description == "" {
				_, _ = fmt.Fprintf(stdout, "%s\n", b.Name)
				continue
			}
			_, _ = fmt.Fprintf(stdout, "%s\t%s\n", b.Name, b.Description)
		}
		return 0
	}

	cfg, _, _, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	if *listen != "" {
		cfg.Daemon.Listen = *listen
	}
	if *backend != "" {
		cfg.Daemon.Backend = *backend
	}
	if *lockPath != "" {
		cfg.Daemon.LockPath = *lockPath
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logOpts := logging.Options{Level: cfg.Logging.Level, Format: cfg.Logging.Format, Writer: stderr}
	if cfg.Logging.File != "" {
		logOpts.Writer = nil
		logOpts.OutputPaths = []string{"stderr", cfg.Logging.File}
	}
	logger, err := logging.New(logOpts)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	logger = logging.NewComponentLogger(logger, "casd")

	cas, closeFn, err := cfg.Store.Open(casregistry.UsageDaemon, cfg.Daemon.Backend)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	defer func() {
		if closeFn != nil {
			if err := closeFn(); err != nil {
				logger.Warn("close store", logging.Error(err))
			}
		}
	}()

	d, err := newDaemon(cas, backendLabel(cfg), cfg.Daemon.LockPath, cfg.Daemon.MaxMsgBytes, logger)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if err := d.start(); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer d.stop()

	lis, err := net.Listen("tcp", cfg.Daemon.Listen)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if ready != nil {
		ready <- lis.Addr().String()
	}
	if err := d.serve(ctx, lis); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	return 0
}

func backendLabel(cfg *config.Config) string {
	if cfg.Daemon.Backend != "" {
		return cfg.Daemon.Backend
	}
	return cfg.Store.Backends[0].Label()
}
