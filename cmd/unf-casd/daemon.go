package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"
	"google.golang.org/grpc"

	"xdao.co/unf/dataset"
	"xdao.co/unf/internal/logging"
	"xdao.co/unf/storage"
	"xdao.co/unf/storage/grpccas"
)

// daemon serves one report store over gRPC. Only one instance may hold the
// lock file at a time.
type daemon struct {
	cas     storage.CAS
	backend string
	logger  *slog.Logger

	lockPath string
	lock     *flock.Flock

	maxMsgBytes int
	server      *grpc.Server
	running     atomic.Bool
}

func newDaemon(cas storage.CAS, backend, lockPath string, maxMsgBytes int, logger *slog.Logger) (*daemon, error) {
	if cas == nil || logger == nil {
		return nil, errors.New("daemon requires a store and a logger")
	}
	if lockPath == "" {
		return nil, errors.New("daemon requires a lock path")
	}
	return &daemon{
		cas:         cas,
		backend:     backend,
		logger:      logger,
		lockPath:    lockPath,
		lock:        flock.New(lockPath),
		maxMsgBytes: maxMsgBytes,
	}, nil
}

// start acquires the lock and builds the gRPC server.
func (d *daemon) start() error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := os.MkdirAll(filepath.Dir(d.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("another unf-casd instance holds %s", d.lockPath)
	}

	opts := []grpc.ServerOption{
		grpc.ChainUnaryInterceptor(grpccas.UnaryServerLogger(d.logger)),
	}
	if d.maxMsgBytes > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(d.maxMsgBytes), grpc.MaxSendMsgSize(d.maxMsgBytes))
	}
	d.server = grpc.NewServer(opts...)
	grpccas.RegisterCASServer(d.server, &grpccas.Server{
		CAS:      d.cas,
		Validate: dataset.ValidateCanonical,
		Logger:   d.logger,
	})
	d.running.Store(true)
	d.logger.Info("unf-casd started", logging.String("lock", d.lockPath), logging.String("backend", d.backend))
	return nil
}

// serve accepts connections on lis until ctx is done, then drains in-flight
// calls.
func (d *daemon) serve(ctx context.Context, lis net.Listener) error {
	if !d.running.Load() {
		return errors.New("daemon not started")
	}
	d.logger.Info("listening", logging.String("addr", lis.Addr().String()))

	errc := make(chan error, 1)
	go func() { errc <- d.server.Serve(lis) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		d.logger.Info("shutting down")
		d.server.GracefulStop()
		<-errc
		return nil
	}
}

// stop releases the lock. It is safe to call more than once.
func (d *daemon) stop() {
	if !d.running.Swap(false) {
		return
	}
	if d.server != nil {
		d.server.Stop()
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.logger.Info("unf-casd stopped")
}
