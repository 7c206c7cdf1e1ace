package main

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// workerGroup runs background loops that stop when their context ends.
type workerGroup struct {
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newWorkerGroup(parent context.Context) *workerGroup {
	ctx, cancel := context.WithCancel(parent)
	return &workerGroup{ctx: ctx, cancel: cancel}
}

// Go starts fn with the group's context.
func (g *workerGroup) Go(fn func(ctx context.Context)) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		fn(g.ctx)
	}()
}

// Stop cancels the workers and waits for them.  It is safe to call more
// than once.
func (g *workerGroup) Stop() {
	g.cancel()
	g.wg.Wait()
}

// serve runs start until ctx ends or start fails, then shuts the server
// down and stops the workers.  A start error is returned after the
// workers have stopped.
func serve(ctx context.Context, start func() error, shutdown func(context.Context) error, workers *workerGroup, log *zap.Logger) error {
	errc := make(chan error, 1)
	go func() {
		if err := start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	var startErr error
	select {
	case startErr = <-errc:
	case <-ctx.Done():
	}
	if startErr != nil {
		workers.Stop()
		return startErr
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	err := shutdown(shutdownCtx)
	workers.Stop()
	return err
}
