// Package runtimebp ties long running secretsbp loops to the process
// lifecycle.
package runtimebp

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

// ShutdownHandler is the callback type used in HandleShutdown.
type ShutdownHandler func(signal os.Signal)

var defaultSignals = []os.Signal{
	// For ^C
	os.Interrupt,
	// Ref: https://kubernetes.io/docs/concepts/workloads/pods/pod/#termination-of-pods
	syscall.SIGTERM,
}

func shutdownSignals(extra []os.Signal) []os.Signal {
	sig := make([]os.Signal, 0, len(defaultSignals)+len(extra))
	sig = append(sig, defaultSignals...)
	return append(sig, extra...)
}

// HandleShutdown calls handler on the first shutdown signal.
//
// It blocks until ctx is done or a signal arrives, whichever comes first,
// so it should usually be started in its own goroutine.
//
// SIGTERM and os.Interrupt are always handled,
// the signals vararg is for any additional signals you wish to handle.
func HandleShutdown(ctx context.Context, handler ShutdownHandler, signals ...os.Signal) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, shutdownSignals(signals)...)
	defer signal.Stop(c)

	select {
	case sig := <-c:
		handler(sig)
	case <-ctx.Done():
	}
}

// ShutdownContext returns a context that is cancelled on the first shutdown
// signal, or when cancel is called.
//
// It's meant for the watch loops:
//
//	ctx, cancel := runtimebp.ShutdownContext(context.Background())
//	defer cancel()
//	vaultkv.Watch(ctx, client, cfg)
func ShutdownContext(parent context.Context, signals ...os.Signal) (ctx context.Context, cancel context.CancelFunc) {
	return signal.NotifyContext(parent, shutdownSignals(signals)...)
}
