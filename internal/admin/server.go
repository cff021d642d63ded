// Package admin serves the prometheus metrics and pprof endpoints of the
// long running secretsdemo commands.
package admin

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/pprof"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/podlab/secretsbp.go/batchcloser"
	"github.com/podlab/secretsbp.go/log"
)

// DefaultAdminAddr is the address suggested for the admin server.
const DefaultAdminAddr = ":6060"

// MsgServeFailed is logged at error level when the admin server stops on its
// own.
const MsgServeFailed = "admin server failed"

const shutdownTimeout = time.Second

// NewServeMux returns a ServeMux with the following routes:
//
//	/metrics       prometheus metrics
//	/debug/pprof/  profiling, ref: https://pkg.go.dev/net/http/pprof
func NewServeMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/debug/pprof/", pprof.Index)
	mux.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	mux.HandleFunc("/debug/pprof/profile", pprof.Profile)
	mux.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	mux.HandleFunc("/debug/pprof/trace", pprof.Trace)
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// Serve listens on addr and serves NewServeMux in the background.
//
// The returned address is the one actually listened on, which differs from
// addr for port 0. Closing the returned io.Closer shuts the server down.
func Serve(addr string, logger log.Wrapper) (net.Addr, io.Closer, error) {
	logger = log.OrNop(logger)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, nil, err
	}
	server := &http.Server{
		Handler:           NewServeMux(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw(MsgServeFailed, "addr", ln.Addr().String(), "err", err)
		}
	}()
	return ln.Addr(), batchcloser.Wrap(func() error {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(ctx)
	}), nil
}
