package internal

import (
	"context"
	"log/slog"
	"net"
	"time"
)

// RunOption configures App.Run.
type RunOption func(*serverConfig)

// serverConfig is everything runServer needs besides the handler.
type serverConfig struct {
	baseCtx         context.Context
	logger          *slog.Logger
	onListen        func(net.Addr)
	address         string
	shutdownHooks   []func(context.Context) error
	readTimeout     time.Duration
	writeTimeout    time.Duration
	idleTimeout     time.Duration
	shutdownTimeout time.Duration
}

func newServerConfig(opts ...RunOption) *serverConfig {
	cfg := &serverConfig{
		baseCtx:         context.Background(),
		address:         defaultAddress,
		readTimeout:     defaultReadTimeout,
		writeTimeout:    defaultWriteTimeout,
		idleTimeout:     defaultIdleTimeout,
		shutdownTimeout: defaultShutdownTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Address sets the listen address. Default ":8080"; "127.0.0.1:0" picks a
// free port, reported through OnListen.
func Address(addr string) RunOption {
	return func(c *serverConfig) {
		if addr != "" {
			c.address = addr
		}
	}
}

// Logger reports server start, shutdown and failed hooks.
func Logger(l *slog.Logger) RunOption {
	return func(c *serverConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// ServerTimeouts overrides the http.Server read, write and idle timeouts.
// Zero keeps the default. The write timeout should exceed the request
// timeout middleware, or slow handlers lose their error page.
func ServerTimeouts(read, write, idle time.Duration) RunOption {
	return func(c *serverConfig) {
		if read > 0 {
			c.readTimeout = read
		}
		if write > 0 {
			c.writeTimeout = write
		}
		if idle > 0 {
			c.idleTimeout = idle
		}
	}
}

// ShutdownTimeout bounds draining in-flight requests and running the
// shutdown hooks together. Default 30s.
func ShutdownTimeout(d time.Duration) RunOption {
	return func(c *serverConfig) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// ShutdownHook runs after the server stopped accepting requests, in
// registration order. A failing hook does not stop the others.
//
//	storefront.ShutdownHook(db.Shutdown(conn))
func ShutdownHook(fn func(context.Context) error) RunOption {
	return func(c *serverConfig) {
		if fn != nil {
			c.shutdownHooks = append(c.shutdownHooks, fn)
		}
	}
}

// OnListen is called with the bound address once the listener is open.
func OnListen(fn func(net.Addr)) RunOption {
	return func(c *serverConfig) {
		c.onListen = fn
	}
}

// WithContext sets the parent of the signal context. Canceling it shuts
// the server down like SIGTERM does.
func WithContext(ctx context.Context) RunOption {
	return func(c *serverConfig) {
		if ctx != nil {
			c.baseCtx = ctx
		}
	}
}
