package listener

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"sync"

	"pixelflut/internal/config"
	"pixelflut/internal/conn"
	"pixelflut/internal/pixmap"
	"pixelflut/internal/stats"
)

// Listener owns the bound TCP socket and spawns one conn.Conn goroutine per
// accepted connection.
//
// clients_total and clients_current are incremented and decremented inside
// Conn.Serve rather than here: that keeps the increment/decrement pair in
// one function, so a Conn that is constructed directly (as the conn
// package's own tests do, bypassing a Listener) can never leave
// clients_current unbalanced.
type Listener struct {
	ln       net.Listener
	pix      *pixmap.Pixmap
	counters *stats.Counters
	cfg      config.Config
	wg       sync.WaitGroup
}

// New binds cfg.Host. The returned Listener is not accepting connections
// yet; call Run to start the accept loop.
func New(cfg config.Config, pix *pixmap.Pixmap, counters *stats.Counters) (*Listener, error) {
	ln, err := net.Listen("tcp", cfg.Host)
	if err != nil {
		return nil, fmt.Errorf("listener: listen %s: %w", cfg.Host, err)
	}
	return &Listener{ln: ln, pix: pix, counters: counters, cfg: cfg}, nil
}

// Addr returns the bound address, useful when cfg.Host used port 0.
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Run accepts connections until ctx is cancelled or Accept fails for a
// reason other than the listener having been closed for shutdown. It
// blocks until every spawned Conn has returned from Serve, so that by the
// time Run returns, no connection goroutine is still running.
func (l *Listener) Run(ctx context.Context) error {
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			_ = l.ln.Close()
		case <-watchDone:
		}
	}()

	for {
		nc, err := l.ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				slog.Info("listener: accept loop stopping, shutdown signalled")
				l.wg.Wait()
				return nil
			default:
			}
			if errors.Is(err, net.ErrClosed) {
				l.wg.Wait()
				return nil
			}
			return fmt.Errorf("listener: accept: %w", err)
		}

		c := conn.New(nc, l.pix, l.counters, l.cfg)
		l.wg.Add(1)
		go func() {
			defer l.wg.Done()
			c.Serve(ctx)
		}()
	}
}
