package conn

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"pixelflut/internal/cmdexec"
	"pixelflut/internal/codec"
	"pixelflut/internal/config"
	"pixelflut/internal/pipebuf"
	"pixelflut/internal/pixmap"
	"pixelflut/internal/ratelimit"
	"pixelflut/internal/stats"
)

// readChunk is how many bytes a single socket Read attempts to fill per
// loop iteration. Bigger than a single command so a pipelining client
// drains in one pass; small enough not to waste memory on a quiet socket.
const readChunk = 4096

// Conn owns one accepted TCP socket and its exclusive input/output
// buffers. It is a cooperative task: the call to Serve runs until the
// socket closes, errors, idles out, or ctx is cancelled, and does all its
// work — read, decode, execute, write — on the calling goroutine. Go's
// runtime parks that goroutine on a blocking Read or Write exactly at the
// suspension points the design calls for ("await readability", "await
// writability"); no explicit non-blocking I/O or select-on-fd is needed
// to get that property here.
type Conn struct {
	nc       net.Conn
	id       string
	pix      *pixmap.Pixmap
	counters *stats.Counters

	in  *pipebuf.PipeBuf
	out *pipebuf.PipeBuf

	codecOpts   codec.Options
	outMaxBytes int
	idleTimeout time.Duration
	bwLimiter   *ratelimit.Limiter
}

// New wraps an accepted socket as a Conn. It sets TCP_NODELAY (replies are
// short and latency-sensitive, Nagle buys nothing here) and assigns a
// correlation id used only in log output.
func New(nc net.Conn, pix *pixmap.Pixmap, counters *stats.Counters, cfg config.Config) *Conn {
	if tc, ok := nc.(*net.TCPConn); ok {
		if err := tc.SetNoDelay(true); err != nil {
			slog.Warn("conn: failed to set TCP_NODELAY", "error", err)
		}
	}
	width, height := pix.Dimensions()
	return &Conn{
		nc:       nc,
		id:       uuid.NewString(),
		pix:      pix,
		counters: counters,
		in:       pipebuf.New(cfg.InputBufferMaxBytes),
		out:      pipebuf.New(cfg.OutputBufferMaxBytes),
		codecOpts: codec.Options{
			Width:         width,
			Height:        height,
			BinaryEnabled: cfg.BinaryEnabled,
			MaxLineLen:    cfg.MaxLineLen,
			BWLimitBps:    cfg.BWLimitBps,
		},
		outMaxBytes: cfg.OutputBufferMaxBytes,
		idleTimeout: cfg.IdleTimeout,
		bwLimiter:   ratelimit.New(cfg.BWLimitBps),
	}
}

// Serve runs the connection's main loop to completion. It always closes
// the socket and decrements the current-clients counter before returning,
// and never panics out to its caller: a panic anywhere in the loop is
// caught, logged with a stack trace, and treated as a connection drop —
// it must never take down the listener or any other connection.
func (c *Conn) Serve(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("conn: panic recovered, dropping connection",
				"conn_id", c.id,
				"panic", r,
				"stack", string(debug.Stack()),
			)
		}
		c.counters.ClientDisconnected()
		_ = c.nc.Close()
	}()

	c.counters.ClientConnected()
	slog.Debug("conn: accepted", "conn_id", c.id, "remote_addr", c.nc.RemoteAddr())

	// A blocked socket Read does not observe ctx directly — net.Conn has no
	// context-aware Read. This watcher is the suspension point's bridge: on
	// shutdown it forces any in-flight Read to return immediately by
	// expiring the read deadline, which the loop below recognizes via
	// shuttingDown rather than misreporting it as an idle timeout.
	var shuttingDown atomic.Bool
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			shuttingDown.Store(true)
			_ = c.nc.SetReadDeadline(time.Now())
		case <-watchDone:
		}
	}()

	var scratch []byte
	for {
		if shuttingDown.Load() {
			slog.Debug("conn: shutdown signalled", "conn_id", c.id)
			return
		}

		if c.out.Len() > 0 {
			n, err := c.nc.Write(c.out.Unconsumed())
			if n > 0 {
				c.out.Consume(n)
			}
			if err != nil {
				slog.Info("conn: write error, closing", "conn_id", c.id, "error", err)
				return
			}
		}

		if c.idleTimeout > 0 {
			if err := c.nc.SetReadDeadline(time.Now().Add(c.idleTimeout)); err != nil {
				slog.Info("conn: failed to set read deadline, closing", "conn_id", c.id, "error", err)
				return
			}
		}

		allowed, wait := c.bwLimiter.Allow(readChunk)
		if allowed == 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
			}
			continue
		}

		dst, err := c.in.Reserve(allowed)
		if err != nil {
			// The client is pipelining faster than we can drain it and has
			// exceeded the input buffer's hard cap: not recoverable.
			slog.Info("conn: input buffer exceeded max capacity, closing", "conn_id", c.id, "error", err)
			return
		}
		n, err := c.nc.Read(dst)
		if n > 0 {
			c.in.Produced(n)
			c.counters.AddBytesRead(uint64(n))
		}
		if err != nil {
			switch {
			case shuttingDown.Load():
				slog.Debug("conn: shutdown signalled", "conn_id", c.id)
			case errors.Is(err, io.EOF):
				slog.Debug("conn: client disconnected", "conn_id", c.id)
			case isTimeout(err):
				slog.Info("conn: idle timeout, closing", "conn_id", c.id)
			default:
				slog.Info("conn: read error, closing", "conn_id", c.id, "error", err)
			}
			c.drain(&scratch) // flush whatever full commands already arrived
			return
		}

		if quit := c.drain(&scratch); quit {
			slog.Debug("conn: client sent QUIT, closing", "conn_id", c.id)
			c.flushOut()
			return
		}
	}
}

// drain repeatedly decodes and executes commands from the input buffer
// until the codec reports "need more bytes" or the output buffer has hit
// its cap (backpressure: stop producing replies and let the next write
// flush before accepting more work). It returns true the instant a QUIT
// command is decoded; anything still unconsumed in the input buffer is
// left behind, since the connection is closing either way.
func (c *Conn) drain(scratch *[]byte) (quit bool) {
	for {
		if c.out.Len() >= c.outMaxBytes {
			return false
		}
		cmd, consumed, ok := codec.Decode(c.in.Unconsumed(), c.codecOpts)
		if !ok {
			return false
		}
		c.in.Consume(consumed)

		if cmd.Kind == codec.KindQuit {
			return true
		}

		*scratch = cmdexec.Exec(cmd, c.pix, c.counters, (*scratch)[:0])
		c.writeReply(*scratch)
	}
}

// flushOut makes a best-effort final write of any buffered reply bytes
// before the socket closes (e.g. after a QUIT).
func (c *Conn) flushOut() {
	if c.out.Len() == 0 {
		return
	}
	n, err := c.nc.Write(c.out.Unconsumed())
	if n > 0 {
		c.out.Consume(n)
	}
	if err != nil {
		slog.Info("conn: write error while flushing before close", "conn_id", c.id, "error", err)
	}
}

// writeReply copies reply bytes into the output buffer. If the output
// buffer is already at its cap, the reply is dropped silently — per the
// error handling policy, the pipeline must never block on a slow reader
// over an optional reply.
func (c *Conn) writeReply(reply []byte) {
	if len(reply) == 0 {
		return
	}
	dst, err := c.out.Reserve(len(reply))
	if err != nil {
		return
	}
	copy(dst, reply)
	c.out.Produced(len(reply))
}

func isTimeout(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return errors.Is(err, os.ErrDeadlineExceeded)
}
