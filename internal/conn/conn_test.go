package conn

import (
	"bufio"
	"context"
	"net"
	"testing"
	"time"

	"pixelflut/internal/config"
	"pixelflut/internal/pixmap"
	"pixelflut/internal/stats"
)

func newTestConn(t *testing.T, width, height int) (*Conn, net.Conn) {
	t.Helper()
	return newTestConnWithConfig(t, width, height, func(*config.Config) {})
}

func newTestConnWithConfig(t *testing.T, width, height int, mutate func(*config.Config)) (*Conn, net.Conn) {
	t.Helper()
	pix, err := pixmap.New(width, height)
	if err != nil {
		t.Fatal(err)
	}
	counters := &stats.Counters{}
	cfg := config.Default()
	cfg.Width, cfg.Height = width, height
	mutate(&cfg)

	server, client := net.Pipe()
	c := New(server, pix, counters, cfg)
	return c, client
}

func TestConnSizeQuery(t *testing.T) {
	c, client := newTestConn(t, 100, 200)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		c.Serve(ctx)
		close(done)
	}()

	if _, err := client.Write([]byte("SIZE\n")); err != nil {
		t.Fatal(err)
	}
	reader := bufio.NewReader(client)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if line != "SIZE 100 200\n" {
		t.Fatalf("got %q, want %q", line, "SIZE 100 200\n")
	}

	client.Close()
	<-done
}

func TestConnSetThenQuery(t *testing.T) {
	c, client := newTestConn(t, 100, 100)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		c.Serve(ctx)
		close(done)
	}()

	if _, err := client.Write([]byte("PX 10 20 ff0000\nPX 10 20\n")); err != nil {
		t.Fatal(err)
	}
	reader := bufio.NewReader(client)
	line, err := reader.ReadString('\n')
	if err != nil {
		t.Fatal(err)
	}
	if line != "PX 10 20 ff0000\n" {
		t.Fatalf("got %q, want %q", line, "PX 10 20 ff0000\n")
	}

	r, g, b, a := c.pix.Get(10, 20)
	if r != 0xFF || g != 0 || b != 0 || a != 0xFF {
		t.Fatalf("pixmap not updated: (%02x,%02x,%02x,%02x)", r, g, b, a)
	}

	client.Close()
	<-done
}

func TestConnClosesOnClientEOF(t *testing.T) {
	c, client := newTestConn(t, 10, 10)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		c.Serve(ctx)
		close(done)
	}()

	client.Close()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after client EOF")
	}

	if snap := c.counters.Snapshot(); snap.ClientsCurrent != 0 {
		t.Fatalf("ClientsCurrent = %d, want 0 after disconnect", snap.ClientsCurrent)
	}
}

func TestConnQuitClosesConnection(t *testing.T) {
	c, client := newTestConn(t, 10, 10)
	defer client.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		c.Serve(ctx)
		close(done)
	}()

	if _, err := client.Write([]byte("QUIT\n")); err != nil {
		t.Fatal(err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after QUIT")
	}

	if snap := c.counters.Snapshot(); snap.ClientsCurrent != 0 {
		t.Fatalf("ClientsCurrent = %d, want 0 after QUIT", snap.ClientsCurrent)
	}
}

func TestConnIdleTimeoutClosesConnection(t *testing.T) {
	c, client := newTestConnWithConfig(t, 10, 10, func(cfg *config.Config) {
		cfg.IdleTimeout = 50 * time.Millisecond
	})
	defer client.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		c.Serve(ctx)
		close(done)
	}()

	// Send nothing; the connection should time out on its own.
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after idle timeout")
	}

	if snap := c.counters.Snapshot(); snap.ClientsCurrent != 0 {
		t.Fatalf("ClientsCurrent = %d, want 0 after idle timeout", snap.ClientsCurrent)
	}
}

func TestConnExitsOnShutdownSignal(t *testing.T) {
	c, client := newTestConn(t, 10, 10)
	defer client.Close()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		c.Serve(ctx)
		close(done)
	}()

	// Give Serve a chance to enter its loop, then cancel.
	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Serve did not return after shutdown signal")
	}
}
