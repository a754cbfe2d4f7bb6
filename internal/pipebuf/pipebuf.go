package pipebuf

import "fmt"

// defaultInitialCap is the starting allocation for a fresh PipeBuf. Most
// pixelflut commands fit comfortably inside it; it grows only when a
// connection pipelines many commands faster than the codec drains them.
const defaultInitialCap = 4096

// PipeBuf holds the unconsumed bytes read from one connection.
//
// Layout: buf[:start] has already been consumed and is free space available
// for compaction; buf[start:end] is the unconsumed region handed to the
// codec; buf[end:cap(buf)] is free space available for the next read.
//
//	0        start        end        cap(buf)
//	| consumed | unconsumed | free     |
//
// Growth is bounded by maxCap: once the buffer reaches it, Reserve returns
// an error rather than growing further (a client sending more unconsumed
// bytes than maxCap without ever completing a command is misbehaving or
// attacking the server, not pipelining legitimately).
type PipeBuf struct {
	buf    []byte
	start  int // consumer position: start of unconsumed data
	end    int // producer position: end of unconsumed data
	maxCap int
}

// New allocates a PipeBuf that grows up to maxCap bytes.
func New(maxCap int) *PipeBuf {
	initial := defaultInitialCap
	if initial > maxCap {
		initial = maxCap
	}
	return &PipeBuf{
		buf:    make([]byte, initial),
		maxCap: maxCap,
	}
}

// Unconsumed returns the slice of bytes not yet consumed. The codec treats
// this slice as read-only input; call Consume to advance past a prefix of
// it once a command has been fully parsed and executed.
func (p *PipeBuf) Unconsumed() []byte {
	return p.buf[p.start:p.end]
}

// Len reports how many unconsumed bytes are currently buffered.
func (p *PipeBuf) Len() int {
	return p.end - p.start
}

// Consume marks the first n bytes of Unconsumed() as processed. It panics
// if n is negative or exceeds Len(), both of which indicate a codec bug.
func (p *PipeBuf) Consume(n int) {
	if n < 0 || n > p.Len() {
		panic(fmt.Sprintf("pipebuf: Consume(%d) out of range, Len()=%d", n, p.Len()))
	}
	p.start += n
	if p.start == p.end {
		// Fully drained: reset to the front of the buffer so the next
		// Reserve doesn't need to grow or compact.
		p.start, p.end = 0, 0
	}
}

// Reserve ensures at least n bytes of contiguous free space after the
// unconsumed region and returns that slice for the caller (typically
// net.Conn.Read) to fill. The caller must follow a successful Reserve with
// exactly one Produced call reporting how many of those bytes were
// actually written.
//
// Reserve compacts the buffer (sliding the unconsumed region down to index
// 0) before growing, so steady partial-command traffic does not grow the
// buffer indefinitely. It returns an error only when satisfying n would
// require growing past maxCap.
func (p *PipeBuf) Reserve(n int) ([]byte, error) {
	if free := len(p.buf) - p.end; free >= n {
		return p.buf[p.end : p.end+n], nil
	}

	unconsumed := p.Len()
	if unconsumed+n <= len(p.buf) {
		copy(p.buf, p.buf[p.start:p.end])
		p.start, p.end = 0, unconsumed
		return p.buf[p.end : p.end+n], nil
	}

	needed := unconsumed + n
	if needed > p.maxCap {
		return nil, fmt.Errorf("pipebuf: requested %d bytes would grow buffer to %d, exceeding max %d", n, needed, p.maxCap)
	}
	grown := make([]byte, needed)
	copy(grown, p.buf[p.start:p.end])
	p.buf = grown
	p.start, p.end = 0, unconsumed
	return p.buf[p.end : p.end+n], nil
}

// Produced records that n bytes returned by the most recent Reserve call
// were actually written (e.g. the count returned by net.Conn.Read),
// extending the unconsumed region by that much.
func (p *PipeBuf) Produced(n int) {
	if n < 0 || p.end+n > len(p.buf) {
		panic(fmt.Sprintf("pipebuf: Produced(%d) out of range", n))
	}
	p.end += n
}
