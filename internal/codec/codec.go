package codec

import "bytes"

// Kind tags the variant of a decoded Command.
type Kind uint8

const (
	// KindEmpty is an empty text line: the '\n' is consumed, nothing
	// happens, no reply is produced.
	KindEmpty Kind = iota
	KindSize
	KindHelp
	KindQuit
	KindPXQuery
	KindPXSet
	KindError
)

// Command is one fully decoded frame, ready for execution.
type Command struct {
	Kind Kind

	X, Y       int
	R, G, B, A uint8
	ErrMsg     string // set when Kind == KindError
}

// Options configures how Decode interprets the byte stream: the canvas
// bounds a PX coordinate must fall within, whether the binary PB frame is
// recognized, and the hard cap on a text line's length.
//
// BWLimitBps is not read by Decode at all — Decode only ever sees bytes
// already sitting in memory, never the socket. It rides along on Options
// because Conn builds one Options value per connection from the same
// config.Config; Conn paces its socket reads with an
// internal/ratelimit.Limiter built from that config value directly, and
// nothing reads this field back from Options.
type Options struct {
	Width, Height int
	BinaryEnabled bool
	MaxLineLen    int // includes the terminating '\n'; the spec default is 64
	BWLimitBps    int // bits per second per connection; 0 disables the cap
}

// Decode inspects buf, the caller's current unconsumed byte slice, and
// either:
//   - recognizes one complete frame at the front of buf and returns it
//     along with the number of bytes that frame occupies (ok == true,
//     consumed == len of the frame, including its terminator), or
//   - determines buf does not yet hold a complete frame and returns
//     ok == false with consumed == 0.
//
// Decode never looks past buf and never retains anything between calls:
// it is a pure function of its argument.
func Decode(buf []byte, opts Options) (cmd Command, consumed int, ok bool) {
	if opts.BinaryEnabled && len(buf) >= 2 && buf[0] == 'P' && buf[1] == 'B' {
		return decodeBinary(buf, opts)
	}
	return decodeText(buf, opts)
}

const binaryFrameLen = 10 // "PB" + u16 x + u16 y + r,g,b,a

func decodeBinary(buf []byte, opts Options) (Command, int, bool) {
	if len(buf) < binaryFrameLen {
		return Command{}, 0, false
	}
	x := int(buf[2]) | int(buf[3])<<8
	y := int(buf[4]) | int(buf[5])<<8
	r, g, b, a := buf[6], buf[7], buf[8], buf[9]

	if !inRange(x, y, opts.Width, opts.Height) {
		return Command{Kind: KindError, ErrMsg: "coordinate out of range"}, binaryFrameLen, true
	}
	return Command{Kind: KindPXSet, X: x, Y: y, R: r, G: g, B: b, A: a}, binaryFrameLen, true
}

func decodeText(buf []byte, opts Options) (Command, int, bool) {
	nl := bytes.IndexByte(buf, '\n')
	if nl == -1 {
		return Command{}, 0, false
	}
	frameLen := nl + 1

	maxLineLen := opts.MaxLineLen
	if maxLineLen <= 0 {
		maxLineLen = 64
	}
	if frameLen > maxLineLen {
		return Command{Kind: KindError, ErrMsg: "line too long"}, frameLen, true
	}

	line := buf[:nl]
	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}
	if len(line) == 0 {
		return Command{Kind: KindEmpty}, frameLen, true
	}

	return parseLine(line, opts), frameLen, true
}

func inRange(x, y, width, height int) bool {
	return x >= 0 && x < width && x <= 0xFFFF && y >= 0 && y < height && y <= 0xFFFF
}

func parseLine(line []byte, opts Options) Command {
	fields := splitFields(line)
	if len(fields) == 0 {
		return errCommand("empty command")
	}

	switch string(fields[0]) {
	case "SIZE":
		if len(fields) != 1 {
			return errCommand("SIZE takes no arguments")
		}
		return Command{Kind: KindSize}

	case "HELP":
		if len(fields) != 1 {
			return errCommand("HELP takes no arguments")
		}
		return Command{Kind: KindHelp}

	case "QUIT":
		if len(fields) != 1 {
			return errCommand("QUIT takes no arguments")
		}
		return Command{Kind: KindQuit}

	case "PX":
		return parsePX(fields, opts)

	default:
		return errCommand("unknown command")
	}
}

func parsePX(fields [][]byte, opts Options) Command {
	if len(fields) != 3 && len(fields) != 4 {
		return errCommand("malformed PX command")
	}

	x, ok := parseDecimal(fields[1])
	if !ok {
		return errCommand("bad x coordinate")
	}
	y, ok := parseDecimal(fields[2])
	if !ok {
		return errCommand("bad y coordinate")
	}

	if len(fields) == 3 {
		if !inRange(x, y, opts.Width, opts.Height) {
			return errCommand("coordinate out of range")
		}
		return Command{Kind: KindPXQuery, X: x, Y: y}
	}

	r, g, b, a, ok := parseColor(fields[3])
	if !ok {
		return errCommand("bad color")
	}
	if !inRange(x, y, opts.Width, opts.Height) {
		return errCommand("coordinate out of range")
	}
	return Command{Kind: KindPXSet, X: x, Y: y, R: r, G: g, B: b, A: a}
}

func errCommand(msg string) Command {
	return Command{Kind: KindError, ErrMsg: msg}
}

// splitFields splits on runs of a single space (0x20) only — the grammar's
// SP token — unlike bytes.Fields, which treats any whitespace as a
// separator.
func splitFields(line []byte) [][]byte {
	var fields [][]byte
	start := -1
	for i, c := range line {
		if c == ' ' {
			if start != -1 {
				fields = append(fields, line[start:i])
				start = -1
			}
			continue
		}
		if start == -1 {
			start = i
		}
	}
	if start != -1 {
		fields = append(fields, line[start:])
	}
	return fields
}

// parseDecimal parses a 1-5 digit unsigned decimal integer with no sign and
// no separators, per the grammar. Leading zeros are allowed.
func parseDecimal(tok []byte) (int, bool) {
	if len(tok) == 0 || len(tok) > 5 {
		return 0, false
	}
	n := 0
	for _, c := range tok {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}

var hexNibble = func() [256]int8 {
	var t [256]int8
	for i := range t {
		t[i] = -1
	}
	for c := byte('0'); c <= '9'; c++ {
		t[c] = int8(c - '0')
	}
	for c := byte('a'); c <= 'f'; c++ {
		t[c] = int8(c-'a') + 10
	}
	for c := byte('A'); c <= 'F'; c++ {
		t[c] = int8(c-'A') + 10
	}
	return t
}()

func hexByte(hi, lo byte) (uint8, bool) {
	h, l := hexNibble[hi], hexNibble[lo]
	if h < 0 || l < 0 {
		return 0, false
	}
	return uint8(h)<<4 | uint8(l), true
}

// parseColor decodes a 2, 6, or 8 hex-digit color token into (r, g, b, a).
// A 2-digit token is a grey value broadcast to all three channels with
// a forced to 0xFF; 6 digits is opaque RGB; 8 digits is RGBA.
func parseColor(tok []byte) (r, g, b, a uint8, ok bool) {
	switch len(tok) {
	case 2:
		v, ok := hexByte(tok[0], tok[1])
		if !ok {
			return 0, 0, 0, 0, false
		}
		return v, v, v, 0xFF, true
	case 6:
		rv, ok1 := hexByte(tok[0], tok[1])
		gv, ok2 := hexByte(tok[2], tok[3])
		bv, ok3 := hexByte(tok[4], tok[5])
		if !ok1 || !ok2 || !ok3 {
			return 0, 0, 0, 0, false
		}
		return rv, gv, bv, 0xFF, true
	case 8:
		rv, ok1 := hexByte(tok[0], tok[1])
		gv, ok2 := hexByte(tok[2], tok[3])
		bv, ok3 := hexByte(tok[4], tok[5])
		av, ok4 := hexByte(tok[6], tok[7])
		if !ok1 || !ok2 || !ok3 || !ok4 {
			return 0, 0, 0, 0, false
		}
		return rv, gv, bv, av, true
	default:
		return 0, 0, 0, 0, false
	}
}
