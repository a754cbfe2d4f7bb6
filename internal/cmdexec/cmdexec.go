package cmdexec

import (
	"strconv"

	"pixelflut/internal/codec"
	"pixelflut/internal/pixmap"
	"pixelflut/internal/stats"
)

const helpBlob = "" +
	"commands:\n" +
	"  HELP                 this text\n" +
	"  SIZE                 canvas dimensions\n" +
	"  PX x y               query a pixel\n" +
	"  PX x y RRGGBB        set an opaque pixel\n" +
	"  PX x y RRGGBBAA      set a pixel, blended by alpha\n" +
	"  PX x y GG            set a grey pixel\n" +
	"  QUIT                 close the connection\n"

const hexDigits = "0123456789abcdef"

// Exec interprets cmd against pix and counters, appending any reply bytes
// to out, and returns the extended slice. It never blocks and never
// tears down the connection: malformed or out-of-range commands produce an
// ERR reply and execution returns normally.
func Exec(cmd codec.Command, pix *pixmap.Pixmap, counters *stats.Counters, out []byte) []byte {
	switch cmd.Kind {
	case codec.KindEmpty:
		return out

	case codec.KindSize:
		w, h := pix.Dimensions()
		out = append(out, "SIZE "...)
		out = strconv.AppendInt(out, int64(w), 10)
		out = append(out, ' ')
		out = strconv.AppendInt(out, int64(h), 10)
		out = append(out, '\n')
		return out

	case codec.KindHelp:
		return append(out, helpBlob...)

	case codec.KindQuit:
		// Exec never closes a connection itself — it has no handle to one.
		// A caller that wants QUIT to end the session checks cmd.Kind before
		// calling Exec, the same way Conn's drain loop does; here it is a
		// no-op so direct callers (tests, other drivers) never see a
		// surprise reply.
		return out

	case codec.KindPXQuery:
		r, g, b, _ := pix.Get(cmd.X, cmd.Y)
		out = append(out, "PX "...)
		out = strconv.AppendInt(out, int64(cmd.X), 10)
		out = append(out, ' ')
		out = strconv.AppendInt(out, int64(cmd.Y), 10)
		out = append(out, ' ')
		out = appendHexByte(out, r)
		out = appendHexByte(out, g)
		out = appendHexByte(out, b)
		out = append(out, '\n')
		return out

	case codec.KindPXSet:
		pix.Set(cmd.X, cmd.Y, cmd.R, cmd.G, cmd.B, cmd.A)
		counters.AddPixelsSet(1)
		return out

	case codec.KindError:
		out = append(out, "ERR "...)
		out = append(out, cmd.ErrMsg...)
		out = append(out, '\n')
		return out

	default:
		out = append(out, "ERR internal: unrecognized command kind\n"...)
		return out
	}
}

func appendHexByte(out []byte, v uint8) []byte {
	return append(out, hexDigits[v>>4], hexDigits[v&0x0F])
}
