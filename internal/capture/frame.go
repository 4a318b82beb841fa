// Package capture implements the frame-capture side of the agent: raw frame
// normalization, decimation, and the bounded rolling buffer that trigger
// sessions snapshot from.
//
// One Ingestor writes to one RingBuffer. Capture sessions only ever read
// through Snapshot, so the buffer contract is a single writer plus any
// number of concurrent readers.
package capture

import (
	"fmt"
	"time"
)

// PixelFormat identifies the pixel layout of a raw frame as delivered by
// the video transport.
type PixelFormat int

const (
	// FormatRGBA is 4 bytes per pixel, R G B A order.
	FormatRGBA PixelFormat = iota
	// FormatBGRA is 4 bytes per pixel, B G R A order.
	FormatBGRA
	// FormatRGB24 is 3 bytes per pixel, R G B order, no alpha.
	FormatRGB24
)

// String returns the wire name of the pixel format.
func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA:
		return "rgba"
	case FormatBGRA:
		return "bgra"
	case FormatRGB24:
		return "rgb24"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

// bytesPerPixel returns the pixel stride for the format, or 0 for an
// unrecognized format.
func (f PixelFormat) bytesPerPixel() int {
	switch f {
	case FormatRGBA, FormatBGRA:
		return 4
	case FormatRGB24:
		return 3
	default:
		return 0
	}
}

// RawFrame is a decoded video frame as received from the transport, before
// normalization. Data length must equal Width*Height*bytesPerPixel for the
// declared format; frames that fail that check are dropped by the Ingestor.
type RawFrame struct {
	Data   []byte
	Width  int
	Height int
	Format PixelFormat
}

// Frame is one processed, encoded frame held by the RingBuffer. Frames are
// immutable once appended: Data is PNG-encoded and never modified.
type Frame struct {
	// Data is the PNG-encoded image.
	Data []byte

	// Seq is the position of the source frame in the raw stream, assigned
	// by the Ingestor before decimation.
	Seq uint64

	// CapturedAt is the time the frame was processed.
	CapturedAt time.Time
}
