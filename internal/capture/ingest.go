package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
)

// IngestorStats tracks frame ingestion counters. Read with atomic loads;
// the Ingestor updates them from the frame path.
type IngestorStats struct {
	Seen    uint64 // raw frames received
	Kept    uint64 // frames surviving decimation and appended
	Dropped uint64 // malformed frames discarded
}

// Ingestor consumes raw frames from the video transport, keeps every Dth
// frame, normalizes and encodes it, and appends it to the ring buffer.
// Malformed frames are logged and dropped; ingestion never stops because
// of a bad frame.
type Ingestor struct {
	ring *RingBuffer

	// every is the decimation divisor D: frame i is kept iff i % D == 0.
	every int

	// edge is the output square size in pixels.
	edge int

	counter uint64

	seen    atomic.Uint64
	kept    atomic.Uint64
	dropped atomic.Uint64
}

// NewIngestor creates an Ingestor appending to ring. decimation is the
// keep-every-Dth divisor (minimum 1); frameEdge is the square output size.
func NewIngestor(ring *RingBuffer, decimation, frameEdge int) *Ingestor {
	if decimation < 1 {
		decimation = 1
	}
	return &Ingestor{ring: ring, every: decimation, edge: frameEdge}
}

// Stats returns a snapshot of the ingestion counters.
func (in *Ingestor) Stats() IngestorStats {
	return IngestorStats{
		Seen:    in.seen.Load(),
		Kept:    in.kept.Load(),
		Dropped: in.dropped.Load(),
	}
}

// statsInterval is how often Run logs the ingestion counters.
const statsInterval = 30 * time.Second

// Run consumes frames from the channel until it is closed or the context
// is cancelled. This is the single writer for the ring buffer.
func (in *Ingestor) Run(ctx context.Context, frames <-chan RawFrame) {
	ticker := time.NewTicker(statsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s := in.Stats()
			log.Debug().
				Uint64("seen", s.Seen).
				Uint64("kept", s.Kept).
				Uint64("dropped", s.Dropped).
				Int("buffered", in.ring.Len()).
				Msg("Frame ingestion stats")
		case raw, ok := <-frames:
			if !ok {
				return
			}
			in.Process(raw)
		}
	}
}

// Process handles one raw frame: decimate, normalize, crop, resize, encode,
// append. Errors are logged and counted, never returned up the frame path.
func (in *Ingestor) Process(raw RawFrame) {
	seq := in.counter
	in.counter++
	in.seen.Add(1)

	if seq%uint64(in.every) != 0 {
		return
	}

	frame, err := in.encode(raw, seq)
	if err != nil {
		in.dropped.Add(1)
		log.Warn().Err(err).Uint64("seq", seq).Msg("Dropping malformed frame")
		return
	}

	in.ring.Append(frame)
	in.kept.Add(1)
}

// encode normalizes the raw pixel layout, center-crops to square, resizes
// to the configured edge, and PNG-encodes the result.
func (in *Ingestor) encode(raw RawFrame, seq uint64) (Frame, error) {
	img, err := normalize(raw)
	if err != nil {
		return Frame{}, err
	}

	cropped := centerCropSquare(img)

	dst := image.NewRGBA(image.Rect(0, 0, in.edge, in.edge))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), cropped, cropped.Bounds(), xdraw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return Frame{}, fmt.Errorf("encode png: %w", err)
	}

	return Frame{Data: buf.Bytes(), Seq: seq, CapturedAt: time.Now()}, nil
}

// normalize converts a raw frame to an *image.RGBA, validating dimensions
// and buffer length against the declared pixel format.
func normalize(raw RawFrame) (*image.RGBA, error) {
	if raw.Width <= 0 || raw.Height <= 0 {
		return nil, fmt.Errorf("invalid dimensions %dx%d", raw.Width, raw.Height)
	}
	bpp := raw.Format.bytesPerPixel()
	if bpp == 0 {
		return nil, fmt.Errorf("unsupported pixel format %s", raw.Format)
	}
	want := raw.Width * raw.Height * bpp
	if len(raw.Data) != want {
		return nil, fmt.Errorf("frame data length %d, want %d for %dx%d %s",
			len(raw.Data), want, raw.Width, raw.Height, raw.Format)
	}

	img := image.NewRGBA(image.Rect(0, 0, raw.Width, raw.Height))
	n := raw.Width * raw.Height
	switch raw.Format {
	case FormatRGBA:
		copy(img.Pix, raw.Data)
	case FormatBGRA:
		for i := 0; i < n; i++ {
			s, d := i*4, i*4
			img.Pix[d+0] = raw.Data[s+2]
			img.Pix[d+1] = raw.Data[s+1]
			img.Pix[d+2] = raw.Data[s+0]
			img.Pix[d+3] = raw.Data[s+3]
		}
	case FormatRGB24:
		for i := 0; i < n; i++ {
			s, d := i*3, i*4
			img.Pix[d+0] = raw.Data[s+0]
			img.Pix[d+1] = raw.Data[s+1]
			img.Pix[d+2] = raw.Data[s+2]
			img.Pix[d+3] = 0xff
		}
	}
	return img, nil
}

// centerCropSquare crops the longer dimension symmetrically so the result
// is square; the shorter dimension is kept intact. Returns a view sharing
// pixels with img, which is fine because the scale step copies them out.
func centerCropSquare(img *image.RGBA) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w == h {
		return img
	}
	if w > h {
		x0 := b.Min.X + (w-h)/2
		return img.SubImage(image.Rect(x0, b.Min.Y, x0+h, b.Max.Y))
	}
	y0 := b.Min.Y + (h-w)/2
	return img.SubImage(image.Rect(b.Min.X, y0, b.Max.X, y0+w))
}
