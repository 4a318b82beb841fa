// Package gifenc converts an ordered frame snapshot into a single animated
// GIF, and recompresses oversized GIFs for the pipeline's size guard.
package gifenc

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"
	"image/gif"
	_ "image/png" // frame snapshots are PNG-encoded
	"time"

	"github.com/rs/zerolog/log"
	xdraw "golang.org/x/image/draw"
)

// ErrEmptySnapshot is returned when assembly is requested for a snapshot
// with no frames. An empty snapshot never yields a degenerate artifact.
var ErrEmptySnapshot = errors.New("gifenc: empty frame snapshot")

// Assembler composes PNG-encoded frames into one looping animated GIF with
// a fixed per-frame duration.
type Assembler struct {
	// FrameDuration is the display time of each frame.
	FrameDuration time.Duration
}

// NewAssembler creates an Assembler with the given per-frame duration.
func NewAssembler(frameDuration time.Duration) *Assembler {
	return &Assembler{FrameDuration: frameDuration}
}

// Assemble decodes each PNG frame, quantizes it to a paletted image, and
// encodes the sequence as an infinitely looping GIF. frames must be in
// temporal order. Returns ErrEmptySnapshot for an empty input.
func (a *Assembler) Assemble(frames [][]byte) ([]byte, error) {
	if len(frames) == 0 {
		return nil, ErrEmptySnapshot
	}

	delay := hundredths(a.FrameDuration)
	anim := &gif.GIF{LoopCount: 0} // 0 = loop forever

	for i, data := range frames {
		img, _, err := image.Decode(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("decode frame %d: %w", i, err)
		}
		anim.Image = append(anim.Image, quantize(img))
		anim.Delay = append(anim.Delay, delay)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, anim); err != nil {
		return nil, fmt.Errorf("encode gif: %w", err)
	}

	log.Debug().
		Int("frames", len(frames)).
		Int("bytes", buf.Len()).
		Msg("GIF assembled")

	return buf.Bytes(), nil
}

// Recompress re-encodes a GIF at reduced resolution and frame rate. Frames
// wider than maxWidth are scaled down proportionally, and the per-frame
// delay is set from fps. Used by the pipeline size guard when an artifact
// exceeds the storage limit.
func Recompress(data []byte, maxWidth, fps int) ([]byte, error) {
	src, err := gif.DecodeAll(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode gif: %w", err)
	}
	if len(src.Image) == 0 {
		return nil, ErrEmptySnapshot
	}
	if fps < 1 {
		fps = 1
	}

	delay := 100 / fps // in hundredths of a second
	if delay < 1 {
		delay = 1
	}

	out := &gif.GIF{LoopCount: src.LoopCount}
	for _, frame := range src.Image {
		scaled := downscale(frame, maxWidth)
		out.Image = append(out.Image, scaled)
		out.Delay = append(out.Delay, delay)
	}

	var buf bytes.Buffer
	if err := gif.EncodeAll(&buf, out); err != nil {
		return nil, fmt.Errorf("re-encode gif: %w", err)
	}

	log.Debug().
		Int("before_bytes", len(data)).
		Int("after_bytes", buf.Len()).
		Int("max_width", maxWidth).
		Int("fps", fps).
		Msg("GIF recompressed")

	return buf.Bytes(), nil
}

// quantize converts an image to a paletted frame with Floyd-Steinberg
// dithering. All frames share the Plan9 palette so color is stable across
// the animation.
func quantize(img image.Image) *image.Paletted {
	b := img.Bounds()
	pal := image.NewPaletted(image.Rect(0, 0, b.Dx(), b.Dy()), palette.Plan9)
	draw.FloydSteinberg.Draw(pal, pal.Bounds(), img, b.Min)
	return pal
}

// downscale resizes a paletted frame to at most maxWidth wide, preserving
// aspect ratio. Frames already narrow enough are re-quantized as-is.
func downscale(frame *image.Paletted, maxWidth int) *image.Paletted {
	b := frame.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxWidth <= 0 || w <= maxWidth {
		return frame
	}

	nh := h * maxWidth / w
	if nh < 1 {
		nh = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, maxWidth, nh))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), frame, b, xdraw.Over, nil)
	return quantize(dst)
}

// hundredths converts a duration to GIF delay units (1/100 s), minimum 1.
func hundredths(d time.Duration) int {
	n := int(d / (10 * time.Millisecond))
	if n < 1 {
		n = 1
	}
	return n
}
