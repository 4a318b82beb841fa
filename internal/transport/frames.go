package transport

import (
	"encoding/binary"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mementolabs/capture-agent/internal/capture"
)

// Raw frame wire layout: a 16-byte little-endian header followed by pixel
// data. The header carries width, height, pixel format, and a reserved
// word. Frames whose payload length disagrees with the header are dropped
// at decode time.
const frameHeaderSize = 16

// DecodeRawFrame parses one frame-topic payload into a capture.RawFrame.
func DecodeRawFrame(payload []byte) (capture.RawFrame, error) {
	if len(payload) < frameHeaderSize {
		return capture.RawFrame{}, fmt.Errorf("frame payload %d bytes, header needs %d", len(payload), frameHeaderSize)
	}

	width := int(binary.LittleEndian.Uint32(payload[0:4]))
	height := int(binary.LittleEndian.Uint32(payload[4:8]))
	format := capture.PixelFormat(binary.LittleEndian.Uint32(payload[8:12]))

	return capture.RawFrame{
		Data:   payload[frameHeaderSize:],
		Width:  width,
		Height: height,
		Format: format,
	}, nil
}

// EncodeRawFrame is the inverse of DecodeRawFrame. Used by simulators and
// tests that publish frames to the agent.
func EncodeRawFrame(f capture.RawFrame) []byte {
	out := make([]byte, frameHeaderSize+len(f.Data))
	binary.LittleEndian.PutUint32(out[0:4], uint32(f.Width))
	binary.LittleEndian.PutUint32(out[4:8], uint32(f.Height))
	binary.LittleEndian.PutUint32(out[8:12], uint32(f.Format))
	copy(out[frameHeaderSize:], f.Data)
	return out
}

// SubscribeFrames wires the raw frame topic to a channel consumed by the
// frame ingestor. The transport handler must not block, so a full channel
// drops the frame rather than stalling dispatch; the ring buffer semantics
// make a dropped raw frame equivalent to slightly coarser decimation.
func SubscribeFrames(t Transport, topic string, out chan<- capture.RawFrame) error {
	return t.Subscribe(topic, func(_ string, payload []byte) {
		raw, err := DecodeRawFrame(payload)
		if err != nil {
			log.Warn().Err(err).Str("topic", topic).Msg("Dropping undecodable frame payload")
			return
		}
		select {
		case out <- raw:
		default:
			log.Debug().Str("topic", topic).Msg("Frame channel full, frame dropped")
		}
	})
}
