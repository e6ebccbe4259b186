// Package wire holds the FlatBuffers messages exchanged with the camera
// coprocessor and helpers to encode and decode them.
package wire

import (
	"errors"
	"fmt"

	flatbuffers "github.com/google/flatbuffers/go"
)

// ErrShortBuffer is returned for payloads too small to hold a root table.
var ErrShortBuffer = errors.New("flatbuffer payload too short")

// CamToTargetLen is the number of values in VisionFrame.cam_to_target:
// translation x, y, z followed by quaternion w, x, y, z.
const CamToTargetLen = 7

// EncodeVisionFrame serializes a frame into a finished buffer.
func EncodeVisionFrame(frame *VisionFrameT) []byte {
	builder := flatbuffers.NewBuilder(128)
	builder.Finish(frame.Pack(builder))
	return builder.FinishedBytes()
}

// DecodeVisionFrame parses a finished VisionFrame buffer. Malformed input
// returns an error instead of panicking.
func DecodeVisionFrame(buf []byte) (frame *VisionFrameT, err error) {
	if len(buf) < 2*flatbuffers.SizeUOffsetT {
		return nil, fmt.Errorf("%w: %d bytes", ErrShortBuffer, len(buf))
	}
	defer func() {
		if r := recover(); r != nil {
			frame, err = nil, fmt.Errorf("malformed vision frame (%d bytes): %v", len(buf), r)
		}
	}()
	frame = GetRootAsVisionFrame(buf, 0).UnPack()
	if n := len(frame.CamToTarget); n != 0 && n != CamToTargetLen {
		return nil, fmt.Errorf("vision frame cam_to_target has %d values, want %d", n, CamToTargetLen)
	}
	return frame, nil
}
