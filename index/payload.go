package index

import (
	"encoding/binary"
	"fmt"
)

// PositionPayloadSize is the encoded size of a first-position payload.
const PositionPayloadSize = 4

// EncodePosition encodes a first-occurrence position as a 4-byte big-endian payload.
func EncodePosition(position int) []byte {
	buf := make([]byte, PositionPayloadSize)
	binary.BigEndian.PutUint32(buf, uint32(int32(position))) // #nosec G115 -- positions fit in int32
	return buf
}

// DecodePosition decodes a payload written by EncodePosition.
// It fails when the payload has the wrong size or holds a negative position.
func DecodePosition(payload []byte) (int, error) {
	if len(payload) != PositionPayloadSize {
		return 0, fmt.Errorf("position payload has %d bytes, expected %d", len(payload), PositionPayloadSize)
	}
	position := int(int32(binary.BigEndian.Uint32(payload))) // #nosec G115 -- round-trips EncodePosition
	if position < 0 {
		return 0, fmt.Errorf("position payload decodes to negative position %d", position)
	}
	return position, nil
}
