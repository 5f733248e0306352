// Package p2p is the best-effort peer-ping overlay: a bare TCP peer
// connection exchanging ping/pong frames, whose observations are written
// to the tracker_pings log. It is a deliberate simplification of the
// teacher's full Lightning peer transport; there is no encrypted
// transport handshake here, no channel state, no onion routing.
package p2p

import (
	"encoding/binary"
	"fmt"
	"io"
)

// MessageType identifies the two frame types this overlay knows about.
type MessageType uint8

const (
	MsgPing MessageType = iota
	MsgPong
)

// maxPayloadLength guards against a misbehaving peer claiming an
// unreasonable frame size.
const maxPayloadLength = 1 << 16

// writeMessage frames a payload as [type(1) || length(u32 LE) || payload],
// mirroring the teacher's lnwire.WriteMessage length-prefixed framing.
func writeMessage(w io.Writer, msgType MessageType, payload []byte) error {
	if _, err := w.Write([]byte{byte(msgType)}); err != nil {
		return err
	}
	var length [4]byte
	binary.LittleEndian.PutUint32(length[:], uint32(len(payload)))
	if _, err := w.Write(length[:]); err != nil {
		return err
	}
	_, err := w.Write(payload)
	return err
}

// readMessage reads one frame previously written by writeMessage.
func readMessage(r io.Reader) (MessageType, []byte, error) {
	var header [5]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return 0, nil, err
	}
	msgType := MessageType(header[0])
	length := binary.LittleEndian.Uint32(header[1:5])
	if length > maxPayloadLength {
		return 0, nil, fmt.Errorf("p2p: payload length %d exceeds maximum", length)
	}
	payload := make([]byte, length)
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, err
	}
	return msgType, payload, nil
}
