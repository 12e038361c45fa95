package server

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Every message on the stream is prefixed with its length as a little-endian u32.
const (
	frameHeaderSize = 4
	maxFrameSize    = 1 << 20
)

// readFrame blocks until a complete frame has been read from r and returns its payload.
// buf is reused when it is large enough.
func readFrame(r io.Reader, buf []byte) ([]byte, error) {
	var header [frameHeaderSize]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		return nil, err
	}

	size := binary.LittleEndian.Uint32(header[:])
	if size == 0 || size > maxFrameSize {
		return nil, fmt.Errorf("invalid frame size %d", size)
	}

	// Grow the receive buffer if the client sends us a frame bigger than its current capacity.
	if int(size) > cap(buf) {
		buf = make([]byte, size)
	}
	buf = buf[:size]

	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF {
			err = io.ErrUnexpectedEOF
		}
		return nil, err
	}
	return buf, nil
}

// writeFrame writes payload to w with its length prefix in a single Write call.
func writeFrame(w io.Writer, payload []byte) error {
	if len(payload) > maxFrameSize {
		return fmt.Errorf("frame of %d bytes exceeds the maximum of %d", len(payload), maxFrameSize)
	}
	frame := make([]byte, frameHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(frame, uint32(len(payload)))
	copy(frame[frameHeaderSize:], payload)

	_, err := w.Write(frame)
	return err
}
