// Package wire implements the length-prefixed framing used on every unix
// socket connection between the CMS services: an 8-byte header (a 32-bit
// magic identifying the protocol, followed by a 32-bit little-endian
// payload length) followed by a gob-encoded payload.
package wire

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
)

// MsgHdrLen is the fixed size in bytes of a message header.
const MsgHdrLen = 8

// MaxRxBuf is the maximum permitted total message size (header + payload),
// guarding every socket reader against unbounded memory growth from a
// hostile or buggy peer.
const MaxRxBuf = 64 * 1024 * 1024

// Protocol magics identify which service a connection speaks to, and
// double as a sanity check against a misconfigured or stale socket client.
const (
	MagicBack uint32 = 0x9C66EA74
	MagicDB   uint32 = 0x8F5755D6
	MagicPost uint32 = 0x6ADCB73F
)

// ErrBadMagic is returned when a received header's magic does not match
// the expected protocol.
var ErrBadMagic = errors.New("wire: bad magic")

// ErrTooLarge is returned when header plus payload would exceed MaxRxBuf.
var ErrTooLarge = errors.New("wire: message too large")

// MsgHdr is the fixed-size frame header.
type MsgHdr struct {
	Magic      uint32
	PayloadLen uint32
}

// Encode writes the header in little-endian wire format.
func (h MsgHdr) Encode() [MsgHdrLen]byte {
	var buf [MsgHdrLen]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint32(buf[4:8], h.PayloadLen)

	return buf
}

// DecodeMsgHdr parses a header from exactly MsgHdrLen bytes.
func DecodeMsgHdr(buf []byte) (MsgHdr, error) {
	if len(buf) < MsgHdrLen {
		return MsgHdr{}, fmt.Errorf("wire: short header (%d bytes)", len(buf))
	}

	return MsgHdr{
		Magic:      binary.LittleEndian.Uint32(buf[0:4]),
		PayloadLen: binary.LittleEndian.Uint32(buf[4:8]),
	}, nil
}

// EncodeMsg gob-encodes v and prepends a header with the given magic. The
// returned slice is a complete, ready-to-write frame.
func EncodeMsg(magic uint32, v any) ([]byte, error) {
	var payload bytes.Buffer
	if err := gob.NewEncoder(&payload).Encode(v); err != nil {
		return nil, fmt.Errorf("wire: encode payload: %w", err)
	}

	if payload.Len() > MaxRxBuf-MsgHdrLen {
		return nil, ErrTooLarge
	}

	hdr := MsgHdr{Magic: magic, PayloadLen: uint32(payload.Len())} //nolint:gosec // bounded above
	hdrBuf := hdr.Encode()

	out := make([]byte, 0, MsgHdrLen+payload.Len())
	out = append(out, hdrBuf[:]...)
	out = append(out, payload.Bytes()...)

	return out, nil
}

// DecodePayload gob-decodes payload into v.
func DecodePayload(payload []byte, v any) error {
	if err := gob.NewDecoder(bytes.NewReader(payload)).Decode(v); err != nil {
		return fmt.Errorf("wire: decode payload: %w", err)
	}

	return nil
}

// CheckHdr validates a decoded header against the expected magic and the
// MaxRxBuf ceiling.
func CheckHdr(hdr MsgHdr, wantMagic uint32) error {
	if hdr.Magic != wantMagic {
		return fmt.Errorf("%w: got 0x%08X, want 0x%08X", ErrBadMagic, hdr.Magic, wantMagic)
	}
	if uint64(hdr.PayloadLen)+MsgHdrLen > MaxRxBuf {
		return ErrTooLarge
	}

	return nil
}

// ReadFrame reads one complete frame (header + payload) from r, blocking
// until it is fully available, validating its magic against wantMagic.
func ReadFrame(r io.Reader, wantMagic uint32) ([]byte, error) {
	var hdrBuf [MsgHdrLen]byte
	if _, err := io.ReadFull(r, hdrBuf[:]); err != nil {
		return nil, fmt.Errorf("wire: read header: %w", err)
	}

	hdr, err := DecodeMsgHdr(hdrBuf[:])
	if err != nil {
		return nil, err
	}
	if err := CheckHdr(hdr, wantMagic); err != nil {
		return nil, err
	}

	payload := make([]byte, hdr.PayloadLen)
	if hdr.PayloadLen > 0 {
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("wire: read payload: %w", err)
		}
	}

	return payload, nil
}

// WriteFrame writes a complete pre-built frame (as produced by EncodeMsg) to w.
func WriteFrame(w io.Writer, frame []byte) error {
	if _, err := w.Write(frame); err != nil {
		return fmt.Errorf("wire: write frame: %w", err)
	}

	return nil
}
