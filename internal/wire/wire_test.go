package wire

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	msg := DBMsg{
		Kind: DBMsgPage,
		Data: []byte("hello world"),
	}

	frame, err := EncodeMsg(MagicDB, msg)
	require.NoError(t, err)

	payload, err := ReadFrame(bytes.NewReader(frame), MagicDB)
	require.NoError(t, err)

	var got DBMsg
	require.NoError(t, DecodePayload(payload, &got))
	assert.Equal(t, msg.Kind, got.Kind)
	assert.Equal(t, msg.Data, got.Data)
}

func TestReadFrameBadMagic(t *testing.T) {
	frame, err := EncodeMsg(MagicDB, DBMsg{Kind: DBMsgPage})
	require.NoError(t, err)

	_, err = ReadFrame(bytes.NewReader(frame), MagicBack)
	assert.ErrorIs(t, err, ErrBadMagic)
}

func TestCheckHdrTooLarge(t *testing.T) {
	hdr := MsgHdr{Magic: MagicDB, PayloadLen: MaxRxBuf}
	err := CheckHdr(hdr, MagicDB)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDecodeMsgHdrShort(t *testing.T) {
	_, err := DecodeMsgHdr([]byte{1, 2, 3})
	assert.Error(t, err)
}

func TestMsgHdrEncode(t *testing.T) {
	hdr := MsgHdr{Magic: MagicBack, PayloadLen: 42}
	buf := hdr.Encode()

	got, err := DecodeMsgHdr(buf[:])
	require.NoError(t, err)
	assert.Equal(t, hdr, got)
}
