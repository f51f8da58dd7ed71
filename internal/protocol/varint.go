package protocol

import (
	"io"
)

// MaxVarIntLen is the longest encoding of a 32-bit VarInt.
const MaxVarIntLen = 5

// AppendVarInt appends the VarInt encoding of x to dst.
// Values are encoded as unsigned, so negative int32 values take five bytes.
func AppendVarInt(dst []byte, x uint32) []byte {
	for x&^0x7F != 0 {
		dst = append(dst, byte(x&0x7F)|0x80)
		x >>= 7
	}
	return append(dst, byte(x))
}

// VarIntSize returns the number of bytes AppendVarInt emits for x.
func VarIntSize(x uint32) int {
	n := 1
	for x&^0x7F != 0 {
		x >>= 7
		n++
	}
	return n
}

// WriteVarInt writes the VarInt encoding of x to w.
func WriteVarInt(w io.ByteWriter, x uint32) error {
	for x&^0x7F != 0 {
		if err := w.WriteByte(byte(x&0x7F) | 0x80); err != nil {
			return err
		}
		x >>= 7
	}
	return w.WriteByte(byte(x))
}

// ReadVarInt decodes one VarInt from r.
//
// io.EOF is returned untouched when the stream ends before the first byte;
// a stream ending mid-value yields io.ErrUnexpectedEOF.
func ReadVarInt(r io.ByteReader) (int32, error) {
	var result uint32
	for i := 0; ; i++ {
		if i == MaxVarIntLen {
			return 0, ErrVarIntTooBig
		}

		b, err := r.ReadByte()
		if err != nil {
			if i > 0 && err == io.EOF {
				return 0, io.ErrUnexpectedEOF
			}
			return 0, err
		}

		result |= uint32(b&0x7F) << (7 * i)
		if b&0x80 == 0 {
			return int32(result), nil
		}
	}
}
