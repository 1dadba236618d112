package blkreader

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/btcsuite/btcd/wire"
)

type BinReader interface {
	BinRead(io.Reader) error
}
type BinWriter interface {
	BinWrite(io.Writer) error
}

// BinRead will see if BinReader interface is provided, otherwise it
// falls back to LittleEndian binary.Read.
func BinRead(s interface{}, r io.Reader) error {
	if br, ok := s.(BinReader); ok {
		return br.BinRead(r)
	}
	return truncErr(binary.Read(r, binary.LittleEndian, s))
}

// Similar to BinRead, check for BinWriter, defer to binary.Write.
func BinWrite(s interface{}, w io.Writer) error {
	if bw, ok := s.(BinWriter); ok {
		return bw.BinWrite(w)
	}
	return binary.Write(w, binary.LittleEndian, s)
}

// Running out of input is always reported as ErrTruncated, never as a
// short read.
func truncErr(err error) error {
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	return err
}

func readFull(r io.Reader, buf []byte) error {
	_, err := io.ReadFull(r, buf)
	return truncErr(err)
}

// ReadVarInt reads a Bitcoin compact size integer.
func ReadVarInt(r io.Reader) (uint64, error) {
	var buf [8]byte

	if err := readFull(r, buf[:1]); err != nil {
		return 0, err
	}

	var n int
	switch buf[0] {
	case 0xfd:
		n = 2
	case 0xfe:
		n = 4
	case 0xff:
		n = 8
	default:
		return uint64(buf[0]), nil
	}
	if err := readFull(r, buf[:n]); err != nil {
		return 0, err
	}

	var result uint64
	for i := 0; i < n; i++ {
		result |= uint64(buf[i]) << uint64(i*8)
	}
	return result, nil
}

// WriteVarInt always picks the shortest prefix that fits.
func WriteVarInt(w io.Writer, i uint64) (err error) {
	if i < 0xfd {
		_, err = w.Write([]byte{byte(i)})
		return err
	}
	if i <= math.MaxUint16 {
		if _, err = w.Write([]byte{0xfd}); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, uint16(i))
	}
	if i <= math.MaxUint32 {
		if _, err = w.Write([]byte{0xfe}); err != nil {
			return err
		}
		return binary.Write(w, binary.LittleEndian, uint32(i))
	}
	if _, err = w.Write([]byte{0xff}); err != nil {
		return err
	}
	return binary.Write(w, binary.LittleEndian, i)
}

// VarIntSize is the encoded length of i.
func VarIntSize(i uint64) int {
	return wire.VarIntSerializeSize(i)
}

func readString(r io.Reader) ([]byte, error) {
	size, err := ReadVarInt(r)
	if err != nil {
		return nil, err
	}

	// NB: a corrupt length must not turn into a huge allocation, so
	// check against what is left when reading from a Cursor.
	if c, ok := r.(*Cursor); ok && size > uint64(c.Size()-c.Tell()) {
		return nil, fmt.Errorf("%w: string of %d bytes at offset %d", ErrTruncated, size, c.Tell())
	}

	buf := make([]byte, int(size))
	if err = readFull(r, buf); err != nil {
		return nil, err
	}

	return buf, nil
}

func writeString(s []byte, w io.Writer) (err error) {
	if err = WriteVarInt(w, uint64(len(s))); err != nil {
		return err
	}
	_, err = w.Write(s)
	return err
}

func readList(r io.Reader, doRead func(io.Reader, int) error) error {
	size, err := ReadVarInt(r)
	if err != nil {
		return err
	}

	for i := uint64(0); i < size; i++ {
		if err = doRead(r, int(i)); err != nil {
			return err
		}
	}
	return nil
}

func writeList(w io.Writer, size int, doWrite func(io.Writer, int) error) error {
	err := WriteVarInt(w, uint64(size))
	if err != nil {
		return err
	}

	for i := 0; i < size; i++ {
		if err = doWrite(w, i); err != nil {
			return err
		}
	}
	return nil
}

// SwapEndian returns a byte-reversed copy of b.
func SwapEndian(b []byte) []byte {
	result := make([]byte, len(b))
	for i := range b {
		result[len(b)-1-i] = b[i]
	}
	return result
}

// SwapEndianUint reverses b and reads the result as a big-endian
// unsigned integer, i.e. it decodes a little-endian field of up to 8
// bytes.
func SwapEndianUint(b []byte) uint64 {
	if len(b) > 8 {
		panic(fmt.Sprintf("SwapEndianUint: %d bytes do not fit in uint64", len(b)))
	}
	if len(b) <= 1 {
		if len(b) == 0 {
			return 0
		}
		return uint64(b[0])
	}
	var result uint64
	for _, v := range SwapEndian(b) {
		result = result<<8 | uint64(v)
	}
	return result
}

// readUint reads a fixed width little-endian field from c.
func readUint(c *Cursor, n int) (uint64, error) {
	b, err := c.ReadN(n)
	if err != nil {
		return 0, err
	}
	return SwapEndianUint(b), nil
}
