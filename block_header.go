package blkreader

import (
	"bytes"
	"io"
)

const BlockHeaderSize = 80

type BlockHeader struct {
	Version        uint32
	PrevHash       Uint256
	HashMerkleRoot Uint256
	Time           uint32
	Bits           uint32
	Nonce          uint32
}

func (bh *BlockHeader) Hash() Uint256 {
	buf := new(bytes.Buffer)
	BinWrite(bh, buf)
	return Hash256(buf.Bytes())
}

// Difficulty decodes the compact Bits target relative to the minimum
// difficulty target 0xffff * 256^(29-3), the same way Core does it,
// float rounding included.
func (bh *BlockHeader) Difficulty() float64 {
	shift := int(bh.Bits>>24) & 0xff
	diff := float64(0x0000ffff) / float64(bh.Bits&0x00ffffff)

	for shift < 29 {
		diff *= 256.0
		shift++
	}
	for shift > 29 {
		diff /= 256.0
		shift--
	}
	return diff
}

// headerField is a fixed offset within the 80 byte header.
type headerField struct {
	off, n int
}

var (
	fieldVersion    = headerField{0, 4}
	fieldPrevHash   = headerField{4, 32}
	fieldMerkleRoot = headerField{36, 32}
	fieldTime       = headerField{68, 4}
	fieldBits       = headerField{72, 4}
	fieldNonce      = headerField{76, 4}
)

func (f headerField) read(c *Cursor) ([]byte, error) {
	if _, err := c.Seek(int64(f.off), io.SeekStart); err != nil {
		return nil, err
	}
	return c.ReadN(f.n)
}

func (f headerField) uint32(c *Cursor) (uint32, error) {
	b, err := f.read(c)
	if err != nil {
		return 0, err
	}
	return uint32(SwapEndianUint(b)), nil
}

func (f headerField) hash(c *Cursor) (Uint256, error) {
	b, err := f.read(c)
	if err != nil {
		return Uint256{}, err
	}
	return Uint256FromBytes(b), nil
}

// decodeHeader reads each header field at its fixed offset. Hashes
// stay in wire order.
func decodeHeader(c *Cursor) (*BlockHeader, error) {
	if c.Size() < BlockHeaderSize {
		_, err := c.Slice(0, BlockHeaderSize)
		return nil, err
	}
	var (
		bh  BlockHeader
		err error
	)
	if bh.Version, err = fieldVersion.uint32(c); err != nil {
		return nil, err
	}
	if bh.PrevHash, err = fieldPrevHash.hash(c); err != nil {
		return nil, err
	}
	if bh.HashMerkleRoot, err = fieldMerkleRoot.hash(c); err != nil {
		return nil, err
	}
	if bh.Time, err = fieldTime.uint32(c); err != nil {
		return nil, err
	}
	if bh.Bits, err = fieldBits.uint32(c); err != nil {
		return nil, err
	}
	if bh.Nonce, err = fieldNonce.uint32(c); err != nil {
		return nil, err
	}
	return &bh, nil
}
