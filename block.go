package blkreader

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"github.com/btcsuite/btcd/wire"
)

// Block wraps one raw block payload (header and transactions, without
// the magic and size prefix of the blk file record).
type Block struct {
	Magic uint32
	*BlockHeader

	size int
	c    *Cursor
}

// NewBlock decodes the header of payload. A size <= 0 means the size
// is the payload length, magic 0 means unknown.
func NewBlock(payload []byte, size int, magic uint32) (*Block, error) {
	c := NewCursor(payload)
	bh, err := decodeHeader(c)
	if err != nil {
		return nil, fmt.Errorf("block header: %w", err)
	}
	if size <= 0 {
		size = c.Size()
	}
	return &Block{
		Magic:       magic,
		BlockHeader: bh,
		size:        size,
		c:           c,
	}, nil
}

// Hash is computed over the raw header bytes as read.
func (b *Block) Hash() Uint256 {
	return Hash256(b.c.Bytes()[:BlockHeaderSize])
}

func (b *Block) Size() int {
	return b.size
}

func (b *Block) Net() wire.BitcoinNet {
	return wire.BitcoinNet(b.Magic)
}

// MagicBytes is the magic as it appears in the file.
func (b *Block) MagicBytes() []byte {
	var m [4]byte
	binary.LittleEndian.PutUint32(m[:], b.Magic)
	return m[:]
}

// Payload is the raw block, magic and size excluded.
func (b *Block) Payload() []byte {
	return b.c.Bytes()
}

func (b *Block) Hex() string {
	return hex.EncodeToString(b.c.Bytes())
}

func (b *Block) TxCount() (uint64, error) {
	if _, err := b.c.Seek(BlockHeaderSize, io.SeekStart); err != nil {
		return 0, err
	}
	return ReadVarInt(b.c)
}

// Transactions returns a new iterator positioned at the first
// transaction. To go over the transactions again, call it again.
func (b *Block) Transactions() *TxIter {
	return &TxIter{c: NewCursor(b.c.Bytes())}
}

// Txs decodes all transactions.
func (b *Block) Txs() (TxList, error) {
	var txs TxList
	it := b.Transactions()
	for it.Next() {
		txs = append(txs, it.Tx())
	}
	return txs, it.Err()
}

func (b *Block) eachTx(fn func(*Tx)) error {
	it := b.Transactions()
	for it.Next() {
		fn(it.Tx())
	}
	return it.Err()
}

// StrippedSize is the block size less all witness data.
func (b *Block) StrippedSize() (int, error) {
	witness := 0
	if err := b.eachTx(func(tx *Tx) { witness += tx.Size - tx.VSize }); err != nil {
		return 0, err
	}
	return b.size - witness, nil
}

func (b *Block) Weight() (int, error) {
	stripped, err := b.StrippedSize()
	if err != nil {
		return 0, err
	}
	return stripped*3 + b.size, nil
}

func (b *Block) HasSegwit() (bool, error) {
	segwit := false
	err := b.eachTx(func(tx *Tx) { segwit = segwit || tx.SegWit })
	return segwit, err
}

// BinWrite writes the block as a blk file record: magic, size and the
// payload.
func (b *Block) BinWrite(w io.Writer) (err error) {
	if err = BinWrite(b.Magic, w); err != nil {
		return err
	}
	if err = BinWrite(uint32(b.size), w); err != nil {
		return err
	}
	_, err = w.Write(b.c.Bytes())
	return err
}

func (b *Block) WriteTo(w io.Writer) (int64, error) {
	if err := b.BinWrite(w); err != nil {
		return 0, err
	}
	return int64(8 + len(b.c.Bytes())), nil
}

func (b *Block) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := b.BinWrite(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteFile writes the block record to a new file at path.
func (b *Block) WriteFile(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := b.BinWrite(f); err != nil {
		f.Close()
		return fmt.Errorf("Writing block %v to %s: %w", b.Hash(), path, err)
	}
	return f.Close()
}

// TxIter decodes the transactions of a block one at a time. It has its
// own position over the block payload and can only go forward once;
// it is not safe for concurrent use.
//
//	it := blk.Transactions()
//	for it.Next() {
//		tx := it.Tx()
//	}
//	if err := it.Err(); err != nil {
//	}
type TxIter struct {
	c       *Cursor
	started bool
	count   uint64
	n       uint64
	tx      *Tx
	err     error
}

func (it *TxIter) Next() bool {
	if it.err != nil {
		return false
	}
	if !it.started {
		it.started = true
		if _, it.err = it.c.Seek(BlockHeaderSize, io.SeekStart); it.err != nil {
			return false
		}
		if it.count, it.err = ReadVarInt(it.c); it.err != nil {
			it.err = fmt.Errorf("transaction count: %w", it.err)
			return false
		}
	}
	if it.n >= it.count {
		it.tx = nil
		return false
	}
	tx, err := DecodeTx(it.c)
	if err != nil {
		// A corrupt tx ends the whole block.
		it.err = fmt.Errorf("transaction %d of %d: %w", it.n, it.count, err)
		it.tx = nil
		return false
	}
	it.tx = tx
	it.n++
	return true
}

func (it *TxIter) Tx() *Tx {
	return it.tx
}

// Index is the position of Tx() in the block.
func (it *TxIter) Index() int {
	return int(it.n) - 1
}

// Count is the declared transaction count, valid after the first
// call to Next.
func (it *TxIter) Count() uint64 {
	return it.count
}

func (it *TxIter) Err() error {
	return it.err
}
