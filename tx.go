package blkreader

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"io"
)

type Tx struct {
	Version  int32
	SegWit   bool
	Flag     byte // segwit flag as found on the wire, normally 1
	TxIns    TxInList
	TxOuts   TxOutList
	LockTime LockTime

	// Computed by DecodeTx from the bytes actually read.
	Txid   Uint256 // excludes witness data
	Hash   Uint256 // includes witness data, same as Txid for legacy txs
	Size   int     // full serialization
	VSize  int     // witness-stripped serialization
	Weight int     // VSize*3 + Size

	raw []byte
}

// DecodeTx reads one transaction starting at the current position of
// c and leaves c right after it. The cursor may be shared with a
// block, the transaction never owns the buffer.
func DecodeTx(c *Cursor) (*Tx, error) {
	pos := c.Tell()
	tx := &Tx{}

	v, err := readUint(c, 4)
	if err != nil {
		return nil, err
	}
	tx.Version = int32(uint32(v))

	// marker (0x00) + non-zero flag means segwit, otherwise these two
	// bytes belong to the input count.
	mf, err := c.ReadN(2)
	if err != nil {
		return nil, err
	}
	if mf[0] == 0x00 && mf[1] > 0x00 {
		tx.SegWit, tx.Flag = true, mf[1]
	} else if _, err = c.Seek(-2, io.SeekCurrent); err != nil {
		return nil, err
	}

	if err = BinRead(&tx.TxIns, c); err != nil {
		return nil, err
	}
	if err = BinRead(&tx.TxOuts, c); err != nil {
		return nil, err
	}

	var witnessStart, witnessEnd int
	if tx.SegWit {
		witnessStart = c.Tell()
		for _, txin := range tx.TxIns {
			var wits Witness
			if err = BinRead(&wits, c); err != nil {
				return nil, err
			}
			// Core drops empty witnesses, so do we.
			if len(wits) > 0 {
				txin.Witness = wits
			}
		}
		witnessEnd = c.Tell()
	}

	lt, err := readUint(c, 4)
	if err != nil {
		return nil, err
	}
	tx.LockTime = LockTime(lt)

	if err = tx.computeHashes(c, pos, witnessStart, witnessEnd, c.Tell()); err != nil {
		return nil, err
	}
	return tx, nil
}

// computeHashes derives txid, hash and the sizes from the byte ranges
// of the transaction within c. For segwit the txid covers version,
// inputs, outputs and locktime only: [pos, pos+4) ++ [pos+6,
// witnessStart) ++ [witnessEnd, witnessEnd+4).
func (tx *Tx) computeHashes(c *Cursor, pos, witnessStart, witnessEnd, end int) error {
	txData, err := c.Slice(pos, end)
	if err != nil {
		return err
	}
	tx.raw = txData
	tx.Size = len(txData)

	if tx.SegWit {
		buf := make([]byte, 0, 4+(witnessStart-pos-6)+4)
		buf = append(buf, txData[:4]...)
		buf = append(buf, txData[6:witnessStart-pos]...)
		buf = append(buf, txData[witnessEnd-pos:witnessEnd-pos+4]...)

		tx.Txid = Hash256(buf)
		tx.Hash = Hash256(txData)
		tx.VSize = len(buf)
	} else {
		tx.Txid = Hash256(txData)
		tx.Hash = tx.Txid
		tx.VSize = tx.Size
	}

	tx.Weight = tx.VSize*3 + tx.Size
	return nil
}

// DecodeTxHex decodes a single hex encoded transaction, trailing data
// is an error.
func DecodeTxHex(s string) (*Tx, error) {
	b, err := hex.DecodeString(s)
	if err != nil {
		return nil, err
	}
	c := NewCursor(b)
	tx, err := DecodeTx(c)
	if err != nil {
		return nil, err
	}
	if c.Tell() != c.Size() {
		return nil, fmt.Errorf("%d trailing bytes after transaction", c.Size()-c.Tell())
	}
	return tx, nil
}

// Hex is the transaction as it was read.
func (tx *Tx) Hex() string {
	return hex.EncodeToString(tx.raw)
}

func (tx *Tx) IsCoinbase() bool {
	return len(tx.TxIns) == 1 && tx.TxIns[0].IsCoinbase()
}

func (tx *Tx) BinWrite(w io.Writer) (err error) {
	if err = BinWrite(uint32(tx.Version), w); err != nil {
		return err
	}
	if tx.SegWit {
		flag := tx.Flag
		if flag == 0 {
			flag = 0x01
		}
		if _, err = w.Write([]byte{0x00, flag}); err != nil {
			return err
		}
	}
	if err = BinWrite(&tx.TxIns, w); err != nil {
		return err
	}
	if err = BinWrite(&tx.TxOuts, w); err != nil {
		return err
	}
	if tx.SegWit {
		for _, txin := range tx.TxIns {
			if err = BinWrite(&txin.Witness, w); err != nil {
				return err
			}
		}
	}
	if err = BinWrite(uint32(tx.LockTime), w); err != nil {
		return err
	}
	return nil
}

// Bytes re-encodes the transaction.
func (tx *Tx) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := tx.BinWrite(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

type TxList []*Tx
