package blkreader

import (
	"bytes"
	"fmt"

	"github.com/btcsuite/btcd/wire"
)

// btcd's wire package is an independent decoder of the same format,
// these let us convert both ways and compare results.

// TxFromMsgTx serializes mtx and decodes it, so all computed fields
// are filled in.
func TxFromMsgTx(mtx *wire.MsgTx) (*Tx, error) {
	var buf bytes.Buffer
	if err := mtx.Serialize(&buf); err != nil {
		return nil, err
	}
	return DecodeTx(NewCursor(buf.Bytes()))
}

// BlockFromMsgBlock is the Block equivalent of TxFromMsgTx.
func BlockFromMsgBlock(mb *wire.MsgBlock, magic uint32) (*Block, error) {
	var buf bytes.Buffer
	if err := mb.Serialize(&buf); err != nil {
		return nil, err
	}
	return NewBlock(buf.Bytes(), 0, magic)
}

func (tx *Tx) MsgTx() (*wire.MsgTx, error) {
	var mtx wire.MsgTx
	if err := mtx.Deserialize(bytes.NewReader(tx.raw)); err != nil {
		return nil, err
	}
	return &mtx, nil
}

// Verify checks txid, hash and sizes against btcd.
func (tx *Tx) Verify() error {
	mtx, err := tx.MsgTx()
	if err != nil {
		return fmt.Errorf("btcd cannot decode tx %v: %w", tx.Txid, err)
	}
	if h := mtx.TxHash(); Uint256(h) != tx.Txid {
		return fmt.Errorf("txid mismatch: %v != %v", tx.Txid, h)
	}
	if h := mtx.WitnessHash(); Uint256(h) != tx.Hash {
		return fmt.Errorf("hash mismatch for %v: %v != %v", tx.Txid, tx.Hash, h)
	}
	if sz := mtx.SerializeSize(); sz != tx.Size {
		return fmt.Errorf("size mismatch for %v: %d != %d", tx.Txid, tx.Size, sz)
	}
	if sz := mtx.SerializeSizeStripped(); sz != tx.VSize {
		return fmt.Errorf("stripped size mismatch for %v: %d != %d", tx.Txid, tx.VSize, sz)
	}
	return nil
}
