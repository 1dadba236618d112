package blkreader

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// The JSON shapes follow bitcoin-cli getblock <hash> 2, minus anything
// that needs chain state (height, confirmations, mediantime, ...) or
// script decoding.

type scriptJSON struct {
	Hex string `json:"hex"`
}

type txInJSON struct {
	Coinbase  string      `json:"coinbase,omitempty"`
	Txid      *Uint256    `json:"txid,omitempty"`
	Vout      *uint32     `json:"vout,omitempty"`
	ScriptSig *scriptJSON `json:"scriptSig,omitempty"`
	Witness   []string    `json:"txinwitness,omitempty"`
	Sequence  uint32      `json:"sequence"`
}

func (tin *TxIn) MarshalJSON() ([]byte, error) {
	j := txInJSON{Sequence: tin.Sequence}
	switch s := tin.Source.(type) {
	case *Coinbase:
		j.Coinbase = hex.EncodeToString(s.Data)
	case *Spend:
		hash, n := s.PrevOut.Hash, s.PrevOut.N
		j.Txid, j.Vout = &hash, &n
		j.ScriptSig = &scriptJSON{hex.EncodeToString(s.ScriptSig)}
	default:
		return nil, fmt.Errorf("Unknown input source: %T", tin.Source)
	}
	for _, w := range tin.Witness {
		j.Witness = append(j.Witness, hex.EncodeToString(w))
	}
	return json.Marshal(j)
}

func (tout *TxOut) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Value        uint64     `json:"value"`
		N            uint32     `json:"n"`
		ScriptPubKey scriptJSON `json:"scriptPubKey"`
	}{tout.Value, tout.N, scriptJSON{hex.EncodeToString(tout.ScriptPubKey)}})
}

func (tx *Tx) MarshalJSON() ([]byte, error) {
	vin, vout := tx.TxIns, tx.TxOuts
	if vin == nil {
		vin = TxInList{}
	}
	if vout == nil {
		vout = TxOutList{}
	}
	return json.Marshal(struct {
		Txid     Uint256   `json:"txid"`
		Hash     Uint256   `json:"hash"`
		Version  int32     `json:"version"`
		Size     int       `json:"size"`
		VSize    int       `json:"vsize"`
		Weight   int       `json:"weight"`
		LockTime uint32    `json:"locktime"`
		Vin      TxInList  `json:"vin"`
		Vout     TxOutList `json:"vout"`
		Hex      string    `json:"hex"`
	}{tx.Txid, tx.Hash, tx.Version, tx.Size, tx.VSize, tx.Weight,
		uint32(tx.LockTime), vin, vout, tx.Hex()})
}

type blockJSON struct {
	Hash              Uint256  `json:"hash"`
	Size              int      `json:"size"`
	StrippedSize      int      `json:"strippedsize"`
	Weight            int      `json:"weight"`
	Version           uint32   `json:"version"`
	VersionHex        string   `json:"versionHex"`
	MerkleRoot        Uint256  `json:"merkleroot"`
	Tx                []*Tx    `json:"tx,omitempty"`
	Time              uint32   `json:"time"`
	Nonce             uint32   `json:"nonce"`
	Bits              string   `json:"bits"`
	Difficulty        float64  `json:"difficulty"`
	NTx               uint64   `json:"nTx"`
	PreviousBlockHash *Uint256 `json:"previousblockhash,omitempty"`
}

// MarshalJSON decodes every transaction. Use Summary() to leave them
// out.
func (b *Block) MarshalJSON() ([]byte, error) {
	return b.marshal(true)
}

// Summary is the block JSON without the transactions.
func (b *Block) Summary() ([]byte, error) {
	return b.marshal(false)
}

func (b *Block) marshal(withTxs bool) ([]byte, error) {
	j := blockJSON{
		Hash:         b.Hash(),
		Size:         b.size,
		StrippedSize: b.size,
		Version:      b.Version,
		VersionHex:   fmt.Sprintf("%08x", b.Version),
		MerkleRoot:   b.HashMerkleRoot,
		Time:         b.Time,
		Nonce:        b.Nonce,
		Bits:         fmt.Sprintf("%08x", b.Bits),
		Difficulty:   b.Difficulty(),
	}
	if !b.PrevHash.IsZero() {
		prev := b.PrevHash
		j.PreviousBlockHash = &prev
	}

	it := b.Transactions()
	for it.Next() {
		tx := it.Tx()
		j.StrippedSize -= tx.Size - tx.VSize
		if withTxs {
			j.Tx = append(j.Tx, tx)
		}
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	j.NTx = it.Count()
	j.Weight = j.StrippedSize*3 + j.Size
	return json.Marshal(j)
}
