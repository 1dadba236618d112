package blkreader

import (
	"bytes"
	"errors"
	"testing"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"
)

func legacyMsgTx() *wire.MsgTx {
	prev := chainhash.DoubleHashH([]byte("previous tx"))
	mtx := wire.NewMsgTx(1)
	mtx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&prev, 3), []byte{0x51, 0x52}, nil))
	mtx.AddTxOut(wire.NewTxOut(5000, []byte{0x76, 0xa9, 0x14}))
	mtx.AddTxOut(wire.NewTxOut(1, nil))
	mtx.LockTime = 600_000
	return mtx
}

// Two inputs, only the first carries a witness.
func segwitMsgTx() *wire.MsgTx {
	prev1 := chainhash.DoubleHashH([]byte("one"))
	prev2 := chainhash.DoubleHashH([]byte("two"))
	mtx := wire.NewMsgTx(2)
	mtx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&prev1, 0), nil,
		[][]byte{bytes.Repeat([]byte{0x30}, 71), bytes.Repeat([]byte{0x02}, 33)}))
	mtx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&prev2, 1), []byte{0x00, 0x14}, nil))
	mtx.TxIn[1].Sequence = 0xfffffffd
	mtx.AddTxOut(wire.NewTxOut(123456789, []byte{0x00, 0x14, 0xaa}))
	mtx.LockTime = 1_600_000_000
	return mtx
}

func serialize(t *testing.T, mtx *wire.MsgTx) []byte {
	var buf bytes.Buffer
	require.NoError(t, mtx.Serialize(&buf))
	return buf.Bytes()
}

func Test_DecodeTxLegacy(t *testing.T) {
	mtx := legacyMsgTx()
	raw := serialize(t, mtx)

	c := NewCursor(raw)
	tx, err := DecodeTx(c)
	require.NoError(t, err)
	require.Equal(t, len(raw), c.Tell())

	require.Equal(t, int32(1), tx.Version)
	require.False(t, tx.SegWit)
	require.Equal(t, LockTime(600_000), tx.LockTime)
	require.Len(t, tx.TxIns, 1)
	require.Len(t, tx.TxOuts, 2)

	spend, ok := tx.TxIns[0].Source.(*Spend)
	require.True(t, ok)
	require.Equal(t, Uint256(mtx.TxIn[0].PreviousOutPoint.Hash), spend.PrevOut.Hash)
	require.Equal(t, uint32(3), spend.PrevOut.N)
	require.Equal(t, []byte{0x51, 0x52}, spend.ScriptSig)
	require.Equal(t, uint32(wire.MaxTxInSequenceNum), tx.TxIns[0].Sequence)
	require.Nil(t, tx.TxIns[0].Witness)

	require.Equal(t, uint64(5000), tx.TxOuts[0].Value)
	require.Equal(t, uint32(0), tx.TxOuts[0].N)
	require.Equal(t, uint32(1), tx.TxOuts[1].N)
	require.Empty(t, tx.TxOuts[1].ScriptPubKey)

	require.Equal(t, Uint256(mtx.TxHash()), tx.Txid)
	require.Equal(t, tx.Txid, tx.Hash)
	require.Equal(t, len(raw), tx.Size)
	require.Equal(t, tx.Size, tx.VSize)
	require.Equal(t, tx.Size*4, tx.Weight)
	require.NoError(t, tx.Verify())
}

func Test_DecodeTxSegwit(t *testing.T) {
	mtx := segwitMsgTx()
	raw := serialize(t, mtx)

	tx, err := DecodeTx(NewCursor(raw))
	require.NoError(t, err)

	require.True(t, tx.SegWit)
	require.Equal(t, byte(1), tx.Flag)
	require.Len(t, tx.TxIns[0].Witness, 2)
	require.Len(t, tx.TxIns[0].Witness[0], 71)
	require.Nil(t, tx.TxIns[1].Witness, "empty witness stacks are dropped")
	require.Equal(t, uint32(0xfffffffd), tx.TxIns[1].Sequence)
	require.True(t, tx.LockTime.IsTimeLock())

	require.Equal(t, Uint256(mtx.TxHash()), tx.Txid)
	require.Equal(t, Uint256(mtx.WitnessHash()), tx.Hash)
	require.NotEqual(t, tx.Txid, tx.Hash)
	require.Equal(t, mtx.SerializeSize(), tx.Size)
	require.Equal(t, mtx.SerializeSizeStripped(), tx.VSize)
	require.Less(t, tx.VSize, tx.Size)
	require.Equal(t, tx.VSize*3+tx.Size, tx.Weight)
	require.NoError(t, tx.Verify())
}

func Test_DecodeTxRoundTrip(t *testing.T) {
	for _, mtx := range []*wire.MsgTx{legacyMsgTx(), segwitMsgTx()} {
		raw := serialize(t, mtx)
		tx, err := DecodeTx(NewCursor(raw))
		require.NoError(t, err)

		b, err := tx.Bytes()
		require.NoError(t, err)
		require.Equal(t, raw, b)

		back, err := tx.MsgTx()
		require.NoError(t, err)
		require.Equal(t, mtx.TxHash(), back.TxHash())

		again, err := TxFromMsgTx(back)
		require.NoError(t, err)
		require.Equal(t, tx.Txid, again.Txid)
		require.Equal(t, tx.Hash, again.Hash)
	}
}

func Test_DecodeTxTruncated(t *testing.T) {
	for _, mtx := range []*wire.MsgTx{legacyMsgTx(), segwitMsgTx()} {
		raw := serialize(t, mtx)
		for i := 0; i < len(raw); i++ {
			_, err := DecodeTx(NewCursor(raw[:i]))
			require.True(t, errors.Is(err, ErrTruncated), "prefix of %d bytes: %v", i, err)
		}
	}
}

func Test_DecodeTxSharedCursor(t *testing.T) {
	raw := append(serialize(t, segwitMsgTx()), serialize(t, legacyMsgTx())...)
	c := NewCursor(raw)

	first, err := DecodeTx(c)
	require.NoError(t, err)
	second, err := DecodeTx(c)
	require.NoError(t, err)
	require.Equal(t, len(raw), c.Tell())
	require.True(t, first.SegWit)
	require.False(t, second.SegWit)
	require.Equal(t, Uint256(legacyMsgTx().TxHash()), second.Txid)
}

func Test_Coinbase(t *testing.T) {
	gtx := chaincfg.MainNetParams.GenesisBlock.Transactions[0]
	tx, err := TxFromMsgTx(gtx)
	require.NoError(t, err)

	require.Equal(t, "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b", tx.Txid.String())
	require.True(t, tx.IsCoinbase())
	cb, ok := tx.TxIns[0].Source.(*Coinbase)
	require.True(t, ok)
	require.Equal(t, uint32(0xffffffff), cb.Index)
	require.Equal(t, gtx.TxIn[0].SignatureScript, cb.Data)
	require.Equal(t, cb.Data, tx.TxIns[0].Script())
	require.Equal(t, uint64(50_0000_0000), tx.TxOuts[0].Value)
}

func Test_CoinbaseIgnoresIndex(t *testing.T) {
	mtx := wire.NewMsgTx(1)
	mtx.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, 5), []byte{1, 2}, nil))
	mtx.AddTxOut(wire.NewTxOut(1, nil))

	tx, err := TxFromMsgTx(mtx)
	require.NoError(t, err)
	require.True(t, tx.TxIns[0].IsCoinbase())

	b, err := tx.Bytes()
	require.NoError(t, err)
	require.Equal(t, serialize(t, mtx), b)
}

func Test_DecodeTxHex(t *testing.T) {
	tx, err := TxFromMsgTx(segwitMsgTx())
	require.NoError(t, err)

	again, err := DecodeTxHex(tx.Hex())
	require.NoError(t, err)
	require.Equal(t, tx.Hash, again.Hash)

	_, err = DecodeTxHex(tx.Hex() + "00")
	require.Error(t, err)
	_, err = DecodeTxHex("zz")
	require.Error(t, err)
	_, err = DecodeTxHex(tx.Hex()[:20])
	require.True(t, errors.Is(err, ErrTruncated))
}
