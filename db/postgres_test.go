package db

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/blkchain/blkreader"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

func createMockWriter(t *testing.T, lastBlockId, lastTxId int64) (*PGWriter, sqlmock.Sqlmock) {
	mdb, mock, err := sqlmock.New()
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT COALESCE\(MAX\(id\), 0\) FROM blocks`).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(lastBlockId))
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(id\), 0\) FROM txs`).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(lastTxId))

	w, err := newPGWriter(sqlx.NewDb(mdb, "postgres"))
	require.NoError(t, err)
	return w, mock
}

// expectCopy expects one COPY with n rows and the final flush.
func expectCopy(mock sqlmock.Sqlmock, table string, n int) {
	mock.ExpectPrepare(`COPY "` + table + `"`)
	for i := 0; i < n+1; i++ {
		mock.ExpectExec(`COPY "` + table + `"`).WillReturnResult(sqlmock.NewResult(0, 0))
	}
}

func segwitBlock(t *testing.T) *blkreader.Block {
	prev := chainhash.DoubleHashH([]byte("prev"))
	mb := wire.NewMsgBlock(wire.NewBlockHeader(0x20000000, &prev, &chainhash.Hash{}, 0x1d00ffff, 7))

	cb := wire.NewMsgTx(1)
	cb.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&chainhash.Hash{}, wire.MaxPrevOutIndex), []byte{1, 2, 3}, nil))
	cb.AddTxOut(wire.NewTxOut(50, []byte{0x51}))
	cb.AddTxOut(wire.NewTxOut(0, []byte{0x6a}))

	spend := wire.NewMsgTx(2)
	spend.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&prev, 1), nil, [][]byte{{0x30, 0x01}, {0x02}}))
	spend.AddTxIn(wire.NewTxIn(wire.NewOutPoint(&prev, 2), []byte{0x51}, nil))
	spend.AddTxOut(wire.NewTxOut(0xffffffffffff, []byte{0x00, 0x14}))

	mb.AddTransaction(cb)
	mb.AddTransaction(spend)

	b, err := blkreader.BlockFromMsgBlock(mb, blkreader.MainNetMagic)
	require.NoError(t, err)
	return b
}

func Test_NewPGWriter(t *testing.T) {
	w, mock := createMockWriter(t, 10, 1234)
	require.Equal(t, 10, w.blockId)
	require.Equal(t, int64(1234), w.txId)

	mock.ExpectClose()
	require.NoError(t, w.Close())
	require.NoError(t, mock.ExpectationsWereMet())
}

func Test_WriteBlock(t *testing.T) {
	w, mock := createMockWriter(t, 0, 0)

	genesis, err := blkreader.BlockFromMsgBlock(chaincfg.MainNetParams.GenesisBlock, blkreader.MainNetMagic)
	require.NoError(t, err)
	hash := genesis.Hash()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO blocks`).
		WithArgs(1, hash[:], int32(1), genesis.PrevHash[:], genesis.HashMerkleRoot[:],
			int32(1231006505), int32(0x1d00ffff), int32(2083236893), 285, 285, 1140, 1, false).
		WillReturnResult(sqlmock.NewResult(1, 1))
	expectCopy(mock, "txs", 1)
	expectCopy(mock, "txins", 1)
	expectCopy(mock, "txouts", 1)
	mock.ExpectCommit()

	require.NoError(t, w.WriteBlock(genesis))
	require.Equal(t, 1, w.blockId)
	require.Equal(t, int64(1), w.txId)

	seg := segwitBlock(t)
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO blocks`).WillReturnResult(sqlmock.NewResult(2, 1))
	expectCopy(mock, "txs", 2)
	expectCopy(mock, "txins", 3)
	expectCopy(mock, "txouts", 3)
	mock.ExpectCommit()

	require.NoError(t, w.WriteBlock(seg))
	require.Equal(t, 2, w.blockId)
	require.Equal(t, int64(3), w.txId)
	require.Equal(t, 2, w.blocks)
	require.Equal(t, 3, w.txs)

	require.NoError(t, mock.ExpectationsWereMet())
}

func Test_WriteBlockRollback(t *testing.T) {
	w, mock := createMockWriter(t, 5, 50)
	seg := segwitBlock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO blocks`).WillReturnResult(sqlmock.NewResult(6, 1))
	expectCopy(mock, "txs", 2)
	mock.ExpectPrepare(`COPY "txins"`)
	mock.ExpectExec(`COPY "txins"`).WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := w.WriteBlock(seg)
	require.Error(t, err)
	require.Contains(t, err.Error(), "disk full")
	require.Equal(t, 5, w.blockId, "ids only move on commit")
	require.Equal(t, int64(50), w.txId)

	require.NoError(t, mock.ExpectationsWereMet())
}

func Test_WriteBlockUndecodable(t *testing.T) {
	w, mock := createMockWriter(t, 0, 0)

	genesis, err := blkreader.BlockFromMsgBlock(chaincfg.MainNetParams.GenesisBlock, blkreader.MainNetMagic)
	require.NoError(t, err)
	payload := genesis.Payload()
	short, err := blkreader.NewBlock(payload[:len(payload)-4], 0, blkreader.MainNetMagic)
	require.NoError(t, err)

	err = w.WriteBlock(short)
	require.True(t, errors.Is(err, blkreader.ErrTruncated))
	require.NoError(t, mock.ExpectationsWereMet(), "nothing touches the db")
}

func Test_blockRec(t *testing.T) {
	seg := segwitBlock(t)
	br, err := newBlockRec(3, seg)
	require.NoError(t, err)
	require.Equal(t, 3, br.id)
	require.True(t, br.segwit)
	require.Len(t, br.txs, 2)

	stripped, err := seg.StrippedSize()
	require.NoError(t, err)
	require.Equal(t, stripped, br.strippedSize)
	weight, err := seg.Weight()
	require.NoError(t, err)
	require.Equal(t, weight, br.weight())
}
