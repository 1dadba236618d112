package db

import (
	"github.com/blkchain/blkreader"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type Config struct {
	ConnectString string
}

type Explorer struct {
	db *sqlx.DB
}

func NewExplorer(cfg Config) (*Explorer, error) {
	if conn, err := sqlx.Connect("postgres", cfg.ConnectString); err != nil {
		return nil, err
	} else {
		return &Explorer{db: conn}, nil
	}
}

func (e *Explorer) Close() error {
	return e.db.Close()
}

func (e *Explorer) SelectBlockCount() (int, error) {
	var count int
	if err := e.db.Get(&count, "SELECT COUNT(1) FROM blocks"); err != nil {
		return 0, err
	}
	return count, nil
}

func (e *Explorer) SelectBlockByHashJson(hash blkreader.Uint256) (*string, error) {
	stmt := "SELECT to_json(b.*) AS block FROM ( " +
		"SELECT id, hash, version, prevhash, merkleroot, time, bits, nonce, size, stripped_size, weight, tx_count, segwit " +
		"FROM blocks " +
		"WHERE hash = $1 " +
		") b"

	var block string
	if err := e.db.Get(&block, stmt, hash[:]); err != nil {
		return nil, err
	}

	return &block, nil
}

func (e *Explorer) SelectTxsJson(blockHash blkreader.Uint256, startN, limit int) ([]string, error) {
	stmt := `SELECT to_json(t.*) AS tx
  FROM (
    SELECT t.n, t.txid, t.hash, t.version, t.locktime, t.size, t.vsize, t.weight
      FROM blocks b
      JOIN txs t ON t.block_id = b.id
     WHERE b.hash = $1
       AND t.n >= $2
     ORDER BY t.n
     LIMIT $3
  ) t`

	var txs []string
	if err := e.db.Select(&txs, stmt, blockHash[:], startN, limit); err != nil {
		return nil, err
	}

	return txs, nil
}

// The tx with its inputs and outputs, ids hidden.
func (e *Explorer) SelectTxByTxidJson(txid blkreader.Uint256) (*string, error) {
	stmt := `SELECT to_json(x.*) AS tx
  FROM (
    SELECT t.txid, t.hash, t.version, t.locktime, t.size, t.vsize, t.weight
          ,(SELECT json_agg(i.* ORDER BY i.n) FROM (
              SELECT n, coinbase, prevout_hash, prevout_n, scriptsig, sequence, witness
                FROM txins WHERE tx_id = t.id) i) AS vin
          ,(SELECT json_agg(o.* ORDER BY o.n) FROM (
              SELECT n, value, scriptpubkey
                FROM txouts WHERE tx_id = t.id) o) AS vout
      FROM txs t
     WHERE t.txid = $1
     ORDER BY t.id
     LIMIT 1
  ) x`

	var tx string
	if err := e.db.Get(&tx, stmt, txid[:]); err != nil {
		return nil, err
	}
	return &tx, nil
}
