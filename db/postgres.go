package db

import (
	"bytes"
	"database/sql"
	"fmt"
	"time"

	"github.com/blkchain/blkreader"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// Explanation of how we handle integers. In Bitcoin structures most
// integers are uint32. Postgres does not have an unsigned int type,
// but using a bigint to store integers seems like a waste of
// space. So we cast all uints to int32, and thus 0xFFFFFFFF would
// become -1 in Postgres, which is fine as long as we know all the
// bits are correct.

// PGWriter writes decoded blocks to Postgres, one database
// transaction per block. It is not safe for concurrent use.
type PGWriter struct {
	db      *sqlx.DB
	blockId int
	txId    int64

	blocks, txs int
	start, last time.Time
}

func NewPGWriter(connstr string) (*PGWriter, error) {
	db, err := sqlx.Connect("postgres", connstr)
	if err != nil {
		return nil, err
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	w, err := newPGWriter(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return w, nil
}

func newPGWriter(db *sqlx.DB) (*PGWriter, error) {
	w := &PGWriter{db: db, start: time.Now(), last: time.Now()}
	var err error
	if w.blockId, err = getLastBlockId(db); err != nil {
		return nil, fmt.Errorf("Getting last block id: %w", err)
	}
	if w.txId, err = getLastTxId(db); err != nil {
		return nil, fmt.Errorf("Getting last tx id: %w", err)
	}
	if w.blockId > 0 {
		log.Infof("Appending after block id %d, tx id %d", w.blockId, w.txId)
	}
	return w, nil
}

func (w *PGWriter) Close() error {
	log.Infof("Wrote %d blocks, %d transactions", w.blocks, w.txs)
	return w.db.Close()
}

// WriteBlock decodes all transactions of b and writes the block, its
// transactions, inputs and outputs. Nothing is written if any
// transaction fails to decode.
func (w *PGWriter) WriteBlock(b *blkreader.Block) (err error) {
	br, err := newBlockRec(w.blockId+1, b)
	if err != nil {
		return fmt.Errorf("Decoding block %v: %w", b.Hash(), err)
	}

	txn, err := w.db.Beginx()
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			txn.Rollback()
		}
	}()

	if err = insertBlock(txn, br); err != nil {
		return fmt.Errorf("Block %v: %w", br.hash, err)
	}
	if err = copyTxs(txn, br, w.txId); err != nil {
		return fmt.Errorf("Block %v txs: %w", br.hash, err)
	}
	if err = copyTxIns(txn, br, w.txId); err != nil {
		return fmt.Errorf("Block %v txins: %w", br.hash, err)
	}
	if err = copyTxOuts(txn, br, w.txId); err != nil {
		return fmt.Errorf("Block %v txouts: %w", br.hash, err)
	}
	if err = txn.Commit(); err != nil {
		return err
	}

	w.blockId = br.id
	w.txId += int64(len(br.txs))
	w.blocks++
	w.txs += len(br.txs)

	// report progress
	if time.Now().Sub(w.last) > 5*time.Second {
		log.Infof("Blocks: %d Txs: %d Time: %v Tx/s: %02f",
			w.blocks, w.txs, time.Unix(int64(b.Time), 0),
			float64(w.txs)/time.Now().Sub(w.start).Seconds())
		w.last = time.Now()
	}
	return nil
}

func insertBlock(txn *sqlx.Tx, br *blockRec) error {
	b := br.block
	_, err := txn.Exec(`INSERT INTO blocks
  (id, hash, version, prevhash, merkleroot, time, bits, nonce, size, stripped_size, weight, tx_count, segwit)
  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		br.id,
		br.hash[:],
		int32(b.Version),
		b.PrevHash[:],
		b.HashMerkleRoot[:],
		int32(b.Time),
		int32(b.Bits),
		int32(b.Nonce),
		b.Size(),
		br.strippedSize,
		br.weight(),
		len(br.txs),
		br.segwit,
	)
	return err
}

func copyTxs(txn *sqlx.Tx, br *blockRec, lastTxId int64) error {
	cols := []string{"id", "block_id", "n", "txid", "hash", "version", "locktime", "segwit", "size", "vsize", "weight"}
	return copyIn(txn, "txs", cols, func(stmt *sql.Stmt) error {
		for n, tx := range br.txs {
			if _, err := stmt.Exec(
				lastTxId+int64(n)+1,
				br.id,
				n,
				tx.Txid[:],
				tx.Hash[:],
				tx.Version,
				int32(tx.LockTime),
				tx.SegWit,
				tx.Size,
				tx.VSize,
				tx.Weight,
			); err != nil {
				return err
			}
		}
		return nil
	})
}

func copyTxIns(txn *sqlx.Tx, br *blockRec, lastTxId int64) error {
	cols := []string{"tx_id", "n", "coinbase", "prevout_hash", "prevout_n", "scriptsig", "sequence", "witness"}
	return copyIn(txn, "txins", cols, func(stmt *sql.Stmt) error {
		for i, tx := range br.txs {
			for n, txin := range tx.TxIns {
				var prevHash, wb interface{} // NULL unless set
				var prevN int32
				if s, ok := txin.Source.(*blkreader.Spend); ok {
					prevHash, prevN = s.PrevOut.Hash[:], int32(s.PrevOut.N)
				} else {
					prevN = -1
				}
				if txin.Witness != nil {
					var b bytes.Buffer
					if err := blkreader.BinWrite(&txin.Witness, &b); err != nil {
						return err
					}
					wb = b.Bytes()
				}
				if _, err := stmt.Exec(
					lastTxId+int64(i)+1,
					n,
					txin.IsCoinbase(),
					prevHash,
					prevN,
					txin.Script(),
					int32(txin.Sequence),
					wb,
				); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func copyTxOuts(txn *sqlx.Tx, br *blockRec, lastTxId int64) error {
	cols := []string{"tx_id", "n", "value", "scriptpubkey"}
	return copyIn(txn, "txouts", cols, func(stmt *sql.Stmt) error {
		for i, tx := range br.txs {
			for _, txout := range tx.TxOuts {
				if _, err := stmt.Exec(
					lastTxId+int64(i)+1,
					int32(txout.N),
					int64(txout.Value),
					txout.ScriptPubKey,
				); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// copyIn runs one COPY ... FROM STDIN within txn, rows does the
// per-row Exec calls.
func copyIn(txn *sqlx.Tx, table string, cols []string, rows func(*sql.Stmt) error) error {
	stmt, err := txn.Prepare(pq.CopyIn(table, cols...))
	if err != nil {
		return err
	}
	if err = rows(stmt); err != nil {
		stmt.Close()
		return err
	}
	if _, err = stmt.Exec(); err != nil {
		stmt.Close()
		return err
	}
	return stmt.Close()
}

func getLastBlockId(db *sqlx.DB) (int, error) {
	var id int
	err := db.Get(&id, "SELECT COALESCE(MAX(id), 0) FROM blocks")
	return id, err
}

func getLastTxId(db *sqlx.DB) (int64, error) {
	var id int64
	err := db.Get(&id, "SELECT COALESCE(MAX(id), 0) FROM txs")
	return id, err
}

func createTables(db *sqlx.DB) error {
	sqlTables := `
  CREATE TABLE IF NOT EXISTS blocks (
   id            INT NOT NULL PRIMARY KEY
  ,hash          BYTEA NOT NULL
  ,version       INT NOT NULL
  ,prevhash      BYTEA NOT NULL
  ,merkleroot    BYTEA NOT NULL
  ,time          INT NOT NULL
  ,bits          INT NOT NULL
  ,nonce         INT NOT NULL
  ,size          INT NOT NULL
  ,stripped_size INT NOT NULL
  ,weight        INT NOT NULL
  ,tx_count      INT NOT NULL
  ,segwit        BOOLEAN NOT NULL
  );

  CREATE TABLE IF NOT EXISTS txs (
   id            BIGINT NOT NULL PRIMARY KEY
  ,block_id      INT NOT NULL
  ,n             INT NOT NULL -- position within block
  ,txid          BYTEA NOT NULL
  ,hash          BYTEA NOT NULL
  ,version       INT NOT NULL
  ,locktime      INT NOT NULL
  ,segwit        BOOLEAN NOT NULL
  ,size          INT NOT NULL
  ,vsize         INT NOT NULL
  ,weight        INT NOT NULL
  );

  CREATE TABLE IF NOT EXISTS txins (
   tx_id         BIGINT NOT NULL
  ,n             INT NOT NULL
  ,coinbase      BOOLEAN NOT NULL
  ,prevout_hash  BYTEA -- NULL for coinbase
  ,prevout_n     INT NOT NULL
  ,scriptsig     BYTEA NOT NULL
  ,sequence      INT NOT NULL
  ,witness       BYTEA
  );

  CREATE TABLE IF NOT EXISTS txouts (
   tx_id         BIGINT NOT NULL
  ,n             INT NOT NULL
  ,value         BIGINT NOT NULL
  ,scriptpubkey  BYTEA NOT NULL
  );

  CREATE INDEX IF NOT EXISTS blocks_hash_idx ON blocks(hash);
  CREATE INDEX IF NOT EXISTS txs_txid_idx ON txs(txid);
  CREATE INDEX IF NOT EXISTS txs_block_id_idx ON txs(block_id);
  CREATE INDEX IF NOT EXISTS txins_tx_id_idx ON txins(tx_id);
  CREATE INDEX IF NOT EXISTS txouts_tx_id_idx ON txouts(tx_id);
`
	_, err := db.Exec(sqlTables)
	return err
}
