package db

import "github.com/blkchain/blkreader"

// blockRec is a decoded block with everything the blocks row needs.
type blockRec struct {
	id           int
	block        *blkreader.Block
	hash         blkreader.Uint256
	txs          blkreader.TxList
	strippedSize int
	segwit       bool
}

func newBlockRec(id int, b *blkreader.Block) (*blockRec, error) {
	txs, err := b.Txs()
	if err != nil {
		return nil, err
	}
	br := &blockRec{
		id:           id,
		block:        b,
		hash:         b.Hash(),
		txs:          txs,
		strippedSize: b.Size(),
	}
	for _, tx := range txs {
		br.strippedSize -= tx.Size - tx.VSize
		br.segwit = br.segwit || tx.SegWit
	}
	return br, nil
}

func (br *blockRec) weight() int {
	return br.strippedSize*3 + br.block.Size()
}
