package index

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/blkchain/blkreader"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
	"github.com/syndtr/goleveldb/leveldb/util"
)

var ErrNotFound = errors.New("block not in index")

// Keys are 'b' + block hash (wire order), like Core's block index.
const blockPrefix = 'b'

// Index maps block hashes to where the block is in the blk files,
// so that a single block can be read back without scanning.
type Index struct {
	db *leveldb.DB
}

func Open(path string, readOnly bool) (*Index, error) {
	db, err := leveldb.OpenFile(path, &opt.Options{ReadOnly: readOnly})
	if err != nil {
		return nil, err
	}
	return &Index{db: db}, nil
}

func (idx *Index) Close() error {
	return idx.db.Close()
}

// entry is the stored value: file number, payload offset and payload
// size, all varints.
type entry struct {
	FileN  uint64
	Offset uint64
	Size   uint64
}

func (e *entry) BinRead(r io.Reader) (err error) {
	if e.FileN, err = blkreader.ReadVarInt(r); err != nil {
		return err
	}
	if e.Offset, err = blkreader.ReadVarInt(r); err != nil {
		return err
	}
	if e.Size, err = blkreader.ReadVarInt(r); err != nil {
		return err
	}
	return nil
}

func (e *entry) BinWrite(w io.Writer) (err error) {
	if err = blkreader.WriteVarInt(w, e.FileN); err != nil {
		return err
	}
	if err = blkreader.WriteVarInt(w, e.Offset); err != nil {
		return err
	}
	return blkreader.WriteVarInt(w, e.Size)
}

func key(hash blkreader.Uint256) []byte {
	k := make([]byte, 1+len(hash))
	k[0] = blockPrefix
	copy(k[1:], hash[:])
	return k
}

func encode(loc blkreader.Location) ([]byte, error) {
	n := loc.FileNum()
	if n < 0 {
		return nil, fmt.Errorf("Cannot index %s, not a blk file name", loc.Path)
	}
	var buf bytes.Buffer
	e := entry{FileN: uint64(n), Offset: uint64(loc.Offset), Size: uint64(loc.Size)}
	if err := blkreader.BinWrite(&e, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decode fills in a Location; Path is relative to the blocks
// directory and N is unknown (-1).
func decode(value []byte) (blkreader.Location, error) {
	var e entry
	if err := blkreader.BinRead(&e, bytes.NewReader(value)); err != nil {
		return blkreader.Location{}, err
	}
	return blkreader.Location{
		Path:   blkreader.BlkFileName(int(e.FileN)),
		Offset: int64(e.Offset),
		Size:   uint32(e.Size),
		N:      -1,
	}, nil
}

func (idx *Index) Put(hash blkreader.Uint256, loc blkreader.Location) error {
	v, err := encode(loc)
	if err != nil {
		return err
	}
	return idx.db.Put(key(hash), v, nil)
}

// Get returns the location of the block, with Path relative to the
// blocks directory.
func (idx *Index) Get(hash blkreader.Uint256) (blkreader.Location, error) {
	v, err := idx.db.Get(key(hash), nil)
	if err == leveldb.ErrNotFound {
		return blkreader.Location{}, fmt.Errorf("%w: %v", ErrNotFound, hash)
	} else if err != nil {
		return blkreader.Location{}, err
	}
	return decode(v)
}

func (idx *Index) ForEach(fn func(blkreader.Uint256, blkreader.Location) error) error {
	iter := idx.db.NewIterator(util.BytesPrefix([]byte{blockPrefix}), nil)
	defer iter.Release()

	for iter.Next() {
		loc, err := decode(iter.Value())
		if err != nil {
			return err
		}
		if err := fn(blkreader.Uint256FromBytes(iter.Key()[1:]), loc); err != nil {
			return err
		}
	}
	return iter.Error()
}

func (idx *Index) Count() (int, error) {
	count := 0
	err := idx.ForEach(func(blkreader.Uint256, blkreader.Location) error {
		count++
		return nil
	})
	return count, err
}

// ReadBlock reads a block by hash from the blk files in blocksDir.
func (idx *Index) ReadBlock(blocksDir string, hash blkreader.Uint256, magic uint32) (*blkreader.Block, error) {
	loc, err := idx.Get(hash)
	if err != nil {
		return nil, err
	}
	path := filepath.Join(blocksDir, loc.Path)
	b, err := blkreader.ReadBlockAt(path, loc.Offset, magic)
	if err != nil {
		return nil, fmt.Errorf("Reading block %v: %w", hash, err)
	}
	if h := b.Hash(); h != hash {
		return nil, fmt.Errorf("Index is stale, found %v at %s:%d instead of %v", h, loc.Path, loc.Offset, hash)
	}
	return b, nil
}

// Batch collects Puts and writes them in one go.
type Batch struct {
	idx   *Index
	batch *leveldb.Batch
}

func (idx *Index) NewBatch() *Batch {
	return &Batch{idx: idx, batch: new(leveldb.Batch)}
}

func (b *Batch) Put(hash blkreader.Uint256, loc blkreader.Location) error {
	v, err := encode(loc)
	if err != nil {
		return err
	}
	b.batch.Put(key(hash), v)
	return nil
}

func (b *Batch) Len() int {
	return b.batch.Len()
}

func (b *Batch) Write() error {
	n := b.batch.Len()
	if n == 0 {
		return nil
	}
	if err := b.idx.db.Write(b.batch, nil); err != nil {
		return err
	}
	log.Debugf("Wrote %d index entries", n)
	b.batch.Reset()
	return nil
}

// Build walks all blk files in blocksDir and indexes every block,
// writing a batch per file.
func Build(idx *Index, blocksDir string, magic uint32) (int, error) {
	count := 0
	batch := idx.NewBatch()
	files, err := blkreader.ListBlkFiles(blocksDir)
	if err != nil {
		return 0, err
	}
	for _, path := range files {
		err := blkreader.WalkFile(path, magic, func(loc blkreader.Location, b *blkreader.Block) error {
			count++
			return batch.Put(b.Hash(), loc)
		})
		if err != nil {
			return count, err
		}
		if err := batch.Write(); err != nil {
			return count, err
		}
	}
	log.Infof("Indexed %d blocks from %d files", count, len(files))
	return count, nil
}
