package blkreader

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/wire"
)

var ErrBadMagic = errors.New("bad magic")

const recordHeaderSize = 8 // magic + size

// BlkFileName is the name Core uses for block file n.
func BlkFileName(n int) string {
	return fmt.Sprintf("blk%05d.dat", n)
}

// BlkFileNumber parses n out of blkNNNNN.dat.
func BlkFileNumber(path string) (int, error) {
	name := filepath.Base(path)
	if !strings.HasPrefix(name, "blk") || !strings.HasSuffix(name, ".dat") {
		return 0, fmt.Errorf("Not a blk file name: %s", name)
	}
	return strconv.Atoi(strings.TrimSuffix(strings.TrimPrefix(name, "blk"), ".dat"))
}

// ListBlkFiles returns the blk*.dat files in dir in lexical order,
// which for Core's zero padded names is also numeric order.
func ListBlkFiles(dir string) ([]string, error) {
	if fi, err := os.Stat(dir); err != nil {
		return nil, err
	} else if !fi.IsDir() {
		return nil, fmt.Errorf("Not a directory: %s", dir)
	}
	files, err := filepath.Glob(filepath.Join(dir, "blk*.dat"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// BlkFile reads the [magic][size][payload] records of one blk file.
// It stops at EOF or at the first record that does not start with the
// expected magic (Core preallocates files with zeros).
type BlkFile struct {
	path   string
	f      *os.File
	r      *bufio.Reader
	magic  uint32
	offset int64 // of the next record
	n      int
	blk    *Block
	rec    Location
	err    error
}

func OpenBlkFile(path string, magic uint32) (*BlkFile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	log.Debugf("Scanning file: %v", path)
	return &BlkFile{
		path:  path,
		f:     f,
		r:     bufio.NewReaderSize(f, 64*1024),
		magic: magic,
		n:     -1,
	}, nil
}

// Next reads the next record. It returns false at the end of the
// records or on error, check Err().
func (bf *BlkFile) Next() bool {
	if bf.err != nil || bf.f == nil {
		return false
	}
	bf.blk = nil

	var hdr [recordHeaderSize]byte
	_, err := io.ReadFull(bf.r, hdr[:4])
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return false // a partial magic cannot match either
	} else if err != nil {
		bf.err = err
		return false
	}
	if m := binary.LittleEndian.Uint32(hdr[:4]); m != bf.magic {
		log.Tracef("%s: magic %08x at offset %d, end of records", bf.path, m, bf.offset)
		return false
	}
	if err = readFull(bf.r, hdr[4:]); err != nil {
		bf.err = fmt.Errorf("%s: record size at offset %d: %w", bf.path, bf.offset, err)
		return false
	}
	size := binary.LittleEndian.Uint32(hdr[4:])
	if err = checkRecordSize(size); err != nil {
		bf.err = fmt.Errorf("%s: offset %d: %w", bf.path, bf.offset, err)
		return false
	}

	payload := make([]byte, size)
	if err = readFull(bf.r, payload); err != nil {
		bf.err = fmt.Errorf("%s: block of %d bytes at offset %d: %w", bf.path, size, bf.offset, err)
		return false
	}

	blk, err := NewBlock(payload, int(size), bf.magic)
	if err != nil {
		bf.err = fmt.Errorf("%s: offset %d: %w", bf.path, bf.offset, err)
		return false
	}

	bf.n++
	bf.rec = Location{
		Path:   bf.path,
		Offset: bf.offset + recordHeaderSize,
		Size:   size,
		N:      bf.n,
	}
	bf.offset += recordHeaderSize + int64(size)
	bf.blk = blk
	return true
}

func (bf *BlkFile) Block() *Block {
	return bf.blk
}

// Location of the current block.
func (bf *BlkFile) Location() Location {
	return bf.rec
}

func (bf *BlkFile) Err() error {
	return bf.err
}

func (bf *BlkFile) Close() error {
	if bf != nil && bf.f != nil {
		err := bf.f.Close()
		bf.f = nil
		return err
	}
	return nil
}

// checkRecordSize rejects sizes no block can have before they become
// an allocation.
func checkRecordSize(size uint32) error {
	if size < BlockHeaderSize || size > wire.MaxBlockPayload {
		return fmt.Errorf("Invalid block size: %d", size)
	}
	return nil
}

// Location is where a block payload sits within the blk files.
type Location struct {
	Path   string
	Offset int64  // of the payload, the record starts 8 bytes earlier
	Size   uint32 // payload size
	N      int    // record number within the file, from 0
}

// FileNum is the NNNNN of the blk file, -1 if the name does not follow
// Core's naming.
func (l Location) FileNum() int {
	n, err := BlkFileNumber(l.Path)
	if err != nil {
		return -1
	}
	return n
}

// ReadBlockAt reads the single record whose payload starts at offset.
func ReadBlockAt(path string, offset int64, magic uint32) (*Block, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	pos := offset - recordHeaderSize
	if _, err := f.Seek(pos, io.SeekStart); err != nil {
		return nil, fmt.Errorf("Seeking to pos %d in file %v: %w", pos, path, err)
	}

	var hdr [recordHeaderSize]byte
	if err := readFull(f, hdr[:]); err != nil {
		return nil, fmt.Errorf("Reading record at %d in %v: %w", pos, path, err)
	}
	if m := binary.LittleEndian.Uint32(hdr[:4]); m != magic {
		return nil, fmt.Errorf("%w: %08x at %d in %v", ErrBadMagic, m, pos, path)
	}
	size := binary.LittleEndian.Uint32(hdr[4:])
	if err := checkRecordSize(size); err != nil {
		return nil, fmt.Errorf("Record at %d in %v: %w", pos, path, err)
	}

	payload := make([]byte, size)
	if err := readFull(f, payload); err != nil {
		return nil, fmt.Errorf("Reading block at %d in %v: %w", offset, path, err)
	}
	return NewBlock(payload, int(size), magic)
}
