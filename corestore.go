package blkreader

import (
	"errors"
	"fmt"
)

// ErrSkipFile returned from a WalkFunc skips the rest of the current
// blk file, Walk carries on with the next one.
var ErrSkipFile = errors.New("skip this file")

type WalkFunc func(loc Location, b *Block) error

// Walk calls fn for every block of every blk*.dat file in dir, files
// in order, blocks in file order. Any error other than ErrSkipFile
// from fn or from reading a file ends the walk. Each file is closed
// before the next is opened.
func Walk(dir string, magic uint32, fn WalkFunc) error {
	files, err := ListBlkFiles(dir)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		log.Warnf("No blk*.dat files in %s", dir)
	}
	for _, path := range files {
		if err := WalkFile(path, magic, fn); err != nil {
			return err
		}
	}
	return nil
}

// WalkFile is Walk for a single file.
func WalkFile(path string, magic uint32, fn WalkFunc) error {
	bf, err := OpenBlkFile(path, magic)
	if err != nil {
		return fmt.Errorf("Opening file %v: %w", path, err)
	}
	defer bf.Close()

	count := 0
	for bf.Next() {
		count++
		if err := fn(bf.Location(), bf.Block()); err != nil {
			if errors.Is(err, ErrSkipFile) {
				log.Infof("Skipping rest of %s after %d blocks", path, count)
				return nil
			}
			return err
		}
	}
	if err := bf.Err(); err != nil {
		return err
	}
	log.Infof("Read %d blocks from %s", count, path)
	return nil
}
