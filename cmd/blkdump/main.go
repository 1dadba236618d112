package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/blkchain/blkreader"
	"github.com/blkchain/blkreader/db"
	"github.com/blkchain/blkreader/index"
	"github.com/blkchain/blkreader/rlimit"
	"github.com/btcsuite/btcd/wire"
	"github.com/jessevdk/go-flags"
)

var (
	errLimit       = errors.New("block limit reached")
	errInterrupted = errors.New("interrupted")
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
			os.Exit(0)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	out := bufio.NewWriter(os.Stdout)
	if cfg.Extract != "" {
		err = extract(cfg, out)
	} else {
		err = scan(cfg, out, interruptChan())
	}
	if ferr := out.Flush(); err == nil {
		err = ferr
	}
	if err != nil {
		log.Errorf("%v", err)
		os.Exit(1)
	}
}

// interruptChan is closed on the first ctrl-c.
func interruptChan() chan struct{} {
	interrupt := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt)
	go func() {
		<-sigCh
		log.Infof("Interrupt, exiting scan loop...")
		signal.Stop(sigCh)
		close(interrupt)
	}()
	return interrupt
}

// scanner holds everything the per-block callback writes to.
type scanner struct {
	cfg       *config
	enc       *json.Encoder
	batch     *index.Batch
	writer    *db.PGWriter
	interrupt chan struct{}

	blocks, txs int
}

func scan(cfg *config, out io.Writer, interrupt chan struct{}) error {
	s := &scanner{cfg: cfg, enc: json.NewEncoder(out), interrupt: interrupt}

	if cfg.Index != "" {
		if prev, err := rlimit.SetRLimit(1024); err != nil { // LevelDb opens many files!
			log.Warnf("Error setting rlimit: %v", err)
		} else if prev < 1024 {
			log.Infof("Raised open files rlimit from %d to 1024", prev)
		}
		idx, err := index.Open(cfg.Index, false)
		if err != nil {
			return fmt.Errorf("Opening index %s: %w", cfg.Index, err)
		}
		defer idx.Close()
		s.batch = idx.NewBatch()
	}

	if cfg.ConnStr != "" {
		w, err := db.NewPGWriter(cfg.ConnStr)
		if err != nil {
			return fmt.Errorf("Error creating writer: %w", err)
		}
		defer w.Close()
		s.writer = w
	}

	var err error
	if cfg.File != "" {
		err = blkreader.WalkFile(cfg.File, cfg.magic, s.block)
	} else {
		err = blkreader.Walk(cfg.Blocks, cfg.magic, s.block)
	}
	if errors.Is(err, errLimit) || errors.Is(err, errInterrupted) {
		log.Infof("Stopping: %v", err)
		err = nil
	}
	if s.batch != nil {
		if berr := s.batch.Write(); err == nil {
			err = berr
		}
	}
	log.Infof("Scanned %d blocks, %d transactions", s.blocks, s.txs)
	return err
}

func (s *scanner) block(loc blkreader.Location, b *blkreader.Block) error {
	select {
	case <-s.interrupt:
		return errInterrupted
	default:
	}

	if s.cfg.Verify {
		if err := verifyBlock(b); err != nil {
			return fmt.Errorf("Block %d in %s: %w", loc.N, loc.Path, err)
		}
	}

	switch {
	case s.cfg.JSON:
		if err := s.enc.Encode(b); err != nil {
			return fmt.Errorf("Block %v: %w", b.Hash(), err)
		}
	case s.cfg.Summary:
		sum, err := b.Summary()
		if err != nil {
			return fmt.Errorf("Block %v: %w", b.Hash(), err)
		}
		if err := s.enc.Encode(json.RawMessage(sum)); err != nil {
			return err
		}
	}

	if s.batch != nil {
		if err := s.batch.Put(b.Hash(), loc); err != nil {
			return err
		}
		if s.batch.Len() >= defaultBatchSize {
			if err := s.batch.Write(); err != nil {
				return err
			}
		}
	}

	if s.writer != nil {
		if err := s.writer.WriteBlock(b); err != nil {
			return err
		}
	}

	n, err := b.TxCount()
	if err != nil {
		return err
	}
	s.blocks++
	s.txs += int(n)
	log.Debugf("Block %d in %s: %v (%d txs)", loc.N, loc.Path, b.Hash(), n)

	if s.cfg.Limit > 0 && s.blocks >= s.cfg.Limit {
		return errLimit
	}
	return nil
}

// verifyBlock decodes b with btcd and compares the header hash, the
// transaction count and every transaction.
func verifyBlock(b *blkreader.Block) error {
	var mb wire.MsgBlock
	if err := mb.Deserialize(bytes.NewReader(b.Payload())); err != nil {
		return fmt.Errorf("btcd cannot decode block %v: %w", b.Hash(), err)
	}
	if h := mb.BlockHash(); blkreader.Uint256(h) != b.Hash() {
		return fmt.Errorf("block hash mismatch: %v != %v", b.Hash(), h)
	}

	it := b.Transactions()
	for it.Next() {
		if err := it.Tx().Verify(); err != nil {
			return fmt.Errorf("tx %d: %w", it.Index(), err)
		}
	}
	if err := it.Err(); err != nil {
		return err
	}
	if it.Count() != uint64(len(mb.Transactions)) {
		return fmt.Errorf("tx count mismatch: %d != %d", it.Count(), len(mb.Transactions))
	}
	return nil
}

func extract(cfg *config, out io.Writer) error {
	hash, err := blkreader.Uint256FromString(cfg.Extract)
	if err != nil {
		return fmt.Errorf("Invalid block hash %q: %w", cfg.Extract, err)
	}

	idx, err := index.Open(cfg.Index, true)
	if err != nil {
		return fmt.Errorf("Opening index %s: %w", cfg.Index, err)
	}
	defer idx.Close()

	b, err := idx.ReadBlock(cfg.Blocks, hash, cfg.magic)
	if err != nil {
		return err
	}

	if cfg.Out == "" {
		return json.NewEncoder(out).Encode(b)
	}
	if err := b.WriteFile(cfg.Out); err != nil {
		return err
	}
	log.Infof("Wrote block %v (%d bytes) to %s", hash, b.Size(), cfg.Out)
	return nil
}
