package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/blkchain/blkreader"
	"github.com/jessevdk/go-flags"
)

const (
	defaultNetwork    = "mainnet"
	defaultDebugLevel = "info"
	defaultBatchSize  = 10_000
)

type config struct {
	Blocks     string `long:"blocks" description:"Directory with the blk*.dat files"`
	File       string `long:"file" description:"Read a single blk file instead of the whole --blocks directory"`
	Network    string `long:"network" description:"Network the blk files belong to" choice:"mainnet" choice:"testnet3" choice:"signet" choice:"regtest"`
	Limit      int    `long:"limit" description:"Stop after this many blocks, 0 means all of them"`
	JSON       bool   `long:"json" description:"Print every block with its transactions as JSON, one per line"`
	Summary    bool   `long:"summary" description:"Print every block header as JSON, one per line"`
	Verify     bool   `long:"verify" description:"Decode every block with btcd as well and compare the results"`
	Index      string `long:"index" description:"LevelDb block index to build while scanning, or to read with --extract"`
	ConnStr    string `long:"connstr" description:"Postgres connection string, blocks are written to it while scanning"`
	Extract    string `long:"extract" description:"Hash of a block to look up in --index"`
	Out        string `long:"out" description:"Write the --extract block to this file as a blk record instead of printing it"`
	DebugLevel string `long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical, off}"`

	magic uint32
}

func defaultConfig() config {
	return config{
		Network:    defaultNetwork,
		DebugLevel: defaultDebugLevel,
	}
}

// loadConfig parses the command line and checks that the options make
// sense together.
func loadConfig(args []string) (*config, error) {
	cfg := defaultConfig()
	if _, err := flags.ParseArgs(&cfg, args); err != nil {
		return nil, err
	}
	if err := validateConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func validateConfig(cfg *config) error {
	var err error
	if cfg.magic, err = blkreader.NetworkMagic(cfg.Network); err != nil {
		return err
	}
	if err := setLogLevels(cfg.DebugLevel); err != nil {
		return err
	}

	if cfg.Limit < 0 {
		return fmt.Errorf("--limit must not be negative")
	}
	if cfg.Blocks != "" {
		cfg.Blocks = cleanPath(cfg.Blocks)
	}
	if cfg.File != "" {
		cfg.File = cleanPath(cfg.File)
	}
	if cfg.Index != "" {
		cfg.Index = cleanPath(cfg.Index)
	}

	if cfg.Extract != "" {
		if cfg.Index == "" || cfg.Blocks == "" {
			return fmt.Errorf("--extract needs --index and --blocks")
		}
		if cfg.ConnStr != "" || cfg.File != "" {
			return fmt.Errorf("--extract cannot be combined with --connstr or --file")
		}
		return nil
	}
	if cfg.Out != "" {
		return fmt.Errorf("--out is only valid with --extract")
	}
	if cfg.Blocks == "" && cfg.File == "" {
		return fmt.Errorf("--blocks or --file required")
	}
	if cfg.Blocks != "" && cfg.File != "" {
		return fmt.Errorf("--blocks and --file are mutually exclusive")
	}
	if cfg.JSON && cfg.Summary {
		return fmt.Errorf("--json and --summary are mutually exclusive")
	}
	return nil
}

// cleanPath expands a leading ~ and environment variables.
func cleanPath(path string) string {
	if len(path) > 0 && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[1:])
		}
	}
	return filepath.Clean(os.ExpandEnv(path))
}
