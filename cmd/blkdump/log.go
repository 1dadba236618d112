package main

import (
	"fmt"
	"os"

	"github.com/blkchain/blkreader"
	"github.com/blkchain/blkreader/db"
	"github.com/blkchain/blkreader/index"
	"github.com/btcsuite/btclog"
)

// Log lines go to stderr so that stdout carries only JSON.
var (
	backendLog = btclog.NewBackend(os.Stderr)

	log     = backendLog.Logger("MAIN")
	blkrLog = backendLog.Logger("BLKR")
	indxLog = backendLog.Logger("INDX")
	pgdbLog = backendLog.Logger("PGDB")
)

var subsystemLoggers = map[string]btclog.Logger{
	"MAIN": log,
	"BLKR": blkrLog,
	"INDX": indxLog,
	"PGDB": pgdbLog,
}

func init() {
	blkreader.UseLogger(blkrLog)
	index.UseLogger(indxLog)
	db.UseLogger(pgdbLog)
}

// setLogLevels sets all subsystem loggers to the given level.
func setLogLevels(logLevel string) error {
	level, ok := btclog.LevelFromString(logLevel)
	if !ok {
		return fmt.Errorf("Invalid debug level: %q", logLevel)
	}
	for _, logger := range subsystemLoggers {
		logger.SetLevel(level)
	}
	return nil
}
