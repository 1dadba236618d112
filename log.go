package blkreader

import "github.com/btcsuite/btclog"

// log is disabled until the caller provides a logger with UseLogger.
var log = btclog.Disabled

// DisableLog disables all library log output.
func DisableLog() {
	UseLogger(btclog.Disabled)
}

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}
