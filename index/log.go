package index

import "github.com/btcsuite/btclog"

var log = btclog.Disabled

func DisableLog() {
	UseLogger(btclog.Disabled)
}

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}
