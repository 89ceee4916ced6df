package journal

import "github.com/btcsuite/btclog"

// log is a package level logger, disabled by default.  The caller that
// wants output wires one in with UseLogger.
var log = btclog.Disabled

// UseLogger uses a specified Logger to output package logging info.
func UseLogger(logger btclog.Logger) {
	log = logger
}

// DisableLog disables all library log output.
func DisableLog() {
	log = btclog.Disabled
}
