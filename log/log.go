// Package log wires backend loggers into every cmtree subsystem at
// once.  The library packages each expose their own UseLogger hook and
// stay silent until one is called; this package is a convenience for
// embedders that want all of them pointed somewhere in one shot.
package log

import (
	"github.com/btcsuite/btclog"

	"github.com/mit-dci/cmtree/journal"
	"github.com/mit-dci/cmtree/mirror"
	"github.com/mit-dci/cmtree/tree"
)

// Loggers holds one logger per subsystem so an embedder can route
// packages to different backends or levels.
type Loggers struct {
	Tree    btclog.Logger
	Journal btclog.Logger
	Mirror  btclog.Logger
}

// SetLoggers points every subsystem field at the same logger.
func (l *Loggers) SetLoggers(logger btclog.Logger) {
	l.Tree = logger
	l.Journal = logger
	l.Mirror = logger
}

// Use hands each subsystem its logger.  A nil field turns that
// subsystem's output off.
func (l *Loggers) Use() {
	if l.Tree != nil {
		tree.UseLogger(l.Tree)
	} else {
		tree.DisableLog()
	}
	if l.Journal != nil {
		journal.UseLogger(l.Journal)
	} else {
		journal.DisableLog()
	}
	if l.Mirror != nil {
		mirror.UseLogger(l.Mirror)
	} else {
		mirror.DisableLog()
	}
}

// UseLoggerForAll points every subsystem at the same logger and
// returns the resulting set.
func UseLoggerForAll(logger btclog.Logger) Loggers {
	var loggers Loggers
	loggers.SetLoggers(logger)
	loggers.Use()
	return loggers
}

// DisableAll routes every subsystem back to btclog.Disabled.
func DisableAll() {
	tree.DisableLog()
	journal.DisableLog()
	mirror.DisableLog()
}
