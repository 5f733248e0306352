// Package logging sets up the node's single btclog backend and the
// subsystem loggers drawn from it, mirroring the teacher's per-package
// "var log btclog.Logger" convention with one shared backend.
package logging

import (
	"os"

	"github.com/btcsuite/btclog"
)

var backend = btclog.NewBackend(os.Stdout)

// Log is the default, unscoped logger used by packages without their own
// subsystem tag (proposer, main). Packages that want a distinct tag in
// log output should call NewSubsystem instead.
var Log = backend.Logger("QBLE")

// NewSubsystem returns a tagged logger sharing the node's single backend,
// for packages that want their own prefix in log lines (e.g. "ENGN",
// "STOR", "RPCS").
func NewSubsystem(tag string) btclog.Logger {
	return backend.Logger(tag)
}

// SetLevel parses level and applies it to logger alone; other loggers
// keep their own level. An unrecognized level string selects info.
func SetLevel(logger btclog.Logger, level string) {
	lvl, ok := btclog.LevelFromString(level)
	if !ok {
		lvl = btclog.InfoLvl
	}
	logger.SetLevel(lvl)
}
