// Package logging configures the process-wide logrus logger used by knox.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/term"
)

// DefaultLevel keeps report output on stdout free of log noise.
const DefaultLevel = logrus.WarnLevel

// Init sets formatter, level and output. An empty level keeps DefaultLevel;
// an unknown one is reported and ignored. When logfile is set, entries are
// appended to it instead of stderr.
func Init(level, logfile string) {
	Configure(os.Stderr, level, logfile)
}

// Configure is Init with an explicit default writer.
func Configure(w io.Writer, level, logfile string) {
	logrus.SetFormatter(&logrus.TextFormatter{
		ForceColors:   isTerminal(w) && logfile == "",
		FullTimestamp: true,
		DisableQuote:  true,
		PadLevelText:  true,
	})
	logrus.SetOutput(w)
	logrus.SetLevel(DefaultLevel)
	if level = strings.TrimSpace(level); level != "" {
		if lvl, err := logrus.ParseLevel(level); err == nil {
			logrus.SetLevel(lvl)
		} else {
			logrus.WithField("level", level).Warn("unknown log level, keeping default")
		}
	}
	if logfile != "" {
		file, err := os.OpenFile(logfile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			logrus.SetOutput(file)
		} else {
			logrus.WithError(err).Warn("failed to open log file, logging to stderr")
		}
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
