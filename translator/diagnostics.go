package translator

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// Diagnostics receives the translator's informational and error messages. The
// two methods are separate channels; neither is part of the API contract.
type Diagnostics interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

const logPrefix = "gmshtranslator: "

type logDiagnostics struct {
	info, err *logrus.Logger
}

// NewLogDiagnostics sends info messages to out and errors to errOut
func NewLogDiagnostics(out, errOut io.Writer) Diagnostics {
	return &logDiagnostics{
		info: newLogger(out),
		err:  newLogger(errOut),
	}
}

// StdDiagnostics logs info to stdout and errors to stderr
func StdDiagnostics() Diagnostics {
	return NewLogDiagnostics(os.Stdout, os.Stderr)
}

func newLogger(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.GetLevel())
	l.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
		DisableQuote:     true,
	})
	return l
}

func (d *logDiagnostics) Infof(format string, args ...interface{}) {
	d.info.Infof(logPrefix+format, args...)
}

func (d *logDiagnostics) Errorf(format string, args ...interface{}) {
	d.err.Errorf(logPrefix+"ERROR! -> "+format, args...)
}

type discard struct{}

func (discard) Infof(string, ...interface{})  {}
func (discard) Errorf(string, ...interface{}) {}

// Discard drops every message
var Discard Diagnostics = discard{}
