package orrery

import (
	"io"
	"os"

	kitlog "github.com/go-kit/kit/log"
)

// NewLogger returns a logfmt logger on stdout tagged with the provided simulation name.
func NewLogger(name string) kitlog.Logger {
	return newLogger(os.Stdout, name)
}

func newLogger(w io.Writer, name string) kitlog.Logger {
	klog := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(w))
	return kitlog.With(klog, "sim", name)
}
