package utils

import (
	"bufio"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
)

// Check logs err and exits if it is not nil.
func Check(err error) {
	if err != nil {
		log.Fatal(err)
	}
}

func Max(a, b int) int {
	if a < b {
		return b
	}
	return a
}

func Min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// Writer is a buffered output that flushes and closes the underlying file on Close.
type Writer struct {
	*bufio.Writer
	c io.Closer
}

// Close flushes the buffer and closes the underlying file, unless it is os.Stdout.
func (w *Writer) Close() error {
	err := w.Flush()
	if w.c != nil {
		if cerr := w.c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// NewWriter returns a new Writer given an output file name. If the file name is '-' os.Stdout is used.
func NewWriter(output string) (*Writer, error) {
	switch output {
	case "-":
		return &Writer{bufio.NewWriter(os.Stdout), nil}, nil
	default:
		f, err := os.Create(output)
		if err != nil {
			return nil, err
		}
		return &Writer{bufio.NewWriter(f), f}, nil
	}
}
