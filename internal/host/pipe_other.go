//go:build !unix

package host

import (
	"io"
	"os"
)

// NewPipeLines is NewLines for a pipe inherited from a parent process.
func NewPipeLines(in *os.File, out io.Writer) (*Lines, error) {
	return NewLines(in, out), nil
}
