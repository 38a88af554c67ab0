//go:build unix

package host

import (
	"fmt"
	"io"
	"os"
	"syscall"
)

// NewPipeLines is NewLines for a pipe inherited from a parent process.
// Such pipes are usually in blocking mode, where Close cannot interrupt a
// pending read; in is duplicated and switched to non-blocking so the
// runtime poller owns the reads. in itself stays open.
func NewPipeLines(in *os.File, out io.Writer) (*Lines, error) {
	fd, err := syscall.Dup(int(in.Fd()))
	if err != nil {
		return nil, fmt.Errorf("dup %s: %w", in.Name(), err)
	}
	if err := syscall.SetNonblock(fd, true); err != nil {
		_ = syscall.Close(fd)
		return nil, fmt.Errorf("set %s non-blocking: %w", in.Name(), err)
	}
	return NewLines(os.NewFile(uintptr(fd), in.Name()), out), nil
}
