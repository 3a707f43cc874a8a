package output

import (
	"errors"
	"io"
	"syscall"
)

// IsBrokenPipe reports whether err is a broken or closed pipe, which happens
// when a downstream consumer such as head(1) exits early.
func IsBrokenPipe(err error) bool {
	return err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe))
}
