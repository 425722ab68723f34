package executor

import (
	"io"
	"sync"
)

// IO holds the streams a builtin reads from and writes to.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
}

// NewIO creates an IO, substituting /dev/null behavior for nil streams.
func NewIO(stdin io.Reader, stdout, stderr io.Writer) *IO {
	return &IO{
		Stdin:  readerOrNull(stdin),
		Stdout: writerOrDiscard(stdout),
		Stderr: writerOrDiscard(stderr),
	}
}

func writerOrDiscard(w io.Writer) io.Writer {
	if w == nil {
		return &devNull{}
	}
	return w
}

func readerOrNull(r io.Reader) io.Reader {
	if r == nil {
		return &devNull{}
	}
	return r
}

// devNull implements io.Reader and io.Writer, always closed for reads and
// discarding writes.
type devNull struct{}

var _ io.Reader = (*devNull)(nil)
var _ io.Writer = (*devNull)(nil)

func (*devNull) Read([]byte) (int, error) {
	return 0, io.EOF
}

func (*devNull) Write(b []byte) (int, error) {
	return len(b), nil
}

// lockedWriter serializes writes from background jobs and the foreground
// onto a shared console stream.
type lockedWriter struct {
	mu *sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(b []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(b)
}

// consoleWriters wraps stdout and stderr so they share one lock.
func consoleWriters(stdout, stderr io.Writer) (io.Writer, io.Writer) {
	mu := &sync.Mutex{}
	return &lockedWriter{mu: mu, w: writerOrDiscard(stdout)}, &lockedWriter{mu: mu, w: writerOrDiscard(stderr)}
}

// childStdin converts r for exec.Cmd.Stdin, where nil means the null
// device.
func childStdin(r io.Reader) io.Reader {
	if _, ok := r.(*devNull); ok {
		return nil
	}
	return r
}
