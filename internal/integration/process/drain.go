package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// drainChunk is the read size used by a Drain.
const drainChunk = 32 * 1024

// Drain reads one output stream to end-of-file on its own goroutine.
//
// A read error never escapes the drain: a marker describing it is appended
// to the captured text, Err reports it, and the drain finishes normally so
// the partial output is still available.
type Drain struct {
	name string
	r    io.ReadCloser

	mu   sync.Mutex
	buf  bytes.Buffer
	err  error
	done chan struct{}
}

// StartDrain begins draining r. When ctx ends before EOF, r is closed so
// the blocked read returns.
func StartDrain(ctx context.Context, name string, r io.ReadCloser) *Drain {
	d := &Drain{
		name: name,
		r:    r,
		done: make(chan struct{}),
	}
	go d.run(ctx)
	return d
}

func (d *Drain) run(ctx context.Context) {
	defer close(d.done)

	stop := context.AfterFunc(ctx, func() {
		_ = d.r.Close()
	})
	defer stop()

	chunk := make([]byte, drainChunk)
	for {
		n, err := d.r.Read(chunk)
		if n > 0 {
			d.mu.Lock()
			d.buf.Write(chunk[:n])
			d.mu.Unlock()
		}
		if err == nil {
			continue
		}
		if errors.Is(err, io.EOF) {
			return
		}
		if ctx.Err() != nil && errors.Is(err, os.ErrClosed) {
			err = ctx.Err()
		}

		d.mu.Lock()
		d.err = err
		fmt.Fprintf(&d.buf, "[p4kit: %s read error: %v]", d.name, err)
		d.mu.Unlock()
		return
	}
}

// Wait blocks until the stream reached EOF or failed.
func (d *Drain) Wait() {
	<-d.done
}

// Done returns a channel closed when the drain finishes.
func (d *Drain) Done() <-chan struct{} {
	return d.done
}

// Bytes returns a copy of the captured bytes.
func (d *Drain) Bytes() []byte {
	d.mu.Lock()
	defer d.mu.Unlock()
	return bytes.Clone(d.buf.Bytes())
}

// String returns the captured text.
func (d *Drain) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.buf.String()
}

// Err returns the read error that ended the drain, or nil on EOF.
func (d *Drain) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.err
}
