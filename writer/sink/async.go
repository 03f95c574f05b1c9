package sink

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/ugparu/mp4mux"
	"github.com/ugparu/mp4mux/utils"
	"github.com/ugparu/mp4mux/utils/lifecycle"
	"github.com/ugparu/mp4mux/utils/logger"
)

// DefaultQueueSize is the number of chunks an async sink holds before WriteChunk blocks.
const DefaultQueueSize = 64

type async struct {
	lifecycle.AsyncManager[*async]
	name    string
	w       io.Writer
	closer  io.Closer
	chunkCh chan []byte
	mu      sync.Mutex
	closed  bool
	written atomic.Int64
}

// NewAsync creates a sink that writes chunks to w on a background goroutine. When w is
// an io.Closer it is closed after the queue has drained.
func NewAsync(name string, w io.Writer, queueSize int) mp4mux.AsyncSink {
	if queueSize < 1 {
		queueSize = DefaultQueueSize
	}
	a := &async{
		AsyncManager: nil,
		name:         name,
		w:            w,
		closer:       nil,
		chunkCh:      make(chan []byte, queueSize),
		mu:           sync.Mutex{},
		closed:       false,
	}
	if c, ok := w.(io.Closer); ok {
		a.closer = c
	}
	a.AsyncManager = lifecycle.NewAsyncManager[*async](a)
	_ = a.Start(func(*async) error { return nil })
	return a
}

// NewAsyncFile creates path, with its parent directories, and returns an async sink
// writing to it.
func NewAsyncFile(path string, queueSize int) (mp4mux.AsyncSink, error) {
	f, err := createFile(path)
	if err != nil {
		return nil, err
	}
	return NewAsync(path, f, queueSize), nil
}

func createFile(path string) (*os.File, error) {
	f, err := os.Create(path)
	if err == nil {
		return f, nil
	}
	if !os.IsNotExist(err) {
		return nil, err
	}
	if err = os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
		return nil, err
	}
	return os.Create(path)
}

// WriteChunk queues data. It fails once the sink is closed or a write has failed.
func (a *async) WriteChunk(data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return &utils.SinkClosedError{}
	}
	select {
	case <-a.Done():
		return a.stopped()
	default:
	}
	select {
	case a.chunkCh <- data:
		return nil
	case <-a.Done():
		return a.stopped()
	}
}

func (a *async) stopped() error {
	if err := a.Err(); err != nil {
		return err
	}
	return &utils.SinkClosedError{}
}

func (a *async) Step(stopCh <-chan struct{}) error {
	select {
	case <-stopCh:
		if err := a.drain(); err != nil {
			return err
		}
		return &lifecycle.BreakError{}
	case chunk := <-a.chunkCh:
		return a.write(chunk)
	}
}

func (a *async) drain() error {
	for {
		select {
		case chunk := <-a.chunkCh:
			if err := a.write(chunk); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (a *async) write(chunk []byte) error {
	n, err := a.w.Write(chunk)
	a.written.Add(int64(n))
	if err != nil {
		return fmt.Errorf("sink %s: %w", a.name, err)
	}
	if n != len(chunk) {
		return fmt.Errorf("sink %s: %w", a.name, io.ErrShortWrite)
	}
	logger.Tracef(a, "Wrote %d bytes, %d total", n, a.written.Load())
	return nil
}

// Close stops accepting chunks, waits until the queued ones are written and closes
// the underlying writer.
func (a *async) Close() {
	a.mu.Lock()
	a.closed = true
	a.mu.Unlock()
	a.AsyncManager.Close()
}

func (a *async) Close_() { //nolint: revive
	if a.closer == nil {
		return
	}
	if err := a.closer.Close(); err != nil {
		logger.Warningf(a, "Close failed: %s", err.Error())
	}
}

func (a *async) Written() int64 {
	return a.written.Load()
}

func (a *async) String() string {
	return fmt.Sprintf("ASYNC_SINK %s", a.name)
}
