// Package sink provides destinations for the chunks flushed by box streams.
package sink

import (
	"io"
)

// Func adapts a function to mp4mux.Sink.
type Func func(data []byte) error

func (f Func) WriteChunk(data []byte) error {
	return f(data)
}

// Buffer keeps every chunk in memory.
type Buffer struct {
	data   []byte
	chunks [][]byte
}

func NewBuffer() *Buffer {
	return &Buffer{
		data:   nil,
		chunks: nil,
	}
}

func (b *Buffer) WriteChunk(data []byte) error {
	b.data = append(b.data, data...)
	b.chunks = append(b.chunks, data)
	return nil
}

// Bytes returns everything received so far as one slice.
func (b *Buffer) Bytes() []byte {
	return b.data
}

// Chunks returns the received chunks in order.
func (b *Buffer) Chunks() [][]byte {
	return b.chunks
}

func (b *Buffer) Written() int64 {
	return int64(len(b.data))
}

type flusher interface {
	Flush()
}

// Writer passes every chunk to an io.Writer. Writers that can flush, such as HTTP
// response writers, are flushed after each chunk.
type Writer struct {
	w       io.Writer
	written int64
}

func NewWriter(w io.Writer) *Writer {
	return &Writer{
		w:       w,
		written: 0,
	}
}

func (s *Writer) WriteChunk(data []byte) error {
	n, err := s.w.Write(data)
	s.written += int64(n)
	if err != nil {
		return err
	}
	if n != len(data) {
		return io.ErrShortWrite
	}
	if f, ok := s.w.(flusher); ok {
		f.Flush()
	}
	return nil
}

func (s *Writer) Written() int64 {
	return s.written
}
