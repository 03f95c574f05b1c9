// Package boxstream provides a byte buffer that back-patches the 32-bit size fields of
// nested ISO base media boxes and hands finished output to a sink while writing.
package boxstream

import (
	"fmt"
	"math"
	"slices"

	"github.com/deepch/vdk/utils/bits/pio"
	"github.com/ugparu/mp4mux"
	"github.com/ugparu/mp4mux/format/mp4/mp4io"
	"github.com/ugparu/mp4mux/utils"
	"github.com/ugparu/mp4mux/utils/logger"
)

// DefaultBufferLimit is the buffered size above which resolved output is handed to the sink.
const DefaultBufferLimit = 4096

const sizeFieldLen = 4

// Option configures a Stream.
type Option func(*Stream)

// WithBufferLimit sets the soft limit of buffered bytes. Values below 1 keep the default.
func WithBufferLimit(limit int) Option {
	return func(s *Stream) {
		if limit > 0 {
			s.limit = limit
		}
	}
}

// WithSink enables delivery of resolved output to sink once the buffer exceeds its limit.
func WithSink(sink mp4mux.Sink) Option {
	return func(s *Stream) {
		s.sink = sink
	}
}

// Stream accumulates box bytes. Every StartBox pushes the absolute offset of a size
// placeholder, every EndBox pops one and patches it. Bytes at or after the oldest open
// placeholder are never delivered, so patching always hits memory.
//
// A Stream is not safe for concurrent use.
type Stream struct {
	buf         []byte
	delivered   int64   // bytes handed out so far; logical offset of buf[0]
	sizeOffsets []int64 // logical offsets of open size placeholders
	limit       int
	sink        mp4mux.Sink
	err         error
}

// New creates an empty stream.
func New(opts ...Option) *Stream {
	s := &Stream{
		limit: DefaultBufferLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.buf = make([]byte, 0, s.limit)
	return s
}

func (s *Stream) String() string {
	return "BOX_STREAM"
}

// Offset returns the logical write position: delivered plus buffered bytes.
func (s *Stream) Offset() int64 {
	return s.delivered + int64(len(s.buf))
}

// Buffered returns the number of bytes held in memory.
func (s *Stream) Buffered() int {
	return len(s.buf)
}

// Depth returns the number of boxes opened and not yet closed.
func (s *Stream) Depth() int {
	return len(s.sizeOffsets)
}

// Err returns the sticky error that stopped the stream, if any.
func (s *Stream) Err() error {
	return s.err
}

func (s *Stream) reserve(n int) []byte {
	if s.err != nil {
		return nil
	}
	l := len(s.buf)
	s.buf = slices.Grow(s.buf, n)[:l+n]
	return s.buf[l:]
}

func (s *Stream) WriteU8(v uint8) {
	if b := s.reserve(1); b != nil {
		pio.PutU8(b, v)
		s.deliver()
	}
}

func (s *Stream) WriteU16(v uint16) {
	if b := s.reserve(2); b != nil { //nolint:mnd
		pio.PutU16BE(b, v)
		s.deliver()
	}
}

// WriteU24 writes the low three bytes of v.
func (s *Stream) WriteU24(v uint32) {
	if b := s.reserve(3); b != nil { //nolint:mnd
		pio.PutU24BE(b, v)
		s.deliver()
	}
}

func (s *Stream) WriteU32(v uint32) {
	if b := s.reserve(4); b != nil { //nolint:mnd
		pio.PutU32BE(b, v)
		s.deliver()
	}
}

func (s *Stream) WriteU64(v uint64) {
	if b := s.reserve(8); b != nil { //nolint:mnd
		pio.PutU64BE(b, v)
		s.deliver()
	}
}

func (s *Stream) WriteTag(tag mp4io.Tag) {
	s.WriteU32(uint32(tag))
}

func (s *Stream) WriteBytes(p []byte) {
	if b := s.reserve(len(p)); b != nil {
		copy(b, p)
		s.deliver()
	}
}

// StartBox appends a zero size placeholder and remembers where it is.
func (s *Stream) StartBox() {
	s.sizeOffsets = append(s.sizeOffsets, s.Offset())
	if b := s.reserve(sizeFieldLen); b != nil {
		pio.PutU32BE(b, 0)
	}
}

// EndBox resolves the most recently opened placeholder. It panics when no box is open.
func (s *Stream) EndBox() {
	if len(s.sizeOffsets) == 0 {
		panic("boxstream: EndBox without matching StartBox")
	}
	s.resolveLast()
	s.deliver()
}

// WriteBox opens a box of type tag, runs body and closes the box.
func (s *Stream) WriteBox(tag mp4io.Tag, body func(*Stream)) {
	s.StartBox()
	s.WriteTag(tag)
	if body != nil {
		body(s)
	}
	s.EndBox()
}

// Flush resolves every open placeholder, innermost first, as if EndBox had been called
// for each of them now, and returns the bytes not yet handed to the sink. The buffer is
// empty afterwards.
//
// Boxes are nested by open state only: a box started while an unclosed sibling is
// still open ends up inside that sibling.
func (s *Stream) Flush() ([]byte, error) {
	if open := len(s.sizeOffsets); open > 0 {
		logger.Tracef(s, "Resolving %d open boxes on flush", open)
	}
	for len(s.sizeOffsets) > 0 {
		s.resolveLast()
	}
	if s.err != nil {
		s.buf = s.buf[:0]
		return nil, s.err
	}
	out := s.buf
	s.delivered += int64(len(out))
	s.buf = make([]byte, 0, s.limit)
	return out, nil
}

func (s *Stream) resolveLast() {
	last := len(s.sizeOffsets) - 1
	offset := s.sizeOffsets[last]
	s.sizeOffsets = s.sizeOffsets[:last]
	if s.err != nil {
		return
	}
	size := s.Offset() - offset
	if size > math.MaxUint32 {
		s.err = &utils.BoxSizeOverflowError{Offset: offset, Size: size}
		return
	}
	pio.PutU32BE(s.buf[offset-s.delivered:], uint32(size))
}

// deliver hands the resolved prefix of an over-limit buffer to the sink.
func (s *Stream) deliver() {
	if s.sink == nil || s.err != nil || len(s.buf) <= s.limit {
		return
	}
	end := len(s.buf)
	if len(s.sizeOffsets) > 0 {
		end = int(s.sizeOffsets[0] - s.delivered)
	}
	if end == 0 {
		return
	}

	chunk := s.buf[:end:end]
	tail := make([]byte, len(s.buf)-end, len(s.buf)-end+s.limit)
	copy(tail, s.buf[end:])
	s.buf = tail
	s.delivered += int64(end)

	logger.Tracef(s, "Delivering %d bytes, retaining %d", len(chunk), len(tail))
	if err := s.sink.WriteChunk(chunk); err != nil {
		s.err = fmt.Errorf("boxstream: sink failed at offset %d: %w", s.delivered-int64(end), err)
	}
}
