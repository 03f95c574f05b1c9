package mp4

import (
	"fmt"

	"github.com/ugparu/mp4mux"
	"github.com/ugparu/mp4mux/format/mp4/boxstream"
	"github.com/ugparu/mp4mux/utils/logger"
)

const noTrack = -1

// PositionTracker forwards flushed output to a sink and counts the delivered bytes.
type PositionTracker struct {
	sink     mp4mux.Sink
	position int64
	chunks   int
}

// NewPositionTracker creates a tracker in front of sink.
func NewPositionTracker(sink mp4mux.Sink) *PositionTracker {
	return &PositionTracker{
		sink:     sink,
		position: 0,
		chunks:   0,
	}
}

// WriteChunk implements mp4mux.Sink.
func (t *PositionTracker) WriteChunk(data []byte) error {
	if err := t.sink.WriteChunk(data); err != nil {
		return err
	}
	t.position += int64(len(data))
	t.chunks++
	logger.Tracef(t, "Chunk #%d of %d bytes, position %d", t.chunks, len(data), t.position)
	return nil
}

// Position returns the number of bytes delivered to the sink.
func (t *PositionTracker) Position() int64 {
	return t.position
}

// Chunks returns the number of delivered chunks.
func (t *PositionTracker) Chunks() int {
	return t.chunks
}

func (t *PositionTracker) String() string {
	return "POSITION_TRACKER"
}

// Context is the write-time state shared by a writer tree: which tracks are present,
// at which index of the movie's track extends they live, and where the output goes.
type Context struct {
	videoIndex  int
	audioIndex  int
	bufferLimit int
	tracker     *PositionTracker
}

// NewContext creates a context without tracks.
func NewContext(tracker *PositionTracker) *Context {
	return &Context{
		videoIndex:  noTrack,
		audioIndex:  noTrack,
		bufferLimit: boxstream.DefaultBufferLimit,
		tracker:     tracker,
	}
}

func (c *Context) SetVideoIndex(index int) {
	c.videoIndex = index
}

func (c *Context) SetAudioIndex(index int) {
	c.audioIndex = index
}

// VideoIndex returns the video track index and whether a video track exists.
func (c *Context) VideoIndex() (int, bool) {
	return c.videoIndex, c.videoIndex != noTrack
}

// AudioIndex returns the audio track index and whether an audio track exists.
func (c *Context) AudioIndex() (int, bool) {
	return c.audioIndex, c.audioIndex != noTrack
}

// SetBufferLimit sets the buffer limit of the streams created for write passes.
func (c *Context) SetBufferLimit(limit int) {
	c.bufferLimit = limit
}

func (c *Context) Tracker() *PositionTracker {
	return c.tracker
}

func (c *Context) String() string {
	return fmt.Sprintf("MP4_CTX v=%d a=%d", c.videoIndex, c.audioIndex)
}

func (c *Context) newStream() *boxstream.Stream {
	return boxstream.New(
		boxstream.WithBufferLimit(c.bufferLimit),
		boxstream.WithSink(c.tracker),
	)
}

// flush resolves what is left in s and delivers it.
func (c *Context) flush(s *boxstream.Stream) error {
	data, err := s.Flush()
	if err != nil {
		return fmt.Errorf("mp4: flush failed: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	if err = c.tracker.WriteChunk(data); err != nil {
		return fmt.Errorf("mp4: sink failed at offset %d: %w", c.tracker.Position(), err)
	}
	return nil
}
