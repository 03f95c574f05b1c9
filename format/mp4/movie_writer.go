package mp4

import (
	"github.com/ugparu/mp4mux/format/mp4/boxstream"
	"github.com/ugparu/mp4mux/format/mp4/mp4io"
	"github.com/ugparu/mp4mux/utils"
)

const (
	mvhdVersion = 1
	trexVersion = 0

	normalRate = 0x00010000
	fullVolume = 0x0100
	preDefined = 6
)

// Unity transform: no scaling, rotation or skew. The last entry is 1.0 in 2.30 fixed point.
var unityMatrix = [9]uint32{
	0x00010000, 0, 0,
	0, 0x00010000, 0,
	0, 0, 0x40000000,
}

// MovieWriter writes `moov` with its `mvhd` and `mvex` children.
type MovieWriter struct {
	boxWriter
	box *mp4io.Movie
}

// NewMovieWriter builds the writer tree for box. It fails when ctx points at a track
// index that box does not have.
func NewMovieWriter(ctx *Context, box *mp4io.Movie) (*MovieWriter, error) {
	w := &MovieWriter{
		boxWriter: newBoxWriter(ctx),
		box:       box,
	}
	w.addChild(NewMovieHeaderWriter(ctx, &box.Header))
	mvex, err := NewMovieExtendsWriter(ctx, &box.Extends)
	if err != nil {
		return nil, err
	}
	w.addChild(mvex)
	return w, nil
}

func (w *MovieWriter) Write(s *boxstream.Stream) {
	s.StartBox()
	writeBox(s, mp4io.MOOV)
	w.writeChildren(s)
	s.EndBox()
}

// WriteAndFlush writes the tree and delivers all of it to the context's sink.
func (w *MovieWriter) WriteAndFlush() error {
	return w.writeAndFlush(w)
}

func (w *MovieWriter) String() string {
	return "MOOV_WRITER"
}

// MovieHeaderWriter writes `mvhd` (version 1, 64-bit times).
type MovieHeaderWriter struct {
	boxWriter
	box *mp4io.MovieHeader
}

func NewMovieHeaderWriter(ctx *Context, box *mp4io.MovieHeader) *MovieHeaderWriter {
	return &MovieHeaderWriter{
		boxWriter: newBoxWriter(ctx),
		box:       box,
	}
}

func (w *MovieHeaderWriter) Write(s *boxstream.Stream) {
	s.StartBox()
	writeFullBox(s, mp4io.MVHD, mvhdVersion, 0)

	s.WriteU64(mp4io.ISOTime(w.box.CreationTime))
	s.WriteU64(mp4io.ISOTime(w.box.ModificationTime))
	s.WriteU32(w.box.Timescale)
	s.WriteU64(mp4io.Ticks(w.box.Duration, w.box.Timescale))

	s.WriteU32(normalRate)
	s.WriteU16(fullVolume)
	s.WriteU16(0) // reserved
	s.WriteU32(0) // reserved
	s.WriteU32(0) // reserved

	for _, v := range unityMatrix {
		s.WriteU32(v)
	}
	for i := 0; i < preDefined; i++ {
		s.WriteU32(0)
	}

	s.WriteU32(w.box.NextTrackID)
	s.EndBox()
}

// MovieExtendsWriter writes `mvex` with a `trex` per present track, video first.
type MovieExtendsWriter struct {
	boxWriter
	box *mp4io.MovieExtends
}

func NewMovieExtendsWriter(ctx *Context, box *mp4io.MovieExtends) (*MovieExtendsWriter, error) {
	w := &MovieExtendsWriter{
		boxWriter: newBoxWriter(ctx),
		box:       box,
	}

	if index, ok := ctx.VideoIndex(); ok {
		if err := w.addTrack("video", index); err != nil {
			return nil, err
		}
	}
	if index, ok := ctx.AudioIndex(); ok {
		if err := w.addTrack("audio", index); err != nil {
			return nil, err
		}
	}
	return w, nil
}

func (w *MovieExtendsWriter) addTrack(role string, index int) error {
	if index < 0 || index >= len(w.box.TrackExtends) {
		return &utils.TrackIndexError{Role: role, Index: index, Count: len(w.box.TrackExtends)}
	}
	w.addChild(NewTrackExtendsWriter(w.ctx, &w.box.TrackExtends[index]))
	return nil
}

func (w *MovieExtendsWriter) Write(s *boxstream.Stream) {
	s.StartBox()
	writeBox(s, mp4io.MVEX)
	w.writeChildren(s)
	s.EndBox()
}

// TrackExtendsWriter writes `trex`.
type TrackExtendsWriter struct {
	boxWriter
	box *mp4io.TrackExtends
}

func NewTrackExtendsWriter(ctx *Context, box *mp4io.TrackExtends) *TrackExtendsWriter {
	return &TrackExtendsWriter{
		boxWriter: newBoxWriter(ctx),
		box:       box,
	}
}

func (w *TrackExtendsWriter) Write(s *boxstream.Stream) {
	s.StartBox()
	writeFullBox(s, mp4io.TREX, trexVersion, 0)

	s.WriteU32(w.box.TrackID)
	s.WriteU32(w.box.DefaultSampleDescriptionIndex)
	s.WriteU32(w.box.DefaultSampleDuration)
	s.WriteU32(w.box.DefaultSampleSize)
	s.WriteU32(w.box.DefaultSampleFlags)

	s.EndBox()
}
