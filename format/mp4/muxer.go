package mp4

import (
	"github.com/ugparu/mp4mux/format/mp4/boxstream"
	"github.com/ugparu/mp4mux/format/mp4/mp4io"
)

// InitSegment writes `ftyp`, an optional `free` and `moov` back to back in one pass.
type InitSegment struct {
	boxWriter
}

// NewInitSegment builds the writers for an initialization segment. padding < 1 omits
// the `free` box.
func NewInitSegment(ctx *Context, ftyp *mp4io.FileType, movie *mp4io.Movie, padding int) (*InitSegment, error) {
	moov, err := NewMovieWriter(ctx, movie)
	if err != nil {
		return nil, err
	}
	seg := &InitSegment{boxWriter: newBoxWriter(ctx)}
	seg.addChild(NewFileTypeWriter(ctx, ftyp))
	if padding > 0 {
		seg.addChild(NewFreeWriter(padding))
	}
	seg.addChild(moov)
	return seg, nil
}

// Write emits the children only; the segment has no box of its own.
func (seg *InitSegment) Write(s *boxstream.Stream) {
	seg.writeChildren(s)
}

func (seg *InitSegment) WriteAndFlush() error {
	return seg.writeAndFlush(seg)
}

func (seg *InitSegment) String() string {
	return "INIT_SEGMENT"
}
