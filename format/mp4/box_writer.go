// Package mp4 writes ISO base media boxes from read-only mp4io records through a
// tree of box writers and a back-patching box stream.
package mp4

import (
	"github.com/ugparu/mp4mux/format/mp4/boxstream"
	"github.com/ugparu/mp4mux/format/mp4/mp4io"
	"github.com/ugparu/mp4mux/utils"
	"github.com/ugparu/mp4mux/utils/logger"
)

// BoxWriter serializes one box, including its children, into a stream.
type BoxWriter interface {
	Write(s *boxstream.Stream)
}

type writerState uint8

const (
	constructed writerState = iota
	writing
	closed
)

// boxWriter carries what every concrete writer shares: the write context and the
// children, written in the order they were added.
type boxWriter struct {
	ctx      *Context
	children []BoxWriter
	state    writerState
}

func newBoxWriter(ctx *Context) boxWriter {
	return boxWriter{
		ctx:      ctx,
		children: nil,
		state:    constructed,
	}
}

func (w *boxWriter) addChild(child BoxWriter) {
	w.children = append(w.children, child)
}

func (w *boxWriter) writeChildren(s *boxstream.Stream) {
	for _, child := range w.children {
		child.Write(s)
	}
}

// writeAndFlush runs a whole pass of root on a fresh stream. A tree is written once.
func (w *boxWriter) writeAndFlush(root BoxWriter) error {
	if w.state != constructed {
		return &utils.AlreadyWrittenError{}
	}
	w.state = writing
	defer func() {
		w.state = closed
	}()

	start := w.ctx.tracker.Position()
	s := w.ctx.newStream()
	root.Write(s)
	if err := w.ctx.flush(s); err != nil {
		return err
	}
	logger.Debugf(root, "Wrote %d bytes, sink position %d", w.ctx.tracker.Position()-start, w.ctx.tracker.Position())
	return nil
}

func writeBox(s *boxstream.Stream, tag mp4io.Tag) {
	s.WriteTag(tag)
}

func writeFullBox(s *boxstream.Stream, tag mp4io.Tag, version uint8, flags uint32) {
	s.WriteTag(tag)
	s.WriteU8(version)
	s.WriteU24(flags)
}
