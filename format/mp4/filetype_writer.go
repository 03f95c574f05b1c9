package mp4

import (
	"github.com/ugparu/mp4mux/format/mp4/boxstream"
	"github.com/ugparu/mp4mux/format/mp4/mp4io"
)

// FileTypeWriter writes `ftyp`.
type FileTypeWriter struct {
	boxWriter
	box *mp4io.FileType
}

func NewFileTypeWriter(ctx *Context, box *mp4io.FileType) *FileTypeWriter {
	return &FileTypeWriter{
		boxWriter: newBoxWriter(ctx),
		box:       box,
	}
}

func (w *FileTypeWriter) Write(s *boxstream.Stream) {
	s.StartBox()
	writeBox(s, mp4io.FTYP)
	s.WriteTag(w.box.MajorBrand)
	s.WriteU32(w.box.MinorVersion)
	for _, brand := range w.box.CompatibleBrands {
		s.WriteTag(brand)
	}
	s.EndBox()
}

func (w *FileTypeWriter) WriteAndFlush() error {
	return w.writeAndFlush(w)
}

// FreeWriter writes a `free` box of padding zero bytes.
type FreeWriter struct {
	padding int
}

func NewFreeWriter(padding int) *FreeWriter {
	return &FreeWriter{padding: max(padding, 0)}
}

func (w *FreeWriter) Write(s *boxstream.Stream) {
	s.WriteBox(mp4io.FREE, func(s *boxstream.Stream) {
		s.WriteBytes(make([]byte, w.padding))
	})
}
