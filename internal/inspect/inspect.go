// Package inspect lists the box tree of an MP4 file.
package inspect

import (
	"fmt"
	"io"
	"os"
	"strings"

	amp4 "github.com/abema/go-mp4"
	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"
)

// Box is one entry of the box tree.
type Box struct {
	Type      string
	Depth     int
	Offset    uint64
	Size      uint64
	Supported bool // children and payload were parsed
}

// Boxes walks r and returns every box in file order.
func Boxes(r io.ReadSeeker) ([]Box, error) {
	var boxes []Box
	_, err := amp4.ReadBoxStructure(r, func(h *amp4.ReadHandle) (any, error) {
		box := Box{
			Type:      h.BoxInfo.Type.String(),
			Depth:     len(h.Path) - 1,
			Offset:    h.BoxInfo.Offset,
			Size:      h.BoxInfo.Size,
			Supported: h.BoxInfo.IsSupportedType(),
		}
		boxes = append(boxes, box)
		if !box.Supported {
			return nil, nil
		}
		return h.Expand()
	})
	if err != nil {
		return nil, fmt.Errorf("inspect: read box structure: %w", err)
	}
	return boxes, nil
}

// Render returns boxes as a table. Nested boxes are indented under their parent.
func Render(boxes []Box, style table.Style) string {
	tw := table.NewWriter()
	tw.SetStyle(style)
	tw.AppendHeader(table.Row{"Box", "Offset", "Size", "Bytes"})
	for _, box := range boxes {
		name := strings.Repeat("  ", box.Depth) + box.Type
		if !box.Supported {
			name += " (?)"
		}
		tw.AppendRow(table.Row{name, box.Offset, humanize.IBytes(box.Size), box.Size})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
	})
	return tw.Render()
}

// StyleFor picks a rounded table for terminals and plain ASCII otherwise.
func StyleFor(w io.Writer) table.Style {
	if file, ok := w.(*os.File); ok {
		fd := file.Fd()
		if isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd) {
			return table.StyleRounded
		}
	}
	return table.StyleDefault
}
