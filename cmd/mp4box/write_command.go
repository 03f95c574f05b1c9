package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ugparu/mp4mux/format/mp4"
	"github.com/ugparu/mp4mux/writer/sink"
)

func newWriteCommand(ctx *commandContext) *cobra.Command {
	var (
		outPath     string
		bufferLimit int
		moovOnly    bool
		queueSize   int
	)

	cmd := &cobra.Command{
		Use:   "write",
		Short: "Write the configured movie to a file",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("buffer-limit") {
				if bufferLimit < 1 {
					return fmt.Errorf("--buffer-limit must be positive, got %d", bufferLimit)
				}
				cfg.Writer.BufferLimit = bufferLimit
			}

			out, err := sink.NewAsyncFile(outPath, queueSize)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			tracker := mp4.NewPositionTracker(out)
			movie, mctx := cfg.Build(tracker)

			var writeAndFlush func() error
			if moovOnly {
				moov, err := mp4.NewMovieWriter(mctx, movie)
				if err != nil {
					out.Close()
					return err
				}
				writeAndFlush = moov.WriteAndFlush
			} else {
				seg, err := mp4.NewInitSegment(mctx, cfg.BuildFileType(), movie, cfg.Writer.Padding)
				if err != nil {
					out.Close()
					return err
				}
				writeAndFlush = seg.WriteAndFlush
			}

			writeErr := writeAndFlush()
			out.Close()
			if writeErr != nil {
				return writeErr
			}
			if err = out.Err(); err != nil {
				return fmt.Errorf("write %s: %w", outPath, err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d bytes to %s\n", tracker.Position(), outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "init.mp4", "Output file")
	cmd.Flags().IntVar(&bufferLimit, "buffer-limit", 0, "Override writer.buffer_limit")
	cmd.Flags().BoolVar(&moovOnly, "moov-only", false, "Write the moov box without ftyp")
	cmd.Flags().IntVar(&queueSize, "queue", sink.DefaultQueueSize, "Chunks queued for the file writer")
	return cmd
}
