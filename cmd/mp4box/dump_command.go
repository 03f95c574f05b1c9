package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/ugparu/mp4mux/internal/inspect"
)

func newDumpCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "dump <file>",
		Short: "Print the box tree of an MP4 file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return fmt.Errorf("open %s: %w", args[0], err)
			}
			defer f.Close()

			boxes, err := inspect.Boxes(f)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, inspect.Render(boxes, inspect.StyleFor(out)))
			return nil
		},
	}
}
