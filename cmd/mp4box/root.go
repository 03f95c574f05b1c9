package main

import (
	"github.com/spf13/cobra"
	"github.com/ugparu/mp4mux/internal/config"
	"github.com/ugparu/mp4mux/utils/logger"
)

type commandContext struct {
	configPath string
	cfg        *config.Config
}

// ensureConfig loads the configuration once. Without --config the defaults are used.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	var (
		cfg *config.Config
		err error
	)
	if c.configPath == "" {
		cfg, err = config.Parse(nil)
	} else {
		cfg, err = config.Load(c.configPath)
	}
	if err != nil {
		return nil, err
	}
	if err = logger.ParseAndInit(cfg.Writer.LogLevel); err != nil {
		return nil, err
	}
	c.cfg = cfg
	return cfg, nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "mp4box",
		Short:         "Write and inspect MP4 movie boxes",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
	rootCmd.PersistentFlags().StringVarP(&ctx.configPath, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newWriteCommand(ctx))
	rootCmd.AddCommand(newDumpCommand())
	rootCmd.AddCommand(newServeCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))
	return rootCmd
}
