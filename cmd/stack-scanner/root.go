package main

import (
	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

type rootOptions struct {
	cfgFile string
	verbose bool
	noColor bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "stack-scanner",
		Short: "Scan photos of Hot Wheels stacks and log the cars to a sheet",
		Long: `stack-scanner reads the product codes printed on a photo of a stack of
toy car cards, builds a collecthw.com lookup link for each, and appends them to
your collection spreadsheet with status "Unverified".

Settings come from an optional YAML file (--config), a .env file in the
working directory, and STACK_SCANNER_* environment variables.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			_ = godotenv.Load() // Ignore error if .env doesn't exist
			if opts.noColor {
				color.NoColor = true
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.cfgFile, "config", "c", "", "config file path")
	cmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(
		newServeCmd(opts),
		newMCPCmd(opts),
		newScanCmd(opts),
		newVersionCmd(),
	)
	return cmd
}
