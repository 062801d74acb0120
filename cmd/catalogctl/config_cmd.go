package main

import (
	"fmt"

	"github.com/JourneyJu/dsg-sub010/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func (cli *CLI) configCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the resolved settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if file := config.UsedFile(cli.v); file != "" {
				fmt.Fprintf(out, "# config file: %s\n", file)
			} else {
				fmt.Fprintln(out, "# config file: none")
			}

			enc := yaml.NewEncoder(out)
			enc.SetIndent(2)
			if err := enc.Encode(cli.settings); err != nil {
				return fmt.Errorf("failed to encode settings: %w", err)
			}
			return enc.Close()
		},
	}
}
